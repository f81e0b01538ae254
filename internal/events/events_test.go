package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMQTT struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (f *fakeMQTT) Publish(topic string, _ byte, _ bool, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeMQTT) QoS() byte { return 1 }

func TestMQTTPublisher_Topics(t *testing.T) {
	c := &fakeMQTT{}
	p := NewMQTTPublisher(c, "afyalink/agents/")
	agent := int64(4)

	require.NoError(t, p.Publish(context.Background(), Event{Type: CaseAssigned, CaseID: 9, AgentID: &agent}))
	require.NoError(t, p.Publish(context.Background(), Event{Type: CaseCreated, CaseID: 10}))

	assert.Equal(t, []string{"afyalink/agents/4", "afyalink/agents/unassigned"}, c.topics)

	var got Event
	require.NoError(t, json.Unmarshal(c.payloads[0], &got))
	assert.Equal(t, CaseAssigned, got.Type)
	assert.Equal(t, int64(9), got.CaseID)
}

func TestStreamPublisher_AppendsJSON(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	p := NewStreamPublisher(client, "afyalink:case-events", 100)
	require.NoError(t, p.Publish(context.Background(), Event{Type: PaymentConfirmed, CaseID: 3, Status: "paid"}))

	msgs, err := client.XRangeN(context.Background(), "afyalink:case-events", "-", "+", 10).Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, string(PaymentConfirmed), msgs[0].Values["kind"])
	assert.NotEmpty(t, msgs[0].Values["timestamp"])

	data, ok := msgs[0].Values["data"].(string)
	require.True(t, ok)
	var got Event
	require.NoError(t, json.Unmarshal([]byte(data), &got))
	assert.Equal(t, PaymentConfirmed, got.Type)
	assert.Equal(t, "paid", got.Status)
}

func TestFanout_SwallowsSinkErrors(t *testing.T) {
	bad := &fakeMQTT{err: errors.New("broker down")}
	good := &fakeMQTT{}
	f := NewFanout(zap.NewNop(), NewMQTTPublisher(bad, "a"), NewMQTTPublisher(good, "b"))

	err := f.Publish(context.Background(), Event{Type: CaseCreated, CaseID: 1})
	assert.NoError(t, err)
	assert.Len(t, good.topics, 1)
}
