package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// mqttClient is the subset of common/mqtt.Client used here
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	QoS() byte
}

// MQTTPublisher notifies agent dashboards: <prefix>/<agent_id> for an agent's
// own cases, <prefix>/unassigned for cases nobody holds yet.
type MQTTPublisher struct {
	client      mqttClient
	topicPrefix string
}

func NewMQTTPublisher(client mqttClient, topicPrefix string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topicPrefix: strings.TrimRight(topicPrefix, "/")}
}

// Topic for ev
func (p *MQTTPublisher) Topic(ev Event) string {
	if ev.AgentID == nil {
		return p.topicPrefix + "/unassigned"
	}
	return fmt.Sprintf("%s/%d", p.topicPrefix, *ev.AgentID)
}

func (p *MQTTPublisher) Publish(_ context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.client.Publish(p.Topic(ev), p.client.QoS(), false, payload)
}
