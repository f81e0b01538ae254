package events

import (
	"context"

	commonredis "github.com/fanuel08/Medicine-project/common/redis"
)

// StreamPublisher appends events to a capped Redis stream for downstream consumers
type StreamPublisher struct {
	client *commonredis.Client
	stream string
	maxLen int64
}

func NewStreamPublisher(client *commonredis.Client, stream string, maxLen int64) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *StreamPublisher) Publish(ctx context.Context, ev Event) error {
	_, err := commonredis.AppendJSON(ctx, p.client, p.stream, p.maxLen, string(ev.Type), ev)
	return err
}
