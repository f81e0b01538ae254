// Package events fans case lifecycle changes out to agent dashboards (MQTT)
// and to a Redis stream for downstream consumers.
package events

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Type of a case event
type Type string

const (
	CaseCreated      Type = "case.created"
	CaseAssigned     Type = "case.assigned"
	CaseUpdated      Type = "case.updated"
	PaymentRequested Type = "payment.requested"
	PaymentConfirmed Type = "payment.confirmed"
	PaymentFailed    Type = "payment.failed"
)

// Event one case lifecycle change
type Event struct {
	Type    Type      `json:"type"`
	CaseID  int64     `json:"case_id"`
	AgentID *int64    `json:"agent_id,omitempty"`
	Status  string    `json:"status"`
	Urgency string    `json:"urgency,omitempty"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"at"`
}

// Publisher delivers events; callers treat failures as non-fatal
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop drops every event
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Fanout publishes to every sink, logging and swallowing individual failures
type Fanout struct {
	sinks  []Publisher
	logger *zap.Logger
}

func NewFanout(logger *zap.Logger, sinks ...Publisher) *Fanout {
	return &Fanout{sinks: sinks, logger: logger}
}

func (f *Fanout) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	for _, s := range f.sinks {
		if err := s.Publish(ctx, ev); err != nil {
			f.logger.Warn("publish case event failed",
				zap.String("type", string(ev.Type)),
				zap.Int64("case_id", ev.CaseID),
				zap.Error(err),
			)
		}
	}
	return nil
}
