package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hospitalops/etrack-api/internal/email"
	"github.com/hospitalops/etrack-api/internal/model"
	"github.com/hospitalops/etrack-api/pkg/logger"
	"github.com/hospitalops/etrack-api/pkg/messaging"
)

// envelope mirrors what the outbox processor publishes.
type envelope struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Notifier consumes request lifecycle events from the broker and emails
// the assignee. It shares a process with the outbox processor but is
// otherwise independent of it.
type Notifier struct {
	broker  messaging.Broker
	sender  email.Service
	logger  *logger.Logger
	channel string
}

func NewNotifier(broker messaging.Broker, sender email.Service, logger *logger.Logger, channel string) *Notifier {
	return &Notifier{
		broker:  broker,
		sender:  sender,
		logger:  logger,
		channel: channel,
	}
}

// Run blocks until ctx is cancelled or the subscription closes.
func (n *Notifier) Run(ctx context.Context) error {
	msgs, err := n.broker.Subscribe(ctx, n.channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", n.channel, err)
	}

	n.logger.Info("Notifier started", "channel", n.channel)

	for msg := range msgs {
		if err := n.handle(ctx, msg); err != nil {
			n.logger.Error(err, "Failed to handle event")
		}
	}
	return ctx.Err()
}

func (n *Notifier) handle(ctx context.Context, raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode envelope: %w", err)
	}

	switch env.EventType {
	case model.EventRequestCreated,
		model.EventRequestAccepted,
		model.EventRequestFinished,
		model.EventRequestCancelled:
	default:
		// Evaluation events carry no notification target.
		return nil
	}

	var payload model.RequestEventPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	if payload.AssigneeContact == "" {
		n.logger.Warn("Assignee has no contact, skipping notification",
			"request_id", payload.RequestID.String())
		return nil
	}

	if env.EventType == model.EventRequestCreated {
		return n.sender.SendRequestAssigned(ctx,
			payload.AssigneeContact, payload.AssigneeName, payload.RequestID.String())
	}
	return n.sender.SendRequestStatusChanged(ctx,
		payload.AssigneeContact, payload.RequestID.String(), string(payload.Status))
}
