package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shandysiswandi/authgate/internal/identity/usecase"
	"github.com/shandysiswandi/authgate/internal/pkg/instrument"
	"github.com/shandysiswandi/authgate/internal/pkg/messaging"
	"github.com/shandysiswandi/authgate/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishUserRegistered(ctx context.Context, msg usecase.UserRegisteredEvent) error {
	return m.publish(ctx, "PublishUserRegistered", event.UserRegisteredDestination, msg.UserID, event.UserRegisteredMessage{
		UserID:     msg.UserID,
		Email:      msg.Email,
		FullName:   msg.FullName,
		OccurredAt: msg.OccurredAt.Unix(),
	})
}

func (m *Messaging) PublishTwoFactorEnabled(ctx context.Context, msg usecase.TwoFactorEnabledEvent) error {
	return m.publish(ctx, "PublishTwoFactorEnabled", event.TwoFactorEnabledDestination, msg.UserID, event.TwoFactorEnabledMessage{
		UserID:     msg.UserID,
		OccurredAt: msg.OccurredAt.Unix(),
	})
}

func (m *Messaging) PublishSessionRevoked(ctx context.Context, msg usecase.SessionRevokedEvent) error {
	return m.publish(ctx, "PublishSessionRevoked", event.SessionRevokedDestination, msg.UserID, event.SessionRevokedMessage{
		UserID:     msg.UserID,
		Reason:     msg.Reason,
		OccurredAt: msg.OccurredAt.Unix(),
	})
}

// publish keys every message by user id so a partitioned broker keeps one
// user's events in order.
func (m *Messaging) publish(ctx context.Context, name, destination string, userID int64, payload any) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, name)
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, destination, messaging.OutgoingMessage{
		Body:    body,
		Key:     strconv.AppendInt(nil, userID, 10),
		Headers: []messaging.Header{{Key: instrument.HeaderCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
