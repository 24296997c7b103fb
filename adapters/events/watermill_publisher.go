// Package events publishes lifecycle events over Watermill so other
// instances can react to logouts.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/garmlabs/garm/ports"
)

// LogoutTopic carries LogoutEvent messages.
const LogoutTopic = "garm.logout"

// LogoutEvent notifies other instances that a principal logged out.
type LogoutEvent struct {
	PrincipalID int64  `json:"principal_id"`
	Username    string `json:"username"`
}

// WatermillPublisher implements the EventPublisher interface over a
// Watermill message publisher.
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher wraps an existing Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogout emits a logout event with a fresh message ID.
func (p *WatermillPublisher) PublishLogout(ctx context.Context, principalID int64, username string) error {
	payload, err := json.Marshal(LogoutEvent{
		PrincipalID: principalID,
		Username:    username,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(LogoutTopic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
