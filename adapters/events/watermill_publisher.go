package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/DCMX-Protocol/walletgate/ports"
)

// LogoutTopic carries session logout notifications between instances,
// so every node can honor a revocation recorded by another.
const LogoutTopic = "walletgate.session.logout"

// LogoutEvent is the wire payload for a logout notification.
type LogoutEvent struct {
	Address  string    `json:"address"`
	TokenID  string    `json:"token_id"`
	LoggedAt time.Time `json:"logged_at"`
}

// WatermillPublisher implements the EventPublisher port on top of a
// watermill publisher (redisstream in production, gochannel in tests
// and single-instance runs).
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher wraps a watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogout emits a logout event for the token id.
func (p *WatermillPublisher) PublishLogout(ctx context.Context, address string, tokenID string) error {
	event := LogoutEvent{
		Address:  address,
		TokenID:  tokenID,
		LoggedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal logout event: %w", err)
	}

	msg := message.NewMessage(tokenID, payload)
	if err := p.publisher.Publish(LogoutTopic, msg); err != nil {
		return fmt.Errorf("failed to publish logout event: %w", err)
	}
	return nil
}
