package ports

import "context"

// EventPublisher notifies other instances about session lifecycle
// events. Publishing is best-effort; failures never fail the request
// that triggered them.
type EventPublisher interface {
	PublishLogout(ctx context.Context, address string, tokenID string) error
}
