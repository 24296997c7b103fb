package ports

import "context"

// EventPublisher notifies other instances about lifecycle events.
type EventPublisher interface {
	PublishLogout(ctx context.Context, principalID int64, username string) error
}
