package ports

import (
	"context"

	"github.com/jyotish/auth-service/internal/core/domain"
)

// EventPublisher delivers audit events. Callers treat failures as non-fatal.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.AuthEvent) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.AuthEvent) error { return nil }
