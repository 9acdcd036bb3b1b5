package store

import (
	"context"

	"github.com/groundwire/requeue/message"
)

// Store is the full persistence interface. A single backend implements
// the message queue contract plus lifecycle management.
type Store interface {
	message.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
