// Package tx defines the transaction boundary used by domain services.
// The postgres implementation lives in internal/infrastructure/storage.
package tx

import "context"

// Manager runs a function within a database transaction.
// Nested calls reuse the transaction already carried by the context.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
