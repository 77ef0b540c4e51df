package usage

import "context"

// Store persists the ledger.
type Store interface {
	// Load returns the current ledger. A store that does not exist yet
	// yields an empty ledger.
	Load(ctx context.Context) (*Data, error)

	// Update loads the latest ledger, applies fn and persists the result as
	// one atomic step. Nothing is written if fn returns an error.
	Update(ctx context.Context, fn func(*Data) error) error

	// Close releases resources held by the store.
	Close() error
}
