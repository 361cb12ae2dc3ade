package history

import "context"

// Repository persists prediction records.
type Repository interface {
	// Insert stores a prediction record.
	Insert(ctx context.Context, record *Record) error

	// ListRecent returns up to limit records, newest first.
	ListRecent(ctx context.Context, limit int) ([]*Record, error)
}
