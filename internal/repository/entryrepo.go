package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/chronica-app/chronica/internal/model"
)

// EntryRepository provides user-scoped access to journal entries.
type EntryRepository interface {
	// Create inserts a complete entry document.
	Create(ctx context.Context, e *model.Entry) error

	// Update applies a partial update to an existing entry. Fields not
	// covered by the patch keep their previously persisted values.
	Update(ctx context.Context, userID, entryID uuid.UUID, p model.EntryPatch) error

	// Delete removes an entry document.
	Delete(ctx context.Context, userID, entryID uuid.UUID) error

	// Get returns a single entry by ID.
	Get(ctx context.Context, userID, entryID uuid.UUID) (*model.Entry, error)

	// ListByUser returns all of a user's entries ordered by creation
	// timestamp descending.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Entry, error)

	// ListWithLocation returns the user's entries that carry a location,
	// ordered by creation timestamp descending.
	ListWithLocation(ctx context.Context, userID uuid.UUID) ([]model.Entry, error)
}
