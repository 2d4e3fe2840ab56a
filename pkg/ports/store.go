package ports

import (
	"context"

	"github.com/aretw0/charsheet/pkg/domain"
)

// DocumentStore defines the interface for persisting user-editable documents.
type DocumentStore interface {
	// Save persists the record under id, replacing any previous version.
	Save(ctx context.Context, id string, record *domain.Record) error

	// Load retrieves the record for id.
	// Returns domain.ErrDocumentNotFound if the document does not exist.
	Load(ctx context.Context, id string) (*domain.Record, error)

	// Delete removes the record for id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the ids of all stored documents.
	List(ctx context.Context) ([]string, error)
}
