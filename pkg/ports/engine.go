package ports

import "context"

// SheetEngine is the externally owned evaluation engine. Every call is
// synchronous and exchanges JSON by value; sheets are addressed by key.
type SheetEngine interface {
	// Create instantiates a sheet from a JSON document under key.
	Create(ctx context.Context, key string, document []byte) error

	// Snapshot returns the full current sheet as JSON.
	// Returns domain.ErrSheetNotFound for unknown keys.
	Snapshot(ctx context.Context, key string) ([]byte, error)

	// SetUserValue stores one scalar user value given as a JSON dice value.
	// A JSON null unsets the value.
	SetUserValue(ctx context.Context, key, name string, value []byte) error

	// MinimumRequiredUserValues lists, in a stable order, the properties the
	// sheet depends on that no feature defines.
	MinimumRequiredUserValues(ctx context.Context, key string) ([]string, error)

	// Delete discards the sheet under key. Deleting an unknown key is not an error.
	Delete(ctx context.Context, key string) error
}
