package ports

import (
	"context"

	"github.com/aretw0/charsheet/pkg/domain"
)

// ChangeHandler applies one kind of change to the sheet held under key.
type ChangeHandler func(ctx context.Context, engine SheetEngine, key string, change domain.Change) error
