package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/charsheet/pkg/dice"
	"github.com/aretw0/charsheet/pkg/domain"
)

// Engine implements ports.SheetEngine in process. Sheets live in a map owned by
// the Engine value, keyed by the renderer's allocated key.
// Safe for concurrent use.
type Engine struct {
	mu     sync.RWMutex
	sheets map[string]*domain.Snapshot
}

// NewEngine creates an empty in-memory engine.
func NewEngine() *Engine {
	return &Engine{
		sheets: make(map[string]*domain.Snapshot),
	}
}

// Create parses document and stores it under key, replacing any previous sheet.
func (e *Engine) Create(ctx context.Context, key string, document []byte) error {
	sheet, err := domain.DecodeSnapshot(document)
	if err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", key, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.sheets[key] = sheet
	return nil
}

// Snapshot serializes the current sheet. Each call returns fresh bytes.
func (e *Engine) Snapshot(ctx context.Context, key string) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sheet, ok := e.sheets[key]
	if !ok {
		return nil, domain.ErrSheetNotFound
	}
	data, err := json.Marshal(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sheet %s: %w", key, err)
	}
	return data, nil
}

// SetUserValue decodes value as a dice value and stores it under name.
// New names are appended to the end of the user-value order; a JSON null
// removes name.
func (e *Engine) SetUserValue(ctx context.Context, key, name string, value []byte) error {
	unset := bytes.Equal(bytes.TrimSpace(value), []byte("null"))

	var v dice.Value
	if !unset {
		if err := json.Unmarshal(value, &v); err != nil {
			return fmt.Errorf("invalid value for %s: %w", name, err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sheet, ok := e.sheets[key]
	if !ok {
		return domain.ErrSheetNotFound
	}
	if unset {
		sheet.UserValues.Delete(name)
		return nil
	}
	sheet.UserValues.Set(name, v)
	return nil
}

// Delete drops the sheet stored under key.
func (e *Engine) Delete(ctx context.Context, key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sheets, key)
	return nil
}

// MinimumRequiredUserValues returns every property used as a definition or as a
// script dependency by an active feature that no modifier of an active feature
// specifies, sorted.
func (e *Engine) MinimumRequiredUserValues(ctx context.Context, key string) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sheet, ok := e.sheets[key]
	if !ok {
		return nil, domain.ErrSheetNotFound
	}

	required := make(map[string]struct{})
	specified := make(map[string]struct{})
	for _, set := range sheet.ActiveFeatures {
		for _, feature := range set.Features {
			for _, def := range feature.Definitions {
				required[def.Name] = struct{}{}
			}
			for _, mod := range feature.Modifiers {
				specified[mod.Property] = struct{}{}
				if mod.Value.Script != nil {
					for _, dep := range mod.Value.Script.Dependencies {
						required[dep] = struct{}{}
					}
				}
			}
		}
	}

	names := make([]string, 0, len(required))
	for name := range required {
		if _, ok := specified[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
