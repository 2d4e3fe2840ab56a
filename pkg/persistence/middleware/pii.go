package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/aretw0/charsheet/pkg/domain"
	"github.com/aretw0/charsheet/pkg/ports"
)

// Mask replaces the value of every masked key.
const Mask = "***"

type piiMiddleware struct {
	next     ports.DocumentStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks values whose keys match any pattern.
// Masking happens on the stored copy only. Patterns must compile.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, id string, record *domain.Record) error {
	var doc any
	if err := json.Unmarshal(record.Data, &doc); err != nil {
		return fmt.Errorf("failed to decode document for masking: %w", err)
	}

	data, err := json.Marshal(maskValue(doc, m.patterns))
	if err != nil {
		return fmt.Errorf("failed to encode masked document: %w", err)
	}

	masked := *record
	masked.Data = data
	return m.next.Save(ctx, id, &masked)
}

func (m *piiMiddleware) Load(ctx context.Context, id string) (*domain.Record, error) {
	return m.next.Load(ctx, id)
}

func (m *piiMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// maskValue walks decoded JSON. It never mutates its input.
func maskValue(v any, patterns []*regexp.Regexp) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, sub := range t {
			if matchesAny(k, patterns) {
				out[k] = Mask
				continue
			}
			out[k] = maskValue(sub, patterns)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, sub := range t {
			out[i] = maskValue(sub, patterns)
		}
		return out
	default:
		return v
	}
}

func matchesAny(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
