package pipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/aretw0/charsheet/internal/logging"
	"github.com/aretw0/charsheet/pkg/domain"
	"github.com/aretw0/charsheet/pkg/ports"
)

// Observer is called with the pipe's new value after every accepted change.
type Observer func(ctx context.Context, value any)

type kind int

const (
	kindSource kind = iota
	kindPick
)

// Pipe is either a Source (holds the value) or a derived view onto a parent's field.
type Pipe struct {
	kind      kind
	parent    *Pipe
	field     string
	src       *source
	observers []*observer
	detach    func()
}

type observer struct {
	fn Observer
}

type source struct {
	value    any
	merge    MergeFunc
	store    ports.DocumentStore
	id       string
	computed [][]string
	logger   *slog.Logger
}

// Option configures a Source.
type Option func(*source)

// WithMerge sets the merge policy. Defaults to ShallowMerge.
func WithMerge(fn MergeFunc) Option {
	return func(s *source) {
		if fn != nil {
			s.merge = fn
		}
	}
}

// WithStore persists every accepted value under id.
func WithStore(store ports.DocumentStore, id string) Option {
	return func(s *source) {
		s.store = store
		s.id = id
	}
}

// WithComputed names dotted paths that are derived by the merge function.
// They are stripped before persisting.
func WithComputed(paths ...string) Option {
	return func(s *source) {
		for _, p := range paths {
			s.computed = append(s.computed, strings.Split(p, "."))
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *source) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSource creates a root pipe holding initial. Subscribers are not called on creation.
func NewSource(initial any, opts ...Option) *Pipe {
	s := &source{
		value:  initial,
		merge:  ShallowMerge,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return &Pipe{kind: kindSource, src: s}
}

// LoadSource restores a Source from store, or starts from fallback when nothing is stored.
// The merge function runs once with a nil update so computed fields are fresh.
func LoadSource(ctx context.Context, store ports.DocumentStore, id string, fallback any, opts ...Option) (*Pipe, error) {
	initial := fallback
	rec, err := store.Load(ctx, id)
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to load document %q: %w", id, err)
	default:
		var v any
		if err := json.Unmarshal(rec.Data, &v); err != nil {
			return nil, fmt.Errorf("failed to decode document %q: %w", id, err)
		}
		initial = v
	}

	opts = append(append([]Option(nil), opts...), WithStore(store, id))
	p := NewSource(nil, opts...)
	p.src.value = p.src.merge(initial, nil)
	return p, nil
}

// Subscribe registers fn and returns a function that removes it.
func (p *Pipe) Subscribe(fn Observer) (unsubscribe func()) {
	o := &observer{fn: fn}
	p.observers = append(p.observers, o)
	return func() {
		for i, x := range p.observers {
			if x == o {
				p.observers = append(p.observers[:i:i], p.observers[i+1:]...)
				return
			}
		}
	}
}

// Get pulls the current value through the chain. Missing fields read as nil.
func (p *Pipe) Get() any {
	switch p.kind {
	case kindSource:
		return p.src.value
	default:
		m, ok := p.parent.Get().(map[string]any)
		if !ok {
			return nil
		}
		return m[p.field]
	}
}

// Update proposes v as the new value of this pipe.
//
// On a Source the merge function produces the candidate; an equal candidate is dropped.
// Otherwise observers run depth-first in subscription order, then the value is persisted.
// A persistence error is returned after the value has been accepted.
func (p *Pipe) Update(ctx context.Context, v any) error {
	switch p.kind {
	case kindSource:
		return p.accept(ctx, v)
	default:
		parent, _ := p.parent.Get().(map[string]any)
		next := make(map[string]any, len(parent)+1)
		for k, x := range parent {
			next[k] = x
		}
		next[p.field] = v
		return p.parent.Update(ctx, next)
	}
}

// Pick derives a view onto field.
func (p *Pipe) Pick(field string) *Pipe {
	child := &Pipe{kind: kindPick, parent: p, field: field}
	child.detach = p.Subscribe(func(ctx context.Context, _ any) {
		child.notify(ctx)
	})
	return child
}

// Detach stops a derived pipe from receiving its parent's notifications.
// It is a no-op on a Source.
func (p *Pipe) Detach() {
	if p.detach != nil {
		p.detach()
		p.detach = nil
	}
}

// PickPath derives through a dotted path, e.g. "levels.magic".
func (p *Pipe) PickPath(path string) *Pipe {
	out := p
	for _, f := range strings.Split(path, ".") {
		out = out.Pick(f)
	}
	return out
}

// Root returns the Source at the top of the chain.
func (p *Pipe) Root() *Pipe {
	for p.kind != kindSource {
		p = p.parent
	}
	return p
}

func (p *Pipe) accept(ctx context.Context, v any) error {
	s := p.src
	next := s.merge(s.value, v)
	if reflect.DeepEqual(next, s.value) {
		s.logger.Debug("pipe update unchanged")
		return nil
	}
	s.value = next
	p.notify(ctx)
	return p.persist(ctx)
}

func (p *Pipe) notify(ctx context.Context) {
	v := p.Get()
	for _, o := range append([]*observer(nil), p.observers...) {
		o.fn(ctx, v)
	}
}

func (p *Pipe) persist(ctx context.Context) error {
	s := p.src
	if s.store == nil {
		return nil
	}
	data, err := json.Marshal(strip(s.value, s.computed))
	if err != nil {
		return fmt.Errorf("failed to encode document %q: %w", s.id, err)
	}
	if err := s.store.Save(ctx, s.id, domain.NewRecord(s.id, data)); err != nil {
		s.logger.Error("failed to persist document", "id", s.id, "error", err)
		return fmt.Errorf("failed to persist document %q: %w", s.id, err)
	}
	return nil
}

// strip returns v without the given paths. v is not modified.
func strip(v any, paths [][]string) any {
	for _, path := range paths {
		v = without(v, path)
	}
	return v
}

func without(v any, path []string) any {
	m, ok := v.(map[string]any)
	if !ok || len(path) == 0 {
		return v
	}
	child, ok := m[path[0]]
	if !ok {
		return v
	}
	out := make(map[string]any, len(m))
	for k, x := range m {
		out[k] = x
	}
	if len(path) == 1 {
		delete(out, path[0])
		return out
	}
	out[path[0]] = without(child, path[1:])
	return out
}
