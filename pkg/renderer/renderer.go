package renderer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aretw0/charsheet/internal/logging"
	"github.com/aretw0/charsheet/pkg/directive"
	"github.com/aretw0/charsheet/pkg/dom"
	"github.com/aretw0/charsheet/pkg/domain"
	"github.com/aretw0/charsheet/pkg/keygen"
	"github.com/aretw0/charsheet/pkg/pipe"
	"github.com/aretw0/charsheet/pkg/ports"
	"github.com/aretw0/charsheet/pkg/registry"
)

var (
	// ErrAlreadyBound is returned by BindToDom while a root is attached.
	ErrAlreadyBound = errors.New("renderer is already bound to an element")
	// ErrNoRoot is returned when neither the element nor its descendants carry data-cs-root.
	ErrNoRoot = errors.New("no root element found for character sheet renderer")
	// ErrTemplateNotFound is returned when a list directive names a missing template.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrNoDocumentSource is returned for doc directives on a renderer without WithDocument.
	ErrNoDocumentSource = errors.New("renderer has no document source")
)

// RenderFunc receives the previous snapshot (nil on the first render) and the next one.
// It decides for itself whether anything relevant changed.
type RenderFunc func(ctx context.Context, prev, next *domain.Snapshot)

// Binder is a registered render callback.
type Binder struct {
	r       *Renderer
	render  RenderFunc
	auto    bool
	closers []func()
}

// Render invokes the binder's callback.
func (b *Binder) Render(ctx context.Context, prev, next *domain.Snapshot) {
	b.render(ctx, prev, next)
}

// Update applies changes through the owning renderer.
func (b *Binder) Update(ctx context.Context, changes ...domain.Change) error {
	return b.r.Update(ctx, changes...)
}

func (b *Binder) close() {
	for _, fn := range b.closers {
		fn()
	}
	b.closers = nil
}

// Renderer binds one engine sheet to a document subtree. Not safe for concurrent use.
type Renderer struct {
	key      string
	engine   ports.SheetEngine
	keys     *keygen.Allocator
	registry *registry.Registry
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	document *pipe.Pipe

	root    *dom.Element
	current *domain.Snapshot
	synced  bool
	binders []*Binder
}

// New allocates a key and creates the sheet in the engine from document.
func New(ctx context.Context, engine ports.SheetEngine, keys *keygen.Allocator, document []byte, opts ...Option) (*Renderer, error) {
	if keys == nil {
		keys = keygen.New()
	}
	r := &Renderer{
		engine:   engine,
		keys:     keys,
		registry: registry.Default(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	key, err := keys.Allocate()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate sheet key: %w", err)
	}
	if err := engine.Create(ctx, key, document); err != nil {
		keys.Release(key)
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	r.key = key
	r.logger = r.logger.With("sheet", key)
	r.logger.Debug("sheet created")
	return r, nil
}

// Key returns the sheet key.
func (r *Renderer) Key() string { return r.key }

// Snapshot returns the last synchronized snapshot, or nil before the first one.
func (r *Renderer) Snapshot() *domain.Snapshot { return r.current }

// Root returns the bound root element, or nil.
func (r *Renderer) Root() *dom.Element { return r.root }

// Binders returns the number of registered binders.
func (r *Renderer) Binders() int { return len(r.binders) }

// MinimumRequiredUserValues asks the engine which user values the sheet still needs.
func (r *Renderer) MinimumRequiredUserValues(ctx context.Context) ([]string, error) {
	return r.engine.MinimumRequiredUserValues(ctx, r.key)
}

// BindToDom finds the root marker at or below el, creates binders for every
// directive and renders them. The first bind synchronizes with the engine; a
// later bind renders against the snapshot already held.
func (r *Renderer) BindToDom(ctx context.Context, el *dom.Element) error {
	if r.root != nil {
		return ErrAlreadyBound
	}
	root := directive.FindRoot(el)
	if root == nil {
		return ErrNoRoot
	}

	ds, err := directive.Scan(root)
	if err != nil {
		return err
	}

	created := make([]*Binder, 0, len(ds))
	for _, d := range ds {
		b, err := r.directiveBinder(d)
		if err != nil {
			for _, c := range created {
				r.UnregisterBinder(c)
			}
			return err
		}
		created = append(created, b)
	}

	r.root = root
	r.logger.Debug("bound to document", "binders", len(created))

	if !r.synced {
		if err := r.Synchronize(ctx); err != nil {
			for _, c := range created {
				r.UnregisterBinder(c)
			}
			r.root = nil
			return err
		}
		return nil
	}
	for _, b := range created {
		b.Render(ctx, nil, r.current)
	}
	return nil
}

// Unbind detaches the root and drops binders created from directives.
// Binders created with CreateBinder stay registered.
func (r *Renderer) Unbind() {
	kept := r.binders[:0]
	for _, b := range r.binders {
		if b.auto {
			b.close()
			continue
		}
		kept = append(kept, b)
	}
	clear(r.binders[len(kept):])
	r.binders = kept
	r.root = nil
}

// Close unbinds, discards the sheet from the engine and releases the sheet key.
// The key is released even when the engine fails to discard the sheet.
func (r *Renderer) Close(ctx context.Context) error {
	r.Unbind()
	for _, b := range r.binders {
		b.close()
	}
	r.binders = nil
	defer r.keys.Release(r.key)

	if err := r.engine.Delete(ctx, r.key); err != nil {
		return fmt.Errorf("failed to discard sheet %s: %w", r.key, err)
	}
	r.logger.Debug("sheet discarded")
	return nil
}

// Synchronize pulls the sheet from the engine and renders every binder in
// registration order with the previous and the next snapshot.
func (r *Renderer) Synchronize(ctx context.Context) error {
	raw, err := r.engine.Snapshot(ctx, r.key)
	if err != nil {
		return fmt.Errorf("failed to read sheet %s: %w", r.key, err)
	}
	next, err := domain.DecodeSnapshot(raw)
	if err != nil {
		return fmt.Errorf("failed to decode sheet %s: %w", r.key, err)
	}

	prev := r.current
	binders := slices.Clone(r.binders)
	for _, b := range binders {
		b.Render(ctx, prev, next)
	}
	r.current = next
	r.synced = true

	if r.hooks.OnSynchronize != nil {
		r.hooks.OnSynchronize(ctx, &domain.SyncEvent{
			EventBase: domain.NewEventBase(domain.EventSynchronize, r.key),
			Binders:   len(binders),
			Diff:      domain.Diff(prev, next),
		})
	}
	return nil
}

// Update applies each change through the registry, then synchronizes once.
// Failures are logged and reported but never stop the batch; all of them are
// returned joined.
func (r *Renderer) Update(ctx context.Context, changes ...domain.Change) error {
	var errs []error
	for _, c := range changes {
		if err := r.registry.Apply(ctx, r.engine, r.key, c); err != nil {
			r.logger.Error("change rejected", "type", c.Type, "property", c.Property, "error", err)
			if r.hooks.OnChangeRejected != nil {
				r.hooks.OnChangeRejected(ctx, &domain.ChangeEvent{
					EventBase: domain.NewEventBase(domain.EventChangeRejected, r.key),
					Change:    c,
					Err:       err,
				})
			}
			errs = append(errs, err)
			continue
		}
		if r.hooks.OnChangeApplied != nil {
			r.hooks.OnChangeApplied(ctx, &domain.ChangeEvent{
				EventBase: domain.NewEventBase(domain.EventChangeApplied, r.key),
				Change:    c,
			})
		}
	}

	if err := r.Synchronize(ctx); err != nil {
		r.logger.Error("synchronize failed", "error", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// CreateBinder registers render. It is called on every later synchronize; call
// Render yourself with the current snapshot if the binder needs an initial paint.
func (r *Renderer) CreateBinder(render RenderFunc) *Binder {
	b := &Binder{r: r, render: render}
	r.binders = append(r.binders, b)
	return b
}

// UnregisterBinder removes b. Unknown binders are ignored.
func (r *Renderer) UnregisterBinder(b *Binder) {
	i := slices.Index(r.binders, b)
	if i < 0 {
		return
	}
	b.close()
	r.binders = slices.Delete(r.binders, i, i+1)
}
