package charsheet

import (
	"context"
	"log/slog"

	"github.com/aretw0/charsheet/internal/logging"
	"github.com/aretw0/charsheet/pkg/adapters/memory"
	"github.com/aretw0/charsheet/pkg/domain"
	"github.com/aretw0/charsheet/pkg/keygen"
	"github.com/aretw0/charsheet/pkg/pipe"
	"github.com/aretw0/charsheet/pkg/ports"
	"github.com/aretw0/charsheet/pkg/renderer"
	"github.com/aretw0/charsheet/pkg/session"
)

// Host is the high-level entry point. It owns the engine, the key allocator and
// the document store shared by every renderer it creates.
type Host struct {
	engine ports.SheetEngine
	keys   *keygen.Allocator
	store  ports.DocumentStore
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	page   string
}

// Option defines a functional option for configuring the Host.
type Option func(*Host)

// WithEngine injects the rules engine. Defaults to the in-memory reference engine.
func WithEngine(e ports.SheetEngine) Option {
	return func(h *Host) {
		h.engine = e
	}
}

// WithStore sets the document store used for persistence.
func WithStore(s ports.DocumentStore) Option {
	return func(h *Host) {
		h.store = s
	}
}

// WithKeys shares a key allocator between hosts.
func WithKeys(k *keygen.Allocator) Option {
	return func(h *Host) {
		h.keys = k
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(h *Host) {
		h.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithPage sets the HTML page every session sheet is bound to.
func WithPage(html string) Option {
	return func(h *Host) {
		h.page = html
	}
}

// New creates a Host.
func New(opts ...Option) *Host {
	h := &Host{}
	for _, opt := range opts {
		opt(h)
	}
	if h.engine == nil {
		h.engine = memory.NewEngine()
	}
	if h.keys == nil {
		h.keys = keygen.New()
	}
	if h.store == nil {
		h.store = memory.NewStore()
	}
	if h.logger == nil {
		h.logger = logging.NewNop()
	}
	return h
}

// Engine returns the rules engine.
func (h *Host) Engine() ports.SheetEngine { return h.engine }

// Store returns the document store.
func (h *Host) Store() ports.DocumentStore { return h.store }

// NewRenderer creates a sheet from an engine document. Extra options are
// applied after the host defaults.
func (h *Host) NewRenderer(ctx context.Context, document []byte, opts ...renderer.Option) (*renderer.Renderer, error) {
	base := []renderer.Option{
		renderer.WithLogger(h.logger),
		renderer.WithHooks(h.hooks),
	}
	return renderer.New(ctx, h.engine, h.keys, document, append(base, opts...)...)
}

// OpenDocument restores a user-editable document from the host store, or starts
// from fallback. Accepted values are persisted back under id.
func (h *Host) OpenDocument(ctx context.Context, id string, fallback any, opts ...pipe.Option) (*pipe.Pipe, error) {
	base := []pipe.Option{pipe.WithLogger(h.logger)}
	return pipe.LoadSource(ctx, h.store, id, fallback, append(base, opts...)...)
}

// Sessions creates a session manager sharing the host's engine, keys and store.
func (h *Host) Sessions() *session.Manager {
	return session.NewManager(h.engine, h.keys,
		session.WithStore(h.store),
		session.WithPage(h.page),
		session.WithHooks(h.hooks),
		session.WithLogger(h.logger),
	)
}
