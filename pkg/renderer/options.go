package renderer

import (
	"log/slog"

	"github.com/aretw0/charsheet/pkg/domain"
	"github.com/aretw0/charsheet/pkg/pipe"
	"github.com/aretw0/charsheet/pkg/registry"
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithHooks sets lifecycle callbacks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(r *Renderer) {
		r.hooks = h
	}
}

// WithDocument provides the Source that data-cs-bind-doc directives bind to.
func WithDocument(p *pipe.Pipe) Option {
	return func(r *Renderer) {
		r.document = p
	}
}

// WithRegistry replaces the change registry. Defaults to registry.Default().
func WithRegistry(reg *registry.Registry) Option {
	return func(r *Renderer) {
		if reg != nil {
			r.registry = reg
		}
	}
}
