// Package binder keeps one element property in sync with one pipe.
package binder

import (
	"context"
	"log/slog"

	"github.com/aretw0/charsheet/internal/logging"
	"github.com/aretw0/charsheet/pkg/dom"
	"github.com/aretw0/charsheet/pkg/pipe"
)

// Binder connects a pipe to an element property in both directions.
type Binder struct {
	pipe       *pipe.Pipe
	el         *dom.Element
	prop       string
	serializer Serializer
	logger     *slog.Logger

	unsubscribe func()
	unlisten    func()
}

// Option configures a Binder.
type Option func(*Binder)

// WithProperty selects the element property. The default is value for
// value-holding elements and textContent otherwise.
func WithProperty(name string) Option {
	return func(b *Binder) {
		if name != "" {
			b.prop = name
		}
	}
}

// WithSerializer sets the serializer. Defaults to Identity.
func WithSerializer(s Serializer) Option {
	return func(b *Binder) {
		if s != nil {
			b.serializer = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Binder) {
		if l != nil {
			b.logger = l
		}
	}
}

// Bind renders the pipe's value into el immediately and keeps both sides in sync
// until Close.
func Bind(p *pipe.Pipe, el *dom.Element, opts ...Option) *Binder {
	b := &Binder{
		pipe:       p,
		el:         el,
		serializer: Identity,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.prop == "" {
		b.prop = DefaultProperty(el)
	}

	b.refresh(p.Get())
	b.unsubscribe = p.Subscribe(func(_ context.Context, v any) { b.refresh(v) })
	b.unlisten = el.AddEventListener(dom.EventChange, b.onChange)
	return b
}

// DefaultProperty picks value for value-holding elements, textContent otherwise.
func DefaultProperty(el *dom.Element) string {
	if el.HoldsValue() {
		return dom.PropValue
	}
	return dom.PropTextContent
}

// Element returns the bound element.
func (b *Binder) Element() *dom.Element { return b.el }

// Property returns the bound property name.
func (b *Binder) Property() string { return b.prop }

// Close stops both directions. Closing twice is harmless.
func (b *Binder) Close() {
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
	if b.unlisten != nil {
		b.unlisten()
		b.unlisten = nil
	}
}

func (b *Binder) refresh(v any) {
	text, err := b.serializer.Serialize(v)
	if err != nil {
		b.logger.Warn("cannot render value", "property", b.prop, "error", err)
		return
	}
	b.el.SetProperty(b.prop, text)
}

func (b *Binder) onChange(ctx context.Context, _ dom.Event) {
	text := b.el.Property(b.prop)
	v, err := b.serializer.Deserialize(text)
	if err != nil {
		b.logger.Warn("ignoring malformed input", "property", b.prop, "text", text, "error", err)
		return
	}
	if err := b.pipe.Update(ctx, v); err != nil {
		b.logger.Error("update failed", "property", b.prop, "error", err)
	}
}
