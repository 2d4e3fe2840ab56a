package renderer

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/charsheet/pkg/binder"
	"github.com/aretw0/charsheet/pkg/dice"
	"github.com/aretw0/charsheet/pkg/directive"
	"github.com/aretw0/charsheet/pkg/dom"
	"github.com/aretw0/charsheet/pkg/domain"
	"github.com/aretw0/charsheet/pkg/pipe"
	"github.com/aretw0/charsheet/pkg/reconcile"
)

func (r *Renderer) directiveBinder(d directive.Directive) (*Binder, error) {
	var (
		b   *Binder
		err error
	)
	switch d.Kind {
	case directive.TwoWay:
		b = r.inputBinder(d.Element, d.Name)
	case directive.OneWay:
		b = r.oneWayBinder(d.Element, d.Name, d.Property)
	case directive.List:
		b, err = r.listBinder(d.Element, d.Template)
	case directive.Doc:
		b, err = r.docBinder(d.Element, d.Path, d.Property)
	default:
		err = fmt.Errorf("unknown directive kind %v", d.Kind)
	}
	if err != nil {
		return nil, err
	}
	b.auto = true
	return b, nil
}

// inputBinder renders a user value into an editable element and turns committed
// edits into user-input changes.
func (r *Renderer) inputBinder(el *dom.Element, name string) *Binder {
	b := r.CreateBinder(func(_ context.Context, _, next *domain.Snapshot) {
		v, ok := next.UserValue(name)
		if !ok {
			el.SetProperty(dom.PropType, "text")
			el.SetProperty(dom.PropValue, "")
			return
		}
		paintValue(el, v)
	})
	remove := el.AddEventListener(dom.EventChange, func(ctx context.Context, _ dom.Event) {
		r.onInput(ctx, name, el.Property(dom.PropValue))
	})
	b.closers = append(b.closers, remove)
	return b
}

func (r *Renderer) oneWayBinder(el *dom.Element, name, prop string) *Binder {
	return r.CreateBinder(func(_ context.Context, _, next *domain.Snapshot) {
		v, ok := next.UserValue(name)
		if !ok {
			el.SetProperty(prop, "")
			return
		}
		el.SetProperty(prop, v.String())
	})
}

func (r *Renderer) listBinder(el *dom.Element, templateID string) (*Binder, error) {
	tpl := el.Document().GetElementByID(templateID)
	if tpl == nil || tpl.TagName() != "template" {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, templateID)
	}
	rec := reconcile.New(el, tpl, r.onInput)
	return r.CreateBinder(func(_ context.Context, _, next *domain.Snapshot) {
		rec.Render(next.UserValueList())
	}), nil
}

// docBinder binds a path of the document source. It ignores engine snapshots.
func (r *Renderer) docBinder(el *dom.Element, path, prop string) (*Binder, error) {
	if r.document == nil {
		return nil, fmt.Errorf("%w: data-cs-bind-doc=%q", ErrNoDocumentSource, path)
	}

	var picks []*pipe.Pipe
	p := r.document
	for _, field := range strings.Split(path, ".") {
		p = p.Pick(field)
		picks = append(picks, p)
	}

	bd := binder.Bind(p, el, binder.WithProperty(prop), binder.WithLogger(r.logger))
	b := r.CreateBinder(func(context.Context, *domain.Snapshot, *domain.Snapshot) {})
	b.closers = append(b.closers, bd.Close, func() {
		for _, pk := range picks {
			pk.Detach()
		}
	})
	return b, nil
}

// onInput parses edited text and submits it as a user-input change. Malformed
// text is logged and left on screen; the sheet is not touched.
func (r *Renderer) onInput(ctx context.Context, name, text string) {
	v, err := dice.Parse(text)
	if err != nil {
		r.logger.Warn("ignoring malformed input", "property", name, "text", text, "error", err)
		return
	}
	if err := r.Update(ctx, domain.UserInput(name, v)); err != nil {
		r.logger.Error("input not applied", "property", name, "error", err)
	}
}

func paintValue(el *dom.Element, v dice.Value) {
	if v.IsNumber() {
		el.SetProperty(dom.PropType, "number")
	} else {
		el.SetProperty(dom.PropType, "text")
	}
	el.SetProperty(dom.PropValue, v.String())
}
