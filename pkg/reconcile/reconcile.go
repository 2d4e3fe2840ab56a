// Package reconcile keeps a container's children in step with an ordered list of
// user values, one template instance per entry.
package reconcile

import (
	"context"
	"reflect"

	"github.com/aretw0/charsheet/pkg/dice"
	"github.com/aretw0/charsheet/pkg/directive"
	"github.com/aretw0/charsheet/pkg/dom"
	"github.com/aretw0/charsheet/pkg/domain"
)

// InputFunc receives committed edits from a rendered value input.
type InputFunc func(ctx context.Context, name, text string)

// Reconciler renders entries into a container. Not safe for concurrent use.
type Reconciler struct {
	container *dom.Element
	template  *dom.Element
	onInput   InputFunc

	rendered  bool
	last      []domain.NamedValue
	instances [][]*dom.Element
}

// New creates a reconciler. onInput may be nil for read-only lists.
func New(container, template *dom.Element, onInput InputFunc) *Reconciler {
	return &Reconciler{container: container, template: template, onInput: onInput}
}

// Render brings the container in line with entries.
// An unchanged sequence causes no mutation at all.
func (r *Reconciler) Render(entries []domain.NamedValue) {
	if r.rendered && equal(r.last, entries) {
		return
	}

	shared := min(len(r.last), len(entries))
	next := make([][]*dom.Element, len(entries))

	for i := 0; i < shared; i++ {
		if reflect.DeepEqual(r.last[i], entries[i]) {
			next[i] = r.instances[i]
			continue
		}
		next[i] = r.instantiate(entries[i])
		replace(r.instances[i], next[i], r.container)
	}
	for i := shared; i < len(r.instances); i++ {
		for _, el := range r.instances[i] {
			el.Remove()
		}
	}
	for i := shared; i < len(entries); i++ {
		next[i] = r.instantiate(entries[i])
		for _, el := range next[i] {
			r.container.AppendChild(el)
		}
	}

	r.rendered = true
	r.last = append([]domain.NamedValue(nil), entries...)
	r.instances = next
}

// Len returns the number of rendered entries.
func (r *Reconciler) Len() int { return len(r.instances) }

func (r *Reconciler) instantiate(entry domain.NamedValue) []*dom.Element {
	frag := r.template.CloneContent()
	text := dice.Render(&entry.Value)

	for _, el := range frag.QueryAll(dom.WithAttr(directive.AttrNameTo)) {
		prop, _ := el.Attr(directive.AttrNameTo)
		el.SetProperty(prop, entry.Name)
	}
	for _, el := range frag.QueryAll(dom.WithAttr(directive.AttrValueTo)) {
		prop, _ := el.Attr(directive.AttrValueTo)
		el.SetProperty(prop, text)
	}
	for _, el := range frag.QueryAll(dom.WithAttr(directive.AttrValue)) {
		if entry.Value.IsNumber() {
			el.SetProperty(dom.PropType, "number")
		} else {
			el.SetProperty(dom.PropType, "text")
		}
		el.SetProperty(dom.PropValue, text)

		if r.onInput != nil {
			name, input := entry.Name, el
			el.AddEventListener(dom.EventChange, func(ctx context.Context, _ dom.Event) {
				r.onInput(ctx, name, input.Property(dom.PropValue))
			})
		}
	}
	return frag.Elements()
}

// replace swaps an old instance for a new one at the same position.
func replace(old, next []*dom.Element, container *dom.Element) {
	if len(old) == 0 {
		for _, el := range next {
			container.AppendChild(el)
		}
		return
	}
	anchor := old[0]
	for _, el := range next {
		_ = anchor.InsertBefore(el)
	}
	for _, el := range old {
		el.Remove()
	}
}

func equal(a, b []domain.NamedValue) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !reflect.DeepEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
