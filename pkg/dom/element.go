package dom

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Well-known property names.
const (
	PropValue       = "value"
	PropTextContent = "textContent"
	PropType        = "type"

	// Text insertion points relative to an element's children.
	TextContent = "#text"
	TextBefore  = "#text-before"
	TextAfter   = "#text-after"
)

// ErrDetached is returned by tree operations on an element without a parent.
var ErrDetached = errors.New("element has no parent")

// Element wraps one element node. Wrappers are unique per node within a Document.
type Element struct {
	doc       *Document
	node      *html.Node
	listeners map[string][]*listener
}

type listener struct {
	fn Listener
}

// Document returns the owning document.
func (e *Element) Document() *Document { return e.doc }

// TagName returns the lower-case tag name.
func (e *Element) TagName() string { return e.node.Data }

// ID returns the id attribute.
func (e *Element) ID() string { return attr(e.node, "id") }

// Attr returns the named attribute and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether the attribute is present.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.Attr(name)
	return ok
}

// Attributes returns a copy of the attributes in source order.
func (e *Element) Attributes() []html.Attribute {
	return append([]html.Attribute(nil), e.node.Attr...)
}

// SetAttr sets or adds an attribute.
func (e *Element) SetAttr(name, value string) {
	for i, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			if a.Val == value {
				return
			}
			e.node.Attr[i].Val = value
			e.doc.mutated(Mutation{Target: e, Kind: "attribute", Name: name})
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
	e.doc.mutated(Mutation{Target: e, Kind: "attribute", Name: name})
}

// RemoveAttr removes an attribute if present.
func (e *Element) RemoveAttr(name string) {
	for i, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			e.node.Attr = append(e.node.Attr[:i], e.node.Attr[i+1:]...)
			e.doc.mutated(Mutation{Target: e, Kind: "attribute", Name: name})
			return
		}
	}
}

// IsEditable reports whether the element holds a user-editable value.
func (e *Element) IsEditable() bool {
	switch e.node.DataAtom {
	case atom.Input, atom.Textarea:
		return true
	}
	return false
}

// HoldsValue reports whether the element's natural property is value.
func (e *Element) HoldsValue() bool {
	switch e.node.DataAtom {
	case atom.Input, atom.Textarea, atom.Select:
		return true
	}
	return e.HasAttr(PropValue)
}

// Property reads a property. Unknown names read the attribute of that name.
func (e *Element) Property(name string) string {
	switch name {
	case PropValue:
		if e.node.DataAtom == atom.Textarea {
			return e.TextContent()
		}
		v, _ := e.Attr(PropValue)
		return v
	case PropTextContent:
		return e.TextContent()
	case TextContent, TextBefore:
		if c := e.node.FirstChild; c != nil && c.Type == html.TextNode {
			return c.Data
		}
		return ""
	case TextAfter:
		if c := e.node.LastChild; c != nil && c.Type == html.TextNode {
			return c.Data
		}
		return ""
	}
	v, _ := e.Attr(name)
	return v
}

// SetProperty assigns a property without dispatching any event.
func (e *Element) SetProperty(name, value string) {
	switch name {
	case PropValue:
		if e.node.DataAtom == atom.Textarea {
			e.SetTextContent(value)
			return
		}
		e.SetAttr(PropValue, value)
	case PropTextContent:
		e.SetTextContent(value)
	case TextContent, TextBefore:
		if c := e.node.FirstChild; c != nil && c.Type == html.TextNode {
			e.setData(c, value)
			return
		}
		e.node.InsertBefore(&html.Node{Type: html.TextNode, Data: value}, e.node.FirstChild)
		e.doc.mutated(Mutation{Target: e, Kind: "children"})
	case TextAfter:
		if c := e.node.LastChild; c != nil && c.Type == html.TextNode {
			e.setData(c, value)
			return
		}
		e.node.AppendChild(&html.Node{Type: html.TextNode, Data: value})
		e.doc.mutated(Mutation{Target: e, Kind: "children"})
	default:
		e.SetAttr(name, value)
	}
}

// TextContent concatenates all descendant text.
func (e *Element) TextContent() string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
				continue
			}
			collect(c)
		}
	}
	collect(e.node)
	return sb.String()
}

// SetTextContent replaces all children with a single text node.
func (e *Element) SetTextContent(s string) {
	if c := e.node.FirstChild; c != nil && c == e.node.LastChild && c.Type == html.TextNode && c.Data == s {
		return
	}
	for c := e.node.FirstChild; c != nil; c = e.node.FirstChild {
		e.node.RemoveChild(c)
		e.doc.forget(c)
	}
	if s != "" {
		e.node.AppendChild(&html.Node{Type: html.TextNode, Data: s})
	}
	e.doc.mutated(Mutation{Target: e, Kind: "children"})
}

func (e *Element) setData(n *html.Node, s string) {
	if n.Data == s {
		return
	}
	n.Data = s
	e.doc.mutated(Mutation{Target: e, Kind: "text"})
}

// Parent returns the parent element, or nil at the top or when detached.
func (e *Element) Parent() *Element {
	p := e.node.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return e.doc.wrap(p)
}

// Children returns the child elements.
func (e *Element) Children() []*Element {
	var out []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.doc.wrap(c))
		}
	}
	return out
}

// Walk visits e and its descendant elements in document order.
// Template contents are skipped. Returning false stops the walk.
func (e *Element) Walk(visit func(*Element) bool) {
	walk(e.node, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		return visit(e.doc.wrap(n))
	})
}

// QueryAll returns descendants (not e itself) matching fn, in document order.
func (e *Element) QueryAll(fn func(*Element) bool) []*Element {
	var out []*Element
	e.Walk(func(el *Element) bool {
		if el != e && fn(el) {
			out = append(out, el)
		}
		return true
	})
	return out
}

// Query returns the first descendant matching fn, or nil.
func (e *Element) Query(fn func(*Element) bool) *Element {
	var found *Element
	e.Walk(func(el *Element) bool {
		if el != e && fn(el) {
			found = el
			return false
		}
		return true
	})
	return found
}

// WithAttr matches elements carrying the attribute.
func WithAttr(name string) func(*Element) bool {
	return func(el *Element) bool { return el.HasAttr(name) }
}

// AppendChild moves child to the end of e's children.
func (e *Element) AppendChild(child *Element) {
	if p := child.node.Parent; p != nil {
		p.RemoveChild(child.node)
	}
	e.node.AppendChild(child.node)
	e.doc.adopt(child)
	e.doc.mutated(Mutation{Target: e, Kind: "children"})
}

// ReplaceWith puts other where e is and detaches e.
// Wrappers below e are dropped; e itself can be re-attached.
func (e *Element) ReplaceWith(other *Element) error {
	parent := e.node.Parent
	if parent == nil {
		return ErrDetached
	}
	if p := other.node.Parent; p != nil {
		p.RemoveChild(other.node)
	}
	parent.InsertBefore(other.node, e.node)
	parent.RemoveChild(e.node)
	e.doc.forget(e.node)
	e.doc.adopt(other)
	e.doc.mutated(Mutation{Target: e.doc.wrap(parent), Kind: "children"})
	return nil
}

// InsertBefore puts other immediately before e.
func (e *Element) InsertBefore(other *Element) error {
	parent := e.node.Parent
	if parent == nil {
		return ErrDetached
	}
	if p := other.node.Parent; p != nil {
		p.RemoveChild(other.node)
	}
	parent.InsertBefore(other.node, e.node)
	e.doc.adopt(other)
	e.doc.mutated(Mutation{Target: e.doc.wrap(parent), Kind: "children"})
	return nil
}

// Remove detaches e from its parent. Removing a detached element is a no-op.
// The document stops tracking e and its descendants; e itself can be
// re-attached, but descendants looked up again get fresh wrappers.
func (e *Element) Remove() {
	parent := e.node.Parent
	if parent == nil {
		return
	}
	parent.RemoveChild(e.node)
	e.doc.forget(e.node)
	e.doc.mutated(Mutation{Target: e.doc.wrap(parent), Kind: "children"})
}

// Contains reports whether other is e or one of its descendants.
func (e *Element) Contains(other *Element) bool {
	for n := other.node; n != nil; n = n.Parent {
		if n == e.node {
			return true
		}
	}
	return false
}

// CloneContent deep-copies a template's content into a detached fragment.
// For other elements it copies the children.
func (e *Element) CloneContent() *Fragment {
	f := &Fragment{doc: e.doc}
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		if c.Type != html.ElementNode {
			continue
		}
		f.elements = append(f.elements, e.doc.wrap(cloneNode(c)))
	}
	return f
}

// AddEventListener registers fn for kind and returns a function that removes it.
func (e *Element) AddEventListener(kind string, fn Listener) func() {
	if e.listeners == nil {
		e.listeners = make(map[string][]*listener)
	}
	l := &listener{fn: fn}
	e.listeners[kind] = append(e.listeners[kind], l)
	return func() {
		ls := e.listeners[kind]
		for i, x := range ls {
			if x == l {
				e.listeners[kind] = append(ls[:i:i], ls[i+1:]...)
				return
			}
		}
	}
}

// ListenerCount returns the number of listeners registered for kind.
func (e *Element) ListenerCount(kind string) int { return len(e.listeners[kind]) }

// Dispatch calls the listeners for kind in registration order.
func (e *Element) Dispatch(ctx context.Context, kind string) {
	ls := append([]*listener(nil), e.listeners[kind]...)
	ev := Event{Type: kind, Target: e}
	for _, l := range ls {
		l.fn(ctx, ev)
	}
}

// Input simulates a committed user edit: the value is set, then "change" fires.
func (e *Element) Input(ctx context.Context, text string) {
	e.SetProperty(PropValue, text)
	e.Dispatch(ctx, EventChange)
}
