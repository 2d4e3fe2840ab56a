package dom

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document owns a parsed tree and the element wrappers created for it.
// Not safe for concurrent use.
type Document struct {
	root      *html.Node
	elements  map[*html.Node]*Element
	mutations int
	observers []func(Mutation)
}

// Mutation describes one effective change to the tree.
type Mutation struct {
	Target *Element
	// Kind is "attribute", "text" or "children".
	Kind string
	Name string
}

// Parse reads a complete HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{root: root, elements: make(map[*html.Node]*Element)}, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Body returns the body element, or nil.
func (d *Document) Body() *Element {
	n := findFirst(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Body
	})
	return d.wrap(n)
}

// DocumentElement returns the <html> element, or nil.
func (d *Document) DocumentElement() *Element {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return d.wrap(c)
		}
	}
	return nil
}

// GetElementByID searches the live tree. Template contents are not searched.
func (d *Document) GetElementByID(id string) *Element {
	n := findFirst(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && attr(n, "id") == id
	})
	return d.wrap(n)
}

// CreateElement returns a detached element.
func (d *Document) CreateElement(tag string) *Element {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	return d.wrap(n)
}

// Mutations counts effective changes since the document was parsed.
func (d *Document) Mutations() int { return d.mutations }

// Observe registers fn for every subsequent mutation and returns a remover.
func (d *Document) Observe(fn func(Mutation)) func() {
	d.observers = append(d.observers, fn)
	idx := len(d.observers) - 1
	return func() {
		if idx < len(d.observers) {
			d.observers[idx] = nil
		}
	}
}

// Render serializes the whole document.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document, ignoring write errors.
func (d *Document) String() string {
	var buf bytes.Buffer
	_ = d.Render(&buf)
	return buf.String()
}

func (d *Document) wrap(n *html.Node) *Element {
	if n == nil {
		return nil
	}
	if el, ok := d.elements[n]; ok {
		return el
	}
	el := &Element{doc: d, node: n}
	d.elements[n] = el
	return el
}

// adopt records el as the wrapper for its node, so an element keeps its
// identity when it is re-attached after a removal.
func (d *Document) adopt(el *Element) {
	d.elements[el.node] = el
}

// forget drops the wrappers of n and everything below it.
func (d *Document) forget(n *html.Node) {
	delete(d.elements, n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.forget(c)
	}
}

func (d *Document) mutated(m Mutation) {
	d.mutations++
	for _, fn := range d.observers {
		if fn != nil {
			fn(m)
		}
	}
}

// findFirst walks n in document order, not descending into templates.
func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) bool {
		if match(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

// walk visits n and its descendants until visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	if isTemplate(n) {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

func isTemplate(n *html.Node) bool {
	return n.Type == html.ElementNode && n.DataAtom == atom.Template
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val
		}
	}
	return ""
}

func cloneNode(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.AppendChild(cloneNode(ch))
	}
	return c
}
