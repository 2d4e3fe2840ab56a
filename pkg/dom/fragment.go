package dom

// Fragment holds detached top-level elements cloned from a template.
type Fragment struct {
	doc      *Document
	elements []*Element
}

// Elements returns the top-level elements in order.
func (f *Fragment) Elements() []*Element { return f.elements }

// QueryAll matches the top-level elements and their descendants in document order.
func (f *Fragment) QueryAll(fn func(*Element) bool) []*Element {
	var out []*Element
	for _, top := range f.elements {
		top.Walk(func(el *Element) bool {
			if fn(el) {
				out = append(out, el)
			}
			return true
		})
	}
	return out
}
