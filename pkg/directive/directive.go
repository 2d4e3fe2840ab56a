// Package directive finds binding directives in a document subtree.
//
// Scanning is pure: it reads attributes and reports what should be bound, leaving
// binder construction to the caller.
package directive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/charsheet/pkg/dom"
)

// Attribute protocol.
const (
	AttrRoot            = "data-cs-root"
	AttrUserInputPrefix = "data-cs-bind-user-input-"
	AttrUserInputs      = "data-cs-bind-user-inputs"
	AttrNameTo          = "data-cs-bind-name-to"
	AttrValueTo         = "data-cs-bind-value-to"
	AttrValue           = "data-cs-bind-value"
	AttrDoc             = "data-cs-bind-doc"
	AttrDocProp         = "data-cs-bind-doc-prop"

	oneWaySuffix = "-to"
)

var (
	// ErrUnsupportedElement is returned for two-way bindings on elements that cannot hold input.
	ErrUnsupportedElement = errors.New("two-way binding is only supported on <input> and <textarea>")
	// ErrInvalidDirective is returned for directives with an empty name, target or path.
	ErrInvalidDirective = errors.New("invalid directive")
)

// Kind classifies a directive.
type Kind int

const (
	// TwoWay binds a user value to an editable element.
	TwoWay Kind = iota
	// OneWay renders a user value into a property or text insertion point.
	OneWay
	// List renders all user values through a template.
	List
	// Doc binds a path of the renderer's document source.
	Doc
)

func (k Kind) String() string {
	switch k {
	case TwoWay:
		return "two-way"
	case OneWay:
		return "one-way"
	case List:
		return "list"
	case Doc:
		return "doc"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Directive is one binding request found on an element.
type Directive struct {
	Kind    Kind
	Element *dom.Element

	// Name is the user value name for TwoWay and OneWay.
	Name string
	// Property is the OneWay target, or the optional Doc property.
	Property string
	// Template is the template id for List.
	Template string
	// Path is the dotted document path for Doc.
	Path string
}

// Scan walks root and its descendants in document order, attributes in source order.
// Template contents are not scanned.
func Scan(root *dom.Element) ([]Directive, error) {
	var (
		out []Directive
		err error
	)
	root.Walk(func(el *dom.Element) bool {
		var found []Directive
		found, err = scanElement(el)
		if err != nil {
			return false
		}
		out = append(out, found...)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindRoot returns el if it carries the root marker, otherwise its first marked descendant.
func FindRoot(el *dom.Element) *dom.Element {
	if el.HasAttr(AttrRoot) {
		return el
	}
	return el.Query(dom.WithAttr(AttrRoot))
}

func scanElement(el *dom.Element) ([]Directive, error) {
	var out []Directive
	for _, a := range el.Attributes() {
		switch {
		case a.Key == AttrUserInputs:
			if a.Val == "" {
				return nil, fmt.Errorf("%w: %s on <%s> needs a template id", ErrInvalidDirective, a.Key, el.TagName())
			}
			out = append(out, Directive{Kind: List, Element: el, Template: a.Val})

		case strings.HasPrefix(a.Key, AttrUserInputPrefix):
			d, err := userInput(el, a.Key, a.Val)
			if err != nil {
				return nil, err
			}
			out = append(out, d)

		case a.Key == AttrDoc:
			if a.Val == "" {
				return nil, fmt.Errorf("%w: %s on <%s> needs a path", ErrInvalidDirective, a.Key, el.TagName())
			}
			prop, _ := el.Attr(AttrDocProp)
			out = append(out, Directive{Kind: Doc, Element: el, Path: a.Val, Property: prop})
		}
	}
	return out, nil
}

func userInput(el *dom.Element, key, val string) (Directive, error) {
	suffix := strings.TrimPrefix(key, AttrUserInputPrefix)
	kind := TwoWay
	switch {
	case suffix == oneWaySuffix[1:]:
		kind = OneWay
		suffix = ""
	case strings.HasSuffix(suffix, oneWaySuffix):
		kind = OneWay
		suffix = strings.TrimSuffix(suffix, oneWaySuffix)
	}

	name := CamelCase(suffix)
	if name == "" {
		return Directive{}, fmt.Errorf("%w: %s has no value name", ErrInvalidDirective, key)
	}

	if kind == OneWay {
		if val == "" {
			return Directive{}, fmt.Errorf("%w: %s needs a target property", ErrInvalidDirective, key)
		}
		return Directive{Kind: OneWay, Element: el, Name: name, Property: val}, nil
	}

	if !el.IsEditable() {
		return Directive{}, fmt.Errorf("%w: %s on <%s>", ErrUnsupportedElement, key, el.TagName())
	}
	return Directive{Kind: TwoWay, Element: el, Name: name}, nil
}

// CamelCase converts a kebab-case suffix to lower camel case: "max-hp" becomes "maxHp".
func CamelCase(kebab string) string {
	parts := strings.Split(kebab, "-")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() == 0 {
			b.WriteString(p)
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}
