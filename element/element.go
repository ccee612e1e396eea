// Package element defines the immutable building block of an SVG scene:
// a tag name, an ordered attribute list, and an ordered list of children.
//
// Elements are values. Once built through New (or one of the shape
// constructors) they cannot be mutated, so a subtree can be shared freely
// between layers or registered as a def without aliasing hazards. All
// validation happens at construction time: a bad tag or attribute key is
// rejected immediately rather than surfacing later during serialization.
package element

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidElement is returned when an element is constructed with an
// empty tag, an empty attribute key, or a duplicate attribute key.
var ErrInvalidElement = errors.New("element: invalid element")

// Attr is a single attribute. Attribute order is significant: it is
// preserved verbatim through serialization so that repeated renders of the
// same scene are byte-identical.
type Attr struct {
	Key   string
	Value string
}

// A is shorthand for building an Attr in place.
func A(key, value string) Attr { return Attr{Key: key, Value: value} }

// Num formats a coordinate or length in its shortest decimal form.
// Every producer in this module goes through Num so that identical values
// always serialize to identical bytes.
func Num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Element is one node of the document tree. The zero value is invalid;
// use New or a shape constructor.
type Element struct {
	tag      string
	attrs    []Attr
	children []Element
	text     string
}

// New builds a validated element. The attribute slice and children are
// copied, so the caller's slices stay independent of the element.
func New(tag string, attrs []Attr, children ...Element) (Element, error) {
	if tag == "" {
		return Element{}, fmt.Errorf("%w: empty tag", ErrInvalidElement)
	}
	seen := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		if a.Key == "" {
			return Element{}, fmt.Errorf("%w: empty attribute key on <%s>", ErrInvalidElement, tag)
		}
		if seen[a.Key] {
			return Element{}, fmt.Errorf("%w: duplicate attribute %q on <%s>", ErrInvalidElement, a.Key, tag)
		}
		seen[a.Key] = true
	}
	e := Element{tag: tag}
	if len(attrs) > 0 {
		e.attrs = make([]Attr, len(attrs))
		copy(e.attrs, attrs)
	}
	if len(children) > 0 {
		e.children = make([]Element, len(children))
		copy(e.children, children)
	}
	return e, nil
}

// Must is New for element literals that are known valid, such as the output
// of the shape constructors. It panics on error.
func Must(e Element, err error) Element {
	if err != nil {
		panic(err)
	}
	return e
}

// Tag returns the element's tag name.
func (e Element) Tag() string { return e.tag }

// Attrs returns a copy of the attribute list in stored order.
func (e Element) Attrs() []Attr {
	if len(e.attrs) == 0 {
		return nil
	}
	out := make([]Attr, len(e.attrs))
	copy(out, e.attrs)
	return out
}

// Attr returns the value of the named attribute and whether it is present.
func (e Element) Attr(key string) (string, bool) {
	for _, a := range e.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Content returns the element's text content, empty for pure container
// and shape nodes. Only Text sets it.
func (e Element) Content() string { return e.text }

// Children returns a copy of the child list in stored order.
func (e Element) Children() []Element {
	if len(e.children) == 0 {
		return nil
	}
	out := make([]Element, len(e.children))
	copy(out, e.children)
	return out
}

// Equal reports exact structural equality: same tag, same attributes in the
// same order, same children recursively. Scene def registration and the
// optimizer's structural dedup both rely on this.
func (e Element) Equal(other Element) bool {
	if e.tag != other.tag || e.text != other.text ||
		len(e.attrs) != len(other.attrs) || len(e.children) != len(other.children) {
		return false
	}
	for i, a := range e.attrs {
		if other.attrs[i] != a {
			return false
		}
	}
	for i, c := range e.children {
		if !c.Equal(other.children[i]) {
			return false
		}
	}
	return true
}
