// Package dom holds a minimal ordered tree model for SVG markup plus a
// strict parser and a compact serializer. It exists so the optimizer and
// the sanitizer can share one representation: attribute order is preserved
// exactly, element children keep document order, and rendering the tree is
// deterministic.
//
// The model is deliberately small: an element node carries its tag, its
// attributes, its child elements, and its own text content. Comments,
// processing instructions and doctypes are discarded at parse time — they
// are metadata this system never emits and never needs to keep.
package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/xml"
)

// ErrMalformed is returned by Parse when the input is not well-formed
// markup: unbalanced tags, content outside a single root, or no root at all.
var ErrMalformed = errors.New("dom: malformed markup")

// Attr is one attribute, order-significant.
type Attr struct {
	Key   string
	Value string
}

// Node is one element of the tree.
type Node struct {
	Tag   string
	Attrs []Attr
	Kids  []*Node
	// Text is the node's own character data (SVG <text> content). Mixed
	// text/element interleaving is not modeled; this system never emits it.
	Text string
}

// Attr returns the value of the named attribute and whether it is present.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr replaces the value of an existing attribute or appends a new one.
func (n *Node) SetAttr(key, value string) {
	for i, a := range n.Attrs {
		if a.Key == key {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Value: value})
}

// DropAttr removes the named attribute if present.
func (n *Node) DropAttr(key string) {
	for i, a := range n.Attrs {
		if a.Key == key {
			n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)
			return
		}
	}
}

// Walk visits n and every descendant in document order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, k := range n.Kids {
		k.Walk(fn)
	}
}

// Parse reads a document and returns its single root element. Any structural
// problem — mismatched or unclosed tags, text or extra elements outside the
// root, empty input — yields ErrMalformed.
func Parse(doc string) (*Node, error) {
	l := xml.NewLexer(parse.NewInputString(doc))

	var root *Node
	var stack []*Node
	inPI := false

	for {
		tt, data := l.Next()
		switch tt {
		case xml.ErrorToken:
			if l.Err() != nil && !errors.Is(l.Err(), io.EOF) {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, l.Err())
			}
			if len(stack) != 0 {
				return nil, fmt.Errorf("%w: unclosed <%s>", ErrMalformed, stack[len(stack)-1].Tag)
			}
			if root == nil {
				return nil, fmt.Errorf("%w: no root element", ErrMalformed)
			}
			return root, nil

		case xml.StartTagToken:
			n := &Node{Tag: string(l.Text())}
			if err := attach(&root, stack, n); err != nil {
				return nil, err
			}
			stack = append(stack, n)

		case xml.AttributeToken:
			if inPI {
				continue // pseudo-attributes of a processing instruction
			}
			n := stack[len(stack)-1]
			n.Attrs = append(n.Attrs, Attr{
				Key:   string(l.Text()),
				Value: Unescape(trimQuotes(string(l.AttrVal()))),
			})

		case xml.StartTagCloseToken:
			// Children (or the end tag) follow.

		case xml.StartTagCloseVoidToken:
			stack = stack[:len(stack)-1]

		case xml.EndTagToken:
			name := string(l.Text())
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: stray </%s>", ErrMalformed, name)
			}
			top := stack[len(stack)-1]
			if top.Tag != name {
				return nil, fmt.Errorf("%w: </%s> closes <%s>", ErrMalformed, name, top.Tag)
			}
			stack = stack[:len(stack)-1]

		case xml.TextToken:
			text := string(data)
			if strings.TrimSpace(text) == "" {
				continue // formatting whitespace
			}
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: text outside root element", ErrMalformed)
			}
			stack[len(stack)-1].Text += Unescape(text)

		case xml.StartTagPIToken:
			inPI = true

		case xml.StartTagClosePIToken:
			inPI = false

		case xml.CommentToken, xml.DOCTYPEToken, xml.CDATAToken:
			// Metadata, dropped.
		}
	}
}

// attach places n under the current parent, or makes it the root. A second
// top-level element is malformed.
func attach(root **Node, stack []*Node, n *Node) error {
	if len(stack) > 0 {
		parent := stack[len(stack)-1]
		parent.Kids = append(parent.Kids, n)
		return nil
	}
	if *root != nil {
		return fmt.Errorf("%w: multiple root elements (<%s>)", ErrMalformed, n.Tag)
	}
	*root = n
	return nil
}

// Render serializes the tree compactly: no inter-node whitespace, double
// quoted attributes in stored order, self-closing empty elements.
func Render(n *Node) string {
	var b strings.Builder
	render(&b, n)
	return b.String()
}

func render(b *strings.Builder, n *Node) {
	b.WriteByte('<')
	b.WriteString(n.Tag)
	for _, a := range n.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(EscapeAttr(a.Value))
		b.WriteByte('"')
	}
	if len(n.Kids) == 0 && n.Text == "" {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	if n.Text != "" {
		b.WriteString(EscapeText(n.Text))
	}
	for _, k := range n.Kids {
		render(b, k)
	}
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteByte('>')
}

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeAttr escapes a string for use inside a double-quoted attribute.
func EscapeAttr(s string) string { return attrEscaper.Replace(s) }

// EscapeText escapes character data.
func EscapeText(s string) string { return textEscaper.Replace(s) }

var unescaper = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
)

// Unescape reverses the named entities this package emits. Numeric
// references are left as-is; this system never produces them.
func Unescape(s string) string {
	if !strings.ContainsRune(s, '&') {
		return s
	}
	return unescaper.Replace(s)
}

func trimQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
