package scene

import (
	"strings"

	"github.com/faberlux/svgforge/dom"
	"github.com/faberlux/svgforge/element"
)

// SVG serializes the scene deterministically: root <svg> with the
// namespace, width, height and viewBox; the defs container first when any
// defs are registered; then each layer as a <g id=...> in paint order with
// its elements in insertion order, children depth-first. Attribute order is
// the elements' stored order, so the same scene always yields the same
// bytes. The output is indented; shrinking it is the optimizer's job.
func (s *Scene) SVG() string {
	w := element.Num(s.opts.Width)
	h := element.Num(s.opts.Height)

	var b strings.Builder
	b.WriteString(`<svg xmlns="` + Namespace + `" width="` + w + `" height="` + h +
		`" viewBox="0 0 ` + w + ` ` + h + `">` + "\n")

	if len(s.defs) > 0 {
		b.WriteString("  <defs>\n")
		for _, d := range s.defs {
			writeElement(&b, d, 2)
		}
		b.WriteString("  </defs>\n")
	}

	for _, l := range s.layersInPaintOrder() {
		b.WriteString(`  <g id="` + dom.EscapeAttr(l.name) + `">` + "\n")
		for _, el := range l.elements {
			writeElement(&b, el, 2)
		}
		b.WriteString("  </g>\n")
	}

	b.WriteString("</svg>")
	return b.String()
}

func writeElement(b *strings.Builder, el element.Element, depth int) {
	indent := strings.Repeat("  ", depth)
	b.WriteString(indent)
	b.WriteByte('<')
	b.WriteString(el.Tag())
	for _, a := range el.Attrs() {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(dom.EscapeAttr(a.Value))
		b.WriteByte('"')
	}

	kids := el.Children()
	text := el.Content()
	if len(kids) == 0 && text == "" {
		b.WriteString("/>\n")
		return
	}
	if len(kids) == 0 {
		// Text leaf stays on one line; whitespace inside it is content.
		b.WriteByte('>')
		b.WriteString(dom.EscapeText(text))
		b.WriteString("</" + el.Tag() + ">\n")
		return
	}
	b.WriteString(">\n")
	if text != "" {
		b.WriteString(indent + "  " + dom.EscapeText(text) + "\n")
	}
	for _, k := range kids {
		writeElement(b, k, depth+1)
	}
	b.WriteString(indent + "</" + el.Tag() + ">\n")
}
