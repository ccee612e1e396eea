package optimize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/xml"

	"github.com/faberlux/svgforge/dom"
)

// DefaultElidable maps attributes to the implicit value whose explicit
// presence changes nothing about rendering. Comparison is numeric-aware, so
// opacity="1.0" matches the "1" entry.
var DefaultElidable = map[string]string{
	"opacity":           "1",
	"fill-opacity":      "1",
	"stroke-opacity":    "1",
	"stroke-linecap":    "butt",
	"stroke-linejoin":   "miter",
	"stroke-dashoffset": "0",
	"fill-rule":         "nonzero",
}

// DefaultColorAttrs lists the color-bearing attributes eligible for
// shorthand folding.
var DefaultColorAttrs = []string{
	"fill", "stroke", "stop-color", "color", "flood-color", "lighting-color",
}

// DefaultNumericAttrs lists the attributes whose values are coordinates or
// lengths and may lose decimal places in the lossy step.
var DefaultNumericAttrs = []string{
	"d", "points", "transform", "viewBox",
	"x", "y", "x1", "y1", "x2", "y2",
	"cx", "cy", "r", "rx", "ry", "fx", "fy",
	"width", "height", "offset",
	"stroke-width", "stroke-dasharray", "font-size",
	"opacity", "fill-opacity", "stroke-opacity",
}

// DefaultPrecisionSteps is the decimal-places ladder for the lossy step:
// generous first, floor last.
var DefaultPrecisionSteps = []int{6, 4, 2, 0}

// strategy is one document→document reduction. apply must never grow the
// document; the runner enforces it regardless. maxKB is passed so the
// iterative precision strategy can stop early between decrements.
type strategy struct {
	name  string
	apply func(o *Optimizer, doc string, maxKB float64) string
}

// pipeline is the fixed strategy order. Lossless first, lossy last.
var pipeline = []strategy{
	{"whitespace", (*Optimizer).minifyWhitespace},
	{"default-elision", (*Optimizer).elideDefaults},
	{"color-shorthand", (*Optimizer).foldColors},
	{"dedup-defs", (*Optimizer).dedupDefs},
	{"precision", (*Optimizer).reducePrecision},
}

// minifyWhitespace removes formatting-only whitespace between nodes and
// strips comments, doctypes and processing instructions. Streamed over the
// XML lexer rather than the tree, so everything else is carried through
// byte-for-byte.
func (o *Optimizer) minifyWhitespace(doc string, _ float64) string {
	l := xml.NewLexer(parse.NewInputString(doc))
	var b strings.Builder
	b.Grow(len(doc))
	for {
		tt, data := l.Next()
		switch tt {
		case xml.ErrorToken:
			return b.String()
		case xml.StartTagToken:
			b.WriteByte('<')
			b.Write(l.Text())
		case xml.AttributeToken:
			b.WriteByte(' ')
			b.Write(l.Text())
			b.WriteByte('=')
			b.Write(l.AttrVal())
		case xml.StartTagCloseToken:
			b.WriteByte('>')
		case xml.StartTagCloseVoidToken:
			b.WriteString("/>")
		case xml.EndTagToken:
			b.WriteString("</")
			b.Write(l.Text())
			b.WriteByte('>')
		case xml.TextToken:
			if strings.TrimSpace(string(data)) != "" {
				b.Write(data)
			}
		}
		// Comments, doctypes, CDATA and processing instructions are dropped.
	}
}

// elideDefaults removes attributes whose value equals the markup's implicit
// default.
func (o *Optimizer) elideDefaults(doc string, _ float64) string {
	root, err := dom.Parse(doc)
	if err != nil {
		return doc
	}
	root.Walk(func(n *dom.Node) {
		kept := n.Attrs[:0]
		for _, a := range n.Attrs {
			if def, ok := o.opts.Defaults[a.Key]; ok && valueEqual(a.Value, def) {
				continue
			}
			kept = append(kept, a)
		}
		n.Attrs = kept
	})
	return dom.Render(root)
}

// valueEqual compares attribute values numerically when both parse as
// numbers, textually otherwise.
func valueEqual(a, b string) bool {
	if a == b {
		return true
	}
	av, aerr := strconv.ParseFloat(a, 64)
	bv, berr := strconv.ParseFloat(b, 64)
	return aerr == nil && berr == nil && av == bv
}

// foldColors collapses #rrggbb to #rgb on color-bearing attributes when
// each channel's two digits repeat.
func (o *Optimizer) foldColors(doc string, _ float64) string {
	root, err := dom.Parse(doc)
	if err != nil {
		return doc
	}
	root.Walk(func(n *dom.Node) {
		for i, a := range n.Attrs {
			if o.colorAttrs[a.Key] {
				n.Attrs[i].Value = foldHex(a.Value)
			}
		}
	})
	return dom.Render(root)
}

func foldHex(v string) string {
	if len(v) != 7 || v[0] != '#' {
		return v
	}
	for i := 1; i < 7; i += 2 {
		if v[i] != v[i+1] || !isHexDigit(v[i]) {
			return v
		}
	}
	return string([]byte{'#', v[1], v[3], v[5]})
}

func isHexDigit(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

// dedupDefs merges structurally identical resource definitions, rewrites
// url(#id) and href references to the surviving copy, and drops defs that
// nothing references.
func (o *Optimizer) dedupDefs(doc string, _ float64) string {
	root, err := dom.Parse(doc)
	if err != nil {
		return doc
	}
	var defs *dom.Node
	for _, k := range root.Kids {
		if k.Tag == "defs" {
			defs = k
			break
		}
	}
	if defs == nil {
		return doc
	}

	// Merge structural duplicates: same content after ignoring the id.
	alias := make(map[string]string) // removed id → surviving id
	survivorByKey := make(map[string]string)
	var kept []*dom.Node
	for _, d := range defs.Kids {
		id, hasID := d.Attr("id")
		if !hasID {
			continue // unreferenceable, drop
		}
		key := structuralKey(d)
		if surv, dup := survivorByKey[key]; dup {
			alias[id] = surv
			continue
		}
		survivorByKey[key] = id
		kept = append(kept, d)
	}
	defs.Kids = kept

	// Rewrite references to merged ids.
	if len(alias) > 0 {
		root.Walk(func(n *dom.Node) {
			if n == defs {
				return
			}
			for i, a := range n.Attrs {
				n.Attrs[i].Value = rewriteRef(a.Key, a.Value, alias)
			}
		})
	}

	// Drop definitions that nothing references.
	used := make(map[string]bool)
	root.Walk(func(n *dom.Node) {
		for _, a := range n.Attrs {
			for _, id := range refTargets(a.Key, a.Value) {
				used[id] = true
			}
		}
	})
	kept = kept[:0]
	for _, d := range defs.Kids {
		if id, _ := d.Attr("id"); used[id] {
			kept = append(kept, d)
		}
	}
	defs.Kids = kept

	if len(defs.Kids) == 0 {
		for i, k := range root.Kids {
			if k == defs {
				root.Kids = append(root.Kids[:i], root.Kids[i+1:]...)
				break
			}
		}
	}
	return dom.Render(root)
}

// structuralKey renders a def with its id blanked, so two definitions that
// differ only in id compare equal.
func structuralKey(n *dom.Node) string {
	clone := cloneNode(n)
	clone.DropAttr("id")
	return dom.Render(clone)
}

func cloneNode(n *dom.Node) *dom.Node {
	c := &dom.Node{Tag: n.Tag, Text: n.Text}
	c.Attrs = append([]dom.Attr(nil), n.Attrs...)
	for _, k := range n.Kids {
		c.Kids = append(c.Kids, cloneNode(k))
	}
	return c
}

// rewriteRef maps url(#old) fragments and href="#old" values through alias.
func rewriteRef(key, val string, alias map[string]string) string {
	for old, now := range alias {
		val = strings.ReplaceAll(val, "url(#"+old+")", "url(#"+now+")")
	}
	if key == "href" || key == "xlink:href" {
		if cut, ok := strings.CutPrefix(val, "#"); ok {
			if now, aliased := alias[cut]; aliased {
				return "#" + now
			}
		}
	}
	return val
}

var urlRefRE = regexp.MustCompile(`url\(#([^)]+)\)`)

// refTargets extracts the def ids an attribute value points at.
func refTargets(key, val string) []string {
	var ids []string
	for _, m := range urlRefRE.FindAllStringSubmatch(val, -1) {
		ids = append(ids, m[1])
	}
	if key == "href" || key == "xlink:href" {
		if cut, ok := strings.CutPrefix(val, "#"); ok {
			ids = append(ids, cut)
		}
	}
	return ids
}

var numberRE = regexp.MustCompile(`-?\d+\.\d+`)

// reducePrecision walks the precision ladder, rounding every number in the
// numeric attributes to the step's decimal places, and stops as soon as the
// budget is met or the floor has been tried. Only values with a fractional
// part are touched; integers cannot shrink further.
func (o *Optimizer) reducePrecision(doc string, maxKB float64) string {
	best := doc
	for _, places := range o.opts.PrecisionSteps {
		next := o.roundNumbers(best, places)
		if len(next) < len(best) {
			best = next
		}
		if SizeKB(best) <= maxKB {
			break
		}
	}
	return best
}

func (o *Optimizer) roundNumbers(doc string, places int) string {
	root, err := dom.Parse(doc)
	if err != nil {
		return doc
	}
	root.Walk(func(n *dom.Node) {
		for i, a := range n.Attrs {
			if o.numAttrs[a.Key] {
				n.Attrs[i].Value = numberRE.ReplaceAllStringFunc(a.Value, func(s string) string {
					v, err := strconv.ParseFloat(s, 64)
					if err != nil {
						return s
					}
					return formatRounded(v, places)
				})
			}
		}
	})
	return dom.Render(root)
}

func formatRounded(v float64, places int) string {
	scale := math.Pow(10, float64(places))
	return strconv.FormatFloat(math.Round(v*scale)/scale, 'f', -1, 64)
}
