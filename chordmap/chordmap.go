// Package chordmap renders chord diagrams: entities on a circle with
// bezier chords bowed toward the center expressing relationship strength.
// Output is plain element values for the scene to layer.
package chordmap

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/faberlux/svgforge/element"
)

// ErrBadMatrix is returned for a non-square relation matrix or a label
// list whose length does not match it.
var ErrBadMatrix = errors.New("chordmap: invalid relation matrix")

// Link is one directed relation between two named entities.
type Link struct {
	Source string
	Target string
	Value  float64
}

// Options configures a renderer.
type Options struct {
	// Width and Height of the canvas the diagram is centered on.
	// Defaults: 800×600.
	Width  float64
	Height float64
	// Radius of the entity circle. Default: 40% of min(Width, Height).
	Radius float64
	// Stroke and EntityFill are the chord and marker colors.
	Stroke     string
	EntityFill string
	// FontSize for entity labels. Default: 12.
	FontSize float64
}

func (o *Options) defaults() {
	if o.Width <= 0 {
		o.Width = 800
	}
	if o.Height <= 0 {
		o.Height = 600
	}
	if o.Radius <= 0 {
		o.Radius = math.Min(o.Width, o.Height) * 0.4
	}
	if o.Stroke == "" {
		o.Stroke = "#333"
	}
	if o.EntityFill == "" {
		o.EntityFill = "#666"
	}
	if o.FontSize <= 0 {
		o.FontSize = 12
	}
}

// Renderer draws chord diagrams with one option set.
type Renderer struct {
	opts Options
}

// New creates a renderer. The zero Options value centers on an 800×600
// canvas.
func New(opts Options) *Renderer {
	opts.defaults()
	return &Renderer{opts: opts}
}

type position struct {
	angle, x, y float64
}

func (r *Renderer) positions(n int) []position {
	cx, cy := r.opts.Width/2, r.opts.Height/2
	out := make([]position, n)
	for i := range out {
		a := 2 * math.Pi * float64(i) / float64(n)
		out[i] = position{a, cx + r.opts.Radius*math.Cos(a), cy + r.opts.Radius*math.Sin(a)}
	}
	return out
}

// chord builds the bezier path between two entity positions, bowed toward
// the center, with width and opacity scaled by value.
func (r *Renderer) chord(a, b position, value float64, stroke string) element.Element {
	cx, cy := r.opts.Width/2, r.opts.Height/2
	c1x := cx + (a.x-cx)*0.5
	c1y := cy + (a.y-cy)*0.5
	c2x := cx + (b.x-cx)*0.5
	c2y := cy + (b.y-cy)*0.5
	d := fmt.Sprintf("M %s,%s C %s,%s %s,%s %s,%s",
		element.Num(a.x), element.Num(a.y),
		element.Num(c1x), element.Num(c1y),
		element.Num(c2x), element.Num(c2y),
		element.Num(b.x), element.Num(b.y),
	)
	width := math.Max(1, math.Min(10, value))
	opacity := 0.3 + 0.7*math.Min(1, value/10)
	return element.Path(d,
		element.A("fill", "none"),
		element.A("stroke", stroke),
		element.A("stroke-width", element.Num(width)),
		element.A("opacity", element.Num(opacity)),
	)
}

// label places an entity name just outside the circle, rotated to stay
// readable on the left half.
func (r *Renderer) label(name string, pos position, offset float64) element.Element {
	cx, cy := r.opts.Width/2, r.opts.Height/2
	lx := cx + (r.opts.Radius+offset)*math.Cos(pos.angle)
	ly := cy + (r.opts.Radius+offset)*math.Sin(pos.angle)
	deg := pos.angle * 180 / math.Pi
	if pos.angle > math.Pi/2 && pos.angle < 3*math.Pi/2 {
		deg += 180
	}
	return element.Text(lx, ly, name,
		element.A("text-anchor", "middle"),
		element.A("dominant-baseline", "middle"),
		element.A("font-size", element.Num(r.opts.FontSize)),
		element.A("transform", fmt.Sprintf("rotate(%s, %s, %s)",
			element.Num(deg), element.Num(lx), element.Num(ly))),
	)
}

// Diagram renders a chord diagram from a link list. Entities are the
// sorted set of all source and target names.
func (r *Renderer) Diagram(links []Link) element.Element {
	seen := make(map[string]bool)
	var names []string
	for _, l := range links {
		for _, n := range []string{l.Source, l.Target} {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	sort.Strings(names)

	pos := r.positions(len(names))
	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}

	var kids []element.Element
	for i, n := range names {
		kids = append(kids,
			element.Circle(pos[i].x, pos[i].y, 5, element.A("fill", r.opts.EntityFill)),
			r.label(n, pos[i], 15),
		)
	}
	for _, l := range links {
		kids = append(kids, r.chord(pos[index[l.Source]], pos[index[l.Target]], l.Value, r.opts.Stroke))
	}
	return element.Group(kids)
}

// MatrixDiagram renders a chord diagram from a square relation matrix.
// matrix[i][j] is the strength from entity i to entity j; the chord for a
// pair carries both directions, colored by the dominant one. labels may be
// nil for generated names.
func (r *Renderer) MatrixDiagram(matrix [][]float64, labels []string) (element.Element, error) {
	n := len(matrix)
	if n == 0 {
		return element.Element{}, fmt.Errorf("%w: empty", ErrBadMatrix)
	}
	for i, row := range matrix {
		if len(row) != n {
			return element.Element{}, fmt.Errorf("%w: row %d has %d columns, want %d", ErrBadMatrix, i, len(row), n)
		}
	}
	if labels == nil {
		labels = make([]string, n)
		for i := range labels {
			labels[i] = fmt.Sprintf("Entity %d", i+1)
		}
	} else if len(labels) != n {
		return element.Element{}, fmt.Errorf("%w: %d labels for %d entities", ErrBadMatrix, len(labels), n)
	}

	pos := r.positions(n)
	var kids []element.Element
	for i := range pos {
		kids = append(kids,
			element.Circle(pos[i].x, pos[i].y, 5, element.A("fill", r.opts.EntityFill)),
			r.label(labels[i], pos[i], 20),
		)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			fwd, back := matrix[i][j], matrix[j][i]
			if fwd <= 0 && back <= 0 {
				continue
			}
			stroke := "#666666" // balanced
			switch {
			case fwd > back:
				stroke = "#3366cc"
			case back > fwd:
				stroke = "#cc3366"
			}
			kids = append(kids, r.chord(pos[i], pos[j], fwd+back, stroke))
		}
	}
	return element.Group(kids), nil
}
