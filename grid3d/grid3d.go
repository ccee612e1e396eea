// Package grid3d renders wireframe 3D structures — cubes, grids, radial
// webs — as flat SVG line work through a simple perspective projection.
// It produces only element values; the scene consumes them with no
// knowledge of the projection math.
package grid3d

import (
	"math"

	"github.com/faberlux/svgforge/element"
)

// Point is a position in model space.
type Point struct {
	X, Y, Z float64
}

// Options configures the projection.
type Options struct {
	// Width and Height of the view plane. Defaults: 800×600.
	Width  float64
	Height float64
	// FOV is the field of view in degrees. Default: 60.
	FOV float64
	// Camera is the eye position. Default: (0, 0, -5).
	Camera Point
}

func (o *Options) defaults() {
	if o.Width <= 0 {
		o.Width = 800
	}
	if o.Height <= 0 {
		o.Height = 600
	}
	if o.FOV <= 0 {
		o.FOV = 60
	}
	if o.Camera == (Point{}) {
		o.Camera = Point{Z: -5}
	}
}

// Renderer projects model-space geometry onto the canvas.
type Renderer struct {
	opts Options
}

// New creates a renderer. The zero Options value gives the default camera.
func New(opts Options) *Renderer {
	opts.defaults()
	return &Renderer{opts: opts}
}

// project maps a model-space point to canvas coordinates.
func (r *Renderer) project(p Point) (x, y float64) {
	rx := p.X - r.opts.Camera.X
	ry := p.Y - r.opts.Camera.Y
	rz := p.Z - r.opts.Camera.Z
	if rz == 0 {
		rz = 1e-4 // point on the eye plane, nudge to avoid division by zero
	}
	aspect := r.opts.Width / r.opts.Height
	scale := math.Tan(r.opts.FOV * math.Pi / 360)
	x = rx/(rz*scale*aspect)*(r.opts.Width/2) + r.opts.Width/2
	y = -ry/(rz*scale)*(r.opts.Height/2) + r.opts.Height/2
	return x, y
}

// line builds a projected <line> with the shared style attributes.
func (r *Renderer) line(a, b Point, style []element.Attr) element.Element {
	x1, y1 := r.project(a)
	x2, y2 := r.project(b)
	return element.Line(x1, y1, x2, y2, style...)
}

// withDefaults prepends fallback style attributes that the caller did not
// set explicitly.
func withDefaults(style []element.Attr, fallbacks ...element.Attr) []element.Attr {
	have := make(map[string]bool, len(style))
	for _, a := range style {
		have[a.Key] = true
	}
	out := style
	for _, f := range fallbacks {
		if !have[f.Key] {
			out = append(out, f)
		}
	}
	return out
}

// cubeEdges indexes the vertex pairs of a cube's 12 edges: front face,
// back face, then the four connectors.
var cubeEdges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// Cube renders a wireframe cube centered at center as a <g> of lines.
func (r *Renderer) Cube(center Point, size float64, style ...element.Attr) element.Element {
	style = withDefaults(style,
		element.A("stroke", "#000"),
		element.A("stroke-width", "1"),
		element.A("fill", "none"),
	)
	h := size / 2
	verts := [8]Point{
		{center.X - h, center.Y - h, center.Z - h},
		{center.X + h, center.Y - h, center.Z - h},
		{center.X + h, center.Y + h, center.Z - h},
		{center.X - h, center.Y + h, center.Z - h},
		{center.X - h, center.Y - h, center.Z + h},
		{center.X + h, center.Y - h, center.Z + h},
		{center.X + h, center.Y + h, center.Z + h},
		{center.X - h, center.Y + h, center.Z + h},
	}
	lines := make([]element.Element, 0, len(cubeEdges))
	for _, e := range cubeEdges {
		lines = append(lines, r.line(verts[e[0]], verts[e[1]], style))
	}
	return element.Group(lines)
}

// Grid renders a planar grid slab centered at center: divisions+1 lines in
// each direction on every depth slice.
func (r *Renderer) Grid(center Point, size float64, divisions int, style ...element.Attr) element.Element {
	style = withDefaults(style,
		element.A("stroke", "#888"),
		element.A("stroke-width", "0.5"),
	)
	if divisions < 1 {
		divisions = 1
	}
	h := size / 2
	step := size / float64(divisions)
	var lines []element.Element
	for i := 0; i <= divisions; i++ {
		z := center.Z - h + float64(i)*step
		for j := 0; j <= divisions; j++ {
			y := center.Y - h + float64(j)*step
			lines = append(lines, r.line(
				Point{center.X - h, y, z},
				Point{center.X + h, y, z},
				style,
			))
		}
		for j := 0; j <= divisions; j++ {
			x := center.X - h + float64(j)*step
			lines = append(lines, r.line(
				Point{x, center.Y - h, z},
				Point{x, center.Y + h, z},
				style,
			))
		}
	}
	return element.Group(lines)
}

// RadialPattern renders concentric rings on the ground plane with radial
// spokes, projected in perspective.
func (r *Renderer) RadialPattern(radius float64, segments, rings int, style ...element.Attr) element.Element {
	style = withDefaults(style,
		element.A("stroke", "#444"),
		element.A("stroke-width", "0.5"),
		element.A("fill", "none"),
	)
	var kids []element.Element

	for ring := 1; ring <= rings; ring++ {
		rr := radius * float64(ring) / float64(rings)
		var d []byte
		for s := 0; s < segments; s++ {
			angle := 2 * math.Pi * float64(s) / float64(segments)
			x, y := r.project(Point{rr * math.Cos(angle), 0, rr * math.Sin(angle)})
			if s == 0 {
				d = append(d, 'M', ' ')
			} else {
				d = append(d, ' ', 'L', ' ')
			}
			d = append(d, (element.Num(x) + "," + element.Num(y))...)
		}
		d = append(d, " Z"...)
		kids = append(kids, element.Path(string(d), style...))
	}

	for s := 0; s < segments; s++ {
		angle := 2 * math.Pi * float64(s) / float64(segments)
		kids = append(kids, r.line(
			Point{},
			Point{radius * math.Cos(angle), 0, radius * math.Sin(angle)},
			style,
		))
	}
	return element.Group(kids)
}
