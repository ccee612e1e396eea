// Package gradient builds gradient definitions for registration as scene
// defs. Every constructor returns a plain element ready for
// Scene.RegisterDef; elements reference a gradient by fill="url(#id)".
//
// Coordinates are in object-bounding-box units (0..1), the SVG default.
package gradient

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/faberlux/svgforge/element"
)

// Stop is one gradient stop. Offset is 0..1. Opacity outside (0, 1) means
// fully opaque and the stop-opacity attribute is omitted.
type Stop struct {
	Offset  float64
	Color   string
	Opacity float64
}

func (s Stop) element() element.Element {
	attrs := []element.Attr{
		{Key: "offset", Value: element.Num(s.Offset)},
		{Key: "stop-color", Value: s.Color},
	}
	if s.Opacity > 0 && s.Opacity < 1 {
		attrs = append(attrs, element.Attr{Key: "stop-opacity", Value: element.Num(s.Opacity)})
	}
	return element.Must(element.New("stop", attrs))
}

func stopChildren(stops []Stop) []element.Element {
	out := make([]element.Element, len(stops))
	for i, s := range stops {
		out[i] = s.element()
	}
	return out
}

// Linear builds a <linearGradient> running from (x1, y1) to (x2, y2).
func Linear(id string, x1, y1, x2, y2 float64, stops ...Stop) element.Element {
	attrs := []element.Attr{
		{Key: "id", Value: id},
		{Key: "x1", Value: element.Num(x1)},
		{Key: "y1", Value: element.Num(y1)},
		{Key: "x2", Value: element.Num(x2)},
		{Key: "y2", Value: element.Num(y2)},
	}
	return element.Must(element.New("linearGradient", attrs, stopChildren(stops)...))
}

// Radial builds a <radialGradient> centered at (cx, cy) with radius r.
// Focal point (fx, fy) is emitted only when focal is true.
func Radial(id string, cx, cy, r float64, focal bool, fx, fy float64, stops ...Stop) element.Element {
	attrs := []element.Attr{
		{Key: "id", Value: id},
		{Key: "cx", Value: element.Num(cx)},
		{Key: "cy", Value: element.Num(cy)},
		{Key: "r", Value: element.Num(r)},
	}
	if focal {
		attrs = append(attrs,
			element.Attr{Key: "fx", Value: element.Num(fx)},
			element.Attr{Key: "fy", Value: element.Num(fy)},
		)
	}
	return element.Must(element.New("radialGradient", attrs, stopChildren(stops)...))
}

// Rainbow builds the classic full-hue sweep, horizontal or vertical.
func Rainbow(id string, horizontal bool) element.Element {
	stops := []Stop{
		{Offset: 0, Color: "#ff0000"},
		{Offset: 1.0 / 6, Color: "#ffff00"},
		{Offset: 2.0 / 6, Color: "#00ff00"},
		{Offset: 0.5, Color: "#00ffff"},
		{Offset: 4.0 / 6, Color: "#0000ff"},
		{Offset: 5.0 / 6, Color: "#ff00ff"},
		{Offset: 1, Color: "#ff0000"},
	}
	if horizontal {
		return Linear(id, 0, 0, 1, 0, stops...)
	}
	return Linear(id, 0, 0, 0, 1, stops...)
}

// Metallic builds a top-lit metallic sheen over the base color.
func Metallic(id, base string) element.Element {
	return Linear(id, 0, 0, 0, 1,
		Stop{Offset: 0, Color: "#ffffff", Opacity: 0.7},
		Stop{Offset: 0.45, Color: base},
		Stop{Offset: 0.55, Color: base},
		Stop{Offset: 1, Color: "#000000", Opacity: 0.3},
	)
}

// Blend builds a horizontal gradient of n stops interpolated between two
// hex colors in HCL space, which keeps the perceived lightness ramp even
// where naive RGB blending muddies. Invalid colors or n < 2 fall back to a
// two-stop RGB gradient.
func Blend(id, from, to string, n int) element.Element {
	c1, err1 := colorful.Hex(from)
	c2, err2 := colorful.Hex(to)
	if err1 != nil || err2 != nil || n < 2 {
		return Linear(id, 0, 0, 1, 0,
			Stop{Offset: 0, Color: from},
			Stop{Offset: 1, Color: to},
		)
	}
	stops := make([]Stop, n)
	for i := range stops {
		t := float64(i) / float64(n-1)
		stops[i] = Stop{
			Offset: t,
			Color:  c1.BlendHcl(c2, t).Clamped().Hex(),
		}
	}
	return Linear(id, 0, 0, 1, 0, stops...)
}
