// Package patterns generates string-art compositions: dense line webs,
// spirals and Lissajous figures whose visual weight comes from many cheap
// strokes. Everything returns element values for the scene to layer.
package patterns

import (
	"math"
	"strings"

	"github.com/faberlux/svgforge/element"
)

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

// polyline assembles a path through the points, optionally closed.
func polyline(pts [][2]float64, closed bool) string {
	var b strings.Builder
	for i, p := range pts {
		if i == 0 {
			b.WriteString("M ")
		} else {
			b.WriteString(" L ")
		}
		b.WriteString(element.Num(p[0]) + "," + element.Num(p[1]))
	}
	if closed {
		b.WriteString(" Z")
	}
	return b.String()
}

// CircleWeb connects every pair of n evenly spaced points on a circle,
// the classic string-art web. n points produce n·(n-1)/2 chords.
func CircleWeb(cx, cy, radius float64, points int, style ...element.Attr) element.Element {
	style = withDefaults(style,
		element.A("stroke", "#000"),
		element.A("stroke-width", "0.5"),
	)
	pts := make([][2]float64, points)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(points)
		pts[i] = [2]float64{cx + radius*math.Cos(a), cy + radius*math.Sin(a)}
	}
	var kids []element.Element
	for i := 0; i < points; i++ {
		for j := i + 1; j < points; j++ {
			kids = append(kids, element.Path(
				polyline([][2]float64{pts[i], pts[j]}, false), style...))
		}
	}
	return element.Group(kids)
}

// Spiral traces a single path from startRadius to endRadius over the given
// number of turns, sampled at points positions.
func Spiral(cx, cy, startRadius, endRadius, turns float64, points int, style ...element.Attr) element.Element {
	style = withDefaults(style,
		element.A("stroke", "#000"),
		element.A("stroke-width", "0.5"),
		element.A("fill", "none"),
	)
	if points < 2 {
		points = 2 // fewer samples cannot form a path
	}
	pts := make([][2]float64, points)
	for i := range pts {
		t := float64(i) / float64(points-1)
		r := startRadius + t*(endRadius-startRadius)
		a := 2 * math.Pi * turns * t
		pts[i] = [2]float64{cx + r*math.Cos(a), cy + r*math.Sin(a)}
	}
	return element.Path(polyline(pts, false), style...)
}

// Lissajous traces the closed curve x = a·sin(fa·t + phase),
// y = b·sin(fb·t) around (cx, cy).
func Lissajous(cx, cy, a, b, fa, fb, phase float64, points int, style ...element.Attr) element.Element {
	style = withDefaults(style,
		element.A("stroke", "#000"),
		element.A("stroke-width", "0.5"),
		element.A("fill", "none"),
	)
	pts := make([][2]float64, points)
	for i := range pts {
		t := 2 * math.Pi * float64(i) / float64(points)
		pts[i] = [2]float64{
			cx + a*math.Sin(fa*t+phase),
			cy + b*math.Sin(fb*t),
		}
	}
	return element.Path(polyline(pts, true), style...)
}
