package grid3d

import (
	"math"
	"strconv"
	"testing"

	"github.com/faberlux/svgforge/element"
)

func TestProjectCenter(t *testing.T) {
	r := New(Options{})
	// A point straight ahead of the default camera lands at canvas center.
	x, y := r.project(Point{0, 0, 0})
	if x != 400 || y != 300 {
		t.Errorf("center projected to (%v, %v), want (400, 300)", x, y)
	}
}

func TestProjectPerspective(t *testing.T) {
	r := New(Options{})
	_, yNear := r.project(Point{0, 1, 0})
	_, yFar := r.project(Point{0, 1, 10})

	// Positive model Y maps upward (smaller canvas y).
	if yNear >= 300 {
		t.Fatalf("near point y=%v, want above center", yNear)
	}
	// Farther points converge toward the vanishing point.
	if math.Abs(yFar-300) >= math.Abs(yNear-300) {
		t.Errorf("far offset %v not smaller than near offset %v", yFar-300, yNear-300)
	}
}

func TestProjectEyePlane(t *testing.T) {
	r := New(Options{})
	x, y := r.project(Point{1, 1, -5}) // on the camera plane
	if math.IsInf(x, 0) || math.IsNaN(x) || math.IsInf(y, 0) || math.IsNaN(y) {
		t.Errorf("eye-plane point projected to (%v, %v)", x, y)
	}
}

func TestCube(t *testing.T) {
	g := New(Options{}).Cube(Point{0, 0, 0}, 2)
	if g.Tag() != "g" {
		t.Fatalf("tag = %s", g.Tag())
	}
	lines := g.Children()
	if len(lines) != 12 {
		t.Fatalf("edge count = %d, want 12", len(lines))
	}
	for _, l := range lines {
		if l.Tag() != "line" {
			t.Fatalf("child tag = %s", l.Tag())
		}
		if v, _ := l.Attr("stroke"); v != "#000" {
			t.Errorf("default stroke = %q", v)
		}
		for _, key := range []string{"x1", "y1", "x2", "y2"} {
			raw, ok := l.Attr(key)
			if !ok {
				t.Fatalf("line lacks %s", key)
			}
			if _, err := strconv.ParseFloat(raw, 64); err != nil {
				t.Errorf("%s=%q not numeric", key, raw)
			}
		}
	}
}

func TestCubeStyleOverride(t *testing.T) {
	g := New(Options{}).Cube(Point{}, 1, element.A("stroke", "#f00"))
	for _, l := range g.Children() {
		if v, _ := l.Attr("stroke"); v != "#f00" {
			t.Fatalf("override lost, stroke=%q", v)
		}
		if v, _ := l.Attr("fill"); v != "none" {
			t.Fatalf("untouched default lost, fill=%q", v)
		}
	}
}

func TestGridLineCount(t *testing.T) {
	div := 4
	g := New(Options{}).Grid(Point{0, 0, 2}, 4, div)
	// Each of the divisions+1 depth slices holds divisions+1 horizontal and
	// divisions+1 vertical lines.
	want := (div + 1) * (div + 1) * 2
	if got := len(g.Children()); got != want {
		t.Errorf("line count = %d, want %d", got, want)
	}
}

func TestGridDegenerateDivisions(t *testing.T) {
	for _, div := range []int{-3, 0} {
		g := New(Options{}).Grid(Point{0, 0, 2}, 4, div)
		// Clamped to one division: two slices of two lines each way.
		if got := len(g.Children()); got != 8 {
			t.Fatalf("divisions=%d line count = %d, want 8", div, got)
		}
		for _, l := range g.Children() {
			for _, key := range []string{"x1", "y1", "x2", "y2"} {
				raw, _ := l.Attr(key)
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("divisions=%d %s=%q not a finite number", div, key, raw)
				}
			}
		}
	}
}

func TestRadialPattern(t *testing.T) {
	g := New(Options{}).RadialPattern(3, 12, 4)
	kids := g.Children()
	if len(kids) != 4+12 {
		t.Fatalf("child count = %d, want 16", len(kids))
	}
	paths, lines := 0, 0
	for _, k := range kids {
		switch k.Tag() {
		case "path":
			paths++
			d, _ := k.Attr("d")
			if d == "" || d[len(d)-1] != 'Z' {
				t.Errorf("ring path not closed: %q", d)
			}
		case "line":
			lines++
		default:
			t.Fatalf("unexpected child <%s>", k.Tag())
		}
	}
	if paths != 4 || lines != 12 {
		t.Errorf("paths=%d lines=%d, want 4 and 12", paths, lines)
	}
}

func TestDeterministic(t *testing.T) {
	a := New(Options{}).RadialPattern(3, 8, 3)
	b := New(Options{}).RadialPattern(3, 8, 3)
	if !a.Equal(b) {
		t.Error("identical inputs produced different geometry")
	}
}
