package element

// Shape constructors for the common SVG primitives. Extra attributes are
// appended after the geometric ones, in the order given.

// Circle builds a <circle> centered at (cx, cy) with radius r.
func Circle(cx, cy, r float64, extra ...Attr) Element {
	attrs := []Attr{
		{Key: "cx", Value: Num(cx)},
		{Key: "cy", Value: Num(cy)},
		{Key: "r", Value: Num(r)},
	}
	return Must(New("circle", append(attrs, extra...)))
}

// Rect builds a <rect> with top-left corner (x, y).
func Rect(x, y, width, height float64, extra ...Attr) Element {
	attrs := []Attr{
		{Key: "x", Value: Num(x)},
		{Key: "y", Value: Num(y)},
		{Key: "width", Value: Num(width)},
		{Key: "height", Value: Num(height)},
	}
	return Must(New("rect", append(attrs, extra...)))
}

// Line builds a <line> from (x1, y1) to (x2, y2).
func Line(x1, y1, x2, y2 float64, extra ...Attr) Element {
	attrs := []Attr{
		{Key: "x1", Value: Num(x1)},
		{Key: "y1", Value: Num(y1)},
		{Key: "x2", Value: Num(x2)},
		{Key: "y2", Value: Num(y2)},
	}
	return Must(New("line", append(attrs, extra...)))
}

// Path builds a <path> with the given path data.
func Path(d string, extra ...Attr) Element {
	attrs := []Attr{{Key: "d", Value: d}}
	return Must(New("path", append(attrs, extra...)))
}

// Text builds a <text> node at (x, y). The content is escaped at
// serialization time, not here.
func Text(x, y float64, content string, extra ...Attr) Element {
	attrs := []Attr{
		{Key: "x", Value: Num(x)},
		{Key: "y", Value: Num(y)},
	}
	e := Must(New("text", append(attrs, extra...)))
	e.text = content
	return e
}

// Group builds a <g> wrapping the given children.
func Group(children []Element, extra ...Attr) Element {
	return Must(New("g", extra, children...))
}
