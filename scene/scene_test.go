package scene

import (
	"errors"
	"strings"
	"testing"

	"github.com/faberlux/svgforge/dom"
	"github.com/faberlux/svgforge/element"
	"github.com/faberlux/svgforge/gradient"
	"github.com/faberlux/svgforge/grid3d"
	"github.com/faberlux/svgforge/sanitize"
)

func mustScene(t *testing.T, opts Options) *Scene {
	t.Helper()
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNewRejectsBadCanvas(t *testing.T) {
	for _, dims := range [][2]float64{{0, 600}, {800, 0}, {-1, 600}} {
		if _, err := New(Options{Width: dims[0], Height: dims[1]}); !errors.Is(err, ErrBadCanvas) {
			t.Errorf("New(%v) error=%v, want ErrBadCanvas", dims, err)
		}
	}
}

func TestDuplicateLayer(t *testing.T) {
	s := mustScene(t, Options{Width: 800, Height: 600})
	if err := s.CreateLayer("bg", 0); err != nil {
		t.Fatalf("first CreateLayer: %v", err)
	}
	if err := s.CreateLayer("bg", 5); !errors.Is(err, ErrDuplicateLayer) {
		t.Fatalf("second CreateLayer error=%v, want ErrDuplicateLayer", err)
	}
}

func TestUnknownLayer(t *testing.T) {
	s := mustScene(t, Options{Width: 800, Height: 600})
	err := s.AddToLayer("missing", "rect", []element.Attr{{Key: "x", Value: "0"}})
	if !errors.Is(err, ErrUnknownLayer) {
		t.Fatalf("AddToLayer error=%v, want ErrUnknownLayer", err)
	}
}

func TestAddToLayerValidatesElement(t *testing.T) {
	s := mustScene(t, Options{Width: 800, Height: 600})
	if err := s.CreateLayer("bg", 0); err != nil {
		t.Fatal(err)
	}
	if err := s.AddToLayer("bg", "", nil); !errors.Is(err, element.ErrInvalidElement) {
		t.Errorf("empty tag error=%v", err)
	}
	if err := s.AddToLayer("bg", "rect", []element.Attr{{Key: "", Value: "1"}}); !errors.Is(err, element.ErrInvalidElement) {
		t.Errorf("empty attr key error=%v", err)
	}
}

// Rect on background (z=0), circle on foreground (z=10): the rect must be
// emitted first and the scene must validate.
func TestPaintOrderAndValidate(t *testing.T) {
	s := mustScene(t, Options{Width: 800, Height: 600, MaxSizeKB: 10})
	if err := s.CreateLayer("background", 0); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateLayer("foreground", 10); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("background", element.Rect(0, 0, 800, 600, element.A("fill", "#f0f0f0"))); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("foreground", element.Circle(400, 300, 50, element.A("fill", "#aa2266"))); err != nil {
		t.Fatal(err)
	}

	doc := s.SVG()
	ri := strings.Index(doc, "<rect")
	ci := strings.Index(doc, "<circle")
	if ri < 0 || ci < 0 || ri > ci {
		t.Errorf("rect must precede circle: rect@%d circle@%d\n%s", ri, ci, doc)
	}
	if _, err := dom.Parse(doc); err != nil {
		t.Errorf("output not well-formed: %v", err)
	}
	ok, err := s.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !ok {
		t.Error("Validate=false, want true")
	}
}

func TestZTiesBreakByCreationOrder(t *testing.T) {
	s := mustScene(t, Options{Width: 100, Height: 100})
	for _, name := range []string{"first", "second", "third"} {
		if err := s.CreateLayer(name, 5); err != nil {
			t.Fatal(err)
		}
	}
	// A lower z created later still paints before them all.
	if err := s.CreateLayer("base", 1); err != nil {
		t.Fatal(err)
	}
	doc := s.SVG()
	order := []string{`id="base"`, `id="first"`, `id="second"`, `id="third"`}
	last := -1
	for _, needle := range order {
		i := strings.Index(doc, needle)
		if i < last {
			t.Fatalf("layer order wrong, %q out of place:\n%s", needle, doc)
		}
		last = i
	}
}

func TestSVGDeterministic(t *testing.T) {
	s := mustScene(t, Options{Width: 640, Height: 480})
	if err := s.CreateLayer("art", 3); err != nil {
		t.Fatal(err)
	}
	if err := s.AddToLayer("art", "circle", []element.Attr{
		{Key: "cx", Value: "320"}, {Key: "cy", Value: "240"}, {Key: "r", Value: "100"},
	}); err != nil {
		t.Fatal(err)
	}
	s.RegisterDef(gradient.Rainbow("rb", true))

	a := s.SVG()
	b := s.SVG()
	if a != b {
		t.Error("repeated SVG() calls differ")
	}
}

func TestDefsDedupAndPlacement(t *testing.T) {
	s := mustScene(t, Options{Width: 100, Height: 100})
	if err := s.CreateLayer("l", 0); err != nil {
		t.Fatal(err)
	}
	g := gradient.Rainbow("rb", true)
	s.RegisterDef(g)
	s.RegisterDef(g) // structural duplicate, must not double-emit
	doc := s.SVG()

	if n := strings.Count(doc, "<linearGradient"); n != 1 {
		t.Errorf("duplicate def emitted %d times", n)
	}
	di := strings.Index(doc, "<defs>")
	li := strings.Index(doc, "<g id=")
	if di < 0 || li < 0 || di > li {
		t.Errorf("defs must precede layers: defs@%d layer@%d", di, li)
	}
}

func TestAttributeEscaping(t *testing.T) {
	s := mustScene(t, Options{Width: 100, Height: 100})
	if err := s.CreateLayer("l", 0); err != nil {
		t.Fatal(err)
	}
	if err := s.AddToLayer("l", "text", []element.Attr{
		{Key: "x", Value: "1"}, {Key: "y", Value: "2"}, {Key: "font-family", Value: `"Quo" & <Co>`},
	}); err != nil {
		t.Fatal(err)
	}
	doc := s.SVG()
	if !strings.Contains(doc, "&quot;Quo&quot; &amp; &lt;Co&gt;") {
		t.Errorf("attribute value not escaped:\n%s", doc)
	}
	if _, err := dom.Parse(doc); err != nil {
		t.Errorf("escaped output not parseable: %v", err)
	}
}

func TestValidateFalseOnBudgetMiss(t *testing.T) {
	s := mustScene(t, Options{Width: 800, Height: 600, MaxSizeKB: 0.2})
	if err := s.CreateLayer("dots", 0); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 200; i++ {
		c := element.Circle(float64(i)*3.14159, float64(i)*2.71828, 4.5,
			element.A("fill", "#aabbcc"))
		if err := s.Add("dots", c); err != nil {
			t.Fatal(err)
		}
	}
	ok, err := s.Validate()
	if err != nil {
		t.Fatalf("Validate must not error on a budget miss: %v", err)
	}
	if ok {
		t.Error("Validate=true for a scene far over budget")
	}
}

func TestValidateFalseOnDisallowedContent(t *testing.T) {
	s := mustScene(t, Options{Width: 100, Height: 100})
	if err := s.CreateLayer("l", 0); err != nil {
		t.Fatal(err)
	}
	if err := s.AddToLayer("l", "script", nil); err != nil {
		t.Fatalf("AddToLayer: %v", err) // construction is legal, content is not
	}
	ok, err := s.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if ok {
		t.Error("Validate=true for a scene containing <script>")
	}
}

// End to end: collaborators fill the scene, compliance shrinks and passes.
func TestComposeSanitizeOptimize(t *testing.T) {
	s := mustScene(t, Options{Width: 800, Height: 600, MaxSizeKB: 10})
	for name, z := range map[string]int{"background": 0, "grid": 5, "foreground": 15} {
		if err := s.CreateLayer(name, z); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Add("background", element.Rect(0, 0, 800, 600, element.A("fill", "#f0f0f0"))); err != nil {
		t.Fatal(err)
	}
	r := grid3d.New(grid3d.Options{Width: 800, Height: 600})
	if err := s.Add("grid", r.Grid(grid3d.Point{}, 300, 6, element.A("stroke", "#dddddd"))); err != nil {
		t.Fatal(err)
	}
	s.RegisterDef(gradient.Rainbow("rainbow", true))
	if err := s.Add("foreground", element.Rect(300, 400, 200, 80,
		element.A("fill", "url(#rainbow)"), element.A("rx", "10"))); err != nil {
		t.Fatal(err)
	}

	out, err := sanitize.EnsureCompliance(s.SVG(), 10)
	if err != nil {
		t.Fatalf("EnsureCompliance: %v", err)
	}
	if _, err := dom.Parse(out); err != nil {
		t.Fatalf("final document not well-formed: %v", err)
	}
	if err := sanitize.Verify(out); err != nil {
		t.Errorf("final document not compliant: %v", err)
	}
	if !strings.Contains(out, "url(#rainbow)") {
		t.Error("gradient reference lost in pipeline")
	}
}

func TestElementCap(t *testing.T) {
	s := mustScene(t, Options{Width: 100, Height: 100, MaxElements: 4})
	if err := s.CreateLayer("l", 0); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("l", element.Circle(1, 1, 1)); err != nil {
		t.Fatalf("first add: %v", err)
	}
	// A group counts itself plus its subtree: 1 + 2 = 3, total 4, at the cap.
	web := element.Group([]element.Element{element.Circle(2, 2, 1), element.Circle(3, 3, 1)})
	if err := s.Add("l", web); err != nil {
		t.Fatalf("group add: %v", err)
	}
	if got := s.Elements(); got != 4 {
		t.Fatalf("Elements() = %d, want 4", got)
	}

	err := s.Add("l", element.Circle(4, 4, 1))
	if !errors.Is(err, ErrTooManyElements) {
		t.Fatalf("over-cap add error=%v, want ErrTooManyElements", err)
	}
	// Rejection leaves the scene unchanged.
	if got := s.Elements(); got != 4 {
		t.Errorf("Elements() = %d after rejected add, want 4", got)
	}
	if got := s.Layer("l").Len(); got != 2 {
		t.Errorf("layer Len() = %d after rejected add, want 2", got)
	}
}

func TestNoElementCapByDefault(t *testing.T) {
	s := mustScene(t, Options{Width: 100, Height: 100})
	if err := s.CreateLayer("l", 0); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		if err := s.Add("l", element.Circle(float64(i), 0, 1)); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
}

func TestLayerAccessors(t *testing.T) {
	s := mustScene(t, Options{Width: 10, Height: 10})
	if err := s.CreateLayer("l", 7); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := s.Add("l", element.Circle(float64(i), 0, 1)); err != nil {
			t.Fatal(err)
		}
	}
	l := s.Layer("l")
	if l == nil || l.Name() != "l" || l.Z() != 7 || l.Len() != 3 {
		t.Errorf("layer accessors wrong: %+v", l)
	}
	if s.Layer("nope") != nil {
		t.Error("absent layer must be nil")
	}
}
