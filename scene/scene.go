// Package scene composes validated elements into named, z-ordered layers
// and serializes the whole composition to a single SVG document string.
//
// A Scene is the unit of work for one generated artwork: create it, create
// layers, append elements produced by the renderer packages, register
// shared defs (gradients), then call SVG. Scenes are not safe for
// concurrent mutation — parallel generation uses one Scene per goroutine,
// each internally sequential.
//
// Layer paint order is ascending z, ties broken by creation order. Within
// a layer, elements paint in insertion order. Layers are append-only:
// there is no element removal or reordering, which keeps repeated SVG
// calls byte-identical for unchanged state.
package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/faberlux/svgforge/element"
	"github.com/faberlux/svgforge/optimize"
	"github.com/faberlux/svgforge/sanitize"
)

// Namespace is the SVG namespace declared on every root element.
const Namespace = "http://www.w3.org/2000/svg"

// ErrDuplicateLayer is returned when a layer name is created twice.
var ErrDuplicateLayer = errors.New("scene: duplicate layer")

// ErrUnknownLayer is returned when an element targets a layer that was
// never created.
var ErrUnknownLayer = errors.New("scene: unknown layer")

// ErrBadCanvas is returned by New for non-positive canvas dimensions.
var ErrBadCanvas = errors.New("scene: canvas dimensions must be positive")

// ErrTooManyElements is returned by Add when the element budget is
// exhausted.
var ErrTooManyElements = errors.New("scene: element budget exceeded")

// Options configures a Scene.
type Options struct {
	// Width and Height are the canvas dimensions. Both must be positive.
	Width  float64
	Height float64
	// MaxSizeKB is the output budget in kibibytes of serialized UTF-8.
	// 0 means no budget: Validate skips the size check.
	MaxSizeKB float64
	// MaxElements caps the total element count across all layers, nested
	// children included. 0 means no cap.
	MaxElements int
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Layer is a named group of elements with a stacking position.
type Layer struct {
	name     string
	z        int
	elements []element.Element
}

// Name returns the layer's unique name.
func (l *Layer) Name() string { return l.name }

// Z returns the layer's stacking position.
func (l *Layer) Z() int { return l.z }

// Len returns the number of elements in the layer.
func (l *Layer) Len() int { return len(l.elements) }

// Scene is a layered SVG composition.
type Scene struct {
	opts     Options
	byName   map[string]*Layer
	order    []*Layer // creation order, the z tie-breaker
	defs     []element.Element
	elements int // total count across layers, nested children included
}

// New creates an empty scene.
func New(opts Options) (*Scene, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: %gx%g", ErrBadCanvas, opts.Width, opts.Height)
	}
	opts.defaults()
	return &Scene{
		opts:   opts,
		byName: make(map[string]*Layer),
	}, nil
}

// CreateLayer inserts an empty layer. The name must be unique within the
// scene; z has no uniqueness constraint (equal z paints in creation order).
func (s *Scene) CreateLayer(name string, z int) error {
	if _, exists := s.byName[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateLayer, name)
	}
	l := &Layer{name: name, z: z}
	s.byName[name] = l
	s.order = append(s.order, l)
	return nil
}

// AddToLayer builds a validated element and appends it to the named layer.
func (s *Scene) AddToLayer(name, tag string, attrs []element.Attr, children ...element.Element) error {
	el, err := element.New(tag, attrs, children...)
	if err != nil {
		return err
	}
	return s.Add(name, el)
}

// Add appends a prebuilt element (typically produced by a renderer
// collaborator) to the named layer. When MaxElements is set, an element
// whose subtree would push the scene past the cap is rejected whole and
// the scene is unchanged.
func (s *Scene) Add(name string, el element.Element) error {
	l, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLayer, name)
	}
	n := countElements(el)
	if s.opts.MaxElements > 0 && s.elements+n > s.opts.MaxElements {
		return fmt.Errorf("%w: %d present, %d more would exceed the cap of %d",
			ErrTooManyElements, s.elements, n, s.opts.MaxElements)
	}
	s.elements += n
	l.elements = append(l.elements, el)
	return nil
}

// Elements returns the total element count across all layers, nested
// children included.
func (s *Scene) Elements() int { return s.elements }

func countElements(el element.Element) int {
	n := 1
	for _, c := range el.Children() {
		n += countElements(c)
	}
	return n
}

// RegisterDef appends a shared resource (gradient, pattern) to the global
// defs sequence. Structural duplicates are dropped so the same def
// registered twice is emitted once.
func (s *Scene) RegisterDef(el element.Element) {
	for _, d := range s.defs {
		if d.Equal(el) {
			return
		}
	}
	s.defs = append(s.defs, el)
}

// Layer returns the named layer, or nil if absent.
func (s *Scene) Layer(name string) *Layer { return s.byName[name] }

// layersInPaintOrder returns layers sorted by (z ascending, creation order
// ascending). The creation-order slice makes the sort stable by construction.
func (s *Scene) layersInPaintOrder() []*Layer {
	out := make([]*Layer, len(s.order))
	copy(out, s.order)
	sort.SliceStable(out, func(i, j int) bool { return out[i].z < out[j].z })
	return out
}

// Validate reports whether the serialized scene satisfies the compliance
// allowlist and, when a budget is set, fits it after optimization. A budget
// miss returns false, never an error; the error return covers only
// malformed internal state, which cannot occur through this package's API.
// The element cap needs no check here: Add already refuses to exceed it.
func (s *Scene) Validate() (bool, error) {
	doc := s.SVG()
	if err := sanitize.Verify(doc); err != nil {
		if errors.Is(err, sanitize.ErrMalformedDocument) {
			return false, err
		}
		s.opts.Logger.Debug("scene: validation failed compliance", "error", err)
		return false, nil
	}
	if s.opts.MaxSizeKB <= 0 {
		return true, nil
	}
	out, err := optimize.Optimize(doc, s.opts.MaxSizeKB)
	if err != nil {
		return false, err
	}
	s.opts.Logger.Debug("scene: validated",
		"size_kb", out.SizeKB, "met_budget", out.MetBudget, "steps", out.AppliedSteps)
	return out.MetBudget, nil
}
