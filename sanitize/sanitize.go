// Package sanitize enforces the content allowlist a submission must
// satisfy and orchestrates sanitization with size optimization into a
// single "make this legal and small" operation.
//
// The sanitizer fails closed. A tag not on the allowlist is removed with
// all its descendants; an attribute not on the allowlist is removed; a
// reference that is not a local fragment is removed; an inline style that
// does not parse is removed whole. Emitting non-compliant content is never
// acceptable, so the one fatal path — EnsureCompliance returning
// ErrCompliance — fires only when the document cannot be made legal at
// all, such as a canvas whose dimensions fall outside the permitted range.
// A missed size budget is not fatal.
package sanitize

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aymerick/douceur/parser"

	"github.com/faberlux/svgforge/dom"
	"github.com/faberlux/svgforge/optimize"
)

// ErrCompliance is returned when a document cannot satisfy the policy at
// all; the wrapped message names the unsatisfiable constraint.
var ErrCompliance = errors.New("sanitize: compliance cannot be satisfied")

// ErrMalformedDocument is returned for unparseable input.
var ErrMalformedDocument = dom.ErrMalformed

// Options configures a Sanitizer.
type Options struct {
	// Policy is the allowlist to enforce. Defaults to DefaultPolicy.
	Policy *Policy
	// Optimizer shrinks the sanitized document. Defaults to the default
	// pipeline.
	Optimizer *optimize.Optimizer
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.Policy == nil {
		o.Policy = DefaultPolicy()
	}
	if o.Optimizer == nil {
		o.Optimizer = optimize.New(optimize.Options{Logger: o.Logger})
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Sanitizer applies one policy.
type Sanitizer struct {
	opts Options
}

// New creates a sanitizer. The zero Options value enforces the embedded
// default policy.
func New(opts Options) *Sanitizer {
	opts.defaults()
	return &Sanitizer{opts: opts}
}

// Sanitize parses the document, drops every disallowed node (with its
// descendants) and attribute, and re-serializes. The root element must be
// allowlisted; a disallowed root yields ErrCompliance since dropping it
// leaves no document.
func (s *Sanitizer) Sanitize(doc string) (string, error) {
	root, err := dom.Parse(doc)
	if err != nil {
		return "", err
	}
	if !s.opts.Policy.AllowsTag(root.Tag) {
		return "", fmt.Errorf("%w: root element <%s> is not allowlisted", ErrCompliance, root.Tag)
	}
	s.prune(root)
	return dom.Render(root), nil
}

// prune removes disallowed children and attributes, recursively.
func (s *Sanitizer) prune(n *dom.Node) {
	kept := n.Kids[:0]
	for _, k := range n.Kids {
		if !s.opts.Policy.AllowsTag(k.Tag) {
			s.opts.Logger.Debug("sanitize: dropped element", "tag", k.Tag)
			continue
		}
		s.prune(k)
		kept = append(kept, k)
	}
	n.Kids = kept

	attrs := n.Attrs[:0]
	for _, a := range n.Attrs {
		v, ok := s.cleanAttr(n.Tag, a.Key, a.Value)
		if !ok {
			s.opts.Logger.Debug("sanitize: dropped attribute", "tag", n.Tag, "attr", a.Key)
			continue
		}
		attrs = append(attrs, dom.Attr{Key: a.Key, Value: v})
	}
	n.Attrs = attrs
}

// cleanAttr decides an attribute's fate: dropped, kept, or kept with a
// filtered value (style).
func (s *Sanitizer) cleanAttr(tag, key, val string) (string, bool) {
	if !s.opts.Policy.AllowsAttr(tag, key) {
		return "", false
	}
	if !localRefsOnly(key, val) {
		return "", false
	}
	if key == "style" {
		filtered := s.filterStyle(val)
		if filtered == "" {
			return "", false
		}
		return filtered, true
	}
	return val, true
}

// localRefsOnly rejects values that reference anything outside the
// document: a non-fragment href, or a url() whose target is not a local id.
// CSS functional notation is case-insensitive, so URL( and Url( count.
func localRefsOnly(key, val string) bool {
	if key == "href" || key == "xlink:href" {
		return strings.HasPrefix(val, "#")
	}
	rest := strings.ToLower(val)
	for {
		i := strings.Index(rest, "url(")
		if i < 0 {
			return true
		}
		rest = rest[i+len("url("):]
		target := strings.TrimLeft(rest, `"' `)
		if !strings.HasPrefix(target, "#") {
			return false
		}
	}
}

// filterStyle keeps only allowlisted CSS properties with local values.
// Unparseable style is discarded whole.
func (s *Sanitizer) filterStyle(style string) string {
	decls, err := parser.ParseDeclarations(style)
	if err != nil {
		return ""
	}
	var parts []string
	for _, d := range decls {
		if !s.opts.Policy.AllowsStyleProperty(d.Property) {
			continue
		}
		if !localRefsOnly("style", d.Value) {
			continue
		}
		parts = append(parts, d.Property+":"+d.Value)
	}
	return strings.Join(parts, ";")
}

// EnsureCompliance sanitizes the document, verifies the constraints that
// cannot be repaired by removal, and runs the optimizer on the result. The
// returned document is always compliant; it may still exceed the budget
// (best effort, measure it with optimize.SizeKB). Fatal only via
// ErrCompliance or ErrMalformedDocument.
func (s *Sanitizer) EnsureCompliance(doc string, maxKB float64) (string, error) {
	clean, err := s.Sanitize(doc)
	if err != nil {
		return "", err
	}
	root, err := dom.Parse(clean)
	if err != nil {
		return "", err
	}
	if root.Tag != "svg" {
		return "", fmt.Errorf("%w: root element is <%s>, not <svg>", ErrCompliance, root.Tag)
	}
	if err := s.checkCanvas(root); err != nil {
		return "", err
	}

	out, err := s.opts.Optimizer.Optimize(clean, maxKB)
	if err != nil {
		return "", err
	}
	if !out.MetBudget {
		s.opts.Logger.Debug("sanitize: budget missed after optimization",
			"size_kb", out.SizeKB, "budget_kb", maxKB)
	}
	return out.Document, nil
}

// checkCanvas enforces the dimension range. Altering width or height would
// change the document's meaning, so a violation is unsatisfiable.
func (s *Sanitizer) checkCanvas(root *dom.Node) error {
	lim := s.opts.Policy.Canvas
	if lim.MaxDimension <= 0 {
		return nil
	}
	for _, key := range []string{"width", "height"} {
		raw, ok := root.Attr(key)
		if !ok {
			return fmt.Errorf("%w: root element lacks %s", ErrCompliance, key)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%w: root %s %q is not numeric", ErrCompliance, key, raw)
		}
		if v < lim.MinDimension || v > lim.MaxDimension {
			return fmt.Errorf("%w: root %s %g outside allowed range [%g, %g]",
				ErrCompliance, key, v, lim.MinDimension, lim.MaxDimension)
		}
	}
	return nil
}

// Verify reports the first allowlist violation in the document without
// altering it, or nil when the document is fully compliant. Used by
// Scene.Validate.
func (s *Sanitizer) Verify(doc string) error {
	root, err := dom.Parse(doc)
	if err != nil {
		return err
	}
	return s.verifyNode(root)
}

func (s *Sanitizer) verifyNode(n *dom.Node) error {
	if !s.opts.Policy.AllowsTag(n.Tag) {
		return fmt.Errorf("sanitize: tag <%s> not allowlisted", n.Tag)
	}
	for _, a := range n.Attrs {
		if !s.opts.Policy.AllowsAttr(n.Tag, a.Key) {
			return fmt.Errorf("sanitize: attribute %q not allowlisted on <%s>", a.Key, n.Tag)
		}
		if !localRefsOnly(a.Key, a.Value) {
			return fmt.Errorf("sanitize: attribute %q on <%s> references an external resource", a.Key, n.Tag)
		}
	}
	for _, k := range n.Kids {
		if err := s.verifyNode(k); err != nil {
			return err
		}
	}
	return nil
}

// Verify checks a document against the default policy.
func Verify(doc string) error {
	return New(Options{}).Verify(doc)
}

// EnsureCompliance sanitizes and optimizes with the default policy and
// pipeline.
func EnsureCompliance(doc string, maxKB float64) (string, error) {
	return New(Options{}).EnsureCompliance(doc, maxKB)
}
