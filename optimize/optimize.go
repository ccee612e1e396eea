// Package optimize shrinks a serialized SVG document toward a byte budget.
//
// Reduction runs as a fixed, prioritized pipeline of strategies, each one
// applied in full before the next, with a size check after every strategy.
// The moment the document fits the budget the pipeline halts — the least
// destructive sufficient transformation wins. Strategies 1–4 are lossless
// (whitespace, default attributes, color shorthand, duplicate defs); only
// the final precision ladder is lossy, and it steps down gradually,
// rechecking size after each decrement.
//
// Missing the budget is not an error: the caller gets the smallest document
// achieved and MetBudget=false. The only error is unparseable input.
//
// The pipeline is a fixed point: optimizing an optimizer's output with the
// same budget changes nothing further.
package optimize

import (
	"log/slog"

	"github.com/faberlux/svgforge/dom"
)

// ErrMalformedDocument is returned when the input is not parseable markup.
var ErrMalformedDocument = dom.ErrMalformed

// Outcome is the result of one optimization run. It is never mutated after
// return.
type Outcome struct {
	// Document is the smallest document achieved.
	Document string
	// SizeKB is len(Document) in UTF-8 bytes divided by 1024.
	SizeKB float64
	// MetBudget reports whether Document fits the requested budget.
	MetBudget bool
	// AppliedSteps names the strategies that changed the document, in the
	// order they ran. Empty when the input already fit the budget, and also
	// when the document was over budget but already minimal, so no strategy
	// could shrink it (MetBudget tells the two apart).
	AppliedSteps []string
}

// Options tunes the reduction pipeline. The tables are policy data, not
// logic: zero values fall back to the package defaults below.
type Options struct {
	// Defaults maps attribute names to the implicit value that makes them
	// elidable (rendering is identical without them).
	Defaults map[string]string
	// ColorAttrs lists attributes whose values are colors, eligible for
	// #rrggbb → #rgb folding.
	ColorAttrs []string
	// NumericAttrs lists attributes whose values carry coordinates or
	// lengths, eligible for precision reduction.
	NumericAttrs []string
	// PrecisionSteps is the descending ladder of decimal places tried by
	// the lossy step. The last entry is the floor.
	PrecisionSteps []int
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.Defaults == nil {
		o.Defaults = DefaultElidable
	}
	if o.ColorAttrs == nil {
		o.ColorAttrs = DefaultColorAttrs
	}
	if o.NumericAttrs == nil {
		o.NumericAttrs = DefaultNumericAttrs
	}
	if len(o.PrecisionSteps) == 0 {
		o.PrecisionSteps = DefaultPrecisionSteps
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Optimizer applies the reduction pipeline with one set of options.
type Optimizer struct {
	opts       Options
	colorAttrs map[string]bool
	numAttrs   map[string]bool
}

// New creates an optimizer. The zero Options value gives the default
// pipeline.
func New(opts Options) *Optimizer {
	opts.defaults()
	o := &Optimizer{
		opts:       opts,
		colorAttrs: make(map[string]bool, len(opts.ColorAttrs)),
		numAttrs:   make(map[string]bool, len(opts.NumericAttrs)),
	}
	for _, a := range opts.ColorAttrs {
		o.colorAttrs[a] = true
	}
	for _, a := range opts.NumericAttrs {
		o.numAttrs[a] = true
	}
	return o
}

// Optimize runs the default pipeline. See Optimizer.Optimize.
func Optimize(doc string, maxKB float64) (Outcome, error) {
	return New(Options{}).Optimize(doc, maxKB)
}

// SizeKB measures a document the way the budget is expressed: UTF-8 bytes
// divided by 1024.
func SizeKB(doc string) float64 {
	return float64(len(doc)) / 1024
}

// Steps returns the strategy names in pipeline order.
func (o *Optimizer) Steps() []string {
	names := make([]string, len(pipeline))
	for i, s := range pipeline {
		names[i] = s.name
	}
	return names
}

// Optimize shrinks doc until it fits maxKB or the pipeline is exhausted.
// A maxKB of 0 (or negative) means no budget: the document is returned
// untouched with MetBudget=true. Unparseable input yields
// ErrMalformedDocument; a budget miss never does.
func (o *Optimizer) Optimize(doc string, maxKB float64) (Outcome, error) {
	if _, err := dom.Parse(doc); err != nil {
		return Outcome{}, err
	}

	best := doc
	var applied []string
	fits := func() bool { return SizeKB(best) <= maxKB }

	if maxKB <= 0 || fits() {
		return Outcome{Document: best, SizeKB: SizeKB(best), MetBudget: true}, nil
	}

	for _, st := range pipeline {
		next := st.apply(o, best, maxKB)
		// Monotonic guard: a strategy may only shrink the document.
		if len(next) < len(best) {
			best = next
			applied = append(applied, st.name)
			o.opts.Logger.Debug("optimize: strategy applied",
				"strategy", st.name, "size_kb", SizeKB(best))
		}
		if fits() {
			break
		}
	}

	out := Outcome{
		Document:     best,
		SizeKB:       SizeKB(best),
		MetBudget:    fits(),
		AppliedSteps: applied,
	}
	o.opts.Logger.Debug("optimize: done",
		"size_kb", out.SizeKB, "met_budget", out.MetBudget, "steps", out.AppliedSteps)
	return out, nil
}
