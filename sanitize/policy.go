package sanitize

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var defaultPolicyYAML []byte

// CanvasLimits bounds the root canvas dimensions. A document whose
// width/height fall outside the range cannot be made compliant without
// changing its meaning.
type CanvasLimits struct {
	MinDimension float64 `yaml:"min_dimension"`
	MaxDimension float64 `yaml:"max_dimension"`
}

// Policy is the compliance allowlist. It is policy data, not logic: the
// default ships as an embedded YAML document and callers may load their own
// with ParsePolicy.
type Policy struct {
	// Elements maps each permitted tag to its tag-specific attributes.
	Elements map[string][]string `yaml:"elements"`
	// GlobalAttributes are permitted on every allowlisted tag.
	GlobalAttributes []string `yaml:"global_attributes"`
	// StyleProperties are the CSS properties allowed inside a style
	// attribute.
	StyleProperties []string `yaml:"style_properties"`
	// Canvas bounds the root dimensions.
	Canvas CanvasLimits `yaml:"canvas"`

	tagAttrs   map[string]map[string]bool
	global     map[string]bool
	styleProps map[string]bool
}

// ParsePolicy loads a policy from YAML and compiles its lookup sets.
func ParsePolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("sanitize: parsing policy: %w", err)
	}
	if len(p.Elements) == 0 {
		return nil, fmt.Errorf("sanitize: policy allows no elements")
	}
	p.compile()
	return &p, nil
}

func (p *Policy) compile() {
	p.tagAttrs = make(map[string]map[string]bool, len(p.Elements))
	for tag, attrs := range p.Elements {
		set := make(map[string]bool, len(attrs))
		for _, a := range attrs {
			set[a] = true
		}
		p.tagAttrs[tag] = set
	}
	p.global = make(map[string]bool, len(p.GlobalAttributes))
	for _, a := range p.GlobalAttributes {
		p.global[a] = true
	}
	p.styleProps = make(map[string]bool, len(p.StyleProperties))
	for _, s := range p.StyleProperties {
		p.styleProps[s] = true
	}
}

// AllowsTag reports whether the tag may appear in output.
func (p *Policy) AllowsTag(tag string) bool {
	_, ok := p.tagAttrs[tag]
	return ok
}

// AllowsAttr reports whether the attribute may appear on the tag.
func (p *Policy) AllowsAttr(tag, attr string) bool {
	if p.global[attr] {
		return true
	}
	return p.tagAttrs[tag][attr]
}

// AllowsStyleProperty reports whether a CSS property may survive inside a
// style attribute.
func (p *Policy) AllowsStyleProperty(prop string) bool {
	return p.styleProps[prop]
}

var (
	defaultPolicyOnce sync.Once
	defaultPolicy     *Policy
)

// DefaultPolicy returns the embedded baseline policy.
func DefaultPolicy() *Policy {
	defaultPolicyOnce.Do(func() {
		p, err := ParsePolicy(defaultPolicyYAML)
		if err != nil {
			panic(err) // embedded policy is validated by tests
		}
		defaultPolicy = p
	})
	return defaultPolicy
}
