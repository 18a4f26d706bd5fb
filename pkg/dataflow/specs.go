package dataflow

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FuncSpec declares the side effects of one tracked function name: whether a
// call mutates its receiver, and which positional or keyword arguments it
// mutates. Functions without a spec are assumed to mutate nothing.
type FuncSpec struct {
	Name            string   `yaml:"name"`
	MutatesReceiver bool     `yaml:"mutatesReceiver,omitempty"`
	PositionalArgs  []int    `yaml:"positionalArgs,omitempty"`
	KeywordArgs     []string `yaml:"keywordArgs,omitempty"`
}

// Specs is the mutation-rule configuration consulted by the extractor.
// Rules are looked up by bare callee name: member-access calls use the
// accessed member's name, plain calls the identifier.
type Specs struct {
	rules map[string]FuncSpec
}

// NewSpecs builds a lookup table from the given rules. Later rules with the
// same name replace earlier ones.
func NewSpecs(rules []FuncSpec) *Specs {
	s := &Specs{rules: make(map[string]FuncSpec, len(rules))}
	for _, r := range rules {
		s.rules[r.Name] = r
	}
	return s
}

// Lookup returns the rule for the callee name, if any.
func (s *Specs) Lookup(name string) (FuncSpec, bool) {
	if s == nil {
		return FuncSpec{}, false
	}
	r, ok := s.rules[name]
	return r, ok
}

// specFile is the on-disk YAML shape of a rule set.
type specFile struct {
	Functions []FuncSpec `yaml:"functions"`
}

// LoadSpecs reads a YAML rule file.
func LoadSpecs(path string) (*Specs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec file %s: %w", path, err)
	}
	return ParseSpecs(data)
}

// ParseSpecs decodes a YAML rule document.
func ParseSpecs(data []byte) (*Specs, error) {
	var f specFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing spec yaml: %w", err)
	}
	return NewSpecs(f.Functions), nil
}

// DefaultSpecs covers the common mutating methods of the Python builtin
// containers plus a handful of stdlib functions that mutate an argument.
func DefaultSpecs() *Specs {
	recv := func(name string) FuncSpec {
		return FuncSpec{Name: name, MutatesReceiver: true}
	}
	return NewSpecs([]FuncSpec{
		// list
		recv("append"), recv("extend"), recv("insert"), recv("remove"),
		recv("pop"), recv("sort"), recv("reverse"), recv("clear"),
		// dict
		recv("update"), recv("setdefault"), recv("popitem"),
		// set
		recv("add"), recv("discard"), recv("intersection_update"),
		recv("difference_update"), recv("symmetric_difference_update"),
		// functions mutating their first argument
		{Name: "shuffle", PositionalArgs: []int{0}},
		{Name: "heappush", PositionalArgs: []int{0}},
		{Name: "heappop", PositionalArgs: []int{0}},
		{Name: "setattr", PositionalArgs: []int{0}},
	})
}
