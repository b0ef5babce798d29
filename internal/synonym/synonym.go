// Package synonym holds the static concept table used to widen message
// keywords with known surface-form variants.
package synonym

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	domerrors "github.com/garyellow/faq-linebot-go/internal/errors"
	"github.com/garyellow/faq-linebot-go/internal/sliceutil"
)

//go:embed data/synonyms.yaml
var defaultYAML []byte

// Group is one concept and the surface forms that stand for it.
type Group struct {
	Concept  string   `yaml:"concept"`
	Variants []string `yaml:"variants"`
}

type document struct {
	Groups []Group `yaml:"groups"`
}

// Table is an immutable synonym table. Safe for concurrent use.
type Table struct {
	groups    []Group
	byVariant map[string][]int // variant -> indices into groups, ascending
}

// New validates groups and builds a lookup index.
// Variants are lowercased and deduplicated within a group; order is kept.
func New(groups []Group) (*Table, error) {
	t := &Table{
		groups:    make([]Group, 0, len(groups)),
		byVariant: make(map[string][]int),
	}
	seenConcepts := make(map[string]struct{}, len(groups))

	for i, g := range groups {
		concept := strings.ToLower(strings.TrimSpace(g.Concept))
		if concept == "" {
			return nil, domerrors.NewValidationError(fmt.Sprintf("groups[%d].concept", i), "must not be empty")
		}
		if _, dup := seenConcepts[concept]; dup {
			return nil, domerrors.NewValidationError(fmt.Sprintf("groups[%d].concept", i), "duplicate concept "+concept)
		}
		seenConcepts[concept] = struct{}{}

		variants := make([]string, len(g.Variants))
		for j, v := range g.Variants {
			variants[j] = strings.ToLower(strings.TrimSpace(v))
		}
		variants = sliceutil.Unique(sliceutil.Filter(variants, func(v string) bool { return v != "" }))
		if len(variants) == 0 {
			return nil, domerrors.NewValidationError(fmt.Sprintf("groups[%d].variants", i), "must not be empty")
		}

		idx := len(t.groups)
		t.groups = append(t.groups, Group{Concept: concept, Variants: variants})
		for _, v := range variants {
			t.byVariant[v] = append(t.byVariant[v], idx)
		}
	}

	return t, nil
}

// Parse decodes a YAML document with a top-level "groups" list.
func Parse(data []byte) (*Table, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("synonym: decode yaml: %w", err)
	}
	return New(doc.Groups)
}

// Default returns the embedded table. It panics if the embedded data is invalid.
func Default() *Table {
	t, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("synonym: embedded table: %v", err))
	}
	return t
}

// DefaultData returns a copy of the embedded YAML the default table is parsed from.
func DefaultData() []byte {
	return slices.Clone(defaultYAML)
}

// GroupsContaining returns the variant lists of every group that lists word
// verbatim, in table order. The returned slices must not be modified.
func (t *Table) GroupsContaining(word string) [][]string {
	indices := t.byVariant[word]
	if len(indices) == 0 {
		return nil
	}
	out := make([][]string, len(indices))
	for i, idx := range indices {
		out[i] = t.groups[idx].Variants
	}
	return out
}

// Contains reports whether concept lists word as a variant.
func (t *Table) Contains(concept, word string) bool {
	for _, idx := range t.byVariant[word] {
		if t.groups[idx].Concept == concept {
			return true
		}
	}
	return false
}

// Concepts returns concept names in table order.
func (t *Table) Concepts() []string {
	out := make([]string, len(t.groups))
	for i, g := range t.groups {
		out[i] = g.Concept
	}
	return out
}

// Len returns the number of groups.
func (t *Table) Len() int {
	return len(t.groups)
}
