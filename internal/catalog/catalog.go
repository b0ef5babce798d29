// Package catalog holds the ordered, immutable list of FAQ entries the bot
// answers from.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	domerrors "github.com/garyellow/faq-linebot-go/internal/errors"
	"github.com/garyellow/faq-linebot-go/internal/r2client"
)

//go:embed data/faq.yaml
var defaultYAML []byte

// Entry is a single question with its pre-written answer.
type Entry struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

type document struct {
	Entries []Entry `yaml:"entries"`
}

// Catalog is an ordered list of entries. Safe for concurrent use.
type Catalog struct {
	entries []Entry
}

// New validates entries and returns a catalog holding a copy of them.
func New(entries []Entry) (*Catalog, error) {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.Question) == "" {
			return nil, domerrors.NewValidationError(fmt.Sprintf("entries[%d].question", i), "must not be empty")
		}
		out[i] = e
	}
	return &Catalog{entries: out}, nil
}

// Parse decodes a YAML document with a top-level "entries" list.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: decode yaml: %w", err)
	}
	return New(doc.Entries)
}

// Default returns the embedded catalog. It panics if the embedded data is invalid.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded data: %v", err))
	}
	return c
}

// DefaultData returns a copy of the embedded YAML the default catalog is parsed from.
func DefaultData() []byte {
	return slices.Clone(defaultYAML)
}

// LoadFile parses a catalog from disk. Paths ending in ".zst" are
// zstd-compressed.
func LoadFile(path string) (*Catalog, error) {
	data, err := ReadDataFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// ReadDataFile reads a data file, decompressing it when the name ends in ".zst".
func ReadDataFile(path string) ([]byte, error) {
	if !strings.HasSuffix(path, r2client.CompressedSuffix) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return data, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	data, err := r2client.Decompress(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// All returns a copy of the entries in catalog order.
func (c *Catalog) All() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entry returns the i-th entry.
func (c *Catalog) Entry(i int) Entry {
	return c.entries[i]
}
