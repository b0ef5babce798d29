// Package keyword expands chat text into a synonym-aware keyword set.
//
// The set holds the normalized words, every variant of each synonym group a
// word belongs to, adjacent word pairs and, for short messages, a fixed list
// of question phrasings around each word.
package keyword

import (
	"sort"

	"github.com/garyellow/faq-linebot-go/internal/synonym"
	"github.com/garyellow/faq-linebot-go/internal/textnorm"
)

// ShortQueryWords is the largest word count that still counts as a short query.
const ShortQueryWords = 2

// boostTemplates are the phrasings added around each word of a short query.
var boostTemplates = [...]struct{ prefix, suffix string }{
	{"what is ", ""},
	{"how to ", ""},
	{"need help with ", ""},
	{"help with ", ""},
	{"about ", ""},
	{"", "?"},
	{"", "??"},
	{"", "???"},
}

// Set is an unordered collection of keywords.
type Set map[string]struct{}

// Has reports whether k is in the set.
func (s Set) Has(k string) bool {
	_, ok := s[k]
	return ok
}

// Len returns the number of keywords.
func (s Set) Len() int {
	return len(s)
}

// IntersectCount returns |s ∩ other|.
func (s Set) IntersectCount(other Set) int {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	n := 0
	for k := range small {
		if _, ok := large[k]; ok {
			n++
		}
	}
	return n
}

// Sorted returns the keywords in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s Set) add(k string) {
	s[k] = struct{}{}
}

// Analysis is the result of expanding one text.
type Analysis struct {
	Words    []string
	Keywords Set
}

// IsShort reports whether the analyzed text is a short query.
func (a Analysis) IsShort() bool {
	return len(a.Words) > 0 && len(a.Words) <= ShortQueryWords
}

// Expander turns text into keyword sets using a synonym table.
// Safe for concurrent use.
type Expander struct {
	table *synonym.Table
}

// NewExpander creates an expander backed by table.
func NewExpander(table *synonym.Table) *Expander {
	return &Expander{table: table}
}

// Expand returns the keyword set for text.
func (e *Expander) Expand(text string) Set {
	return e.Analyze(text).Keywords
}

// Analyze returns the normalized words and the keyword set for text.
func (e *Expander) Analyze(text string) Analysis {
	words := textnorm.Words(text)
	set := make(Set, len(words)*4)

	for _, w := range words {
		set.add(w)
	}

	for _, w := range words {
		for _, variants := range e.table.GroupsContaining(w) {
			for _, v := range variants {
				set.add(v)
			}
		}
	}

	for i := 0; i+1 < len(words); i++ {
		set.add(words[i] + " " + words[i+1])
	}

	if len(words) > 0 && len(words) <= ShortQueryWords {
		for _, w := range words {
			for _, tpl := range boostTemplates {
				set.add(tpl.prefix + w + tpl.suffix)
			}
		}
	}

	return Analysis{Words: words, Keywords: set}
}
