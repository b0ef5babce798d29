package match

import (
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/garyellow/faq-linebot-go/internal/catalog"
)

// FuzzyThreshold is the largest accepted fuzzy score (0 exact, 1 no match).
const FuzzyThreshold = 0.3

type fuzzyEntry struct {
	entry  catalog.Entry
	text   []rune
	starts []int // word start offsets into text
}

// FuzzyMatcher finds the question containing the closest approximate
// occurrence of the message.
type FuzzyMatcher struct {
	entries   []fuzzyEntry
	threshold float64
}

// NewFuzzyMatcher indexes the lowercased questions of cat.
func NewFuzzyMatcher(cat *catalog.Catalog) *FuzzyMatcher {
	all := cat.All()
	m := &FuzzyMatcher{
		entries:   make([]fuzzyEntry, len(all)),
		threshold: FuzzyThreshold,
	}
	for i, e := range all {
		text := []rune(strings.ToLower(e.Question))
		m.entries[i] = fuzzyEntry{entry: e, text: text, starts: wordStarts(text)}
	}
	return m
}

// Name implements Matcher.
func (m *FuzzyMatcher) Name() string {
	return StrategyFuzzy
}

// Match implements Matcher. Lower scores are better; ties keep catalog order.
func (m *FuzzyMatcher) Match(message string) Result {
	pattern := []rune(strings.ToLower(strings.TrimSpace(message)))
	if len(m.entries) == 0 || len(pattern) == 0 {
		return noMatch(1)
	}

	best, bestScore := -1, 1.0
	for i := range m.entries {
		if s := m.entries[i].score(pattern, m.threshold); best < 0 || s < bestScore {
			best, bestScore = i, s
		}
	}

	if bestScore > m.threshold {
		return noMatch(bestScore)
	}
	entry := m.entries[best].entry
	return Result{Entry: &entry, Index: best, Score: bestScore, Matched: true}
}

// score is the smallest Levenshtein distance between pattern and a window of
// the question, divided by the pattern length and capped at 1. Windows start
// at word boundaries; their lengths stay within the edit budget that the
// threshold allows, so accepted scores are exact.
func (e *fuzzyEntry) score(pattern []rune, threshold float64) float64 {
	n := len(pattern)
	p := string(pattern)

	if len(e.text) <= n {
		return ratio(edlib.LevenshteinDistance(p, string(e.text)), n)
	}

	budget := int(threshold * float64(n))
	bestDist := n
	for _, start := range e.starts {
		for length := max(1, n-budget); length <= n+budget; length++ {
			end := start + length
			if end > len(e.text) {
				break
			}
			if d := edlib.LevenshteinDistance(p, string(e.text[start:end])); d < bestDist {
				bestDist = d
				if d == 0 {
					return 0
				}
			}
		}
	}
	return ratio(bestDist, n)
}

func ratio(dist, n int) float64 {
	if dist >= n {
		return 1
	}
	return float64(dist) / float64(n)
}

func wordStarts(text []rune) []int {
	var starts []int
	for i, r := range text {
		if r == ' ' {
			continue
		}
		if i == 0 || text[i-1] == ' ' {
			starts = append(starts, i)
		}
	}
	return starts
}
