package match

import (
	"github.com/garyellow/faq-linebot-go/internal/catalog"
	"github.com/garyellow/faq-linebot-go/internal/keyword"
)

// Score weights and thresholds of the keyword strategy.
const (
	KeywordWeight = 0.7
	ContextWeight = 0.3

	// ConceptBonus is added per important concept present in both sets.
	ConceptBonus = 2.0
	// ShortQueryBonus is added once when a short query names an important concept.
	ShortQueryBonus = 3.0

	ShortQueryThreshold = 0.15
	LongQueryThreshold  = 0.25
)

// importantConcepts carry the context bonus. Checked in this order.
var importantConcepts = []string{
	"windows",
	"localhost",
	"password",
	"ssh",
	"tunnel",
	"error",
	"connection",
}

// Score is the breakdown of one message/entry comparison.
type Score struct {
	Keyword float64
	Context float64
	Final   float64
}

type indexedEntry struct {
	entry    catalog.Entry
	keywords keyword.Set
}

// KeywordMatcher scores keyword overlap between the message and each question.
type KeywordMatcher struct {
	expander       *keyword.Expander
	entries        []indexedEntry
	shortThreshold float64
	longThreshold  float64
}

// KeywordOption configures a KeywordMatcher.
type KeywordOption func(*KeywordMatcher)

// WithThresholds overrides the acceptance thresholds.
func WithThresholds(short, long float64) KeywordOption {
	return func(m *KeywordMatcher) {
		m.shortThreshold = short
		m.longThreshold = long
	}
}

// NewKeywordMatcher expands every question of cat once up front.
func NewKeywordMatcher(cat *catalog.Catalog, exp *keyword.Expander, opts ...KeywordOption) *KeywordMatcher {
	m := &KeywordMatcher{
		expander:       exp,
		shortThreshold: ShortQueryThreshold,
		longThreshold:  LongQueryThreshold,
	}
	for _, opt := range opts {
		opt(m)
	}

	all := cat.All()
	m.entries = make([]indexedEntry, len(all))
	for i, e := range all {
		m.entries[i] = indexedEntry{entry: e, keywords: exp.Expand(e.Question)}
	}
	return m
}

// Name implements Matcher.
func (m *KeywordMatcher) Name() string {
	return StrategyKeyword
}

// Match implements Matcher. The first entry with the highest score wins.
func (m *KeywordMatcher) Match(message string) Result {
	if len(m.entries) == 0 {
		return noMatch(0)
	}

	query := m.expander.Analyze(message)
	best, bestScore := 0, score(query, m.entries[0].keywords).Final
	for i := 1; i < len(m.entries); i++ {
		if s := score(query, m.entries[i].keywords).Final; s > bestScore {
			best, bestScore = i, s
		}
	}

	threshold := m.longThreshold
	if query.IsShort() {
		threshold = m.shortThreshold
	}
	if bestScore <= threshold {
		return noMatch(bestScore)
	}

	entry := m.entries[best].entry
	return Result{Entry: &entry, Index: best, Score: bestScore, Matched: true}
}

// Score returns the breakdown for message against the i-th entry.
func (m *KeywordMatcher) Score(message string, i int) Score {
	return score(m.expander.Analyze(message), m.entries[i].keywords)
}

// Threshold returns the acceptance threshold that applies to message.
func (m *KeywordMatcher) Threshold(message string) float64 {
	if m.expander.Analyze(message).IsShort() {
		return m.shortThreshold
	}
	return m.longThreshold
}

func score(query keyword.Analysis, faq keyword.Set) Score {
	msg := query.Keywords

	var keywordScore float64
	if denom := max(msg.Len(), faq.Len()); denom > 0 {
		keywordScore = float64(msg.IntersectCount(faq)) / float64(denom)
	}

	var contextScore float64
	for _, c := range importantConcepts {
		if msg.Has(c) && faq.Has(c) {
			contextScore += ConceptBonus
		}
	}
	if query.IsShort() {
		for _, c := range importantConcepts {
			if msg.Has(c) {
				contextScore += ShortQueryBonus
				break
			}
		}
	}

	return Score{
		Keyword: keywordScore,
		Context: contextScore,
		Final:   keywordScore*KeywordWeight + contextScore*ContextWeight,
	}
}
