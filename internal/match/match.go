// Package match selects the FAQ entry that best answers a chat message.
//
// Two strategies share the Matcher contract: KeywordMatcher scores synonym-
// expanded keyword overlap, FuzzyMatcher runs an approximate substring search
// over the questions. Both are pure and safe for concurrent use.
package match

import (
	"fmt"

	"github.com/garyellow/faq-linebot-go/internal/catalog"
	domerrors "github.com/garyellow/faq-linebot-go/internal/errors"
	"github.com/garyellow/faq-linebot-go/internal/keyword"
)

// Strategy names accepted by New.
const (
	StrategyKeyword = "keyword"
	StrategyFuzzy   = "fuzzy"
)

// NoMatchReply is sent when no entry clears the threshold.
const NoMatchReply = "I couldn't find a matching answer. Please try rephrasing your question or contact support!"

// Result is the outcome of matching one message.
// Score is the best score seen even when Matched is false.
type Result struct {
	Entry   *catalog.Entry
	Index   int
	Score   float64
	Matched bool
}

func noMatch(score float64) Result {
	return Result{Index: -1, Score: score}
}

// Matcher maps a message to a catalog entry.
type Matcher interface {
	Match(message string) Result
	Name() string
}

// New builds the matcher for strategy.
func New(strategy string, cat *catalog.Catalog, exp *keyword.Expander) (Matcher, error) {
	switch strategy {
	case StrategyKeyword, "":
		return NewKeywordMatcher(cat, exp), nil
	case StrategyFuzzy:
		return NewFuzzyMatcher(cat), nil
	default:
		return nil, domerrors.NewValidationError("strategy", fmt.Sprintf("unknown match strategy %q", strategy))
	}
}

// Reply returns the answer text for r.
func Reply(r Result) string {
	if !r.Matched || r.Entry == nil {
		return NoMatchReply
	}
	return r.Entry.Answer
}
