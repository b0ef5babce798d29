// Package main runs sample questions through the match engine and prints
// which FAQ entry each one resolves to. Useful when tuning the catalog,
// the synonym table or the thresholds.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/garyellow/faq-linebot-go/internal/catalog"
	"github.com/garyellow/faq-linebot-go/internal/config"
	"github.com/garyellow/faq-linebot-go/internal/keyword"
	"github.com/garyellow/faq-linebot-go/internal/logger"
	"github.com/garyellow/faq-linebot-go/internal/match"
	"github.com/garyellow/faq-linebot-go/internal/r2client"
)

// CLI flags
var (
	strategyFlag = flag.String("strategy", "", "Match strategy: keyword or fuzzy (empty = MATCH_STRATEGY)")
	queryFlag    = flag.String("q", "", "Probe a single question instead of the built-in set")
	verboseFlag  = flag.Bool("v", false, "Print the keyword score breakdown of each winner")
	previewFlag  = flag.Int("preview", 100, "Answer preview length in characters")
)

// sampleQueries cover every catalog topic plus a few near misses.
var sampleQueries = []string{
	// password
	"what is the password",
	"how to change my password",
	"ssh asking for password",
	"need help with password",
	// connection
	"connection keeps dropping",
	"tunnel keeps disconnecting",
	"getting connection errors",
	"connection reset error",
	// platform
	"windows localhost issue",
	"tunnel not working on windows",
	"localhost problem windows",
	// security
	"is my data secure",
	"can pinggy see my data",
	"is it encrypted",
	// url
	"url keeps changing",
	"link not permanent",
	"how to get permanent url",
	// general
	"tunnel not working",
	"what platforms are supported",
	"where are the servers located",
	// errors
	"getting errors",
	"tunnel stopped working",
	"connection closed error",
}

func main() {
	flag.Parse()

	cfg, err := config.LoadForMode(config.ToolMode)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	strategy := cfg.MatchStrategy
	if *strategyFlag != "" {
		strategy = strings.ToLower(*strategyFlag)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.DataLoad)
	defer cancel()
	data := newLoader(ctx, cfg, log).Load(ctx)
	log.WithField("catalog_source", data.CatalogSource).
		WithField("synonyms_source", data.SynonymsSource).
		Info("FAQ data loaded")

	matcher, err := match.New(strategy, data.Catalog, keyword.NewExpander(data.Synonyms))
	if err != nil {
		log.WithError(err).Error("Failed to build matcher")
		os.Exit(1)
	}

	queries := sampleQueries
	if *queryFlag != "" {
		queries = []string{*queryFlag}
	}
	matched := probe(os.Stdout, matcher, queries, *verboseFlag, *previewFlag)
	fmt.Printf("\n📈 Summary: %d/%d matched (%s)\n", matched, len(queries), matcher.Name())
}

func newLoader(ctx context.Context, cfg *config.Config, log *logger.Logger) *catalog.Loader {
	loader := &catalog.Loader{
		CatalogPath:  cfg.CatalogPath,
		SynonymsPath: cfg.SynonymsPath,
		Logger:       log,
	}
	if !cfg.R2.Enabled {
		return loader
	}
	client, err := r2client.New(ctx, r2client.Config{
		Endpoint:    r2client.EndpointForAccount(cfg.R2.AccountID),
		AccessKeyID: cfg.R2.AccessKeyID,
		SecretKey:   cfg.R2.SecretAccessKey,
		BucketName:  cfg.R2.BucketName,
	})
	if err != nil {
		log.WithError(err).Warn("R2 client unavailable, using local FAQ data")
		return loader
	}
	loader.Fetcher = client
	loader.CatalogKey = cfg.R2.CatalogKey
	loader.SynonymsKey = cfg.R2.SynonymsKey
	return loader
}

// probe writes one block per query and returns how many matched.
func probe(w io.Writer, m match.Matcher, queries []string, verbose bool, preview int) int {
	km, _ := m.(*match.KeywordMatcher)
	matched := 0

	for _, q := range queries {
		res := m.Match(q)
		_, _ = fmt.Fprintf(w, "Query: %q\n", q)
		if !res.Matched {
			_, _ = fmt.Fprintf(w, "  ❌ no match (best score %.3f)\n\n", res.Score)
			continue
		}
		matched++
		_, _ = fmt.Fprintf(w, "  ✅ #%d %q score=%.3f\n", res.Index, res.Entry.Question, res.Score)
		if verbose && km != nil {
			s := km.Score(q, res.Index)
			_, _ = fmt.Fprintf(w, "     keyword=%.3f context=%.3f final=%.3f threshold=%.2f\n",
				s.Keyword, s.Context, s.Final, km.Threshold(q))
		}
		_, _ = fmt.Fprintf(w, "  %s\n\n", previewText(match.Reply(res), preview))
	}
	return matched
}

func previewText(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
