// Package main validates the FAQ catalog and synonym table before they ship,
// and optionally publishes them to R2 for running instances to pick up on
// their next start.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/garyellow/faq-linebot-go/internal/catalog"
	"github.com/garyellow/faq-linebot-go/internal/config"
	"github.com/garyellow/faq-linebot-go/internal/keyword"
	"github.com/garyellow/faq-linebot-go/internal/lineutil"
	"github.com/garyellow/faq-linebot-go/internal/match"
	"github.com/garyellow/faq-linebot-go/internal/r2client"
	"github.com/garyellow/faq-linebot-go/internal/synonym"
)

// CLI flags
var (
	catalogFlag  = flag.String("catalog", "", "Catalog YAML to verify (empty = FAQ_CATALOG_PATH, then embedded)")
	synonymsFlag = flag.String("synonyms", "", "Synonym YAML to verify (empty = FAQ_SYNONYMS_PATH, then embedded)")
	remoteFlag   = flag.Bool("remote", false, "Also check that the R2 objects exist")
	publishFlag  = flag.Bool("publish", false, "Upload the verified files to R2 when every check passes")
)

// Verification results
type verifyResult struct {
	name    string
	passed  bool
	message string
}

// dataFiles is the raw content under verification.
type dataFiles struct {
	catalog  []byte
	synonyms []byte
}

func main() {
	flag.Parse()

	fmt.Println("🔍 FAQ LineBot Go - Data Verification Tool")
	fmt.Println("==========================================")

	cfg, err := config.LoadForMode(config.ToolMode)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	files, err := readFiles(pick(*catalogFlag, cfg.CatalogPath), pick(*synonymsFlag, cfg.SynonymsPath))
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to read data: %v\n", err)
		os.Exit(1)
	}

	results := verifyData(files)

	var client *r2client.Client
	if *remoteFlag || *publishFlag {
		ctx, cancel := context.WithTimeout(context.Background(), config.DataLoad)
		defer cancel()
		client, err = newR2Client(ctx, cfg)
		results = append(results, verifyResult{
			name:    "R2 Client",
			passed:  err == nil,
			message: errMessage(err, "configured for bucket "+cfg.R2.BucketName),
		})
		if err == nil && *remoteFlag {
			results = append(results, verifyRemote(ctx, client, cfg.R2)...)
		}
	}

	failed := printResults(results)
	if failed > 0 {
		os.Exit(1)
	}

	if *publishFlag && client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), config.DataLoad)
		defer cancel()
		if err := publish(ctx, client, cfg.R2, files); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "❌ Publish failed: %v\n", err)
			os.Exit(1)
		}
	}
}

func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// readFiles loads both files; an empty path selects the embedded default.
func readFiles(catalogPath, synonymsPath string) (dataFiles, error) {
	var files dataFiles
	var err error

	files.catalog = catalog.DefaultData()
	if catalogPath != "" {
		if files.catalog, err = catalog.ReadDataFile(catalogPath); err != nil {
			return files, err
		}
	}
	files.synonyms = synonym.DefaultData()
	if synonymsPath != "" {
		if files.synonyms, err = catalog.ReadDataFile(synonymsPath); err != nil {
			return files, err
		}
	}
	return files, nil
}

// verifyData parses both files and checks that every entry is reachable.
func verifyData(files dataFiles) []verifyResult {
	results := []verifyResult{}

	cat, catErr := catalog.Parse(files.catalog)
	results = append(results, verifyResult{
		name:    "Catalog Parses",
		passed:  catErr == nil,
		message: errMessage(catErr, fmt.Sprintf("%d entries", lenOf(cat))),
	})

	syn, synErr := synonym.Parse(files.synonyms)
	results = append(results, verifyResult{
		name:    "Synonym Table Parses",
		passed:  synErr == nil,
		message: errMessage(synErr, fmt.Sprintf("%d groups", synLen(syn))),
	})

	if catErr != nil || synErr != nil {
		return results
	}

	results = append(results, verifyAnswerLength(cat))
	results = append(results, verifySelfMatch(cat, syn))
	return results
}

// verifyAnswerLength checks every answer fits in one LINE text message.
func verifyAnswerLength(cat *catalog.Catalog) verifyResult {
	tooLong := []int{}
	for i, e := range cat.All() {
		if utf8.RuneCountInString(e.Answer) > lineutil.MaxTextMessageLength {
			tooLong = append(tooLong, i)
		}
	}
	if len(tooLong) == 0 {
		return verifyResult{
			name:    "Answer Length",
			passed:  true,
			message: fmt.Sprintf("All answers within %d characters", lineutil.MaxTextMessageLength),
		}
	}
	return verifyResult{
		name:    "Answer Length",
		passed:  false,
		message: fmt.Sprintf("Entries over %d characters: %v", lineutil.MaxTextMessageLength, tooLong),
	}
}

// verifySelfMatch asks each question verbatim and expects its own entry back.
func verifySelfMatch(cat *catalog.Catalog, syn *synonym.Table) verifyResult {
	m := match.NewKeywordMatcher(cat, keyword.NewExpander(syn))
	misses := []string{}
	for i, e := range cat.All() {
		res := m.Match(e.Question)
		if !res.Matched || res.Index != i {
			misses = append(misses, fmt.Sprintf("#%d->%d", i, res.Index))
		}
	}
	if len(misses) == 0 {
		return verifyResult{
			name:    "Questions Self-Match",
			passed:  true,
			message: fmt.Sprintf("All %d questions resolve to their own entry", cat.Len()),
		}
	}
	return verifyResult{
		name:    "Questions Self-Match",
		passed:  false,
		message: fmt.Sprintf("Shadowed or unreachable: %v", misses),
	}
}

func newR2Client(ctx context.Context, cfg *config.Config) (*r2client.Client, error) {
	if err := cfg.R2.Validate(); err != nil {
		return nil, err
	}
	return r2client.New(ctx, r2client.Config{
		Endpoint:    r2client.EndpointForAccount(cfg.R2.AccountID),
		AccessKeyID: cfg.R2.AccessKeyID,
		SecretKey:   cfg.R2.SecretAccessKey,
		BucketName:  cfg.R2.BucketName,
	})
}

func verifyRemote(ctx context.Context, client *r2client.Client, r2 config.R2Config) []verifyResult {
	results := []verifyResult{}
	for _, key := range []string{r2.CatalogKey, r2.SynonymsKey} {
		etag, err := client.HeadObject(ctx, key)
		results = append(results, verifyResult{
			name:    "R2 Object " + key,
			passed:  err == nil,
			message: errMessage(err, "etag "+etag),
		})
	}
	return results
}

func publish(ctx context.Context, client *r2client.Client, r2 config.R2Config, files dataFiles) error {
	uploads := []struct {
		key  string
		data []byte
	}{
		{r2.CatalogKey, files.catalog},
		{r2.SynonymsKey, files.synonyms},
	}
	for _, u := range uploads {
		etag, err := client.Publish(ctx, u.key, u.data, "application/yaml")
		if err != nil {
			return err
		}
		fmt.Printf("📤 Published %s (etag %s)\n", u.key, etag)
	}
	return nil
}

// printResults prints every result and returns the failure count.
func printResults(results []verifyResult) int {
	fmt.Println("\n📊 Verification Results:")
	fmt.Println("========================")

	passedCount := 0
	failedCount := 0
	for _, result := range results {
		status := "❌"
		if result.passed {
			status = "✅"
			passedCount++
		} else {
			failedCount++
		}
		fmt.Printf("%s %s: %s\n", status, result.name, result.message)
	}

	fmt.Printf("\n📈 Summary: %d passed, %d failed\n", passedCount, failedCount)
	return failedCount
}

func errMessage(err error, ok string) string {
	if err != nil {
		return err.Error()
	}
	return ok
}

func lenOf(c *catalog.Catalog) int {
	if c == nil {
		return 0
	}
	return c.Len()
}

func synLen(t *synonym.Table) int {
	if t == nil {
		return 0
	}
	return t.Len()
}
