package catalog

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	domerrors "github.com/garyellow/faq-linebot-go/internal/errors"
	"github.com/garyellow/faq-linebot-go/internal/logger"
	"github.com/garyellow/faq-linebot-go/internal/synonym"
)

// Fetcher downloads a whole object by key. *r2client.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// Data source names reported by Loader.
const (
	SourceEmbedded = "embedded"
	SourceFile     = "file"
	SourceR2       = "r2"
)

// Bundle is the data the match engine is built from.
type Bundle struct {
	Catalog        *Catalog
	Synonyms       *synonym.Table
	CatalogSource  string
	SynonymsSource string
}

// Loader resolves the catalog and synonym table from, in order of preference,
// R2 objects, local files, and the embedded defaults. A source that fails is
// logged and skipped.
type Loader struct {
	Fetcher      Fetcher // nil disables R2
	CatalogKey   string
	SynonymsKey  string
	CatalogPath  string
	SynonymsPath string
	Logger       *logger.Logger
}

// Load never fails: the embedded data is the last resort.
func (l *Loader) Load(ctx context.Context) Bundle {
	var (
		remoteCatalog  *Catalog
		remoteSynonyms *synonym.Table
	)

	if l.Fetcher != nil && (l.CatalogKey != "" || l.SynonymsKey != "") {
		g, gctx := errgroup.WithContext(ctx)
		if l.CatalogKey != "" {
			g.Go(func() error {
				c, err := fetchAndParse(gctx, l.Fetcher, l.CatalogKey, Parse)
				if err != nil {
					l.skip(err, "key", l.CatalogKey, "Failed to load catalog from R2")
					return nil
				}
				remoteCatalog = c
				return nil
			})
		}
		if l.SynonymsKey != "" {
			g.Go(func() error {
				t, err := fetchAndParse(gctx, l.Fetcher, l.SynonymsKey, synonym.Parse)
				if err != nil {
					l.skip(err, "key", l.SynonymsKey, "Failed to load synonyms from R2")
					return nil
				}
				remoteSynonyms = t
				return nil
			})
		}
		_ = g.Wait()
	}

	b := Bundle{Catalog: remoteCatalog, Synonyms: remoteSynonyms}
	if b.Catalog != nil {
		b.CatalogSource = SourceR2
	}
	if b.Synonyms != nil {
		b.SynonymsSource = SourceR2
	}

	if b.Catalog == nil && l.CatalogPath != "" {
		c, err := LoadFile(l.CatalogPath)
		if err != nil {
			l.skip(err, "path", l.CatalogPath, "Failed to load catalog file")
		} else {
			b.Catalog, b.CatalogSource = c, SourceFile
		}
	}
	if b.Synonyms == nil && l.SynonymsPath != "" {
		data, err := ReadDataFile(l.SynonymsPath)
		if err == nil {
			b.Synonyms, err = synonym.Parse(data)
		}
		if err != nil {
			l.skip(err, "path", l.SynonymsPath, "Failed to load synonyms file")
		} else {
			b.SynonymsSource = SourceFile
		}
	}

	if b.Catalog == nil {
		b.Catalog, b.CatalogSource = Default(), SourceEmbedded
	}
	if b.Synonyms == nil {
		b.Synonyms, b.SynonymsSource = synonym.Default(), SourceEmbedded
	}
	return b
}

func (l *Loader) log() *logger.Logger {
	if l.Logger == nil {
		return logger.Discard()
	}
	return l.Logger.WithModule("catalog")
}

// skip logs a source that could not be used. A missing object is expected
// before the first publish and logs at Info.
func (l *Loader) skip(err error, field, value, msg string) {
	entry := l.log().WithError(err).WithField(field, value)
	if domerrors.IsNotFound(err) {
		entry.Info(msg)
		return
	}
	entry.Warn(msg)
}

func fetchAndParse[T any](ctx context.Context, f Fetcher, key string, parse func([]byte) (T, error)) (T, error) {
	var zero T
	data, err := f.Fetch(ctx, key)
	if err != nil {
		return zero, domerrors.Wrap("catalog", "fetch", err)
	}
	v, err := parse(data)
	if err != nil {
		return zero, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}
