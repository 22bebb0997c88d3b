// Package resolver turns free text into merged verse records: it extracts
// the references, looks each one up in a verse source and merges the results.
package resolver

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FocuswithJustin/sermonrefs/core/errors"
	"github.com/FocuswithJustin/sermonrefs/core/extract"
	"github.com/FocuswithJustin/sermonrefs/core/merge"
	"github.com/FocuswithJustin/sermonrefs/core/scripture"
	"github.com/FocuswithJustin/sermonrefs/internal/logging"
)

// VerseSource looks up the stored verses a reference covers.
// *store.Store satisfies it.
type VerseSource interface {
	Lookup(ctx context.Context, translation string, ref scripture.Reference) ([]scripture.Verse, error)
}

// DefaultConcurrency bounds parallel lookups.
const DefaultConcurrency = 8

// Resolver is safe for concurrent use once built.
type Resolver struct {
	src         VerseSource
	extractor   *extract.Extractor
	mergeOpts   []merge.Option
	concurrency int
	source      scripture.SourceType
	viaTag      bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithExtractor replaces the default extractor.
func WithExtractor(e *extract.Extractor) Option {
	return func(r *Resolver) { r.extractor = e }
}

// WithMergeOptions sets the options passed to merge.Merge.
func WithMergeOptions(opts ...merge.Option) Option {
	return func(r *Resolver) { r.mergeOpts = opts }
}

// WithConcurrency sets how many lookups run at once. Values below 1 mean 1.
func WithConcurrency(n int) Option {
	return func(r *Resolver) { r.concurrency = max(n, 1) }
}

// WithProvenance stamps resolved verses with how they were attached.
func WithProvenance(source scripture.SourceType, addedViaTag bool) Option {
	return func(r *Resolver) {
		r.source = source
		r.viaTag = addedViaTag
	}
}

// New returns a Resolver reading from src.
func New(src VerseSource, opts ...Option) *Resolver {
	r := &Resolver{
		src:         src,
		extractor:   extract.Default(),
		concurrency: DefaultConcurrency,
		source:      scripture.SourceManual,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result is the outcome of resolving one text.
type Result struct {
	Translation string                `json:"translation"`
	References  []scripture.Reference `json:"references"`
	Verses      []scripture.Verse     `json:"verses"`
	// Missing lists references with no stored verse.
	Missing []scripture.Reference `json:"missing,omitempty"`
}

// Resolve extracts references from text, looks them up under translation
// and merges the verses found. Lookups run concurrently; the first lookup
// error cancels the rest and is returned.
func (r *Resolver) Resolve(ctx context.Context, text, translation string) (*Result, error) {
	translation = strings.TrimSpace(translation)
	if translation == "" {
		return nil, errors.NewValidation("translation", "must not be empty")
	}
	start := time.Now()

	refs := r.extractor.Extract(text)
	found := make([][]scripture.Verse, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			verses, err := r.src.Lookup(gctx, translation, ref)
			if err != nil {
				return errors.Wrapf(err, "resolve %s", ref)
			}
			found[i] = verses
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Translation: translation, References: refs}
	var all []scripture.Verse
	seen := make(map[verseKey]bool)
	for i, verses := range found {
		if len(verses) == 0 {
			res.Missing = append(res.Missing, refs[i])
			continue
		}
		for _, v := range verses {
			// Overlapping references ("John 3:16" and "John 3:16-18") share rows.
			k := verseKey{v.Book, v.Chapter, v.Verse.Int()}
			if seen[k] {
				continue
			}
			seen[k] = true
			v.Translation = translation
			v.SourceType = r.source
			v.AddedViaTag = r.viaTag
			all = append(all, v)
		}
	}
	res.Verses = merge.Merge(all, r.mergeOpts...)

	logging.DebugContext(ctx, "resolve",
		"translation", translation,
		"references", len(refs),
		"verses", len(all),
		"merged", len(res.Verses),
		"missing", len(res.Missing),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

type verseKey struct {
	book    string
	chapter int
	verse   int
}
