// Package merge compacts verse lists into ranges.
//
// Merge sorts a copy of its input and folds runs of consecutive verses
// (same book, same chapter, verse numbers n, n+1, ... and the same
// provenance) into one record per run:
//
//	Genesis 1:1, Genesis 1:2, Genesis 1:3  ->  Genesis 1:1-3
package merge

import (
	"fmt"
	"slices"
	"strings"

	"github.com/FocuswithJustin/sermonrefs/core/errors"
	"github.com/FocuswithJustin/sermonrefs/core/scripture"
)

// Order selects how books are ordered before merging.
type Order int

const (
	// Canonical sorts books in biblical order; unknown books follow, by name.
	Canonical Order = iota
	// Lexical sorts books by name.
	Lexical
	// Preserve keeps the input order and only merges neighbours,
	// as an editor does while the user types.
	Preserve
)

func (o Order) String() string {
	switch o {
	case Canonical:
		return "canonical"
	case Lexical:
		return "lexical"
	case Preserve:
		return "preserve"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// ParseOrder parses "canonical", "lexical" or "preserve".
// The empty string is Canonical.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "canonical":
		return Canonical, nil
	case "lexical":
		return Lexical, nil
	case "preserve":
		return Preserve, nil
	}
	return Canonical, &errors.ValidationError{
		Field:   "merge_order",
		Value:   s,
		Message: "must be canonical, lexical or preserve",
	}
}

type options struct {
	order Order
	canon *scripture.Canon
}

// Option configures Merge.
type Option func(*options)

// WithOrder sets the book ordering. The default is Canonical.
func WithOrder(o Order) Option {
	return func(opts *options) {
		opts.order = o
	}
}

// WithCanon sets the canon used for Canonical ordering.
// The default is scripture.DefaultCanon().
func WithCanon(c *scripture.Canon) Option {
	return func(opts *options) {
		opts.canon = c
	}
}

// Merge returns verses sorted and compacted into runs.
// The input is not modified. Every output record has Reference set.
func Merge(verses []scripture.Verse, opts ...Option) []scripture.Verse {
	if len(verses) == 0 {
		return nil
	}

	o := options{order: Canonical}
	for _, opt := range opts {
		opt(&o)
	}
	if o.canon == nil {
		o.canon = scripture.DefaultCanon()
	}

	sorted := slices.Clone(verses)
	switch o.order {
	case Canonical:
		slices.SortStableFunc(sorted, func(a, b scripture.Verse) int {
			if c := o.canon.Order(a.Book) - o.canon.Order(b.Book); c != 0 {
				return c
			}
			return compare(a, b)
		})
	case Lexical:
		slices.SortStableFunc(sorted, compare)
	}

	out := make([]scripture.Verse, 0, len(sorted))
	run := sorted[:1]
	for i := 1; i < len(sorted); i++ {
		if joins(run[len(run)-1], sorted[i]) {
			run = sorted[i-len(run) : i+1]
			continue
		}
		out = append(out, closeRun(run))
		run = sorted[i : i+1]
	}
	out = append(out, closeRun(run))

	return out
}

// compare orders by book name, chapter, verse (absent first),
// then text and provenance so that the order is total.
func compare(a, b scripture.Verse) int {
	if c := strings.Compare(a.Book, b.Book); c != 0 {
		return c
	}
	if c := a.Chapter - b.Chapter; c != 0 {
		return c
	}
	if c := a.Verse.Int() - b.Verse.Int(); c != 0 {
		return c
	}
	if c := lastVerse(a) - lastVerse(b); c != 0 {
		return c
	}
	if c := strings.Compare(string(a.SourceType), string(b.SourceType)); c != 0 {
		return c
	}
	if a.AddedViaTag != b.AddedViaTag {
		if !a.AddedViaTag {
			return -1
		}
		return 1
	}
	return strings.Compare(a.Text, b.Text)
}

// joins reports whether next continues the run ending in last.
func joins(last, next scripture.Verse) bool {
	nv, ok := next.Verse.Get()
	if !ok || !last.Verse.IsSet() {
		return false
	}
	return last.Book == next.Book &&
		last.Chapter == next.Chapter &&
		last.SameProvenance(next) &&
		nv == lastVerse(last)+1
}

// lastVerse is the final verse a record covers: its EndVerse if it is
// already a range, otherwise its Verse.
func lastVerse(v scripture.Verse) int {
	if ev, ok := v.EndVerse.Get(); ok {
		return ev
	}
	return v.Verse.Int()
}

func closeRun(run []scripture.Verse) scripture.Verse {
	first := run[0]
	if len(run) == 1 {
		first.Reference = first.FormatReference()
		return first
	}

	texts := make([]string, 0, len(run))
	for _, v := range run {
		if v.Text != "" {
			texts = append(texts, v.Text)
		}
	}

	merged := scripture.Verse{
		Book:        first.Book,
		Chapter:     first.Chapter,
		Verse:       first.Verse,
		Text:        strings.Join(texts, " "),
		Translation: first.Translation,
		AddedViaTag: first.AddedViaTag,
		SourceType:  first.SourceType,
	}
	if end := lastVerse(run[len(run)-1]); end != first.Verse.Int() {
		merged.EndVerse = scripture.Some(end)
	}
	merged.Reference = merged.FormatReference()
	return merged
}
