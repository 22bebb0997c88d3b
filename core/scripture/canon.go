package scripture

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// UnknownOrder is the sort position of books the canon does not know.
const UnknownOrder = 999

// Canon is an immutable book table with alias resolution.
// It is safe for concurrent use.
type Canon struct {
	books []Book
	byKey map[string]int // normalized name/alias/OSIS ID -> index into books
}

// NewCanon builds a Canon from books in canonical order.
// It returns an error if two books claim the same name or alias.
func NewCanon(books []Book) (*Canon, error) {
	c := &Canon{
		books: slices.Clone(books),
		byKey: make(map[string]int, len(books)*8),
	}

	for i, b := range c.books {
		if b.Name == "" {
			return nil, fmt.Errorf("book %d has no name", i)
		}
		keys := append([]string{b.Name, b.OSIS}, b.Aliases...)
		for _, k := range keys {
			nk := normalizeKey(k)
			if nk == "" {
				continue
			}
			if prev, ok := c.byKey[nk]; ok && prev != i {
				return nil, fmt.Errorf("alias %q maps to both %q and %q", k, c.books[prev].Name, b.Name)
			}
			c.byKey[nk] = i
		}
	}

	return c, nil
}

// MustNewCanon is like NewCanon but panics on error.
// It is intended for package-level tables.
func MustNewCanon(books []Book) *Canon {
	c, err := NewCanon(books)
	if err != nil {
		panic(fmt.Sprintf("scripture: %v", err))
	}
	return c
}

var defaultCanon = sync.OnceValue(func() *Canon {
	return MustNewCanon(defaultBooks)
})

// DefaultCanon returns the shared built-in canon.
func DefaultCanon() *Canon {
	return defaultCanon()
}

// normalizeKey lowercases s and drops whitespace and periods,
// so "1 Cor.", "1cor" and "1 COR" share a key.
func normalizeKey(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '.' {
			continue
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}

// Books returns every book in table order.
func (c *Canon) Books() []Book {
	return slices.Clone(c.books)
}

// Canonical returns the names of the canonical books in biblical order.
func (c *Canon) Canonical() []string {
	var names []string
	for _, b := range c.books {
		if b.Canonical {
			names = append(names, b.Name)
		}
	}
	return names
}

// ExtraCanonical returns the names of the extra-canonical books in table order.
func (c *Canon) ExtraCanonical() []string {
	var names []string
	for _, b := range c.books {
		if !b.Canonical {
			names = append(names, b.Name)
		}
	}
	return names
}

// Lookup resolves a book name, alias or OSIS ID.
// Matching ignores case, whitespace and periods.
func (c *Canon) Lookup(token string) (Book, bool) {
	i, ok := c.byKey[normalizeKey(token)]
	if !ok {
		return Book{}, false
	}
	return c.books[i], true
}

// Resolve returns the canonical name for token, or token trimmed if unknown.
func (c *Canon) Resolve(token string) string {
	if b, ok := c.Lookup(token); ok {
		return b.Name
	}
	return strings.TrimSpace(token)
}

// ByNumber returns the n-th book (1-based) of the table.
func (c *Canon) ByNumber(n int) (Book, bool) {
	if n < 1 || n > len(c.books) {
		return Book{}, false
	}
	return c.books[n-1], true
}

// Order returns the 0-based position of a book in table order,
// or UnknownOrder for books the canon cannot resolve.
func (c *Canon) Order(name string) int {
	i, ok := c.byKey[normalizeKey(name)]
	if !ok {
		return UnknownOrder
	}
	return i
}

// IsCanonical reports whether name resolves to a canonical book.
func (c *Canon) IsCanonical(name string) bool {
	b, ok := c.Lookup(name)
	return ok && b.Canonical
}

// SplitByCanon partitions names into canonical books sorted in biblical order
// and everything else sorted alphabetically.
func (c *Canon) SplitByCanon(names []string) (canonical, extra []string) {
	for _, n := range names {
		if c.IsCanonical(n) {
			canonical = append(canonical, n)
		} else {
			extra = append(extra, n)
		}
	}
	sort.SliceStable(canonical, func(i, j int) bool {
		return c.Order(canonical[i]) < c.Order(canonical[j])
	})
	sort.Strings(extra)
	return canonical, extra
}

// Abbrev returns the display abbreviation for a book (e.g., "Gen.", "1 Cor.").
// Unknown books are shortened to their first four characters plus a period.
func (c *Canon) Abbrev(name string) string {
	if b, ok := c.Lookup(name); ok {
		return b.Abbrev
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	r := []rune(titleCase(name))
	if len(r) > 4 {
		r = r[:4]
	}
	return string(r) + "."
}

// FullName returns the canonical display name for a book,
// or the input in title case if it is unknown.
func (c *Canon) FullName(name string) string {
	if b, ok := c.Lookup(name); ok {
		return b.Name
	}
	return titleCase(strings.TrimSpace(name))
}

// Names returns every name, alias and OSIS ID the canon resolves, paired with its book.
// The result is ordered by book, then by declaration.
func (c *Canon) Names() []NameEntry {
	var out []NameEntry
	for _, b := range c.books {
		seen := make(map[string]bool)
		for _, n := range append([]string{b.Name, b.OSIS}, b.Aliases...) {
			k := normalizeKey(n)
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, NameEntry{Name: strings.ToLower(n), Book: b.Name})
		}
	}
	return out
}

// NameEntry is one resolvable spelling of a book.
type NameEntry struct {
	Name string // lowercase spelling as declared
	Book string // canonical book name
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		if len(r) > 0 && unicode.IsLetter(r[0]) {
			r[0] = unicode.ToUpper(r[0])
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
