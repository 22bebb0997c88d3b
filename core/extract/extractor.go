// Package extract finds scripture citations in free text.
//
// An Extractor scans text once. At each book name it tries the verse form
// ("John 3:16", "Matt 5:3-12", "Gen 1:31-2:3") before the chapter-only form
// ("Ps 23"), so a citation is never reported twice and a number followed by
// a colon is never a chapter-only hit.
//
//	refs := extract.Default().Extract("Remember John 3:16 and also Romans 8:28-30.")
//	// refs[0].Reference == "John 3:16", refs[1].Reference == "Romans 8:28-30"
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/FocuswithJustin/sermonrefs/core/scripture"
)

// Extractor scans text for citations of the books in its canon.
// It is immutable and safe for concurrent use.
type Extractor struct {
	canon   *scripture.Canon
	pattern *regexp.Regexp
}

// Match is a citation found in text, with its byte span.
type Match struct {
	scripture.Reference
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"` // source text of the span
}

// New builds an Extractor for canon.
func New(canon *scripture.Canon) *Extractor {
	return &Extractor{
		canon:   canon,
		pattern: buildPattern(canon),
	}
}

var defaultExtractor = sync.OnceValue(func() *Extractor {
	return New(scripture.DefaultCanon())
})

// Default returns the shared Extractor for the built-in canon.
func Default() *Extractor {
	return defaultExtractor()
}

// Extract is shorthand for Default().Extract(text).
func Extract(text string) []scripture.Reference {
	return Default().Extract(text)
}

// Canon returns the canon the extractor resolves books against.
func (e *Extractor) Canon() *scripture.Canon {
	return e.canon
}

// Extract returns the citations in text in order of appearance.
// It returns nil when there are none.
func (e *Extractor) Extract(text string) []scripture.Reference {
	matches := e.Annotate(text)
	if len(matches) == 0 {
		return nil
	}
	refs := make([]scripture.Reference, len(matches))
	for i, m := range matches {
		refs[i] = m.Reference
	}
	return refs
}

// Annotate returns the citations in text with their byte spans.
// Spans never overlap and are in increasing order.
func (e *Extractor) Annotate(text string) []Match {
	var out []Match

	pos := 0
	for pos < len(text) {
		loc := e.pattern.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += pos
			}
		}

		// \b is evaluated against the slice; recheck it against the full text.
		if loc[0] > 0 && isWordByte(text[loc[0]-1]) {
			_, size := utf8.DecodeRuneInString(text[loc[0]:])
			pos = loc[0] + size
			continue
		}

		m, ok := e.match(text, loc)
		if !ok {
			// The numbers after a rejected book may still start a
			// citation ("so 1 John 3:16"), so resume after the book name.
			pos = loc[2*groupBook+1]
			continue
		}
		out = append(out, m)
		pos = loc[1]
	}

	return out
}

// match validates one pattern hit and converts it to a Match.
func (e *Extractor) match(text string, loc []int) (Match, bool) {
	group := func(g int) string {
		if loc[2*g] < 0 {
			return ""
		}
		return text[loc[2*g]:loc[2*g+1]]
	}

	bookText := group(groupBook)
	book, ok := e.canon.Lookup(bookText)
	if !ok {
		return Match{}, false
	}

	chapter, ok := positive(group(groupChapter))
	if !ok {
		return Match{}, false
	}

	end := loc[1]
	verseText := group(groupVerse)
	verse, verseOK := positive(verseText)

	if !verseOK {
		// Chapter-only. A zero verse cites the chapter ("Genesis 1:0").
		// "John 3:" with no verse digits is not a citation.
		if verseText == "" && end < len(text) && text[end] == ':' {
			return Match{}, false
		}
		// The chapter must be set off from the book: "Ps 5", not "PS5".
		if loc[2*groupBook+1] == loc[2*groupChapter] {
			return Match{}, false
		}
		// Ambiguous words need a period: "Is. 53", not "is 53".
		if ambiguousAliases[strings.ToLower(bookText)] && group(groupPeriod) == "" {
			return Match{}, false
		}
		return Match{
			Reference: scripture.NewReference(book.Name, chapter, 0, 0, 0),
			Start:     loc[0],
			End:       end,
			Text:      text[loc[0]:end],
		}, true
	}

	// Unusable range ends (zero, overflow, backwards) leave a single verse;
	// NewReference drops them.
	var endChapter, endVerse int
	if a := group(groupRangeA); a != "" {
		n, _ := positive(a)
		if b := group(groupRangeB); b != "" {
			endChapter = n
			endVerse, _ = positive(b)
		} else {
			endVerse = n
		}
	}

	return Match{
		Reference: scripture.NewReference(book.Name, chapter, verse, endChapter, endVerse),
		Start:     loc[0],
		End:       end,
		Text:      text[loc[0]:end],
	}, true
}

func positive(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
