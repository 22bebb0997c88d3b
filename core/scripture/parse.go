package scripture

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/sermonrefs/core/errors"
)

// referenceGrammar is the participle grammar for a single citation.
// Examples: "John 3:16", "1 Cor 13:4-7", "Gen.1.1", "Ps 23", "Gen 1:31-2:3"
//
type referenceGrammar struct {
	Book       string `parser:"@Book"`
	Chapter    int    `parser:"@Number"`
	Verse      *int   `parser:"( Sep @Number"`
	RangeStart *int   `parser:"  ( Dash @Number"`
	RangeEnd   *int   `parser:"    ( Sep @Number )? )? )?"`
}

// referenceLexer tokenizes a single citation.
// Book names may carry an ordinal prefix ("1", "1st"), internal words
// ("Song of Solomon") and a trailing period ("Gen.").
var referenceLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Book", Pattern: `(?:[1-4](?:st|nd|rd|th)?\s*)?[A-Za-z]+\.?(?:\s+[A-Za-z]+\.?)*`},
	{Name: "Number", Pattern: `\d+`},
	{Name: "Sep", Pattern: `[:.]`},
	{Name: "Dash", Pattern: `[-–—]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var referenceParser = participle.MustBuild[referenceGrammar](
	participle.Lexer(referenceLexer),
	participle.Elide("Whitespace"),
)

// ParseReference parses one citation using the default canon.
func ParseReference(s string) (Reference, error) {
	return DefaultCanon().ParseReference(s)
}

// ParseReference parses one citation such as "1 Cor 13:4-7" or "Gen.1.1".
// The book is resolved through the canon's aliases; an unknown book is a
// validation error and malformed input is a parse error.
func (c *Canon) ParseReference(s string) (Reference, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Reference{}, errors.NewValidation("reference", "empty reference string")
	}

	parsed, err := referenceParser.ParseString("", s)
	if err != nil {
		return Reference{}, errors.NewParse("reference", "", fmt.Sprintf("%q: %v", s, err))
	}

	book, ok := c.Lookup(parsed.Book)
	if !ok {
		return Reference{}, &errors.ValidationError{
			Field:   "book",
			Value:   parsed.Book,
			Message: fmt.Sprintf("unknown book %q", strings.TrimSpace(parsed.Book)),
		}
	}
	if parsed.Chapter <= 0 {
		return Reference{}, errors.NewValidation("chapter", "chapter must be positive")
	}

	var verse, endChapter, endVerse int
	if parsed.Verse != nil {
		verse = *parsed.Verse
		if verse <= 0 {
			return Reference{}, errors.NewValidation("verse", "verse must be positive")
		}
	}
	if parsed.RangeStart != nil {
		if parsed.RangeEnd != nil {
			endChapter, endVerse = *parsed.RangeStart, *parsed.RangeEnd
		} else {
			endVerse = *parsed.RangeStart
		}
	}

	return NewReference(book.Name, parsed.Chapter, verse, endChapter, endVerse), nil
}
