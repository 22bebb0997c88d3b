package scripture

import (
	"strconv"
	"strings"
)

// Reference is a scripture citation resolved to a canonical book.
type Reference struct {
	// Book is the canonical book name (e.g., "John", "1 Corinthians").
	Book string `json:"book"`

	// Chapter is the 1-indexed chapter number.
	Chapter int `json:"chapter"`

	// Verse is absent for chapter-only references.
	Verse Num `json:"verse,omitzero"`

	// EndChapter is set only for ranges that cross into a later chapter.
	EndChapter Num `json:"endChapter,omitzero"`

	// EndVerse is the last verse of a range.
	EndVerse Num `json:"endVerse,omitzero"`

	// Reference is the display form (e.g., "Matthew 5:3-12").
	Reference string `json:"reference"`
}

// NewReference builds a Reference and its display string from parsed numbers.
// Zero means absent. A same-chapter range passes endChapter 0 (or equal to chapter);
// a cross-chapter range passes both endChapter and endVerse.
// Ranges that do not move forward are dropped, and chapter-only references
// never carry a range.
func NewReference(book string, chapter, verse, endChapter, endVerse int) Reference {
	ref := Reference{
		Book:    book,
		Chapter: chapter,
		Verse:   Some(verse),
	}

	if ref.Verse.IsSet() {
		if endChapter == chapter {
			endChapter = 0
		}
		switch {
		case endChapter > chapter && endVerse > 0:
			ref.EndChapter = Some(endChapter)
			ref.EndVerse = Some(endVerse)
		case endChapter == 0 && endVerse > verse:
			ref.EndVerse = Some(endVerse)
		}
	}

	ref.Reference = Format(ref.Book, ref.Chapter, ref.Verse, ref.EndChapter, ref.EndVerse)
	return ref
}

// Format renders a citation:
//
//	Book C          chapter-only
//	Book C:V        single verse
//	Book C:V-EV     range within a chapter
//	Book C:V-EC:EV  range across chapters
func Format(book string, chapter int, verse, endChapter, endVerse Num) string {
	var sb strings.Builder
	sb.WriteString(book)
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(chapter))

	v, ok := verse.Get()
	if !ok {
		return sb.String()
	}
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(v))

	ec, hasEC := endChapter.Get()
	ev, hasEV := endVerse.Get()
	switch {
	case hasEC && hasEV && ec != chapter:
		sb.WriteByte('-')
		sb.WriteString(strconv.Itoa(ec))
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(ev))
	case hasEV && ev != v:
		sb.WriteByte('-')
		sb.WriteString(strconv.Itoa(ev))
	}

	return sb.String()
}

// String returns the display form.
func (r Reference) String() string {
	if r.Reference != "" {
		return r.Reference
	}
	return Format(r.Book, r.Chapter, r.Verse, r.EndChapter, r.EndVerse)
}

// IsChapterOnly reports whether the reference names a whole chapter.
func (r Reference) IsChapterOnly() bool {
	return !r.Verse.IsSet()
}

// IsRange reports whether the reference spans more than one verse.
func (r Reference) IsRange() bool {
	return r.EndVerse.IsSet()
}

// Contains reports whether the verse chapter:verse of book falls inside r.
func (r Reference) Contains(book string, chapter, verse int) bool {
	if r.Book != book {
		return false
	}

	lastChapter := r.Chapter
	if ec, ok := r.EndChapter.Get(); ok {
		lastChapter = ec
	}
	if chapter < r.Chapter || chapter > lastChapter {
		return false
	}

	// Chapter-only reference contains all verses in that chapter
	v, ok := r.Verse.Get()
	if !ok {
		return true
	}

	end := v
	if ev, ok := r.EndVerse.Get(); ok {
		end = ev
	}

	switch {
	case r.Chapter == lastChapter:
		return verse >= v && verse <= end
	case chapter == r.Chapter:
		return verse >= v
	case chapter == lastChapter:
		return verse <= end
	default:
		return true
	}
}
