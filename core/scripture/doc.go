// Package scripture holds the book canon and the value types shared by the
// reference extractor, the verse merger and the verse store.
//
// # Canon
//
// A Canon maps every canonical and extra-canonical book to its aliases
// (abbreviations, roman-numeral and ordinal forms, OSIS IDs). It is built
// once and shared read-only:
//
//	canon := scripture.DefaultCanon()
//	book, ok := canon.Lookup("1 cor.")   // book.Name == "1 Corinthians"
//
// # References and verses
//
// Reference is extractor output; Verse is a resolved verse record that the
// merger compacts into ranges. Both use Num for optional chapter/verse
// numbers and Format for display strings:
//
//	Genesis 1        chapter-only
//	John 3:16        single verse
//	Matthew 5:3-12   range within a chapter
//	Genesis 1:31-2:3 range across chapters
package scripture
