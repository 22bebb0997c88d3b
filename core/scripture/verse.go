package scripture

// SourceType records how a verse was attached to a sermon.
type SourceType string

// Source type constants.
const (
	SourceManual SourceType = "manual"
	SourceTag    SourceType = "tag"
)

// Verse is a resolved verse (or chapter) record, optionally merged into a range.
// Field names follow the document-store layout so records round-trip unchanged.
type Verse struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`

	// Verse is absent for chapter-level records.
	Verse Num `json:"verse,omitzero"`

	// EndVerse is set only on records produced by merging a run of verses.
	EndVerse Num `json:"endVerse,omitzero"`

	Text        string `json:"text,omitempty"`
	Translation string `json:"translation,omitempty"`

	// Reference is the display string, filled in by the merger.
	Reference string `json:"reference,omitempty"`

	// Provenance. Records that differ here never merge.
	AddedViaTag bool       `json:"addedViaTag,omitempty"`
	SourceType  SourceType `json:"sourceType,omitempty"`
}

// FormatReference renders the verse's citation using the shared policy.
func (v Verse) FormatReference() string {
	return Format(v.Book, v.Chapter, v.Verse, Num{}, v.EndVerse)
}

// SameProvenance reports whether v and o were added the same way.
func (v Verse) SameProvenance(o Verse) bool {
	return v.AddedViaTag == o.AddedViaTag && v.SourceType == o.SourceType
}
