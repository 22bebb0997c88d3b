// Package importer reads Bible text from plain-text lines, OSIS XML and
// Zefania XML into verse records with canonical book names.
package importer

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/FocuswithJustin/sermonrefs/core/errors"
	"github.com/FocuswithJustin/sermonrefs/core/scripture"
	"github.com/FocuswithJustin/sermonrefs/internal/logging"
)

// Format names an import format.
type Format string

// Supported formats.
const (
	FormatLines   Format = "lines"
	FormatOSIS    Format = "osis"
	FormatZefania Format = "zefania"
)

// Formats lists the supported formats.
var Formats = []Format{FormatLines, FormatOSIS, FormatZefania}

// ParseFormat validates a format name. An empty name is accepted as
// "detect from content" and returns "".
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "", FormatLines, FormatOSIS, FormatZefania:
		return f, nil
	}
	return "", &errors.ValidationError{Field: "format", Value: s, Message: "must be lines, osis or zefania"}
}

// MaxInputSize bounds how much an import reads.
const MaxInputSize = 64 << 20

// Result is the outcome of an import.
type Result struct {
	Format      Format            `json:"format"`
	Translation string            `json:"translation"`
	Verses      []scripture.Verse `json:"verses"`
	// Skipped counts lines or elements that named no known book.
	Skipped int `json:"skipped"`
}

// Importer resolves book names against a canon. It is safe for concurrent use.
type Importer struct {
	canon *scripture.Canon
}

// New returns an Importer for canon, or the default canon when nil.
func New(canon *scripture.Canon) *Importer {
	if canon == nil {
		canon = scripture.DefaultCanon()
	}
	return &Importer{canon: canon}
}

// Import reads r in the given format, detecting it when format is empty.
// When translation is empty the XML formats fall back to the work
// identifier recorded in the document.
func (im *Importer) Import(ctx context.Context, format Format, r io.Reader, translation string) (*Result, error) {
	start := time.Now()

	data, err := io.ReadAll(io.LimitReader(r, MaxInputSize+1))
	if err != nil {
		return nil, errors.NewIO("read import", "", err)
	}
	if len(data) > MaxInputSize {
		return nil, errors.NewValidation("input", "exceeds maximum import size")
	}
	if format == "" {
		format = Detect(data)
	}

	var res *Result
	switch format {
	case FormatLines:
		res, err = im.Lines(bytes.NewReader(data))
	case FormatOSIS:
		res, err = im.OSIS(data)
	case FormatZefania:
		res, err = im.Zefania(data)
	default:
		return nil, errors.NewUnsupported("import format "+string(format), "use lines, osis or zefania")
	}
	if err != nil {
		return nil, err
	}

	if t := strings.TrimSpace(translation); t != "" {
		res.Translation = t
	}
	for i := range res.Verses {
		res.Verses[i].Translation = res.Translation
	}

	logging.ImportEvent(ctx, string(format), res.Translation, len(res.Verses), time.Since(start), "skipped", res.Skipped)
	return res, nil
}

// Detect guesses the format of data from its root element.
func Detect(data []byte) Format {
	head := data
	if len(head) > 4096 {
		head = head[:4096]
	}
	switch {
	case bytes.Contains(head, []byte("<osis")):
		return FormatOSIS
	case bytes.Contains(head, []byte("<XMLBIBLE")):
		return FormatZefania
	}
	return FormatLines
}

// verse builds a manual verse record.
func verse(book string, chapter, v int, text string) scripture.Verse {
	return scripture.Verse{
		Book:       book,
		Chapter:    chapter,
		Verse:      scripture.Some(v),
		Text:       normalizeSpace(text),
		SourceType: scripture.SourceManual,
	}
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
