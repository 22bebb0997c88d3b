package importer

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/sermonrefs/core/errors"
)

var lineRe = regexp.MustCompile(`^(.+?)\.?\s+(\d+):(\d+)\s+(.+)$`)

const noVersesMessage = "No valid verses found. Expected format: 'Book Chapter:Verse Text' per line."

// Lines reads one verse per line in the form "Book Chapter:Verse Text".
// Blank lines, lines that do not match and lines naming an unknown book
// are skipped; it is an error if no line yields a verse.
func (im *Importer) Lines(r io.Reader) (*Result, error) {
	res := &Result{Format: FormatLines}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		m := lineRe.FindStringSubmatch(line)
		if m == nil {
			res.Skipped++
			continue
		}
		book, ok := im.canon.Lookup(m[1])
		if !ok {
			res.Skipped++
			continue
		}
		chapter, _ := strconv.Atoi(m[2])
		v, _ := strconv.Atoi(m[3])
		if chapter <= 0 || v <= 0 {
			res.Skipped++
			continue
		}
		res.Verses = append(res.Verses, verse(book.Name, chapter, v, m[4]))
	}
	if err := sc.Err(); err != nil {
		return nil, &errors.ParseError{Format: string(FormatLines), Message: "read lines", Err: err}
	}

	if len(res.Verses) == 0 {
		return nil, errors.NewParse(string(FormatLines), "", noVersesMessage)
	}
	return res, nil
}
