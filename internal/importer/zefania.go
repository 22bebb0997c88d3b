package importer

import (
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/sermonrefs/core/errors"
	"github.com/FocuswithJustin/sermonrefs/core/scripture"
)

var (
	zefBookExpr    = xpath.MustCompile(`/XMLBIBLE/BIBLEBOOK`)
	zefChapterExpr = xpath.MustCompile(`CHAPTER`)
	zefVerseExpr   = xpath.MustCompile(`VERS`)
	zefNameExpr    = xpath.MustCompile(`string(/XMLBIBLE/@biblename)`)
	zefIDExpr      = xpath.MustCompile(`string(/XMLBIBLE/INFORMATION/identifier)`)

	zefSkip = map[string]bool{"NOTE": true}
)

// protestantBooks is the count of books Zefania numbers 1 through 66 in
// canonical order.
const protestantBooks = 66

// Zefania reads verses from a Zefania XML Bible
// (XMLBIBLE/BIBLEBOOK/CHAPTER/VERS). Books are identified by bname, falling
// back to bnumber for the 66 canonical books.
func (im *Importer) Zefania(data []byte) (*Result, error) {
	doc, err := parseXML(FormatZefania, data)
	if err != nil {
		return nil, err
	}

	res := &Result{Format: FormatZefania, Translation: queryString(doc, zefIDExpr)}
	if res.Translation == "" {
		res.Translation = queryString(doc, zefNameExpr)
	}

	for _, bookNode := range queryAll(doc, zefBookExpr) {
		book, ok := im.zefaniaBook(bookNode)
		if !ok {
			res.Skipped++
			continue
		}
		for _, ch := range queryAll(bookNode, zefChapterExpr) {
			chapter, err := strconv.Atoi(strings.TrimSpace(ch.SelectAttr("cnumber")))
			if err != nil || chapter <= 0 {
				res.Skipped++
				continue
			}
			for _, vs := range queryAll(ch, zefVerseExpr) {
				v, err := strconv.Atoi(strings.TrimSpace(vs.SelectAttr("vnumber")))
				text := textOf(vs, zefSkip)
				if err != nil || v <= 0 || text == "" {
					res.Skipped++
					continue
				}
				res.Verses = append(res.Verses, verse(book.Name, chapter, v, text))
			}
		}
	}

	if len(res.Verses) == 0 {
		return nil, errors.NewParse(string(FormatZefania), "", "no verses found")
	}
	return res, nil
}

func (im *Importer) zefaniaBook(n *xmlquery.Node) (scripture.Book, bool) {
	for _, attr := range []string{"bname", "bsname"} {
		if name := n.SelectAttr(attr); name != "" {
			if b, ok := im.canon.Lookup(name); ok {
				return b, true
			}
		}
	}
	num, err := strconv.Atoi(strings.TrimSpace(n.SelectAttr("bnumber")))
	if err != nil || num < 1 || num > protestantBooks {
		return scripture.Book{}, false
	}
	return im.canon.ByNumber(num)
}
