package importer

import (
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/sermonrefs/core/errors"
)

var (
	osisWorkExpr      = xpath.MustCompile(`string(//*[local-name()='osisText']/@osisIDWork)`)
	osisContainerExpr = xpath.MustCompile(`//*[local-name()='verse'][@osisID and not(@sID) and not(@eID)]`)
	osisMilestoneExpr = xpath.MustCompile(`//*[local-name()='verse'][@sID]`)

	osisSkip  = map[string]bool{"note": true, "title": true}
	osisBlock = map[string]bool{"p": true, "l": true, "lg": true, "div": true, "list": true, "item": true}
)

// OSIS reads verses from an OSIS document. Both container verses
// (<verse osisID="...">text</verse>) and milestones (<verse sID/> ... <verse eID/>)
// are understood; notes and titles are left out of verse text.
func (im *Importer) OSIS(data []byte) (*Result, error) {
	doc, err := parseXML(FormatOSIS, data)
	if err != nil {
		return nil, err
	}

	res := &Result{Format: FormatOSIS, Translation: queryString(doc, osisWorkExpr)}
	add := func(id, text string) {
		book, chapter, v, ok := im.osisRef(id)
		if !ok || text == "" {
			res.Skipped++
			return
		}
		res.Verses = append(res.Verses, verse(book, chapter, v, text))
	}

	for _, n := range queryAll(doc, osisContainerExpr) {
		add(n.SelectAttr("osisID"), textOf(n, osisSkip))
	}
	if len(queryAll(doc, osisMilestoneExpr)) > 0 {
		walkMilestones(doc, add)
	}

	if len(res.Verses) == 0 {
		return nil, errors.NewParse(string(FormatOSIS), "", "no verses found")
	}
	return res, nil
}

// walkMilestones visits doc in document order, collecting the text between
// each <verse sID> and its matching <verse eID>. A start without an end is
// closed by the next start.
func walkMilestones(doc *xmlquery.Node, add func(id, text string)) {
	var (
		openID, osisID string
		isOpen         bool
		buf            strings.Builder
	)
	flush := func() {
		if isOpen {
			add(osisID, normalizeSpace(buf.String()))
		}
		isOpen = false
		openID, osisID = "", ""
		buf.Reset()
	}

	var walk func(*xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case xmlquery.TextNode, xmlquery.CharDataNode:
				if isOpen {
					buf.WriteString(c.Data)
				}
			case xmlquery.ElementNode:
				if osisSkip[c.Data] {
					continue
				}
				if c.Data != "verse" {
					if isOpen && osisBlock[c.Data] {
						buf.WriteByte(' ')
						walk(c)
						buf.WriteByte(' ')
						continue
					}
					walk(c)
					continue
				}
				if sid := c.SelectAttr("sID"); sid != "" {
					flush()
					isOpen = true
					openID = sid
					osisID = c.SelectAttr("osisID")
					if osisID == "" {
						osisID = sid
					}
					continue
				}
				if eid := c.SelectAttr("eID"); eid != "" {
					if isOpen && eid == openID {
						flush()
					}
					continue
				}
				// Container verses are collected separately.
			}
		}
	}
	walk(doc)
	flush()
}

// osisRef resolves "Book.Chapter.Verse". Work prefixes ("KJV:John.3.16"),
// grain suffixes ("!a") and additional space-separated IDs are ignored.
func (im *Importer) osisRef(id string) (string, int, int, bool) {
	id, _, _ = strings.Cut(strings.TrimSpace(id), " ")
	if _, after, ok := strings.Cut(id, ":"); ok {
		id = after
	}
	id, _, _ = strings.Cut(id, "!")

	parts := strings.Split(id, ".")
	if len(parts) != 3 {
		return "", 0, 0, false
	}
	book, ok := im.canon.Lookup(parts[0])
	if !ok {
		return "", 0, 0, false
	}
	chapter, err1 := strconv.Atoi(parts[1])
	v, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || chapter <= 0 || v <= 0 {
		return "", 0, 0, false
	}
	return book.Name, chapter, v, true
}
