package importer

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/sermonrefs/core/errors"
)

// parseXML checks well-formedness with entity expansion disabled and then
// builds the xmlquery tree.
func parseXML(format Format, data []byte) (*xmlquery.Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	for {
		_, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &errors.ParseError{Format: string(format), Message: "malformed XML", Err: err}
		}
	}

	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &errors.ParseError{Format: string(format), Message: "parse XML", Err: err}
	}
	return doc, nil
}

// queryAll evaluates a compiled expression against doc.
func queryAll(doc *xmlquery.Node, expr *xpath.Expr) []*xmlquery.Node {
	return xmlquery.QuerySelectorAll(doc, expr)
}

// queryString evaluates a compiled expression to its string value.
func queryString(doc *xmlquery.Node, expr *xpath.Expr) string {
	v := expr.Evaluate(xmlquery.CreateXPathNavigator(doc))
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case *xpath.NodeIterator:
		if t.MoveNext() {
			return strings.TrimSpace(t.Current().Value())
		}
	}
	return ""
}

// textOf returns the text under n, leaving out the subtrees of skipped elements.
func textOf(n *xmlquery.Node, skip map[string]bool) string {
	var b strings.Builder
	var walk func(*xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case xmlquery.TextNode, xmlquery.CharDataNode:
				b.WriteString(c.Data)
			case xmlquery.ElementNode:
				if skip[c.Data] {
					continue
				}
				walk(c)
			}
		}
	}
	walk(n)
	return normalizeSpace(b.String())
}
