// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// hiddenSelector lists elements whose text is never visible content.
const hiddenSelector = "script, style, noscript, svg, nav, header, footer, form, iframe, template, button, select, [hidden], [aria-hidden='true']"

// blockAtoms break the running text into separate lines.
var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.Tr: true, atom.Table: true, atom.Thead: true, atom.Tbody: true, atom.Tfoot: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Section: true, atom.Article: true, atom.Aside: true, atom.Main: true,
	atom.Dl: true, atom.Dt: true, atom.Dd: true, atom.Blockquote: true, atom.Pre: true,
	atom.Address: true, atom.Figure: true, atom.Figcaption: true, atom.Caption: true,
	atom.Hr: true, atom.Br: true,
}

// cellAtoms are separated by a space so a table row reads as one line.
var cellAtoms = map[atom.Atom]bool{atom.Td: true, atom.Th: true}

// HTMLLines returns the visible text lines of an HTML document in
// reading order.
func HTMLLines(body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing html: %v", ErrUnreadable, err)
	}
	doc.Find(hiddenSelector).Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	w := &lineWriter{}
	for _, n := range root.Nodes {
		w.walk(n)
	}
	w.flush()
	return w.lines, nil
}

type lineWriter struct {
	cur   strings.Builder
	lines []string
}

func (w *lineWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.cur.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		if blockAtoms[n.DataAtom] {
			w.flush()
			defer w.flush()
		}
		if cellAtoms[n.DataAtom] {
			w.cur.WriteByte(' ')
			defer w.cur.WriteByte(' ')
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *lineWriter) flush() {
	s := strings.Join(strings.Fields(w.cur.String()), " ")
	w.cur.Reset()
	if s != "" {
		w.lines = append(w.lines, s)
	}
}
