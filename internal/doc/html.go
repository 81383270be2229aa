package doc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/emrgen/notebook/internal/rowset"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type attrKind int

const (
	kindString attrKind = iota
	kindInt
	kindStrings
	kindRows
)

type attrSpec struct {
	name string
	html string
	kind attrKind
}

// graphAttrs fixes the HTML encoding of graph block attributes.
var graphAttrs = []attrSpec{
	{"chartType", "data-chart-type", kindString},
	{"tableId", "data-table-id", kindString},
	{"xAxisKey", "data-x-axis-key", kindString},
	{"seriesKeys", "data-series-keys", kindStrings},
	{"xAxisLabel", "data-x-axis-label", kindString},
	{"yAxisLabel", "data-y-axis-label", kindString},
	{"rowLimit", "data-row-limit", kindInt},
	{"legends", "data-legends", kindStrings},
	{"data", "data-data", kindRows},
}

var tableAttrs = []attrSpec{
	{"tableId", "data-table-id", kindString},
	{"tableName", "data-table-name", kindString},
}

var summaryAttrs = []attrSpec{
	{"tableId", "data-table-id", kindString},
	{"tableName", "data-table-name", kindString},
	{"columnName", "data-column-name", kindString},
}

var pdfAttrs = []attrSpec{
	{"src", "data-src", kindString},
	{"fileName", "data-file-name", kindString},
}

var imageAttrs = []attrSpec{
	{"src", "src", kindString},
	{"alt", "alt", kindString},
	{"title", "title", kindString},
}

// RenderHTML serializes the document content as HTML.
func RenderHTML(root *Node) (string, error) {
	var buf bytes.Buffer
	for _, c := range root.Content {
		h, err := toHTML(c)
		if err != nil {
			return "", err
		}
		if err := html.Render(&buf, h); err != nil {
			return "", fmt.Errorf("render %s: %w", c.Type, err)
		}
	}
	return buf.String(), nil
}

func element(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func encodeAttrs(n *Node, specs []attrSpec) ([]html.Attribute, error) {
	var out []html.Attribute
	for _, spec := range specs {
		v, ok := n.Attrs[spec.name]
		if !ok || v == nil {
			continue
		}
		val, err := encodeAttr(spec.kind, v)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", spec.name, err)
		}
		out = append(out, html.Attribute{Key: spec.html, Val: val})
	}
	return out, nil
}

func encodeAttr(kind attrKind, v any) (string, error) {
	switch kind {
	case kindString:
		return rowset.Format(v), nil
	case kindInt:
		switch t := v.(type) {
		case int:
			return strconv.Itoa(t), nil
		case float64:
			return strconv.Itoa(int(t)), nil
		}
		return rowset.Format(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

func (n *Node) appendHTML(h *html.Node) error {
	for _, c := range n.Content {
		ch, err := toHTML(c)
		if err != nil {
			return err
		}
		h.AppendChild(ch)
	}
	return nil
}

func toHTML(n *Node) (*html.Node, error) {
	var h *html.Node
	switch n.Type {
	case TypeText:
		return textWithMarks(n), nil
	case TypeParagraph:
		h = element("p")
	case TypeHeading:
		level := 1
		switch l := n.Attr("level").(type) {
		case int:
			level = l
		case float64:
			level = int(l)
		}
		level = min(max(level, 1), 6)
		h = element("h" + strconv.Itoa(level))
	case TypeBlockquote:
		h = element("blockquote")
	case TypeBulletList:
		h = element("ul")
	case TypeOrderedList:
		h = element("ol")
	case TypeListItem:
		h = element("li")
	case TypeCodeBlock:
		var attrs []html.Attribute
		if lang := n.StringAttr("language"); lang != "" {
			attrs = append(attrs, html.Attribute{Key: "class", Val: "language-" + lang})
		}
		code := element("code", attrs...)
		code.AppendChild(textNode(n.TextContent()))
		pre := element("pre")
		pre.AppendChild(code)
		return pre, nil
	case TypeHorizontalRule:
		return element("hr"), nil
	case TypeHardBreak:
		return element("br"), nil
	case TypeTable:
		attrs, err := encodeAttrs(n, tableAttrs)
		if err != nil {
			return nil, err
		}
		h = element("table", attrs...)
		body := element("tbody")
		if err := n.appendHTML(body); err != nil {
			return nil, err
		}
		h.AppendChild(body)
		return h, nil
	case TypeTableRow:
		h = element("tr")
	case TypeTableHeader:
		h = element("th")
	case TypeTableCell:
		h = element("td")
	case TypeImage:
		attrs, err := encodeAttrs(n, imageAttrs)
		if err != nil {
			return nil, err
		}
		return element("img", attrs...), nil
	case TypeGraphBlock:
		attrs, err := encodeAttrs(n, graphAttrs)
		if err != nil {
			return nil, err
		}
		attrs = append([]html.Attribute{{Key: "data-graph-block", Val: "true"}}, attrs...)
		return element("div", attrs...), nil
	case TypeSmartSummary:
		attrs, err := encodeAttrs(n, summaryAttrs)
		if err != nil {
			return nil, err
		}
		return element("smart-summary", attrs...), nil
	case TypePdfChip:
		attrs, err := encodeAttrs(n, pdfAttrs)
		if err != nil {
			return nil, err
		}
		attrs = append([]html.Attribute{{Key: "data-pdf-chip", Val: "true"}}, attrs...)
		h = element("span", attrs...)
		h.AppendChild(textNode(n.StringAttr("fileName")))
		return h, nil
	default:
		return nil, fmt.Errorf("render: unknown node type %q", n.Type)
	}

	if err := n.appendHTML(h); err != nil {
		return nil, err
	}
	return h, nil
}

func textWithMarks(n *Node) *html.Node {
	h := textNode(n.Text)
	for i := len(n.Marks) - 1; i >= 0; i-- {
		var wrap *html.Node
		m := n.Marks[i]
		switch m.Type {
		case MarkBold:
			wrap = element("strong")
		case MarkItalic:
			wrap = element("em")
		case MarkComment:
			wrap = element("span", html.Attribute{Key: "data-comment-id", Val: m.Attrs.String("commentId")})
		default:
			continue
		}
		wrap.AppendChild(h)
		h = wrap
	}
	return h
}

// ParseHTML reads HTML produced by RenderHTML, or any reasonable HTML
// fragment, into a document. Inline content found at block level is
// wrapped in paragraphs.
func ParseHTML(markup string) (*Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Node{Type: TypeDoc, Content: blocksOf(nodes)}, nil
}

func childNodes(h *html.Node) []*html.Node {
	var out []*html.Node
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

func attr(h *html.Node, key string) (string, bool) {
	for _, a := range h.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func isInlineHTML(h *html.Node) bool {
	switch h.Type {
	case html.TextNode:
		return true
	case html.ElementNode:
		switch h.DataAtom {
		case atom.Strong, atom.B, atom.Em, atom.I, atom.Span, atom.A, atom.Br,
			atom.Code, atom.U, atom.S, atom.Sub, atom.Sup, atom.Mark, atom.Label:
			return true
		}
	}
	return false
}

func blocksOf(nodes []*html.Node) []*Node {
	var out, inline []*Node
	flush := func() {
		if len(inline) > 0 {
			out = append(out, hoistImages(TypeParagraph, nil, inline)...)
			inline = nil
		}
	}
	for _, h := range nodes {
		if h.Type != html.TextNode && h.Type != html.ElementNode {
			continue
		}
		if isInlineHTML(h) {
			if h.Type == html.TextNode && len(inline) == 0 && strings.TrimSpace(h.Data) == "" {
				continue
			}
			inlineOf(h, nil, &inline)
			continue
		}
		flush()
		out = append(out, blockOf(h)...)
	}
	flush()
	return out
}

func blocksOrParagraph(h *html.Node) []*Node {
	blocks := blocksOf(childNodes(h))
	if len(blocks) == 0 {
		return []*Node{{Type: TypeParagraph}}
	}
	return blocks
}

func blockOf(h *html.Node) []*Node {
	switch h.DataAtom {
	case atom.P:
		return textBlock(TypeParagraph, nil, h)
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return textBlock(TypeHeading, Attrs{"level": int(h.Data[1] - '0')}, h)
	case atom.Blockquote:
		return []*Node{{Type: TypeBlockquote, Content: blocksOrParagraph(h)}}
	case atom.Ul, atom.Ol:
		typ := TypeBulletList
		if h.DataAtom == atom.Ol {
			typ = TypeOrderedList
		}
		list := &Node{Type: typ}
		for _, c := range childNodes(h) {
			if c.Type == html.ElementNode && c.DataAtom == atom.Li {
				list.Content = append(list.Content, &Node{Type: TypeListItem, Content: blocksOrParagraph(c)})
			}
		}
		return []*Node{list}
	case atom.Li:
		return []*Node{{Type: TypeListItem, Content: blocksOrParagraph(h)}}
	case atom.Pre:
		return []*Node{codeBlockOf(h)}
	case atom.Hr:
		return []*Node{{Type: TypeHorizontalRule}}
	case atom.Table:
		return []*Node{tableOf(h)}
	case atom.Img:
		return []*Node{withAttrs(TypeImage, h, imageAttrs)}
	case atom.Div:
		if _, ok := attr(h, "data-graph-block"); ok {
			return []*Node{withAttrs(TypeGraphBlock, h, graphAttrs)}
		}
	}
	if h.Type == html.ElementNode && h.Data == "smart-summary" {
		return []*Node{withAttrs(TypeSmartSummary, h, summaryAttrs)}
	}
	return blocksOf(childNodes(h))
}

func textBlock(typ NodeType, attrs Attrs, h *html.Node) []*Node {
	var inline []*Node
	for _, c := range childNodes(h) {
		inlineOf(c, nil, &inline)
	}
	blocks := hoistImages(typ, attrs, inline)
	if len(blocks) == 0 {
		return []*Node{{Type: typ, Attrs: cloneAttrs(attrs)}}
	}
	return blocks
}

// hoistImages splits inline content around images, which only live at
// block level. Text runs on either side become blocks of typ.
func hoistImages(typ NodeType, attrs Attrs, inline []*Node) []*Node {
	var out, run []*Node
	flush := func() {
		if len(run) > 0 {
			out = append(out, &Node{Type: typ, Attrs: cloneAttrs(attrs), Content: mergeText(run)})
			run = nil
		}
	}
	for _, n := range inline {
		if n.Type == TypeImage {
			flush()
			out = append(out, n)
			continue
		}
		run = append(run, n)
	}
	flush()
	return out
}

func cloneAttrs(attrs Attrs) Attrs {
	if attrs == nil {
		return nil
	}
	out := make(Attrs, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

func codeBlockOf(h *html.Node) *Node {
	n := &Node{Type: TypeCodeBlock}
	var text strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			text.WriteString(c.Data)
		}
		if c.Type == html.ElementNode && c.DataAtom == atom.Code {
			if class, ok := attr(c, "class"); ok && strings.HasPrefix(class, "language-") {
				n.SetAttr("language", strings.TrimPrefix(class, "language-"))
			}
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			walk(cc)
		}
	}
	walk(h)
	if text.Len() > 0 {
		n.Content = []*Node{Text(text.String())}
	}
	return n
}

func tableOf(h *html.Node) *Node {
	n := withAttrs(TypeTable, h, tableAttrs)
	var rows func(*html.Node)
	rows = func(p *html.Node) {
		for _, c := range childNodes(p) {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Thead, atom.Tbody, atom.Tfoot:
				rows(c)
			case atom.Tr:
				n.Content = append(n.Content, rowOf(c))
			}
		}
	}
	rows(h)
	return n
}

func rowOf(h *html.Node) *Node {
	row := &Node{Type: TypeTableRow}
	for _, c := range childNodes(h) {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Th:
			row.Content = append(row.Content, &Node{Type: TypeTableHeader, Content: blocksOrParagraph(c)})
		case atom.Td:
			row.Content = append(row.Content, &Node{Type: TypeTableCell, Content: blocksOrParagraph(c)})
		}
	}
	return row
}

// leafOf builds a node of typ carrying the attributes listed in specs.
func withAttrs(typ NodeType, h *html.Node, specs []attrSpec) *Node {
	n := &Node{Type: typ}
	for _, spec := range specs {
		raw, ok := attr(h, spec.html)
		if !ok {
			continue
		}
		if v, ok := decodeAttr(spec.kind, raw); ok {
			n.SetAttr(spec.name, v)
		}
	}
	return n
}

func decodeAttr(kind attrKind, raw string) (any, bool) {
	switch kind {
	case kindString:
		return raw, true
	case kindInt:
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		return v, err == nil
	case kindStrings:
		var v []string
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, false
		}
		return v, true
	case kindRows:
		var rs rowset.RowSet
		if err := json.Unmarshal([]byte(raw), &rs); err != nil {
			return nil, false
		}
		return rs, true
	}
	return nil, false
}

func inlineOf(h *html.Node, marks []Mark, out *[]*Node) {
	switch h.Type {
	case html.TextNode:
		if h.Data != "" {
			*out = append(*out, Text(h.Data, marks...))
		}
		return
	case html.ElementNode:
	default:
		return
	}

	switch h.DataAtom {
	case atom.Br:
		*out = append(*out, &Node{Type: TypeHardBreak})
		return
	case atom.Img:
		*out = append(*out, withAttrs(TypeImage, h, imageAttrs))
		return
	case atom.Strong, atom.B:
		marks = withMark(marks, Mark{Type: MarkBold})
	case atom.Em, atom.I:
		marks = withMark(marks, Mark{Type: MarkItalic})
	case atom.Span:
		if _, ok := attr(h, "data-pdf-chip"); ok {
			*out = append(*out, withAttrs(TypePdfChip, h, pdfAttrs))
			return
		}
		if id, ok := attr(h, "data-comment-id"); ok {
			marks = withMark(marks, Mark{Type: MarkComment, Attrs: Attrs{"commentId": id}})
		}
	}
	for _, c := range childNodes(h) {
		inlineOf(c, marks, out)
	}
}

func withMark(marks []Mark, m Mark) []Mark {
	out := make([]Mark, 0, len(marks)+1)
	out = append(out, marks...)
	return append(out, m)
}

// mergeText joins adjacent text nodes carrying the same marks.
func mergeText(nodes []*Node) []*Node {
	var out []*Node
	for _, n := range nodes {
		if len(out) > 0 {
			last := out[len(out)-1]
			if last.IsText() && n.IsText() && sameMarks(last.Marks, n.Marks) {
				last.Text += n.Text
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

func sameMarks(a, b []Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type != b[i].Type || a[i].Attrs.String("commentId") != b[i].Attrs.String("commentId") {
			return false
		}
	}
	return true
}
