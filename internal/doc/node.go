// Package doc is the structured document model: a tree of typed nodes in
// the tiptap/ProseMirror JSON shape, integer positions over that tree, an
// in-memory editor exposing programmatic commands and update
// notifications, and the HTML form documents are persisted in.
package doc

import (
	"strings"
	"unicode/utf8"
)

// NodeType names a node kind.
type NodeType string

const (
	TypeDoc            NodeType = "doc"
	TypeParagraph      NodeType = "paragraph"
	TypeHeading        NodeType = "heading"
	TypeBlockquote     NodeType = "blockquote"
	TypeBulletList     NodeType = "bulletList"
	TypeOrderedList    NodeType = "orderedList"
	TypeListItem       NodeType = "listItem"
	TypeCodeBlock      NodeType = "codeBlock"
	TypeHorizontalRule NodeType = "horizontalRule"
	TypeHardBreak      NodeType = "hardBreak"
	TypeText           NodeType = "text"
	TypeTable          NodeType = "table"
	TypeTableRow       NodeType = "tableRow"
	TypeTableHeader    NodeType = "tableHeader"
	TypeTableCell      NodeType = "tableCell"
	TypeImage          NodeType = "image"
	TypeGraphBlock     NodeType = "graphBlock"
	TypeSmartSummary   NodeType = "smartSummary"
	TypePdfChip        NodeType = "pdfSmartChip"
)

// Mark types.
const (
	MarkComment = "comment"
	MarkBold    = "bold"
	MarkItalic  = "italic"
)

// CommentMark builds a comment mark referring to commentID.
func CommentMark(commentID string) Mark {
	return Mark{Type: MarkComment, Attrs: Attrs{"commentId": commentID}}
}

// Attrs holds node or mark attributes.
type Attrs map[string]any

// String returns the attribute as a string, or "" when absent or not a string.
func (a Attrs) String(key string) string {
	if s, ok := a[key].(string); ok {
		return s
	}
	return ""
}

// Mark is an inline annotation on a text node.
type Mark struct {
	Type  string `json:"type"`
	Attrs Attrs  `json:"attrs,omitempty"`
}

// Node is one element of the document tree.
type Node struct {
	Type    NodeType `json:"type"`
	Attrs   Attrs    `json:"attrs,omitempty"`
	Content []*Node  `json:"content,omitempty"`
	Text    string   `json:"text,omitempty"`
	Marks   []Mark   `json:"marks,omitempty"`
}

// New creates a node with the given children.
func New(typ NodeType, attrs Attrs, content ...*Node) *Node {
	return &Node{Type: typ, Attrs: attrs, Content: content}
}

// Text creates a text node.
func Text(s string, marks ...Mark) *Node {
	return &Node{Type: TypeText, Text: s, Marks: marks}
}

// Paragraph creates a paragraph holding a single text run, or an empty
// paragraph when s is empty.
func Paragraph(s string) *Node {
	p := &Node{Type: TypeParagraph}
	if s != "" {
		p.Content = []*Node{Text(s)}
	}
	return p
}

// Empty returns an empty document.
func Empty() *Node {
	return &Node{Type: TypeDoc}
}

// IsText reports whether n is a text node.
func (n *Node) IsText() bool {
	return n.Type == TypeText
}

// IsLeaf reports whether n is an atom that cannot hold content.
func (n *Node) IsLeaf() bool {
	switch n.Type {
	case TypeText, TypeImage, TypeGraphBlock, TypeSmartSummary, TypePdfChip,
		TypeHardBreak, TypeHorizontalRule:
		return true
	}
	return false
}

// Attr returns the attribute value for key.
func (n *Node) Attr(key string) any {
	if n.Attrs == nil {
		return nil
	}
	return n.Attrs[key]
}

// StringAttr returns the attribute as a string.
func (n *Node) StringAttr(key string) string {
	return n.Attrs.String(key)
}

// SetAttr sets one attribute.
func (n *Node) SetAttr(key string, v any) {
	if n.Attrs == nil {
		n.Attrs = Attrs{}
	}
	n.Attrs[key] = v
}

// NodeSize is the number of positions the node occupies in its parent.
func (n *Node) NodeSize() int {
	if n.IsText() {
		return utf8.RuneCountInString(n.Text)
	}
	if n.IsLeaf() {
		return 1
	}
	return n.ContentSize() + 2
}

// ContentSize is the sum of the children's sizes.
func (n *Node) ContentSize() int {
	size := 0
	for _, c := range n.Content {
		size += c.NodeSize()
	}
	return size
}

// TextContent concatenates the text of every descendant text node.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.Text
	}
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder) {
	for _, c := range n.Content {
		if c.IsText() {
			b.WriteString(c.Text)
			continue
		}
		c.writeText(b)
	}
}

// Clone returns a deep copy of the tree. Attribute values are copied
// shallowly and treated as immutable.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Type: n.Type, Text: n.Text}
	if n.Attrs != nil {
		c.Attrs = make(Attrs, len(n.Attrs))
		for k, v := range n.Attrs {
			c.Attrs[k] = v
		}
	}
	if len(n.Marks) > 0 {
		c.Marks = make([]Mark, len(n.Marks))
		for i, m := range n.Marks {
			c.Marks[i] = Mark{Type: m.Type}
			if m.Attrs != nil {
				c.Marks[i].Attrs = make(Attrs, len(m.Attrs))
				for k, v := range m.Attrs {
					c.Marks[i].Attrs[k] = v
				}
			}
		}
	}
	if len(n.Content) > 0 {
		c.Content = make([]*Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = child.Clone()
		}
	}
	return c
}
