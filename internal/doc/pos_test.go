package doc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cell(typ NodeType, text string) *Node {
	return New(typ, nil, Paragraph(text))
}

// sampleDoc lays out as:
//
//	0 p("Hi") 4 table 30 p("") 32
//
// with the data cell "1" text at 20.
func sampleDoc() *Node {
	return New(TypeDoc, nil,
		Paragraph("Hi"),
		New(TypeTable, Attrs{"tableId": "t1", "tableName": "Readings"},
			New(TypeTableRow, nil, cell(TypeTableHeader, "a"), cell(TypeTableHeader, "b")),
			New(TypeTableRow, nil, cell(TypeTableCell, "1"), cell(TypeTableCell, "2")),
		),
		Paragraph(""),
	)
}

func TestNodeSize(t *testing.T) {
	d := sampleDoc()
	assert.Equal(t, 4, d.Content[0].NodeSize())
	assert.Equal(t, 26, d.Content[1].NodeSize())
	assert.Equal(t, 2, d.Content[2].NodeSize())
	assert.Equal(t, 32, d.ContentSize())
	assert.Equal(t, 3, Text("héé").NodeSize())
	assert.Equal(t, 1, New(TypeGraphBlock, nil).NodeSize())
}

func TestDescendants(t *testing.T) {
	d := sampleDoc()

	positions := map[string]int{}
	Descendants(d, func(n *Node, pos int, _ *Node, _ int) bool {
		if n.IsText() {
			positions[n.Text] = pos
		}
		return true
	})
	assert.Equal(t, map[string]int{"Hi": 1, "a": 8, "b": 13, "1": 20, "2": 25}, positions)

	var visited int
	Descendants(d, func(n *Node, _ int, _ *Node, _ int) bool {
		visited++
		return n.Type != TypeTable
	})
	assert.Equal(t, 4, visited)
}

func TestFindAncestor(t *testing.T) {
	d := sampleDoc()

	anc, ok := FindAncestor(d, 20, TypeTable)
	require.True(t, ok)
	assert.Equal(t, 4, anc.Pos)
	assert.Equal(t, "t1", anc.Node.StringAttr("tableId"))

	cellAnc, ok := FindAncestor(d, 20, TypeTableCell)
	require.True(t, ok)
	assert.Equal(t, 18, cellAnc.Pos)

	_, ok = FindAncestor(d, 2, TypeTable)
	assert.False(t, ok)
	_, ok = FindAncestor(d, 4, TypeTable)
	assert.False(t, ok, "position before the table is not inside it")

	path := Ancestors(d, 20)
	types := make([]NodeType, len(path))
	for i, a := range path {
		types[i] = a.Node.Type
	}
	assert.Equal(t, []NodeType{TypeTable, TypeTableRow, TypeTableCell, TypeParagraph}, types)
}

func TestNodeAt(t *testing.T) {
	d := sampleDoc()

	n, ok := NodeAt(d, 4)
	require.True(t, ok)
	assert.Equal(t, TypeTable, n.Type)

	n, ok = NodeAt(d, 0)
	require.True(t, ok)
	assert.Equal(t, TypeParagraph, n.Type)

	n, ok = NodeAt(d, 18)
	require.True(t, ok)
	assert.Equal(t, TypeTableCell, n.Type)

	_, ok = NodeAt(d, 32)
	assert.False(t, ok)
	_, ok = NodeAt(d, -1)
	assert.False(t, ok)

	pos, ok := PosOf(d, d.Content[1])
	require.True(t, ok)
	assert.Equal(t, 4, pos)
	_, ok = PosOf(d, Paragraph("detached"))
	assert.False(t, ok)
}

func TestInsertAt(t *testing.T) {
	t.Run("block boundary", func(t *testing.T) {
		d := sampleDoc()
		require.NoError(t, InsertAt(d, 30, New(TypeGraphBlock, nil)))
		assert.Equal(t, TypeGraphBlock, d.Content[2].Type)
		assert.Equal(t, 33, d.ContentSize())
	})

	t.Run("end of document", func(t *testing.T) {
		d := sampleDoc()
		require.NoError(t, InsertAt(d, 32, Paragraph("tail")))
		assert.Equal(t, "tail", d.Content[3].TextContent())
	})

	t.Run("splits text", func(t *testing.T) {
		d := sampleDoc()
		require.NoError(t, InsertAt(d, 2, Text("X")))
		assert.Equal(t, "HXi", d.Content[0].TextContent())
	})

	t.Run("block inside paragraph", func(t *testing.T) {
		d := sampleDoc()
		assert.ErrorIs(t, InsertAt(d, 2, New(TypeGraphBlock, nil)), ErrSchemaViolation)
		assert.Equal(t, "Hi", d.Content[0].TextContent())
	})

	t.Run("out of range", func(t *testing.T) {
		d := sampleDoc()
		assert.ErrorIs(t, InsertAt(d, 40, Paragraph("x")), ErrInvalidPosition)
		assert.ErrorIs(t, InsertAt(d, -1, Paragraph("x")), ErrInvalidPosition)
	})

	t.Run("inside table cell", func(t *testing.T) {
		d := sampleDoc()
		require.NoError(t, InsertAt(d, 19, Paragraph("before")))
		td := d.Content[1].Content[1].Content[0]
		assert.Len(t, td.Content, 2)
		assert.Equal(t, "before1", td.TextContent())
	})
}

func TestDeleteAt(t *testing.T) {
	d := sampleDoc()
	removed, err := DeleteAt(d, 4)
	require.NoError(t, err)
	assert.Equal(t, TypeTable, removed.Type)
	assert.Len(t, d.Content, 2)
	assert.Equal(t, 6, d.ContentSize())

	_, err = DeleteAt(d, 6)
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestUpdateAttrs(t *testing.T) {
	d := sampleDoc()
	require.NoError(t, UpdateAttrs(d, 4, TypeTable, Attrs{"tableName": "Renamed"}))
	assert.Equal(t, "Renamed", d.Content[1].StringAttr("tableName"))
	assert.Equal(t, "t1", d.Content[1].StringAttr("tableId"))

	require.NoError(t, UpdateAttrs(d, 20, TypeTable, Attrs{"tableName": "Inner"}))
	assert.Equal(t, "Inner", d.Content[1].StringAttr("tableName"))

	assert.ErrorIs(t, UpdateAttrs(d, 1, TypeTable, Attrs{"x": 1}), ErrNodeNotFound)
}

func TestBlockEnd(t *testing.T) {
	d := sampleDoc()
	assert.Equal(t, 30, BlockEnd(d, 20))
	assert.Equal(t, 4, BlockEnd(d, 4))
	assert.Equal(t, 4, BlockEnd(d, 2))
	assert.Equal(t, 0, BlockEnd(d, -5))
	assert.Equal(t, 32, BlockEnd(d, 100))
}

func TestClone(t *testing.T) {
	d := sampleDoc()
	c := d.Clone()
	assert.Equal(t, d, c)

	c.Content[1].SetAttr("tableName", "Changed")
	c.Content[0].Content[0].Text = "Bye"
	assert.Equal(t, "Readings", d.Content[1].StringAttr("tableName"))
	assert.Equal(t, "Hi", d.Content[0].TextContent())
}
