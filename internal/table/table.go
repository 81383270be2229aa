// Package table converts table nodes of a document into row-sets and builds
// new table nodes.
package table

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/notebook/internal/doc"
	"github.com/emrgen/notebook/internal/rowset"
	"github.com/google/uuid"
)

const (
	AttrID   = "tableId"
	AttrName = "tableName"

	// DefaultName is the name given to tables created without one.
	DefaultName = "Untitled Table"
)

// Ref identifies a table in a document.
type Ref struct {
	ID   string
	Name string
	Pos  int
	Node *doc.Node
}

func cellText(cell *doc.Node) string {
	return strings.TrimSpace(cell.TextContent())
}

func rows(node *doc.Node) []*doc.Node {
	if node == nil || node.Type != doc.TypeTable {
		return nil
	}
	var out []*doc.Node
	for _, r := range node.Content {
		if r.Type == doc.TypeTableRow {
			out = append(out, r)
		}
	}
	return out
}

// columnKeys returns the key of every header cell by column, including
// duplicate keys, in column order.
func columnKeys(header *doc.Node) []string {
	keys := make([]string, len(header.Content))
	for i, c := range header.Content {
		key := cellText(c)
		if key == "" {
			key = fmt.Sprintf("col%d", i)
		}
		keys[i] = key
	}
	return keys
}

func dedupe(keys []string) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if seen.Add(k) {
			out = append(out, k)
		}
	}
	return out
}

// Extract reads a table node into a row-set. The first row supplies the
// headers; a table with fewer than two rows yields an empty row-set.
// Extract never fails.
func Extract(node *doc.Node) rowset.RowSet {
	all := rows(node)
	if len(all) < 2 {
		return rowset.RowSet{}
	}

	keys := columnKeys(all[0])
	out := rowset.RowSet{
		Headers: dedupe(keys),
		Rows:    make([]rowset.Record, 0, len(all)-1),
	}
	for _, row := range all[1:] {
		rec := make(rowset.Record, len(out.Headers))
		for j, key := range keys {
			if j < len(row.Content) {
				rec[key] = rowset.Coerce(row.Content[j].TextContent())
			} else {
				rec[key] = ""
			}
		}
		out.Rows = append(out.Rows, rec)
	}
	return out
}

// Headers returns the header names of a table, empty when it has fewer
// than two rows.
func Headers(node *doc.Node) []string {
	return Extract(node).Headers
}

// Column returns the numeric values of the named column.
func Column(node *doc.Node, name string) []float64 {
	rs := Extract(node)
	if !rs.Has(name) {
		return nil
	}
	return rs.Numbers(name)
}

// List returns every table of the document in order.
func List(root *doc.Node) []Ref {
	var out []Ref
	doc.Descendants(root, func(n *doc.Node, pos int, _ *doc.Node, _ int) bool {
		if n.Type != doc.TypeTable {
			return true
		}
		out = append(out, Ref{
			ID:   n.StringAttr(AttrID),
			Name: n.StringAttr(AttrName),
			Pos:  pos,
			Node: n,
		})
		return false
	})
	return out
}

// Find returns the table carrying id. When several tables share the id the
// last one in document order wins.
func Find(root *doc.Node, id string) (Ref, bool) {
	var found Ref
	ok := false
	if id == "" {
		return found, false
	}
	for _, ref := range List(root) {
		if ref.ID == id {
			found, ok = ref, true
		}
	}
	return found, ok
}

// New builds a table of rows x cols where the first row holds header
// cells. Every cell starts as one empty paragraph and the table receives a
// fresh id.
func New(rowCount, cols int, name string) *doc.Node {
	rowCount, cols = max(rowCount, 1), max(cols, 1)
	if name == "" {
		name = DefaultName
	}
	t := doc.New(doc.TypeTable, doc.Attrs{AttrID: uuid.NewString(), AttrName: name})
	for i := 0; i < rowCount; i++ {
		typ := doc.TypeTableCell
		if i == 0 {
			typ = doc.TypeTableHeader
		}
		row := doc.New(doc.TypeTableRow, nil)
		for j := 0; j < cols; j++ {
			row.Content = append(row.Content, doc.New(typ, nil, doc.Paragraph("")))
		}
		t.Content = append(t.Content, row)
	}
	return t
}

// FromRowSet builds a table whose header row is rs.Headers followed by at
// most limit data rows. A limit below one keeps every row.
func FromRowSet(rs rowset.RowSet, name string, limit int) *doc.Node {
	if name == "" {
		name = DefaultName
	}
	data := rs.Rows
	if limit > 0 && len(data) > limit {
		data = data[:limit]
	}

	t := doc.New(doc.TypeTable, doc.Attrs{AttrID: uuid.NewString(), AttrName: name})
	header := doc.New(doc.TypeTableRow, nil)
	for _, h := range rs.Headers {
		header.Content = append(header.Content, doc.New(doc.TypeTableHeader, nil, doc.Paragraph(h)))
	}
	t.Content = append(t.Content, header)

	for _, rec := range data {
		row := doc.New(doc.TypeTableRow, nil)
		for _, h := range rs.Headers {
			row.Content = append(row.Content, doc.New(doc.TypeTableCell, nil, doc.Paragraph(rowset.Format(rec[h]))))
		}
		t.Content = append(t.Content, row)
	}
	return t
}
