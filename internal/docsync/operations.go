package docsync

import (
	"encoding/base64"
	"io"
	"math/rand/v2"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/notebook/internal/chart"
	"github.com/emrgen/notebook/internal/csvimport"
	"github.com/emrgen/notebook/internal/doc"
	"github.com/emrgen/notebook/internal/stats"
	"github.com/emrgen/notebook/internal/svg"
	"github.com/emrgen/notebook/internal/table"
	"github.com/google/uuid"
)

// ImportMode selects what an SVG import inserts.
type ImportMode string

const (
	// ImportReplace inserts the extracted table in place of the image.
	ImportReplace ImportMode = "replace"
	// ImportKeepBoth inserts the image followed by the extracted table.
	ImportKeepBoth ImportMode = "keep-both"
	// ImportImage inserts the image only.
	ImportImage ImportMode = "image"
)

// ParseImportMode maps a mode name to an ImportMode.
func ParseImportMode(s string) (ImportMode, error) {
	switch m := ImportMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ImportReplace, ImportKeepBoth, ImportImage:
		return m, nil
	case "":
		return ImportReplace, nil
	}
	return "", ErrUnknownImportMode
}

// insertBlocks places block nodes at pos, moving positions that fall
// inside a top-level block to the end of that block. It returns the
// position the nodes were inserted at.
func (c *Controller) insertBlocks(pos int, nodes ...*doc.Node) (int, error) {
	at := doc.BlockEnd(c.surface.Doc(), pos)
	if err := c.surface.Chain().Focus().InsertContentAt(at, nodes...).Run(); err != nil {
		return 0, err
	}
	return at, nil
}

// InsertTable inserts a table of rows x cols, the first row being the
// header row, and reconciles rendered table attributes.
func (c *Controller) InsertTable(pos, rows, cols int, name string) (table.Ref, error) {
	if rows < 1 || cols < 1 {
		return table.Ref{}, ErrInvalidTableSize
	}
	node := table.New(rows, cols, name)
	at, err := c.insertBlocks(pos, node)
	if err != nil {
		return table.Ref{}, err
	}
	c.Reconcile()
	return table.Ref{
		ID:   node.StringAttr(table.AttrID),
		Name: node.StringAttr(table.AttrName),
		Pos:  at,
		Node: node,
	}, nil
}

// InsertChartAfterTable inserts a chart right after the table enclosing
// cursor. The chart is bound to that table and, when b names no keys,
// plots the first column against the others.
func (c *Controller) InsertChartAfterTable(cursor int, b chart.Block) (int, error) {
	root := c.surface.Doc()
	anc, ok := doc.FindAncestor(root, cursor, doc.TypeTable)
	if !ok {
		return 0, ErrCursorOutsideTable
	}

	headers := table.Headers(anc.Node)
	b.TableID = anc.Node.StringAttr(table.AttrID)
	if b.XAxisKey == "" && len(headers) > 0 {
		b.XAxisKey = headers[0]
	}
	if len(b.SeriesKeys) == 0 && len(headers) > 1 {
		b.SeriesKeys = append([]string(nil), headers[1:]...)
	}

	end := anc.Pos + anc.Node.NodeSize()
	if err := c.surface.Chain().Focus().InsertContentAt(end, chart.NewNode(b)).Run(); err != nil {
		return 0, err
	}
	return end, nil
}

// InsertSummary inserts a live summary of one column of a table.
func (c *Controller) InsertSummary(pos int, tableID, column string) (int, error) {
	ref, ok := table.Find(c.surface.Doc(), tableID)
	if !ok {
		return 0, ErrTableNotFound
	}
	node := stats.NewNode(stats.Binding{TableID: ref.ID, TableName: ref.Name, ColumnName: column})
	return c.insertBlocks(pos, node)
}

// ImportCSV ingests delimited text and inserts the resulting table. An
// input without a header row inserts nothing.
func (c *Controller) ImportCSV(pos int, r io.Reader, name string) (*csvimport.Result, error) {
	res, err := csvimport.Ingest(r, csvimport.Options{TableName: name, MaxRows: c.maxTableRows})
	if err != nil {
		return nil, err
	}
	if res.Table == nil {
		return res, nil
	}
	if _, err := c.insertBlocks(pos, res.Table); err != nil {
		return nil, err
	}
	c.Reconcile()
	return res, nil
}

// SVGImport is the outcome of an SVG import.
type SVGImport struct {
	Analysis   svg.Analysis    `json:"analysis"`
	Extraction *svg.Extraction `json:"extraction,omitempty"`
	Pos        int             `json:"pos"`
}

// ImportSVG analyzes an SVG chart and inserts the image, the extracted
// table or both depending on mode. src is the image source; when empty
// the markup is embedded as a data URL.
func (c *Controller) ImportSVG(pos int, markup, src string, mode ImportMode, rng *rand.Rand) (*SVGImport, error) {
	if src == "" {
		src = "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(markup))
	}
	image := doc.New(doc.TypeImage, doc.Attrs{"src": src})

	out := &SVGImport{Analysis: svg.Analyze(markup)}
	var nodes []*doc.Node
	switch mode {
	case ImportImage:
		nodes = []*doc.Node{image}
	case ImportReplace, ImportKeepBoth:
		ex := svg.Synthesize(out.Analysis, rng)
		out.Extraction = &ex
		tbl := table.FromRowSet(ex.RowSet, "", c.maxTableRows)
		if mode == ImportKeepBoth {
			nodes = []*doc.Node{image, doc.Paragraph(""), tbl}
		} else {
			nodes = []*doc.Node{tbl}
		}
	default:
		return nil, ErrUnknownImportMode
	}

	at, err := c.insertBlocks(pos, nodes...)
	if err != nil {
		return nil, err
	}
	out.Pos = at
	if out.Extraction != nil {
		c.Reconcile()
	}
	return out, nil
}

// CompareOptions labels a comparison chart.
type CompareOptions struct {
	ChartType  chart.Type
	XAxisLabel string
	YAxisLabel string
}

// CompareTables merges the tables named by ids into one comparison chart
// and inserts it. Empty ids are ignored and ids that no longer resolve are
// skipped.
func (c *Controller) CompareTables(pos int, ids []string, opts CompareOptions) (chart.Block, error) {
	var valid []string
	for _, id := range ids {
		if id != "" {
			valid = append(valid, id)
		}
	}
	if len(valid) < 2 {
		return chart.Block{}, chart.ErrTooFewTables
	}

	root := c.surface.Doc()
	var sources []chart.Source
	for i, id := range valid {
		if ref, ok := table.Find(root, id); ok {
			sources = append(sources, chart.Source{Name: ref.Name, Index: i, Table: ref.Node})
		}
	}
	cmp, err := chart.Compare(sources)
	if err != nil {
		return chart.Block{}, err
	}

	chartType := opts.ChartType
	if chartType == "" {
		chartType = chart.Bar
	}
	b := chart.Block{
		ChartType:  chartType,
		XAxisKey:   chart.CompareXKey,
		SeriesKeys: cmp.SeriesKeys,
		XAxisLabel: opts.XAxisLabel,
		YAxisLabel: opts.YAxisLabel,
		RowLimit:   chart.DefaultRowLimit,
		Data:       cmp.Data,
	}
	if _, err := c.insertBlocks(pos, chart.NewNode(b)); err != nil {
		return chart.Block{}, err
	}
	return b, nil
}

// InsertPdfLink inserts a PDF chip. Inside a text block the chip goes in
// at pos; elsewhere it is wrapped in its own paragraph.
func (c *Controller) InsertPdfLink(pos int, src, fileName string) (int, error) {
	chip := doc.New(doc.TypePdfChip, doc.Attrs{"src": src, "fileName": fileName})
	root := c.surface.Doc()

	if path := doc.Ancestors(root, pos); len(path) > 0 {
		inner := path[len(path)-1].Node
		if doc.CanContain(inner.Type, doc.TypePdfChip) {
			if err := c.surface.Chain().Focus().InsertContentAt(pos, chip).Run(); err != nil {
				return 0, err
			}
			return pos, nil
		}
	}
	return c.insertBlocks(pos, doc.New(doc.TypeParagraph, nil, chip))
}

// SetComment marks the text in [from, to) with a comment and returns the
// comment id. A blank commentID gets a fresh one.
func (c *Controller) SetComment(from, to int, commentID string) (string, error) {
	if commentID == "" {
		commentID = uuid.NewString()
	}
	if err := c.surface.Chain().SetMark(from, to, doc.CommentMark(commentID)).Run(); err != nil {
		return "", err
	}
	return commentID, nil
}

// UnsetComment removes the comment commentID from the whole document.
func (c *Controller) UnsetComment(commentID string) error {
	return c.surface.Chain().UnsetComment(commentID).Run()
}

// Comments lists the ids of the comments applied in the document, in
// document order.
func (c *Controller) Comments() []string {
	var ids []string
	seen := mapset.NewThreadUnsafeSet[string]()
	doc.Descendants(c.surface.Doc(), func(n *doc.Node, _ int, _ *doc.Node, _ int) bool {
		for _, m := range n.Marks {
			id := m.Attrs.String("commentId")
			if m.Type == doc.MarkComment && seen.Add(id) {
				ids = append(ids, id)
			}
		}
		return true
	})
	return ids
}

// SetSelection moves the cursor of the document.
func (c *Controller) SetSelection(from, to int) error {
	return c.surface.Chain().SetSelection(from, to).Run()
}

// Selection returns the current selection.
func (c *Controller) Selection() doc.Selection {
	return c.surface.Selection()
}

// Document returns a snapshot of the document.
func (c *Controller) Document() *doc.Node {
	return c.surface.Doc()
}
