package docsync

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/emrgen/notebook/internal/chart"
	"github.com/emrgen/notebook/internal/doc"
	"github.com/emrgen/notebook/internal/rowset"
	"github.com/emrgen/notebook/internal/stats"
	"github.com/emrgen/notebook/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSaver struct {
	mu        sync.Mutex
	content   map[string]string
	chartData map[string]rowset.RowSet
	saves     int

	inflight    atomic.Int32
	maxInflight atomic.Int32
	delay       time.Duration
}

func newFakeSaver() *fakeSaver {
	return &fakeSaver{content: map[string]string{}, chartData: map[string]rowset.RowSet{}}
}

func (s *fakeSaver) SaveContent(_ context.Context, projectID, html string) error {
	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		m := s.maxInflight.Load()
		if n <= m || s.maxInflight.CompareAndSwap(m, n) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.content[projectID] = html
	s.saves++
	return nil
}

func (s *fakeSaver) SaveChartData(_ context.Context, projectID string, rs rowset.RowSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chartData[projectID] = rs
	return nil
}

func (s *fakeSaver) lastContent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content["p1"]
}

type fakeReconciler struct {
	mu    sync.Mutex
	calls [][]TableMirror
}

func (r *fakeReconciler) Reconcile(_ string, mirrors []TableMirror) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, mirrors)
}

func (r *fakeReconciler) last() []TableMirror {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

func cell(typ doc.NodeType, text string) *doc.Node {
	return doc.New(typ, nil, doc.Paragraph(text))
}

func tableNode(id, name string, rows ...[]string) *doc.Node {
	t := doc.New(doc.TypeTable, doc.Attrs{table.AttrID: id, table.AttrName: name})
	for i, r := range rows {
		typ := doc.TypeTableCell
		if i == 0 {
			typ = doc.TypeTableHeader
		}
		row := doc.New(doc.TypeTableRow, nil)
		for _, v := range r {
			row.Content = append(row.Content, cell(typ, v))
		}
		t.Content = append(t.Content, row)
	}
	return t
}

// sampleDoc lays out as:
//
//	0 p("Hi") 4 table t1 30 p("") 32
func sampleDoc() *doc.Node {
	return doc.New(doc.TypeDoc, nil,
		doc.Paragraph("Hi"),
		tableNode("t1", "Readings", []string{"a", "b"}, []string{"1", "2"}),
		doc.Paragraph(""),
	)
}

func setup(t *testing.T, root *doc.Node) (*Controller, *doc.Editor, *fakeSaver, *fakeReconciler) {
	t.Helper()
	ed := doc.NewEditor(root)
	saver := newFakeSaver()
	rec := &fakeReconciler{}
	c := New("p1", ed, WithSaver(saver), WithReconciler(rec))
	c.Attach()
	t.Cleanup(c.Detach)
	c.Sync(context.Background())
	return c, ed, saver, rec
}

func TestSyncDerivesAndPersists(t *testing.T) {
	c, _, saver, rec := setup(t, sampleDoc())

	snap := c.Snapshot()
	assert.Equal(t, "p1", snap.ProjectID)
	require.Len(t, snap.Tables, 1)
	assert.Equal(t, TableInfo{Pos: 4, ID: "t1", Name: "Readings", Headers: []string{"a", "b"}, Rows: 1}, snap.Tables[0])
	require.NotNil(t, snap.ChartData)
	assert.Equal(t, []string{"a", "b"}, snap.ChartData.Headers)

	rs, ok := c.Context().ChartData()
	require.True(t, ok)
	assert.Equal(t, 1, rs.Len())

	saver.mu.Lock()
	assert.Contains(t, saver.content["p1"], `data-table-id="t1"`)
	assert.Equal(t, []string{"a", "b"}, saver.chartData["p1"].Headers)
	saver.mu.Unlock()

	assert.Equal(t, []TableMirror{{Pos: 4, ID: "t1", Name: "Readings"}}, rec.last())
	assert.Equal(t, Idle, c.State())
}

func TestSyncRunsOnUpdate(t *testing.T) {
	c, ed, _, _ := setup(t, sampleDoc())

	var got []Snapshot
	unsubscribe := c.Subscribe(func(s Snapshot) { got = append(got, s) })
	defer unsubscribe()

	require.NoError(t, ed.InsertContentAt(1, doc.Text("Oh ")))
	require.Len(t, got, 1)
	assert.Equal(t, ed.Version(), got[0].Version)
	assert.Equal(t, 7, got[0].Tables[0].Pos)

	unsubscribe()
	require.NoError(t, ed.InsertContentAt(1, doc.Text("!")))
	assert.Len(t, got, 1)
}

func TestLastTableWins(t *testing.T) {
	root := doc.New(doc.TypeDoc, nil,
		tableNode("t1", "First", []string{"a"}, []string{"1"}),
		tableNode("t2", "Second", []string{"x", "y"}, []string{"5", "6"}, []string{"7", "8"}),
	)
	c, _, _, _ := setup(t, root)

	rs, ok := c.Context().ChartData()
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, rs.Headers)
	assert.Equal(t, 2, rs.Len())
}

func TestNoTablesClearsChartData(t *testing.T) {
	c, ed, saver, _ := setup(t, sampleDoc())
	_, ok := c.Context().ChartData()
	require.True(t, ok)

	require.NoError(t, ed.DeleteNode(4))
	_, ok = c.Context().ChartData()
	assert.False(t, ok)
	assert.Nil(t, c.Snapshot().ChartData)

	saver.mu.Lock()
	defer saver.mu.Unlock()
	assert.True(t, saver.chartData["p1"].IsEmpty())
}

func TestSummaryFollowsTable(t *testing.T) {
	root := doc.New(doc.TypeDoc, nil,
		tableNode("t1", "Readings", []string{"temp"}, []string{"10"}, []string{"20"}, []string{"x"}, []string{"30"}),
	)
	c, ed, _, _ := setup(t, root)

	pos, err := c.InsertSummary(0, "t1", "temp")
	require.NoError(t, err)
	assert.Equal(t, 0, pos)

	snap := c.Snapshot()
	require.Len(t, snap.Summaries, 1)
	sv := snap.Summaries[0]
	assert.Equal(t, stats.Binding{TableID: "t1", TableName: "Readings", ColumnName: "temp"}, sv.Binding)
	require.NotNil(t, sv.Stats)
	assert.Equal(t, 3, sv.Stats.Count)
	assert.InDelta(t, 20, sv.Stats.Mean, 1e-9)
	assert.Contains(t, sv.Text, "(n=3)")

	// the summary sits at 0, so the table starts right after it
	require.NoError(t, ed.DeleteNode(1))
	snap = c.Snapshot()
	require.Len(t, snap.Summaries, 1)
	assert.Nil(t, snap.Summaries[0].Stats)
	assert.Equal(t, stats.AwaitingData, snap.Summaries[0].Text)

	_, err = c.InsertSummary(0, "t1", "temp")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestInsertChartAfterTable(t *testing.T) {
	c, ed, _, _ := setup(t, sampleDoc())

	_, err := c.InsertChartAfterTable(1, chart.Block{})
	assert.ErrorIs(t, err, ErrCursorOutsideTable)

	pos, err := c.InsertChartAfterTable(20, chart.Block{ChartType: chart.Bar})
	require.NoError(t, err)
	assert.Equal(t, 30, pos)

	n, ok := doc.NodeAt(ed.Doc(), 30)
	require.True(t, ok)
	require.Equal(t, doc.TypeGraphBlock, n.Type)
	b := chart.BlockFromAttrs(n.Attrs)
	assert.Equal(t, "t1", b.TableID)
	assert.Equal(t, chart.Bar, b.ChartType)
	assert.Equal(t, "a", b.XAxisKey)
	assert.Equal(t, []string{"b"}, b.SeriesKeys)

	snap := c.Snapshot()
	require.Len(t, snap.Charts, 1)
	res := snap.Charts[0].Resolution
	assert.False(t, res.IsEmpty)
	assert.Len(t, res.PlottedRows, 1)
	assert.Equal(t, "a", res.EffectiveXKey)

	require.NoError(t, ed.DeleteNode(4))
	snap = c.Snapshot()
	require.Len(t, snap.Charts, 1)
	assert.True(t, snap.Charts[0].Resolution.IsEmpty)
}

func TestInsertTable(t *testing.T) {
	c, ed, _, rec := setup(t, sampleDoc())

	_, err := c.InsertTable(0, 0, 2, "")
	assert.ErrorIs(t, err, ErrInvalidTableSize)
	_, err = c.InsertTable(0, 2, -1, "")
	assert.ErrorIs(t, err, ErrInvalidTableSize)

	ref, err := c.InsertTable(1, 3, 2, "")
	require.NoError(t, err)
	assert.Equal(t, 4, ref.Pos)
	assert.Equal(t, table.DefaultName, ref.Name)
	assert.NotEmpty(t, ref.ID)

	tables := table.List(ed.Doc())
	require.Len(t, tables, 2)
	assert.Equal(t, ref.ID, tables[0].ID)
	assert.Len(t, tables[0].Node.Content, 3)

	mirrors := rec.last()
	require.Len(t, mirrors, 2)
	assert.Equal(t, ref.ID, mirrors[0].ID)
	assert.Equal(t, "t1", mirrors[1].ID)
}

func TestInsertTable_ThreeByThree(t *testing.T) {
	c, _, _, _ := setup(t, doc.Empty())

	ref, err := c.InsertTable(0, 3, 3, "")
	require.NoError(t, err)

	snap := c.Snapshot()
	require.Len(t, snap.Tables, 1)
	assert.Equal(t, ref.ID, snap.Tables[0].ID)
	assert.Equal(t, []string{"col0", "col1", "col2"}, snap.Tables[0].Headers)
	assert.Equal(t, 2, snap.Tables[0].Rows)

	rs, ok := c.Context().ChartData()
	require.True(t, ok)
	require.Equal(t, 2, rs.Len())
	for _, row := range rs.Rows {
		assert.Len(t, row, 3)
		assert.Contains(t, row, "col0")
		assert.Contains(t, row, "col2")
	}
}

func TestAssignsMissingTableIDs(t *testing.T) {
	root := doc.New(doc.TypeDoc, nil,
		tableNode("", "", []string{"a"}, []string{"1"}),
	)
	c, ed, _, rec := setup(t, root)

	tables := table.List(ed.Doc())
	require.Len(t, tables, 1)
	assert.NotEmpty(t, tables[0].ID)
	assert.Equal(t, table.DefaultName, tables[0].Name)

	snap := c.Snapshot()
	require.Len(t, snap.Tables, 1)
	assert.Equal(t, tables[0].ID, snap.Tables[0].ID)
	assert.Equal(t, tables[0].ID, rec.last()[0].ID)
}

func TestImportCSV(t *testing.T) {
	c, ed, _, _ := setup(t, doc.Empty())

	res, err := c.ImportCSV(0, strings.NewReader("x,y\n1,2\n3,4\n"), "data.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, res.Headers)
	assert.Equal(t, 2, res.RowSet.Len())

	tables := table.List(ed.Doc())
	require.Len(t, tables, 1)
	assert.Equal(t, "data.csv", tables[0].Name)

	rs, ok := c.Context().ChartData()
	require.True(t, ok)
	assert.Equal(t, []float64{2, 4}, rs.Numbers("y"))

	res, err = c.ImportCSV(0, strings.NewReader(""), "")
	require.NoError(t, err)
	assert.Nil(t, res.Table)
	assert.Len(t, table.List(ed.Doc()), 1)
}

const chartSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="600" height="400">
  <text x="300" y="390">Time</text>
  <text x="10" y="200" transform="rotate(-90)">Temperature</text>
  <text x="500" y="20">Sensor A</text>
  <path class="line" d="M0 0 L10 10"/>
</svg>`

func TestImportSVG(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	t.Run("image", func(t *testing.T) {
		c, ed, _, _ := setup(t, doc.Empty())
		out, err := c.ImportSVG(0, chartSVG, "", ImportImage, rng)
		require.NoError(t, err)
		assert.Nil(t, out.Extraction)

		root := ed.Doc()
		require.Len(t, root.Content, 1)
		assert.Equal(t, doc.TypeImage, root.Content[0].Type)
		assert.True(t, strings.HasPrefix(root.Content[0].StringAttr("src"), "data:image/svg+xml;base64,"))
	})

	t.Run("replace", func(t *testing.T) {
		c, ed, _, _ := setup(t, doc.Empty())
		out, err := c.ImportSVG(0, chartSVG, "chart.svg", ImportReplace, rng)
		require.NoError(t, err)
		require.NotNil(t, out.Extraction)
		assert.Equal(t, "Time", out.Analysis.XLabel())
		assert.Equal(t, "Temperature", out.Analysis.YLabel())

		root := ed.Doc()
		require.Len(t, root.Content, 1)
		assert.Equal(t, doc.TypeTable, root.Content[0].Type)
		_, ok := c.Context().ChartData()
		assert.True(t, ok)
	})

	t.Run("keep both", func(t *testing.T) {
		c, ed, _, _ := setup(t, doc.Empty())
		_, err := c.ImportSVG(0, chartSVG, "chart.svg", ImportKeepBoth, rng)
		require.NoError(t, err)

		root := ed.Doc()
		require.Len(t, root.Content, 3)
		assert.Equal(t, doc.TypeImage, root.Content[0].Type)
		assert.Equal(t, "chart.svg", root.Content[0].StringAttr("src"))
		assert.Equal(t, doc.TypeParagraph, root.Content[1].Type)
		assert.Equal(t, doc.TypeTable, root.Content[2].Type)
	})

	t.Run("unknown mode", func(t *testing.T) {
		c, _, _, _ := setup(t, doc.Empty())
		_, err := c.ImportSVG(0, chartSVG, "", ImportMode("both"), rng)
		assert.ErrorIs(t, err, ErrUnknownImportMode)
	})
}

func TestParseImportMode(t *testing.T) {
	tests := []struct {
		in   string
		want ImportMode
		err  error
	}{
		{"replace", ImportReplace, nil},
		{" Keep-Both ", ImportKeepBoth, nil},
		{"image", ImportImage, nil},
		{"", ImportReplace, nil},
		{"both", "", ErrUnknownImportMode},
	}
	for _, tt := range tests {
		got, err := ParseImportMode(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.err, err, tt.in)
	}
}

func TestCompareTables(t *testing.T) {
	root := doc.New(doc.TypeDoc, nil,
		tableNode("t1", "Before", []string{"k", "v"}, []string{"a", "1"}, []string{"b", "2"}),
		tableNode("t2", "After", []string{"k", "v"}, []string{"a", "3"}, []string{"c", "4"}),
	)
	c, ed, _, _ := setup(t, root)

	_, err := c.CompareTables(0, []string{"t1", ""}, CompareOptions{})
	assert.ErrorIs(t, err, chart.ErrTooFewTables)
	_, err = c.CompareTables(0, []string{"t1", "gone"}, CompareOptions{})
	assert.ErrorIs(t, err, chart.ErrTooFewTables)

	b, err := c.CompareTables(0, []string{"t1", "t2"}, CompareOptions{YAxisLabel: "Value"})
	require.NoError(t, err)
	assert.Equal(t, chart.Bar, b.ChartType)
	assert.Equal(t, chart.CompareXKey, b.XAxisKey)
	assert.Equal(t, []string{"Before", "After"}, b.SeriesKeys)
	assert.Equal(t, 3, b.Data.Len())

	n := ed.Doc().Content[0]
	require.Equal(t, doc.TypeGraphBlock, n.Type)
	assert.Equal(t, "Value", n.StringAttr("yAxisLabel"))

	snap := c.Snapshot()
	require.Len(t, snap.Charts, 1)
	assert.Len(t, snap.Charts[0].Resolution.PlottedRows, 3)
}

func TestCompareTables_DuplicateNames(t *testing.T) {
	root := doc.New(doc.TypeDoc, nil,
		tableNode("t1", "Run", []string{"k", "v"}, []string{"a", "1"}),
		tableNode("t2", "Run", []string{"k", "v"}, []string{"a", "2"}),
		tableNode("t3", "name", []string{"k", "v"}, []string{"a", "3"}),
	)
	c, _, _, _ := setup(t, root)

	b, err := c.CompareTables(0, []string{"t1", "gone", "t2", "t3"}, CompareOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Run", "Run (3)", "name (4)"}, b.SeriesKeys)
	require.Equal(t, 1, b.Data.Len())
	assert.Equal(t, "a", b.Data.Rows[0][chart.CompareXKey])
	assert.Equal(t, 3.0, b.Data.Rows[0]["name (4)"])
}

func TestInsertPdfLink(t *testing.T) {
	c, ed, _, _ := setup(t, sampleDoc())

	pos, err := c.InsertPdfLink(1, "/files/a.pdf", "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
	p := ed.Doc().Content[0]
	require.Len(t, p.Content, 2)
	assert.Equal(t, doc.TypePdfChip, p.Content[0].Type)
	assert.Equal(t, "a.pdf", p.Content[0].StringAttr("fileName"))

	// the paragraph grew by one, so the table now starts at 5
	pos, err = c.InsertPdfLink(5, "/files/b.pdf", "b.pdf")
	require.NoError(t, err)
	assert.Equal(t, 5, pos)
	wrapped := ed.Doc().Content[1]
	require.Equal(t, doc.TypeParagraph, wrapped.Type)
	require.Len(t, wrapped.Content, 1)
	assert.Equal(t, doc.TypePdfChip, wrapped.Content[0].Type)
}

func TestSyncSerializesCycles(t *testing.T) {
	ed := doc.NewEditor(sampleDoc())
	saver := newFakeSaver()
	saver.delay = 5 * time.Millisecond
	c := New("p1", ed, WithSaver(saver))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Sync(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), saver.maxInflight.Load())
	saver.mu.Lock()
	defer saver.mu.Unlock()
	assert.GreaterOrEqual(t, saver.saves, 1)
	assert.LessOrEqual(t, saver.saves, 8)
	assert.Equal(t, Idle, c.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "extracting", Extracting.String())
	assert.Equal(t, "reconciling", Reconciling.String())
	assert.Equal(t, "persisted", Persisted.String())
}

func TestComments(t *testing.T) {
	c, ed, saver, _ := setup(t, doc.New(doc.TypeDoc, nil, doc.Paragraph("Hello world")))

	id, err := c.SetComment(1, 6, "")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, []string{id}, c.Comments())

	para := ed.Doc().Content[0]
	require.Len(t, para.Content, 2)
	assert.Equal(t, "Hello", para.Content[0].Text)
	assert.Equal(t, []doc.Mark{doc.CommentMark(id)}, para.Content[0].Marks)
	assert.Empty(t, para.Content[1].Marks)
	assert.Contains(t, saver.lastContent(), `data-comment-id="`+id+`"`)

	_, err = c.SetComment(7, 12, "review")
	require.NoError(t, err)
	assert.Equal(t, []string{id, "review"}, c.Comments())

	require.NoError(t, c.UnsetComment(id))
	assert.Equal(t, []string{"review"}, c.Comments())
	assert.ErrorIs(t, c.UnsetComment(id), doc.ErrMarkNotFound)

	require.NoError(t, c.UnsetComment("review"))
	para = ed.Doc().Content[0]
	require.Len(t, para.Content, 1)
	assert.Equal(t, "Hello world", para.Content[0].Text)

	_, err = c.SetComment(3, 3, "")
	assert.ErrorIs(t, err, doc.ErrNodeNotFound)
	_, err = c.SetComment(1, 99, "")
	assert.ErrorIs(t, err, doc.ErrInvalidPosition)
}
