// Package docsync keeps derived document data in step with edits: every
// change notification re-extracts table data, recomputes summaries and
// chart bindings, reconciles rendered table attributes and persists the
// document.
package docsync

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/emrgen/notebook/internal/chart"
	"github.com/emrgen/notebook/internal/doc"
	"github.com/emrgen/notebook/internal/rowset"
	"github.com/emrgen/notebook/internal/stats"
	"github.com/emrgen/notebook/internal/table"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Surface is the editing surface the controller drives.
type Surface interface {
	Doc() *doc.Node
	Version() uint64
	Selection() doc.Selection
	Chain() *doc.Chain
	On(event doc.Event, fn doc.Listener) (off func())
}

var _ Surface = (*doc.Editor)(nil)

// Saver persists document content. It is owned by the caller.
type Saver interface {
	SaveContent(ctx context.Context, projectID string, html string) error
	SaveChartData(ctx context.Context, projectID string, rs rowset.RowSet) error
}

// TableMirror is the attribute pair every rendered table element must carry.
type TableMirror struct {
	Pos  int    `json:"pos"`
	ID   string `json:"tableId"`
	Name string `json:"tableName"`
}

// Reconciler re-applies table attributes onto rendered table elements.
type Reconciler interface {
	Reconcile(projectID string, mirrors []TableMirror)
}

// State is the phase of a sync cycle.
type State int32

const (
	Idle State = iota
	Extracting
	Reconciling
	Persisted
)

func (s State) String() string {
	switch s {
	case Extracting:
		return "extracting"
	case Reconciling:
		return "reconciling"
	case Persisted:
		return "persisted"
	default:
		return "idle"
	}
}

// TableInfo describes one table of the document.
type TableInfo struct {
	Pos     int      `json:"pos"`
	ID      string   `json:"tableId"`
	Name    string   `json:"tableName"`
	Headers []string `json:"headers"`
	Rows    int      `json:"rows"`
}

// SummaryView is the derived state of a summary block.
type SummaryView struct {
	Pos     int           `json:"pos"`
	Binding stats.Binding `json:"binding"`
	Stats   *stats.Stats  `json:"stats"`
	Text    string        `json:"text"`
}

// ChartView is the derived state of a chart block.
type ChartView struct {
	Pos        int              `json:"pos"`
	Block      chart.Block      `json:"block"`
	Resolution chart.Resolution `json:"resolution"`
}

// Snapshot is everything derived by the last completed cycle.
type Snapshot struct {
	ProjectID string         `json:"projectId"`
	Version   uint64         `json:"version"`
	ChartData *rowset.RowSet `json:"chartData"`
	Tables    []TableInfo    `json:"tables"`
	Summaries []SummaryView  `json:"summaries"`
	Charts    []ChartView    `json:"charts"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithSaver sets the persistence callbacks.
func WithSaver(s Saver) Option {
	return func(c *Controller) { c.saver = s }
}

// WithReconciler sets the rendered-attribute reconciler.
func WithReconciler(r Reconciler) Option {
	return func(c *Controller) { c.reconciler = r }
}

// WithContext shares a working context.
func WithContext(ctx *Context) Option {
	return func(c *Controller) { c.wctx = ctx }
}

// WithMaxTableRows caps the rows of tables created by imports.
func WithMaxTableRows(n int) Option {
	return func(c *Controller) { c.maxTableRows = n }
}

// Controller runs sync cycles for one document.
type Controller struct {
	projectID    string
	surface      Surface
	saver        Saver
	reconciler   Reconciler
	wctx         *Context
	maxTableRows int

	cycle   sync.Mutex
	pending atomic.Bool
	state   atomic.Int32

	mu       sync.RWMutex
	snapshot Snapshot
	off      func()

	smu         sync.Mutex
	nextSub     int
	subscribers map[int]func(Snapshot)
}

// New creates a controller for the document behind surface.
func New(projectID string, surface Surface, opts ...Option) *Controller {
	c := &Controller{
		projectID:   projectID,
		surface:     surface,
		wctx:        NewContext(),
		subscribers: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.snapshot = Snapshot{ProjectID: projectID}
	return c
}

// Attach subscribes the controller to document updates.
func (c *Controller) Attach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.off != nil {
		return
	}
	c.off = c.surface.On(doc.EventUpdate, func(doc.Transaction) {
		c.Sync(context.Background())
	})
}

// Detach stops reacting to document updates.
func (c *Controller) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.off != nil {
		c.off()
		c.off = nil
	}
}

// Context returns the working context.
func (c *Controller) Context() *Context {
	return c.wctx
}

// State returns the phase of the running cycle.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Snapshot returns the result of the last completed cycle.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Subscribe registers fn to receive every new snapshot.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.smu.Lock()
	defer c.smu.Unlock()
	c.nextSub++
	id := c.nextSub
	c.subscribers[id] = fn
	return func() {
		c.smu.Lock()
		defer c.smu.Unlock()
		delete(c.subscribers, id)
	}
}

// Sync runs a cycle. Only one cycle runs at a time; a call arriving while
// one is in flight marks the controller pending and the running cycle
// derives once more before returning.
func (c *Controller) Sync(ctx context.Context) {
	c.pending.Store(true)
	for {
		if !c.cycle.TryLock() {
			return
		}
		for c.pending.Swap(false) {
			c.run(ctx)
		}
		c.cycle.Unlock()
		if !c.pending.Load() {
			return
		}
	}
}

func (c *Controller) setState(s State, version uint64) {
	c.state.Store(int32(s))
	logrus.WithFields(logrus.Fields{
		"project": c.projectID,
		"state":   s.String(),
		"version": version,
	}).Debug("sync")
}

type derived struct {
	tables    []table.Ref
	summaries []SummaryView
	charts    []ChartView
	chartData *rowset.RowSet
	infos     []TableInfo
}

// derive walks the document once and recomputes everything bound to it.
func derive(root *doc.Node) derived {
	var d derived
	doc.Descendants(root, func(n *doc.Node, pos int, _ *doc.Node, _ int) bool {
		switch n.Type {
		case doc.TypeTable:
			rs := table.Extract(n)
			ref := table.Ref{ID: n.StringAttr(table.AttrID), Name: n.StringAttr(table.AttrName), Pos: pos, Node: n}
			d.tables = append(d.tables, ref)
			d.infos = append(d.infos, TableInfo{Pos: pos, ID: ref.ID, Name: ref.Name, Headers: rs.Headers, Rows: rs.Len()})
			d.chartData = &rs
		case doc.TypeSmartSummary:
			b := stats.BindingFromAttrs(n.Attrs)
			s := stats.Summarize(root, b)
			d.summaries = append(d.summaries, SummaryView{Pos: pos, Binding: b, Stats: s, Text: s.Format()})
		case doc.TypeGraphBlock:
			b := chart.BlockFromAttrs(n.Attrs)
			d.charts = append(d.charts, ChartView{Pos: pos, Block: b, Resolution: chart.Resolve(chartRows(root, b), b.Binding())})
		}
		return true
	})
	return d
}

// chartRows is the row-set a chart plots: its bound table when it has one,
// else its own data snapshot.
func chartRows(root *doc.Node, b chart.Block) rowset.RowSet {
	if b.TableID != "" {
		if ref, ok := table.Find(root, b.TableID); ok {
			return table.Extract(ref.Node)
		}
		return rowset.RowSet{}
	}
	return b.Data
}

func (c *Controller) run(ctx context.Context) {
	root := c.surface.Doc()
	version := c.surface.Version()

	c.setState(Extracting, version)
	d := derive(root)
	if d.chartData != nil {
		c.wctx.SetChartData(*d.chartData)
	} else {
		c.wctx.ClearChartData()
	}

	c.setState(Reconciling, version)
	if c.assignMissingIDs(d.tables) {
		// the id assignment produced another update which marked us pending
		c.setState(Idle, version)
		return
	}
	c.reconcile(d.tables)

	c.setState(Persisted, version)
	c.persist(ctx, root, d.chartData)

	snap := Snapshot{
		ProjectID: c.projectID,
		Version:   version,
		ChartData: d.chartData,
		Tables:    d.infos,
		Summaries: d.summaries,
		Charts:    d.charts,
	}
	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()
	c.publish(snap)

	c.setState(Idle, version)
}

// assignMissingIDs gives every table without an id a fresh one.
func (c *Controller) assignMissingIDs(tables []table.Ref) bool {
	chain := c.surface.Chain()
	changed := false
	for _, ref := range tables {
		if ref.ID != "" {
			continue
		}
		attrs := doc.Attrs{table.AttrID: uuid.NewString()}
		if ref.Name == "" {
			attrs[table.AttrName] = table.DefaultName
		}
		chain.UpdateAttributes(ref.Pos, doc.TypeTable, attrs)
		changed = true
	}
	if !changed {
		return false
	}
	if err := chain.Run(); err != nil {
		logrus.Errorf("assign table ids for project %s: %v", c.projectID, err)
		return false
	}
	c.pending.Store(true)
	return true
}

func (c *Controller) reconcile(tables []table.Ref) {
	if c.reconciler == nil {
		return
	}
	mirrors := make([]TableMirror, 0, len(tables))
	for _, ref := range tables {
		mirrors = append(mirrors, TableMirror{Pos: ref.Pos, ID: ref.ID, Name: ref.Name})
	}
	c.reconciler.Reconcile(c.projectID, mirrors)
}

// Reconcile pushes the table attributes of the current document to the
// reconciler.
func (c *Controller) Reconcile() {
	c.reconcile(table.List(c.surface.Doc()))
}

func (c *Controller) persist(ctx context.Context, root *doc.Node, chartData *rowset.RowSet) {
	if c.saver == nil {
		return
	}
	html, err := doc.RenderHTML(root)
	if err != nil {
		logrus.Errorf("render project %s: %v", c.projectID, err)
		return
	}
	if err := c.saver.SaveContent(ctx, c.projectID, html); err != nil {
		logrus.Errorf("save content of project %s: %v", c.projectID, err)
	}
	data := rowset.RowSet{}
	if chartData != nil {
		data = *chartData
	}
	if err := c.saver.SaveChartData(ctx, c.projectID, data); err != nil {
		logrus.Errorf("save chart data of project %s: %v", c.projectID, err)
	}
}

func (c *Controller) publish(snap Snapshot) {
	c.smu.Lock()
	subs := make([]func(Snapshot), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.smu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
