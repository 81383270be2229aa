package docsync

import (
	"sync"

	"github.com/emrgen/notebook/internal/rowset"
)

// Context is the working context of one document. It carries the single
// "current chart data" row-set. When a document holds several tables the
// slot holds the last table in document order.
type Context struct {
	mu        sync.RWMutex
	chartData *rowset.RowSet
}

// NewContext creates an empty context.
func NewContext() *Context {
	return &Context{}
}

// ChartData returns the current chart data and whether any is set.
func (c *Context) ChartData() (rowset.RowSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.chartData == nil {
		return rowset.RowSet{}, false
	}
	return *c.chartData, true
}

// SetChartData replaces the current chart data.
func (c *Context) SetChartData(rs rowset.RowSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chartData = &rs
}

// ClearChartData empties the slot.
func (c *Context) ClearChartData() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chartData = nil
}
