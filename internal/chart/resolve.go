package chart

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/notebook/internal/rowset"
)

// Binding selects what a chart plots from a row-set.
type Binding struct {
	XAxisKey   string
	SeriesKeys []string
	Legends    []string
	RowLimit   int
}

// Resolution is what a chart renders. When IsEmpty is set the chart shows
// a placeholder instead.
type Resolution struct {
	PlottedRows         []rowset.Record `json:"plottedRows"`
	EffectiveXKey       string          `json:"effectiveXKey"`
	EffectiveSeriesKeys []string        `json:"effectiveSeriesKeys"`
	IsEmpty             bool            `json:"isEmpty"`
	// Missing lists the bound keys the row-set does not carry.
	Missing []string `json:"missing,omitempty"`
}

// Resolve applies a binding to a row-set. It never fails; anything that
// cannot be plotted yields an empty resolution.
func Resolve(rs rowset.RowSet, b Binding) Resolution {
	limit := b.RowLimit
	if limit > rs.Len() {
		limit = rs.Len()
	}
	if limit < 0 {
		limit = 0
	}

	res := Resolution{
		PlottedRows:         rs.Rows[:limit:limit],
		EffectiveXKey:       b.XAxisKey,
		EffectiveSeriesKeys: b.SeriesKeys,
	}
	if res.EffectiveXKey == "" && rs.Len() > 0 && len(rs.Headers) > 0 {
		res.EffectiveXKey = rs.Headers[0]
	}
	if len(res.EffectiveSeriesKeys) == 0 {
		res.EffectiveSeriesKeys = b.Legends
	}
	if res.EffectiveSeriesKeys == nil {
		res.EffectiveSeriesKeys = []string{}
	}
	if res.PlottedRows == nil {
		res.PlottedRows = []rowset.Record{}
	}

	if !rs.IsEmpty() {
		have := mapset.NewThreadUnsafeSet(rs.Headers...)
		for _, key := range append([]string{res.EffectiveXKey}, res.EffectiveSeriesKeys...) {
			if key != "" && !have.Contains(key) {
				res.Missing = append(res.Missing, key)
			}
		}
	}

	res.IsEmpty = res.EffectiveXKey == "" ||
		len(res.EffectiveSeriesKeys) == 0 ||
		len(res.PlottedRows) == 0 ||
		len(res.Missing) > 0
	return res
}
