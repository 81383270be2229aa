package svg

import (
	"math"
	"math/rand/v2"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/notebook/internal/rowset"
)

const (
	DefaultXAxisLabel = "Unknown X-Axis"
	DefaultYAxisLabel = "Unknown Y-Axis"
	DefaultSeries     = "Series 1"

	// SyntheticRows is the row count generated when the chart carries no
	// literal points.
	SyntheticRows = 15
)

// Extraction is the importable data recovered from an analysis.
type Extraction struct {
	RowSet     rowset.RowSet `json:"rows"`
	XAxisLabel string        `json:"xAxisLabel"`
	YAxisLabel string        `json:"yAxisLabel"`
	Legends    []string      `json:"legends"`
	// Synthesized is set when any value in RowSet was generated rather
	// than read from the markup.
	Synthesized bool `json:"synthesized"`
	// SynthesizedColumns names the columns holding generated values.
	SynthesizedColumns []string `json:"synthesizedColumns,omitempty"`
}

// Synthesize builds a row-set from an analysis. Literal points fill the x
// column and the first legend; every other value is drawn from rng in
// [0, 100) rounded to two decimals and flagged as synthesized. Without
// literal points SyntheticRows rows with x = 0..14 are generated.
func Synthesize(a Analysis, rng *rand.Rand) Extraction {
	x := a.XLabel()
	if x == "" {
		x = DefaultXAxisLabel
	}
	y := a.YLabel()
	if y == "" {
		y = DefaultYAxisLabel
	}
	legends := a.Legends
	if len(legends) == 0 {
		legends = []string{DefaultSeries}
	}

	out := Extraction{
		XAxisLabel: x,
		YAxisLabel: y,
		Legends:    legends,
		RowSet:     rowset.RowSet{Headers: headers(x, legends)},
	}

	random := func() float64 {
		return math.Round(rng.Float64()*100*100) / 100
	}

	if len(a.DataPoints) > 0 {
		for _, p := range a.DataPoints {
			row := rowset.Record{x: p.X}
			for i, legend := range legends {
				if i == 0 {
					row[legend] = p.Y
				} else {
					row[legend] = random()
				}
			}
			out.RowSet.Rows = append(out.RowSet.Rows, row)
		}
		if len(legends) > 1 {
			out.Synthesized = true
			out.SynthesizedColumns = append([]string(nil), legends[1:]...)
		}
		return out
	}

	for i := 0; i < SyntheticRows; i++ {
		row := rowset.Record{x: float64(i)}
		for _, legend := range legends {
			row[legend] = random()
		}
		out.RowSet.Rows = append(out.RowSet.Rows, row)
	}
	out.Synthesized = true
	out.SynthesizedColumns = append([]string(nil), legends...)
	return out
}

func headers(x string, legends []string) []string {
	seen := mapset.NewThreadUnsafeSet(x)
	out := []string{x}
	for _, l := range legends {
		if seen.Add(l) {
			out = append(out, l)
		}
	}
	return out
}
