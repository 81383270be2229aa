package csvimport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/emrgen/notebook/internal/rowset"
)

// DefaultPressure is used when a reading has no pressure column.
const DefaultPressure = 100.0

// TempStep is added to a reading's temperature when its chart point is
// clicked.
const TempStep = 2.0

// Reading fields accepted by Edit.
const (
	FieldTime     = "time"
	FieldTemp     = "temp"
	FieldPressure = "pressure"
	FieldOutlier  = "outlier"
)

var (
	ErrReadingNotFound     = errors.New("reading not found")
	ErrInvalidReadingField = errors.New("unknown reading field")
)

var (
	timeAliases     = []string{"time"}
	tempAliases     = []string{"temp", "temperature"}
	pressureAliases = []string{"pressure"}
)

// Reading is one row of the experiment workbench shape.
type Reading struct {
	ID       int     `json:"id"`
	Time     float64 `json:"time"`
	Temp     float64 `json:"temp"`
	Pressure float64 `json:"pressure"`
	Outlier  string  `json:"outlier"`
}

// ToExperiment maps generic rows onto the experiment shape. Column names
// match case-insensitively. A missing time falls back to the row index, a
// missing temperature to zero and a missing pressure to DefaultPressure.
func ToExperiment(rs rowset.RowSet) []Reading {
	timeKey := lookup(rs.Headers, timeAliases)
	tempKey := lookup(rs.Headers, tempAliases)
	pressureKey := lookup(rs.Headers, pressureAliases)

	out := make([]Reading, len(rs.Rows))
	for i, row := range rs.Rows {
		r := Reading{ID: i, Time: float64(i), Pressure: DefaultPressure, Outlier: "No"}
		if v, ok := number(row, timeKey); ok {
			r.Time = v
		}
		if v, ok := number(row, tempKey); ok {
			r.Temp = v
		}
		if v, ok := number(row, pressureKey); ok {
			r.Pressure = v
		}
		out[i] = r
	}
	return out
}

// lookup returns the first header matching any alias, in alias order.
func lookup(headers []string, aliases []string) string {
	for _, alias := range aliases {
		for _, h := range headers {
			if strings.EqualFold(h, alias) {
				return h
			}
		}
	}
	return ""
}

func number(row rowset.Record, key string) (float64, bool) {
	if key == "" {
		return 0, false
	}
	return rowset.Number(row[key])
}

// Edit sets one field of readings[index]. Numeric fields read the leading
// number of value and fall back to zero; the outlier flag keeps value
// verbatim.
func Edit(readings []Reading, index int, field, value string) error {
	if index < 0 || index >= len(readings) {
		return fmt.Errorf("%w: %d", ErrReadingNotFound, index)
	}
	r := &readings[index]
	if field == FieldOutlier {
		r.Outlier = value
		return nil
	}

	n, _ := rowset.ParseLeading(value)
	switch field {
	case FieldTime:
		r.Time = n
	case FieldTemp:
		r.Temp = n
	case FieldPressure:
		r.Pressure = n
	default:
		return fmt.Errorf("%w: %q", ErrInvalidReadingField, field)
	}
	return nil
}

// BumpTemp raises the temperature of readings[index] by TempStep.
func BumpTemp(readings []Reading, index int) error {
	if index < 0 || index >= len(readings) {
		return fmt.Errorf("%w: %d", ErrReadingNotFound, index)
	}
	readings[index].Temp += TempStep
	return nil
}
