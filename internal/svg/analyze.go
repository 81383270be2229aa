// Package svg infers chart structure (axis labels, legends, series count
// and literal data points) from rendered SVG charts.
package svg

import (
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/emrgen/notebook/internal/rowset"
)

const (
	defaultWidth  = 600.0
	defaultHeight = 400.0
)

// Point is a literal data point read from data-x / data-y attributes.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Analysis is the structure inferred from an SVG chart. Axis labels are
// nil when not detected.
type Analysis struct {
	XAxisLabel  *string  `json:"xAxisLabel"`
	YAxisLabel  *string  `json:"yAxisLabel"`
	Legends     []string `json:"legends"`
	DataPoints  []Point  `json:"dataPoints"`
	SeriesCount int      `json:"seriesCount"`
	// Labels lists every non-numeric text label in document order.
	Labels []string `json:"allLabels"`
}

// XLabel returns the detected x axis label, or "".
func (a Analysis) XLabel() string {
	if a.XAxisLabel == nil {
		return ""
	}
	return *a.XAxisLabel
}

// YLabel returns the detected y axis label, or "".
func (a Analysis) YLabel() string {
	if a.YAxisLabel == nil {
		return ""
	}
	return *a.YAxisLabel
}

func empty() Analysis {
	return Analysis{Legends: []string{}, DataPoints: []Point{}, Labels: []string{}, SeriesCount: 1}
}

type textNode struct {
	text      string
	x, y      float64
	transform string
}

var (
	rotateRe  = regexp.MustCompile(`(?i)rotate`)
	decimalRe = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	radixRe   = regexp.MustCompile(`^0([xX][0-9a-fA-F]+|[bB][01]+|[oO][0-7]+)$`)
)

// isNumeric reports whether a text element is a tick value rather than a
// label: a decimal literal or an unsigned hex, binary or octal integer.
// Infinity spellings are labels.
func isNumeric(s string) bool {
	return decimalRe.MatchString(s) || radixRe.MatchString(s)
}

func hasClass(attrs []xml.Attr, class string) bool {
	for _, f := range strings.Fields(attrValue(attrs, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attrValue(attrs []xml.Attr, name string) string {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func hasAttr(attrs []xml.Attr, name string) bool {
	for _, a := range attrs {
		if a.Name.Local == name {
			return true
		}
	}
	return false
}

type scan struct {
	width, height float64
	sized         bool
	texts         []textNode
	paths         int
	polylines     int
	dataPoints    int
	points        []Point
}

// Analyze infers chart structure from SVG markup. It never fails: markup
// that cannot be parsed yields the empty analysis with a series count of 1.
func Analyze(markup string) Analysis {
	s, err := walk(markup)
	if err != nil {
		return empty()
	}

	var labels []textNode
	for _, t := range s.texts {
		if !isNumeric(t.text) {
			labels = append(labels, t)
		}
	}

	out := empty()
	for _, l := range labels {
		out.Labels = append(out.Labels, l.text)
	}

	var xLabel, yLabel string
	for _, l := range labels {
		if rotateRe.MatchString(l.transform) {
			yLabel = l.text
			break
		}
	}
	if yLabel == "" {
		var left []textNode
		for _, l := range labels {
			if l.x < s.width*0.15 {
				left = append(left, l)
			}
		}
		sort.SliceStable(left, func(i, j int) bool { return left[i].x < left[j].x })
		if len(left) > 0 {
			yLabel = left[0].text
		}
	}

	var bottom []textNode
	for _, l := range labels {
		if l.y > s.height*0.8 && l.text != yLabel {
			bottom = append(bottom, l)
		}
	}
	sort.SliceStable(bottom, func(i, j int) bool { return bottom[i].y > bottom[j].y })
	if len(bottom) > 0 {
		xLabel = bottom[0].text
	}
	if xLabel != "" {
		out.XAxisLabel = &xLabel
	}
	if yLabel != "" {
		out.YAxisLabel = &yLabel
	}

	for _, l := range labels {
		if l.text != xLabel && l.text != yLabel {
			out.Legends = append(out.Legends, l.text)
		}
	}

	out.SeriesCount = max(s.paths, s.polylines, s.dataPoints, 1)
	if len(s.points) > 0 {
		out.DataPoints = s.points
	}
	return out
}

// walk tokenizes the markup once, collecting text labels, shape counts and
// literal points.
func walk(markup string) (*scan, error) {
	s := &scan{width: defaultWidth, height: defaultHeight}
	dec := xml.NewDecoder(strings.NewReader(markup))
	dec.Strict = true

	// open text elements collecting character data
	var open []*textNode
	seenElement := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			seenElement = true
			s.element(t)
			if t.Name.Local == "text" {
				x, _ := rowset.ParseLeading(attrValue(t.Attr, "x"))
				y, _ := rowset.ParseLeading(attrValue(t.Attr, "y"))
				open = append(open, &textNode{x: x, y: y, transform: attrValue(t.Attr, "transform")})
			}
		case xml.CharData:
			for _, n := range open {
				n.text += string(t)
			}
		case xml.EndElement:
			if t.Name.Local == "text" && len(open) > 0 {
				n := open[len(open)-1]
				open = open[:len(open)-1]
				n.text = strings.TrimSpace(n.text)
				if n.text != "" {
					s.texts = append(s.texts, *n)
				}
			}
		}
	}
	if !seenElement {
		return nil, errors.New("svg: no elements")
	}
	return s, nil
}

func (s *scan) element(t xml.StartElement) {
	switch t.Name.Local {
	case "svg":
		if !s.sized {
			s.sized = true
			s.width, s.height = viewSize(t.Attr)
		}
	case "path":
		if !strings.Contains(attrValue(t.Attr, "class"), "axis") {
			s.paths++
		}
	case "polyline":
		s.polylines++
	}
	if hasClass(t.Attr, "data-point") {
		s.dataPoints++
	}
	if hasAttr(t.Attr, "data-x") && hasAttr(t.Attr, "data-y") {
		x, xok := rowset.ParseLeading(attrValue(t.Attr, "data-x"))
		y, yok := rowset.ParseLeading(attrValue(t.Attr, "data-y"))
		if xok && yok {
			s.points = append(s.points, Point{X: x, Y: y})
		}
	}
}

// viewSize reads the view width and height from viewBox, then from the
// width and height attributes, falling back to 600x400.
func viewSize(attrs []xml.Attr) (float64, float64) {
	w, h := defaultWidth, defaultHeight
	if vb := strings.Fields(strings.ReplaceAll(attrValue(attrs, "viewBox"), ",", " ")); len(vb) == 4 {
		if v, err := strconv.ParseFloat(vb[2], 64); err == nil && v > 0 {
			w = v
		}
		if v, err := strconv.ParseFloat(vb[3], 64); err == nil && v > 0 {
			h = v
		}
		return w, h
	}
	if v, ok := rowset.ParseLeading(attrValue(attrs, "width")); ok && v > 0 {
		w = v
	}
	if v, ok := rowset.ParseLeading(attrValue(attrs, "height")); ok && v > 0 {
		h = v
	}
	return w, h
}
