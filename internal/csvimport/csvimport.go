// Package csvimport turns delimited text into row-sets and ready-to-insert
// table nodes.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/notebook/internal/doc"
	"github.com/emrgen/notebook/internal/rowset"
	"github.com/emrgen/notebook/internal/table"
)

// MaxTableRows caps the data rows placed into the generated table.
const MaxTableRows = 100

// Options tunes an ingest.
type Options struct {
	// TableName names the generated table; empty uses the table default.
	TableName string
	// MaxRows overrides MaxTableRows when positive.
	MaxRows int
	// Comma overrides the field delimiter when non-zero.
	Comma rune
}

// Result is an ingested CSV document.
type Result struct {
	RowSet      rowset.RowSet
	Headers     []string
	Table       *doc.Node
	TableMarkup string
}

// KeyedRows returns the rows with their positional id field.
func (r *Result) KeyedRows() rowset.RowSet {
	return r.RowSet.WithRowIDs()
}

// Ingest reads a CSV with a header row. Empty lines are skipped, numeric
// fields become numbers and rows the parser cannot read are dropped. Only
// read errors from r are returned.
func Ingest(r io.Reader, opts Options) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}

	var headers []string
	var keys []string
	rs := rowset.RowSet{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if blank(record) {
			continue
		}

		if keys == nil {
			keys = headerKeys(record)
			headers = uniq(keys)
			rs.Headers = headers
			continue
		}

		rec := make(rowset.Record, len(headers))
		for i, key := range keys {
			if i < len(record) {
				rec[key] = rowset.Coerce(record[i])
			} else {
				rec[key] = ""
			}
		}
		rs.Rows = append(rs.Rows, rec)
	}

	limit := MaxTableRows
	if opts.MaxRows > 0 {
		limit = opts.MaxRows
	}

	res := &Result{RowSet: rs, Headers: headers}
	if len(headers) > 0 {
		res.Table = table.FromRowSet(rs, opts.TableName, limit)
		markup, err := doc.RenderHTML(doc.New(doc.TypeDoc, nil, res.Table))
		if err != nil {
			return nil, err
		}
		res.TableMarkup = markup
	}
	return res, nil
}

// IngestFile ingests a file, naming the table after the file.
func IngestFile(path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if opts.TableName == "" {
		opts.TableName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return Ingest(f, opts)
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func headerKeys(record []string) []string {
	keys := make([]string, len(record))
	for i, h := range record {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("col%d", i)
		}
		keys[i] = h
	}
	return keys
}

func uniq(keys []string) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if seen.Add(k) {
			out = append(out, k)
		}
	}
	return out
}
