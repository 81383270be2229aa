package csvimport

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/emrgen/notebook/internal/doc"
	"github.com/emrgen/notebook/internal/rowset"
	"github.com/emrgen/notebook/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngest(t *testing.T) {
	input := "time,temp,label\n1,20.5,warm\n\n2,21,\n3,x,cold\n"

	res, err := Ingest(strings.NewReader(input), Options{TableName: "Run"})
	require.NoError(t, err)

	assert.Equal(t, []string{"time", "temp", "label"}, res.Headers)
	assert.Equal(t, []rowset.Record{
		{"time": 1.0, "temp": 20.5, "label": "warm"},
		{"time": 2.0, "temp": 21.0, "label": ""},
		{"time": 3.0, "temp": "x", "label": "cold"},
	}, res.RowSet.Rows)

	keyed := res.KeyedRows()
	assert.Equal(t, 0, keyed.Rows[0][rowset.IDKey])
	assert.Equal(t, 2, keyed.Rows[2][rowset.IDKey])

	require.NotNil(t, res.Table)
	assert.Equal(t, "Run", res.Table.StringAttr(table.AttrName))
	assert.Equal(t, res.RowSet, table.Extract(res.Table))
	assert.Contains(t, res.TableMarkup, `data-table-name="Run"`)
	assert.Contains(t, res.TableMarkup, `<th><p>time</p></th>`)
}

func TestIngest_ExperimentColumns(t *testing.T) {
	res, err := Ingest(strings.NewReader("time,temp,pressure\n1,20,101\n2,22,100\n"), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"time", "temp", "pressure"}, res.Headers)
	assert.Equal(t, []rowset.Record{
		{"time": 1.0, "temp": 20.0, "pressure": 101.0},
		{"time": 2.0, "temp": 22.0, "pressure": 100.0},
	}, res.RowSet.Rows)
}

func TestIngest_RaggedRows(t *testing.T) {
	res, err := Ingest(strings.NewReader("a,b\n1\n1,2,3\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []rowset.Record{
		{"a": 1.0, "b": ""},
		{"a": 1.0, "b": 2.0},
	}, res.RowSet.Rows)
}

func TestIngest_TableIsCapped(t *testing.T) {
	var b strings.Builder
	b.WriteString("n\n")
	for i := 0; i < 150; i++ {
		b.WriteString(strconv.Itoa(i) + "\n")
	}

	res, err := Ingest(strings.NewReader(b.String()), Options{})
	require.NoError(t, err)
	assert.Equal(t, 150, res.RowSet.Len())
	assert.Len(t, res.Table.Content, MaxTableRows+1)
	assert.Equal(t, table.DefaultName, res.Table.StringAttr(table.AttrName))

	small, err := Ingest(strings.NewReader(b.String()), Options{MaxRows: 5})
	require.NoError(t, err)
	assert.Len(t, small.Table.Content, 6)
}

func TestIngest_Empty(t *testing.T) {
	res, err := Ingest(strings.NewReader(""), Options{})
	require.NoError(t, err)
	assert.True(t, res.RowSet.IsEmpty())
	assert.Nil(t, res.Table)
	assert.Empty(t, res.TableMarkup)
}

func TestIngest_Semicolons(t *testing.T) {
	res, err := Ingest(strings.NewReader("x;y\n1;2\n"), Options{Comma: ';'})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, res.Headers)
	assert.Equal(t, 2.0, res.RowSet.Rows[0]["y"])
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestIngest_ReadError(t *testing.T) {
	_, err := Ingest(failingReader{}, Options{})
	assert.ErrorContains(t, err, "disk on fire")
}

func TestIngestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.csv")
	require.NoError(t, os.WriteFile(path, []byte("\ufeffTime,Temp\n0,1\n"), 0o644))

	res, err := IngestFile(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Time", "Temp"}, res.Headers)
	assert.Equal(t, "readings", res.Table.StringAttr(table.AttrName))

	parsed, err := doc.ParseHTML(res.TableMarkup)
	require.NoError(t, err)
	require.Len(t, parsed.Content, 1)
	assert.Equal(t, res.RowSet, table.Extract(parsed.Content[0]))
}

func TestToExperiment(t *testing.T) {
	res, err := Ingest(strings.NewReader("Time,Temperature,Pressure\n5,20,0\n,21,\n"), Options{})
	require.NoError(t, err)

	readings := ToExperiment(res.RowSet)
	assert.Equal(t, []Reading{
		{ID: 0, Time: 5, Temp: 20, Pressure: 0, Outlier: "No"},
		{ID: 1, Time: 1, Temp: 21, Pressure: DefaultPressure, Outlier: "No"},
	}, readings)

	noPressure, err := Ingest(strings.NewReader("temp\n7\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []Reading{{ID: 0, Time: 0, Temp: 7, Pressure: 100, Outlier: "No"}}, ToExperiment(noPressure.RowSet))
}

func TestEdit(t *testing.T) {
	readings := []Reading{{ID: 0, Time: 1, Temp: 20, Pressure: 100, Outlier: "No"}}

	require.NoError(t, Edit(readings, 0, FieldTemp, "23.5"))
	require.NoError(t, Edit(readings, 0, FieldTime, "4s"))
	require.NoError(t, Edit(readings, 0, FieldPressure, "high"))
	require.NoError(t, Edit(readings, 0, FieldOutlier, "Yes"))
	assert.Equal(t, Reading{ID: 0, Time: 4, Temp: 23.5, Pressure: 0, Outlier: "Yes"}, readings[0])

	assert.ErrorIs(t, Edit(readings, 1, FieldTemp, "1"), ErrReadingNotFound)
	assert.ErrorIs(t, Edit(readings, -1, FieldTemp, "1"), ErrReadingNotFound)
	assert.ErrorIs(t, Edit(readings, 0, "id", "7"), ErrInvalidReadingField)
	assert.Equal(t, 0, readings[0].ID)
}

func TestBumpTemp(t *testing.T) {
	readings := []Reading{{Temp: 20}, {Temp: 1.5}}

	require.NoError(t, BumpTemp(readings, 1))
	assert.Equal(t, 20.0, readings[0].Temp)
	assert.Equal(t, 3.5, readings[1].Temp)
	assert.ErrorIs(t, BumpTemp(readings, 2), ErrReadingNotFound)
}
