package tabular

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/lead-enrich/internal/model"
)

const sampleCSV = `FEIN,Name,Lat,Long,Address,City,State,Zip,Phone,Email1,County,Expdate,Website,name1,phone1,name2,phone2
123456789.0,BUMPER CROP LLC DBA FIG,32.7788,-79.9311,232 Meeting St,Charleston,SC,29401,843-805-5900,info@eatatfig.com,Charleston,2026-12-31,eatatfig.com,Mike Lata,843-555-1111,Adam Nemirow,nan
,,,,,,,,,,,,,,,,
987654321,"ACME, HOLDINGS LLC",nan,,1 Main St,Austin,TX,78701,,,Travis,,,,,,
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadRecords_CSV(t *testing.T) {
	path := writeTemp(t, "leads.csv", sampleCSV)

	records, err := ReadRecords(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 2, "row without name is skipped")

	fig := records[0]
	assert.Equal(t, "123456789", fig.FEIN)
	assert.Equal(t, "BUMPER CROP LLC DBA FIG", fig.LLCName)
	require.NotNil(t, fig.Coordinates)
	assert.InDelta(t, 32.7788, fig.Coordinates.Lat, 1e-9)
	assert.InDelta(t, -79.9311, fig.Coordinates.Lng, 1e-9)
	assert.Equal(t, "info@eatatfig.com", fig.Email)
	assert.Equal(t, "2026-12-31", fig.Expdate)
	assert.Equal(t, []model.PersonInfo{
		{Name: "Mike Lata", Phone: "843-555-1111", Source: model.SourceCSV},
		{Name: "Adam Nemirow", Source: model.SourceCSV},
	}, fig.PersonsFromCSV)

	acme := records[1]
	assert.Equal(t, "ACME, HOLDINGS LLC", acme.LLCName)
	assert.Nil(t, acme.Coordinates)
	assert.False(t, acme.HasCoordinates())
	assert.Equal(t, "Travis", acme.County)
	assert.Empty(t, acme.PersonsFromCSV)
}

func TestReadRecords_MissingFile(t *testing.T) {
	_, err := ReadRecords(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tabular: open")
}

func TestReadRecords_XLSRejected(t *testing.T) {
	_, err := ReadRecords(context.Background(), "old.xls")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".xls is not supported")
}

func TestReadRecords_XLSX(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, values := range [][]string{
		{"fein", "name", "city", "state", "NAME1", "PHONE1"},
		{"111", "FIG LLC", "Charleston", "SC", "Mike Lata", "843-555-1111"},
	} {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}
	path := filepath.Join(t.TempDir(), "leads.xlsx")
	require.NoError(t, f.Save(path))

	records, err := ReadRecords(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "FIG LLC", records[0].LLCName)
	require.Len(t, records[0].PersonsFromCSV, 1)
	assert.Equal(t, "843-555-1111", records[0].PersonsFromCSV[0].Phone)
}

func TestParseRows_Empty(t *testing.T) {
	assert.Nil(t, ParseRows(nil))
	assert.Empty(t, ParseRows([][]string{{"name"}}))
}

func TestParseRows_ShortRowAndBadCoordinate(t *testing.T) {
	records := ParseRows([][]string{
		{"name", "lat", "long", "city"},
		{"FIG LLC", "abc", "-79.9"},
	})
	require.Len(t, records, 1)
	assert.Nil(t, records[0].Coordinates)
	assert.Empty(t, records[0].City)
}

func TestStreamCSV_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rowCh, errCh := StreamCSV(ctx, strings.NewReader("a,b\n1,2\n"), CSVOptions{})
	for range rowCh {
	}
	err := <-errCh
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []string{"A", "B"}, [][]string{{"1", "x,y"}, {"2", ""}}))
	assert.Equal(t, "A,B\n1,\"x,y\"\n2,\n", buf.String())
}

func TestWriteFile_CSVAndXLSX(t *testing.T) {
	dir := t.TempDir()
	header := []string{"FEIN", "Name"}
	rows := [][]string{{"1", "FIG"}, {"2", "Husk"}}

	csvPath := filepath.Join(dir, "out.csv")
	require.NoError(t, WriteFile(csvPath, header, rows))
	got, err := ReadCSV(context.Background(), mustOpen(t, csvPath))
	require.NoError(t, err)
	assert.Equal(t, append([][]string{header}, rows...), got)

	xlsxPath := filepath.Join(dir, "out.XLSX")
	require.NoError(t, WriteFile(xlsxPath, header, rows))
	got, err = ReadXLSX(xlsxPath)
	require.NoError(t, err)
	assert.Equal(t, append([][]string{header}, rows...), got)
}

func TestWriteFile_BadDir(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "missing", "out.csv"), []string{"A"}, nil)
	require.Error(t, err)
}

func mustOpen(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}
