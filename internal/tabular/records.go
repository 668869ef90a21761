package tabular

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/moby/sys/atomicwriter"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/model"
)

// maxInlineContacts is the number of nameN/phoneN column pairs read per row.
const maxInlineContacts = 10

// ReadRecords loads path (.csv, or .xlsx by extension) into records. Rows
// without a legal name are skipped with a warning.
func ReadRecords(ctx context.Context, path string) ([]*model.RestaurantRecord, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = ReadXLSX(path)
	case ".xls":
		return nil, eris.Errorf("tabular: legacy .xls is not supported, save %s as .xlsx", path)
	default:
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "tabular: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		rows, err = ReadCSV(ctx, f)
	}
	if err != nil {
		return nil, err
	}

	return ParseRows(rows), nil
}

// ParseRows maps a header row plus data rows to records.
func ParseRows(rows [][]string) []*model.RestaurantRecord {
	if len(rows) == 0 {
		return nil
	}

	idx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.ToLower(strings.TrimSpace(h))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}

	records := make([]*model.RestaurantRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		rec := parseRow(idx, row)
		if rec == nil {
			zap.L().Warn("tabular: skipping row without name", zap.Int("row", n+2))
			continue
		}
		records = append(records, rec)
	}
	return records
}

func parseRow(idx map[string]int, row []string) *model.RestaurantRecord {
	get := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return clean(row[i])
	}

	rec := &model.RestaurantRecord{
		FEIN:    cleanFEIN(get("fein")),
		LLCName: get("name"),
		Address: get("address"),
		City:    get("city"),
		State:   get("state"),
		Zip:     get("zip"),
		Phone:   get("phone"),
		Email:   get("email1"),
		County:  get("county"),
		Expdate: get("expdate"),
		Website: get("website"),
	}
	if rec.LLCName == "" {
		return nil
	}

	lat, latOK := parseFloat(get("lat"))
	lng, lngOK := parseFloat(get("long"))
	if latOK && lngOK {
		rec.Coordinates = &model.Coordinates{Lat: lat, Lng: lng}
	}

	for i := 1; i <= maxInlineContacts; i++ {
		name := get(fmt.Sprintf("name%d", i))
		if name == "" {
			continue
		}
		rec.PersonsFromCSV = append(rec.PersonsFromCSV, model.PersonInfo{
			Name:   name,
			Phone:  get(fmt.Sprintf("phone%d", i)),
			Source: model.SourceCSV,
		})
	}
	return rec
}

// clean trims s and maps spreadsheet null markers to "".
func clean(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
		return ""
	}
	return s
}

// cleanFEIN drops the ".0" a float-typed column leaves behind.
func cleanFEIN(s string) string {
	return strings.TrimSuffix(s, ".0")
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		zap.L().Warn("tabular: invalid coordinate", zap.String("value", s))
		return 0, false
	}
	return f, true
}

// WriteFile writes header and rows to path as XLSX when the extension is
// .xlsx and as CSV otherwise. CSV output replaces path atomically.
func WriteFile(path string, header []string, rows [][]string) error {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return WriteXLSX(path, header, rows)
	}

	w, err := atomicwriter.New(path, 0o644)
	if err != nil {
		return eris.Wrapf(err, "tabular: create %s", path)
	}
	if err := WriteCSV(w, header, rows); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return eris.Wrapf(err, "tabular: commit %s", path)
	}
	return nil
}
