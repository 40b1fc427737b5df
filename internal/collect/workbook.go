package collect

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pbnjay/grate"
	_ "github.com/pbnjay/grate/simple"
	_ "github.com/pbnjay/grate/xls"
	_ "github.com/pbnjay/grate/xlsx"

	"benritz/bondmetrics/internal/types"
)

// WorkbookColumns is the expected column order of a bond workbook.
var WorkbookColumns = append([]string{"id"}, types.ParamNames...)

// LoadWorkbook reads bond rows (id, face_value, coupon_rate, ytm, years,
// frequency) from every sheet of an xls, xlsx, csv or tsv file. A leading
// header row is skipped and blank rows are ignored. Rows that fail to parse are
// returned as entries carrying the validation error.
func LoadWorkbook(path string) ([]Entry, error) {
	wb, err := grate.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer wb.Close()

	source := filepath.Base(path)

	sheets, err := wb.List()
	if err != nil {
		return nil, err
	}

	var entries []Entry

	for _, sheetName := range sheets {
		sheet, err := wb.Get(sheetName)
		if err != nil {
			return nil, err
		}

		line := 0
		for sheet.Next() {
			line++
			row := trimRow(sheet.Strings())

			if len(row) == 0 {
				continue
			}

			if line == 1 && isHeader(row) {
				continue
			}

			entries = append(entries, parseRow(source, line, row))
		}

		if err := sheet.Err(); err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
		}
	}

	return entries, nil
}

func parseRow(source string, line int, row []string) Entry {
	e := Entry{Source: source, Line: line}

	if len(row) != len(WorkbookColumns) {
		e.Err = fmt.Errorf("%w: line %d: %w: expected %d columns, got %d",
			ErrInvalidRow, line, types.ErrWrongArity, len(WorkbookColumns), len(row))
		return e
	}

	e.ID = row[0]

	p, err := types.ParseParams(row[1:])
	if err != nil {
		e.Err = fmt.Errorf("%w: line %d: %w", ErrInvalidRow, line, err)
		return e
	}

	e.Params = p
	return e
}

// trimRow trims cells and drops trailing empty cells; an all-empty row becomes nil.
func trimRow(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = strings.TrimSpace(cell)
	}

	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func isHeader(row []string) bool {
	if len(row) < 2 {
		return false
	}
	_, err := strconv.ParseFloat(row[1], 64)
	return err != nil
}
