package parse

import (
	"context"

	"github.com/xuri/excelize/v2"
)

// SheetTable is one parsed worksheet.
type SheetTable struct {
	Name string `json:"name"`
	TablePayload
}

// SpreadsheetPayload is the "spreadsheet" result shape. SheetNames always
// enumerates every sheet; Sheets holds only what was parsed.
type SpreadsheetPayload struct {
	SheetNames []string     `json:"sheet_names"`
	Sheets     []SheetTable `json:"sheets"`
}

// SpreadsheetCodec handles Excel workbooks via excelize. By default only the
// first sheet is parsed; a named sheet or all sheets are explicit options,
// never a hidden default. Rows stream through the same accumulator as the
// CSV codec, so memory is bounded by max_rows per sheet.
type SpreadsheetCodec struct{}

func (c *SpreadsheetCodec) Kind() string { return TypeSpreadsheet }

func (c *SpreadsheetCodec) Extensions() []string { return []string{".xlsx", ".xlsm"} }

func (c *SpreadsheetCodec) Describe() FormatInfo {
	return FormatInfo{
		Description: "Excel workbooks (XLSX, XLSM)",
		Features:    []string{"sheet enumeration", "column types", "numeric summary statistics", "max_rows preview", "all_sheets option"},
	}
}

func (c *SpreadsheetCodec) Parse(ctx context.Context, fd *FileDescriptor, b Bounds) (*Result, error) {
	wb, err := excelize.OpenFile(fd.Path)
	if err != nil {
		return nil, Failf(KindMalformedInput, "%s: %v", fd.Name, err)
	}
	defer wb.Close()

	names := wb.GetSheetList()
	if len(names) == 0 {
		return nil, Failf(KindMalformedInput, "%s: workbook has no sheets", fd.Name)
	}

	var targets []string
	switch {
	case b.AllSheets:
		targets = names
	case b.Sheet != "":
		if !containsString(names, b.Sheet) {
			return nil, Failf(KindUnsupportedFeature, "%s: no sheet named %q", fd.Name, b.Sheet)
		}
		targets = []string{b.Sheet}
	default:
		targets = names[:1]
	}

	payload := &SpreadsheetPayload{SheetNames: names}
	truncated := false
	totalAvailable := 0

	for _, name := range targets {
		sheet, rows, fail := c.parseSheet(ctx, wb, fd, name, b)
		if fail != nil {
			return nil, fail
		}
		payload.Sheets = append(payload.Sheets, *sheet)
		totalAvailable += rows
		if rows > b.Rows {
			truncated = true
		}
	}

	return &Result{
		Type: TypeSpreadsheet,
		Data: payload,
		Meta: Metadata{
			"truncated":       truncated,
			"total_available": totalAvailable,
			"sheet_count":     len(names),
			"parsed_sheets":   len(targets),
		},
	}, nil
}

// parseSheet streams one worksheet. Returns the parsed sheet and its true
// data row count (excluding the header row).
func (c *SpreadsheetCodec) parseSheet(ctx context.Context, wb *excelize.File, fd *FileDescriptor, name string, b Bounds) (*SheetTable, int, *Failure) {
	iter, err := wb.Rows(name)
	if err != nil {
		return nil, 0, Failf(KindMalformedInput, "%s: sheet %q: %v", fd.Name, name, err)
	}
	defer iter.Close()

	var header []string
	var accs []*colAccum
	var preview []map[string]any
	dataRows := 0

	for iter.Next() {
		if dataRows%256 == 0 && ctx.Err() != nil {
			return nil, 0, Failf(KindTimeout, "spreadsheet extraction aborted: %v", ctx.Err())
		}
		row, err := iter.Columns()
		if err != nil {
			return nil, 0, Failf(KindMalformedInput, "%s: sheet %q: %v", fd.Name, name, err)
		}
		if header == nil {
			header = row
			accs = newAccums(header)
			continue
		}
		dataRows++
		for i, cell := range row {
			if i < len(accs) {
				accs[i].observe(cell)
			}
		}
		if len(preview) < b.Rows {
			preview = append(preview, rowRecord(header, row))
		}
	}
	if err := iter.Error(); err != nil {
		return nil, 0, Failf(KindMalformedInput, "%s: sheet %q: %v", fd.Name, name, err)
	}
	if header == nil {
		// Empty sheet: report it rather than failing the whole workbook.
		return &SheetTable{Name: name, TablePayload: TablePayload{Columns: []Column{}, Preview: []map[string]any{}}}, 0, nil
	}

	return &SheetTable{
		Name:         name,
		TablePayload: TablePayload{Columns: finishColumns(accs), Preview: preview},
	}, dataRows, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
