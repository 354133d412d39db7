package parse

import (
	"regexp"
	"strconv"
	"strings"
)

// Column describes one column of a parsed table: inferred type, missing-value
// count, and numeric summary statistics where the type allows them.
type Column struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"` // number, bool, text, empty
	Missing int      `json:"missing"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Mean    *float64 `json:"mean,omitempty"`
}

// TablePayload is the "table" result shape and the per-sheet shape for
// spreadsheets. Preview rows are records keyed by column name.
type TablePayload struct {
	Columns []Column         `json:"columns"`
	Preview []map[string]any `json:"preview"`
}

var numericCellRe = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// colAccum accumulates per-column statistics over every observed row, not
// just the preview, so summary numbers describe the whole table while memory
// stays O(columns).
type colAccum struct {
	name     string
	missing  int
	numbers  int
	booleans int
	texts    int
	sum      float64
	min      float64
	max      float64
}

func newAccums(header []string) []*colAccum {
	accs := make([]*colAccum, len(header))
	for i, name := range header {
		accs[i] = &colAccum{name: strings.TrimSpace(name)}
	}
	return accs
}

func (a *colAccum) observe(cell string) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		a.missing++
		return
	}
	if numericCellRe.MatchString(cell) {
		v, err := strconv.ParseFloat(cell, 64)
		if err == nil {
			if a.numbers == 0 || v < a.min {
				a.min = v
			}
			if a.numbers == 0 || v > a.max {
				a.max = v
			}
			a.sum += v
			a.numbers++
			return
		}
	}
	switch strings.ToLower(cell) {
	case "true", "false":
		a.booleans++
	default:
		a.texts++
	}
}

func (a *colAccum) column() Column {
	col := Column{Name: a.name, Missing: a.missing}
	present := a.numbers + a.booleans + a.texts
	switch {
	case present == 0:
		col.Type = "empty"
	case a.texts > 0:
		col.Type = "text"
	case a.booleans > 0 && a.numbers == 0:
		col.Type = "bool"
	case a.numbers > 0 && a.booleans == 0:
		col.Type = "number"
	default:
		col.Type = "text" // mixed numbers and booleans
	}
	if col.Type == "number" {
		mn, mx := a.min, a.max
		mean := a.sum / float64(a.numbers)
		col.Min, col.Max, col.Mean = &mn, &mx, &mean
	}
	return col
}

func finishColumns(accs []*colAccum) []Column {
	cols := make([]Column, len(accs))
	for i, a := range accs {
		cols[i] = a.column()
	}
	return cols
}

// typedCell converts a raw cell into its natural scalar for preview records.
func typedCell(cell string) any {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return nil
	}
	if numericCellRe.MatchString(trimmed) {
		if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return v
		}
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return true
	case "false":
		return false
	}
	return cell
}

// rowRecord builds a preview record from header and one raw row. Short rows
// leave trailing columns nil; extra cells beyond the header are dropped.
func rowRecord(header []string, row []string) map[string]any {
	rec := make(map[string]any, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i < len(row) {
			rec[name] = typedCell(row[i])
		} else {
			rec[name] = nil
		}
	}
	return rec
}
