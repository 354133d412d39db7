package parse

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"
)

// TableCodec handles delimited text tables (.csv, .tsv). The preview is
// bounded by max_rows; column statistics and the total row count come from a
// full streaming pass, so memory stays bounded regardless of file size.
// Structural violations (ragged rows, broken quoting) are hard failures even
// when encoding resolution had to degrade.
type TableCodec struct{}

func (c *TableCodec) Kind() string { return TypeTable }

func (c *TableCodec) Extensions() []string { return []string{".csv", ".tsv"} }

func (c *TableCodec) Describe() FormatInfo {
	return FormatInfo{
		Description: "Delimited tables (CSV, TSV)",
		Features:    []string{"column types", "numeric summary statistics", "missing-value counts", "max_rows preview"},
	}
}

func (c *TableCodec) Parse(ctx context.Context, fd *FileDescriptor, b Bounds) (*Result, error) {
	f, err := os.Open(fd.Path)
	if err != nil {
		return nil, fileFailure(fd.Path, err)
	}
	defer f.Close()

	sample, err := readSample(f)
	if err != nil {
		return nil, wrapIO(fd, err)
	}
	resolved, fail := resolveEncoding(sample, b.Encoding)
	if fail != nil {
		return nil, fail
	}

	decoded := resolved.Reader(io.MultiReader(bytes.NewReader(sample), f))
	rdr := csv.NewReader(bufio.NewReader(decoded))
	if strings.EqualFold(fd.Ext, ".tsv") {
		rdr.Comma = '\t'
	}
	rdr.ReuseRecord = true

	header, err := rdr.Read()
	if err == io.EOF {
		return nil, Failf(KindMalformedInput, "%s: empty file", fd.Name)
	}
	if err != nil {
		return nil, csvFailure(fd, err)
	}
	headerCopy := make([]string, len(header))
	copy(headerCopy, header)

	accs := newAccums(headerCopy)
	var preview []map[string]any
	totalRows := 0

	for {
		if totalRows%256 == 0 && ctx.Err() != nil {
			return nil, Failf(KindTimeout, "table extraction aborted: %v", ctx.Err())
		}
		row, err := rdr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvFailure(fd, err)
		}
		totalRows++
		for i, cell := range row {
			if i < len(accs) {
				accs[i].observe(cell)
			}
		}
		if len(preview) < b.Rows {
			preview = append(preview, rowRecord(headerCopy, row))
		}
	}

	meta := Metadata{
		"truncated":       totalRows > b.Rows,
		"total_available": totalRows,
		"total_columns":   len(headerCopy),
		"preview_rows":    len(preview),
		"encoding":        resolved.Name,
	}
	if !resolved.Confident {
		meta["encoding_confidence"] = "low"
	}

	return &Result{
		Type: TypeTable,
		Data: &TablePayload{Columns: finishColumns(accs), Preview: preview},
		Meta: meta,
	}, nil
}

func csvFailure(fd *FileDescriptor, err error) *Failure {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return Failf(KindMalformedInput, "%s: line %d: %v", fd.Name, perr.Line, perr.Err)
	}
	return wrapIO(fd, err)
}
