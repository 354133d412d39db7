package parse

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"io"
	"strings"
)

// maxXMLDepth caps element nesting in OOXML parts. Legitimate documents stay
// far below this; deeply nested XML is an attack, not content.
const maxXMLDepth = 512

// DocxPayload is the "docx" result shape: paragraph text in document order
// and embedded tables as row sequences. Formatting and styles are dropped.
type DocxPayload struct {
	Paragraphs []string     `json:"paragraphs"`
	Tables     [][][]string `json:"tables"`
	WordCount  int          `json:"word_count"`
}

// DocxCodec parses .docx by streaming word/document.xml out of the ZIP
// archive. Paragraphs are bounded by max_items and table rows by max_rows.
type DocxCodec struct{}

func (c *DocxCodec) Kind() string { return TypeDocx }

func (c *DocxCodec) Extensions() []string { return []string{".docx"} }

func (c *DocxCodec) Describe() FormatInfo {
	return FormatInfo{
		Description: "Microsoft Word documents (DOCX)",
		Features:    []string{"paragraphs in document order", "embedded tables", "word count"},
	}
}

func (c *DocxCodec) Parse(ctx context.Context, fd *FileDescriptor, b Bounds) (*Result, error) {
	r, err := zip.OpenReader(fd.Path)
	if err != nil {
		return nil, Failf(KindMalformedInput, "%s: not a valid docx archive: %v", fd.Name, err)
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, Failf(KindMalformedInput, "%s: word/document.xml not found", fd.Name)
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, wrapIO(fd, err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)

	var paragraphs []string
	var tables [][][]string
	totalParagraphs := 0
	totalTableRows := 0

	var curText strings.Builder
	inParagraph := false
	tableDepth := 0
	inCell := false
	var curTable [][]string
	var curRow []string
	var cellText strings.Builder
	depth := 0

	for {
		if ctx.Err() != nil {
			return nil, Failf(KindTimeout, "docx extraction aborted: %v", ctx.Err())
		}
		tok, terr := decoder.Token()
		if terr == io.EOF {
			break
		}
		if terr != nil {
			return nil, Failf(KindMalformedInput, "%s: broken document xml: %v", fd.Name, terr)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth > maxXMLDepth {
				return nil, Failf(KindMalformedInput, "%s: xml nesting exceeds depth limit", fd.Name)
			}
			switch t.Name.Local {
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					curTable = nil
				}
			case "tr":
				if tableDepth == 1 {
					curRow = nil
				}
			case "tc":
				if tableDepth == 1 {
					inCell = true
					cellText.Reset()
				}
			case "p":
				if tableDepth == 0 {
					inParagraph = true
					curText.Reset()
				}
			}

		case xml.CharData:
			if inCell {
				cellText.Write(t)
			} else if inParagraph {
				curText.Write(t)
			}

		case xml.EndElement:
			depth--
			switch t.Name.Local {
			case "p":
				if inParagraph && tableDepth == 0 {
					inParagraph = false
					text := strings.TrimSpace(curText.String())
					if text == "" {
						continue
					}
					totalParagraphs++
					if len(paragraphs) < b.Items {
						paragraphs = append(paragraphs, text)
					}
				}
			case "tc":
				if tableDepth == 1 && inCell {
					inCell = false
					curRow = append(curRow, strings.TrimSpace(cellText.String()))
				}
			case "tr":
				if tableDepth == 1 && curRow != nil {
					totalTableRows++
					if len(curTable) < b.Rows {
						curTable = append(curTable, curRow)
					}
					curRow = nil
				}
			case "tbl":
				tableDepth--
				if tableDepth == 0 && len(curTable) > 0 {
					tables = append(tables, curTable)
					curTable = nil
				}
			}
		}
	}

	wordCount := 0
	for _, p := range paragraphs {
		wordCount += countWords(p)
	}

	storedRows := 0
	for _, tbl := range tables {
		storedRows += len(tbl)
	}

	return &Result{
		Type: TypeDocx,
		Data: &DocxPayload{
			Paragraphs: paragraphs,
			Tables:     tables,
			WordCount:  wordCount,
		},
		Meta: Metadata{
			"truncated":       totalParagraphs > len(paragraphs) || totalTableRows > storedRows,
			"paragraph_count": totalParagraphs,
			"table_count":     len(tables),
			"table_rows":      totalTableRows,
		},
	}, nil
}
