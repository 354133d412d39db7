package parse

import (
	"bytes"
	"context"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode"

	ltpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PDFPage is one page of extracted text.
type PDFPage struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// PDFPayload is the "pdf" result shape. Embedded images are never extracted.
type PDFPayload struct {
	Pages     []PDFPage `json:"pages"`
	Title     string    `json:"title,omitempty"`
	Author    string    `json:"author,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Creator   string    `json:"creator,omitempty"`
	WordCount int       `json:"word_count"`
}

// PDFCodec extracts per-page text up to max_pages using pdfcpu's content
// streams. When the primary path yields nothing it retries with a pure-Go
// fallback reader before declaring the document text-free. Extraction
// quality heuristics ride along as metadata so callers can tell a clean
// text PDF from a scan that needs OCR.
type PDFCodec struct{}

func (c *PDFCodec) Kind() string { return TypePDF }

func (c *PDFCodec) Extensions() []string { return []string{".pdf"} }

func (c *PDFCodec) Describe() FormatInfo {
	return FormatInfo{
		Description: "PDF documents",
		Features:    []string{"per-page text", "document metadata", "max_pages truncation", "extraction quality metrics"},
	}
}

func (c *PDFCodec) Parse(ctx context.Context, fd *FileDescriptor, b Bounds) (*Result, error) {
	f, err := os.Open(fd.Path)
	if err != nil {
		return nil, fileFailure(fd.Path, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, Failf(KindMalformedInput, "%s: %v", fd.Name, err)
	}

	totalPages := pctx.PageCount
	limit := b.Pages
	if totalPages < limit {
		limit = totalPages
	}

	var pages []PDFPage
	for nr := 1; nr <= limit; nr++ {
		if ctx.Err() != nil {
			return nil, Failf(KindTimeout, "pdf extraction aborted: %v", ctx.Err())
		}
		text := extractPageText(pctx, nr)
		if text == "" {
			continue
		}
		pages = append(pages, PDFPage{Page: nr, Text: text})
	}

	usedFallback := false
	if len(pages) == 0 {
		pages = pdfFallbackPages(fd.Path, limit)
		usedFallback = len(pages) > 0
	}

	var all strings.Builder
	for i, p := range pages {
		if i > 0 {
			all.WriteByte('\n')
		}
		all.WriteString(p.Text)
	}
	fullText := all.String()

	payload := &PDFPayload{
		Pages:     pages,
		WordCount: countWords(fullText),
	}
	info := pdfDocInfo(pctx)
	payload.Title = info["title"]
	payload.Author = info["author"]
	payload.Subject = info["subject"]
	payload.Creator = info["creator"]

	quality := pdfQuality(pctx, fullText, totalPages)

	meta := Metadata{
		"truncated":       totalPages > b.Pages,
		"total_pages":     totalPages,
		"extracted_pages": len(pages),
		"chars_per_page":  quality.CharsPerPage,
		"printable_ratio": quality.PrintableRatio,
		"needs_ocr":       quality.NeedsOCR(),
	}
	if usedFallback {
		meta["extractor"] = "fallback"
	}

	return &Result{Type: TypePDF, Data: payload, Meta: meta}, nil
}

// pdfDocInfo reads title/author/subject/creator from the document Info dict.
// Best effort: anything undecodable is simply absent.
func pdfDocInfo(pctx *model.Context) map[string]string {
	out := map[string]string{}
	if pctx.Info == nil {
		return out
	}
	d, err := pctx.DereferenceDict(*pctx.Info)
	if err != nil || d == nil {
		return out
	}
	for _, key := range []string{"Title", "Author", "Subject", "Creator"} {
		o, found := d.Find(key)
		if !found {
			continue
		}
		if s := pdfString(pctx, o); s != "" {
			out[strings.ToLower(key)] = s
		}
	}
	return out
}

func pdfString(pctx *model.Context, o types.Object) string {
	o, err := pctx.Dereference(o)
	if err != nil {
		return ""
	}
	switch v := o.(type) {
	case types.StringLiteral:
		s, err := types.StringLiteralToString(v)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case types.HexLiteral:
		s, err := types.HexLiteralToString(v)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	default:
		return ""
	}
}

// extractPageText pulls text from a single page's content stream.
func extractPageText(pctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return textFromContentStream(data)
}

var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// textFromContentStream parses PDF content stream text operators (Tj, TJ,
// ', Td/TD, T*) into a whitespace-normalized string.
func textFromContentStream(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		if bytes.HasSuffix(line, []byte("Tj")) || bytes.HasSuffix(line, []byte("TJ")) {
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		}

		if bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")) {
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				if text := decodePDFString(m[1]); text != "" {
					sb.WriteByte('\n')
					sb.WriteString(text)
				}
			}
		}

		if bytes.HasSuffix(line, []byte("Td")) || bytes.HasSuffix(line, []byte("TD")) {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		}

		if bytes.Equal(line, []byte("T*")) {
			sb.WriteByte('\n')
		}
	}

	return normalizePDFText(sb.String())
}

// decodePDFString handles the basic PDF escape sequences, including octal.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for j := 0; j < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; j++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

func normalizePDFText(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		} else if unicode.IsPrint(r) {
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}

// pdfFallbackPages retries extraction with the pure-Go reader. Some PDFs
// trip it into panics, so the whole pass is fenced.
func pdfFallbackPages(path string, maxPages int) (pages []PDFPage) {
	defer func() {
		if recover() != nil {
			pages = nil
		}
	}()

	f, rdr, err := ltpdf.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	n := rdr.NumPage()
	if n > maxPages {
		n = maxPages
	}
	for i := 1; i <= n; i++ {
		pg := rdr.Page(i)
		if pg.V.IsNull() {
			continue
		}
		text, err := pg.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = normalizePDFText(text)
		if text == "" {
			continue
		}
		pages = append(pages, PDFPage{Page: i, Text: text})
	}
	return pages
}
