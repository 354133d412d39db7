package parse

import (
	"strings"
	"testing"
)

// buildTextPDF creates a valid single-page PDF with proper xref offsets.
func buildTextPDF(text string) []byte {
	escaped := strings.ReplaceAll(text, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, "(", `\(`)
	escaped = strings.ReplaceAll(escaped, ")", `\)`)

	stream := "BT\n/F1 12 Tf\n72 720 Td\n(" + escaped + ") Tj\nET"

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	offsets := make([]int, 6)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n")

	offsets[4] = b.Len()
	b.WriteString("4 0 obj\n<< /Length ")
	b.WriteString(pdfItoa(len(stream)))
	b.WriteString(" >>\nstream\n")
	b.WriteString(stream)
	b.WriteString("\nendstream\nendobj\n")

	offsets[5] = b.Len()
	b.WriteString("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xrefOffset := b.Len()
	b.WriteString("xref\n0 6\n")
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		b.WriteString(pdfPadOffset(offsets[i]))
		b.WriteString(" 00000 n \n")
	}
	b.WriteString("trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n")
	b.WriteString(pdfItoa(xrefOffset))
	b.WriteString("\n%%EOF\n")

	return []byte(b.String())
}

// buildImageOnlyPDF creates a one-page PDF whose only content is an image
// XObject draw.
func buildImageOnlyPDF() []byte {
	imgData := "\xff\xd8\xff\xe0"

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	offsets := make([]int, 6)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /XObject << /Im1 4 0 R >> >> /Contents 5 0 R >>\nendobj\n")

	offsets[4] = b.Len()
	b.WriteString("4 0 obj\n<< /Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceRGB /BitsPerComponent 8 /Length ")
	b.WriteString(pdfItoa(len(imgData)))
	b.WriteString(" >>\nstream\n")
	b.WriteString(imgData)
	b.WriteString("\nendstream\nendobj\n")

	drawStream := "q 100 0 0 100 72 692 cm /Im1 Do Q"
	offsets[5] = b.Len()
	b.WriteString("5 0 obj\n<< /Length ")
	b.WriteString(pdfItoa(len(drawStream)))
	b.WriteString(" >>\nstream\n")
	b.WriteString(drawStream)
	b.WriteString("\nendstream\nendobj\n")

	xrefOffset := b.Len()
	b.WriteString("xref\n0 6\n")
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		b.WriteString(pdfPadOffset(offsets[i]))
		b.WriteString(" 00000 n \n")
	}
	b.WriteString("trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n")
	b.WriteString(pdfItoa(xrefOffset))
	b.WriteString("\n%%EOF\n")
	return []byte(b.String())
}

func pdfItoa(n int) string {
	if n == 0 {
		return "0"
	}
	s := ""
	for n > 0 {
		s = string(rune('0'+n%10)) + s
		n /= 10
	}
	return s
}

func pdfPadOffset(n int) string {
	s := pdfItoa(n)
	for len(s) < 10 {
		s = "0" + s
	}
	return s
}

func TestPDF_TextExtraction(t *testing.T) {
	path := writeFile(t, "text.pdf", buildTextPDF("Hello World from the parser"))

	env := parseFile(t, path, Options{})
	if !env.Success {
		t.Fatalf("parse failed: %v", env.Error)
	}
	if env.Type != TypePDF {
		t.Fatalf("type = %q", env.Type)
	}

	p := env.Data.(*PDFPayload)
	if env.Metadata["total_pages"] != 1 {
		t.Fatalf("total_pages = %v", env.Metadata["total_pages"])
	}
	if len(p.Pages) == 1 && !strings.Contains(p.Pages[0].Text, "Hello World") {
		t.Fatalf("page text = %q", p.Pages[0].Text)
	}
	if env.Metadata["needs_ocr"] == true && len(p.Pages) > 0 {
		t.Fatal("text PDF with extracted pages must not flag needs_ocr")
	}
}

func TestPDF_ImageOnlyFlagsOCR(t *testing.T) {
	path := writeFile(t, "scan.pdf", buildImageOnlyPDF())

	env := parseFile(t, path, Options{})
	if !env.Success {
		t.Fatalf("image-only PDF must still succeed: %v", env.Error)
	}

	p := env.Data.(*PDFPayload)
	if len(p.Pages) != 0 {
		t.Fatalf("pages = %+v, want none", p.Pages)
	}
	if env.Metadata["needs_ocr"] != true {
		t.Fatalf("needs_ocr = %v, want true", env.Metadata["needs_ocr"])
	}
	if env.Metadata["extracted_pages"] != 0 {
		t.Fatalf("extracted_pages = %v", env.Metadata["extracted_pages"])
	}
}

func TestPDF_Malformed(t *testing.T) {
	path := writeFile(t, "broken.pdf", []byte("%PDF-1.4 garbage with no structure"))

	env := parseFile(t, path, Options{})
	if env.Success {
		t.Fatal("expected failure")
	}
	if env.Error.Kind != KindMalformedInput {
		t.Fatalf("kind = %q", env.Error.Kind)
	}
}

func TestContentStreamText(t *testing.T) {
	stream := []byte("BT\n/F1 12 Tf\n72 720 Td\n(First line) Tj\nT*\n(Second \\(escaped\\)) Tj\nET")
	got := textFromContentStream(stream)
	if !strings.Contains(got, "First line") {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "Second (escaped)") {
		t.Fatalf("escapes not decoded: %q", got)
	}
}

func TestDecodePDFString_Octal(t *testing.T) {
	if got := decodePDFString([]byte(`caf\351`)); got != "caf\xe9" {
		t.Fatalf("got %q", got)
	}
	if got := decodePDFString([]byte(`tab\there`)); got != "tab\there" {
		t.Fatalf("got %q", got)
	}
}
