package parse

import (
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// extractionQuality scores how usable a PDF's extracted text is. A scan with
// image streams and almost no characters per page is a candidate for OCR,
// which this package deliberately does not perform.
type extractionQuality struct {
	CharsPerPage    float64
	PrintableRatio  float64
	HasImageStreams bool
}

// NeedsOCR reports whether the document likely requires OCR to be useful.
func (q *extractionQuality) NeedsOCR() bool {
	return (q.CharsPerPage < 50 && q.HasImageStreams) || q.PrintableRatio < 0.85
}

func pdfQuality(pctx *model.Context, fullText string, pageCount int) *extractionQuality {
	var charsPerPage float64
	if pageCount > 0 {
		charsPerPage = float64(len([]rune(fullText))) / float64(pageCount)
	}
	return &extractionQuality{
		CharsPerPage:    charsPerPage,
		PrintableRatio:  printableRatio(fullText),
		HasImageStreams: hasImageStreams(pctx),
	}
}

// printableRatio excludes Private Use Area runes, U+FFFD, and control
// characters other than whitespace — the usual debris of broken font
// encodings.
func printableRatio(text string) float64 {
	if len(text) == 0 {
		return 1.0
	}
	total, printable := 0, 0
	for _, r := range text {
		total++
		if isGarbageRune(r) {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(printable) / float64(total)
}

func isGarbageRune(r rune) bool {
	if r >= 0xE000 && r <= 0xF8FF {
		return true
	}
	if r == 0xFFFD {
		return true
	}
	if r < 0x0020 && r != '\n' && r != '\r' && r != '\t' {
		return true
	}
	return false
}

// hasImageStreams checks for image XObjects without decoding any of them.
func hasImageStreams(pctx *model.Context) bool {
	if pctx.Optimize != nil {
		for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(pctx, pageNr)) > 0 {
				return true
			}
		}
	}
	for _, entry := range pctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}
