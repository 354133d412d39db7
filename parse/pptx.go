package parse

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Slide is one slide's text runs, in slide order.
type Slide struct {
	Slide int      `json:"slide"`
	Texts []string `json:"texts"`
}

// PptxPayload is the "pptx" result shape.
type PptxPayload struct {
	Slides []Slide `json:"slides"`
}

// PptxCodec parses .pptx by streaming each ppt/slides/slideN.xml part in
// numeric order, bounded by max_pages.
type PptxCodec struct{}

func (c *PptxCodec) Kind() string { return TypePptx }

func (c *PptxCodec) Extensions() []string { return []string{".pptx"} }

func (c *PptxCodec) Describe() FormatInfo {
	return FormatInfo{
		Description: "PowerPoint presentations (PPTX)",
		Features:    []string{"per-slide text runs", "slide order", "max_pages truncation"},
	}
}

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func (c *PptxCodec) Parse(ctx context.Context, fd *FileDescriptor, b Bounds) (*Result, error) {
	r, err := zip.OpenReader(fd.Path)
	if err != nil {
		return nil, Failf(KindMalformedInput, "%s: not a valid pptx archive: %v", fd.Name, err)
	}
	defer r.Close()

	type slidePart struct {
		nr   int
		file *zip.File
	}
	var parts []slidePart
	for _, f := range r.File {
		m := slidePartRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		nr, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		parts = append(parts, slidePart{nr: nr, file: f})
	}
	if len(parts) == 0 {
		return nil, Failf(KindMalformedInput, "%s: no slides found", fd.Name)
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].nr < parts[j].nr })

	total := len(parts)
	limit := b.Pages
	if total < limit {
		limit = total
	}

	var slides []Slide
	for _, part := range parts[:limit] {
		if ctx.Err() != nil {
			return nil, Failf(KindTimeout, "pptx extraction aborted: %v", ctx.Err())
		}
		texts, fail := slideTexts(fd, part.file)
		if fail != nil {
			return nil, fail
		}
		slides = append(slides, Slide{Slide: part.nr, Texts: texts})
	}

	return &Result{
		Type: TypePptx,
		Data: &PptxPayload{Slides: slides},
		Meta: Metadata{
			"truncated":        total > b.Pages,
			"slide_count":      total,
			"extracted_slides": len(slides),
		},
	}, nil
}

// slideTexts collects the <a:t> runs of one slide part.
func slideTexts(fd *FileDescriptor, f *zip.File) ([]string, *Failure) {
	rc, err := f.Open()
	if err != nil {
		return nil, wrapIO(fd, err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var texts []string
	var cur strings.Builder
	inRun := false
	depth := 0

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, Failf(KindMalformedInput, "%s: broken slide xml in %s: %v", fd.Name, f.Name, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth > maxXMLDepth {
				return nil, Failf(KindMalformedInput, "%s: xml nesting exceeds depth limit", fd.Name)
			}
			if t.Name.Local == "t" {
				inRun = true
				cur.Reset()
			}
		case xml.CharData:
			if inRun {
				cur.Write(t)
			}
		case xml.EndElement:
			depth--
			if t.Name.Local == "t" && inRun {
				inRun = false
				if text := strings.TrimSpace(cur.String()); text != "" {
					texts = append(texts, text)
				}
			}
		}
	}
	return texts, nil
}
