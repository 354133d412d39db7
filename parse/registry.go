package parse

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Registry binds file extensions to codecs. It is built once at startup and
// never mutated afterwards; exactly one codec owns each extension.
type Registry struct {
	byExt map[string]Codec
}

// NewRegistry builds a registry from the given codecs. An extension claimed
// by two codecs is a wiring bug and fails construction.
func NewRegistry(codecs ...Codec) (*Registry, error) {
	byExt := make(map[string]Codec)
	for _, c := range codecs {
		for _, ext := range c.Extensions() {
			ext = strings.ToLower(ext)
			if prev, ok := byExt[ext]; ok {
				return nil, fmt.Errorf("extension %q bound to both %s and %s", ext, prev.Kind(), c.Kind())
			}
			byExt[ext] = c
		}
	}
	return &Registry{byExt: byExt}, nil
}

// defaultCodecs is the stock codec set, one per format family.
func defaultCodecs() []Codec {
	return []Codec{
		&TextCodec{},
		&TableCodec{},
		&SpreadsheetCodec{},
		&PDFCodec{},
		&DocxCodec{},
		&PptxCodec{},
		&JSONCodec{},
		&ImageCodec{},
	}
}

// Resolve returns the codec bound to path's extension. Matching is
// case-insensitive. An unknown extension is an UnsupportedFormat failure,
// never conflated with parse-time errors.
func (r *Registry) Resolve(path string) (Codec, *Failure) {
	ext := strings.ToLower(filepath.Ext(path))
	c, ok := r.byExt[ext]
	if !ok {
		return nil, Failf(KindUnsupportedFormat, "unsupported file type: %q", ext)
	}
	return c, nil
}

// Formats returns every registered extension with its codec's description
// and feature list.
func (r *Registry) Formats() map[string]FormatInfo {
	out := make(map[string]FormatInfo, len(r.byExt))
	for ext, c := range r.byExt {
		out[ext] = c.Describe()
	}
	return out
}
