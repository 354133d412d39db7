package parse

import "context"

// Type tags. The payload shape of a Result is fully determined by its tag.
const (
	TypeText        = "text"
	TypeTable       = "table"
	TypeSpreadsheet = "spreadsheet"
	TypePDF         = "pdf"
	TypeDocx        = "docx"
	TypePptx        = "pptx"
	TypeJSON        = "json"
	TypeImage       = "image"
)

// FileDescriptor identifies the file under parse. Built by the dispatcher at
// call time from os.Stat, never persisted.
type FileDescriptor struct {
	Path string `json:"file_path"`
	Name string `json:"file_name"`
	Ext  string `json:"file_extension"` // lowercased, with leading dot
	Size int64  `json:"file_size"`
}

// Options are the caller-supplied per-call knobs. Zero or negative values
// fall back to the configured defaults (see Limits.Bind). Encoding "" or
// "auto" enables detection.
type Options struct {
	MaxRows   int    `json:"max_rows,omitempty"`
	MaxPages  int    `json:"max_pages,omitempty"`
	MaxChars  int    `json:"max_chars,omitempty"`
	MaxItems  int    `json:"max_items,omitempty"`
	Encoding  string `json:"encoding,omitempty"`
	Sheet     string `json:"sheet,omitempty"`
	AllSheets bool   `json:"all_sheets,omitempty"`
}

// Metadata carries scalar facts about an extraction: counts, the truncated
// flag, encoding used. Values must be scalars (string, bool, int, float64).
type Metadata map[string]any

// Result is a codec's successful output. Data's concrete type is a pure
// function of Type.
type Result struct {
	Type string
	Data any
	Meta Metadata
}

// FormatInfo describes a registered format for the formats listing.
type FormatInfo struct {
	Description string   `json:"description"`
	Features    []string `json:"features"`
}

// Codec converts one format family's raw bytes into a Result. Codecs are
// stateless; concurrent calls on distinct files need no coordination.
// A codec fails only with a *Failure, never an uncontrolled fault.
type Codec interface {
	Kind() string
	Extensions() []string
	Describe() FormatInfo
	Parse(ctx context.Context, fd *FileDescriptor, b Bounds) (*Result, error)
}
