package parse

// Limits holds the class defaults for every bounded dimension. The value is
// immutable after construction and injected via Config — there is no
// process-wide mutable default.
type Limits struct {
	Rows  int `yaml:"max_rows" json:"max_rows"`
	Pages int `yaml:"max_pages" json:"max_pages"`
	Chars int `yaml:"max_chars" json:"max_chars"`
	Items int `yaml:"max_items" json:"max_items"`
}

// DefaultLimits returns the stock bounds: rows=1000, pages=10, chars=10000,
// items=100.
func DefaultLimits() Limits {
	return Limits{Rows: 1000, Pages: 10, Chars: 10000, Items: 100}
}

// Bounds are the resolved per-call limits handed to a codec. Enforcement
// happens inside each codec's extraction loop: stop accumulating at the
// bound, set truncated metadata, report total_available when cheap.
type Bounds struct {
	Rows  int
	Pages int
	Chars int
	Items int

	Encoding  string // "" or "auto" means detect
	Sheet     string // named sheet for spreadsheets; "" means first
	AllSheets bool
}

// Bind resolves caller options against the class defaults: a positive
// requested value wins, anything else falls back.
func (l Limits) Bind(o Options) Bounds {
	return Bounds{
		Rows:      effectiveBound(o.MaxRows, l.Rows),
		Pages:     effectiveBound(o.MaxPages, l.Pages),
		Chars:     effectiveBound(o.MaxChars, l.Chars),
		Items:     effectiveBound(o.MaxItems, l.Items),
		Encoding:  o.Encoding,
		Sheet:     o.Sheet,
		AllSheets: o.AllSheets,
	}
}

func effectiveBound(requested, classDefault int) int {
	if requested > 0 {
		return requested
	}
	return classDefault
}
