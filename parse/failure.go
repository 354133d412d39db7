package parse

import (
	"errors"
	"fmt"
	"io/fs"
)

// FailKind enumerates every way a parse call can fail. Degraded-but-usable
// outcomes (truncation, uncertain encoding) are successes carrying metadata,
// not failures.
type FailKind string

const (
	KindNotFound           FailKind = "not_found"
	KindPermissionDenied   FailKind = "permission_denied"
	KindUnsupportedFormat  FailKind = "unsupported_format"
	KindIOError            FailKind = "io_error"
	KindMalformedInput     FailKind = "malformed_input"
	KindUnsupportedFeature FailKind = "unsupported_feature"
	KindResourceExceeded   FailKind = "resource_exceeded"
	KindTimeout            FailKind = "timeout"
	KindInternal           FailKind = "internal"
)

// Failure is the typed error every layer threads outward. It carries no
// partial payload and no call trace — only the kind and a short message.
type Failure struct {
	Kind    FailKind `json:"kind"`
	Message string   `json:"message"`
}

func (f *Failure) Error() string {
	return string(f.Kind) + ": " + f.Message
}

// Failf builds a Failure with a formatted message.
func Failf(kind FailKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsFailure extracts a *Failure from an error chain. Anything that is not
// already a Failure is classified as Internal — codecs should not let such
// errors reach the boundary, but the dispatcher never lets one escape raw.
func AsFailure(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Kind: KindInternal, Message: err.Error()}
}

// fileFailure maps an os/fs error on path to the descriptor-level taxonomy.
func fileFailure(path string, err error) *Failure {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Failf(KindNotFound, "file not found: %s", path)
	case errors.Is(err, fs.ErrPermission):
		return Failf(KindPermissionDenied, "permission denied: %s", path)
	default:
		return Failf(KindIOError, "open %s: %v", path, err)
	}
}
