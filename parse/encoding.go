package parse

import (
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// encodingSampleSize bounds how many bytes the resolver inspects.
const encodingSampleSize = 64 * 1024

// ResolvedEncoding is the outcome of encoding resolution for one byte stream.
// A nil enc means the bytes are already valid UTF-8 and pass through.
type ResolvedEncoding struct {
	Name      string
	Confident bool
	enc       encoding.Encoding
}

// Reader wraps r so it yields UTF-8 regardless of the source encoding.
func (re *ResolvedEncoding) Reader(r io.Reader) io.Reader {
	if re.enc == nil {
		return r
	}
	return transform.NewReader(r, re.enc.NewDecoder())
}

// resolveEncoding decides the text encoding for sample. A declared encoding
// (anything but "" and "auto") is trusted directly; unknown labels fail.
// Otherwise candidates are tried in order — UTF-8, then GBK as the regional
// fallback the shipped corpora needed — and finally the statistical detector.
// The statistical guess is never a hard failure: it is returned with
// Confident=false so text codecs can degrade instead of erroring.
func resolveEncoding(sample []byte, declared string) (*ResolvedEncoding, *Failure) {
	declared = strings.TrimSpace(strings.ToLower(declared))
	if declared != "" && declared != "auto" {
		if declared == "utf-8" || declared == "utf8" {
			return &ResolvedEncoding{Name: "utf-8", Confident: true}, nil
		}
		enc, err := htmlindex.Get(declared)
		if err != nil {
			return nil, Failf(KindMalformedInput, "unknown encoding %q", declared)
		}
		return &ResolvedEncoding{Name: declared, Confident: true, enc: enc}, nil
	}

	if len(sample) >= encodingSampleSize {
		// The cut lands at a raw byte offset and can split a multibyte
		// rune; a dangling partial sequence must not fail validity.
		sample = trimPartialRune(sample[:encodingSampleSize])
	}

	if utf8.Valid(sample) {
		return &ResolvedEncoding{Name: "utf-8", Confident: true}, nil
	}

	if decodesCleanly(simplifiedchinese.GBK, sample) {
		return &ResolvedEncoding{Name: "gbk", Confident: true, enc: simplifiedchinese.GBK}, nil
	}

	// Last resort: statistical best guess. Degraded text beats a hard
	// failure for byte-oriented formats.
	enc, name, certain := charset.DetermineEncoding(sample, "")
	return &ResolvedEncoding{Name: name, Confident: certain, enc: enc}, nil
}

// trimPartialRune drops a trailing incomplete UTF-8 sequence from b. A
// complete final rune, or a tail that is not UTF-8 at all, is left alone.
func trimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if utf8.FullRune(b[i:]) {
				return b
			}
			return b[:i]
		}
	}
	return b
}

// decodesCleanly reports whether sample decodes under e without producing
// replacement characters.
func decodesCleanly(e encoding.Encoding, sample []byte) bool {
	out, _, err := transform.Bytes(e.NewDecoder(), sample)
	if err != nil {
		return false
	}
	return !strings.ContainsRune(string(out), utf8.RuneError)
}

// readSample reads up to encodingSampleSize bytes for detection.
func readSample(r io.Reader) ([]byte, error) {
	buf := make([]byte, encodingSampleSize)
	n, err := io.ReadFull(r, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	return buf[:n], err
}
