// Package parse extracts structured content from files of heterogeneous
// formats behind a single bounded, failure-isolated call surface.
//
// Supported families:
//   - text        — .txt, .text, .log, .md, .markdown
//   - table       — .csv, .tsv
//   - spreadsheet — .xlsx, .xlsm (excelize)
//   - pdf         — .pdf (pdfcpu, pure-Go fallback reader)
//   - docx        — .docx (archive/zip → word/document.xml)
//   - pptx        — .pptx (archive/zip → ppt/slides/*.xml)
//   - json        — .json (token-streamed bounded prefix)
//   - image       — .png, .jpg, .jpeg, .gif, .bmp, .webp, .tif, .tiff
//
// Usage:
//
//	d, err := parse.New(parse.Config{})
//	env := d.Parse(ctx, "/data/report.csv", parse.Options{MaxRows: 100})
//	if env.Success { ... }
package parse

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/filepipe/filepipe/idgen"
)

// Dispatcher resolves a codec for a path, binds resource bounds, runs the
// codec inside a guarded call, and normalizes the outcome into an Envelope.
// One Dispatcher serves concurrent calls; it holds no per-call state.
type Dispatcher struct {
	cfg    Config
	reg    *Registry
	logger *slog.Logger
	callID idgen.Generator
}

// New creates a Dispatcher with the stock codec set.
func New(cfg Config) (*Dispatcher, error) {
	cfg.defaults()
	reg, err := NewRegistry(defaultCodecs()...)
	if err != nil {
		return nil, err
	}
	return &Dispatcher{
		cfg:    cfg,
		reg:    reg,
		logger: cfg.Logger,
		callID: idgen.NanoID(10),
	}, nil
}

// Parse runs one single-shot parse call: Resolve → Bind → Invoke → Normalize.
// Every failure mode surfaces as a typed Failure inside the envelope; a bad
// file never takes down the host process.
func (d *Dispatcher) Parse(ctx context.Context, path string, opts Options) Envelope {
	id := d.callID()

	fd, fail := describeFile(path)
	if fail != nil {
		d.logger.Debug("parse rejected", "call", id, "path", path, "kind", fail.Kind)
		return failureEnvelope(fail)
	}
	if fd.Size > d.cfg.MaxFileSize {
		return failureEnvelope(Failf(KindResourceExceeded,
			"file too large: %d bytes (max %d)", fd.Size, d.cfg.MaxFileSize))
	}

	codec, fail := d.reg.Resolve(path)
	if fail != nil {
		d.logger.Debug("parse rejected", "call", id, "path", path, "kind", fail.Kind)
		return failureEnvelope(fail)
	}

	bounds := d.cfg.Limits.Bind(opts)

	start := time.Now()
	res, err := d.invoke(ctx, codec, fd, bounds)
	if err != nil {
		f := AsFailure(err)
		d.logger.Debug("parse failed", "call", id, "path", path, "type", codec.Kind(),
			"kind", f.Kind, "error", f.Message, "elapsed", time.Since(start))
		return failureEnvelope(f)
	}

	d.logger.Debug("parse ok", "call", id, "path", path, "type", res.Type,
		"elapsed", time.Since(start))
	return successEnvelope(fd, res)
}

// Formats returns the supported-format map: extension → description/features.
func (d *Dispatcher) Formats() map[string]FormatInfo {
	return d.reg.Formats()
}

// invoke runs the codec with panic containment and deadline enforcement.
// The codec runs in its own goroutine so a stuck extraction cannot hold the
// caller past the deadline; the goroutine itself exits once the codec
// returns, since the result channel is buffered.
func (d *Dispatcher) invoke(ctx context.Context, codec Codec, fd *FileDescriptor, b Bounds) (*Result, error) {
	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}

	type outcome struct {
		res *Result
		err error
	}
	ch := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: Failf(KindInternal, "codec fault: %v", r)}
			}
		}()
		res, err := codec.Parse(ctx, fd, b)
		ch <- outcome{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, Failf(KindTimeout, "parse aborted: %v", ctx.Err())
	case o := <-ch:
		if o.err != nil {
			return nil, o.err
		}
		if o.res == nil {
			return nil, Failf(KindInternal, "codec %s returned no result", codec.Kind())
		}
		return o.res, nil
	}
}

// describeFile builds the FileDescriptor, probing both existence and
// readability so permission problems surface before a codec runs.
func describeFile(path string) (*FileDescriptor, *Failure) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fileFailure(path, err)
	}
	if info.IsDir() {
		return nil, Failf(KindIOError, "not a regular file: %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fileFailure(path, err)
	}
	f.Close()

	return &FileDescriptor{
		Path: path,
		Name: filepath.Base(path),
		Ext:  strings.ToLower(filepath.Ext(path)),
		Size: info.Size(),
	}, nil
}

// countWords counts whitespace-separated tokens. Shared by the text, pdf
// and docx codecs.
func countWords(s string) int {
	return len(strings.Fields(s))
}

// wrapIO converts a non-nil read error into an IOError failure.
func wrapIO(fd *FileDescriptor, err error) *Failure {
	return Failf(KindIOError, "read %s: %v", fd.Name, err)
}
