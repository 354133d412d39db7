package parse

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"unicode"
)

// TextPayload is the "text" result shape.
type TextPayload struct {
	Content   string `json:"content"`
	CharCount int    `json:"char_count"`
	LineCount int    `json:"line_count"`
	WordCount int    `json:"word_count"`
}

// TextCodec handles plain text and Markdown. It decodes via the encoding
// resolver, truncates the returned content at max_chars, and streams the
// remainder to report true totals without holding them in memory.
type TextCodec struct{}

func (c *TextCodec) Kind() string { return TypeText }

func (c *TextCodec) Extensions() []string {
	return []string{".txt", ".text", ".log", ".md", ".markdown"}
}

func (c *TextCodec) Describe() FormatInfo {
	return FormatInfo{
		Description: "Plain text and Markdown files",
		Features:    []string{"encoding detection", "character/line/word counts", "max_chars truncation"},
	}
}

func (c *TextCodec) Parse(ctx context.Context, fd *FileDescriptor, b Bounds) (*Result, error) {
	f, err := os.Open(fd.Path)
	if err != nil {
		return nil, fileFailure(fd.Path, err)
	}
	defer f.Close()

	sample, err := readSample(f)
	if err != nil {
		return nil, wrapIO(fd, err)
	}

	resolved, fail := resolveEncoding(sample, b.Encoding)
	if fail != nil {
		return nil, fail
	}

	decoded := bufio.NewReader(resolved.Reader(io.MultiReader(bytes.NewReader(sample), f)))

	var content strings.Builder
	var totalChars, totalLines, totalWords int
	inWord := false
	var lastRune rune = -1

	for {
		if totalChars%4096 == 0 && ctx.Err() != nil {
			return nil, Failf(KindTimeout, "text extraction aborted: %v", ctx.Err())
		}
		r, _, rerr := decoded.ReadRune()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, wrapIO(fd, rerr)
		}
		lastRune = r
		totalChars++
		if r == '\n' {
			totalLines++
		}
		if unicode.IsSpace(r) {
			inWord = false
		} else if !inWord {
			inWord = true
			totalWords++
		}
		if totalChars <= b.Chars {
			content.WriteRune(r)
		}
	}
	if lastRune != -1 && lastRune != '\n' {
		totalLines++ // final line without a trailing newline
	}

	text := content.String()
	truncated := totalChars > b.Chars

	meta := Metadata{
		"truncated":   truncated,
		"encoding":    resolved.Name,
		"total_chars": totalChars,
		"total_lines": totalLines,
		"total_words": totalWords,
	}
	if !resolved.Confident {
		meta["encoding_confidence"] = "low"
	}

	return &Result{
		Type: TypeText,
		Data: &TextPayload{
			Content:   text,
			CharCount: len([]rune(text)),
			LineCount: strings.Count(text, "\n") + 1,
			WordCount: countWords(text),
		},
		Meta: meta,
	}, nil
}
