package parse

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
)

// JSONPayload is the "json" result shape. Exactly one of Items/Entries is
// populated depending on Kind; scalars land in Value. Returned entries keep
// their full nesting — nested substructure size is not independently
// bounded, only the number of top-level entries is.
type JSONPayload struct {
	Kind    string         `json:"kind"` // array, object, scalar
	Items   []any          `json:"items,omitempty"`
	Keys    []string       `json:"keys,omitempty"`
	Entries map[string]any `json:"entries,omitempty"`
	Value   any            `json:"value,omitempty"`
}

// JSONCodec parses .json through the token streamer: it materializes at most
// max_items top-level entries and keeps scanning to report the true total
// without holding the rest in memory.
type JSONCodec struct{}

func (c *JSONCodec) Kind() string { return TypeJSON }

func (c *JSONCodec) Extensions() []string { return []string{".json"} }

func (c *JSONCodec) Describe() FormatInfo {
	return FormatInfo{
		Description: "JSON documents",
		Features:    []string{"bounded top-level prefix", "nesting preserved", "max_items truncation"},
	}
}

func (c *JSONCodec) Parse(ctx context.Context, fd *FileDescriptor, b Bounds) (*Result, error) {
	f, err := os.Open(fd.Path)
	if err != nil {
		return nil, fileFailure(fd.Path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(bufio.NewReader(f))
	dec.UseNumber()

	tok, err := dec.Token()
	if err == io.EOF {
		return nil, Failf(KindMalformedInput, "%s: empty file", fd.Name)
	}
	if err != nil {
		return nil, jsonFailure(fd, err)
	}

	payload := &JSONPayload{}
	total := 0

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			payload.Kind = "array"
			payload.Items = []any{}
			for dec.More() {
				if ctx.Err() != nil {
					return nil, Failf(KindTimeout, "json extraction aborted: %v", ctx.Err())
				}
				if total < b.Items {
					var v any
					if err := dec.Decode(&v); err != nil {
						return nil, jsonFailure(fd, err)
					}
					payload.Items = append(payload.Items, v)
				} else {
					var raw json.RawMessage
					if err := dec.Decode(&raw); err != nil {
						return nil, jsonFailure(fd, err)
					}
				}
				total++
			}
			if _, err := dec.Token(); err != nil {
				return nil, jsonFailure(fd, err)
			}
		case '{':
			payload.Kind = "object"
			payload.Entries = map[string]any{}
			for dec.More() {
				if ctx.Err() != nil {
					return nil, Failf(KindTimeout, "json extraction aborted: %v", ctx.Err())
				}
				keyTok, err := dec.Token()
				if err != nil {
					return nil, jsonFailure(fd, err)
				}
				key, _ := keyTok.(string)
				if total < b.Items {
					var v any
					if err := dec.Decode(&v); err != nil {
						return nil, jsonFailure(fd, err)
					}
					payload.Keys = append(payload.Keys, key)
					payload.Entries[key] = v
				} else {
					var raw json.RawMessage
					if err := dec.Decode(&raw); err != nil {
						return nil, jsonFailure(fd, err)
					}
				}
				total++
			}
			if _, err := dec.Token(); err != nil {
				return nil, jsonFailure(fd, err)
			}
		}
	default:
		payload.Kind = "scalar"
		payload.Value = tok
		total = 1
	}

	// Anything after the top-level value is not a JSON document.
	if _, err := dec.Token(); err != io.EOF {
		return nil, Failf(KindMalformedInput, "%s: trailing content after top-level value", fd.Name)
	}

	returned := len(payload.Items) + len(payload.Keys)
	if payload.Kind == "scalar" {
		returned = 1
	}

	return &Result{
		Type: TypeJSON,
		Data: payload,
		Meta: Metadata{
			"truncated":       total > returned,
			"total_available": total,
			"returned":        returned,
		},
	}, nil
}

func jsonFailure(fd *FileDescriptor, err error) *Failure {
	return Failf(KindMalformedInput, "%s: %v", fd.Name, err)
}
