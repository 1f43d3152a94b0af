package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// JSONSerializer encodes documents for the wire.
type JSONSerializer struct {
	// Indent pretty-prints the output when non-empty.
	Indent string
}

// Serialize encodes v as JSON. Nil date pointers are written as null.
func (s JSONSerializer) Serialize(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if s.Indent != "" {
		enc.SetIndent("", s.Indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("document: encode: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Format is an input encoding accepted by Decode.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks a Format from a file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode reads one Document from r.
func Decode(r io.Reader, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("document: decode yaml: %w", err)
		}
	case FormatJSON, "":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("document: decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("document: unsupported format %q", format)
	}
	return &doc, nil
}
