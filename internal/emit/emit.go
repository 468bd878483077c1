// Package emit serializes traces and reports into stable JSON.
//
// Stability is a contract, not cosmetics: emitted artifacts are content
// hashed for provenance and compared against golden fixtures, so two
// emissions of the same value must be byte-identical. Keys are sorted,
// strings are NFC normalized, HTML escaping is off, numbers keep their
// shortest round-trip form, output is two-space indented with a
// trailing newline.
package emit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/unicode/norm"

	"github.com/iatromantis91/semiocore-v1/internal/ir"
)

// Marshal renders v as stable JSON.
//
// The pipeline re-decodes the standard marshaling with json.Number so
// numeric literals survive verbatim, normalizes every string to NFC,
// then re-encodes through an encoder with sorted map keys and HTML
// escaping disabled.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("emit marshal: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("emit re-decode: %w", err)
	}

	doc = normalizeStrings(doc)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("emit encode: %w", err)
	}
	return buf.Bytes(), nil
}

// normalizeStrings walks the decoded document applying NFC to every
// string value. Map keys are normalized too; a collision after
// normalization would mean two semantically identical keys, which the
// model never produces.
func normalizeStrings(v any) any {
	switch x := v.(type) {
	case string:
		return norm.NFC.String(x)
	case []any:
		for i, elem := range x {
			x[i] = normalizeStrings(elem)
		}
		return x
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, elem := range x {
			out[norm.NFC.String(k)] = normalizeStrings(elem)
		}
		return out
	default:
		return v
	}
}

// Digest returns the sha-256 hex digest of v's stable serialization.
func Digest(v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return ir.HashBytes(data), nil
}

// WriteFile emits v to path, creating parent directories as needed.
func WriteFile(path string, v any) error {
	data, err := Marshal(v)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("emit mkdir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("emit write: %w", err)
	}
	return nil
}
