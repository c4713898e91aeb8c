// Package checksum computes the content digests used by the lock file and
// the version chain.
package checksum

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Sum returns the SHA-256 digest of content as 64 lowercase hex characters.
func Sum(content string) string {
	return SumBytes([]byte(content))
}

// SumBytes is Sum for raw bytes.
func SumBytes(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Canonical serializes v as JSON with the keys of every object sorted.
// Numbers are kept verbatim and HTML characters are not escaped, so the
// output for a given document never depends on how it was produced.
func Canonical(v any) ([]byte, error) {
	raw, err := Marshal(v)
	if err != nil {
		return nil, err
	}

	// Round-trip through generic values: encoding/json sorts map keys,
	// which also orders fields that came from structs.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	return Marshal(generic)
}

// SumCanonical hashes the canonical form of v.
func SumCanonical(v any) (string, error) {
	data, err := Canonical(v)
	if err != nil {
		return "", err
	}
	return SumBytes(data), nil
}

// Normalize returns v as encoding/json would decode it from its own
// encoding: numbers become float64, objects map[string]any and arrays []any.
func Normalize(v any) (any, error) {
	raw, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	return out, nil
}

// Marshal serializes v as compact JSON in declaration order without HTML
// escaping or a trailing newline.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
