// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package phylotree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// AnnotationPrefix is the marker that starts every annotation key.
const AnnotationPrefix = "&"

// Annotation holds the key/value pairs of one bracketed annotation block.
// Keys are stored with their leading "&" and keep the order in which they
// were added. Values are raw text; double quotes from the source are kept.
type Annotation struct {
	keys   []string
	values map[string]string
}

// NewAnnotation returns an empty annotation.
func NewAnnotation() *Annotation {
	return &Annotation{values: map[string]string{}}
}

// ParseAnnotation parses the text between '[' and ']'.
//
// Pairs are separated by commas that are not inside double quotes and
// each pair is split on its first '='. An empty block is a valid, empty
// annotation.
func ParseAnnotation(raw string) (*Annotation, error) {
	a := NewAnnotation()
	if strings.TrimSpace(raw) == "" {
		return a, nil
	}
	for _, pair := range splitUnquoted(raw, ',') {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("annotation pair %q: missing '='", pair)
		}
		key = strings.TrimSpace(key)
		if key == "" || key == AnnotationPrefix {
			return nil, fmt.Errorf("annotation pair %q: missing key", pair)
		}
		a.Set(key, value)
	}
	return a, nil
}

// splitUnquoted splits s on sep, ignoring separators that appear between
// a pair of double quotes.
func splitUnquoted(s string, sep byte) []string {
	var parts []string
	inQuote, start := false, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case sep:
			if !inQuote {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// NormalizeKey returns key with the leading "&" added if it is missing.
func NormalizeKey(key string) string {
	if strings.HasPrefix(key, AnnotationPrefix) {
		return key
	}
	return AnnotationPrefix + key
}

// Get returns the raw value for key. The key may be given with or
// without the leading "&".
func (a *Annotation) Get(key string) (string, bool) {
	if a == nil {
		return "", false
	}
	v, ok := a.values[NormalizeKey(key)]
	return v, ok
}

// Set adds or overwrites the value for key. New keys go to the end.
func (a *Annotation) Set(key, value string) {
	key = NormalizeKey(key)
	if a.values == nil {
		a.values = map[string]string{}
	}
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

// Keys returns the keys in insertion order.
func (a *Annotation) Keys() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.keys...)
}

// Len returns the number of pairs.
func (a *Annotation) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Clone returns a deep copy of the annotation.
func (a *Annotation) Clone() *Annotation {
	if a == nil {
		return nil
	}
	c := NewAnnotation()
	for _, key := range a.keys {
		c.Set(key, a.values[key])
	}
	return c
}

// String returns the annotation in block form, e.g. `[&x=1,&y="2,3"]`.
func (a *Annotation) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	if a != nil {
		for i, key := range a.keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(key)
			sb.WriteByte('=')
			sb.WriteString(a.values[key])
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

// MarshalJSON encodes the annotation as an object with keys in
// insertion order.
func (a *Annotation) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshalUnescaped(key)
		if err != nil {
			return nil, err
		}
		v, err := marshalUnescaped(a.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalUnescaped is json.Marshal without the HTML escaping of '&',
// '<' and '>', which would turn every annotation key into "\u0026...".
func marshalUnescaped(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
