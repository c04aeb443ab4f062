package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Metadata is a flat string-to-string map that remembers the order in which
// keys were first seen.
type Metadata struct {
	keys   []string
	values map[string]string
}

// NewMetadata builds metadata from alternating key/value pairs. A trailing
// key without a value is ignored.
func NewMetadata(pairs ...string) *Metadata {
	md := &Metadata{}
	for i := 0; i+1 < len(pairs); i += 2 {
		md.Set(pairs[i], pairs[i+1])
	}
	return md
}

// Set stores value under key, keeping the original position of existing keys.
func (m *Metadata) Set(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *Metadata) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in original order.
func (m *Metadata) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Len returns the number of entries.
func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Clone returns a copy that shares no state with m.
func (m Metadata) Clone() Metadata {
	out := Metadata{keys: append([]string(nil), m.keys...)}
	if m.values != nil {
		out.values = make(map[string]string, len(m.values))
		for k, v := range m.values {
			out.values[k] = v
		}
	}
	return out
}

// MarshalJSON encodes the metadata as an object in original key order.
func (m Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.values[key])
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

// UnmarshalJSON decodes a JSON object, preserving key order. Non-string
// scalar values are kept in their JSON text form; nested values are rejected
// because the backend contract is a flat map.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("metadata: expected JSON object")
	}
	*m = Metadata{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("metadata: unexpected key token %v", tok)
		}
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		switch v := tok.(type) {
		case string:
			m.Set(key, v)
		case json.Number:
			m.Set(key, v.String())
		case bool:
			if v {
				m.Set(key, "true")
			} else {
				m.Set(key, "false")
			}
		case nil:
			m.Set(key, "")
		default:
			return fmt.Errorf("metadata: value for %q is not a scalar", key)
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
