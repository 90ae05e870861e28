// Package models defines the results returned by dataset providers and
// pipeline sinks.
package models

import (
	jsonpool "github.com/ajitpratap0/wrangler/pkg/json"
)

// Metadata is a string-keyed mapping of scalar values that remembers
// insertion order. Setting an existing key replaces its value in place.
// The zero value is ready to use. Metadata is not safe for concurrent
// mutation.
type Metadata struct {
	keys   []string
	values map[string]interface{}
}

// NewMetadata returns Metadata populated from alternating key/value pairs.
// A trailing key without a value is ignored.
func NewMetadata(pairs ...interface{}) *Metadata {
	m := &Metadata{}
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			continue
		}
		m.Set(key, pairs[i+1])
	}
	return m
}

// Set stores value under key and returns m for chaining.
func (m *Metadata) Set(key string, value interface{}) *Metadata {
	if m.values == nil {
		m.values = make(map[string]interface{})
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	return m
}

// SetIfNotEmpty stores value only when it is a non-empty string.
func (m *Metadata) SetIfNotEmpty(key, value string) *Metadata {
	if value != "" {
		m.Set(key, value)
	}
	return m
}

// Get returns the value stored under key.
func (m *Metadata) Get(key string) (interface{}, bool) {
	if m == nil || m.values == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// GetString returns the value under key if it is a string.
func (m *Metadata) GetString(key string) string {
	v, _ := m.Get(key)
	s, _ := v.(string)
	return s
}

// Keys returns the keys in insertion order.
func (m *Metadata) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Merge overlays other onto m: new keys are appended in other's order and
// existing keys take other's value without moving.
func (m *Metadata) Merge(other *Metadata) *Metadata {
	if other == nil {
		return m
	}
	for _, k := range other.keys {
		m.Set(k, other.values[k])
	}
	return m
}

// Map returns an unordered copy.
func (m *Metadata) Map() map[string]interface{} {
	out := make(map[string]interface{}, m.Len())
	if m == nil {
		return out
	}
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes m as a JSON object with keys in insertion order.
func (m *Metadata) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	buf := jsonpool.GetBuffer()
	defer jsonpool.PutBuffer(buf)

	values := make([]interface{}, len(m.keys))
	for i, k := range m.keys {
		values[i] = m.values[k]
	}
	if err := jsonpool.WriteObject(buf, m.keys, values); err != nil {
		return nil, err
	}

	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}
