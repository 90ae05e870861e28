// Package json provides JSON serialization on top of goccy/go-json with pooled
// buffers and helpers for emitting objects whose keys keep insertion order.
package json

import (
	"bytes"
	stdjson "encoding/json"
	"sync"

	gojson "github.com/goccy/go-json"
)

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1024*1024 { // Don't pool very large buffers
		return
	}
	bufferPool.Put(buf)
}

// Marshal is a drop-in replacement for json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// MarshalNoEscape marshals v without HTML escaping
func MarshalNoEscape(v interface{}) ([]byte, error) {
	return gojson.MarshalNoEscape(v)
}

// Unmarshal is a drop-in replacement for json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// MarshalIndent is a replacement for json.MarshalIndent
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// Valid reports whether data is a single well-formed JSON document.
// goccy's Valid accepts truncated literals and leading zeros, so this one
// goes through the standard scanner.
func Valid(data []byte) bool {
	return stdjson.Valid(data)
}

// WriteObject writes a JSON object whose members appear in the order given.
// keys and values must be the same length.
func WriteObject(buf *bytes.Buffer, keys []string, values []interface{}) error {
	buf.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := gojson.MarshalNoEscape(key)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := gojson.MarshalNoEscape(values[i])
		if err != nil {
			return err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return nil
}

// MarshalRows encodes rows as a JSON array of objects keyed by header, with
// keys in header order. Missing trailing values are encoded as null and extra
// values are dropped.
func MarshalRows(header []string, rows [][]string) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	values := make([]interface{}, len(header))
	buf.WriteByte('[')
	for i, row := range rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		for j := range header {
			if j < len(row) {
				values[j] = row[j]
			} else {
				values[j] = nil
			}
		}
		if err := WriteObject(buf, header, values); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(']')

	// Copy since the buffer goes back to the pool
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}
