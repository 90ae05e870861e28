// Package format normalizes raw dataset bytes into JSON.
//
// CSV payloads are re-encoded as a JSON array of objects keyed by the header
// row; everything else must already be a single JSON document. Classification
// follows a cheap heuristic over the filename and the first line:
//
//	n, err := format.Normalize(content, "people.csv")
//	// n.Filename == "people.json", n.Converted == true
package format

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ajitpratap0/wrangler/pkg/errors"
	jsonpool "github.com/ajitpratap0/wrangler/pkg/json"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Normalized is the outcome of Normalize.
type Normalized struct {
	Content  []byte
	Filename string
	// Converted is true when the input was CSV
	Converted bool
}

// Normalize converts content to JSON when it looks like CSV, otherwise
// validates that it is JSON. The returned filename has a .csv suffix
// rewritten to .json.
func Normalize(content []byte, filename string) (Normalized, error) {
	out := Normalized{Filename: StoredFilename(filename)}

	if IsLikelyCSV(content, filename) {
		converted, err := CSVToJSON(content)
		if err != nil {
			return Normalized{}, err
		}
		out.Content = converted
		out.Converted = true
		return out, nil
	}

	if !utf8.Valid(content) {
		return Normalized{}, errors.New(errors.ErrorTypeEncoding, "Invalid JSON encoding").
			WithDetail("filename", filename)
	}
	if err := ValidateJSON(content); err != nil {
		return Normalized{}, err
	}
	out.Content = content
	return out, nil
}

// IsLikelyCSV reports whether content should be treated as CSV: either the
// filename ends in .csv (any case) or the first line is valid UTF-8,
// contains a comma and contains no JSON bracket characters.
func IsLikelyCSV(content []byte, filename string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		return true
	}
	first := content
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		first = content[:i]
	}
	if !utf8.Valid(first) {
		return false
	}
	return bytes.IndexByte(first, ',') >= 0 && !bytes.ContainsAny(first, "{}[]")
}

// CSVToJSON parses content as CSV with a header row and encodes the data
// rows as a JSON array of objects. Keys keep header order. Missing trailing
// values become null and long rows are truncated. Stray quotes inside
// unquoted fields are kept as data. A repeated header
// name keeps its first position and takes the value of its last column.
func CSVToJSON(content []byte) ([]byte, error) {
	if !utf8.Valid(content) {
		return nil, errors.New(errors.ErrorTypeEncoding, "Invalid CSV encoding")
	}
	content = bytes.TrimPrefix(content, utf8BOM)

	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1 // ragged rows are allowed
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrorTypeFormat, "CSV file is empty")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "Invalid CSV format")
	}

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFormat, "Invalid CSV format")
		}
		rows = append(rows, record)
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrorTypeFormat, "CSV file is empty")
	}

	keys, rows := dedupeColumns(header, rows)
	data, err := jsonpool.MarshalRows(keys, rows)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "Failed to encode CSV rows as JSON")
	}
	return data, nil
}

// dedupeColumns collapses repeated header names. Rows are rewritten only
// when the header actually has duplicates.
func dedupeColumns(header []string, rows [][]string) ([]string, [][]string) {
	index := make(map[string]int, len(header))
	keys := make([]string, 0, len(header))
	// source[i] is the last column feeding key i
	source := make([]int, 0, len(header))
	for col, name := range header {
		if pos, ok := index[name]; ok {
			source[pos] = col
			continue
		}
		index[name] = len(keys)
		keys = append(keys, name)
		source = append(source, col)
	}
	if len(keys) == len(header) {
		return header, rows
	}

	out := make([][]string, len(rows))
	for i, row := range rows {
		mapped := make([]string, len(keys))
		for k, col := range source {
			if col < len(row) {
				mapped[k] = row[col]
			}
		}
		out[i] = mapped
	}
	return keys, out
}

// ValidateJSON checks that content is exactly one JSON document.
func ValidateJSON(content []byte) error {
	if !jsonpool.Valid(bytes.TrimSpace(content)) {
		return errors.New(errors.ErrorTypeFormat, "Invalid JSON format")
	}
	return nil
}

// ValidateJSONLines checks that every non-blank line of content is a JSON
// document.
func ValidateJSONLines(content []byte) error {
	line := 0
	for len(content) > 0 {
		line++
		var current []byte
		if i := bytes.IndexByte(content, '\n'); i >= 0 {
			current, content = content[:i], content[i+1:]
		} else {
			current, content = content, nil
		}
		current = bytes.TrimSpace(current)
		if len(current) == 0 {
			continue
		}
		if !jsonpool.Valid(current) {
			return errors.Newf(errors.ErrorTypeFormat, "Invalid JSON Lines format at line %d", line).
				WithDetail("line", line)
		}
	}
	return nil
}

// IsJSONOrJSONLines reports whether content is a JSON document or JSON Lines.
func IsJSONOrJSONLines(content []byte) bool {
	if ValidateJSON(content) == nil {
		return true
	}
	return len(bytes.TrimSpace(content)) > 0 && ValidateJSONLines(content) == nil
}

// StoredFilename rewrites a .csv suffix (any case) to .json.
func StoredFilename(filename string) string {
	ext := filepath.Ext(filename)
	if strings.EqualFold(ext, ".csv") {
		return filename[:len(filename)-len(ext)] + ".json"
	}
	return filename
}
