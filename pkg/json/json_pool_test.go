package json

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalRowsPreservesHeaderOrder(t *testing.T) {
	header := []string{"zeta", "alpha", "mid"}
	rows := [][]string{
		{"1", "2", "3"},
		{"4", "5", "6"},
	}

	data, err := MarshalRows(header, rows)
	require.NoError(t, err)
	assert.Equal(t,
		`[{"zeta":"1","alpha":"2","mid":"3"},{"zeta":"4","alpha":"5","mid":"6"}]`,
		string(data))

	var parsed []map[string]string
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Len(t, parsed, 2)
}

func TestMarshalRowsRaggedRows(t *testing.T) {
	data, err := MarshalRows([]string{"a", "b"}, [][]string{{"1"}, {"2", "3", "extra"}})
	require.NoError(t, err)
	assert.Equal(t, `[{"a":"1","b":null},{"a":"2","b":"3"}]`, string(data))
}

func TestMarshalRowsDoesNotEscapeHTML(t *testing.T) {
	data, err := MarshalRows([]string{"html"}, [][]string{{"<b>&</b>"}})
	require.NoError(t, err)
	assert.Equal(t, `[{"html":"<b>&</b>"}]`, string(data))
}

func TestWriteObject(t *testing.T) {
	var buf bytes.Buffer
	err := WriteObject(&buf, []string{"b", "a"}, []interface{}{2, "x"})
	require.NoError(t, err)
	assert.Equal(t, `{"b":2,"a":"x"}`, buf.String())
}

func TestValid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"object", `{"a":1}`, true},
		{"array of objects", `[{"a":1},{"b":2}]`, true},
		{"scalar", `42`, true},
		{"truncated", `{"a":`, false},
		{"two documents", `{"a":1}{"b":2}`, false},
		{"empty", ``, false},
		{"truncated null", `nul`, false},
		{"truncated true", `tru`, false},
		{"truncated false", `fals`, false},
		{"leading zero", `01`, false},
		{"leading zero in array", `[01]`, false},
		{"trailing decimal point", `1.`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid([]byte(tt.input)))
		})
	}
}

func TestMarshalCorrectness(t *testing.T) {
	record := map[string]interface{}{
		"id":   "test-123",
		"name": "Test Record",
	}

	stdData, err := json.Marshal(record)
	require.NoError(t, err)

	optData, err := Marshal(record)
	require.NoError(t, err)

	var stdResult, optResult map[string]interface{}
	require.NoError(t, json.Unmarshal(stdData, &stdResult))
	require.NoError(t, Unmarshal(optData, &optResult))
	assert.Equal(t, stdResult, optResult)
}

func BenchmarkMarshalRows(b *testing.B) {
	header := []string{"id", "name", "value"}
	rows := make([][]string, 1000)
	for i := range rows {
		rows[i] = []string{"id", "Test Record", "1.5"}
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := MarshalRows(header, rows); err != nil {
			b.Fatal(err)
		}
	}

	b.ReportMetric(float64(len(rows)*b.N), "records/op")
}
