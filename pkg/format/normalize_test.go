package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/wrangler/pkg/errors"
)

func TestNormalize_CSVByExtension(t *testing.T) {
	n, err := Normalize([]byte("name,age\nAda,36\nGrace,45\n"), "people.csv")
	require.NoError(t, err)

	assert.True(t, n.Converted)
	assert.Equal(t, "people.json", n.Filename)
	assert.Equal(t, `[{"name":"Ada","age":"36"},{"name":"Grace","age":"45"}]`, string(n.Content))
}

func TestNormalize_CSVBySniffing(t *testing.T) {
	n, err := Normalize([]byte("b,a\n1,2\n"), "upload")
	require.NoError(t, err)

	assert.True(t, n.Converted)
	assert.Equal(t, "upload", n.Filename)
	assert.Equal(t, `[{"b":"1","a":"2"}]`, string(n.Content))
}

func TestNormalize_JSONPassesThrough(t *testing.T) {
	content := []byte(`[{"name": "Ada", "tags": ["x", "y"]}]`)
	n, err := Normalize(content, "people.json")
	require.NoError(t, err)

	assert.False(t, n.Converted)
	assert.Equal(t, "people.json", n.Filename)
	assert.Equal(t, content, n.Content)
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		filename string
		wantType errors.ErrorType
		wantMsg  string
	}{
		{"header only csv", []byte("name,age\n"), "people.csv", errors.ErrorTypeFormat, "CSV file is empty"},
		{"empty csv", []byte(""), "people.csv", errors.ErrorTypeFormat, "CSV file is empty"},
		{"invalid utf8 csv", []byte("name,age\n\xff\xfe,1\n"), "people.csv", errors.ErrorTypeEncoding, "Invalid CSV encoding"},
		{"invalid json", []byte(`{"a":`), "x.json", errors.ErrorTypeFormat, "Invalid JSON format"},
		{"json lines are not one document", []byte("{\"a\":1}\n{\"a\":2}\n"), "x.json", errors.ErrorTypeFormat, "Invalid JSON format"},
		{"invalid utf8 json", []byte("{\"a\":\"\xff\"}"), "x.json", errors.ErrorTypeEncoding, "Invalid JSON encoding"},
		{"empty json", []byte(""), "x.json", errors.ErrorTypeFormat, "Invalid JSON format"},
		{"truncated null", []byte("nul"), "x.json", errors.ErrorTypeFormat, "Invalid JSON format"},
		{"truncated true", []byte("tru"), "x.json", errors.ErrorTypeFormat, "Invalid JSON format"},
		{"truncated false", []byte("fals"), "x.json", errors.ErrorTypeFormat, "Invalid JSON format"},
		{"leading zero", []byte("01"), "x.json", errors.ErrorTypeFormat, "Invalid JSON format"},
		{"leading zero in array", []byte("[01]"), "x.json", errors.ErrorTypeFormat, "Invalid JSON format"},
		{"trailing decimal point", []byte("1."), "x.json", errors.ErrorTypeFormat, "Invalid JSON format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.content, tt.filename)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.wantType), "got %v", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestIsLikelyCSV(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		filename string
		want     bool
	}{
		{"csv extension wins", `{"a":1}`, "data.CSV", true},
		{"comma first line", "a,b\n1,2", "data", true},
		{"json array", `[1,2,3]`, "data", false},
		{"json object", `{"a":1,"b":2}`, "data", false},
		{"no comma", "hello\nworld", "data", false},
		{"bracket in header", "a,[b]\n1,2", "data", false},
		{"invalid utf8 first line", "\xff,\xfe\n", "data", false},
		{"empty", "", "data.json", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLikelyCSV([]byte(tt.content), tt.filename))
		})
	}
}

func TestCSVToJSON_RaggedRows(t *testing.T) {
	out, err := CSVToJSON([]byte("a,b,c\n1\n1,2,3,4\n"))
	require.NoError(t, err)
	assert.Equal(t, `[{"a":"1","b":null,"c":null},{"a":"1","b":"2","c":"3"}]`, string(out))
}

func TestCSVToJSON_QuotedFieldsAndBOM(t *testing.T) {
	out, err := CSVToJSON([]byte("\xEF\xBB\xBFname,note\n\"Lovelace, Ada\",\"said \"\"hi\"\"\"\n"))
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"Lovelace, Ada","note":"said \"hi\""}]`, string(out))
}

func TestCSVToJSON_BareQuoteInField(t *testing.T) {
	n, err := Normalize([]byte("name,note\nbob,5\" tall\n"), "notes.csv")
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"bob","note":"5\" tall"}]`, string(n.Content))
	assert.Equal(t, "notes.json", n.Filename)
}

func TestCSVToJSON_DuplicateHeader(t *testing.T) {
	out, err := CSVToJSON([]byte("id,name,id\n1,Ada,2\n"))
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"2","name":"Ada"}]`, string(out))
}

func TestCSVToJSON_SkipsBlankLines(t *testing.T) {
	out, err := CSVToJSON([]byte("a\n\n1\n\n2\n"))
	require.NoError(t, err)
	assert.Equal(t, `[{"a":"1"},{"a":"2"}]`, string(out))
}

func TestValidateJSONLines(t *testing.T) {
	assert.NoError(t, ValidateJSONLines([]byte("{\"a\":1}\n\n{\"a\":2}\n")))

	err := ValidateJSONLines([]byte("{\"a\":1}\nnope\n"))
	require.Error(t, err)
	line, ok := errors.Detail(err, "line")
	require.True(t, ok)
	assert.Equal(t, 2, line)

	for _, bad := range []string{"nul", "tru", "fals", "01", "[01]", "1."} {
		err := ValidateJSONLines([]byte("{\"a\":1}\n" + bad + "\n"))
		require.Error(t, err, bad)
		assert.True(t, errors.IsType(err, errors.ErrorTypeFormat), bad)
	}
}

func TestIsJSONOrJSONLines(t *testing.T) {
	assert.True(t, IsJSONOrJSONLines([]byte(`[1]`)))
	assert.True(t, IsJSONOrJSONLines([]byte("1\n2\n")))
	assert.False(t, IsJSONOrJSONLines([]byte("")))
	assert.False(t, IsJSONOrJSONLines([]byte("a,b")))
	assert.False(t, IsJSONOrJSONLines([]byte("nul\nnul")))
}

func TestStoredFilename(t *testing.T) {
	assert.Equal(t, "x.json", StoredFilename("x.csv"))
	assert.Equal(t, "x.json", StoredFilename("x.CSV"))
	assert.Equal(t, "x.csv.json", StoredFilename("x.csv.json"))
	assert.Equal(t, "x.jsonl", StoredFilename("x.jsonl"))
	assert.Equal(t, "", StoredFilename(""))
}
