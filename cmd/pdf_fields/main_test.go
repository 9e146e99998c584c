package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/a3tai/mcp-pdf-model/internal/pdftest"
)

func formFile(t *testing.T) string {
	t.Helper()
	return pdftest.WriteFile(t, "form.pdf", pdftest.Document(pdftest.Spec{
		Pages: []pdftest.Page{pdftest.TextPage("Application")},
		Fields: []pdftest.Field{
			{Name: "first_name", Label: "First name", Value: "Alice"},
			{Name: "last_name", Label: "Last name"},
		},
	}))
}

func runCmd(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Text(t *testing.T) {
	path := formFile(t)

	code, stdout, stderr := runCmd(path)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Found 2 form field(s)")
	assert.Contains(t, stdout, "[1] first_name")
	assert.Contains(t, stdout, "    Label: First name")
	assert.Contains(t, stdout, `    Value: "Alice"`)
	assert.Contains(t, stdout, "[2] last_name")
}

func TestRun_JSONAndYAML(t *testing.T) {
	path := formFile(t)

	code, stdout, stderr := runCmd("--format", "json", "--replace-none", path)
	require.Equal(t, 0, code, stderr)
	var fromJSON map[string]struct {
		Value string `json:"value"`
		Label string `json:"label"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &fromJSON))
	assert.Equal(t, "Alice", fromJSON["first_name"].Value)
	assert.Equal(t, "last_name", fromJSON["last_name"].Value)

	code, stdout, stderr = runCmd("--format=yaml", path)
	require.Equal(t, 0, code, stderr)
	var fromYAML map[string]struct {
		Name  string `yaml:"name"`
		Value string `yaml:"value"`
		Rect  []int  `yaml:"rect"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &fromYAML))
	assert.Equal(t, "first_name", fromYAML["first_name"].Name)
	assert.Equal(t, "", fromYAML["last_name"].Value)
	assert.Len(t, fromYAML["first_name"].Rect, 4)
}

func TestRun_SetAndWrite(t *testing.T) {
	path := formFile(t)
	out := filepath.Join(t.TempDir(), "filled.pdf")

	code, stdout, stderr := runCmd("--set", "Last name=Smith", "--set", "first_name=Bob", "--out", out, "--format", "json", path)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, "Wrote 2 field value(s) to "+out)
	assert.Contains(t, stdout, `"value": "Smith"`)

	code, stdout, stderr = runCmd("--format", "json", out)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `"value": "Smith"`)
	assert.Contains(t, stdout, `"value": "Bob"`)

	code, _, stderr = runCmd("--set", "first_name=Carol", "--save", out)
	require.Equal(t, 0, code, stderr)
	code, stdout, _ = runCmd(out)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, `Value: "Carol"`)

	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestRun_Errors(t *testing.T) {
	path := formFile(t)
	text := pdftest.WriteFile(t, "text.pdf", pdftest.Document(pdftest.Spec{
		Pages: []pdftest.Page{pdftest.TextPage("no form")},
	}))

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  string
	}{
		{name: "no file", args: nil, wantCode: 2, wantErr: "exactly one PDF file path required"},
		{name: "unknown flag", args: []string{"--bogus", path}, wantCode: 2},
		{name: "save and out", args: []string{"--save", "--out", "x.pdf", path}, wantCode: 2, wantErr: "mutually exclusive"},
		{name: "bad format", args: []string{"--format", "xml", path}, wantCode: 1, wantErr: "unsupported output format: xml"},
		{name: "missing file", args: []string{filepath.Join(t.TempDir(), "missing.pdf")}, wantCode: 1, wantErr: "file does not exist"},
		{name: "malformed set", args: []string{"--set", "first_name", path}, wantCode: 1, wantErr: `invalid --set "first_name"`},
		{name: "unknown field", args: []string{"--set", "nope=1", path}, wantCode: 1, wantErr: `field name "nope" not found`},
		{name: "set without form", args: []string{"--set", "a=b", text}, wantCode: 1, wantErr: "does not have input fields"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCmd(tt.args...)
			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, stderr, tt.wantErr)
		})
	}
}

func TestRun_NoForm(t *testing.T) {
	text := pdftest.WriteFile(t, "text.pdf", pdftest.Document(pdftest.Spec{
		Pages: []pdftest.Page{pdftest.TextPage("no form")},
	}))

	code, stdout, _ := runCmd(text)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "No form fields detected")

	code, stdout, _ = runCmd("--format", "json", text)
	require.Equal(t, 0, code)
	assert.JSONEq(t, "{}", stdout)
}
