package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdferrors "github.com/a3tai/mcp-pdf-model/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-model/internal/pdftest"
)

func TestValidator_ValidateFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0o644))
		return path
	}

	valid := write("valid.pdf", textDocument())
	upper := write("UPPER.PDF", textDocument())
	empty := write("empty.pdf", nil)
	text := write("notes.txt", []byte("hello"))
	garbage := write("garbage.pdf", []byte("%PDF-1.4\nnot really"))
	subdir := filepath.Join(dir, "folder.pdf")
	require.NoError(t, os.Mkdir(subdir, 0o755))

	tests := []struct {
		name    string
		path    string
		maxSize int64
		wantErr string
	}{
		{name: "valid", path: valid, maxSize: 1 << 20},
		{name: "uppercase extension", path: upper, maxSize: 1 << 20},
		{name: "no size limit", path: valid},
		{name: "empty path", path: "", wantErr: "path cannot be empty"},
		{name: "missing", path: filepath.Join(dir, "missing.pdf"), wantErr: "file does not exist"},
		{name: "directory", path: subdir, wantErr: "path is a directory"},
		{name: "wrong extension", path: text, wantErr: "file is not a PDF"},
		{name: "empty file", path: empty, wantErr: "file is empty"},
		{name: "too large", path: valid, maxSize: 10, wantErr: "file too large"},
		{name: "unparsable", path: garbage, wantErr: "invalid PDF file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(tt.maxSize)
			err := v.ValidateFile(tt.path)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				assert.True(t, v.IsValidPDF(tt.path))
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, pdferrors.IsType(err, pdferrors.ErrorTypeInvalidDocument))
			assert.False(t, v.IsValidPDF(tt.path))
		})
	}
}

func TestValidator_GeneratedDocument(t *testing.T) {
	path := pdftest.WriteFile(t, "generated.pdf", pdftest.Generated(t, []string{"first"}, []string{"second"}))
	assert.NoError(t, NewValidator(0).ValidateFile(path))
}
