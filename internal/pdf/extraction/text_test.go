package extraction

import (
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdferrors "github.com/a3tai/mcp-pdf-model/internal/pdf/errors"
)

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{name: "ascii", input: []byte("John"), want: "John"},
		{name: "latin1", input: []byte("Caf\xe9"), want: "Café"},
		{name: "utf16 with bom", input: []byte{0xFE, 0xFF, 0x03, 0xA9, 0x00, 0x6D}, want: "Ωm"},
		{name: "utf8 with bom", input: []byte("\xef\xbb\xbfZürich"), want: "Zürich"},
		{name: "empty", input: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeText(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeText_InvalidUTF8(t *testing.T) {
	raw := []byte("\xef\xbb\xbf\xff\xfe")
	got, err := decodeText(raw)
	require.Error(t, err)
	assert.True(t, pdferrors.IsType(err, pdferrors.ErrorTypeInvalidEncoding))
	assert.Equal(t, string(raw), got)
}

func TestEncodeText(t *testing.T) {
	t.Run("latin1 literal", func(t *testing.T) {
		obj, err := encodeText("Café (main)")
		require.NoError(t, err)
		lit, ok := obj.(types.StringLiteral)
		require.True(t, ok, "got %T", obj)
		assert.Equal(t, "Caf\xe9 \\(main\\)", lit.Value())
	})

	t.Run("utf16 hex", func(t *testing.T) {
		obj, err := encodeText("Ωmega")
		require.NoError(t, err)
		hex, ok := obj.(types.HexLiteral)
		require.True(t, ok, "got %T", obj)
		assert.True(t, strings.HasPrefix(strings.ToUpper(hex.Value()), "FEFF"))

		b, err := hex.Bytes()
		require.NoError(t, err)
		got, err := decodeText(b)
		require.NoError(t, err)
		assert.Equal(t, "Ωmega", got)
	})
}
