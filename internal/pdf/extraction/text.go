package extraction

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	pdferrors "github.com/a3tai/mcp-pdf-model/internal/pdf/errors"
)

var (
	utf16BOM = []byte{0xFE, 0xFF}
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
)

// decodeText decodes the bytes of a PDF text string. On failure the raw
// bytes are returned as a string together with an InvalidEncoding error.
func decodeText(b []byte) (string, error) {
	switch {
	case bytes.HasPrefix(b, utf16BOM):
		out, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder().Bytes(b)
		if err != nil {
			return string(b), pdferrors.WrapError(pdferrors.ErrorTypeInvalidEncoding, "invalid UTF-16 text string", err)
		}
		return string(out), nil
	case bytes.HasPrefix(b, utf8BOM):
		rest := b[len(utf8BOM):]
		if !utf8.Valid(rest) {
			return string(b), pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidEncoding, "invalid UTF-8 text string")
		}
		return string(rest), nil
	default:
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
		if err != nil {
			return string(b), pdferrors.WrapError(pdferrors.ErrorTypeInvalidEncoding, "invalid ISO-8859-1 text string", err)
		}
		return string(out), nil
	}
}

// encodeText turns s into a PDF string object: a literal in ISO-8859-1
// when every rune fits, a UTF-16BE hex string with byte order mark
// otherwise
func encodeText(s string) (types.Object, error) {
	if b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s)); err == nil {
		esc, err := types.Escape(string(b))
		if err != nil {
			return nil, fmt.Errorf("failed to escape value: %w", err)
		}
		return types.StringLiteral(*esc), nil
	}
	b, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidEncoding, "value cannot be encoded as UTF-16", err)
	}
	return types.NewHexLiteral(b), nil
}
