package pdftest

import (
	"bytes"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/stretchr/testify/require"
)

// Generated renders each page's lines with a core Helvetica font through a
// full PDF writer, one line every 20 points from the top margin.
func Generated(t testing.TB, pages ...[]string) []byte {
	t.Helper()
	doc := fpdf.New("P", "pt", "A4", "")
	doc.SetCompression(true)
	doc.SetFont("Helvetica", "", 12)
	for _, lines := range pages {
		doc.AddPage()
		for i, line := range lines {
			doc.Text(72, 72+float64(i)*20, line)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}
