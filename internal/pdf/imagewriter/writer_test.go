package imagewriter

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	pdferrors "github.com/a3tai/mcp-pdf-model/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-model/internal/pdf/layout"
	"github.com/a3tai/mcp-pdf-model/internal/pdftest"
)

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	m := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range m.Pix {
		m.Pix[i] = 0xC0
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, m, nil))
	return buf.Bytes()
}

func imagePDF(t *testing.T) []byte {
	t.Helper()
	jpg := jpegBytes(t)
	return pdftest.Document(pdftest.Spec{
		Pages: []pdftest.Page{{Content: "q 100 0 0 50 20 30 cm /Gray Do Q q 10 0 0 10 0 0 cm /Photo Do Q /Fx Do"}},
		XObjects: map[string]func(b *pdftest.Builder) int{
			"Gray": pdftest.GrayImage(3, 2),
			"Photo": func(b *pdftest.Builder) int {
				return b.AddStream("/Type /XObject /Subtype /Image /Width 4 /Height 4 /ColorSpace /DeviceRGB "+
					"/BitsPerComponent 8 /Filter /DCTDecode", jpg)
			},
			"Mask": func(b *pdftest.Builder) int {
				return b.AddStream("/Type /XObject /Subtype /Image /Width 8 /Height 1 /ColorSpace /DeviceGray "+
					"/BitsPerComponent 1", []byte{0xAA})
			},
			"Fax": func(b *pdftest.Builder) int {
				// two all-white G4 rows (V0 V0) followed by EOFB
				return b.AddStream("/Type /XObject /Subtype /Image /Width 8 /Height 2 /ColorSpace /DeviceGray "+
					"/BitsPerComponent 1 /Filter /CCITTFaxDecode /DecodeParms << /K -1 /Columns 8 >>", []byte{0xC0, 0x04, 0x00, 0x40})
			},
			"Huge": func(b *pdftest.Builder) int {
				return b.AddStream("/Type /XObject /Subtype /Image /Width 100000 /Height 100000 /ColorSpace /DeviceGray "+
					"/BitsPerComponent 1 /Filter /CCITTFaxDecode /DecodeParms << /K -1 /Columns 100000 >>", []byte{0xFF})
			},
			"Fx": func(b *pdftest.Builder) int {
				inner := pdftest.GrayImage(2, 2)(b)
				return b.AddStream(fmt.Sprintf("/Type /XObject /Subtype /Form /BBox [0 0 10 10] "+
					"/Resources << /XObject << /Inner %s >> >>", pdftest.Ref(inner)), []byte("/Inner Do"))
			},
		},
	})
}

func newWriter(t *testing.T) *Writer {
	t.Helper()
	w, err := New(filepath.Join(t.TempDir(), "images"), bytes.NewReader(imagePDF(t)))
	require.NoError(t, err)
	return w
}

func TestWriter_ExportImage(t *testing.T) {
	tests := []struct {
		name     string
		img      layout.Image
		wantFile string
		check    func(t *testing.T, data []byte)
	}{
		{
			name:     "gray bitmap",
			img:      layout.Image{Name: "Gray", Width: 3, Height: 2, BitsPerComponent: 8, ColorSpace: "DeviceGray", PageNumber: 1, ResourcePath: []string{"Gray"}},
			wantFile: "Gray-p1-1.bmp",
			check: func(t *testing.T, data []byte) {
				m, err := bmp.Decode(bytes.NewReader(data))
				require.NoError(t, err)
				assert.Equal(t, image.Rect(0, 0, 3, 2), m.Bounds())
				assert.Equal(t, uint8(0x80), color.GrayModel.Convert(m.At(1, 1)).(color.Gray).Y)
			},
		},
		{
			name:     "jpeg copied",
			img:      layout.Image{Name: "Photo", Width: 4, Height: 4, BitsPerComponent: 8, ColorSpace: "DeviceRGB", Filters: []string{"DCTDecode"}, PageNumber: 1, ResourcePath: []string{"Photo"}},
			wantFile: "Photo-p1-1.jpg",
			check: func(t *testing.T, data []byte) {
				assert.Equal(t, jpegBytes(t), data)
			},
		},
		{
			name:     "other formats raw",
			img:      layout.Image{Name: "Mask", Width: 8, Height: 1, BitsPerComponent: 1, ColorSpace: "DeviceGray", PageNumber: 1, ResourcePath: []string{"Mask"}},
			wantFile: "Mask-p1-1.bin",
			check: func(t *testing.T, data []byte) {
				assert.Equal(t, []byte{0xAA}, data)
			},
		},
		{
			name:     "ccitt fax",
			img:      layout.Image{Name: "Fax", Width: 8, Height: 2, BitsPerComponent: 1, ColorSpace: "DeviceGray", Filters: []string{"CCITTFaxDecode"}, PageNumber: 1, ResourcePath: []string{"Fax"}},
			wantFile: "Fax-p1-1.bmp",
			check: func(t *testing.T, data []byte) {
				m, err := bmp.Decode(bytes.NewReader(data))
				require.NoError(t, err)
				assert.Equal(t, image.Rect(0, 0, 8, 2), m.Bounds())
				assert.Equal(t, uint8(0xFF), color.GrayModel.Convert(m.At(7, 1)).(color.Gray).Y)
			},
		},
		{
			name:     "inside form",
			img:      layout.Image{Name: "Inner", Width: 2, Height: 2, BitsPerComponent: 8, ColorSpace: "DeviceGray", PageNumber: 1, ResourcePath: []string{"Fx", "Inner"}},
			wantFile: "Inner-p1-1.bmp",
			check: func(t *testing.T, data []byte) {
				m, err := bmp.Decode(bytes.NewReader(data))
				require.NoError(t, err)
				assert.Equal(t, image.Rect(0, 0, 2, 2), m.Bounds())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWriter(t)
			name, err := w.ExportImage(&tt.img)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFile, name)

			data, err := os.ReadFile(filepath.Join(w.Dir(), name))
			require.NoError(t, err)
			tt.check(t, data)
		})
	}
}

func TestWriter_UniqueNames(t *testing.T) {
	w := newWriter(t)
	img := &layout.Image{Name: "Gray", Width: 3, Height: 2, BitsPerComponent: 8, ColorSpace: "DeviceGray", PageNumber: 1, ResourcePath: []string{"Gray"}}

	first, err := w.ExportImage(img)
	require.NoError(t, err)
	second, err := w.ExportImage(img)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestWriter_Errors(t *testing.T) {
	w := newWriter(t)

	tests := []struct {
		name string
		img  layout.Image
	}{
		{name: "unknown resource", img: layout.Image{Name: "Nope", PageNumber: 1, ResourcePath: []string{"Nope"}}},
		{name: "page out of range", img: layout.Image{Name: "Gray", PageNumber: 9, ResourcePath: []string{"Gray"}}},
		{name: "no path", img: layout.Image{Name: "Gray", PageNumber: 1}},
		{name: "oversized fax", img: layout.Image{Name: "Huge", Width: 100000, Height: 100000, BitsPerComponent: 1, ColorSpace: "DeviceGray", Filters: []string{"CCITTFaxDecode"}, PageNumber: 1, ResourcePath: []string{"Huge"}}},
		{name: "oversized bitmap", img: layout.Image{Name: "Gray", Width: 1 << 20, Height: 1 << 20, BitsPerComponent: 8, ColorSpace: "DeviceGray", PageNumber: 1, ResourcePath: []string{"Gray"}}},
		{name: "short fax data", img: layout.Image{Name: "Fax", Width: 8, Height: 64, BitsPerComponent: 1, ColorSpace: "DeviceGray", Filters: []string{"CCITTFaxDecode"}, PageNumber: 1, ResourcePath: []string{"Fax"}}},
		{name: "short data", img: layout.Image{Name: "Gray", Width: 30, Height: 20, BitsPerComponent: 8, ColorSpace: "DeviceGray", PageNumber: 1, ResourcePath: []string{"Gray"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.ExportImage(&tt.img)
			require.Error(t, err)
			assert.True(t, pdferrors.IsType(err, pdferrors.ErrorTypeInvalidImage))
		})
	}
}

func TestWriter_WithAnalyzer(t *testing.T) {
	data := imagePDF(t)
	w, err := New(t.TempDir(), bytes.NewReader(data))
	require.NoError(t, err)

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	page, err := layout.NewAnalyzer(layout.DefaultParams(), nil).AnalyzePage(r, 1)
	require.NoError(t, err)

	var exported []string
	var visit func(nodes []layout.Node)
	visit = func(nodes []layout.Node) {
		for _, n := range nodes {
			switch n := n.(type) {
			case *layout.Image:
				name, err := w.ExportImage(n)
				require.NoError(t, err)
				exported = append(exported, name)
			case *layout.Figure:
				visit(n.Children)
			}
		}
	}
	visit(page.Children)
	assert.Len(t, exported, 3)
}
