package layout

import (
	"bytes"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-model/internal/logging"
	pdferrors "github.com/a3tai/mcp-pdf-model/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-model/internal/pdftest"
)

func openReader(t *testing.T, data []byte) *pdf.Reader {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return r
}

func analyzeFirst(t *testing.T, params Params, spec pdftest.Spec) *Page {
	t.Helper()
	r := openReader(t, pdftest.Document(spec))
	page, err := NewAnalyzer(params, logging.Discard()).AnalyzePage(r, 1)
	require.NoError(t, err)
	return page
}

func onePage(content string) pdftest.Spec {
	return pdftest.Spec{Pages: []pdftest.Page{{Content: content}}}
}

func assertBox(t *testing.T, want, got BBox) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-6, "bbox %v, want %v", got, want)
	}
}

func TestAnalyzePage_TextBoxGeometry(t *testing.T) {
	page := analyzeFirst(t, DefaultParams(), onePage("BT /F1 10 Tf 10 12 Td (Hello World) Tj ET"))

	assert.Equal(t, 1, page.ID)
	assertBox(t, BBox{0, 0, 612, 792}, page.Box)
	require.Len(t, page.Children, 1)

	box, ok := page.Children[0].(*TextBox)
	require.True(t, ok, "got %T", page.Children[0])
	assertBox(t, BBox{10, 10, 100, 20}, box.Box)
	assert.Equal(t, "Hello World\n", box.Text())
	assert.Equal(t, 0, box.Index)
	assert.Equal(t, KindTextBox, box.Kind())

	require.Len(t, page.Groups, 1)
	assert.Same(t, box, page.Groups[0])

	line := box.Children[0].(*TextLine)
	first := line.Children[0].(*Char)
	assert.Equal(t, "H", first.Text)
	assert.Equal(t, "TestSans", first.FontName)
	assert.Equal(t, "DeviceGray", first.ColorSpace)
	assert.Equal(t, "0", first.ColorString())
	assert.InDelta(t, 10, first.Size, 1e-9)
	assert.True(t, first.Upright)
	assertBox(t, BBox{10, 10, 17.5, 20}, first.Box)
}

func TestAnalyzePage_WordSpacing(t *testing.T) {
	page := analyzeFirst(t, DefaultParams(), onePage("BT /F1 10 Tf 10 12 Td (ab) Tj 20 0 Td (cd) Tj ET"))
	require.Len(t, page.Children, 1)
	assert.Equal(t, "ab cd\n", page.Children[0].(*TextBox).Text())
}

func TestAnalyzePage_KerningAndSpacing(t *testing.T) {
	// -1000 thousandths of a 10 point font moves the pen 10 points right
	page := analyzeFirst(t, DefaultParams(), onePage("BT /F1 10 Tf 10 12 Td [(a) -1000 (b)] TJ ET"))
	box := page.Children[0].(*TextBox)
	line := box.Children[0].(*TextLine)

	var chars []*Char
	for _, n := range line.Children {
		if c, ok := n.(*Char); ok {
			chars = append(chars, c)
		}
	}
	require.Len(t, chars, 2)
	assert.InDelta(t, 27.5, chars[1].Box.X0(), 1e-9)
	assert.Equal(t, "a b\n", box.Text())
}

func TestAnalyzePage_LinesJoinIntoBoxes(t *testing.T) {
	content := "BT /F1 10 Tf 14 TL 72 720 Td (First line) Tj T* (Second line) Tj " +
		"0 -300 Td (Far away) Tj ET"
	page := analyzeFirst(t, DefaultParams(), onePage(content))

	require.Len(t, page.Children, 2)
	top := page.Children[0].(*TextBox)
	bottom := page.Children[1].(*TextBox)
	assert.Equal(t, "First line\nSecond line\n", top.Text())
	assert.Equal(t, "Far away\n", bottom.Text())
	assert.Equal(t, 0, top.Index)
	assert.Equal(t, 1, bottom.Index)

	require.Len(t, page.Groups, 1)
	group, ok := page.Groups[0].(*TextGroup)
	require.True(t, ok)
	assert.Equal(t, []Node{top, bottom}, group.Children)
	assertBox(t, top.Box.Union(bottom.Box), group.Box)
}

func TestAnalyzePage_WithoutGrouping(t *testing.T) {
	content := "BT /F1 10 Tf 72 100 Td (Lower) Tj 0 500 Td (Upper) Tj ET"
	page := analyzeFirst(t, DefaultParams().WithoutGrouping(), onePage(content))

	require.Len(t, page.Children, 2)
	assert.Equal(t, "Upper\n", page.Children[0].(*TextBox).Text())
	assert.Equal(t, "Lower\n", page.Children[1].(*TextBox).Text())
	assert.Equal(t, 0, page.Children[0].(*TextBox).Index)
	assert.Nil(t, page.Groups)
}

func TestAnalyzePage_Paths(t *testing.T) {
	content := "BT /F1 10 Tf 10 700 Td (Title) Tj ET\n" +
		"2 w 10 10 m 100 10 l S\n" +
		"20 20 50 40 re f\n" +
		"10 100 m 20 130 40 150 60 170 c S\n" +
		"200 200 m 210 210 l 220 200 l S\n"
	page := analyzeFirst(t, DefaultParams(), onePage(content))

	require.Len(t, page.Children, 5)
	assert.IsType(t, &TextBox{}, page.Children[0])

	line := page.Children[1].(*Line)
	assertBox(t, BBox{10, 10, 100, 10}, line.Box)
	assert.Equal(t, 2.0, line.LineWidth)
	assert.Equal(t, []Point{{10, 10}, {100, 10}}, line.Points)

	rect := page.Children[2].(*Rect)
	assertBox(t, BBox{20, 20, 70, 60}, rect.Box)

	curve := page.Children[3].(*Curve)
	assertBox(t, BBox{10, 100, 60, 170}, curve.Box)
	assert.Equal(t, "10.000,100.000,60.000,170.000", curve.PointsString())

	open := page.Children[4].(*Curve)
	assert.Len(t, open.Points, 3)
}

func TestAnalyzePage_SubpathsSplit(t *testing.T) {
	page := analyzeFirst(t, DefaultParams(), onePage("0 0 m 10 0 l 0 20 m 10 20 l S"))
	require.Len(t, page.Children, 2)
	assert.IsType(t, &Line{}, page.Children[0])
	assert.IsType(t, &Line{}, page.Children[1])
}

func TestAnalyzePage_Image(t *testing.T) {
	spec := pdftest.Spec{
		Pages:    []pdftest.Page{{Content: "q 100 0 0 50 20 30 cm /Im1 Do Q"}},
		XObjects: map[string]func(*pdftest.Builder) int{"Im1": pdftest.GrayImage(2, 3)},
	}
	page := analyzeFirst(t, DefaultParams(), spec)

	require.Len(t, page.Children, 1)
	fig := page.Children[0].(*Figure)
	assert.Equal(t, "Im1", fig.Name)
	assertBox(t, BBox{20, 30, 120, 80}, fig.Box)

	require.Len(t, fig.Children, 1)
	img := fig.Children[0].(*Image)
	assert.Equal(t, "Im1", img.Name)
	assert.Equal(t, 2, img.Width)
	assert.Equal(t, 3, img.Height)
	assert.Equal(t, 8, img.BitsPerComponent)
	assert.Equal(t, "DeviceGray", img.ColorSpace)
	assert.Empty(t, img.Filters)
	assert.Equal(t, 1, img.PageNumber)
	assert.Equal(t, []string{"Im1"}, img.ResourcePath)
}

func TestAnalyzePage_FormXObject(t *testing.T) {
	spec := pdftest.Spec{
		Pages: []pdftest.Page{{Content: "q 1 0 0 1 100 100 cm /Fm1 Do Q"}},
		XObjects: map[string]func(*pdftest.Builder) int{
			"Fm1": pdftest.FormXObject("[0 0 50 50]", "BT /F1 10 Tf 0 2 Td (xy) Tj ET"),
		},
	}

	t.Run("glyphs stay raw", func(t *testing.T) {
		params := DefaultParams()
		params.AllTexts = false
		page := analyzeFirst(t, params, spec)
		require.Len(t, page.Children, 1)
		fig := page.Children[0].(*Figure)
		assert.Equal(t, "Fm1", fig.Name)
		assertBox(t, BBox{100, 100, 150, 150}, fig.Box)
		require.Len(t, fig.Children, 2)
		assert.IsType(t, &Char{}, fig.Children[0])
		assertBox(t, BBox{100, 100, 107.5, 110}, fig.Children[0].Bounds())
	})

	t.Run("all texts", func(t *testing.T) {
		page := analyzeFirst(t, DefaultParams(), spec)
		fig := page.Children[0].(*Figure)
		require.Len(t, fig.Children, 1)
		assert.Equal(t, "xy\n", fig.Children[0].(*TextBox).Text())
	})

	t.Run("depth limit", func(t *testing.T) {
		params := DefaultParams()
		params.MaxFormDepth = 1
		page := analyzeFirst(t, params, spec)
		assert.Empty(t, page.Children)
	})
}

func TestAnalyzePage_WhitespaceLinesLast(t *testing.T) {
	content := "BT /F1 10 Tf 10 500 Td (   ) Tj 0 -200 Td (Body) Tj ET\n10 10 m 50 10 l S"
	page := analyzeFirst(t, DefaultParams(), onePage(content))

	require.Len(t, page.Children, 3)
	assert.Equal(t, "Body\n", page.Children[0].(*TextBox).Text())
	assert.IsType(t, &Line{}, page.Children[1])
	empty := page.Children[2].(*TextLine)
	assert.Equal(t, "   \n", empty.Text())
}

func TestAnalyzePage_Rotation(t *testing.T) {
	spec := pdftest.Spec{Pages: []pdftest.Page{{Content: "", Rotate: 90}}}
	page := analyzeFirst(t, DefaultParams(), spec)
	assert.Equal(t, 90, page.Rotate)
	assertBox(t, BBox{0, 0, 792, 612}, page.Box)
	assert.Empty(t, page.Children)
}

func TestAnalyzePage_ColourSpaces(t *testing.T) {
	page := analyzeFirst(t, DefaultParams(), onePage("BT /F1 10 Tf 1 0 0 rg 10 12 Td (A) Tj ET"))
	c := page.Children[0].(*TextBox).Children[0].(*TextLine).Children[0].(*Char)
	assert.Equal(t, "DeviceRGB", c.ColorSpace)
	assert.Equal(t, "1,0,0", c.ColorString())
}

func TestAnalyzePage_Errors(t *testing.T) {
	r := openReader(t, pdftest.Document(onePage("")))
	a := NewAnalyzer(DefaultParams(), logging.Discard())

	_, err := a.AnalyzePage(r, 2)
	require.Error(t, err)
	assert.True(t, pdferrors.IsType(err, pdferrors.ErrorTypeMalformedPage))

	b := &pdftest.Builder{}
	catalog := b.Reserve()
	pages := b.Reserve()
	content := b.AddStream("/Filter /NoSuchDecode", []byte("garbage"))
	page := b.Add("<< /Type /Page /Parent " + pdftest.Ref(pages) + " /MediaBox [0 0 100 100] /Contents " + pdftest.Ref(content) + " >>")
	b.Set(pages, "<< /Type /Pages /Kids ["+pdftest.Ref(page)+"] /Count 1 >>")
	b.Set(catalog, "<< /Type /Catalog /Pages "+pdftest.Ref(pages)+" >>")

	_, err = a.AnalyzePage(openReader(t, b.Bytes(catalog)), 1)
	require.Error(t, err)
	assert.True(t, pdferrors.IsType(err, pdferrors.ErrorTypeMalformedPage))
}

func TestAnalyzeDocument(t *testing.T) {
	spec := pdftest.Spec{Pages: []pdftest.Page{
		pdftest.TextPage("page one"),
		pdftest.TextPage("page two"),
		pdftest.TextPage("page three"),
	}}
	r := openReader(t, pdftest.Document(spec))

	pages, err := NewAnalyzer(DefaultParams(), nil).AnalyzeDocument(r)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	for i, p := range pages {
		assert.Equal(t, i+1, p.ID)
	}
	assert.Equal(t, "page three\n", pages[2].Children[0].(*TextBox).Text())
}

func TestAnalyzeDocument_GeneratedFile(t *testing.T) {
	data := pdftest.Generated(t, []string{"Quarterly report"}, []string{"Appendix"})
	r := openReader(t, data)

	pages, err := NewAnalyzer(DefaultParams(), nil).AnalyzeDocument(r)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "Quarterly report\n", pages[0].Children[0].(*TextBox).Text())
	assert.Equal(t, "Appendix\n", pages[1].Children[0].(*TextBox).Text())
}

func TestWalk_StopsOnCallbackError(t *testing.T) {
	spec := pdftest.Spec{Pages: []pdftest.Page{pdftest.TextPage("a"), pdftest.TextPage("b")}}
	r := openReader(t, pdftest.Document(spec))

	seen := 0
	err := NewAnalyzer(DefaultParams(), nil).Walk(r, func(*Page) error {
		seen++
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, seen)
}
