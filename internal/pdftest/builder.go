// Package pdftest builds small, well-formed PDF files for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Builder assembles numbered objects into a PDF with a valid xref table
type Builder struct {
	objects []string
}

// Reserve allocates an object number to be filled later with Set
func (b *Builder) Reserve() int {
	b.objects = append(b.objects, "null")
	return len(b.objects)
}

// Add appends an object body and returns its object number
func (b *Builder) Add(body string) int {
	b.objects = append(b.objects, body)
	return len(b.objects)
}

// Set replaces the body of object num
func (b *Builder) Set(num int, body string) {
	b.objects[num-1] = body
}

// AddStream appends a stream object. extra holds additional dictionary
// entries.
func (b *Builder) AddStream(extra string, data []byte) int {
	return b.Add(fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", extra, len(data), data))
}

// Bytes serializes the file with root as the catalog
func (b *Builder) Bytes(root int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(b.objects))
	for i, body := range b.objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(b.objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(b.objects)+1, root, xref)
	return buf.Bytes()
}

// Ref formats an indirect reference
func Ref(num int) string {
	return fmt.Sprintf("%d 0 R", num)
}

// Page describes one page of a document built by Document
type Page struct {
	Content string
	// MediaBox defaults to [0 0 612 792]
	MediaBox string
	Rotate   int
	// Resources holds extra resource dictionary entries besides /Font
	Resources string
	// Annots holds the page's annotation array entries
	Annots string
}

// Field is an AcroForm field placed on the first page
type Field struct {
	Name  string
	Label string
	Value string
	// RawValue is written verbatim as /V when set, e.g. a hex string or name
	RawValue string
	Rect     string
	// Type is the /FT name, Tx when empty
	Type string
}

// Spec drives Document
type Spec struct {
	Pages []Page
	// Fields adds an AcroForm. Ignored when nil; an empty non-nil slice
	// yields an AcroForm with an empty field array.
	Fields []Field
	// XObjects are extra objects the page resources can name: the key is
	// the resource name, the value a function adding the object.
	XObjects map[string]func(b *Builder) int
	// Encoding replaces the /Encoding entry of font /F1, /WinAnsiEncoding
	// when empty
	Encoding string
	// ToUnicode adds a ToUnicode CMap stream with this content to /F1
	ToUnicode string
}

// FontWidth is the advance of every glyph of the test font except W
const FontWidth = 750

// Document builds a PDF from spec. Every page gets font /F1, a simple font
// with FontWidth-wide glyphs (W is twice as wide), descent -200 and
// WinAnsi encoding.
func Document(spec Spec) []byte {
	b := &Builder{}
	catalog := b.Reserve()
	pagesObj := b.Reserve()

	widths := make([]string, 0, 95)
	for c := 32; c <= 126; c++ {
		if c == 'W' {
			widths = append(widths, fmt.Sprint(2*FontWidth))
			continue
		}
		widths = append(widths, fmt.Sprint(FontWidth))
	}
	desc := b.Add("<< /Type /FontDescriptor /FontName /TestSans /Flags 32 /FontBBox [0 -200 1000 800] " +
		"/ItalicAngle 0 /Ascent 800 /Descent -200 /CapHeight 700 /StemV 80 >>")
	encoding := spec.Encoding
	if encoding == "" {
		encoding = "/WinAnsiEncoding"
	}
	toUnicode := ""
	if spec.ToUnicode != "" {
		toUnicode = " /ToUnicode " + Ref(b.AddStream("", []byte(spec.ToUnicode)))
	}
	font := b.Add(fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /TestSans /FirstChar 32 /LastChar 126 "+
		"/Widths [%s] /FontDescriptor %s /Encoding %s%s >>", strings.Join(widths, " "), Ref(desc), encoding, toUnicode))

	var xobjects []string
	for name, add := range spec.XObjects {
		xobjects = append(xobjects, fmt.Sprintf("/%s %s", name, Ref(add(b))))
	}
	xobjDict := ""
	if len(xobjects) > 0 {
		xobjDict = fmt.Sprintf("/XObject << %s >>", strings.Join(xobjects, " "))
	}

	var fieldRefs []string
	var fieldObjs []int
	for range spec.Fields {
		fieldObjs = append(fieldObjs, b.Reserve())
	}

	kids := make([]string, 0, len(spec.Pages))
	for i, p := range spec.Pages {
		content := b.AddStream("", []byte(p.Content))
		media := p.MediaBox
		if media == "" {
			media = "[0 0 612 792]"
		}
		page := b.Reserve()
		annots := p.Annots
		if i == 0 {
			for _, f := range fieldObjs {
				annots += " " + Ref(f)
			}
		}
		extra := ""
		if p.Rotate != 0 {
			extra += fmt.Sprintf(" /Rotate %d", p.Rotate)
		}
		if strings.TrimSpace(annots) != "" {
			extra += fmt.Sprintf(" /Annots [%s]", strings.TrimSpace(annots))
		}
		b.Set(page, fmt.Sprintf("<< /Type /Page /Parent %s /MediaBox %s /Contents %s "+
			"/Resources << /Font << /F1 %s >> %s %s >>%s >>",
			Ref(pagesObj), media, Ref(content), Ref(font), xobjDict, p.Resources, extra))
		kids = append(kids, Ref(page))

		if i == 0 {
			for k, f := range spec.Fields {
				rect := f.Rect
				if rect == "" {
					rect = fmt.Sprintf("[72 %d 300 %d]", 700-30*k, 720-30*k)
				}
				ft := f.Type
				if ft == "" {
					ft = "Tx"
				}
				body := fmt.Sprintf("<< /Type /Annot /Subtype /Widget /FT /%s /T (%s) /Rect %s /P %s", ft, Escape(f.Name), rect, Ref(page))
				if f.Label != "" {
					body += fmt.Sprintf(" /TU (%s)", Escape(f.Label))
				}
				switch {
				case f.RawValue != "":
					body += " /V " + f.RawValue
				case f.Value != "":
					body += fmt.Sprintf(" /V (%s)", Escape(f.Value))
				}
				b.Set(fieldObjs[k], body+" >>")
				fieldRefs = append(fieldRefs, Ref(fieldObjs[k]))
			}
		}
	}
	b.Set(pagesObj, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids)))

	cat := fmt.Sprintf("<< /Type /Catalog /Pages %s", Ref(pagesObj))
	if spec.Fields != nil {
		form := b.Add(fmt.Sprintf("<< /Fields [%s] >>", strings.Join(fieldRefs, " ")))
		cat += fmt.Sprintf(" /AcroForm %s", Ref(form))
	}
	b.Set(catalog, cat+" >>")
	return b.Bytes(catalog)
}

// GrayImage returns an XObject adder for an uncompressed 8-bit gray image
func GrayImage(width, height int) func(b *Builder) int {
	return func(b *Builder) int {
		data := bytes.Repeat([]byte{0x80}, width*height)
		return b.AddStream(fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d "+
			"/ColorSpace /DeviceGray /BitsPerComponent 8", width, height), data)
	}
}

// FormXObject returns an XObject adder for a form with the given content
// drawn with font /F1 inherited from the page
func FormXObject(bbox, content string) func(b *Builder) int {
	return func(b *Builder) int {
		return b.AddStream(fmt.Sprintf("/Type /XObject /Subtype /Form /BBox %s", bbox), []byte(content))
	}
}

// TextPage returns a page showing each line with font /F1 at size 10,
// starting at (72, 720) with a 14 point leading
func TextPage(lines ...string) Page {
	var sb strings.Builder
	sb.WriteString("BT /F1 10 Tf 14 TL 72 720 Td\n")
	for i, l := range lines {
		if i > 0 {
			sb.WriteString("T*\n")
		}
		fmt.Fprintf(&sb, "(%s) Tj\n", Escape(l))
	}
	sb.WriteString("ET\n")
	return Page{Content: sb.String()}
}

// Escape escapes a PDF literal string
func Escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

// WriteFile writes data to name inside a test temp directory and returns
// the full path
func WriteFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
