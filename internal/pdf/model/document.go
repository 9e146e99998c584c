package model

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	pdferrors "github.com/a3tai/mcp-pdf-model/internal/pdf/errors"
)

// DefaultCodec is the encoding declared in the XML dump by default
const DefaultCodec = "utf-8"

// Entry pairs a content item with its page-local content id
type Entry struct {
	ID   int
	Item Content
}

// Page is one converted page. Content ids start at 0 and grow by one for
// every added item.
type Page struct {
	id      int
	bbox    []int
	rotate  int
	entries []Entry
}

// NewPage creates an empty Page
func NewPage(id int, bbox []float64, rotate int) *Page {
	return &Page{id: id, bbox: Normalize(bbox), rotate: rotate}
}

// ID returns the page identifier (1-based page number)
func (p *Page) ID() int { return p.id }

// BBox returns the canonical page box
func (p *Page) BBox() []int { return p.bbox }

// Rotate returns the page rotation in degrees
func (p *Page) Rotate() int { return p.rotate }

// AddContent appends c and returns its content id
func (p *Page) AddContent(c Content) int {
	id := len(p.entries)
	p.entries = append(p.entries, Entry{ID: id, Item: c})
	return id
}

// Content returns the item stored under id
func (p *Page) Content(id int) (Content, bool) {
	if id < 0 || id >= len(p.entries) {
		return nil, false
	}
	return p.entries[id].Item, true
}

// Entries returns the content items in insertion order
func (p *Page) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Len returns the number of content items
func (p *Page) Len() int { return len(p.entries) }

// Figures returns the figures on the page keyed by content id
func (p *Page) Figures() map[int]*Figure {
	out := make(map[int]*Figure)
	for _, e := range p.entries {
		if f, ok := e.Item.(*Figure); ok {
			out[e.ID] = f
		}
	}
	return out
}

// TextBoxes returns the text boxes on the page keyed by content id
func (p *Page) TextBoxes() map[int]*TextBox {
	out := make(map[int]*TextBox)
	for _, e := range p.entries {
		if t, ok := e.Item.(*TextBox); ok {
			out[e.ID] = t
		}
	}
	return out
}

func (p *Page) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<page id="%d" bbox="%s" rotate="%d">`+"\n", p.id, BBoxString(p.bbox), p.rotate)
	for _, e := range p.entries {
		sb.WriteString(e.Item.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Document is the result of a conversion: pages in source order and the
// XML dump produced in the same pass.
type Document struct {
	codec string
	order []int
	pages map[int]*Page
	xml   bytes.Buffer
}

// NewDocument creates an empty Document whose XML buffer is declared in
// codec. An empty codec means UTF-8 without an encoding declaration.
func NewDocument(codec string) *Document {
	return &Document{codec: codec, pages: make(map[int]*Page)}
}

// Codec returns the encoding of the XML buffer
func (d *Document) Codec() string { return d.codec }

// AddPage appends p. Page ids must be unique within a document.
func (d *Document) AddPage(p *Page) error {
	if _, exists := d.pages[p.ID()]; exists {
		return pdferrors.NewPDFError(pdferrors.ErrorTypeStructural, "duplicate page id").WithPage(p.ID())
	}
	d.pages[p.ID()] = p
	d.order = append(d.order, p.ID())
	return nil
}

// Page returns the page with the given id
func (d *Document) Page(id int) (*Page, bool) {
	p, ok := d.pages[id]
	return p, ok
}

// Pages returns the pages in insertion order
func (d *Document) Pages() []*Page {
	out := make([]*Page, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.pages[id])
	}
	return out
}

// PageCount returns the number of pages
func (d *Document) PageCount() int { return len(d.order) }

// AppendXML appends already encoded bytes to the XML buffer
func (d *Document) AppendXML(b []byte) {
	d.xml.Write(b)
}

// XML returns the raw XML buffer in the document's codec
func (d *Document) XML() []byte {
	return d.xml.Bytes()
}

// DumpXML returns the XML buffer decoded from the document's codec
func (d *Document) DumpXML() (string, error) {
	enc, err := LookupCodec(d.codec)
	if err != nil {
		return "", err
	}
	if enc == nil {
		return d.xml.String(), nil
	}
	out, err := enc.NewDecoder().Bytes(d.xml.Bytes())
	if err != nil {
		return "", fmt.Errorf("failed to decode XML dump from %s: %w", d.codec, err)
	}
	return string(out), nil
}

// LookupCodec resolves an IANA encoding name. UTF-8 and the empty name
// return a nil Encoding, meaning bytes pass through unchanged.
func LookupCodec(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidEncoding, "unknown codec "+name, err)
	}
	if enc == nil {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidEncoding, "unsupported codec "+name)
	}
	return enc, nil
}
