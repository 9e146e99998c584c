// Package layout turns PDF pages into layout trees: pages holding text
// boxes, text lines, glyphs, figures, images and vector primitives with
// their geometry. The tree is a closed set of node types; consumers switch
// on the concrete type.
package layout

import (
	"fmt"
	"math"
	"strings"
)

// Kind names a node variant
type Kind int

const (
	KindPage Kind = iota
	KindLine
	KindRect
	KindCurve
	KindFigure
	KindTextLine
	KindTextBox
	KindTextBoxVertical
	KindChar
	KindText
	KindImage
	KindTextGroup
)

var kindNames = map[Kind]string{
	KindPage:            "page",
	KindLine:            "line",
	KindRect:            "rect",
	KindCurve:           "curve",
	KindFigure:          "figure",
	KindTextLine:        "textline",
	KindTextBox:         "textbox",
	KindTextBoxVertical: "textbox-vertical",
	KindChar:            "char",
	KindText:            "text",
	KindImage:           "image",
	KindTextGroup:       "textgroup",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Node is a layout tree node. The set of implementations is closed.
type Node interface {
	Kind() Kind
	Bounds() BBox
	node()
}

// Container is a node with ordered children
type Container interface {
	Node
	Items() []Node
}

// Point is a position in page space
type Point struct {
	X, Y float64
}

// BBox is an axis-aligned box (x0, y0, x1, y1)
type BBox [4]float64

// X0 returns the left edge
func (b BBox) X0() float64 { return b[0] }

// Y0 returns the bottom edge
func (b BBox) Y0() float64 { return b[1] }

// X1 returns the right edge
func (b BBox) X1() float64 { return b[2] }

// Y1 returns the top edge
func (b BBox) Y1() float64 { return b[3] }

// Width returns x1 - x0
func (b BBox) Width() float64 { return b[2] - b[0] }

// Height returns y1 - y0
func (b BBox) Height() float64 { return b[3] - b[1] }

// Slice returns the box as a slice
func (b BBox) Slice() []float64 { return []float64{b[0], b[1], b[2], b[3]} }

// String renders the box as "x0,y0,x1,y1" with three decimals
func (b BBox) String() string {
	return fmt.Sprintf("%.3f,%.3f,%.3f,%.3f", b[0], b[1], b[2], b[3])
}

// Union returns the smallest box containing b and o
func (b BBox) Union(o BBox) BBox {
	return BBox{
		math.Min(b[0], o[0]), math.Min(b[1], o[1]),
		math.Max(b[2], o[2]), math.Max(b[3], o[3]),
	}
}

// IsHOverlap reports whether the horizontal extents touch or overlap
func (b BBox) IsHOverlap(o BBox) bool { return o[0] <= b[2] && b[0] <= o[2] }

// IsVOverlap reports whether the vertical extents touch or overlap
func (b BBox) IsVOverlap(o BBox) bool { return o[1] <= b[3] && b[1] <= o[3] }

// HOverlap returns the width of the horizontal overlap, 0 if none
func (b BBox) HOverlap(o BBox) float64 {
	if !b.IsHOverlap(o) {
		return 0
	}
	return math.Min(math.Abs(b[0]-o[2]), math.Abs(b[2]-o[0]))
}

// VOverlap returns the height of the vertical overlap, 0 if none
func (b BBox) VOverlap(o BBox) float64 {
	if !b.IsVOverlap(o) {
		return 0
	}
	return math.Min(math.Abs(b[1]-o[3]), math.Abs(b[3]-o[1]))
}

// HDistance returns the horizontal gap, 0 when overlapping
func (b BBox) HDistance(o BBox) float64 {
	if b.IsHOverlap(o) {
		return 0
	}
	return math.Min(math.Abs(b[0]-o[2]), math.Abs(b[2]-o[0]))
}

// VDistance returns the vertical gap, 0 when overlapping
func (b BBox) VDistance(o BBox) float64 {
	if b.IsVOverlap(o) {
		return 0
	}
	return math.Min(math.Abs(b[1]-o[3]), math.Abs(b[3]-o[1]))
}

// Intersects reports whether the interiors of b and o overlap
func (b BBox) Intersects(o BBox) bool {
	return !(o[2] <= b[0] || b[2] <= o[0] || o[3] <= b[1] || b[3] <= o[1])
}

func boundsOf(pts []Point) BBox {
	if len(pts) == 0 {
		return BBox{}
	}
	b := BBox{pts[0].X, pts[0].Y, pts[0].X, pts[0].Y}
	for _, p := range pts[1:] {
		b = b.Union(BBox{p.X, p.Y, p.X, p.Y})
	}
	return b
}

// Page is the root of a layout tree
type Page struct {
	ID       int
	Box      BBox
	Rotate   int
	Children []Node
	// Groups holds the roots of the text grouping hierarchy when text
	// grouping is on: *TextGroup nodes, or a lone *TextBox.
	Groups []Node
}

func (*Page) Kind() Kind { return KindPage }
func (p *Page) Bounds() BBox { return p.Box }
func (p *Page) Items() []Node { return p.Children }
func (*Page) node() {}

// Line is a straight stroked segment
type Line struct {
	Box       BBox
	LineWidth float64
	Points    []Point
}

func (*Line) Kind() Kind { return KindLine }
func (l *Line) Bounds() BBox { return l.Box }
func (*Line) node() {}

// Rect is an axis-aligned rectangle path
type Rect struct {
	Box       BBox
	LineWidth float64
}

func (*Rect) Kind() Kind { return KindRect }
func (r *Rect) Bounds() BBox { return r.Box }
func (*Rect) node() {}

// Curve is any other painted path
type Curve struct {
	Box       BBox
	LineWidth float64
	Points    []Point
}

func (*Curve) Kind() Kind { return KindCurve }
func (c *Curve) Bounds() BBox { return c.Box }
func (*Curve) node() {}

// PointsString renders the points as "x,y,x,y,..." with three decimals
func (c *Curve) PointsString() string {
	parts := make([]string, 0, len(c.Points))
	for _, p := range c.Points {
		parts = append(parts, fmt.Sprintf("%.3f,%.3f", p.X, p.Y))
	}
	return strings.Join(parts, ",")
}

// Figure is a placed XObject: an image wrapper or a form's own content
type Figure struct {
	Name     string
	Box      BBox
	Children []Node
}

func (*Figure) Kind() Kind { return KindFigure }
func (f *Figure) Bounds() BBox { return f.Box }
func (f *Figure) Items() []Node { return f.Children }
func (*Figure) node() {}

// TextLine is a run of glyphs on one baseline (or one column when vertical)
type TextLine struct {
	Box      BBox
	Vertical bool
	Children []Node
}

func (*TextLine) Kind() Kind { return KindTextLine }
func (l *TextLine) Bounds() BBox { return l.Box }
func (l *TextLine) Items() []Node { return l.Children }
func (*TextLine) node() {}

// Text returns the concatenated text of the line
func (l *TextLine) Text() string { return collectText(l.Children) }

// TextBox is a block of text lines. Index is assigned by the analyzer.
type TextBox struct {
	Index    int
	Box      BBox
	Vertical bool
	Children []Node
}

func (b *TextBox) Kind() Kind {
	if b.Vertical {
		return KindTextBoxVertical
	}
	return KindTextBox
}
func (b *TextBox) Bounds() BBox { return b.Box }
func (b *TextBox) Items() []Node { return b.Children }
func (*TextBox) node() {}

// Text returns the concatenated text of every glyph and spacing node
// inside the box
func (b *TextBox) Text() string { return collectText(b.Children) }

// Char is a single glyph
type Char struct {
	Text       string
	FontName   string
	Box        BBox
	ColorSpace string
	Color      []float64
	Size       float64
	Upright    bool
	Advance    float64
}

func (*Char) Kind() Kind { return KindChar }
func (c *Char) Bounds() BBox { return c.Box }
func (*Char) node() {}

// ColorString renders the fill colour components joined by commas
func (c *Char) ColorString() string {
	parts := make([]string, len(c.Color))
	for i, v := range c.Color {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return strings.Join(parts, ",")
}

// Text is a spacing or line-break marker inserted by the analyzer. It has
// no geometry of its own.
type Text struct {
	Text string
}

func (*Text) Kind() Kind { return KindText }
func (*Text) Bounds() BBox { return BBox{} }
func (*Text) node() {}

// Image is an image XObject. Width and Height are the source pixel size.
type Image struct {
	Name             string
	Box              BBox
	Width            int
	Height           int
	BitsPerComponent int
	ColorSpace       string
	Filters          []string
	// PageNumber and ResourcePath locate the XObject: the chain of XObject
	// resource names from the page down to this image.
	PageNumber   int
	ResourcePath []string
}

func (*Image) Kind() Kind { return KindImage }
func (i *Image) Bounds() BBox { return i.Box }
func (*Image) node() {}

// TextGroup is a node of the text grouping hierarchy; its children are
// text boxes or further groups.
type TextGroup struct {
	Box      BBox
	Vertical bool
	Children []Node
}

func (*TextGroup) Kind() Kind { return KindTextGroup }
func (g *TextGroup) Bounds() BBox { return g.Box }
func (g *TextGroup) Items() []Node { return g.Children }
func (*TextGroup) node() {}

func collectText(nodes []Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		switch v := n.(type) {
		case *Char:
			sb.WriteString(v.Text)
		case *Text:
			sb.WriteString(v.Text)
		case *TextLine:
			sb.WriteString(v.Text())
		}
	}
	return sb.String()
}
