package model

import (
	"fmt"
	"strings"
)

// Content is an addressable item retained on a Page. Only *Figure and
// *TextBox implement it; lines, rectangles, curves and glyphs stay in the
// XML dump.
type Content interface {
	fmt.Stringer
	content()
}

// ImageInfo describes the image attached to a Figure
type ImageInfo struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Src    string `json:"src,omitempty"`
}

// Figure is a named figure region, optionally holding one image
type Figure struct {
	name  string
	bbox  []int
	image *ImageInfo
	// size is the figure's own extent, reported when no image is attached
	size *ImageInfo
}

// NewFigure creates a Figure with a canonical bounding box
func NewFigure(name string, bbox []float64) *Figure {
	return &Figure{name: name, bbox: Normalize(bbox)}
}

func (*Figure) content() {}

// Name returns the figure's resource name
func (f *Figure) Name() string { return f.name }

// BBox returns the canonical bounding box
func (f *Figure) BBox() []int { return f.bbox }

// SetImage attaches the descriptor of an image found inside the figure.
// A later image replaces an earlier one.
func (f *Figure) SetImage(width, height int, src string) {
	f.image = &ImageInfo{Width: width, Height: height, Src: src}
}

// SetSize records the figure's own width and height
func (f *Figure) SetSize(width, height int) {
	f.size = &ImageInfo{Width: width, Height: height}
}

// Image returns the attached image descriptor
func (f *Figure) Image() (ImageInfo, bool) {
	if f.image == nil {
		return ImageInfo{}, false
	}
	return *f.image, true
}

// Details renders the attached image as an <image> element. The exported
// file name is used as src when present, otherwise the figure name. A
// figure without image reports its own size, or "" when none was set.
func (f *Figure) Details() string {
	img, ok := f.Image()
	if !ok {
		if f.size == nil {
			return ""
		}
		img = *f.size
	}
	src := img.Src
	if src == "" {
		src = f.name
	}
	return fmt.Sprintf(`<image src="%s" width="%d" height="%d" />`, src, img.Width, img.Height)
}

func (f *Figure) String() string {
	if d := f.Details(); d != "" {
		return d
	}
	return fmt.Sprintf(`<figure name="%s" bbox="%s">`, f.name, BBoxString(f.bbox))
}

// WritingModeVertical marks a text box laid out top to bottom
const WritingModeVertical = "vertical"

// TextBox is a block of text with the layout engine's own box index.
// BoxID and the page-local content id are unrelated numbers.
type TextBox struct {
	boxID   int
	boxBBox []int
	wmode   string

	bbox []int
	text string
}

// NewTextBox creates a TextBox. wmode is "" or WritingModeVertical.
func NewTextBox(boxID int, bbox []float64, wmode string) *TextBox {
	return &TextBox{boxID: boxID, boxBBox: Normalize(bbox), wmode: wmode, bbox: []int{}}
}

func (*TextBox) content() {}

// SetItem captures the text and bounding box of the layout box. Leading
// and trailing whitespace is removed from text.
func (t *TextBox) SetItem(bbox []float64, text string) {
	t.bbox = Normalize(bbox)
	t.text = strings.TrimSpace(text)
}

// BoxID returns the index assigned by the layout engine
func (t *TextBox) BoxID() int { return t.boxID }

// BoxBBox returns the bounding box given at construction
func (t *TextBox) BoxBBox() []int { return t.boxBBox }

// WritingMode returns "" or WritingModeVertical
func (t *TextBox) WritingMode() string { return t.wmode }

// Text returns the captured text
func (t *TextBox) Text() string { return t.text }

// SetText replaces the captured text
func (t *TextBox) SetText(text string) { t.text = text }

// BBox returns the bounding box captured by SetItem
func (t *TextBox) BBox() []int { return t.bbox }

func (t *TextBox) edge(i int) (int, bool) {
	if len(t.bbox) != 4 {
		return 0, false
	}
	return t.bbox[i], true
}

// Left returns x0, or false when the box is not a 4-tuple
func (t *TextBox) Left() (int, bool) { return t.edge(0) }

// Bottom returns y0, or false when the box is not a 4-tuple
func (t *TextBox) Bottom() (int, bool) { return t.edge(1) }

// Right returns x1, or false when the box is not a 4-tuple
func (t *TextBox) Right() (int, bool) { return t.edge(2) }

// Top returns y1, or false when the box is not a 4-tuple
func (t *TextBox) Top() (int, bool) { return t.edge(3) }

func (t *TextBox) String() string {
	return t.text + " " + bboxList(t.bbox)
}
