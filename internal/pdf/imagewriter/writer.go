// Package imagewriter exports the images referenced by a layout tree to a
// directory.
package imagewriter

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/image/bmp"
	"golang.org/x/image/ccitt"

	pdferrors "github.com/a3tai/mcp-pdf-model/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-model/internal/pdf/layout"
)

// maxImagePixels bounds the bitmap allocated for one decoded image
const maxImagePixels = 1 << 26

// Writer saves image XObjects of one document into a directory
type Writer struct {
	dir string
	ctx *model.Context

	mu    sync.Mutex
	count int
}

// New reads the document in rs and prepares exporting its images to dir,
// creating the directory when needed
func New(dir string, rs io.ReadSeeker) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}
	return &Writer{dir: dir, ctx: ctx}, nil
}

// Dir returns the output directory
func (w *Writer) Dir() string {
	return w.dir
}

// ExportImage writes img and returns the file name it was saved under,
// relative to the output directory
func (w *Writer) ExportImage(img *layout.Image) (string, error) {
	imgErr := func(msg string, cause error) error {
		return pdferrors.WrapError(pdferrors.ErrorTypeInvalidImage, msg, cause).WithPage(img.PageNumber)
	}

	sd, err := w.lookup(img)
	if err != nil {
		return "", imgErr(fmt.Sprintf("image %s not found", img.Name), err)
	}

	data, ext, err := w.encode(img, sd)
	if err != nil {
		return "", imgErr(fmt.Sprintf("failed to encode image %s", img.Name), err)
	}

	name := w.nextName(img, ext)
	if err := os.WriteFile(filepath.Join(w.dir, name), data, 0o644); err != nil {
		return "", imgErr("failed to write image", err)
	}
	return name, nil
}

func (w *Writer) nextName(img *layout.Image, ext string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.count++
	base := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, img.Name)
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("%s-p%d-%d%s", base, img.PageNumber, w.count, ext)
}

// lookup follows the resource path from the page resources down to the
// image stream
func (w *Writer) lookup(img *layout.Image) (*types.StreamDict, error) {
	if len(img.ResourcePath) == 0 {
		return nil, fmt.Errorf("empty resource path")
	}
	if img.PageNumber < 1 || img.PageNumber > w.ctx.PageCount {
		return nil, fmt.Errorf("page %d out of range", img.PageNumber)
	}

	pageDict, _, _, err := w.ctx.PageDict(img.PageNumber, false)
	if err != nil {
		return nil, err
	}
	resources, err := w.pageResources(pageDict)
	if err != nil {
		return nil, err
	}

	var sd *types.StreamDict
	for i, name := range img.ResourcePath {
		if resources == nil {
			return nil, fmt.Errorf("no resources for %s", name)
		}
		xobjects, err := w.ctx.DereferenceDict(resources["XObject"])
		if err != nil || xobjects == nil {
			return nil, fmt.Errorf("no XObject resources for %s", name)
		}
		obj, found := xobjects.Find(name)
		if !found {
			return nil, fmt.Errorf("XObject %s not found", name)
		}
		sd, _, err = w.ctx.DereferenceStreamDict(obj)
		if err != nil {
			return nil, err
		}
		if sd == nil {
			return nil, fmt.Errorf("XObject %s is not a stream", name)
		}
		if i < len(img.ResourcePath)-1 {
			if inner, err := w.ctx.DereferenceDict(sd.Dict["Resources"]); err == nil && inner != nil {
				resources = inner
			}
		}
	}
	return sd, nil
}

// pageResources returns the resource dictionary of a page, inherited from
// the page tree when absent
func (w *Writer) pageResources(d types.Dict) (types.Dict, error) {
	for depth := 0; d != nil && depth < 32; depth++ {
		if obj, found := d.Find("Resources"); found {
			return w.ctx.DereferenceDict(obj)
		}
		parent, err := w.ctx.DereferenceDict(d["Parent"])
		if err != nil {
			return nil, err
		}
		d = parent
	}
	return nil, nil
}

// encode picks the output format for the stream: image codecs are copied
// as is, CCITT and 8-bit gray or RGB data become bitmaps
func (w *Writer) encode(img *layout.Image, sd *types.StreamDict) ([]byte, string, error) {
	filters := img.Filters
	last := ""
	if len(filters) > 0 {
		last = filters[len(filters)-1]
	}

	switch {
	case len(filters) == 1 && last == "DCTDecode":
		return sd.Raw, ".jpg", nil
	case len(filters) == 1 && last == "JPXDecode":
		return sd.Raw, ".jp2", nil
	case len(filters) == 1 && last == "CCITTFaxDecode":
		data, err := w.ccitt(img, sd)
		return data, ".bmp", err
	case last == "" || last == "FlateDecode" || last == "LZWDecode" || last == "ASCII85Decode" || last == "ASCIIHexDecode" || last == "RunLengthDecode":
		if img.BitsPerComponent == 8 && (img.ColorSpace == "DeviceGray" || img.ColorSpace == "DeviceRGB") {
			if err := sd.Decode(); err != nil {
				return nil, "", err
			}
			data, err := bitmap(img, sd.Content)
			return data, ".bmp", err
		}
	}
	return sd.Raw, ".bin", nil
}

func (w *Writer) ccitt(img *layout.Image, sd *types.StreamDict) ([]byte, error) {
	k, blackIs1 := 0, false
	width, height := img.Width, img.Height
	if parms, err := w.ctx.DereferenceDict(sd.Dict["DecodeParms"]); err == nil && parms != nil {
		if v := parms.IntEntry("K"); v != nil {
			k = *v
		}
		if v := parms.IntEntry("Columns"); v != nil {
			width = *v
		}
		if v := parms.BooleanEntry("BlackIs1"); v != nil {
			blackIs1 = *v
		}
	}
	if err := checkSize(width, height); err != nil {
		return nil, err
	}

	sf := ccitt.Group3
	if k < 0 {
		sf = ccitt.Group4
	}
	stride := (width + 7) / 8
	r := ccitt.NewReader(bytes.NewReader(sd.Raw), ccitt.MSB, sf, width, height, &ccitt.Options{Invert: blackIs1})
	packed, err := io.ReadAll(io.LimitReader(r, int64(stride*height)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode CCITT data: %w", err)
	}
	if len(packed) < stride*height {
		return nil, fmt.Errorf("short CCITT data: %d bytes for %dx%d", len(packed), width, height)
	}

	gray := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if packed[y*stride+x/8]&(0x80>>(x%8)) != 0 {
				gray.SetGray(x, y, color.Gray{Y: 0xFF})
			}
		}
	}
	return encodeBMP(gray)
}

// bitmap wraps decoded 8-bit samples in an image and encodes it as BMP
func bitmap(img *layout.Image, data []byte) ([]byte, error) {
	w, h := img.Width, img.Height
	if err := checkSize(w, h); err != nil {
		return nil, err
	}

	if img.ColorSpace == "DeviceGray" {
		if len(data) < w*h {
			return nil, fmt.Errorf("short image data: %d bytes for %dx%d", len(data), w, h)
		}
		gray := image.NewGray(image.Rect(0, 0, w, h))
		copy(gray.Pix, data[:w*h])
		return encodeBMP(gray)
	}

	if len(data) < 3*w*h {
		return nil, fmt.Errorf("short image data: %d bytes for %dx%d", len(data), w, h)
	}
	rgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		copy(rgba.Pix[4*i:4*i+3], data[3*i:3*i+3])
		rgba.Pix[4*i+3] = 0xFF
	}
	return encodeBMP(rgba)
}

func checkSize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("invalid image size %dx%d", w, h)
	}
	if int64(w)*int64(h) > maxImagePixels {
		return fmt.Errorf("image size %dx%d exceeds %d pixels", w, h, maxImagePixels)
	}
	return nil
}

func encodeBMP(m image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
