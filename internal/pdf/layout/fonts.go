package layout

import (
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
)

const defaultGlyphWidth = 500

// fontInfo caches the metrics and decoder of one font resource
type fontInfo struct {
	name         string
	decoder      pdf.TextEncoding
	composite    bool
	vertical     bool
	firstChar    int
	widths       []float64
	cidWidths    map[int]float64
	defaultWidth float64
	descent      float64
	// scale converts glyph space widths into thousandths of text space
	scale float64
}

func newFontInfo(v pdf.Value) *fontInfo {
	font := pdf.Font{V: v}
	fi := &fontInfo{
		name:         font.BaseFont(),
		defaultWidth: defaultGlyphWidth,
		scale:        1,
	}

	desc := v.Key("FontDescriptor")
	if v.Key("Subtype").Name() == "Type0" {
		fi.composite = true
		fi.vertical = v.Key("Encoding").Name() == "Identity-V"
		desc = fi.loadCIDMetrics(v.Key("DescendantFonts").Index(0))
	} else {
		fi.firstChar = int(v.Key("FirstChar").Int64())
		widths := v.Key("Widths")
		for i := 0; i < widths.Len(); i++ {
			fi.widths = append(fi.widths, widths.Index(i).Float64())
		}
		if v.Key("Subtype").Name() == "Type3" {
			if fm := v.Key("FontMatrix"); fm.Len() > 0 && fm.Index(0).Float64() != 0 {
				fi.scale = fm.Index(0).Float64() * 1000
			}
		}
	}

	fi.decoder = newDecoder(font, v, fi.composite)

	if !desc.IsNull() {
		if mw := desc.Key("MissingWidth"); !mw.IsNull() && !fi.composite {
			fi.defaultWidth = mw.Float64()
		}
		fi.descent = -math.Abs(desc.Key("Descent").Float64())
	}
	if fi.name == "" {
		fi.name = "unknown"
	}
	return fi
}

// loadCIDMetrics reads /DW and /W from a descendant CID font and returns
// its font descriptor
func (fi *fontInfo) loadCIDMetrics(cid pdf.Value) pdf.Value {
	fi.cidWidths = make(map[int]float64)
	fi.defaultWidth = 1000
	if dw := cid.Key("DW"); !dw.IsNull() {
		fi.defaultWidth = dw.Float64()
	}
	w := cid.Key("W")
	for i := 0; i < w.Len(); {
		first := int(w.Index(i).Int64())
		next := w.Index(i + 1)
		if next.Kind() == pdf.Array {
			for j := 0; j < next.Len(); j++ {
				fi.cidWidths[first+j] = next.Index(j).Float64()
			}
			i += 2
			continue
		}
		last := int(next.Int64())
		width := w.Index(i + 2).Float64()
		for c := first; c <= last && c-first < 0xFFFF; c++ {
			fi.cidWidths[c] = width
		}
		i += 3
	}
	if fi.name == "" {
		fi.name = cid.Key("BaseFont").Name()
	}
	return cid.Key("FontDescriptor")
}

// codes splits a shown string into character codes
func (fi *fontInfo) codes(raw string) []string {
	step := 1
	if fi.composite {
		step = 2
	}
	out := make([]string, 0, len(raw)/step+1)
	for i := 0; i < len(raw); i += step {
		end := i + step
		if end > len(raw) {
			end = len(raw)
		}
		out = append(out, raw[i:end])
	}
	return out
}

func codeValue(code string) int {
	v := 0
	for i := 0; i < len(code); i++ {
		v = v<<8 | int(code[i])
	}
	return v
}

// width returns the glyph width of code in thousandths of text space
func (fi *fontInfo) width(code string) float64 {
	c := codeValue(code)
	if fi.composite {
		if w, ok := fi.cidWidths[c]; ok {
			return w
		}
		return fi.defaultWidth
	}
	i := c - fi.firstChar
	if i >= 0 && i < len(fi.widths) && fi.widths[i] != 0 {
		return fi.widths[i] * fi.scale
	}
	return fi.defaultWidth
}

// decode returns the text of one character code, always valid UTF-8
func (fi *fontInfo) decode(code string) string {
	return strings.ToValidUTF8(fi.decoder.Decode(code), "\uFFFD")
}
