package layout

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/charmap"
)

// maxCMapSize bounds the ToUnicode stream read per font
const maxCMapSize = 1 << 20

// newDecoder picks the text decoder of a font. ledongthuc decodes WinAnsi,
// MacRoman, Differences and pdfDoc text itself but passes the raw codes of
// any other named encoding through; those fonts get the ToUnicode map, or
// StandardEncoding with a Latin-1 fallback.
func newDecoder(font pdf.Font, v pdf.Value, composite bool) pdf.TextEncoding {
	if tu := v.Key("ToUnicode"); tu.Kind() == pdf.Stream {
		if m := readToUnicode(tu); m != nil {
			m.composite = composite
			if !composite {
				m.fallback = baseDecoder(font, v)
			}
			return m
		}
	}
	if composite {
		return cidDecoder{}
	}
	return baseDecoder(font, v)
}

func baseDecoder(font pdf.Font, v pdf.Value) pdf.TextEncoding {
	enc := v.Key("Encoding")
	switch enc.Kind() {
	case pdf.Dict, pdf.Null:
		return font.Encoder()
	case pdf.Name:
		switch enc.Name() {
		case "WinAnsiEncoding", "MacRomanEncoding":
			return font.Encoder()
		}
	}
	return tableDecoder{table: &standardEncoding}
}

// tableDecoder maps single-byte codes through a table; unmapped codes are
// read as ISO-8859-1
type tableDecoder struct {
	table *[256]rune
}

func (d tableDecoder) Decode(raw string) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		r := d.table[raw[i]]
		if r == 0 {
			r = charmap.ISO8859_1.DecodeByte(raw[i])
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// cidDecoder renders codes of composite fonts without a ToUnicode map
type cidDecoder struct{}

func (cidDecoder) Decode(raw string) string {
	return fmt.Sprintf("(cid:%d)", codeValue(raw))
}

type cmapRange struct {
	lo, hi string
	// dst is the first destination; list holds one destination per code
	// for array ranges
	dst  []uint16
	list [][]uint16
}

// toUnicode holds the bfchar and bfrange mappings of a ToUnicode CMap
type toUnicode struct {
	chars     map[string][]uint16
	ranges    []cmapRange
	composite bool
	fallback  pdf.TextEncoding
}

func (m *toUnicode) Decode(code string) string {
	if u, ok := m.chars[code]; ok {
		return string(utf16.Decode(u))
	}
	for _, r := range m.ranges {
		if len(r.lo) != len(code) || code < r.lo || code > r.hi {
			continue
		}
		off := codeValue(code) - codeValue(r.lo)
		if r.list != nil {
			if off < len(r.list) {
				return string(utf16.Decode(r.list[off]))
			}
			break
		}
		if len(r.dst) == 0 {
			break
		}
		u := append([]uint16(nil), r.dst...)
		u[len(u)-1] += uint16(off)
		return string(utf16.Decode(u))
	}
	if m.fallback != nil {
		return m.fallback.Decode(code)
	}
	if m.composite {
		return cidDecoder{}.Decode(code)
	}
	return string(utf8.RuneError)
}

type cmapToken struct {
	kind byte // 's' string, 'w' word, '[' or ']'
	text string
}

// readToUnicode parses a ToUnicode CMap. It returns nil when the stream
// holds no mapping.
func readToUnicode(strm pdf.Value) *toUnicode {
	rd := strm.Reader()
	defer rd.Close()
	data, err := io.ReadAll(io.LimitReader(rd, maxCMapSize))
	if err != nil {
		return nil
	}

	m := &toUnicode{chars: make(map[string][]uint16)}
	toks := cmapTokens(data)
	mode := ""
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		if tok.kind == 'w' {
			switch tok.text {
			case "beginbfchar", "beginbfrange":
				mode = tok.text
			case "endbfchar", "endbfrange":
				mode = ""
			}
			continue
		}
		switch mode {
		case "beginbfchar":
			if tok.kind == 's' && i+1 < len(toks) && toks[i+1].kind == 's' {
				m.chars[tok.text] = utf16Units(toks[i+1].text)
				i++
			}
		case "beginbfrange":
			if tok.kind != 's' || i+2 >= len(toks) || toks[i+1].kind != 's' {
				continue
			}
			r := cmapRange{lo: tok.text, hi: toks[i+1].text}
			i += 2
			switch toks[i].kind {
			case 's':
				r.dst = utf16Units(toks[i].text)
			case '[':
				r.list = [][]uint16{}
				for i+1 < len(toks) && toks[i+1].kind == 's' {
					i++
					r.list = append(r.list, utf16Units(toks[i].text))
				}
				if i+1 < len(toks) && toks[i+1].kind == ']' {
					i++
				}
			default:
				continue
			}
			m.ranges = append(m.ranges, r)
		}
	}
	if len(m.chars) == 0 && len(m.ranges) == 0 {
		return nil
	}
	return m
}

func utf16Units(s string) []uint16 {
	u := make([]uint16, 0, (len(s)+1)/2)
	for i := 0; i < len(s); i += 2 {
		if i+1 < len(s) {
			u = append(u, uint16(s[i])<<8|uint16(s[i+1]))
		} else {
			u = append(u, uint16(s[i]))
		}
	}
	return u
}

func isCMapSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func isCMapDelim(c byte) bool {
	switch c {
	case '<', '>', '[', ']', '(', ')', '/', '%', '{', '}':
		return true
	}
	return isCMapSpace(c)
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// cmapTokens splits CMap source into strings, words and array brackets.
// Dictionaries and names are kept as words since only bf sections matter.
func cmapTokens(data []byte) []cmapToken {
	var toks []cmapToken
	for i := 0; i < len(data); {
		c := data[i]
		switch {
		case isCMapSpace(c):
			i++
		case c == '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
		case c == '[' || c == ']':
			toks = append(toks, cmapToken{kind: c})
			i++
		case c == '<' && i+1 < len(data) && data[i+1] == '<', c == '>' && i+1 < len(data) && data[i+1] == '>':
			toks = append(toks, cmapToken{kind: 'w', text: string(data[i : i+2])})
			i += 2
		case c == '<':
			var b []byte
			var hi byte
			half := false
			for i++; i < len(data) && data[i] != '>'; i++ {
				n, ok := unhex(data[i])
				if !ok {
					continue
				}
				if half {
					b = append(b, hi<<4|n)
				} else {
					hi = n
				}
				half = !half
			}
			if half {
				b = append(b, hi<<4)
			}
			i++
			toks = append(toks, cmapToken{kind: 's', text: string(b)})
		case c == '(':
			var b []byte
			depth := 1
			for i++; i < len(data) && depth > 0; i++ {
				switch ch := data[i]; ch {
				case '\\':
					if i+1 < len(data) {
						i++
						b = append(b, literalEscape(data, &i))
					}
				case '(':
					depth++
					b = append(b, ch)
				case ')':
					depth--
					if depth > 0 {
						b = append(b, ch)
					}
				default:
					b = append(b, ch)
				}
			}
			toks = append(toks, cmapToken{kind: 's', text: string(b)})
		default:
			start := i
			for i++; i < len(data) && !isCMapDelim(data[i]); i++ {
			}
			toks = append(toks, cmapToken{kind: 'w', text: string(data[start:i])})
		}
	}
	return toks
}

// literalEscape decodes the escape at data[*i], leaving *i on its last byte
func literalEscape(data []byte, i *int) byte {
	switch c := data[*i]; c {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	default:
		if c < '0' || c > '7' {
			return c
		}
		v := c - '0'
		for k := 0; k < 2 && *i+1 < len(data) && data[*i+1] >= '0' && data[*i+1] <= '7'; k++ {
			*i++
			v = v<<3 | (data[*i] - '0')
		}
		return v
	}
}

// standardEncoding is the Adobe standard Latin character set, the built-in
// encoding of Type 1 fonts
var standardEncoding = [256]rune{
	0x20: ' ', '!', '"', '#', '$', '%', '&', '’',
	'(', ')', '*', '+', ',', '-', '.', '/',
	'0', '1', '2', '3', '4', '5', '6', '7',
	'8', '9', ':', ';', '<', '=', '>', '?',
	'@', 'A', 'B', 'C', 'D', 'E', 'F', 'G',
	'H', 'I', 'J', 'K', 'L', 'M', 'N', 'O',
	'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W',
	'X', 'Y', 'Z', '[', '\\', ']', '^', '_',
	'‘', 'a', 'b', 'c', 'd', 'e', 'f', 'g',
	'h', 'i', 'j', 'k', 'l', 'm', 'n', 'o',
	'p', 'q', 'r', 's', 't', 'u', 'v', 'w',
	'x', 'y', 'z', '{', '|', '}', '~',
	0xA1: '¡', '¢', '£', '⁄', '¥', 'ƒ', '§',
	'¤', '\'', '“', '«', '‹', '›', 'ﬁ', 'ﬂ',
	0xB1: '–', '†', '‡', '·',
	0xB6: '¶', '•', '‚', '„', '”', '»', '…', '‰',
	0xBF: '¿',
	0xC1: '`', '´', 'ˆ', '˜', '¯', '˘', '˙',
	'¨', 0xCA: '˚', '¸', 0xCD: '˝', '˛', 'ˇ',
	'—',
	0xE1: 'Æ', 0xE3: 'ª',
	0xE8: 'Ł', 'Ø', 'Œ', 'º',
	0xF1: 'æ', 0xF5: 'ı',
	0xF8: 'ł', 'ø', 'œ', 'ß',
}
