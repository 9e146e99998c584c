package convert

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"

	"github.com/a3tai/mcp-pdf-model/internal/logging"
	"github.com/a3tai/mcp-pdf-model/internal/pdf/layout"
	"github.com/a3tai/mcp-pdf-model/internal/pdf/model"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

func escape(s string) string {
	return xmlEscaper.Replace(s)
}

// stripControl removes C0 control characters other than tab and line feed
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r <= 0x08 || (r >= 0x0B && r <= 0x1F) {
			return -1
		}
		return r
	}, s)
}

// xmlWriter accumulates the XML dump in the declared codec
type xmlWriter struct {
	codec  string
	enc    *encoding.Encoder
	buf    bytes.Buffer
	logger *logging.Logger
}

func newXMLWriter(codec string, logger *logging.Logger) (*xmlWriter, error) {
	w := &xmlWriter{codec: codec, logger: logger}
	enc, err := model.LookupCodec(codec)
	if err != nil {
		return nil, err
	}
	if enc != nil {
		w.enc = encoding.ReplaceUnsupported(enc.NewEncoder())
	}
	return w, nil
}

// write is the only path into the buffer; every string is encoded in the
// declared codec. Invalid UTF-8 input is replaced before encoding.
func (w *xmlWriter) write(s string) {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\uFFFD")
	}
	if w.enc != nil {
		out, err := w.enc.String(s)
		if err != nil {
			w.logger.Debugf("failed to encode %q as %s: %v", s, w.codec, err)
		} else {
			s = out
		}
	}
	w.buf.WriteString(s)
}

func (w *xmlWriter) writef(format string, args ...interface{}) {
	w.write(fmt.Sprintf(format, args...))
}

func (w *xmlWriter) header() {
	if w.codec != "" {
		w.writef("<?xml version=\"1.0\" encoding=\"%s\" ?>\n", w.codec)
	} else {
		w.write("<?xml version=\"1.0\" ?>\n")
	}
	w.write("<pages>\n")
}

func (w *xmlWriter) footer() {
	w.write("</pages>\n")
}

// group writes one node of the text grouping hierarchy
func (w *xmlWriter) group(n layout.Node) {
	switch g := n.(type) {
	case *layout.TextBox:
		w.writef("<textbox id=\"%d\" bbox=\"%s\" />\n", g.Index, g.Box)
	case *layout.TextGroup:
		w.writef("<textgroup bbox=\"%s\">\n", g.Box)
		for _, c := range g.Children {
			w.group(c)
		}
		w.write("</textgroup>\n")
	}
}
