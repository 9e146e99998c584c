// Package convert walks layout trees once and produces both the content
// model (pages, text boxes, figures) and the XML dump of every node.
package convert

import (
	"fmt"

	"github.com/a3tai/mcp-pdf-model/internal/logging"
	pdferrors "github.com/a3tai/mcp-pdf-model/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-model/internal/pdf/layout"
	"github.com/a3tai/mcp-pdf-model/internal/pdf/model"
)

// ImageExporter saves an image somewhere and returns the name it was saved
// under
type ImageExporter interface {
	ExportImage(img *layout.Image) (string, error)
}

// Options configures a Converter
type Options struct {
	// Codec is the IANA name the XML dump is encoded in. Empty means UTF-8
	// without an encoding declaration.
	Codec string
	// StripControl removes control characters from glyph text in the XML
	StripControl bool
	// ImageWriter exports images when set
	ImageWriter ImageExporter
	Logger      *logging.Logger
}

// Converter turns layout trees into Documents
type Converter struct {
	opts   Options
	logger *logging.Logger
}

// New creates a Converter. The codec is resolved up front.
func New(opts Options) (*Converter, error) {
	if _, err := model.LookupCodec(opts.Codec); err != nil {
		return nil, err
	}
	return &Converter{opts: opts, logger: logging.OrDefault(opts.Logger)}, nil
}

// Convert renders pages in order into a new Document
func (c *Converter) Convert(pages []*layout.Page) (*model.Document, error) {
	run, err := c.Begin()
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		if err := run.RenderPage(p); err != nil {
			return nil, err
		}
	}
	return run.Close()
}

// Begin starts a conversion fed one page at a time
func (c *Converter) Begin() (*Run, error) {
	w, err := newXMLWriter(c.opts.Codec, c.logger)
	if err != nil {
		return nil, err
	}
	w.header()
	return &Run{conv: c, xml: w, doc: model.NewDocument(c.opts.Codec)}, nil
}

// Run is one conversion in progress. It is not safe for concurrent use.
type Run struct {
	conv   *Converter
	xml    *xmlWriter
	doc    *model.Document
	closed bool
}

// scope is the model context a node is rendered into
type scope struct {
	page   *model.Page
	figure *model.Figure
}

// RenderPage renders one page tree. A node the walk cannot handle aborts
// the conversion with a structural error.
func (r *Run) RenderPage(p *layout.Page) error {
	if r.closed {
		return fmt.Errorf("conversion already closed")
	}
	return r.render(p, scope{})
}

// Close writes the footer and returns the finished Document
func (r *Run) Close() (*model.Document, error) {
	if r.closed {
		return nil, fmt.Errorf("conversion already closed")
	}
	r.closed = true
	r.xml.footer()
	r.doc.AppendXML(r.xml.buf.Bytes())
	r.xml = nil
	return r.doc, nil
}

func (r *Run) render(node layout.Node, sc scope) error {
	w := r.xml

	switch n := node.(type) {
	case *layout.Page:
		page := model.NewPage(n.ID, n.Box.Slice(), n.Rotate)
		w.writef("<page id=\"%d\" bbox=\"%s\" rotate=\"%d\">\n", n.ID, n.Box, n.Rotate)
		inner := scope{page: page}
		for _, c := range n.Children {
			if err := r.render(c, inner); err != nil {
				return err
			}
		}
		if n.Groups != nil {
			w.write("<layout>\n")
			for _, g := range n.Groups {
				w.group(g)
			}
			w.write("</layout>\n")
		}
		w.write("</page>\n")
		return r.doc.AddPage(page)

	case *layout.Line:
		w.writef("<line linewidth=\"%d\" bbox=\"%s\" />\n", int(n.LineWidth), n.Box)
		return nil

	case *layout.Rect:
		w.writef("<rect linewidth=\"%d\" bbox=\"%s\" />\n", int(n.LineWidth), n.Box)
		return nil

	case *layout.Curve:
		w.writef("<curve linewidth=\"%d\" bbox=\"%s\" pts=\"%s\"/>\n", int(n.LineWidth), n.Box, n.PointsString())
		return nil

	case *layout.Figure:
		if sc.page == nil {
			return outsidePage(n)
		}
		fig := model.NewFigure(n.Name, n.Box.Slice())
		if len(n.Children) > 0 {
			fig.SetSize(int(n.Box.Width()), int(n.Box.Height()))
		}
		w.writef("<figure name=\"%s\" bbox=\"%s\">\n", escape(n.Name), n.Box)
		inner := scope{page: sc.page, figure: fig}
		for _, c := range n.Children {
			if err := r.render(c, inner); err != nil {
				return err
			}
		}
		w.write("</figure>\n")
		sc.page.AddContent(fig)
		return nil

	case *layout.TextLine:
		w.writef("<textline bbox=\"%s\">\n", n.Box)
		for _, c := range n.Children {
			if err := r.render(c, sc); err != nil {
				return err
			}
		}
		w.write("</textline>\n")
		return nil

	case *layout.TextBox:
		if sc.page == nil {
			return outsidePage(n)
		}
		wmode, attr := "", ""
		if n.Vertical {
			wmode = model.WritingModeVertical
			attr = ` wmode="vertical"`
		}
		w.writef("<textbox id=\"%d\" bbox=\"%s\"%s>\n", n.Index, n.Box, attr)
		box := model.NewTextBox(n.Index, n.Box.Slice(), wmode)
		box.SetItem(n.Box.Slice(), n.Text())
		sc.page.AddContent(box)
		for _, c := range n.Children {
			if err := r.render(c, sc); err != nil {
				return err
			}
		}
		w.write("</textbox>\n")
		return nil

	case *layout.Char:
		w.writef("<text font=\"%s\" bbox=\"%s\" colourspace=\"%s\" ncolour=\"%s\" size=\"%.3f\">",
			escape(n.FontName), n.Box, escape(n.ColorSpace), n.ColorString(), n.Size)
		text := n.Text
		if r.conv.opts.StripControl {
			text = stripControl(text)
		}
		w.write(escape(text))
		w.write("</text>\n")
		return nil

	case *layout.Text:
		w.writef("<text>%s</text>\n", escape(n.Text))
		return nil

	case *layout.Image:
		src := ""
		if exp := r.conv.opts.ImageWriter; exp != nil {
			name, err := exp.ExportImage(n)
			if err != nil {
				r.conv.logger.Warnf("failed to export image %s on page %d: %v", n.Name, n.PageNumber, err)
			}
			src = name
		}
		if sc.figure != nil {
			sc.figure.SetImage(n.Width, n.Height, src)
		}
		if src != "" {
			w.writef("<image src=\"%s\" width=\"%d\" height=\"%d\" />\n", escape(src), n.Width, n.Height)
		} else {
			w.writef("<image width=\"%d\" height=\"%d\" />\n", n.Width, n.Height)
		}
		return nil

	default:
		e := pdferrors.NewPDFError(pdferrors.ErrorTypeStructural, fmt.Sprintf("unhandled layout node %T", node))
		if sc.page != nil {
			e = e.WithPage(sc.page.ID())
		}
		return e
	}
}

func outsidePage(n layout.Node) error {
	return pdferrors.NewPDFError(pdferrors.ErrorTypeStructural, n.Kind().String()+" outside of a page")
}
