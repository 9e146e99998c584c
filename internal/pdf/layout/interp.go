package layout

import (
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/mcp-pdf-model/internal/logging"
)

type graphicsState struct {
	ctm        matrix
	lineWidth  float64
	colorSpace string
	color      []float64

	charSpace float64
	wordSpace float64
	hscale    float64
	leading   float64
	rise      float64
	font      *fontInfo
	fontSize  float64
}

func newGraphicsState(ctm matrix) graphicsState {
	return graphicsState{
		ctm:        ctm,
		lineWidth:  1,
		colorSpace: "DeviceGray",
		color:      []float64{0},
		hscale:     100,
	}
}

type pathSegment struct {
	op byte
	pt Point
}

// interpreter renders one content stream (a page or a form XObject) into a
// flat list of layout objects
type interpreter struct {
	params    Params
	logger    *logging.Logger
	pageNum   int
	resources pdf.Value
	fonts     map[string]*fontInfo
	depth     int
	resPath   []string

	gs      graphicsState
	saved   []graphicsState
	tm, tlm matrix
	path    []pathSegment
	current Point

	objs []Node
}

func newInterpreter(params Params, logger *logging.Logger, pageNum int, resources pdf.Value, ctm matrix) *interpreter {
	return &interpreter{
		params:    params,
		logger:    logger,
		pageNum:   pageNum,
		resources: resources,
		fonts:     make(map[string]*fontInfo),
		gs:        newGraphicsState(ctm),
		tm:        identity,
		tlm:       identity,
	}
}

func (in *interpreter) run(content pdf.Value) []Node {
	if content.IsNull() {
		return nil
	}
	pdf.Interpret(content, in.do)
	return in.objs
}

func operands(stk *pdf.Stack) []pdf.Value {
	n := stk.Len()
	args := make([]pdf.Value, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = stk.Pop()
	}
	return args
}

func num(args []pdf.Value, i int) float64 {
	if i < 0 || i >= len(args) {
		return 0
	}
	return args[i].Float64()
}

func nums(args []pdf.Value) []float64 {
	out := make([]float64, 0, len(args))
	for _, a := range args {
		if k := a.Kind(); k == pdf.Integer || k == pdf.Real {
			out = append(out, a.Float64())
		}
	}
	return out
}

func matrixOf(args []pdf.Value) matrix {
	return matrix{num(args, 0), num(args, 1), num(args, 2), num(args, 3), num(args, 4), num(args, 5)}
}

func (in *interpreter) do(stk *pdf.Stack, op string) {
	args := operands(stk)
	gs := &in.gs

	switch op {
	case "q":
		saved := *gs
		saved.color = append([]float64(nil), gs.color...)
		in.saved = append(in.saved, saved)
	case "Q":
		if n := len(in.saved); n > 0 {
			*gs = in.saved[n-1]
			in.saved = in.saved[:n-1]
		}
	case "cm":
		gs.ctm = matrixOf(args).mul(gs.ctm)
	case "w":
		gs.lineWidth = num(args, 0)

	case "cs":
		if len(args) > 0 {
			gs.colorSpace = in.colorSpaceName(args[0])
			gs.color = initialColor(gs.colorSpace)
		}
	case "sc", "scn":
		gs.color = nums(args)
	case "g":
		gs.colorSpace, gs.color = "DeviceGray", nums(args)
	case "rg":
		gs.colorSpace, gs.color = "DeviceRGB", nums(args)
	case "k":
		gs.colorSpace, gs.color = "DeviceCMYK", nums(args)

	case "BT":
		in.tm, in.tlm = identity, identity
	case "Tc":
		gs.charSpace = num(args, 0)
	case "Tw":
		gs.wordSpace = num(args, 0)
	case "Tz":
		gs.hscale = num(args, 0)
	case "TL":
		gs.leading = num(args, 0)
	case "Ts":
		gs.rise = num(args, 0)
	case "Tf":
		if len(args) >= 2 {
			gs.font = in.font(args[0].Name())
			gs.fontSize = num(args, 1)
		}
	case "Td":
		in.moveLine(num(args, 0), num(args, 1))
	case "TD":
		gs.leading = -num(args, 1)
		in.moveLine(num(args, 0), num(args, 1))
	case "Tm":
		in.tlm = matrixOf(args)
		in.tm = in.tlm
	case "T*":
		in.moveLine(0, -gs.leading)
	case "Tj":
		in.show(args)
	case "TJ":
		if len(args) > 0 {
			items := make([]pdf.Value, 0, args[0].Len())
			for i := 0; i < args[0].Len(); i++ {
				items = append(items, args[0].Index(i))
			}
			in.show(items)
		}
	case "'":
		in.moveLine(0, -gs.leading)
		in.show(args)
	case "\"":
		if len(args) >= 3 {
			gs.wordSpace = num(args, 0)
			gs.charSpace = num(args, 1)
			in.moveLine(0, -gs.leading)
			in.show(args[2:])
		}

	case "m":
		in.moveTo(num(args, 0), num(args, 1))
	case "l":
		in.lineTo('l', num(args, 0), num(args, 1))
	case "c":
		in.lineTo('c', num(args, 4), num(args, 5))
	case "v", "y":
		in.lineTo('c', num(args, 2), num(args, 3))
	case "h":
		if len(in.path) > 0 {
			in.path = append(in.path, pathSegment{op: 'h'})
		}
	case "re":
		x, y, w, h := num(args, 0), num(args, 1), num(args, 2), num(args, 3)
		in.moveTo(x, y)
		in.lineTo('l', x+w, y)
		in.lineTo('l', x+w, y+h)
		in.lineTo('l', x, y+h)
		in.path = append(in.path, pathSegment{op: 'h'})
	case "S", "s", "f", "F", "f*", "B", "B*", "b", "b*":
		in.paint()
	case "n":
		in.path = nil

	case "Do":
		if len(args) > 0 {
			in.xobject(args[0].Name())
		}
	}
}

func initialColor(space string) []float64 {
	switch space {
	case "DeviceRGB", "CalRGB", "Lab":
		return []float64{0, 0, 0}
	case "DeviceCMYK":
		return []float64{0, 0, 0, 1}
	default:
		return []float64{0}
	}
}

// colorSpaceName resolves a colour space operand to its family name
func (in *interpreter) colorSpaceName(v pdf.Value) string {
	name := v.Name()
	if res := in.resources.Key("ColorSpace").Key(name); !res.IsNull() {
		return familyName(res)
	}
	return name
}

func familyName(v pdf.Value) string {
	switch v.Kind() {
	case pdf.Name:
		return v.Name()
	case pdf.Array:
		return v.Index(0).Name()
	default:
		return ""
	}
}

func (in *interpreter) font(name string) *fontInfo {
	if fi, ok := in.fonts[name]; ok {
		return fi
	}
	v := in.resources.Key("Font").Key(name)
	if v.IsNull() {
		in.logger.Debugf("page %d: font resource %s not found", in.pageNum, name)
		in.fonts[name] = nil
		return nil
	}
	fi := newFontInfo(v)
	in.fonts[name] = fi
	return fi
}

func (in *interpreter) moveLine(tx, ty float64) {
	in.tlm = in.tlm.translate(tx, ty)
	in.tm = in.tlm
}

// show renders the strings and kerning adjustments of a text showing
// operator, then advances the text matrix
func (in *interpreter) show(items []pdf.Value) {
	gs := &in.gs
	fi := gs.font
	if fi == nil {
		return
	}
	scaling := gs.hscale * 0.01
	charSpace := gs.charSpace * scaling
	wordSpace := gs.wordSpace * scaling
	if fi.composite {
		wordSpace = 0
	}
	dxscale := 0.001 * gs.fontSize * scaling
	base := in.tm.mul(gs.ctm)

	var x, y float64
	needCharSpace := false
	for _, item := range items {
		switch item.Kind() {
		case pdf.Integer, pdf.Real:
			if fi.vertical {
				y -= item.Float64() * dxscale
			} else {
				x -= item.Float64() * dxscale
			}
			needCharSpace = true
		case pdf.String:
			for _, code := range fi.codes(item.RawString()) {
				if needCharSpace {
					if fi.vertical {
						y += charSpace
					} else {
						x += charSpace
					}
				}
				adv := in.renderChar(base.translate(x, y), code, scaling)
				if fi.vertical {
					y += adv
				} else {
					x += adv
				}
				if code == " " && wordSpace != 0 {
					if fi.vertical {
						y += wordSpace
					} else {
						x += wordSpace
					}
				}
				needCharSpace = true
			}
		}
	}
	in.tm = in.tm.translate(x, y)
}

// renderChar places one glyph and returns its advance in text space
func (in *interpreter) renderChar(m matrix, code string, scaling float64) float64 {
	gs := &in.gs
	fi := gs.font
	size := gs.fontSize

	var adv float64
	var ll, ur Point
	if fi.vertical {
		adv = -size * scaling
		vx := size * 0.5
		vy := 0.12 * size
		ll = Point{-vx, vy + gs.rise + adv}
		ur = Point{-vx + size, vy + gs.rise}
	} else {
		adv = fi.width(code) * 0.001 * size * scaling
		descent := fi.descent * 0.001 * size
		ll = Point{0, descent + gs.rise}
		ur = Point{adv, descent + gs.rise + size}
	}
	box := boundsOf([]Point{m.apply(ll.X, ll.Y), m.apply(ur.X, ur.Y)})

	char := &Char{
		Text:       fi.decode(code),
		FontName:   fi.name,
		Box:        box,
		ColorSpace: gs.colorSpace,
		Color:      append([]float64(nil), gs.color...),
		Upright:    0 < m[0]*m[3]*scaling && m[1]*m[2] <= 0,
		Advance:    adv,
	}
	if fi.vertical {
		char.Size = box.Width()
	} else {
		char.Size = box.Height()
	}
	in.objs = append(in.objs, char)
	return adv
}

func (in *interpreter) moveTo(x, y float64) {
	p := in.gs.ctm.apply(x, y)
	in.path = append(in.path, pathSegment{op: 'm', pt: p})
	in.current = p
}

func (in *interpreter) lineTo(op byte, x, y float64) {
	p := in.gs.ctm.apply(x, y)
	if len(in.path) == 0 {
		in.path = append(in.path, pathSegment{op: 'm', pt: in.current})
	}
	in.path = append(in.path, pathSegment{op: op, pt: p})
	in.current = p
}

// paint turns the current path into Line, Rect or Curve objects, one per
// subpath
func (in *interpreter) paint() {
	path := in.path
	in.path = nil

	start := 0
	for i := 1; i <= len(path); i++ {
		if i == len(path) || path[i].op == 'm' {
			in.paintSubpath(path[start:i])
			start = i
		}
	}
}

func (in *interpreter) paintSubpath(segs []pathSegment) {
	var shape strings.Builder
	pts := make([]Point, 0, len(segs))
	for _, s := range segs {
		shape.WriteByte(s.op)
		if s.op == 'h' {
			pts = append(pts, segs[0].pt)
		} else {
			pts = append(pts, s.pt)
		}
	}
	if len(pts) < 2 {
		return
	}
	lw := in.gs.lineWidth

	switch shape.String() {
	case "ml", "mlh":
		in.objs = append(in.objs, &Line{Box: boundsOf(pts[:2]), LineWidth: lw, Points: pts[:2]})
		return
	case "mlllh", "mllll":
		p := pts
		closed := p[0] == p[4]
		square := (p[0].X == p[1].X && p[1].Y == p[2].Y && p[2].X == p[3].X && p[3].Y == p[0].Y) ||
			(p[0].Y == p[1].Y && p[1].X == p[2].X && p[2].Y == p[3].Y && p[3].X == p[0].X)
		if closed && square {
			in.objs = append(in.objs, &Rect{Box: boundsOf(p[:4]), LineWidth: lw})
			return
		}
	}
	in.objs = append(in.objs, &Curve{Box: boundsOf(pts), LineWidth: lw, Points: pts})
}

// xobject places an XObject. Images become a figure wrapping one image;
// forms become a figure holding the objects of the form's own content.
func (in *interpreter) xobject(name string) {
	xobj := in.resources.Key("XObject").Key(name)
	switch xobj.Key("Subtype").Name() {
	case "Image":
		box := in.gs.ctm.applyBox(BBox{0, 0, 1, 1})
		img := &Image{
			Name:             name,
			Box:              box,
			Width:            int(xobj.Key("Width").Float64()),
			Height:           int(xobj.Key("Height").Float64()),
			BitsPerComponent: int(xobj.Key("BitsPerComponent").Float64()),
			ColorSpace:       familyName(xobj.Key("ColorSpace")),
			Filters:          filterNames(xobj.Key("Filter")),
			PageNumber:       in.pageNum,
			ResourcePath:     appendPath(in.resPath, name),
		}
		in.objs = append(in.objs, &Figure{Name: name, Box: box, Children: []Node{img}})

	case "Form":
		if in.depth+1 >= in.params.MaxFormDepth {
			in.logger.Debugf("page %d: form %s nested too deeply, skipped", in.pageNum, name)
			return
		}
		bbox := xobj.Key("BBox")
		fb := BBox{bbox.Index(0).Float64(), bbox.Index(1).Float64(), bbox.Index(2).Float64(), bbox.Index(3).Float64()}
		fm := identity
		if m := xobj.Key("Matrix"); m.Len() == 6 {
			fm = matrix{m.Index(0).Float64(), m.Index(1).Float64(), m.Index(2).Float64(),
				m.Index(3).Float64(), m.Index(4).Float64(), m.Index(5).Float64()}
		}
		ctm := fm.mul(in.gs.ctm)

		resources := xobj.Key("Resources")
		if resources.IsNull() {
			resources = in.resources
		}
		sub := newInterpreter(in.params, in.logger, in.pageNum, resources, ctm)
		sub.depth = in.depth + 1
		sub.resPath = appendPath(in.resPath, name)
		children := sub.run(xobj)

		in.objs = append(in.objs, &Figure{Name: name, Box: ctm.applyBox(fb), Children: children})

	default:
		in.logger.Debugf("page %d: XObject %s not found or unsupported", in.pageNum, name)
	}
}

func filterNames(v pdf.Value) []string {
	switch v.Kind() {
	case pdf.Name:
		return []string{v.Name()}
	case pdf.Array:
		out := make([]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			out = append(out, v.Index(i).Name())
		}
		return out
	default:
		return nil
	}
}

func appendPath(path []string, name string) []string {
	out := make([]string, 0, len(path)+1)
	out = append(out, path...)
	return append(out, name)
}
