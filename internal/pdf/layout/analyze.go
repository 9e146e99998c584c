package layout

import (
	"container/heap"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/mcp-pdf-model/internal/logging"
	pdferrors "github.com/a3tai/mcp-pdf-model/internal/pdf/errors"
)

var letterBox = BBox{0, 0, 612, 792}

// Analyzer builds layout trees from the pages of a PDF
type Analyzer struct {
	params Params
	logger *logging.Logger
}

// NewAnalyzer creates an analyzer. A nil logger uses the default logger.
func NewAnalyzer(params Params, logger *logging.Logger) *Analyzer {
	if params.MaxFormDepth < 1 {
		params.MaxFormDepth = DefaultParams().MaxFormDepth
	}
	return &Analyzer{params: params, logger: logging.OrDefault(logger)}
}

// Params returns the analysis parameters in use
func (a *Analyzer) Params() Params {
	return a.params
}

// AnalyzePage interprets and lays out page pageNum (1-based). Parser panics
// on malformed content surface as MalformedPage errors.
func (a *Analyzer) AnalyzePage(r *pdf.Reader, pageNum int) (page *Page, err error) {
	defer func() {
		if err != nil {
			page = nil
		}
	}()
	defer pdferrors.RecoverPage(pageNum, &err)

	if pageNum < 1 || pageNum > r.NumPage() {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeMalformedPage,
			fmt.Sprintf("page %d out of range (1-%d)", pageNum, r.NumPage())).WithPage(pageNum)
	}
	p := r.Page(pageNum)
	if p.V.IsNull() {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeMalformedPage, "page object not found").WithPage(pageNum)
	}

	media := mediaBox(p.V)
	rotate := int(inherited(p.V, "Rotate").Int64())
	rotate = ((rotate % 360) + 360) % 360
	ctm := pageMatrix(media, rotate)
	box := ctm.applyBox(media)

	page = &Page{
		ID:     pageNum,
		Box:    BBox{0, 0, box.Width(), box.Height()},
		Rotate: rotate,
	}

	in := newInterpreter(a.params, a.logger, pageNum, p.Resources(), ctm)
	objs := in.run(p.V.Key("Contents"))

	page.Children, page.Groups = a.layoutContainer(objs, true)
	a.logger.Debugf("page %d: %d top-level objects", pageNum, len(page.Children))
	return page, nil
}

// AnalyzeDocument lays out every page in order, stopping at the first error
func (a *Analyzer) AnalyzeDocument(r *pdf.Reader) ([]*Page, error) {
	pages := make([]*Page, 0, r.NumPage())
	err := a.Walk(r, func(p *Page) error {
		pages = append(pages, p)
		return nil
	})
	return pages, err
}

// Walk lays out pages one at a time and hands each to fn. The walk stops at
// the first error from the analyzer or from fn.
func (a *Analyzer) Walk(r *pdf.Reader, fn func(*Page) error) error {
	for n := 1; n <= r.NumPage(); n++ {
		page, err := a.AnalyzePage(r, n)
		if err != nil {
			return err
		}
		if err := fn(page); err != nil {
			return err
		}
	}
	return nil
}

func inherited(page pdf.Value, key string) pdf.Value {
	for v, depth := page, 0; !v.IsNull() && depth < 32; v, depth = v.Key("Parent"), depth+1 {
		if val := v.Key(key); !val.IsNull() {
			return val
		}
	}
	return pdf.Value{}
}

func mediaBox(page pdf.Value) BBox {
	mb := inherited(page, "MediaBox")
	if mb.Len() != 4 {
		return letterBox
	}
	x0, y0, x1, y1 := mb.Index(0).Float64(), mb.Index(1).Float64(), mb.Index(2).Float64(), mb.Index(3).Float64()
	return BBox{math.Min(x0, x1), math.Min(y0, y1), math.Max(x0, x1), math.Max(y0, y1)}
}

// layoutContainer groups the glyphs among objs into lines and boxes. The
// result holds text boxes first, then other objects in stream order, then
// whitespace-only lines. Groups are only built for pages.
func (a *Analyzer) layoutContainer(objs []Node, isPage bool) ([]Node, []Node) {
	var chars []*Char
	var others []Node
	for _, o := range objs {
		if c, ok := o.(*Char); ok {
			chars = append(chars, c)
			continue
		}
		if f, ok := o.(*Figure); ok && a.params.AllTexts {
			f.Children, _ = a.layoutContainer(f.Children, false)
		}
		others = append(others, o)
	}
	if len(chars) == 0 {
		return objs, nil
	}

	var lines, empties []*TextLine
	for _, l := range a.groupObjects(chars) {
		if l.isEmpty() {
			l.Children = append(l.Children, &Text{Text: "\n"})
			empties = append(empties, l)
			continue
		}
		lines = append(lines, l)
	}

	boxes := a.groupTextLines(lines)
	for _, b := range boxes {
		b.finish()
	}

	var groups []Node
	flow := a.params.BoxesFlow
	if flow != nil && isPage && len(boxes) <= a.params.MaxGroupBoxes {
		groups = groupTextBoxes(boxes)
		next := 0
		for _, g := range groups {
			sortGroup(g, *flow)
			next = assignIndex(g, next)
		}
		sort.SliceStable(boxes, func(i, j int) bool { return boxes[i].Index < boxes[j].Index })
	} else {
		if flow != nil && isPage {
			a.logger.Debugf("%d text boxes exceed grouping limit %d, grouping skipped", len(boxes), a.params.MaxGroupBoxes)
		}
		sort.SliceStable(boxes, func(i, j int) bool { return boxLess(boxes[i], boxes[j]) })
		for i, b := range boxes {
			b.Index = i
		}
	}

	out := make([]Node, 0, len(boxes)+len(others)+len(empties))
	for _, b := range boxes {
		out = append(out, b)
	}
	out = append(out, others...)
	for _, e := range empties {
		out = append(out, e)
	}
	return out, groups
}

// boxLess orders vertical boxes right to left before horizontal boxes top
// to bottom
func boxLess(a, b *TextBox) bool {
	ka, kb := boxKey(a), boxKey(b)
	for i := range ka {
		if ka[i] != kb[i] {
			return ka[i] < kb[i]
		}
	}
	return false
}

func boxKey(b *TextBox) [3]float64 {
	if b.Vertical {
		return [3]float64{0, -b.Box.X1(), -b.Box.Y0()}
	}
	return [3]float64{1, -b.Box.Y0(), b.Box.X0()}
}

// groupObjects splits glyphs in stream order into text lines
func (a *Analyzer) groupObjects(chars []*Char) []*TextLine {
	p := a.params
	var out []*TextLine
	var line *TextLine
	var prev *Char

	for _, c := range chars {
		if prev != nil {
			b0, b1 := prev.Box, c.Box
			halign := b0.IsVOverlap(b1) &&
				math.Min(b0.Height(), b1.Height())*p.LineOverlap < b0.VOverlap(b1) &&
				b0.HDistance(b1) < math.Max(b0.Width(), b1.Width())*p.CharMargin
			valign := p.DetectVertical && b0.IsHOverlap(b1) &&
				math.Min(b0.Width(), b1.Width())*p.LineOverlap < b0.HOverlap(b1) &&
				b0.VDistance(b1) < math.Max(b0.Height(), b1.Height())*p.CharMargin

			switch {
			case line != nil && ((halign && !line.Vertical) || (valign && line.Vertical)):
				a.addChar(line, c)
			case line != nil:
				out = append(out, line)
				line = nil
			case valign && !halign:
				line = &TextLine{Vertical: true}
				a.addChar(line, prev)
				a.addChar(line, c)
			case halign && !valign:
				line = &TextLine{}
				a.addChar(line, prev)
				a.addChar(line, c)
			default:
				lone := &TextLine{}
				a.addChar(lone, prev)
				out = append(out, lone)
			}
		}
		prev = c
	}
	if line == nil {
		line = &TextLine{}
		a.addChar(line, prev)
	}
	return append(out, line)
}

// addChar appends c to line, inserting a space when the gap to the
// previous glyph exceeds the word margin
func (a *Analyzer) addChar(line *TextLine, c *Char) {
	if len(line.Children) == 0 {
		line.Box = c.Box
		line.Children = append(line.Children, c)
		return
	}
	margin := a.params.WordMargin * math.Max(c.Box.Width(), c.Box.Height())
	if margin > 0 {
		last := line.lastChar()
		if line.Vertical {
			if c.Box.Y1()+margin < last.Box.Y0() {
				line.Children = append(line.Children, &Text{Text: " "})
			}
		} else if last.Box.X1() < c.Box.X0()-margin {
			line.Children = append(line.Children, &Text{Text: " "})
		}
	}
	line.Box = line.Box.Union(c.Box)
	line.Children = append(line.Children, c)
}

func (l *TextLine) lastChar() *Char {
	for i := len(l.Children) - 1; i >= 0; i-- {
		if c, ok := l.Children[i].(*Char); ok {
			return c
		}
	}
	return nil
}

func (l *TextLine) isEmpty() bool {
	if l.Box.Width() <= 0 || l.Box.Height() <= 0 {
		return true
	}
	return strings.TrimSpace(l.Text()) == ""
}

// neighbors reports whether o belongs in the same text box as l
func (l *TextLine) neighbors(o *TextLine, ratio float64) bool {
	if l.Vertical != o.Vertical {
		return false
	}
	a, b := l.Box, o.Box
	if l.Vertical {
		d := ratio * a.Width()
		if !b.Intersects(BBox{a[0] - d, a[1], a[2] + d, a[3]}) {
			return false
		}
		return math.Abs(b.Width()-a.Width()) <= d &&
			(math.Abs(b.Y0()-a.Y0()) <= d ||
				math.Abs(b.Y1()-a.Y1()) <= d ||
				math.Abs((b.Y0()+b.Y1())/2-(a.Y0()+a.Y1())/2) <= d)
	}
	d := ratio * a.Height()
	if !b.Intersects(BBox{a[0], a[1] - d, a[2], a[3] + d}) {
		return false
	}
	return math.Abs(b.Height()-a.Height()) <= d &&
		(math.Abs(b.X0()-a.X0()) <= d ||
			math.Abs(b.X1()-a.X1()) <= d ||
			math.Abs((b.X0()+b.X1())/2-(a.X0()+a.X1())/2) <= d)
}

// groupTextLines merges neighbouring lines into text boxes. Boxes come out
// in the order of their first line.
func (a *Analyzer) groupTextLines(lines []*TextLine) []*TextBox {
	type build struct {
		vertical bool
		members  []int
	}
	owner := make([]*build, len(lines))

	for i, line := range lines {
		members := []int{i}
		for j, other := range lines {
			if !line.neighbors(other, a.params.LineMargin) {
				continue
			}
			members = append(members, j)
			if b := owner[j]; b != nil {
				members = append(members, b.members...)
			}
		}
		b := &build{vertical: line.Vertical}
		seen := make(map[int]bool, len(members))
		for _, m := range members {
			if seen[m] {
				continue
			}
			seen[m] = true
			b.members = append(b.members, m)
			owner[m] = b
		}
	}

	done := make(map[*build]bool)
	var boxes []*TextBox
	for i := range lines {
		b := owner[i]
		if b == nil || done[b] {
			continue
		}
		done[b] = true
		box := &TextBox{Index: -1, Vertical: b.vertical}
		for k, m := range b.members {
			if k == 0 {
				box.Box = lines[m].Box
			} else {
				box.Box = box.Box.Union(lines[m].Box)
			}
			box.Children = append(box.Children, lines[m])
		}
		if box.Box.Width() <= 0 || box.Box.Height() <= 0 {
			continue
		}
		boxes = append(boxes, box)
	}
	return boxes
}

// finish terminates each line with a line break and sorts the lines in
// reading order
func (b *TextBox) finish() {
	for _, n := range b.Children {
		if l, ok := n.(*TextLine); ok {
			l.Children = append(l.Children, &Text{Text: "\n"})
		}
	}
	sort.SliceStable(b.Children, func(i, j int) bool {
		if b.Vertical {
			return -b.Children[i].Bounds().X1() < -b.Children[j].Bounds().X1()
		}
		return -b.Children[i].Bounds().Y1() < -b.Children[j].Bounds().Y1()
	})
}

type groupEntry struct {
	skipCheck bool
	dist      float64
	id1, id2  int
	a, b      *groupItem
}

type groupItem struct {
	id   int
	node Node
}

func (g *groupItem) vertical() bool {
	switch n := g.node.(type) {
	case *TextBox:
		return n.Vertical
	case *TextGroup:
		return n.Vertical
	}
	return false
}

type groupHeap []groupEntry

func (h groupHeap) Len() int { return len(h) }
func (h groupHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.skipCheck != b.skipCheck {
		return !a.skipCheck
	}
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	if a.id1 != b.id1 {
		return a.id1 < b.id1
	}
	return a.id2 < b.id2
}
func (h groupHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *groupHeap) Push(x any)   { *h = append(*h, x.(groupEntry)) }
func (h *groupHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// groupDistance is the area of the union box not covered by either box
func groupDistance(a, b BBox) float64 {
	u := a.Union(b)
	return u.Width()*u.Height() - a.Width()*a.Height() - b.Width()*b.Height()
}

// groupTextBoxes builds the grouping hierarchy by repeatedly merging the
// closest pair of boxes or groups. Pairs whose union covers a third item
// are deferred behind all clean pairs.
func groupTextBoxes(boxes []*TextBox) []Node {
	nextID := 0
	var plane []*groupItem
	for _, b := range boxes {
		plane = append(plane, &groupItem{id: nextID, node: b})
		nextID++
	}

	h := make(groupHeap, 0, len(plane)*len(plane)/2)
	for i := range plane {
		for j := i + 1; j < len(plane); j++ {
			h = append(h, groupEntry{
				dist: groupDistance(plane[i].node.Bounds(), plane[j].node.Bounds()),
				id1:  plane[i].id, id2: plane[j].id,
				a: plane[i], b: plane[j],
			})
		}
	}
	heap.Init(&h)

	done := make(map[int]bool)
	covers := func(a, b *groupItem) bool {
		u := a.node.Bounds().Union(b.node.Bounds())
		for _, o := range plane {
			if o != a && o != b && o.node.Bounds().Intersects(u) {
				return true
			}
		}
		return false
	}

	for h.Len() > 0 {
		e := heap.Pop(&h).(groupEntry)
		if done[e.id1] || done[e.id2] {
			continue
		}
		if !e.skipCheck && covers(e.a, e.b) {
			e.skipCheck = true
			heap.Push(&h, e)
			continue
		}

		group := &TextGroup{
			Box:      e.a.node.Bounds().Union(e.b.node.Bounds()),
			Vertical: e.a.vertical() || e.b.vertical(),
			Children: []Node{e.a.node, e.b.node},
		}
		item := &groupItem{id: nextID, node: group}
		nextID++
		done[e.id1], done[e.id2] = true, true

		kept := plane[:0]
		for _, o := range plane {
			if o != e.a && o != e.b {
				kept = append(kept, o)
			}
		}
		plane = kept
		for _, o := range plane {
			heap.Push(&h, groupEntry{
				dist: groupDistance(group.Box, o.node.Bounds()),
				id1:  item.id, id2: o.id,
				a: item, b: o,
			})
		}
		plane = append(plane, item)
	}

	out := make([]Node, 0, len(plane))
	for _, o := range plane {
		out = append(out, o.node)
	}
	return out
}

// sortGroup orders group children by reading flow: left to right and top
// to bottom for horizontal groups, top to bottom and right to left for
// vertical ones
func sortGroup(n Node, flow float64) {
	g, ok := n.(*TextGroup)
	if !ok {
		return
	}
	for _, c := range g.Children {
		sortGroup(c, flow)
	}
	key := func(b BBox) float64 {
		if g.Vertical {
			return -(1+flow)*(b.X0()+b.X1()) - (1-flow)*b.Y1()
		}
		return (1-flow)*b.X0() - (1+flow)*(b.Y0()+b.Y1())
	}
	sort.SliceStable(g.Children, func(i, j int) bool {
		return key(g.Children[i].Bounds()) < key(g.Children[j].Bounds())
	})
}

// assignIndex numbers text boxes in depth-first order starting at next and
// returns the next free index
func assignIndex(n Node, next int) int {
	switch v := n.(type) {
	case *TextBox:
		v.Index = next
		return next + 1
	case *TextGroup:
		for _, c := range v.Children {
			next = assignIndex(c, next)
		}
	}
	return next
}
