package layout

// matrix is a PDF transformation matrix [a b c d e f]
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// mul returns m × n (apply m first, then n)
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

// translate moves the origin of m by (x, y) in m's own space
func (m matrix) translate(x, y float64) matrix {
	return matrix{m[0], m[1], m[2], m[3], x*m[0] + y*m[2] + m[4], x*m[1] + y*m[3] + m[5]}
}

func (m matrix) apply(x, y float64) Point {
	return Point{X: m[0]*x + m[2]*y + m[4], Y: m[1]*x + m[3]*y + m[5]}
}

// applyBox transforms the four corners of b and returns their bounds
func (m matrix) applyBox(b BBox) BBox {
	return boundsOf([]Point{
		m.apply(b[0], b[1]), m.apply(b[2], b[1]),
		m.apply(b[0], b[3]), m.apply(b[2], b[3]),
	})
}

// pageMatrix maps a page's media box onto the origin, honouring rotation
func pageMatrix(media BBox, rotate int) matrix {
	x0, y0, x1, y1 := media[0], media[1], media[2], media[3]
	switch rotate {
	case 90:
		return matrix{0, -1, 1, 0, -y0, x1}
	case 180:
		return matrix{-1, 0, 0, -1, x1, y1}
	case 270:
		return matrix{0, 1, -1, 0, y1, -x0}
	default:
		return matrix{1, 0, 0, 1, -x0, -y0}
	}
}
