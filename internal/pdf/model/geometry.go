// Package model holds the content model built from a converted PDF: a
// Document of ordered Pages, each owning the Figures and TextBoxes found on
// it. Coordinates in the model are always canonical integers.
package model

import (
	"fmt"
	"strings"
)

// Normalize converts a bounding box of real coordinates into its canonical
// integer form by truncating every component toward zero. A nil or empty
// box yields an empty, non-nil slice.
func Normalize(bbox []float64) []int {
	out := make([]int, 0, len(bbox))
	for _, v := range bbox {
		out = append(out, int(v))
	}
	return out
}

// BBoxString renders an integer box as "x0,y0,x1,y1" with three decimals,
// the same shape the XML dump uses for real-valued boxes.
func BBoxString(bbox []int) string {
	parts := make([]string, len(bbox))
	for i, v := range bbox {
		parts[i] = fmt.Sprintf("%.3f", float64(v))
	}
	return strings.Join(parts, ",")
}

func bboxList(bbox []int) string {
	parts := make([]string, len(bbox))
	for i, v := range bbox {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
