package layout

import "fmt"

// Params tunes layout analysis. Distances are ratios of glyph or line size.
type Params struct {
	// LineOverlap is the minimal overlap, relative to the smaller glyph,
	// for two glyphs to sit on the same line.
	LineOverlap float64
	// CharMargin is the maximal gap, relative to the larger glyph, between
	// two glyphs of one line.
	CharMargin float64
	// LineMargin is the maximal gap, relative to line height, between two
	// lines of one text box.
	LineMargin float64
	// WordMargin is the gap, relative to glyph size, above which a space
	// is inserted between two glyphs.
	WordMargin float64
	// BoxesFlow weighs horizontal (-1) against vertical (+1) position when
	// ordering text boxes. Nil disables text grouping.
	BoxesFlow *float64
	// DetectVertical enables vertical text lines.
	DetectVertical bool
	// AllTexts analyzes text inside figures as well.
	AllTexts bool
	// MaxFormDepth bounds form XObject recursion.
	MaxFormDepth int
	// MaxGroupBoxes disables text grouping on pages with more boxes.
	MaxGroupBoxes int
}

// DefaultParams returns the default analysis parameters
func DefaultParams() Params {
	flow := 0.5
	return Params{
		LineOverlap:    0.5,
		CharMargin:     2.0,
		LineMargin:     0.5,
		WordMargin:     0.1,
		BoxesFlow:      &flow,
		DetectVertical: true,
		AllTexts:       true,
		MaxFormDepth:   8,
		MaxGroupBoxes:  500,
	}
}

// WithBoxesFlow returns a copy of p with the boxes flow set to v
func (p Params) WithBoxesFlow(v float64) Params {
	p.BoxesFlow = &v
	return p
}

// WithoutGrouping returns a copy of p with text grouping disabled
func (p Params) WithoutGrouping() Params {
	p.BoxesFlow = nil
	return p
}

// Validate checks the parameter ranges
func (p Params) Validate() error {
	if p.BoxesFlow != nil && (*p.BoxesFlow < -1 || *p.BoxesFlow > 1) {
		return fmt.Errorf("boxes flow must be between -1 and 1, got %g", *p.BoxesFlow)
	}
	if p.LineOverlap < 0 || p.CharMargin < 0 || p.LineMargin < 0 || p.WordMargin < 0 {
		return fmt.Errorf("layout margins must not be negative")
	}
	if p.MaxFormDepth < 1 {
		return fmt.Errorf("form depth must be at least 1")
	}
	return nil
}
