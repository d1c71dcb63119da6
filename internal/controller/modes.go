package controller

import (
	"fmt"
	"strings"
)

// Layout selects how many pages are shown and how they are arranged.
type Layout int

const (
	LayoutContinuous Layout = iota
	LayoutDoubleNormal
	LayoutDoubleManga
	LayoutSingle
)

// Layouts lists every layout in menu order.
var Layouts = []Layout{LayoutContinuous, LayoutDoubleNormal, LayoutDoubleManga, LayoutSingle}

var layoutNames = map[Layout]struct{ key, desc string }{
	LayoutContinuous:   {"continuous", "Continuous"},
	LayoutDoubleNormal: {"double-normal", "Double pages (normal mode)"},
	LayoutDoubleManga:  {"double-manga", "Double pages (manga mode)"},
	LayoutSingle:       {"single", "Single page"},
}

// String returns the menu label.
func (l Layout) String() string {
	if n, ok := layoutNames[l]; ok {
		return n.desc
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// Key returns the identifier used in configuration files and flags.
func (l Layout) Key() string {
	return layoutNames[l].key
}

// ParseLayout accepts a layout key or menu label.
func ParseLayout(s string) (Layout, error) {
	s = strings.TrimSpace(s)
	for _, l := range Layouts {
		n := layoutNames[l]
		if strings.EqualFold(s, n.key) || strings.EqualFold(s, n.desc) {
			return l, nil
		}
	}
	return LayoutSingle, fmt.Errorf("unknown layout %q", s)
}

// Sizing selects how the page scale is derived from the view area.
type Sizing int

const (
	SizingActual Sizing = iota
	SizingFitHeight
	SizingFitHeightWidth
	SizingFitWidth
	SizingManual
)

// Sizings lists every sizing mode in menu order.
var Sizings = []Sizing{SizingActual, SizingFitHeight, SizingFitHeightWidth, SizingFitWidth, SizingManual}

var sizingNames = map[Sizing]struct{ key, desc string }{
	SizingActual:         {"actual", "Actual size"},
	SizingFitHeight:      {"fit-height", "Fit height"},
	SizingFitHeightWidth: {"fit", "Fit height and width"},
	SizingFitWidth:       {"fit-width", "Fit width"},
	SizingManual:         {"manual", "Manual"},
}

// String returns the menu label.
func (s Sizing) String() string {
	if n, ok := sizingNames[s]; ok {
		return n.desc
	}
	return fmt.Sprintf("Sizing(%d)", int(s))
}

// Key returns the identifier used in configuration files and flags.
func (s Sizing) Key() string {
	return sizingNames[s].key
}

// ParseSizing accepts a sizing key or menu label.
func ParseSizing(v string) (Sizing, error) {
	v = strings.TrimSpace(v)
	for _, s := range Sizings {
		n := sizingNames[s]
		if strings.EqualFold(v, n.key) || strings.EqualFold(v, n.desc) {
			return s, nil
		}
	}
	return SizingFitHeightWidth, fmt.Errorf("unknown sizing %q", v)
}
