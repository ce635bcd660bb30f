package exporter

import (
	"encoding/xml"
	"math"
	"strconv"
	"strings"
)

// SizeSource tells where the intrinsic size came from.
type SizeSource int

const (
	SizeFromViewBox SizeSource = iota
	SizeFromAttributes
	SizeFallback
)

func (s SizeSource) String() string {
	switch s {
	case SizeFromViewBox:
		return "viewBox"
	case SizeFromAttributes:
		return "width/height"
	case SizeFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// ViewBox is the user-space rectangle mapped onto the drawing surface.
type ViewBox struct {
	X, Y, W, H float64
}

// IntrinsicSize is the unscaled canvas size in pixels.
type IntrinsicSize struct {
	Width, Height float64
	ViewBox       ViewBox
	Source        SizeSource
}

// CSS absolute units in px.
var unitScale = map[string]float64{
	"":   1,
	"px": 1,
	"pt": 4.0 / 3.0,
	"pc": 16,
	"mm": 96 / 25.4,
	"cm": 96 / 2.54,
	"in": 96,
}

// resolveSize picks the intrinsic size of an <svg> root: the viewBox first,
// then both width and height attributes, then the fallback canvas.
func resolveSize(root xml.StartElement, fallbackW, fallbackH float64) IntrinsicSize {
	var (
		viewBox       ViewBox
		hasViewBox    bool
		width, height float64
	)

	for _, attr := range root.Attr {
		switch attr.Name.Local {
		case "viewBox":
			viewBox, hasViewBox = parseViewBox(attr.Value)
		case "width":
			width = parseLength(attr.Value)
		case "height":
			height = parseLength(attr.Value)
		}
	}

	if hasViewBox {
		return IntrinsicSize{Width: viewBox.W, Height: viewBox.H, ViewBox: viewBox, Source: SizeFromViewBox}
	}
	if width > 0 && height > 0 {
		return IntrinsicSize{
			Width:   width,
			Height:  height,
			ViewBox: ViewBox{W: width, H: height},
			Source:  SizeFromAttributes,
		}
	}
	return IntrinsicSize{
		Width:   fallbackW,
		Height:  fallbackH,
		ViewBox: ViewBox{W: fallbackW, H: fallbackH},
		Source:  SizeFallback,
	}
}

// parseViewBox accepts "min-x min-y width height" separated by spaces and/or commas.
// Width and height must be positive.
func parseViewBox(v string) (ViewBox, bool) {
	fields := strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != 4 {
		return ViewBox{}, false
	}

	var nums [4]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return ViewBox{}, false
		}
		nums[i] = n
	}
	if nums[2] <= 0 || nums[3] <= 0 {
		return ViewBox{}, false
	}
	return ViewBox{X: nums[0], Y: nums[1], W: nums[2], H: nums[3]}, true
}

// parseLength converts an absolute SVG length to px. Relative units (%, em)
// and malformed values yield 0.
func parseLength(v string) float64 {
	v = strings.TrimSpace(v)
	end := len(v)
	for end > 0 {
		c := v[end-1]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '%' {
			end--
			continue
		}
		break
	}

	scale, ok := unitScale[strings.ToLower(v[end:])]
	if !ok {
		return 0
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(v[:end]), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
		return 0
	}
	return n * scale
}

// surfaceSize scales the intrinsic size and rounds to whole pixels.
func surfaceSize(size IntrinsicSize, scale float64) (int, int) {
	return int(math.Round(size.Width * scale)), int(math.Round(size.Height * scale))
}
