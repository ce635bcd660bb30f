package exporter

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyMarkup       = errors.New("markup is empty")
	ErrInvalidScale      = errors.New("scale must be a finite number >= 1")
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrSurfaceTooLarge   = errors.New("drawing surface too large")
)

// RenderStage identifies the rasterization step that failed.
type RenderStage string

const (
	StageParse      RenderStage = "parse"
	StageDimensions RenderStage = "dimensions"
	StageSurface    RenderStage = "surface"
	StageDraw       RenderStage = "draw"
	StageEncode     RenderStage = "encode"
)

// ParseError reports markup that is not well-formed SVG.
type ParseError struct {
	Line   int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("svg parse error at line %d: %s", e.Line, e.Reason)
	}
	return "svg parse error: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// RenderError reports a failed rasterization. Err may itself be a *ParseError.
type RenderError struct {
	Stage RenderStage
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed (%s): %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func renderErr(stage RenderStage, err error) error {
	return &RenderError{Stage: stage, Err: err}
}
