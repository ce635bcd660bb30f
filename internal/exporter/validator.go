package exporter

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// Validate reports whether markup is well-formed SVG.
// Empty or whitespace-only input is not valid; use Check to tell it apart
// from malformed input.
func Validate(markup string) bool {
	return Check(markup) == nil
}

// Check returns nil for well-formed SVG, ErrEmptyMarkup for blank input,
// or a *ParseError describing the first well-formedness problem.
func Check(markup string) error {
	_, err := parseRoot(markup)
	return err
}

// parseRoot walks the whole document and returns a copy of the root element.
func parseRoot(markup string) (xml.StartElement, error) {
	if strings.TrimSpace(markup) == "" {
		return xml.StartElement{}, ErrEmptyMarkup
	}

	decoder := xml.NewDecoder(strings.NewReader(markup))
	decoder.Strict = true
	decoder.CharsetReader = charset.NewReaderLabel

	var (
		root     xml.StartElement
		seenRoot bool
		rootLine int
		depth    int
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return xml.StartElement{}, syntaxParseError(decoder, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if seenRoot {
					return xml.StartElement{}, positionedParseError(decoder, "extra content after the root element")
				}
				root = t.Copy()
				rootLine, _ = decoder.InputPos()
				seenRoot = true
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return xml.StartElement{}, positionedParseError(decoder, "text outside the root element")
			}
		}
	}

	if !seenRoot {
		return xml.StartElement{}, &ParseError{Reason: "no root element"}
	}
	if depth != 0 {
		return xml.StartElement{}, &ParseError{Reason: "unterminated element"}
	}
	if root.Name.Local != "svg" {
		return xml.StartElement{}, &ParseError{Line: rootLine, Reason: "root element is <" + root.Name.Local + ">, not <svg>"}
	}
	return root, nil
}

func syntaxParseError(decoder *xml.Decoder, err error) *ParseError {
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &ParseError{Line: syntaxErr.Line, Reason: syntaxErr.Msg, Err: err}
	}
	line, _ := decoder.InputPos()
	return &ParseError{Line: line, Reason: err.Error(), Err: err}
}

func positionedParseError(decoder *xml.Decoder, reason string) *ParseError {
	line, _ := decoder.InputPos()
	return &ParseError{Line: line, Reason: reason}
}
