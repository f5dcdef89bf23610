package generation

import (
	"fmt"
	"strings"

	"diagramlab/internal/domain"
	"diagramlab/internal/domain/models"
)

const (
	svgOpenTag  = "<svg"
	svgCloseTag = "</svg>"
)

// ResponseParser splits a raw model answer into question text and the
// embedded SVG fragment. It is a plain text splitter: the fragment is not
// checked for well-formed markup.
type ResponseParser struct {
	// Strict makes an unterminated <svg fragment an ErrMalformedDiagram.
	// Otherwise the rest of the text is taken as the diagram body and a
	// closing tag is appended.
	Strict bool
}

// Parse applies the split:
//   - no "<svg": question is the whole trimmed text, no diagram
//   - "<svg" found: question is the trimmed prefix, diagram runs from the
//     open tag through the first "</svg>" after it
func (p ResponseParser) Parse(raw string) (models.GenerationResult, error) {
	open := strings.Index(raw, svgOpenTag)
	if open < 0 {
		return models.GenerationResult{Question: strings.TrimSpace(raw)}, nil
	}

	question := strings.TrimSpace(raw[:open])
	rest := raw[open:]

	closeIdx := strings.Index(rest, svgCloseTag)
	if closeIdx < 0 {
		if p.Strict {
			return models.GenerationResult{Question: question},
				fmt.Errorf("%w: missing %s", domain.ErrMalformedDiagram, svgCloseTag)
		}
		return models.GenerationResult{
			Question:   question,
			Diagram:    strings.TrimSpace(rest) + svgCloseTag,
			HasDiagram: true,
		}, nil
	}

	return models.GenerationResult{
		Question:   question,
		Diagram:    strings.TrimSpace(rest[:closeIdx+len(svgCloseTag)]),
		HasDiagram: true,
	}, nil
}
