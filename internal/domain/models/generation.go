package models

import "fmt"

// ReferenceImage is raw image bytes supplied as visual priming.
// MediaType may be empty; the prompt builder sniffs it from the bytes.
type ReferenceImage struct {
	MediaType string
	Data      []byte
}

// EncodedImage is a reference image in its embeddable base64 form.
type EncodedImage struct {
	MediaType string
	Base64    string
}

// DataURL renders the image as a data: URL
func (i EncodedImage) DataURL() string {
	return "data:" + i.MediaType + ";base64," + i.Base64
}

// ReferenceExample is a (question, diagram) pair shown to the model as an in-context example.
type ReferenceExample struct {
	Question string
	Diagram  string
}

// SamplingParams are passed through to the backend unchanged.
type SamplingParams struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// GenerationRequest is the provider-neutral request assembled by the prompt
// builder. It is built per call and never persisted. Order of Images and
// Examples is preserved all the way to the wire.
type GenerationRequest struct {
	System        string
	Instruction   string
	Images        []EncodedImage
	Examples      []ReferenceExample
	ExampleHeader string
	Params        SamplingParams
}

// TextBlocks returns the text content of the user turn in wire order: one
// block per reference example, then the instruction. Providers send Images
// ahead of these blocks.
func (r *GenerationRequest) TextBlocks() []string {
	header := r.ExampleHeader
	if header == "" {
		header = "Reference example"
	}

	blocks := make([]string, 0, len(r.Examples)+1)
	for i, ex := range r.Examples {
		blocks = append(blocks, fmt.Sprintf("%s %d:\nQuestion: %s\nDiagram:\n%s",
			header, i+1, ex.Question, ex.Diagram))
	}
	return append(blocks, r.Instruction)
}

// GenerationResult is one parsed model answer. HasDiagram is false when
// the answer contained no diagram fragment; that is a valid result.
type GenerationResult struct {
	Question   string `json:"question"`
	Diagram    string `json:"diagram,omitempty"`
	HasDiagram bool   `json:"has_diagram"`
}
