package config

const (
	// MaxExampleIDLength is the maximum length for example ids.
	// Ids double as folder names, so stay well under common
	// filesystem name limits once the trash timestamp is appended.
	MaxExampleIDLength = 128

	// MaxQuestionLength is the maximum length (bytes) of a question text.
	MaxQuestionLength = 20000

	// MaxDiagramBytes caps a single diagram artifact (SVG markup or raster upload).
	MaxDiagramBytes = 5 << 20

	// MaxInstructionLength bounds the free-text instruction sent to the generator.
	MaxInstructionLength = 8000

	// MaxReferenceImages bounds how many images are inlined in one request.
	// Each image is base64-encoded into the request body.
	MaxReferenceImages = 8

	// MaxReferenceExamples bounds how many stored examples are inlined in one request.
	MaxReferenceExamples = 10

	// MaxVariants is the upper bound on generations per user action.
	MaxVariants = 10
)
