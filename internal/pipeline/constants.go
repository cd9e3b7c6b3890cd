package pipeline

// Defaults recorded with each parse run.
const (
	// DefaultParserType identifies the extraction method in the audit archive.
	DefaultParserType = "GEMINI_DOCUMENT"

	// DefaultParserVersion is bumped when the extraction prompt changes shape.
	DefaultParserVersion = "v1"
)
