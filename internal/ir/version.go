package ir

// Version constants recorded with every validation run.
const (
	// FormatVersion is the canonical request format version.
	FormatVersion = "1"

	// ToolVersion is the pql2 tool version.
	ToolVersion = "0.1.0"
)
