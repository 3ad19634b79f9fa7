package domain

// Complexity is a coarse classification of a source file.
type Complexity string

// Complexity levels, from least to most involved.
const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Metadata is the structural information extracted from a source file by the
// analyzer. All slices may be empty; an empty Metadata with ComplexityLow is
// the zero value for unsupported languages.
type Metadata struct {
	// Functions holds named function declarations, including arrow-function
	// bindings.
	Functions []string

	// Classes holds class declarations.
	Classes []string

	// Imports holds import sources (module specifiers, not bindings).
	Imports []string

	// Exports holds named exports; a default export appears as "default".
	Exports []string

	// Patterns holds detected idiom markers such as "React Hooks".
	Patterns []string

	// Complexity is the composite classification for the file.
	Complexity Complexity
}
