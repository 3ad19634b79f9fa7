package services

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
)

// MaxAnalyzedContent is the size ceiling above which detailed extraction is
// skipped and the file is classified high complexity directly. Regex scans
// over very large files cost more than the metadata is worth.
const MaxAnalyzedContent = 100000

// Complexity score thresholds.
const (
	complexityHighThreshold   = 50
	complexityMediumThreshold = 15
)

var (
	functionRe      = regexp.MustCompile(`(?:function|const|let|var)\s+(\w+)\s*\([^)]*\)`)
	arrowFunctionRe = regexp.MustCompile(`(?:const|let|var)\s+(\w+)\s*=\s*(?:\([^)]*\)|[^=\n]*)\s*=>`)
	classRe         = regexp.MustCompile(`class\s+(\w+)`)
	importRe        = regexp.MustCompile(`import\s+.*from\s+['"]([^'"]+)['"]`)
	exportRe        = regexp.MustCompile(`export\s+(const|let|var|function|class|default)\s+(\w+)?`)
	controlFlowRe   = regexp.MustCompile(`\b(?:if|else|for|while|switch|case)\b`)
)

// jsExtensions is the language family the analyzer fully supports.
// Other extensions are extension points and return empty metadata.
var jsExtensions = map[string]bool{
	".js": true, ".jsx": true, ".ts": true, ".tsx": true,
}

// Analyze extracts structural metadata from a source file using heuristic
// text scanning, not a full parser. It is pure: identical inputs produce
// structurally equal metadata, and it never fails - malformed input yields
// whatever was extracted up to that point.
func Analyze(content, filePath string) domain.Metadata {
	meta := domain.Metadata{Complexity: domain.ComplexityLow}

	// Very large files skip extraction entirely; cost-control policy.
	if len(content) > MaxAnalyzedContent {
		meta.Complexity = domain.ComplexityHigh
		return meta
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	if !jsExtensions[ext] {
		return meta
	}

	for _, m := range functionRe.FindAllStringSubmatch(content, -1) {
		if m[1] != "" && !strings.HasPrefix(m[1], "_") {
			meta.Functions = append(meta.Functions, m[1])
		}
	}
	for _, m := range arrowFunctionRe.FindAllStringSubmatch(content, -1) {
		if m[1] != "" && !strings.HasPrefix(m[1], "_") {
			meta.Functions = append(meta.Functions, m[1])
		}
	}
	for _, m := range classRe.FindAllStringSubmatch(content, -1) {
		meta.Classes = append(meta.Classes, m[1])
	}
	for _, m := range importRe.FindAllStringSubmatch(content, -1) {
		meta.Imports = append(meta.Imports, m[1])
	}
	for _, m := range exportRe.FindAllStringSubmatch(content, -1) {
		switch {
		case m[2] != "":
			meta.Exports = append(meta.Exports, m[2])
		case m[1] == "default":
			meta.Exports = append(meta.Exports, "default")
		}
	}

	meta.Patterns = detectPatterns(content)
	meta.Complexity = classifyComplexity(content, meta)

	return meta
}

// detectPatterns flags common idioms by substring presence.
func detectPatterns(content string) []string {
	var patterns []string
	if strings.Contains(content, "useState") || strings.Contains(content, "useEffect") {
		patterns = append(patterns, "React Hooks")
	}
	if strings.Contains(content, "createContext") {
		patterns = append(patterns, "Context API")
	}
	if strings.Contains(content, ".reduce(") {
		patterns = append(patterns, "Functional Programming")
	}
	if strings.Contains(content, "async") && strings.Contains(content, "await") {
		patterns = append(patterns, "Async/Await")
	}
	return patterns
}

// classifyComplexity computes the composite score:
// length/1000 + functions + 2*classes + controlFlowKeywords/2.
func classifyComplexity(content string, meta domain.Metadata) domain.Complexity {
	controlFlow := len(controlFlowRe.FindAllStringIndex(content, -1))

	score := float64(len(content))/1000 +
		float64(len(meta.Functions)) +
		float64(len(meta.Classes))*2 +
		float64(controlFlow)/2

	switch {
	case score > complexityHighThreshold:
		return domain.ComplexityHigh
	case score > complexityMediumThreshold:
		return domain.ComplexityMedium
	default:
		return domain.ComplexityLow
	}
}
