package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
)

func TestSummarize_Template(t *testing.T) {
	meta := domain.Metadata{
		Functions:  []string{"login", "logout"},
		Classes:    []string{"AuthService"},
		Patterns:   []string{"Async/Await"},
		Complexity: domain.ComplexityMedium,
	}

	summary := Summarize("const x = 1", meta, "src/services/auth_service.ts")

	assert.Contains(t, summary, "File: auth_service.ts")
	assert.Contains(t, summary, "Purpose: Service layer")
	assert.Contains(t, summary, "Complexity: medium")
	assert.Contains(t, summary, "- login")
	assert.Contains(t, summary, "- AuthService")
	assert.Contains(t, summary, "Patterns: Async/Await")
	assert.Contains(t, summary, "const x = 1")
}

func TestSummarize_Deterministic(t *testing.T) {
	meta := domain.Metadata{Complexity: domain.ComplexityLow}

	first := Summarize("content", meta, "a.js")
	second := Summarize("content", meta, "a.js")

	assert.Equal(t, first, second)
}

func TestSummarize_CapsFunctions(t *testing.T) {
	meta := domain.Metadata{
		Functions:  []string{"f1", "f2", "f3", "f4", "f5", "f6", "f7", "f8", "f9"},
		Complexity: domain.ComplexityLow,
	}

	summary := Summarize("", meta, "many.js")

	assert.Contains(t, summary, "- f7")
	assert.NotContains(t, summary, "- f8")
}

func TestSummarize_TruncatesPreview(t *testing.T) {
	content := strings.Repeat("a", summaryPreviewLength+100)

	summary := Summarize(content, domain.Metadata{Complexity: domain.ComplexityLow}, "long.js")

	assert.Contains(t, summary, strings.Repeat("a", summaryPreviewLength)+"...")
	assert.NotContains(t, summary, strings.Repeat("a", summaryPreviewLength+1))
}

func TestSummarize_PreviewKeepsValidUTF8(t *testing.T) {
	// 3-byte runes that do not divide the preview length evenly: a byte-level
	// cut would split the rune at the boundary.
	content := strings.Repeat("界", summaryPreviewLength)

	summary := Summarize(content, domain.Metadata{Complexity: domain.ComplexityLow}, "cjk.js")

	assert.True(t, utf8.ValidString(summary))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "h", truncate("héllo", 2)) // é is 2 bytes; back off
	assert.Equal(t, "hé", truncate("héllo", 3))
	assert.Equal(t, "héllo", truncate("héllo", 100))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "", truncate("界", 2))
}

func TestSummarize_SkipsEmptySections(t *testing.T) {
	summary := Summarize("x", domain.Metadata{Complexity: domain.ComplexityLow}, "bare.js")

	assert.NotContains(t, summary, "Key Functions")
	assert.NotContains(t, summary, "Classes:")
	assert.NotContains(t, summary, "Patterns:")
	assert.NotContains(t, summary, "Purpose:")
}

func TestBaseName_BothSeparators(t *testing.T) {
	assert.Equal(t, "a.js", baseName("src/lib/a.js"))
	assert.Equal(t, "a.js", baseName(`src\lib\a.js`))
	assert.Equal(t, "a.js", baseName("a.js"))
}
