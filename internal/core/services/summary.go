package services

import (
	"strings"
	"unicode/utf8"

	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
)

// Summary generator limits. The summary - not the raw file - is what gets
// embedded, so these bounds keep embedding input size and cost flat
// regardless of file size.
const (
	maxSummaryFunctions  = 7
	summaryPreviewLength = 500
)

// filenamePurposes maps filename keywords to an inferred purpose line.
// Checked in order; the first match wins.
var filenamePurposes = []struct {
	keyword string
	purpose string
}{
	{"util", "Utility functions"},
	{"component", "UI Component"},
	{"service", "Service layer"},
	{"controller", "Controller"},
	{"model", "Data model"},
}

// Summarize renders a bounded, deterministic natural-language description of
// a file from its content and extracted metadata. Identical inputs always
// produce the identical summary.
func Summarize(content string, meta domain.Metadata, filePath string) string {
	name := baseName(filePath)

	var b strings.Builder
	b.WriteString("File: " + name + "\n\n")

	for _, p := range filenamePurposes {
		if strings.Contains(name, p.keyword) {
			b.WriteString("Purpose: " + p.purpose + "\n")
			break
		}
	}

	b.WriteString("Complexity: " + string(meta.Complexity) + "\n\n")

	if len(meta.Functions) > 0 {
		b.WriteString("Key Functions:\n")
		fns := meta.Functions
		if len(fns) > maxSummaryFunctions {
			fns = fns[:maxSummaryFunctions]
		}
		for _, fn := range fns {
			b.WriteString("- " + fn + "\n")
		}
		b.WriteString("\n")
	}

	if len(meta.Classes) > 0 {
		b.WriteString("Classes:\n")
		for _, cls := range meta.Classes {
			b.WriteString("- " + cls + "\n")
		}
		b.WriteString("\n")
	}

	if len(meta.Patterns) > 0 {
		b.WriteString("Patterns: " + strings.Join(meta.Patterns, ", ") + "\n\n")
	}

	b.WriteString("Content Preview:\n```\n")
	if len(content) > summaryPreviewLength {
		b.WriteString(truncate(content, summaryPreviewLength) + "...")
	} else {
		b.WriteString(content)
	}
	b.WriteString("\n```\n")

	return b.String()
}

// truncate cuts s to at most max bytes, backing off to a rune boundary so a
// multi-byte character is never split into invalid UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// baseName strips directories from a path, handling both separators so that
// Windows-style paths fetched from an API still summarize by file name.
func baseName(path string) string {
	if i := strings.LastIndexAny(path, "/\\"); i >= 0 {
		return path[i+1:]
	}
	return path
}
