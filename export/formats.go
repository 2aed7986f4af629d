// Package export regenerates the vocabulary page from the data file and the
// images on disk, as HTML or as Markdown.
package export

import (
	"fmt"
	"sort"
	"strings"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatHTML produces the full vocabulary page.
	FormatHTML Format = "html"

	// FormatMarkdown produces the page converted to GitHub flavored Markdown.
	FormatMarkdown Format = "markdown"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatHTML: {
		Name:        FormatHTML,
		MIMEType:    "text/html; charset=utf-8",
		Extension:   ".html",
		Description: "HTML - the vocabulary page with image galleries",
	},
	FormatMarkdown: {
		Name:        FormatMarkdown,
		MIMEType:    "text/markdown; charset=utf-8",
		Extension:   ".md",
		Description: "Markdown - the page converted for READMEs and previews",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// ParseFormat resolves a format name, accepting "md" for Markdown.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "md" {
		name = string(FormatMarkdown)
	}
	if _, ok := FormatRegistry[Format(name)]; !ok {
		return "", fmt.Errorf("unsupported format %q (supported: %s)",
			name, strings.Join(SupportedFormats(), ", "))
	}
	return Format(name), nil
}

// SupportedFormats returns the registered format names, sorted.
func SupportedFormats() []string {
	names := make([]string, 0, len(FormatRegistry))
	for f := range FormatRegistry {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}
