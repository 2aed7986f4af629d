package export

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
)

var excessiveLinesRe = regexp.MustCompile(`\n{4,}`)

// MarkdownConverter converts rendered pages to Markdown.
type MarkdownConverter struct {
	converter *md.Converter
}

// NewMarkdownConverter creates a converter that drops the head, scripts and
// the letter navigation.
func NewMarkdownConverter() *MarkdownConverter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	converter.Remove("head", "style", "script", "nav")

	return &MarkdownConverter{converter: converter}
}

// Convert transforms an HTML page to Markdown.
func (c *MarkdownConverter) Convert(page []byte) (string, error) {
	markdown, err := c.converter.ConvertBytes(page)
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	return cleanMarkdown(string(markdown)), nil
}

// cleanMarkdown cleans up converted markdown.
func cleanMarkdown(content string) string {
	content = excessiveLinesRe.ReplaceAllString(content, "\n\n\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
}
