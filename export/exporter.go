package export

import (
	"fmt"
)

// Exporter renders a page in any registered format.
type Exporter struct {
	renderer  *Renderer
	converter *MarkdownConverter
}

// NewExporter creates an exporter.
func NewExporter(opts PageOptions) *Exporter {
	return &Exporter{
		renderer:  NewRenderer(opts),
		converter: NewMarkdownConverter(),
	}
}

// Export renders p in format.
func (e *Exporter) Export(p Page, format Format) ([]byte, error) {
	page, err := e.renderer.RenderHTML(p)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatHTML:
		return page, nil
	case FormatMarkdown:
		markdown, err := e.converter.Convert(page)
		if err != nil {
			return nil, err
		}
		return []byte(markdown), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
