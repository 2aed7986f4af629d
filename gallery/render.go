package gallery

import (
	"fmt"
	"html"
	"strings"
)

// DefaultPlaceholder is the text shown in place of a missing image.
const DefaultPlaceholder = "Image à venir"

// Indentation of the gallery fragment inside an entry of the page.
const (
	indentGallery = "                "
	indentItem    = indentGallery + "    "
	indentSource  = indentItem + "    "
)

// RenderOptions controls the generated markup.
type RenderOptions struct {
	// Placeholder replaces missing images. Empty means DefaultPlaceholder.
	Placeholder string
	// Width and Height are written on every img tag. Zero means 150.
	Width  int
	Height int
}

// DefaultRenderOptions returns the options matching the published page.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{Placeholder: DefaultPlaceholder, Width: 150, Height: 150}
}

func (o RenderOptions) withDefaults() RenderOptions {
	d := DefaultRenderOptions()
	if o.Placeholder == "" {
		o.Placeholder = d.Placeholder
	}
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	return o
}

// Render returns the gallery fragment of term: an image-gallery container
// holding one child per slot, in slot order. WebP images get a picture
// element with a JPEG fallback whose path is the WebP path with every ".webp"
// replaced by ".jpg"; that fallback is not checked for existence.
func Render(term string, images ImageSet, opts RenderOptions) string {
	opts = opts.withDefaults()

	var sb strings.Builder
	sb.WriteString(indentGallery + `<div class="image-gallery">` + "\n")

	for i, path := range images {
		alt := html.EscapeString(fmt.Sprintf("%s %d", term, i+1))
		switch {
		case path == "":
			fmt.Fprintf(&sb, "%s<div class=\"image-placeholder\">%s</div>\n",
				indentItem, html.EscapeString(opts.Placeholder))
		case strings.HasSuffix(path, ExtWebP):
			fallback := strings.ReplaceAll(path, ExtWebP, ExtJPEG)
			sb.WriteString(indentItem + "<picture>\n")
			fmt.Fprintf(&sb, "%s<source srcset=\"%s\" type=\"image/webp\">\n",
				indentSource, html.EscapeString(path))
			fmt.Fprintf(&sb, "%s%s\n", indentSource, imgTag(fallback, alt, opts))
			sb.WriteString(indentItem + "</picture>\n")
		default:
			fmt.Fprintf(&sb, "%s%s\n", indentItem, imgTag(path, alt, opts))
		}
	}

	sb.WriteString(indentGallery + "</div>")
	return sb.String()
}

func imgTag(src, alt string, opts RenderOptions) string {
	return fmt.Sprintf(`<img src="%s" alt="%s" loading="lazy" width="%d" height="%d">`,
		html.EscapeString(src), alt, opts.Width, opts.Height)
}
