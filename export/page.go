package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/c360studio/vocabsync/gallery"
	"github.com/c360studio/vocabsync/vocabulary"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

const pageStyles = `body { font-family: Georgia, "Times New Roman", serif; margin: 0 auto; max-width: 960px; padding: 1rem; color: #2d2a26; }
nav.letters a { margin-right: 0.5rem; }
.entry { border-bottom: 1px solid #ddd; padding: 1rem 0; }
.translation { font-style: italic; color: #5c574f; }
.category { font-size: 0.85rem; text-transform: uppercase; color: #8a8378; }
.image-gallery { display: flex; gap: 0.5rem; flex-wrap: wrap; }
.image-gallery img { object-fit: cover; border-radius: 4px; }
.image-placeholder { width: 150px; height: 150px; display: flex; align-items: center; justify-content: center; background: #f2efe9; color: #8a8378; border-radius: 4px; }`

// PageOptions controls the regenerated page.
type PageOptions struct {
	Title string
	Lang  string
	// ServiceWorker is the script registered for offline use. Empty skips it.
	ServiceWorker string
	Render        gallery.RenderOptions
}

// Page holds what the page is rendered from.
type Page struct {
	Vocabulary *vocabulary.Vocabulary
	// Images is the image map of a scan over the same vocabulary.
	Images map[string]gallery.ImageSet
}

// Renderer renders vocabulary pages.
type Renderer struct {
	opts     PageOptions
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewRenderer creates a page renderer.
func NewRenderer(opts PageOptions) *Renderer {
	if opts.Title == "" {
		opts.Title = "Vocabulary"
	}
	if opts.Lang == "" {
		opts.Lang = "fr"
	}
	return &Renderer{
		opts:     opts,
		markdown: goldmark.New(),
		policy:   bluemonday.UGCPolicy(),
	}
}

// EntryID returns the anchor of a term's entry: the upper-cased initial of the
// primary form, a hyphen, then the primary form with spaces hyphenated.
// Terms not starting with a letter use "0" as initial.
func EntryID(term string) string {
	primary := vocabulary.PrimaryForm(term)
	return string(initial(primary)) + "-" + strings.ReplaceAll(primary, " ", "-")
}

func initial(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	up := unicode.ToUpper(r)
	if !unicode.IsUpper(up) {
		return '0'
	}
	return up
}

// RenderHTML renders the full page. Terms are grouped by initial in sorted order.
func (r *Renderer) RenderHTML(p Page) ([]byte, error) {
	terms := p.Vocabulary.Terms()

	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(&b, "<html lang=\"%s\">\n", html.EscapeString(r.opts.Lang))
	b.WriteString("<head>\n")
	b.WriteString("    <meta charset=\"utf-8\">\n")
	b.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	fmt.Fprintf(&b, "    <title>%s</title>\n", html.EscapeString(r.opts.Title))
	fmt.Fprintf(&b, "    <style>\n%s\n    </style>\n", pageStyles)
	b.WriteString("</head>\n")
	b.WriteString("<body>\n")
	fmt.Fprintf(&b, "    <h1>%s</h1>\n", html.EscapeString(r.opts.Title))

	groups, order := groupByInitial(terms)
	b.WriteString("    <nav class=\"letters\">\n")
	for _, letter := range order {
		fmt.Fprintf(&b, "        <a href=\"#letter-%c\">%c</a>\n", letter, letter)
	}
	b.WriteString("    </nav>\n")

	for _, letter := range order {
		fmt.Fprintf(&b, "    <section class=\"letter\" id=\"letter-%c\">\n", letter)
		fmt.Fprintf(&b, "        <h2>%c</h2>\n", letter)
		for _, term := range groups[letter] {
			entry, _ := p.Vocabulary.Entry(term)
			if err := r.writeEntry(&b, term, entry, p.Images[term]); err != nil {
				return nil, fmt.Errorf("render entry %q: %w", term, err)
			}
		}
		b.WriteString("    </section>\n")
	}

	if r.opts.ServiceWorker != "" {
		fmt.Fprintf(&b, "    <script>\n        if ('serviceWorker' in navigator) {\n            navigator.serviceWorker.register('%s');\n        }\n    </script>\n",
			html.EscapeString(r.opts.ServiceWorker))
	}
	b.WriteString("</body>\n")
	b.WriteString("</html>\n")

	return b.Bytes(), nil
}

func (r *Renderer) writeEntry(b *bytes.Buffer, term string, entry vocabulary.Entry, images gallery.ImageSet) error {
	fmt.Fprintf(b, "            <div class=\"entry\" id=\"%s\">\n", html.EscapeString(EntryID(term)))
	fmt.Fprintf(b, "                <h3>%s</h3>\n", html.EscapeString(term))
	if entry.Translation != "" {
		fmt.Fprintf(b, "                <p class=\"translation\">%s</p>\n", html.EscapeString(entry.Translation))
	}
	if entry.Category != "" {
		fmt.Fprintf(b, "                <p class=\"category\">%s</p>\n", html.EscapeString(entry.Category))
	}
	if entry.Definition != "" {
		fmt.Fprintf(b, "                <p class=\"definition\">%s</p>\n", html.EscapeString(entry.Definition))
	}
	if entry.Notes != "" {
		notes, err := r.renderNotes(entry.Notes)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "                <div class=\"notes\">\n%s                </div>\n", notes)
	}
	b.WriteString(gallery.Render(term, images, r.opts.Render))
	b.WriteString("\n            </div>\n")
	return nil
}

// renderNotes converts Markdown notes to sanitized HTML.
func (r *Renderer) renderNotes(notes string) (string, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(notes), &buf); err != nil {
		return "", fmt.Errorf("convert notes: %w", err)
	}
	return string(r.policy.SanitizeBytes(buf.Bytes())), nil
}

func groupByInitial(terms []string) (map[rune][]string, []rune) {
	groups := make(map[rune][]string)
	var order []rune
	for _, term := range terms {
		letter := initial(vocabulary.PrimaryForm(term))
		if _, seen := groups[letter]; !seen {
			order = append(order, letter)
		}
		groups[letter] = append(groups[letter], term)
	}
	return groups, order
}
