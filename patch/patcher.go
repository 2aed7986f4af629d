// Package patch refreshes the image galleries of an existing vocabulary page.
//
// The document is parsed into a node tree. Every div.image-gallery is tied to
// a term through the nearest data-term or id attribute that precedes it, either
// on an enclosing entry or on a heading just before the gallery. Ids are
// matched against a configurable pattern such as the "A-Agora" anchors of the
// generated page. Galleries that cannot be tied to
// exactly one term are reported and left untouched.
package patch

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/c360studio/vocabsync/gallery"
	"github.com/c360studio/vocabsync/vocabulary"
	"golang.org/x/net/html"
)

// DefaultIDPattern matches entry anchors with an optional initial prefix,
// such as "A-Agora" or "0-1821".
const DefaultIDPattern = `^(?:[\p{Lu}0]-)?(.+)$`

// GallerySelector locates gallery containers.
const GallerySelector = "div.image-gallery"

// ErrNothingToPatch is returned by Apply when no gallery was matched.
var ErrNothingToPatch = errors.New("no gallery could be matched to a term")

// Reason explains why a gallery was left out of a plan.
type Reason string

// Reasons a gallery is not patched.
const (
	ReasonNoAnchor  Reason = "no id or data-term before the gallery"
	ReasonUnknownID Reason = "id matches no term"
	ReasonAmbiguous Reason = "term claimed by several galleries"
	ReasonSharedID  Reason = "id matches several terms"
)

// Options configures a Patcher.
type Options struct {
	// IDPattern extracts the term part of an id. The first capture group is
	// used when present, the whole match otherwise. Empty means DefaultIDPattern.
	IDPattern string
	Render    gallery.RenderOptions
	// Normalizer must be the one used for the scan. Nil means
	// vocabulary.NormalizeTerm.
	Normalizer vocabulary.Normalizer
}

// Match is a gallery tied to a term.
type Match struct {
	// Index is the position of the gallery among all galleries of the document.
	Index  int
	Anchor string
	Term   string
	Images gallery.ImageSet
}

// Unmatched is a gallery that will not be patched.
type Unmatched struct {
	Index  int
	Anchor string
	Reason Reason
}

// Plan lists what a patch would change.
type Plan struct {
	Galleries int
	Matches   []Match
	Unmatched []Unmatched

	document []byte
}

// Patcher correlates galleries with terms and rewrites them.
type Patcher struct {
	idPattern *regexp.Regexp
	render    gallery.RenderOptions
	normalize vocabulary.Normalizer
}

// NewPatcher creates a patcher. It fails when the id pattern does not compile.
func NewPatcher(opts Options) (*Patcher, error) {
	pattern := opts.IDPattern
	if pattern == "" {
		pattern = DefaultIDPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile id pattern: %w", err)
	}
	normalize := opts.Normalizer
	if normalize == nil {
		normalize = vocabulary.NormalizeTerm
	}
	return &Patcher{idPattern: re, render: opts.Render, normalize: normalize}, nil
}

// Analyze finds the galleries of document and ties each to a term of images.
// The document is not modified.
func (p *Patcher) Analyze(document []byte, images map[string]gallery.ImageSet) (*Plan, error) {
	doc, err := parse(document)
	if err != nil {
		return nil, err
	}
	idx := p.buildIndex(images)

	type candidate struct {
		index  int
		anchor string
		term   string
	}
	var candidates []candidate
	claims := make(map[string]int)
	plan := &Plan{document: document}

	found := doc.Find(GallerySelector)
	galleries := make(map[*html.Node]bool, found.Length())
	for _, n := range found.Nodes {
		galleries[n] = true
	}

	found.Each(func(i int, s *goquery.Selection) {
		plan.Galleries++
		anchor, isTerm, ok := findAnchor(s, galleries)
		if !ok {
			plan.Unmatched = append(plan.Unmatched, Unmatched{Index: i, Reason: ReasonNoAnchor})
			return
		}
		term, reason := p.resolve(idx, anchor, isTerm)
		if reason != "" {
			plan.Unmatched = append(plan.Unmatched, Unmatched{Index: i, Anchor: anchor, Reason: reason})
			return
		}
		candidates = append(candidates, candidate{index: i, anchor: anchor, term: term})
		claims[term]++
	})

	for _, c := range candidates {
		if claims[c.term] > 1 {
			plan.Unmatched = append(plan.Unmatched, Unmatched{Index: c.index, Anchor: c.anchor, Reason: ReasonAmbiguous})
			continue
		}
		plan.Matches = append(plan.Matches, Match{
			Index:  c.index,
			Anchor: c.anchor,
			Term:   c.term,
			Images: images[c.term],
		})
	}
	sort.Slice(plan.Unmatched, func(i, j int) bool { return plan.Unmatched[i].Index < plan.Unmatched[j].Index })

	return plan, nil
}

// Apply replaces every matched gallery with a freshly rendered one and
// returns the whole document. Unmatched galleries are kept as they are.
func (p *Patcher) Apply(plan *Plan) ([]byte, error) {
	if len(plan.Matches) == 0 {
		return nil, ErrNothingToPatch
	}

	doc, err := parse(plan.document)
	if err != nil {
		return nil, err
	}

	byIndex := make(map[int]Match, len(plan.Matches))
	for _, m := range plan.Matches {
		byIndex[m.Index] = m
	}

	galleries := doc.Find(GallerySelector)
	if galleries.Length() != plan.Galleries {
		return nil, fmt.Errorf("document changed since analysis: %d galleries, plan has %d",
			galleries.Length(), plan.Galleries)
	}
	galleries.Each(func(i int, s *goquery.Selection) {
		m, ok := byIndex[i]
		if !ok {
			return
		}
		fragment := strings.TrimLeft(gallery.Render(m.Term, m.Images, p.render), " ")
		s.ReplaceWithHtml(fragment)
	})

	var buf bytes.Buffer
	for _, n := range doc.Nodes {
		if err := html.Render(&buf, n); err != nil {
			return nil, fmt.Errorf("render document: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func parse(document []byte) (*goquery.Document, error) {
	root, err := html.Parse(bytes.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("parse html document: %w", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// findAnchor ties a gallery to the data-term or id that introduces it.
// A data-term on the gallery or an ancestor wins. Otherwise the nearest
// element before the gallery in document order carrying data-term or id is
// used: the gallery's earlier siblings (and their contents, last first), then
// its parent, the parent's earlier siblings, and so on up. Ids that lie
// before another gallery belong to that gallery; past one, only ancestors
// still count. isTerm reports that the value is a data-term.
func findAnchor(s *goquery.Selection, galleries map[*html.Node]bool) (value string, isTerm bool, ok bool) {
	start := s.Get(0)
	for n := start; n != nil; n = n.Parent {
		if v := attr(n, "data-term"); v != "" {
			return v, true, true
		}
	}

	blocked := false
	for n := start; n != nil; n = n.Parent {
		if value, isTerm, ok := ownAnchor(n); ok {
			return value, isTerm, true
		}
		for sib := n.PrevSibling; sib != nil && !blocked; sib = sib.PrevSibling {
			if sib.Type != html.ElementNode {
				continue
			}
			if containsGallery(sib, galleries) {
				blocked = true
				break
			}
			if value, isTerm, ok := lastAnchor(sib); ok {
				return value, isTerm, true
			}
		}
	}
	return "", false, false
}

// ownAnchor returns the data-term or id carried by n itself.
func ownAnchor(n *html.Node) (string, bool, bool) {
	if v := attr(n, "data-term"); v != "" {
		return v, true, true
	}
	if v := attr(n, "id"); v != "" {
		return v, false, true
	}
	return "", false, false
}

// lastAnchor returns the anchor in n's subtree that comes last in document
// order, n itself being the earliest.
func lastAnchor(n *html.Node) (string, bool, bool) {
	for c := n.LastChild; c != nil; c = c.PrevSibling {
		if value, isTerm, ok := lastAnchor(c); ok {
			return value, isTerm, true
		}
	}
	return ownAnchor(n)
}

func containsGallery(n *html.Node, galleries map[*html.Node]bool) bool {
	if galleries[n] {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if containsGallery(c, galleries) {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	if n.Type != html.ElementNode {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// index resolves anchor values to terms. Values shared by several terms are
// recorded as ambiguous.
type index struct {
	terms     map[string]bool
	byValue   map[string]string
	ambiguous map[string]bool
}

func (p *Patcher) buildIndex(images map[string]gallery.ImageSet) *index {
	terms := make([]string, 0, len(images))
	for term := range images {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	idx := &index{
		terms:     make(map[string]bool, len(terms)),
		byValue:   make(map[string]string, len(terms)*2),
		ambiguous: make(map[string]bool),
	}
	for _, term := range terms {
		idx.terms[term] = true
		values := []string{vocabulary.PrimaryForm(term), p.normalize(term)}
		if values[0] == values[1] {
			values = values[:1]
		}
		for _, v := range values {
			if other, exists := idx.byValue[v]; exists && other != term {
				idx.ambiguous[v] = true
				continue
			}
			idx.byValue[v] = term
		}
	}
	return idx
}

// resolve maps an anchor value to a term. A non-empty Reason means it could
// not be tied to exactly one term.
func (p *Patcher) resolve(idx *index, anchor string, isTerm bool) (string, Reason) {
	if isTerm && idx.terms[anchor] {
		return anchor, ""
	}

	values := []string{anchor}
	if !isTerm {
		m := p.idPattern.FindStringSubmatch(anchor)
		if m == nil {
			return "", ReasonUnknownID
		}
		value := m[0]
		if len(m) > 1 {
			value = m[1]
		}
		// The full id comes second so "X-ray" still resolves to "X-ray".
		values = []string{value, anchor}
	}

	for _, v := range candidates(values, p.normalize) {
		if idx.ambiguous[v] {
			return "", ReasonSharedID
		}
		if term, ok := idx.byValue[v]; ok {
			return term, ""
		}
	}
	return "", ReasonUnknownID
}

func candidates(values []string, normalize vocabulary.Normalizer) []string {
	out := make([]string, 0, len(values)*2)
	out = append(out, values...)
	for _, v := range values {
		out = append(out, normalize(v))
	}
	return out
}
