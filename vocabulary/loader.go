package vocabulary

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMalformed is returned when the data file cannot be decoded as a mapping.
var ErrMalformed = errors.New("malformed vocabulary data")

// Entry holds the metadata fields the page generator understands.
type Entry struct {
	Definition  string `json:"definition,omitempty" yaml:"definition,omitempty"`
	Translation string `json:"translation,omitempty" yaml:"translation,omitempty"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	Notes       string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Vocabulary is the term to metadata mapping read from the data file.
type Vocabulary struct {
	// Source is the path the vocabulary was loaded from.
	Source  string
	Entries map[string]Entry
}

// New builds a Vocabulary from an in-memory mapping.
func New(entries map[string]Entry) *Vocabulary {
	if entries == nil {
		entries = make(map[string]Entry)
	}
	return &Vocabulary{Entries: entries}
}

// Load reads the data file at path. The format is chosen by extension:
// .yaml and .yml are YAML, anything else is JSON.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary file: %w", err)
	}

	var entries map[string]Entry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		entries, err = decodeYAML(data)
	default:
		entries, err = decodeJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	v := New(entries)
	v.Source = path
	return v, nil
}

// Len returns the number of terms.
func (v *Vocabulary) Len() int {
	return len(v.Entries)
}

// Terms returns every term in lexicographic order.
func (v *Vocabulary) Terms() []string {
	terms := make([]string, 0, len(v.Entries))
	for term := range v.Entries {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// Entry returns the metadata recorded for term.
func (v *Vocabulary) Entry(term string) (Entry, bool) {
	e, ok := v.Entries[term]
	return e, ok
}

func decodeJSON(data []byte) (map[string]Entry, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: top level must be an object", ErrMalformed)
	}

	entries := make(map[string]Entry, len(raw))
	for term, msg := range raw {
		var e Entry
		// Metadata that is not an object carries nothing we read.
		_ = json.Unmarshal(msg, &e)
		entries[term] = e
	}
	return entries, nil
}

func decodeYAML(data []byte) (map[string]Entry, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: top level must be a mapping", ErrMalformed)
	}

	entries := make(map[string]Entry, len(raw))
	for term, node := range raw {
		var e Entry
		if node.Kind == yaml.MappingNode {
			_ = node.Decode(&e)
		}
		entries[term] = e
	}
	return entries, nil
}
