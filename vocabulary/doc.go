// Package vocabulary loads the vocabulary data file and derives file-safe keys
// from vocabulary terms.
//
// # Terms
//
// A term is the display label of a vocabulary entry. It may carry an
// alternate form after a " / " separator ("alpha / a"). Only the primary
// form participates in file naming:
//
//	NormalizeTerm("Agora / Ἀγορά") == "agora"
//	NormalizeTerm("Stoa Poikile")  == "stoa-poikile"
//
// # Data File
//
// The data file is a mapping of term to metadata, encoded as JSON or YAML
// depending on the file extension. Metadata is opaque to the scan; the page
// generator reads a handful of optional fields:
//
//   - definition: short plain-text definition
//   - translation: translation or transliteration shown under the heading
//   - category: free-form grouping label
//   - notes: Markdown notes rendered into the page
//
// Values that are not objects are accepted and treated as empty metadata.
package vocabulary
