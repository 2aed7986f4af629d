package scan

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/c360studio/vocabsync/gallery"
)

// PrintMissing lists, per term, the expected file name of every absent slot.
// Names always use the .jpg convention.
func PrintMissing(w io.Writer, r *Report) {
	fmt.Fprint(w, "\n📋 MISSING IMAGES:\n\n")

	for _, term := range r.Terms {
		missing := r.Images[term].MissingSlots()
		if len(missing) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s:\n", term)
		for _, slot := range missing {
			fmt.Fprintf(w, "  - %s\n", gallery.SlotFile(r.Keys[term], slot, gallery.ExtJPEG))
		}
	}
}

// PrintOrphans lists images that belong to no term.
func PrintOrphans(w io.Writer, orphans []string) {
	if len(orphans) == 0 {
		fmt.Fprintln(w, "\n✓ No unmatched images")
		return
	}
	fmt.Fprintf(w, "\n🗂  %d images match no term:\n", len(orphans))
	for _, name := range orphans {
		fmt.Fprintf(w, "  - %s\n", name)
	}
}

type termJSON struct {
	Term    string   `json:"term"`
	Key     string   `json:"key"`
	Images  []string `json:"images"`
	Missing []string `json:"missing,omitempty"`
}

type reportJSON struct {
	RunID     string     `json:"run_id"`
	StartedAt time.Time  `json:"started_at"`
	Found     int        `json:"found"`
	Missing   int        `json:"missing"`
	Total     int        `json:"total"`
	Terms     []termJSON `json:"terms"`
}

// WriteJSON writes a machine-readable version of the report. Absent slots are
// encoded as empty strings so every images array has one entry per slot.
func (r *Report) WriteJSON(w io.Writer) error {
	out := reportJSON{
		RunID:     r.RunID,
		StartedAt: r.StartedAt.UTC(),
		Found:     r.Found,
		Missing:   r.Missing,
		Total:     r.Total(),
		Terms:     make([]termJSON, 0, len(r.Terms)),
	}
	for _, term := range r.Terms {
		set := r.Images[term]
		t := termJSON{Term: term, Key: r.Keys[term], Images: set[:]}
		for _, slot := range set.MissingSlots() {
			t.Missing = append(t.Missing, gallery.SlotFile(r.Keys[term], slot, gallery.ExtJPEG))
		}
		out.Terms = append(out.Terms, t)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
