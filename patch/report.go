package patch

import (
	"fmt"
	"io"
)

// Summary prints how many galleries the plan ties to a term and why the
// others are skipped.
func (p *Plan) Summary(w io.Writer) {
	fmt.Fprintf(w, "  Galleries in document: %d\n", p.Galleries)
	fmt.Fprintf(w, "  Matched to a term: %d\n", len(p.Matches))
	if len(p.Unmatched) == 0 {
		return
	}
	fmt.Fprintf(w, "  Skipped: %d\n", len(p.Unmatched))
	for _, u := range p.Unmatched {
		anchor := u.Anchor
		if anchor == "" {
			anchor = "-"
		}
		fmt.Fprintf(w, "    #%d (%s): %s\n", u.Index+1, anchor, u.Reason)
	}
}
