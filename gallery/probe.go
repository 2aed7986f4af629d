// Package gallery resolves the images of a vocabulary term on disk and
// renders the gallery fragment shown under each entry of the page.
package gallery

import (
	"os"
	"strconv"
	"strings"
)

// SlotCount is the number of images expected per term.
const SlotCount = 3

// Supported extensions, in probe order.
const (
	ExtJPEG = ".jpg"
	ExtWebP = ".webp"
)

// ImageSet holds the resolved path of each slot in order. An empty string
// marks an absent slot.
type ImageSet [SlotCount]string

// Found returns the number of present slots.
func (s ImageSet) Found() int {
	n := 0
	for _, p := range s {
		if p != "" {
			n++
		}
	}
	return n
}

// Missing returns the number of absent slots.
func (s ImageSet) Missing() int {
	return SlotCount - s.Found()
}

// MissingSlots returns the 1-based indices of absent slots.
func (s ImageSet) MissingSlots() []int {
	var slots []int
	for i, p := range s {
		if p == "" {
			slots = append(slots, i+1)
		}
	}
	return slots
}

// Complete reports whether every slot is present.
func (s ImageSet) Complete() bool {
	return s.Found() == SlotCount
}

// SlotFile returns the base filename of a slot for a normalized key,
// e.g. SlotFile("agora", 2, ".jpg") == "agora-2.jpg".
func SlotFile(key string, slot int, ext string) string {
	return key + "-" + strconv.Itoa(slot) + ext
}

// SlotPath joins dir and the slot filename with a forward slash, the form
// used in src attributes of the page.
func SlotPath(dir, key string, slot int, ext string) string {
	return dirPrefix(dir) + SlotFile(key, slot, ext)
}

// dirPrefix returns dir with exactly one trailing slash, "/" for the root
// directory and "" for the working directory.
func dirPrefix(dir string) string {
	if dir == "" {
		return ""
	}
	trimmed := strings.TrimRight(dir, "/")
	if trimmed == "" {
		return "/"
	}
	return trimmed + "/"
}

// Rebase returns the set with every path under dir moved under to, keeping
// the file names. Paths outside dir are kept as they are.
func (s ImageSet) Rebase(dir, to string) ImageSet {
	from, into := dirPrefix(dir), dirPrefix(to)
	for i, p := range s {
		if p != "" && strings.HasPrefix(p, from) {
			s[i] = into + strings.TrimPrefix(p, from)
		}
	}
	return s
}

// Prober checks an images directory for the slot files of a term.
type Prober struct {
	Dir string

	stat func(string) (os.FileInfo, error)
}

// NewProber creates a prober over dir.
func NewProber(dir string) *Prober {
	return &Prober{Dir: dir, stat: os.Stat}
}

// Probe resolves every slot of key. For each slot the .jpg file wins over
// the .webp one; a slot with neither is left empty.
func (p *Prober) Probe(key string) ImageSet {
	var set ImageSet
	for i := 1; i <= SlotCount; i++ {
		for _, ext := range []string{ExtJPEG, ExtWebP} {
			path := SlotPath(p.Dir, key, i, ext)
			if p.exists(path) {
				set[i-1] = path
				break
			}
		}
	}
	return set
}

func (p *Prober) exists(path string) bool {
	stat := p.stat
	if stat == nil {
		stat = os.Stat
	}
	info, err := stat(path)
	return err == nil && !info.IsDir()
}
