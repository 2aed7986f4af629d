// Package scan runs the image scan over a vocabulary: it loads the data file,
// probes every term's images, prints the progress summary and reads the page
// that the galleries belong to.
package scan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/c360studio/vocabsync/gallery"
	"github.com/c360studio/vocabsync/vocabulary"
	"github.com/google/uuid"
)

// Options configures a Scanner.
type Options struct {
	DataFile  string
	ImagesDir string
	// HTMLFile is read after the scan. Empty skips the read.
	HTMLFile string

	// Normalizer derives file keys from terms. Nil means vocabulary.NormalizeTerm.
	Normalizer vocabulary.Normalizer

	// Out receives the human-readable progress. Nil discards it.
	Out    io.Writer
	Logger *slog.Logger
}

// Report is the outcome of one scan. Nothing in it outlives the process.
type Report struct {
	RunID     string
	StartedAt time.Time

	Vocabulary *vocabulary.Vocabulary
	// Terms lists every term in lexicographic order.
	Terms []string
	// Keys maps each term to its normalized key.
	Keys map[string]string
	// Images is the image map: term to resolved slots.
	Images map[string]gallery.ImageSet

	Found   int
	Missing int

	// Document is the full text of the HTML page, when one was read.
	Document []byte
}

// Total returns the number of expected images, found plus missing.
func (r *Report) Total() int {
	return r.Found + r.Missing
}

// Scanner probes the images of every term of a vocabulary.
type Scanner struct {
	opts   Options
	prober *gallery.Prober
	out    io.Writer
	logger *slog.Logger
}

// NewScanner creates a scanner.
func NewScanner(opts Options) *Scanner {
	if opts.Normalizer == nil {
		opts.Normalizer = vocabulary.NormalizeTerm
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		opts:   opts,
		prober: gallery.NewProber(opts.ImagesDir),
		out:    out,
		logger: logger,
	}
}

// Run loads the vocabulary, probes every term in sorted order, prints the
// summary and finally reads the HTML document. A missing or malformed data
// file, or a missing document, aborts the run.
func (s *Scanner) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Keys:      make(map[string]string),
		Images:    make(map[string]gallery.ImageSet),
	}
	logger := s.logger.With("run_id", report.RunID)

	fmt.Fprintln(s.out, "🔍 Reading vocabulary data...")
	vocab, err := vocabulary.Load(s.opts.DataFile)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	report.Vocabulary = vocab
	report.Terms = vocab.Terms()
	fmt.Fprintf(s.out, "✓ %d terms loaded\n", vocab.Len())
	logger.Debug("Vocabulary loaded", "path", s.opts.DataFile, "terms", vocab.Len())

	fmt.Fprintf(s.out, "\n📸 Scanning %s/...\n", s.opts.ImagesDir)
	for _, term := range report.Terms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		key := s.opts.Normalizer(term)
		images := s.prober.Probe(key)
		report.Keys[term] = key
		report.Images[term] = images

		found := images.Found()
		report.Found += found
		report.Missing += images.Missing()

		if found > 0 {
			fmt.Fprintf(s.out, "  ✓ %s: %d/%d images found\n", term, found, gallery.SlotCount)
		}
		logger.Debug("Probed term", "term", term, "key", key, "found", found)
	}

	fmt.Fprintln(s.out, "\n📊 Summary:")
	fmt.Fprintf(s.out, "  Images found: %d\n", report.Found)
	fmt.Fprintf(s.out, "  Images missing: %d\n", report.Missing)
	fmt.Fprintf(s.out, "  Total: %d\n", report.Total())

	if s.opts.HTMLFile != "" {
		fmt.Fprintf(s.out, "\n🔄 Reading %s...\n", s.opts.HTMLFile)
		doc, err := os.ReadFile(s.opts.HTMLFile)
		if err != nil {
			return nil, fmt.Errorf("read html document: %w", err)
		}
		report.Document = doc
	}

	logger.Info("Scan finished",
		"terms", len(report.Terms),
		"found", report.Found,
		"missing", report.Missing)

	return report, nil
}
