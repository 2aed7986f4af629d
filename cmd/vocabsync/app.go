package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/c360studio/vocabsync/config"
	"github.com/c360studio/vocabsync/export"
	"github.com/c360studio/vocabsync/gallery"
	"github.com/c360studio/vocabsync/patch"
	"github.com/c360studio/vocabsync/preview"
	"github.com/c360studio/vocabsync/scan"
	"github.com/c360studio/vocabsync/vocabulary"
	"github.com/c360studio/vocabsync/watch"
)

// exitImagesMissing is the exit status when the images directory is absent.
const exitImagesMissing = 3

// exitError carries a specific exit status. A nil err means the message was
// already printed.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit status %d", e.code)
}

func (e *exitError) Unwrap() error {
	return e.err
}

// App wires the configured scanner, patcher and exporter to the commands.
type App struct {
	cfg    *config.Config
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger

	normalize vocabulary.Normalizer
	render    gallery.RenderOptions
	patcher   *patch.Patcher
	exporter  *export.Exporter
}

// NewApp creates an application for cfg. Reports go to out, user-facing
// errors to errOut.
func NewApp(cfg *config.Config, out, errOut io.Writer, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	normalize := vocabulary.NewNormalizer(cfg.Normalize.Mode)
	render := gallery.RenderOptions{
		Placeholder: cfg.Gallery.PlaceholderText,
		Width:       cfg.Gallery.Width,
		Height:      cfg.Gallery.Height,
	}

	patcher, err := patch.NewPatcher(patch.Options{
		IDPattern:  cfg.Patch.IDPattern,
		Render:     render,
		Normalizer: normalize,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:       cfg,
		out:       out,
		errOut:    errOut,
		logger:    logger,
		normalize: normalize,
		render:    render,
		patcher:   patcher,
		exporter: export.NewExporter(export.PageOptions{
			Title:         cfg.Page.Title,
			Lang:          cfg.Page.Lang,
			ServiceWorker: cfg.Page.ServiceWorker,
			Render:        render,
		}),
	}, nil
}

// checkImagesDir fails with exit status 3 when the images directory is absent.
func (a *App) checkImagesDir() error {
	info, err := os.Stat(a.cfg.Paths.ImagesDir)
	if err == nil && info.IsDir() {
		return nil
	}
	fmt.Fprintf(a.errOut, "❌ The '%s/' directory does not exist!\n", strings.TrimSuffix(a.cfg.Paths.ImagesDir, "/"))
	fmt.Fprintln(a.errOut, "   Create it, add your images, then run this command again.")
	return &exitError{code: exitImagesMissing}
}

// scan runs a scanner printing to out. The HTML page is read when withHTML is set.
func (a *App) scan(ctx context.Context, out io.Writer, withHTML bool) (*scan.Report, error) {
	opts := scan.Options{
		DataFile:   a.cfg.Paths.DataFile,
		ImagesDir:  a.cfg.Paths.ImagesDir,
		Normalizer: a.normalize,
		Out:        out,
		Logger:     a.logger,
	}
	if withHTML {
		opts.HTMLFile = a.cfg.Paths.HTMLFile
	}
	report, err := scan.NewScanner(opts).Run(ctx)
	if err != nil {
		return nil, err
	}
	if a.cfg.Metrics.Textfile != "" {
		if err := scan.WriteMetrics(a.cfg.Metrics.Textfile, report); err != nil {
			return nil, err
		}
		a.logger.Debug("Wrote metrics", "path", a.cfg.Metrics.Textfile)
	}
	return report, nil
}

// Scan is the default command: scan, analyze the page galleries without
// touching the page, then list what is missing.
func (a *App) Scan(ctx context.Context, format string) error {
	if err := a.checkImagesDir(); err != nil {
		return err
	}

	switch strings.ToLower(format) {
	case "", "text":
	case "json":
		report, err := a.scan(ctx, io.Discard, false)
		if err != nil {
			return err
		}
		return report.WriteJSON(a.out)
	default:
		return fmt.Errorf("unsupported report format %q (supported: text, json)", format)
	}

	report, err := a.scan(ctx, a.out, true)
	if err != nil {
		return err
	}

	plan, err := a.patcher.Analyze(report.Document, report.Images)
	if err != nil {
		a.logger.Warn("Gallery analysis failed", "error", err)
	} else {
		plan.Summary(a.out)
	}
	fmt.Fprintln(a.out, "⚠️  The page was not modified.")
	fmt.Fprintln(a.out, "    Use 'vocabsync patch --write' to update the matched galleries")
	fmt.Fprintln(a.out, "    or 'vocabsync regenerate' to rebuild the whole page.")

	scan.PrintMissing(a.out, report)

	fmt.Fprintln(a.out, "\n✅ Scan complete!")
	fmt.Fprintln(a.out, "\n💡 To put these images into the page:")
	fmt.Fprintln(a.out, "   1. Make sure every image is named correctly")
	fmt.Fprintln(a.out, "   2. Run 'vocabsync regenerate' or 'vocabsync patch --write'")
	return nil
}

// Missing prints only the missing-images report.
func (a *App) Missing(ctx context.Context) error {
	if err := a.checkImagesDir(); err != nil {
		return err
	}
	report, err := a.scan(ctx, io.Discard, false)
	if err != nil {
		return err
	}
	scan.PrintMissing(a.out, report)
	return nil
}

// Orphans prints the images no term claims.
func (a *App) Orphans(ctx context.Context) error {
	if err := a.checkImagesDir(); err != nil {
		return err
	}
	report, err := a.scan(ctx, io.Discard, false)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(report.Keys))
	for _, key := range report.Keys {
		keys = append(keys, key)
	}
	orphans, err := gallery.FindOrphans(a.cfg.Paths.ImagesDir, keys)
	if err != nil {
		return err
	}
	scan.PrintOrphans(a.out, orphans)
	return nil
}

// Patch analyzes the page and, with write set, rewrites the matched galleries.
func (a *App) Patch(ctx context.Context, write bool, out string) error {
	if err := a.checkImagesDir(); err != nil {
		return err
	}
	report, err := a.scan(ctx, io.Discard, true)
	if err != nil {
		return err
	}
	plan, err := a.patcher.Analyze(report.Document, report.Images)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "🔄 Galleries of %s:\n", a.cfg.Paths.HTMLFile)
	plan.Summary(a.out)

	if !write {
		fmt.Fprintln(a.out, "\nDry run, nothing written. Re-run with --write to apply.")
		return nil
	}

	patched, err := a.patcher.Apply(plan)
	if errors.Is(err, patch.ErrNothingToPatch) {
		fmt.Fprintln(a.out, "\nNo gallery matched a term, nothing written.")
		return nil
	}
	if err != nil {
		return err
	}

	if out == "" {
		out = a.cfg.Paths.HTMLFile
	}
	if err := os.WriteFile(out, patched, 0644); err != nil {
		return fmt.Errorf("write patched page: %w", err)
	}
	fmt.Fprintf(a.out, "\n✓ %d galleries written to %s\n", len(plan.Matches), out)
	return nil
}

// RenderPage scans and renders the whole page in format.
func (a *App) RenderPage(ctx context.Context, format export.Format) ([]byte, error) {
	report, err := a.scan(ctx, io.Discard, false)
	if err != nil {
		return nil, err
	}
	return a.exporter.Export(export.Page{Vocabulary: report.Vocabulary, Images: report.Images}, format)
}

// Regenerate renders the page and writes it to out. An empty out derives the
// path from the HTML page and the format extension; "-" means stdout.
func (a *App) Regenerate(ctx context.Context, format export.Format, out string) error {
	if err := a.checkImagesDir(); err != nil {
		return err
	}
	page, err := a.RenderPage(ctx, format)
	if err != nil {
		return err
	}

	if out == "-" {
		_, err := a.out.Write(page)
		return err
	}
	if out == "" {
		out = a.defaultOutput(format)
	}
	if err := os.WriteFile(out, page, 0644); err != nil {
		return fmt.Errorf("write %s page: %w", format, err)
	}
	fmt.Fprintf(a.out, "✓ Wrote %s\n", out)
	return nil
}

func (a *App) defaultOutput(format export.Format) string {
	info, ok := export.GetFormatInfo(format)
	if !ok || format == export.FormatHTML {
		return a.cfg.Paths.HTMLFile
	}
	html := a.cfg.Paths.HTMLFile
	return strings.TrimSuffix(html, filepath.Ext(html)) + info.Extension
}

// Watch prints a scan summary now and again after every change.
func (a *App) Watch(ctx context.Context) error {
	if err := a.checkImagesDir(); err != nil {
		return err
	}
	if _, err := a.scan(ctx, a.out, false); err != nil {
		return err
	}

	w, err := watch.New(watch.Config{
		ImagesDir:     a.cfg.Paths.ImagesDir,
		DataFile:      a.cfg.Paths.DataFile,
		DebounceDelay: a.cfg.Watch.DebounceDelay,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	fmt.Fprintf(a.out, "\n👀 Watching %s/ and %s (Ctrl+C to stop)\n", a.cfg.Paths.ImagesDir, a.cfg.Paths.DataFile)
	return w.Run(ctx, func(ctx context.Context, change watch.Change) error {
		fmt.Fprintf(a.out, "\n🔁 %d file(s) changed\n", len(change.Paths))
		_, err := a.scan(ctx, a.out, false)
		return err
	})
}

// Serve runs the preview server until ctx is cancelled.
func (a *App) Serve(ctx context.Context, addr string) error {
	if err := a.checkImagesDir(); err != nil {
		return err
	}
	if addr == "" {
		addr = a.cfg.Preview.Addr
	}

	srv := preview.New(a.previewConfig(addr))

	fmt.Fprintf(a.out, "🌐 Preview at http://%s%s\n", addr, a.cfg.Preview.BasePath)
	return srv.ListenAndServe(ctx)
}

func (a *App) previewConfig(addr string) preview.Config {
	return preview.Config{
		Address:   addr,
		BasePath:  a.cfg.Preview.BasePath,
		ImagesDir: a.cfg.Paths.ImagesDir,
		Page:      a.previewPage,
		Logger:    a.logger,
	}
}

// previewPage renders the HTML page with image paths pointing at the server's
// images mount, wherever the images directory lives on disk.
func (a *App) previewPage(ctx context.Context) ([]byte, error) {
	report, err := a.scan(ctx, io.Discard, false)
	if err != nil {
		return nil, err
	}
	images := make(map[string]gallery.ImageSet, len(report.Images))
	for term, set := range report.Images {
		images[term] = set.Rebase(a.cfg.Paths.ImagesDir, preview.ImagesPath)
	}
	return a.exporter.Export(export.Page{Vocabulary: report.Vocabulary, Images: images}, export.FormatHTML)
}
