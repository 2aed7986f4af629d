// Package main provides the vocabsync binary entry point.
// Vocabsync checks the images of a vocabulary page against the terms of its
// data file and keeps the page galleries in sync with what is on disk.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/vocabsync/config"
	"github.com/c360studio/vocabsync/export"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "vocabsync"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err, os.Stderr))
}

// exitCode prints err and maps it to the process exit status.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

// cli carries the global flags and the app built from them.
type cli struct {
	configPath string
	logLevel   string
	dataFile   string
	imagesDir  string
	htmlFile   string

	stdout io.Writer
	stderr io.Writer
	app    *App
}

func rootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}
	var format string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Keep vocabulary page images in sync",
		Long: `Vocabsync scans an images directory for the three pictures expected
for every term of a vocabulary data file and reports what is there.

Images are named after the term: lowercase primary form, spaces as hyphens,
then -1, -2 or -3 and .jpg or .webp (e.g. "Agora / Place" -> agora-1.jpg).

Without a subcommand it scans, reports how the galleries of the page
match the terms and lists the missing files. Nothing is written.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Scan(cmd.Context(), format)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "Config file path (YAML)")
	flags.StringVar(&c.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flags.StringVar(&c.dataFile, "data", "", "Vocabulary data file (JSON or YAML)")
	flags.StringVar(&c.imagesDir, "images", "", "Images directory")
	flags.StringVar(&c.htmlFile, "html", "", "Vocabulary HTML page")
	cmd.Flags().StringVar(&format, "format", "text", "Report format (text, json)")

	cmd.AddCommand(
		c.scanCmd(),
		c.missingCmd(),
		c.orphansCmd(),
		c.patchCmd(),
		c.regenerateCmd(),
		c.watchCmd(),
		c.serveCmd(),
		c.initCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(c.stdout, "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}

// setup configures logging, loads the layered config and applies flag overrides.
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	logger := newLogger(c.logLevel, c.stderr)
	slog.SetDefault(logger)

	switch cmd.Name() {
	case "version", "init", "help", "completion":
		return nil
	}

	cfg, err := config.NewLoader(logger).Load(c.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.dataFile != "" {
		cfg.Paths.DataFile = c.dataFile
	}
	if c.imagesDir != "" {
		cfg.Paths.ImagesDir = c.imagesDir
	}
	if c.htmlFile != "" {
		cfg.Paths.HTMLFile = c.htmlFile
	}

	c.app, err = NewApp(cfg, c.stdout, c.stderr, logger)
	return err
}

func newLogger(logLevel string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (c *cli) scanCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan images, report gallery matches and missing files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Scan(cmd.Context(), format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Report format (text, json)")
	return cmd
}

func (c *cli) missingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "missing",
		Short: "List the expected image files that are not on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Missing(cmd.Context())
		},
	}
}

func (c *cli) orphansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orphans",
		Short: "List images that belong to no term",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Orphans(cmd.Context())
		},
	}
}

func (c *cli) patchCmd() *cobra.Command {
	var (
		write bool
		out   string
	)
	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Rewrite the galleries of the HTML page from the images on disk",
		Long: `Patch finds every image gallery of the HTML page, ties it to a term
through the id (or data-term) of its entry, or of the heading just before
it, and renders it again.

Galleries whose term cannot be told apart are left untouched. Without
--write only the analysis is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Patch(cmd.Context(), write, out)
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "Write the patched page")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path (default: the HTML page itself)")
	return cmd
}

func (c *cli) regenerateCmd() *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Render the whole vocabulary page again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			return c.app.Regenerate(cmd.Context(), f, out)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatHTML),
		"Output format ("+strings.Join(export.SupportedFormats(), ", ")+")")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path, - for stdout (default: the HTML page, with the format's extension)")
	return cmd
}

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Scan again whenever images or the data file change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Watch(cmd.Context())
		},
	}
}

func (c *cli) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a regenerated page and the images locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

func (c *cli) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a " + config.ProjectConfigFile + " with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, created, err := config.NewLoader(slog.Default()).WriteProjectConfig(".")
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(c.stdout, "✓ Created %s\n", path)
			} else {
				fmt.Fprintf(c.stdout, "%s already exists, left untouched\n", path)
			}
			return nil
		},
	}
}
