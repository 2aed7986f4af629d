// Package config provides configuration loading and management for vocabsync.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete vocabsync configuration
type Config struct {
	Paths     PathsConfig     `yaml:"paths"`
	Gallery   GalleryConfig   `yaml:"gallery"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Patch     PatchConfig     `yaml:"patch"`
	Page      PageConfig      `yaml:"page"`
	Watch     WatchConfig     `yaml:"watch"`
	Preview   PreviewConfig   `yaml:"preview"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// PathsConfig locates the files the tool works on, relative to the working directory
type PathsConfig struct {
	// DataFile is the vocabulary data file (JSON or YAML)
	DataFile string `yaml:"data_file"`
	// ImagesDir holds the term images, named {key}-{slot}.jpg or .webp
	ImagesDir string `yaml:"images_dir"`
	// HTMLFile is the generated vocabulary page
	HTMLFile string `yaml:"html_file"`
}

// GalleryConfig configures the gallery markup
type GalleryConfig struct {
	// PlaceholderText replaces missing images
	PlaceholderText string `yaml:"placeholder_text"`
	Width           int    `yaml:"width"`
	Height          int    `yaml:"height"`
}

// NormalizeConfig configures how terms become file names
type NormalizeConfig struct {
	// Mode is "plain" (lowercase, spaces to hyphens) or "ascii" (plain, accents stripped)
	Mode string `yaml:"mode"`
}

// PatchConfig configures gallery correlation in an existing page
type PatchConfig struct {
	// IDPattern extracts the term from an entry id; first capture group wins
	IDPattern string `yaml:"id_pattern"`
}

// PageConfig configures page regeneration
type PageConfig struct {
	Title string `yaml:"title"`
	Lang  string `yaml:"lang"`
	// ServiceWorker is registered by the page when set
	ServiceWorker string `yaml:"service_worker"`
}

// WatchConfig configures the watch command
type WatchConfig struct {
	// DebounceDelay is how long to wait for more changes before re-scanning
	DebounceDelay time.Duration `yaml:"debounce_delay"`
}

// PreviewConfig configures the preview server
type PreviewConfig struct {
	Addr     string `yaml:"addr"`
	BasePath string `yaml:"base_path"`
}

// MetricsConfig configures the metrics textfile
type MetricsConfig struct {
	// Textfile is written after every scan when set (node exporter textfile collector)
	Textfile string `yaml:"textfile"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			DataFile:  "final_entries.json",
			ImagesDir: "images",
			HTMLFile:  "greek_vocabulary.html",
		},
		Gallery: GalleryConfig{
			PlaceholderText: "Image à venir",
			Width:           150,
			Height:          150,
		},
		Normalize: NormalizeConfig{
			Mode: "plain",
		},
		Patch: PatchConfig{
			IDPattern: `^(?:[\p{Lu}0]-)?(.+)$`,
		},
		Page: PageConfig{
			Title: "Ancient Vocabulary",
			Lang:  "fr",
		},
		Watch: WatchConfig{
			DebounceDelay: 500 * time.Millisecond,
		},
		Preview: PreviewConfig{
			Addr:     "127.0.0.1:8000",
			BasePath: "/letzvisit/",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Paths.DataFile == "" {
		return fmt.Errorf("paths.data_file is required")
	}
	if c.Paths.ImagesDir == "" {
		return fmt.Errorf("paths.images_dir is required")
	}
	if c.Paths.HTMLFile == "" {
		return fmt.Errorf("paths.html_file is required")
	}
	if c.Gallery.Width <= 0 || c.Gallery.Height <= 0 {
		return fmt.Errorf("gallery.width and gallery.height must be positive")
	}
	switch strings.ToLower(c.Normalize.Mode) {
	case "", "plain", "ascii":
	default:
		return fmt.Errorf("normalize.mode must be plain or ascii, got %q", c.Normalize.Mode)
	}
	if _, err := regexp.Compile(c.Patch.IDPattern); err != nil {
		return fmt.Errorf("patch.id_pattern: %w", err)
	}
	if c.Watch.DebounceDelay <= 0 {
		return fmt.Errorf("watch.debounce_delay must be positive")
	}
	if !strings.HasPrefix(c.Preview.BasePath, "/") || !strings.HasSuffix(c.Preview.BasePath, "/") {
		return fmt.Errorf("preview.base_path must start and end with /")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Paths
	if other.Paths.DataFile != "" {
		c.Paths.DataFile = other.Paths.DataFile
	}
	if other.Paths.ImagesDir != "" {
		c.Paths.ImagesDir = other.Paths.ImagesDir
	}
	if other.Paths.HTMLFile != "" {
		c.Paths.HTMLFile = other.Paths.HTMLFile
	}

	// Gallery
	if other.Gallery.PlaceholderText != "" {
		c.Gallery.PlaceholderText = other.Gallery.PlaceholderText
	}
	if other.Gallery.Width != 0 {
		c.Gallery.Width = other.Gallery.Width
	}
	if other.Gallery.Height != 0 {
		c.Gallery.Height = other.Gallery.Height
	}

	// Normalize
	if other.Normalize.Mode != "" {
		c.Normalize.Mode = other.Normalize.Mode
	}

	// Patch
	if other.Patch.IDPattern != "" {
		c.Patch.IDPattern = other.Patch.IDPattern
	}

	// Page
	if other.Page.Title != "" {
		c.Page.Title = other.Page.Title
	}
	if other.Page.Lang != "" {
		c.Page.Lang = other.Page.Lang
	}
	if other.Page.ServiceWorker != "" {
		c.Page.ServiceWorker = other.Page.ServiceWorker
	}

	// Watch
	if other.Watch.DebounceDelay != 0 {
		c.Watch.DebounceDelay = other.Watch.DebounceDelay
	}

	// Preview
	if other.Preview.Addr != "" {
		c.Preview.Addr = other.Preview.Addr
	}
	if other.Preview.BasePath != "" {
		c.Preview.BasePath = other.Preview.BasePath
	}

	// Metrics
	if other.Metrics.Textfile != "" {
		c.Metrics.Textfile = other.Metrics.Textfile
	}
}
