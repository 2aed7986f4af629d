package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and the working directory at fresh temp dirs.
func isolate(t *testing.T) (home, work string) {
	t.Helper()
	home = t.TempDir()
	work = t.TempDir()
	t.Setenv("HOME", home)
	chdir(t, work)
	return home, work
}

func writeYAML(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoader_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := NewLoader(nil).Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_LayeredPrecedence(t *testing.T) {
	home, work := isolate(t)

	writeYAML(t, filepath.Join(home, UserConfigDir, UserConfigFile), `
paths:
  images_dir: user-images
page:
  title: User Title
gallery:
  placeholder_text: User placeholder
`)
	writeYAML(t, filepath.Join(work, ProjectConfigFile), `
paths:
  images_dir: project-images
page:
  title: Project Title
`)
	explicit := filepath.Join(t.TempDir(), "explicit.yaml")
	writeYAML(t, explicit, `
page:
  title: Explicit Title
`)

	cfg, err := NewLoader(nil).Load(explicit)
	require.NoError(t, err)

	assert.Equal(t, "project-images", cfg.Paths.ImagesDir)
	assert.Equal(t, "Explicit Title", cfg.Page.Title)
	assert.Equal(t, "User placeholder", cfg.Gallery.PlaceholderText)
	assert.Equal(t, "final_entries.json", cfg.Paths.DataFile)
}

func TestLoader_ProjectConfigInParentDirectory(t *testing.T) {
	_, work := isolate(t)
	writeYAML(t, filepath.Join(work, ProjectConfigFile), "paths:\n  data_file: vocab.yaml\n")

	nested := filepath.Join(work, "site", "assets")
	require.NoError(t, os.MkdirAll(nested, 0755))
	chdir(t, nested)

	cfg, err := NewLoader(nil).Load("")
	require.NoError(t, err)
	assert.Equal(t, "vocab.yaml", cfg.Paths.DataFile)
}

func TestLoader_MissingExplicitConfig(t *testing.T) {
	isolate(t)

	_, err := NewLoader(nil).Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoader_InvalidResult(t *testing.T) {
	isolate(t)
	explicit := filepath.Join(t.TempDir(), "bad.yaml")
	writeYAML(t, explicit, "normalize:\n  mode: slug\n")

	_, err := NewLoader(nil).Load(explicit)
	assert.Error(t, err)
}

func TestLoader_WriteProjectConfig(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(nil)

	path, created, err := l.WriteProjectConfig(dir)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, filepath.Join(dir, ProjectConfigFile), path)

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), loaded)

	_, created, err = l.WriteProjectConfig(dir)
	require.NoError(t, err)
	assert.False(t, created)
}
