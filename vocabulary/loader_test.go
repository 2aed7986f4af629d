package vocabulary

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "final_entries.json", `{
		"beta": {"definition": "second letter", "category": "letters"},
		"alpha / a": {"definition": "first letter", "notes": "*archaic* form"},
		"gamma": "not an object",
		"delta": null
	}`)

	v, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, v.Source)
	assert.Equal(t, 4, v.Len())
	assert.Equal(t, []string{"alpha / a", "beta", "delta", "gamma"}, v.Terms())

	alpha, ok := v.Entry("alpha / a")
	require.True(t, ok)
	assert.Equal(t, "first letter", alpha.Definition)
	assert.Equal(t, "*archaic* form", alpha.Notes)

	beta, _ := v.Entry("beta")
	assert.Equal(t, "letters", beta.Category)

	gamma, ok := v.Entry("gamma")
	require.True(t, ok)
	assert.Equal(t, Entry{}, gamma)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "entries.yaml", `
agora:
  definition: market place
  translation: ἀγορά
stoa: plain value
`)

	v, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"agora", "stoa"}, v.Terms())
	agora, _ := v.Entry("agora")
	assert.Equal(t, "market place", agora.Definition)
	assert.Equal(t, "ἀγορά", agora.Translation)
	stoa, _ := v.Entry("stoa")
	assert.Equal(t, Entry{}, stoa)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		content   string
		malformed bool
	}{
		{name: "invalid json", file: "e.json", content: `{"alpha": `, malformed: true},
		{name: "json array", file: "e.json", content: `["alpha"]`, malformed: true},
		{name: "json null", file: "e.json", content: `null`, malformed: true},
		{name: "yaml list", file: "e.yml", content: "- alpha\n- beta\n", malformed: true},
		{name: "empty yaml", file: "e.yaml", content: "", malformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Equal(t, tt.malformed, errors.Is(err, ErrMalformed))
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNew_EmptyTerms(t *testing.T) {
	v := New(nil)
	assert.Equal(t, 0, v.Len())
	assert.Empty(t, v.Terms())
}
