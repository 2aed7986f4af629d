package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/vocabsync/config"
	"github.com/c360studio/vocabsync/preview"
)

const testPage = `<!DOCTYPE html>
<html><body>
            <div class="entry" id="A-alpha">
                <h3>alpha</h3>
                <div class="image-gallery">
                    <div class="image-placeholder">Image à venir</div>
                    <div class="image-placeholder">Image à venir</div>
                    <div class="image-placeholder">Image à venir</div>
                </div>
            </div>
            <div class="entry" id="B-beta">
                <h3>beta</h3>
                <div class="image-gallery">
                    <div class="image-placeholder">Image à venir</div>
                    <div class="image-placeholder">Image à venir</div>
                    <div class="image-placeholder">Image à venir</div>
                </div>
            </div>
</body></html>
`

// workspace lays out a project in a fresh working directory with an empty
// HOME so no user config leaks in.
func workspace(t *testing.T, images ...string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	chdir(t, dir)

	require.NoError(t, os.WriteFile("final_entries.json", []byte(`{"alpha / a": {"translation": "first"}, "beta": {}}`), 0644))
	require.NoError(t, os.WriteFile("greek_vocabulary.html", []byte(testPage), 0644))
	require.NoError(t, os.Mkdir("images", 0755))
	for _, name := range images {
		require.NoError(t, os.WriteFile(filepath.Join("images", name), []byte("img"), 0644))
	}
	return dir
}

// execute runs the CLI with args and returns stdout, stderr and the exit status.
func execute(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := rootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	code := exitCode(err, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestDefaultCommand(t *testing.T) {
	workspace(t, "alpha-1.jpg", "beta-2.webp")

	stdout, _, code := execute(t)
	require.Equal(t, 0, code)

	assert.Contains(t, stdout, "🔍 Reading vocabulary data...\n✓ 2 terms loaded\n")
	assert.Contains(t, stdout, "\n📸 Scanning images/...\n")
	assert.Contains(t, stdout, "  ✓ alpha / a: 1/3 images found\n")
	assert.Contains(t, stdout, "  Images found: 2\n  Images missing: 4\n  Total: 6\n")
	assert.Contains(t, stdout, "\n🔄 Reading greek_vocabulary.html...\n")
	assert.Contains(t, stdout, "  Galleries in document: 2\n  Matched to a term: 2\n")
	assert.Contains(t, stdout, "⚠️  The page was not modified.")
	assert.Contains(t, stdout, "alpha / a:\n  - alpha-2.jpg\n  - alpha-3.jpg\n")
	assert.Contains(t, stdout, "beta:\n  - beta-1.jpg\n  - beta-3.jpg\n")
	assert.Contains(t, stdout, "\n✅ Scan complete!\n")

	page, err := os.ReadFile("greek_vocabulary.html")
	require.NoError(t, err)
	assert.Equal(t, testPage, string(page), "default command must not modify the page")
}

func TestImagesDirectoryMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())

	// No data file either: the images check comes first.
	stdout, stderr, code := execute(t)
	assert.Equal(t, exitImagesMissing, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "❌ The 'images/' directory does not exist!")
	assert.NotContains(t, stderr, "Error:")
}

func TestMissingDataFile(t *testing.T) {
	workspace(t)
	require.NoError(t, os.Remove("final_entries.json"))

	_, stderr, code := execute(t, "missing")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Error: load vocabulary")
}

func TestFlagOverrides(t *testing.T) {
	workspace(t)
	require.NoError(t, os.Mkdir("photos", 0755))
	require.NoError(t, os.WriteFile(filepath.Join("photos", "beta-1.jpg"), nil, 0644))

	stdout, _, code := execute(t, "missing", "--images", "photos")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "beta:\n  - beta-2.jpg\n  - beta-3.jpg\n")
}

func TestScanJSON(t *testing.T) {
	workspace(t, "alpha-1.jpg")

	stdout, _, code := execute(t, "scan", "--format", "json")
	require.Equal(t, 0, code)

	var report struct {
		Found   int `json:"found"`
		Missing int `json:"missing"`
		Total   int `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, 1, report.Found)
	assert.Equal(t, 5, report.Missing)
	assert.Equal(t, 6, report.Total)
}

func TestScanUnknownFormat(t *testing.T) {
	workspace(t)

	_, stderr, code := execute(t, "scan", "--format", "xml")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unsupported report format")
}

func TestOrphans(t *testing.T) {
	workspace(t, "alpha-1.jpg", "alfa-1.jpg")

	stdout, _, code := execute(t, "orphans")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "alfa-1.jpg")
	assert.NotContains(t, stdout, "alpha-1.jpg")
}

func TestPatch_DryRun(t *testing.T) {
	workspace(t, "alpha-1.jpg")

	stdout, _, code := execute(t, "patch")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Matched to a term: 2")
	assert.Contains(t, stdout, "Dry run")

	page, err := os.ReadFile("greek_vocabulary.html")
	require.NoError(t, err)
	assert.Equal(t, testPage, string(page))
}

func TestPatch_Write(t *testing.T) {
	workspace(t, "alpha-1.jpg", "beta-2.webp")

	stdout, _, code := execute(t, "patch", "--write", "--out", "patched.html")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "2 galleries written to patched.html")

	f, err := os.Open("patched.html")
	require.NoError(t, err)
	defer f.Close()
	doc, err := goquery.NewDocumentFromReader(f)
	require.NoError(t, err)

	src, _ := doc.Find("#A-alpha div.image-gallery img").First().Attr("src")
	assert.Equal(t, "images/alpha-1.jpg", src)
	srcset, _ := doc.Find("#B-beta div.image-gallery source").Attr("srcset")
	assert.Equal(t, "images/beta-2.webp", srcset)
	assert.Equal(t, 4, doc.Find("div.image-placeholder").Length())
}

func TestRegenerate(t *testing.T) {
	workspace(t, "alpha-1.jpg")

	stdout, _, code := execute(t, "regenerate", "--out", "-")
	require.Equal(t, 0, code)

	doc, err := goquery.NewDocumentFromReader(bytes.NewBufferString(stdout))
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Find("div.entry").Length())
	assert.Equal(t, 2, doc.Find("div.image-gallery").Length())
	assert.Contains(t, stdout, "first")
}

func TestRegenerate_MarkdownDefaultPath(t *testing.T) {
	workspace(t)

	stdout, _, code := execute(t, "regenerate", "--format", "md")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "greek_vocabulary.md")

	md, err := os.ReadFile("greek_vocabulary.md")
	require.NoError(t, err)
	assert.Contains(t, string(md), "alpha")
}

func TestRegenerate_UnknownFormat(t *testing.T) {
	workspace(t)

	_, stderr, code := execute(t, "regenerate", "--format", "pdf")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unsupported format")
}

func TestVersion(t *testing.T) {
	stdout, _, code := execute(t, "version")
	require.Equal(t, 0, code)
	assert.Equal(t, "vocabsync version 0.1.0 (build: dev)\n", stdout)
}

func TestInit(t *testing.T) {
	chdir(t, t.TempDir())

	stdout, _, code := execute(t, "init")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Created vocabsync.yaml")
	assert.FileExists(t, "vocabsync.yaml")

	stdout, _, code = execute(t, "init")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "already exists")
}

func TestProjectConfigIsUsed(t *testing.T) {
	workspace(t)
	require.NoError(t, os.Mkdir("pics", 0755))
	require.NoError(t, os.WriteFile("vocabsync.yaml", []byte("paths:\n  images_dir: pics\n"), 0644))

	stdout, _, code := execute(t)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "📸 Scanning pics/...")
}

func TestExitCode(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, 0, exitCode(nil, &stderr))
	assert.Equal(t, 1, exitCode(errors.New("boom"), &stderr))
	assert.Equal(t, "Error: boom\n", stderr.String())

	stderr.Reset()
	assert.Equal(t, 3, exitCode(&exitError{code: 3}, &stderr))
	assert.Empty(t, stderr.String())
}

func TestPreview_ImagesOutsideDefaultDir(t *testing.T) {
	dir := workspace(t)
	photos := filepath.Join(dir, "photos")
	require.NoError(t, os.Mkdir(photos, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(photos, "alpha-1.jpg"), []byte("jpeg-bytes"), 0644))

	for name, imagesDir := range map[string]string{
		"relative": "photos",
		"absolute": photos,
	} {
		t.Run(name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Paths.ImagesDir = imagesDir
			a, err := NewApp(cfg, io.Discard, io.Discard, nil)
			require.NoError(t, err)
			h := preview.NewRouter(a.previewConfig(""))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/letzvisit/", nil))
			require.Equal(t, http.StatusOK, rec.Code)

			doc, err := goquery.NewDocumentFromReader(rec.Body)
			require.NoError(t, err)
			src, ok := doc.Find("div.image-gallery img").First().Attr("src")
			require.True(t, ok)
			assert.Equal(t, "images/alpha-1.jpg", src)

			rec = httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/letzvisit/"+src, nil))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "jpeg-bytes", rec.Body.String())
		})
	}
}
