package gallery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// touch creates empty files under dir.
func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, nil, 0644))
	}
}

func TestProbe_SingleJPEG(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "term-1.jpg")

	set := NewProber(dir).Probe("term")

	assert.Equal(t, ImageSet{dir + "/term-1.jpg", "", ""}, set)
	assert.Equal(t, 1, set.Found())
	assert.Equal(t, 2, set.Missing())
	assert.Equal(t, []int{2, 3}, set.MissingSlots())
	assert.False(t, set.Complete())
}

func TestProbe_PrefersJPEGOverWebP(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "term-1.jpg", "term-1.webp", "term-2.webp")

	set := NewProber(dir).Probe("term")

	assert.Equal(t, dir+"/term-1.jpg", set[0])
	assert.Equal(t, dir+"/term-2.webp", set[1])
	assert.Empty(t, set[2])
}

func TestProbe_AllSlots(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "stoa-1.jpg", "stoa-2.jpg", "stoa-3.webp")

	set := NewProber(dir).Probe("stoa")

	assert.True(t, set.Complete())
	assert.Empty(t, set.MissingSlots())
}

func TestProbe_IgnoresDirectoriesAndOtherKeys(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "term-1.jpg"), 0755))
	touch(t, dir, "other-1.jpg", "term-10.jpg")

	set := NewProber(dir).Probe("term")

	assert.Equal(t, ImageSet{}, set)
	assert.Equal(t, []int{1, 2, 3}, set.MissingSlots())
}

func TestProbe_MissingDirectory(t *testing.T) {
	set := NewProber(filepath.Join(t.TempDir(), "nope")).Probe("term")
	assert.Equal(t, 0, set.Found())
}

func TestSlotPath(t *testing.T) {
	tests := []struct {
		dir      string
		expected string
	}{
		{dir: "images", expected: "images/agora-2.jpg"},
		{dir: "images/", expected: "images/agora-2.jpg"},
		{dir: "", expected: "agora-2.jpg"},
		{dir: "./static/img", expected: "./static/img/agora-2.jpg"},
		{dir: "/", expected: "/agora-2.jpg"},
		{dir: "//", expected: "/agora-2.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			assert.Equal(t, tt.expected, SlotPath(tt.dir, "agora", 2, ExtJPEG))
		})
	}
}

func TestRootDirectorySlots(t *testing.T) {
	var checked []string
	p := &Prober{Dir: "/", stat: func(path string) (os.FileInfo, error) {
		checked = append(checked, path)
		return nil, os.ErrNotExist
	}}

	p.Probe("term")

	require.Len(t, checked, 2*SlotCount)
	assert.Equal(t, "/term-1.jpg", checked[0])
	assert.Equal(t, "/term-1.webp", checked[1])
}

func TestImageSet_Rebase(t *testing.T) {
	set := ImageSet{"/srv/photos/agora-1.jpg", "", "/srv/photos/agora-3.webp"}

	assert.Equal(t,
		ImageSet{"images/agora-1.jpg", "", "images/agora-3.webp"},
		set.Rebase("/srv/photos/", "images"))
	assert.Equal(t,
		ImageSet{"photos/agora-1.jpg", "", ""},
		ImageSet{"agora-1.jpg", "", ""}.Rebase("", "photos"))
	assert.Equal(t,
		ImageSet{"images/agora-1.jpg", "", ""},
		ImageSet{"/agora-1.jpg", "", ""}.Rebase("/", "images"))

	// Paths outside the directory are left alone.
	other := ImageSet{"elsewhere/agora-1.jpg", "", ""}
	assert.Equal(t, other, other.Rebase("photos", "images"))
	// The receiver is a copy.
	assert.Equal(t, "/srv/photos/agora-1.jpg", set[0])
}
