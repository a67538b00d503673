package outpath

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/booktran/internal/lang"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestResolve_Default(t *testing.T) {
	dir := t.TempDir()
	got, err := Resolve(filepath.Join(dir, "book.epub"), lang.Chinese, Options{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "book_Chinese.epub"), got)
}

func TestResolve_Collisions(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "book.epub")

	touch(t, filepath.Join(dir, "book_Chinese.epub"))
	got, err := Resolve(source, lang.Chinese, Options{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "book_Chinese_2.epub"), got)

	touch(t, filepath.Join(dir, "book_Chinese_2.epub"))
	got, err = Resolve(source, lang.Chinese, Options{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "book_Chinese_3.epub"), got)
}

func TestResolve_ExplicitUsedAsIs(t *testing.T) {
	dir := t.TempDir()
	explicit := filepath.Join(dir, "out.md")
	touch(t, explicit)

	got, err := Resolve(filepath.Join(dir, "book.md"), lang.German, Options{Explicit: explicit})
	require.NoError(t, err)
	assert.Equal(t, explicit, got)
}

func TestResolve_SessionDir(t *testing.T) {
	src := t.TempDir()
	session := t.TempDir()
	touch(t, filepath.Join(session, "notes_French.txt"))

	got, err := Resolve(filepath.Join(src, "notes.txt"), lang.French, Options{Dir: session})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(session, "notes_French_2.txt"), got)
}

func TestResolve_NoExtension(t *testing.T) {
	dir := t.TempDir()
	got, err := Resolve(filepath.Join(dir, "README"), lang.Korean, Options{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "README_Korean"), got)
}
