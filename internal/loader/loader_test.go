package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectern-ai/lectern/internal/core"
)

func TestLoadTxt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "os-notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("processes and threads"), 0o644))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "os-notes.txt", doc.Source)
	assert.Equal(t, "processes and threads", doc.Text)
}

func TestLoadBytesUnsupportedExtension(t *testing.T) {
	_, err := LoadBytes("slides.pptx", []byte("binary"))
	assert.True(t, errors.Is(err, core.ErrUnsupportedFormat))

	_, err = LoadBytes("noextension", nil)
	assert.True(t, errors.Is(err, core.ErrUnsupportedFormat))
}

func TestLoadBytesExtensionCaseInsensitive(t *testing.T) {
	doc, err := LoadBytes("NOTES.TXT", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "NOTES.TXT", doc.Source)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.txt"))
	assert.True(t, Supported("b.PDF"))
	assert.False(t, Supported("c.docx"))
	assert.False(t, Supported("d"))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}
