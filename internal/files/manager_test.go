package files

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerWrite(t *testing.T) {
	root := filepath.Join(t.TempDir(), "tables")
	m := NewManager(root, nil)

	path, err := m.Write("nested/out.csv", func(w io.Writer) error {
		_, err := io.WriteString(w, "a,b\n")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "nested", "out.csv"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(content))
}

func TestManagerWriteFailureKeepsPrevious(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root, nil)

	_, err := m.Write("out.csv", func(w io.Writer) error {
		_, err := io.WriteString(w, "old\n")
		return err
	})
	require.NoError(t, err)

	boom := errors.New("render failed")
	_, err = m.Write("out.csv", func(w io.Writer) error {
		io.WriteString(w, "partial")
		return boom
	})
	require.ErrorIs(t, err, boom)

	content, err := os.ReadFile(filepath.Join(root, "out.csv"))
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(content))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file is cleaned up")
}

func TestManagerWriteAbsolutePath(t *testing.T) {
	target := filepath.Join(t.TempDir(), "elsewhere", "chart.png")
	path, err := NewManager(t.TempDir(), nil).Write(target, func(w io.Writer) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, target, path)
	assert.FileExists(t, target)
}
