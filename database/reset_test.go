package database

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ochinchina/wlreplay/faults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFiles(dir string) []string {
	return []string{
		filepath.Join(dir, "compiled", "UserService", "users.txt"),
		filepath.Join(dir, "compiled", "ProductService", "products.txt"),
		filepath.Join(dir, "compiled", "OrderService", "orders.txt"),
	}
}

func assertAllEmpty(t *testing.T, files []string) {
	for _, f := range files {
		info, err := os.Stat(f)
		require.NoError(t, err, f)
		assert.Zero(t, info.Size(), f)
	}
}

func TestResetCreatesMissingFiles(t *testing.T) {
	files := testFiles(t.TempDir())
	out := &bytes.Buffer{}
	require.NoError(t, NewResetter(files, out).Reset())

	assertAllEmpty(t, files)
	assert.Contains(t, out.String(), files[0]+" not found, skipping.")
	assert.Contains(t, out.String(), "Recreated fresh database file: "+files[2])
}

func TestResetTruncatesPopulatedFiles(t *testing.T) {
	files := testFiles(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Dir(files[0]), 0o755))
	require.NoError(t, os.WriteFile(files[0], []byte("1,alice,a@x.com,pw\n"), 0o644))

	out := &bytes.Buffer{}
	require.NoError(t, NewResetter(files, out).Reset())
	assertAllEmpty(t, files)
	assert.Contains(t, out.String(), "Deleted "+files[0])
}

func TestResetIdempotent(t *testing.T) {
	dir := t.TempDir()
	files := testFiles(dir)
	r := NewResetter(files, nil)

	require.NoError(t, r.Reset())
	assertAllEmpty(t, files)
	require.NoError(t, r.Reset())
	assertAllEmpty(t, files)

	var found []string
	filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			found = append(found, path)
		}
		return nil
	})
	assert.ElementsMatch(t, files, found)
}

func TestResetFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	// the parent of the data file is a regular file
	err := NewResetter([]string{filepath.Join(blocker, "users.txt")}, nil).Reset()
	require.Error(t, err)
	assert.ErrorIs(t, err, faults.ErrIO)
}
