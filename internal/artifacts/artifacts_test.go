package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varalys/plugpack/internal/exclude"
)

func writeZip(t *testing.T, names ...string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "a.zip")
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for i, n := range names {
		method := zip.Deflate
		if i == 0 {
			method = zip.Store
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: n, Method: method})
		require.NoError(t, err)
		if n[len(n)-1] == '/' {
			continue
		}
		_, err = w.Write([]byte("content of " + n))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}

func TestList(t *testing.T) {
	p := writeZip(t, "plugin/readme.txt", "plugin/assets/", "plugin/a.php")
	entries, err := List(p)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "plugin/a.php", entries[0].Name)
	assert.Equal(t, "deflate", entries[0].Method)
	assert.True(t, entries[1].Dir)
	assert.Equal(t, "store", entries[2].Method)
	assert.Equal(t, uint64(len("content of plugin/readme.txt")), entries[2].Size)
	assert.Equal(t, "plugin", RootFolder(entries))
}

func TestNames_SkipsDirectories(t *testing.T) {
	p := writeZip(t, "b.txt", "dir/", "dir/a.txt")
	names, err := Names(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt", "dir/a.txt"}, names)
}

func TestList_NotAZip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.zip")
	require.NoError(t, os.WriteFile(p, []byte("nope"), 0644))
	_, err := List(p)
	assert.Error(t, err)
	_, err = List(filepath.Join(t.TempDir(), "missing.zip"))
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	p := writeZip(t,
		"plugin/plugin.php",
		"plugin/react/src/App.tsx",
		"plugin/react/srcbackup/App.tsx",
		"plugin/react/node_modules/x/index.js",
		"plugin/.DS_Store",
	)
	m := exclude.Any{exclude.MustNew(exclude.ModeSegment, []string{"react/src"}), exclude.DefaultSet()}

	got, err := Verify(p, m, "plugin")
	require.NoError(t, err)
	assert.Equal(t, []Violation{
		{Name: "plugin/.DS_Store", Pattern: ".DS_Store"},
		{Name: "plugin/react/node_modules/x/index.js", Pattern: "node_modules"},
		{Name: "plugin/react/src/App.tsx", Pattern: "react/src"},
	}, got)

	clean := writeZip(t, "plugin/plugin.php", "plugin/readme.txt")
	got, err = Verify(clean, m, "plugin")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRootFolder(t *testing.T) {
	assert.Equal(t, "", RootFolder([]Entry{{Name: "a.txt"}}))
	assert.Equal(t, "", RootFolder([]Entry{{Name: "a/x"}, {Name: "b/y"}}))
	assert.Equal(t, "a", RootFolder([]Entry{{Name: "a/"}, {Name: "a/y"}}))
	assert.Equal(t, "", RootFolder(nil))
}
