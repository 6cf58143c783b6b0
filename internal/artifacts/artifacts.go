// Package artifacts inspects built plugin archives: listing entries and
// checking them against an exclusion set after the fact.
package artifacts

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/varalys/plugpack/internal/exclude"
)

// Entry describes one member of a zip archive.
type Entry struct {
	Name           string    `json:"name"`
	Size           uint64    `json:"size"`
	CompressedSize uint64    `json:"compressed_size"`
	Method         string    `json:"method"`
	Modified       time.Time `json:"modified"`
	Dir            bool      `json:"dir,omitempty"`
}

// Violation is an archive entry that an exclusion set says should not be
// there.
type Violation struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern,omitempty"`
}

// List returns the archive's entries sorted by name.
func List(path string) ([]Entry, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer r.Close()

	out := make([]Entry, 0, len(r.File))
	for _, f := range r.File {
		out = append(out, Entry{
			Name:           f.Name,
			Size:           f.UncompressedSize64,
			CompressedSize: f.CompressedSize64,
			Method:         methodName(f.Method),
			Modified:       f.Modified,
			Dir:            strings.HasSuffix(f.Name, "/"),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Names returns the sorted file (non-directory) entry names. Two builds of
// the same tree produce equal Names even when timestamps differ.
func Names(path string) ([]string, error) {
	entries, err := List(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Dir {
			names = append(names, e.Name)
		}
	}
	return names, nil
}

// Verify reports every entry excluded by m, either directly or through an
// ancestor directory. When strip is non-empty it is removed as a leading
// path segment first, so root-relative patterns apply to archives built
// with a top-level folder.
func Verify(path string, m exclude.Matcher, strip string) ([]Violation, error) {
	entries, err := List(path)
	if err != nil {
		return nil, err
	}
	var out []Violation
	for _, e := range entries {
		name := e.Name
		if strip != "" {
			name = strings.TrimPrefix(strings.TrimPrefix(name, strip), "/")
			if name == "" {
				continue
			}
		}
		if !exclude.MatchPath(m, name) {
			continue
		}
		out = append(out, Violation{Name: e.Name, Pattern: exclude.Explain(m, name)})
	}
	return out, nil
}

// RootFolder returns the single top-level folder shared by every entry, or
// "" when entries sit at the archive root or under several folders.
func RootFolder(entries []Entry) string {
	root := ""
	for _, e := range entries {
		i := strings.Index(e.Name, "/")
		if i <= 0 {
			return ""
		}
		top := e.Name[:i]
		if root == "" {
			root = top
		} else if root != top {
			return ""
		}
	}
	return root
}

func methodName(m uint16) string {
	switch m {
	case zip.Store:
		return "store"
	case zip.Deflate:
		return "deflate"
	default:
		return fmt.Sprintf("method-%d", m)
	}
}
