// Package update looks up the latest plugpack release and remembers the
// answer so the build banner does not hit the network on every run.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	semver "github.com/blang/semver/v4"
)

// Slug is the GitHub repository releases are published to.
const Slug = "varalys/plugpack"

const releasesAPI = "https://api.github.com/repos/" + Slug + "/releases/latest"

// Notice is the outcome of a release lookup.
type Notice struct {
	Current   string    `json:"current"`
	Latest    string    `json:"latest,omitempty"`
	Newer     bool      `json:"newer"`
	CheckedAt time.Time `json:"checked_at,omitempty"`
	Cached    bool      `json:"cached,omitempty"`
}

// Checker resolves the latest release, reusing a state file younger than
// MaxAge. The zero value never touches the network or disk.
type Checker struct {
	URL       string
	StatePath string
	MaxAge    time.Duration
	Client    *http.Client
	// Offline skips lookups entirely; Check then reports only Current.
	Offline bool
}

type state struct {
	CheckedAt time.Time `json:"checked_at"`
	Latest    string    `json:"latest"`
}

// NewChecker returns a Checker wired to the public releases API with its
// state under $XDG_CONFIG_HOME/plugpack. CI environments are treated as
// offline.
func NewChecker(offline bool) *Checker {
	return &Checker{
		URL:       releasesAPI,
		StatePath: statePath(),
		MaxAge:    24 * time.Hour,
		Client:    &http.Client{Timeout: 2 * time.Second},
		Offline:   offline || os.Getenv("CI") != "",
	}
}

func statePath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "plugpack", "update.json")
}

// Check compares current against the latest known release. A stale or
// missing state file triggers a lookup; lookup failures are not errors,
// they leave Latest empty.
func (c *Checker) Check(ctx context.Context, current string) Notice {
	n := Notice{Current: trimV(current)}
	if c == nil || c.Offline || c.URL == "" {
		return n
	}
	if ctx == nil {
		ctx = context.Background()
	}
	st := c.readState()
	if st.Latest != "" && time.Since(st.CheckedAt) <= c.MaxAge {
		n.Latest, n.CheckedAt, n.Cached = st.Latest, st.CheckedAt, true
	} else if latest, err := c.Lookup(ctx); err == nil {
		n.Latest, n.CheckedAt = latest, time.Now()
		c.writeState(state{CheckedAt: n.CheckedAt, Latest: latest})
	}
	n.Newer = n.Latest != "" && n.Current != "" && Compare(n.Latest, n.Current) > 0
	return n
}

// Lookup asks the releases API for the latest tag, ignoring any state file.
func (c *Checker) Lookup(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "plugpack-updater")
	req.Header.Set("Accept", "application/vnd.github+json")
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release lookup: %s", resp.Status)
	}
	var rel struct {
		TagName string `json:"tag_name"`
		Name    string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return "", fmt.Errorf("release lookup: %w", err)
	}
	tag := trimV(rel.TagName)
	if tag == "" {
		tag = trimV(rel.Name)
	}
	if tag == "" {
		return "", fmt.Errorf("release lookup: no tag in response")
	}
	return tag, nil
}

func (c *Checker) readState() state {
	var st state
	if c.StatePath == "" {
		return st
	}
	if b, err := os.ReadFile(c.StatePath); err == nil {
		_ = json.Unmarshal(b, &st)
	}
	return st
}

func (c *Checker) writeState(st state) {
	if c.StatePath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.StatePath), 0o755); err != nil {
		return
	}
	b, _ := json.MarshalIndent(st, "", "  ")
	_ = os.WriteFile(c.StatePath, b, 0o644)
}

func trimV(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}

// Compare orders two versions by semver precedence. Unparseable versions
// sort before everything else.
func Compare(a, b string) int {
	av, aerr := semver.ParseTolerant(a)
	bv, berr := semver.ParseTolerant(b)
	switch {
	case aerr != nil && berr != nil:
		return 0
	case aerr != nil:
		return -1
	case berr != nil:
		return 1
	}
	return av.Compare(bv)
}
