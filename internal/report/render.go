// Package report renders build results, archive listings and build history
// for humans (status lines and tables) and machines (JSON).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/varalys/plugpack/internal/artifacts"
	"github.com/varalys/plugpack/internal/audit"
	"github.com/varalys/plugpack/internal/cache"
	"github.com/varalys/plugpack/internal/engine"
	"github.com/varalys/plugpack/internal/optrows"
)

type PrintOptions struct {
	NoColor bool
	Verbose bool
}

type palette struct {
	ok, fail, warn, label *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		ok:    color.New(color.FgGreen),
		fail:  color.New(color.FgRed),
		warn:  color.New(color.FgYellow),
		label: color.New(color.FgCyan),
	}
	if noColor {
		for _, c := range []*color.Color{p.ok, p.fail, p.warn, p.label} {
			c.DisableColor()
		}
	}
	return p
}

// FormatMB formats a byte count the way build summaries report sizes.
func FormatMB(n int64) string {
	return fmt.Sprintf("%.2f MB", float64(n)/(1024*1024))
}

// PrintBuildStart prints the source and output lines shown before a build.
func PrintBuildStart(w io.Writer, source, output string, opts PrintOptions) {
	p := newPalette(opts.NoColor)
	fmt.Fprintf(w, "%s %s\n", p.label.Sprint("Source:"), source)
	if output != "" {
		fmt.Fprintf(w, "%s %s\n", p.label.Sprint("Output:"), output)
	}
}

// PrintEntry prints one archived entry; used for verbose progress.
func PrintEntry(w io.Writer, e engine.Entry) {
	fmt.Fprintf(w, "  adding %s (%d bytes)\n", e.Path, e.Size)
}

// PrintBuild prints the summary of a finished (or planned) build.
func PrintBuild(w io.Writer, res engine.Result, opts PrintOptions) {
	p := newPalette(opts.NoColor)
	if res.DryRun {
		fmt.Fprintf(w, "%s %d files, %s uncompressed\n", p.warn.Sprint("Dry run:"), len(res.Entries), FormatMB(res.InputBytes))
		if opts.Verbose {
			for _, e := range res.Entries {
				fmt.Fprintf(w, "  %s\n", e.Path)
			}
		}
	} else {
		fmt.Fprintf(w, "%s %s\n", p.ok.Sprint("Created:"), filepath.Base(res.OutputPath))
		fmt.Fprintf(w, "%s %s\n", p.label.Sprint("Size:"), FormatMB(res.Bytes))
	}
	fmt.Fprintf(w, "Files: %d (excluded: %d, pruned dirs: %d, skipped: %d)\n", len(res.Entries), res.Excluded, res.Pruned, res.Skipped)
	if res.Duration > 0 {
		fmt.Fprintf(w, "Build duration: %.2fs\n", res.Duration.Seconds())
	}
}

// PrintChanges summarizes what changed since the previous build of the same
// output. Verbose lists the paths.
func PrintChanges(w io.Writer, c cache.Changes, opts PrintOptions) {
	if c.Empty() {
		fmt.Fprintln(w, "Changes since last build: none")
		return
	}
	fmt.Fprintf(w, "Changes since last build: %d added, %d modified, %d removed\n", len(c.Added), len(c.Modified), len(c.Removed))
	if !opts.Verbose {
		return
	}
	p := newPalette(opts.NoColor)
	for _, n := range c.Added {
		fmt.Fprintf(w, "  %s %s\n", p.ok.Sprint("+"), n)
	}
	for _, n := range c.Modified {
		fmt.Fprintf(w, "  %s %s\n", p.warn.Sprint("~"), n)
	}
	for _, n := range c.Removed {
		fmt.Fprintf(w, "  %s %s\n", p.fail.Sprint("-"), n)
	}
}

// PrintFailure prints the build failure line with its error kind.
func PrintFailure(w io.Writer, err error, opts PrintOptions) {
	p := newPalette(opts.NoColor)
	fmt.Fprintf(w, "%s [%s] %v\n", p.fail.Sprint("Error: archive was not created:"), engine.KindOf(err), err)
}

// PrintEntries renders build entries as a table.
func PrintEntries(w io.Writer, entries []engine.Entry) error {
	table := tablewriter.NewWriter(w)
	table.Header("Path", "Size", "Hash")
	for _, e := range entries {
		if err := table.Append([]string{e.Path, strconv.FormatInt(e.Size, 10), e.Hash}); err != nil {
			return err
		}
	}
	return table.Render()
}

// PrintListing renders the members of an existing archive as a table.
func PrintListing(w io.Writer, entries []artifacts.Entry) error {
	table := tablewriter.NewWriter(w)
	table.Header("Name", "Size", "Compressed", "Method", "Modified")
	var total, packed uint64
	for _, e := range entries {
		total += e.Size
		packed += e.CompressedSize
		row := []string{
			e.Name,
			strconv.FormatUint(e.Size, 10),
			strconv.FormatUint(e.CompressedSize, 10),
			e.Method,
			e.Modified.Format("2006-01-02 15:04"),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d entries, %d bytes (%d compressed)\n", len(entries), total, packed)
	return nil
}

// PrintViolations reports archive entries that should have been excluded.
func PrintViolations(w io.Writer, vs []artifacts.Violation, opts PrintOptions) {
	p := newPalette(opts.NoColor)
	if len(vs) == 0 {
		fmt.Fprintln(w, p.ok.Sprint("OK: no excluded paths in archive"))
		return
	}
	fmt.Fprintf(w, "%s %d excluded paths found in archive\n", p.fail.Sprint("FAIL:"), len(vs))
	for _, v := range vs {
		if v.Pattern != "" {
			fmt.Fprintf(w, "  %s  (%s)\n", v.Name, v.Pattern)
		} else {
			fmt.Fprintf(w, "  %s\n", v.Name)
		}
	}
}

// PrintHistory renders build records, newest first.
func PrintHistory(w io.Writer, records []audit.BuildRecord) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No builds recorded")
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Header("When", "Build", "Output", "Commit", "Files", "Size", "Status")
	for _, r := range records {
		status := "ok"
		if r.Error != "" {
			status = r.ErrorKind
		}
		commit := ""
		if r.Git != nil && len(r.Git.Commit) >= 7 {
			commit = r.Git.Commit[:7]
		}
		row := []string{
			r.Timestamp.Local().Format(time.DateTime),
			shortID(r.BuildID),
			filepath.Base(r.Output),
			commit,
			strconv.Itoa(r.Files),
			FormatMB(r.Bytes),
			status,
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// PrintOptionRows renders option rows with values cut to a readable width.
func PrintOptionRows(w io.Writer, rows []optrows.Row) error {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No matching option rows")
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Name", "Autoload", "Value")
	for _, r := range rows {
		row := []string{strconv.FormatInt(r.ID, 10), r.Name, r.Autoload, preview(r.Value, 60)}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// WriteJSON encodes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
