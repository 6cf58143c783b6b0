// Package audit keeps an append-only JSONL history of archive builds.
package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/varalys/plugpack/internal/engine"
	"github.com/varalys/plugpack/internal/git"
)

// FileName is the build log written next to the archives it describes.
const FileName = ".plugpack_builds.jsonl"

type BuildRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	BuildID    string    `json:"build_id"`
	Source     string    `json:"source"`
	Output     string    `json:"output"`
	RootName   string    `json:"root_name,omitempty"`
	Files      int       `json:"files"`
	Excluded   int       `json:"excluded"`
	Pruned     int       `json:"pruned"`
	InputBytes int64     `json:"input_bytes"`
	Bytes      int64     `json:"bytes"`
	Duration   string    `json:"duration"`
	Patterns   []string  `json:"patterns,omitempty"`
	Error      string    `json:"error,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`

	// Repository state of the source tree, when it is under git
	Git *git.Metadata `json:"git,omitempty"`
}

type BuildLog struct {
	logPath string
}

// NewBuildLog returns the log stored in dir.
func NewBuildLog(dir string) *BuildLog {
	return &BuildLog{logPath: filepath.Join(dir, FileName)}
}

// ForOutput returns the log that sits beside the given archive path.
func ForOutput(output string) *BuildLog {
	return NewBuildLog(filepath.Dir(output))
}

func (l *BuildLog) Path() string { return l.logPath }

// LoadHistory returns the recorded builds, newest first. A missing log is an
// empty history. Lines that fail to decode are skipped.
func (l *BuildLog) LoadHistory() ([]BuildRecord, error) {
	f, err := os.Open(l.logPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open build log: %w", err)
	}
	defer f.Close()

	var records []BuildRecord
	decoder := json.NewDecoder(f)
	for decoder.More() {
		var record BuildRecord
		if err := decoder.Decode(&record); err != nil {
			break
		}
		records = append(records, record)
	}

	reverse(records)
	return records, nil
}

// LogBuild appends record, assigning a build ID when it has none.
func (l *BuildLog) LogBuild(record BuildRecord) error {
	if record.BuildID == "" {
		record.BuildID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	f, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open build log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("failed to write build record: %w", err)
	}
	return nil
}

// DeleteRecord removes the record at index, counted newest first as returned
// by LoadHistory.
func (l *BuildLog) DeleteRecord(index int) error {
	records, err := l.LoadHistory()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(records) {
		return fmt.Errorf("invalid index: %d", index)
	}
	records = append(records[:index], records[index+1:]...)
	reverse(records)

	f, err := os.Create(l.logPath)
	if err != nil {
		return fmt.Errorf("failed to create build log: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			return fmt.Errorf("failed to write build record: %w", err)
		}
	}
	return nil
}

// CreateBuildRecord summarizes a build outcome. buildErr may be nil.
func CreateBuildRecord(res engine.Result, patterns []string, buildErr error) BuildRecord {
	rec := BuildRecord{
		Timestamp:  time.Now(),
		BuildID:    uuid.NewString(),
		Source:     res.Source,
		Output:     res.OutputPath,
		RootName:   res.RootName,
		Files:      len(res.Entries),
		Excluded:   res.Excluded,
		Pruned:     res.Pruned,
		InputBytes: res.InputBytes,
		Bytes:      res.Bytes,
		Duration:   res.Duration.String(),
		Patterns:   append([]string(nil), patterns...),
	}
	if res.Source != "" {
		if md := git.RepoMetadata(res.Source); md.Commit != "" {
			rec.Git = &md
		}
	}
	if buildErr != nil {
		rec.Error = buildErr.Error()
		rec.ErrorKind = engine.KindOf(buildErr).String()
		rec.Bytes = 0
	}
	return rec
}

func reverse(records []BuildRecord) {
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
}
