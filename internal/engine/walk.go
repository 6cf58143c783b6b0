package engine

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/varalys/plugpack/internal/filelock"
)

// walk traverses the source tree and invokes handle for each file that
// survives exclusion. Excluded directories are pruned without being read.
// Counters for excluded, pruned and skipped paths are accumulated in res.
func (p *plan) walk(ctx context.Context, res *Result, handle func(abs string, info fs.FileInfo, e Entry) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return filepath.WalkDir(p.root, func(abs string, d fs.DirEntry, err error) error {
		if err != nil {
			return wrap("walk", abs, err)
		}
		if cerr := ctx.Err(); cerr != nil {
			return wrap("walk", abs, cerr)
		}
		if abs == p.root {
			return nil
		}
		rel, err := filepath.Rel(p.root, abs)
		if err != nil {
			return wrap("walk", abs, err)
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if p.matcher.Match(rel, true) {
				res.Pruned++
				return filepath.SkipDir
			}
			return nil
		}
		if p.isOwnOutput(abs) {
			res.Skipped++
			return nil
		}

		info, ok, err := p.fileInfo(abs, d)
		if err != nil {
			return err
		}
		if !ok {
			res.Skipped++
			return nil
		}

		name := p.archivePath(rel)
		if rel == p.ignoreRel || p.matcher.Match(rel, false) || (name != rel && p.nameMatcher.Match(name, false)) {
			res.Excluded++
			return nil
		}
		return handle(abs, info, Entry{
			Path:    name,
			Rel:     rel,
			Size:    info.Size(),
			Mode:    info.Mode(),
			ModTime: info.ModTime(),
		})
	})
}

// fileInfo returns info for regular files. Symlinks are followed when they
// point at a regular file; everything else is reported as not ok.
func (p *plan) fileInfo(abs string, d fs.DirEntry) (fs.FileInfo, bool, error) {
	switch {
	case d.Type().IsRegular():
		info, err := d.Info()
		if err != nil {
			return nil, false, wrap("stat", abs, err)
		}
		return info, true, nil
	case d.Type()&fs.ModeSymlink != 0:
		info, err := os.Stat(abs)
		if err != nil || !info.Mode().IsRegular() {
			return nil, false, nil
		}
		return info, true, nil
	default:
		return nil, false, nil
	}
}

// isOwnOutput reports whether abs is the archive being written, its lock
// file, an in-progress temp file next to it, or a configured skip path.
func (p *plan) isOwnOutput(abs string) bool {
	if p.skip[abs] {
		return true
	}
	if p.output == "" {
		return false
	}
	if abs == p.output || abs == filelock.LockPath(p.output) {
		return true
	}
	return filepath.Dir(abs) == filepath.Dir(p.output) && filelock.IsTemp(abs)
}

// Plan reports what Build would write without touching the output.
func Plan(ctx context.Context, cfg Config) (Result, error) {
	cfg.DryRun = true
	p, err := prepare(cfg)
	if err != nil {
		return Result{}, err
	}
	return p.dryRun(ctx)
}

func (p *plan) dryRun(ctx context.Context) (Result, error) {
	res := p.newResult()
	res.DryRun = true
	err := p.walk(ctx, &res, func(_ string, _ fs.FileInfo, e Entry) error {
		res.Entries = append(res.Entries, e)
		res.InputBytes += e.Size
		if p.cfg.Progress != nil {
			p.cfg.Progress(e)
		}
		return nil
	})
	if err != nil {
		return res, err
	}
	sortEntries(res.Entries)
	return res, nil
}

func (p *plan) newResult() Result {
	return Result{Source: p.root, OutputPath: p.output, RootName: p.rootName, Entries: []Entry{}}
}
