package engine

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"sort"
	"time"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/varalys/plugpack/internal/filelock"
)

// Build writes the filtered archive described by cfg. The previous output is
// removed first and the new archive is published with an atomic rename, so
// a failed build leaves no archive at OutputPath rather than a truncated one.
func Build(ctx context.Context, cfg Config) (Result, error) {
	p, err := prepare(cfg)
	if err != nil {
		return Result{}, err
	}
	if cfg.DryRun {
		return p.dryRun(ctx)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	started := time.Now()
	lock := filelock.New(p.output)
	if err := lock.TryLock(); err != nil {
		return Result{}, wrap("lock", p.output, err)
	}
	defer lock.Unlock()

	if err := os.Remove(p.output); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Result{}, wrap("remove", p.output, err)
	}

	tmp, err := filelock.Create(p.output)
	if err != nil {
		return Result{}, wrap("create", p.output, err)
	}
	defer tmp.Abort()

	res := p.newResult()
	zw := zip.NewWriter(tmp)
	level := p.cfg.Level
	if level == 0 {
		level = flate.DefaultCompression
	}
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	err = p.walk(ctx, &res, func(abs string, info fs.FileInfo, e Entry) error {
		hash, err := addFile(zw, abs, info, e.Path)
		if err != nil {
			return err
		}
		e.Hash = hash
		res.Entries = append(res.Entries, e)
		res.InputBytes += e.Size
		if p.cfg.Progress != nil {
			p.cfg.Progress(e)
		}
		return nil
	})
	if err != nil {
		_ = zw.Close()
		return res, err
	}
	if err := zw.Close(); err != nil {
		return res, wrap("finalize", p.output, err)
	}
	if err := tmp.Commit(); err != nil {
		return res, wrap("finalize", p.output, err)
	}

	st, err := os.Stat(p.output)
	if err != nil {
		return res, wrap("stat", p.output, err)
	}
	res.Bytes = st.Size()
	res.Duration = time.Since(started)
	sortEntries(res.Entries)
	return res, nil
}

// addFile streams one file into the archive and returns its content hash.
func addFile(zw *zip.Writer, abs string, info fs.FileInfo, name string) (string, error) {
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return "", wrap("header", abs, err)
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	f, err := os.Open(abs)
	if err != nil {
		return "", wrap("read", abs, err)
	}
	defer f.Close()

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return "", wrap("write", name, err)
	}
	h := xxhash.New()
	if _, err := io.Copy(io.MultiWriter(w, h), f); err != nil {
		return "", wrap("write", abs, err)
	}
	return hexSum(h.Sum64()), nil
}

func sortEntries(es []Entry) {
	sort.Slice(es, func(i, j int) bool { return es[i].Path < es[j].Path })
}

func hexSum(sum uint64) string {
	var buf [16]byte
	const hex = "0123456789abcdef"
	for i := 15; i >= 0; i-- {
		buf[i] = hex[sum&0xF]
		sum >>= 4
	}
	return string(buf[:])
}

// HashBytes returns the same digest Build records for a file's content.
func HashBytes(b []byte) string {
	return hexSum(xxhash.Sum64(b))
}
