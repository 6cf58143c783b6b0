package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/varalys/plugpack/internal/filelock"
)

// Kind classifies build failures.
type Kind int

const (
	KindIOError Kind = iota
	KindNotFound
	KindPermissionDenied
	KindInvalidConfig
	KindLocked
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindInvalidConfig:
		return "InvalidConfig"
	case KindLocked:
		return "Locked"
	case KindCanceled:
		return "Canceled"
	default:
		return "IOError"
	}
}

// BuildError is the single error type returned by Build and Plan.
type BuildError struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *BuildError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or KindIOError when err is not a
// *BuildError.
func KindOf(err error) Kind {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindIOError
}

func invalid(op, path string, format string, args ...any) *BuildError {
	return &BuildError{Kind: KindInvalidConfig, Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}

// wrap classifies err. An existing *BuildError passes through unchanged.
func wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var be *BuildError
	if errors.As(err, &be) {
		return err
	}
	return &BuildError{Kind: classify(err), Op: op, Path: path, Err: err}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, filelock.ErrLocked):
		return KindLocked
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	default:
		return KindIOError
	}
}
