// Package format pipes source text through the resolved formatter.
package format

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNoExecutable is returned when no formatter path is available.
var ErrNoExecutable = errors.New("no formatter executable resolved")

// Options configure one formatting run.
type Options struct {
	// WorkDir is where the formatter runs, so it finds project settings.
	WorkDir string
	// Args are placed before the "-" stdin marker.
	Args []string
	// Range limits formatting to a byte range when End > Start.
	Range Range
}

// Range is a half-open byte range of the input.
type Range struct {
	Start, End int
}

// Error carries the formatter's stderr.
type Error struct {
	Path   string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", e.Path, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Formatter runs "<path> [args] -" with text on stdin.
type Formatter struct{}

// New creates a Formatter.
func New() *Formatter {
	return &Formatter{}
}

// Format returns text as rewritten by the executable at path.
func (f *Formatter) Format(ctx context.Context, path, text string, opts Options) (string, error) {
	if path == "" {
		return "", ErrNoExecutable
	}

	args := append([]string{}, opts.Args...)
	if opts.Range.End > opts.Range.Start {
		args = append(args,
			"--range-start", fmt.Sprint(opts.Range.Start),
			"--range-end", fmt.Sprint(opts.Range.End),
		)
	}
	args = append(args, "-")

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = opts.WorkDir
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &Error{Path: path, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return stdout.String(), nil
}
