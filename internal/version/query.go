// Package version reads the version an installed formatter reports and
// reconciles it against the desired and the latest released version.
package version

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrVersionQueryFailed is returned when a binary cannot report its version.
var ErrVersionQueryFailed = errors.New("version query failed")

// QueryTimeout bounds a single "--version" invocation.
const QueryTimeout = 10 * time.Second

// Query runs "<path> --version" in workDir and returns the version token
// following prefix. Any failure is reported as ErrVersionQueryFailed.
func Query(ctx context.Context, path, prefix, workDir string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, "--version")
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%w: %s: %v: %s", ErrVersionQueryFailed, path, err, msg)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrVersionQueryFailed, path, err)
	}

	v, ok := ParseOutput(stdout.String(), prefix)
	if !ok {
		return "", fmt.Errorf("%w: %s: unrecognised output %q", ErrVersionQueryFailed, path, strings.TrimSpace(stdout.String()))
	}
	return v, nil
}

// ParseOutput extracts the version token from "--version" output.
//
// The first line carrying prefix wins and the token is the first word after
// it, so "stylua 1.2.3" with prefix "stylua " yields "1.2.3". Without a
// prefix the last word of the first non-empty line is used.
func ParseOutput(output, prefix string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if prefix == "" {
			fields := strings.Fields(line)
			return fields[len(fields)-1], true
		}

		idx := strings.Index(line, strings.TrimSpace(prefix))
		if idx < 0 {
			continue
		}
		fields := strings.Fields(line[idx+len(strings.TrimSpace(prefix)):])
		if len(fields) == 0 {
			continue
		}
		return fields[0], true
	}
	return "", false
}

// Format renders v for display, using "unknown" for an unknown version.
func Format(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
