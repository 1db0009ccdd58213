package binary

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	update "github.com/inconshreveable/go-update"
)

// executableMode is applied when the file is created, never afterwards.
const executableMode os.FileMode = 0755

// installExecutable writes r to dest as an executable.
//
// A missing dest is written to a hidden sibling file and renamed into place.
// An existing dest is swapped by go-update, which keeps the old binary until
// the new one is fully written and restores it if the swap fails.
func installExecutable(dest string, r io.Reader) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}

	if _, err := os.Stat(dest); err == nil {
		err := update.Apply(r, update.Options{
			TargetPath: dest,
			TargetMode: executableMode,
		})
		if err != nil {
			if rerr := update.RollbackError(err); rerr != nil {
				return fmt.Errorf("replace %s: %w (rollback failed: %v)", dest, err, rerr)
			}
			return fmt.Errorf("replace %s: %w", dest, err)
		}
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", dest, err)
	}

	tmpPath := filepath.Join(dir, "."+filepath.Base(dest)+".new")
	out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, executableMode)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write file: %w", err)
	}

	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close file: %w", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename file: %w", err)
	}

	return nil
}
