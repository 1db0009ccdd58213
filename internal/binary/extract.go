package binary

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
)

// maxEntrySize bounds how much of a single archive entry is copied.
const maxEntrySize = 512 << 20

var (
	// ErrEntryNotFound is returned when the archive lacks the executable.
	ErrEntryNotFound = errors.New("entry not found in archive")

	// ErrEntryTooLarge is returned when the executable exceeds the size limit.
	ErrEntryTooLarge = errors.New("archive entry exceeds size limit")
)

// Extractor handles archive extraction
type Extractor struct {
	maxSize int64
}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{maxSize: maxEntrySize}
}

// ExtractEntry finds the regular file whose path equals entryName in the zip
// archive at archivePath and hands its decompressed contents to write.
// Every other entry is skipped without being read. An entry larger than the
// size limit fails with ErrEntryTooLarge instead of being truncated.
func (e *Extractor) ExtractEntry(archivePath, entryName string, write func(io.Reader) error) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != entryName || f.FileInfo().IsDir() {
			continue
		}
		if f.UncompressedSize64 > uint64(e.maxSize) {
			return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrEntryTooLarge, entryName, f.UncompressedSize64, e.maxSize)
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open %s: %w", entryName, err)
		}
		defer rc.Close()

		if err := write(&boundedReader{r: rc, remaining: e.maxSize}); err != nil {
			return fmt.Errorf("write %s: %w", entryName, err)
		}
		return nil
	}

	return fmt.Errorf("%w: %s", ErrEntryNotFound, entryName)
}

// boundedReader reads at most remaining bytes from r and fails with
// ErrEntryTooLarge if r has more.
type boundedReader struct {
	r         io.Reader
	remaining int64
}

func (b *boundedReader) Read(p []byte) (int, error) {
	if b.remaining <= 0 {
		var one [1]byte
		n, err := b.r.Read(one[:])
		if n > 0 {
			return 0, ErrEntryTooLarge
		}
		return 0, err
	}

	if int64(len(p)) > b.remaining {
		p = p[:b.remaining]
	}
	n, err := b.r.Read(p)
	b.remaining -= int64(n)
	return n, err
}
