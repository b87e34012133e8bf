package staging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Area stages uploaded bytes on disk for the duration of a callback.
type Area struct {
	dir    string
	logger *slog.Logger
}

// New returns an Area rooted at dir; an empty dir means the OS temp dir.
func New(dir string, logger *slog.Logger) (*Area, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("ensure staging dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Area{dir: dir, logger: logger}, nil
}

// With writes data to a fresh temp file carrying fileName's extension, calls
// fn with its path and removes the file on every exit path, panics included.
func (a *Area) With(fileName string, data []byte, fn func(path string) error) error {
	f, err := os.CreateTemp(a.dir, "regdoc-*"+safeExt(fileName))
	if err != nil {
		return fmt.Errorf("create staged file: %w", err)
	}
	path := f.Name()
	defer a.release(path)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close staged file: %w", err)
	}

	return fn(path)
}

func (a *Area) release(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		a.logger.Warn("staging.remove_failed", "path", path, "error", err)
	}
}

// safeExt keeps only a plain extension so the declared name can never steer
// the temp file outside the staging dir.
func safeExt(fileName string) string {
	ext := filepath.Ext(filepath.Base(fileName))
	if strings.ContainsAny(ext, `/\*`) || len(ext) > 16 {
		return ""
	}
	return ext
}
