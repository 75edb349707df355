package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/plus3it/gorecurcopy"
)

// CleanOrCreateTempFolder makes sure path exists and is empty.
func CleanOrCreateTempFolder(path string) error {
	if _, err := os.Stat(path); err == nil {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("removing temp folder: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(path, os.ModePerm); err != nil {
		return fmt.Errorf("creating temp folder: %w", err)
	}
	return nil
}

// CopyToOutput copies the run folder src into output/id and returns the
// destination path.
func CopyToOutput(src, output, id string) (string, error) {
	dst := filepath.Join(output, id)
	if err := os.MkdirAll(dst, os.ModePerm); err != nil {
		return "", fmt.Errorf("creating output folder: %w", err)
	}
	if err := gorecurcopy.CopyDirectory(src, dst); err != nil {
		return "", fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return dst, nil
}

// WriteFile writes data to dir/name.
func WriteFile(dir, name string, data []byte) error {
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}
