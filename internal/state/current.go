package state

import (
	"errors"
	"fmt"
	"os"
)

// CurrentGradesFile holds the plain-text rendering of the latest grades.
type CurrentGradesFile struct {
	Path string
}

// Write replaces the file content.
func (f CurrentGradesFile) Write(content string) error {
	if err := writeFileAtomic(f.Path, []byte(content)); err != nil {
		return fmt.Errorf("write current grades: %w", err)
	}
	return nil
}

// Read returns the last rendering, or ErrNoSnapshot if none was written.
func (f CurrentGradesFile) Read() (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoSnapshot
		}
		return "", err
	}
	return string(data), nil
}
