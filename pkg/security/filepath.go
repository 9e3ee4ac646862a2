package security

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	ErrPathTraversal = errors.New("path traversal detected")
	ErrInvalidPath   = errors.New("invalid file path")
)

// ValidateFilePath checks if a file path is safe to use. When baseDir
// is given the resolved path must stay inside it.
func ValidateFilePath(path, baseDir string) error {
	if path == "" {
		return ErrInvalidPath
	}

	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return ErrPathTraversal
	}

	if baseDir != "" {
		absBase, err := filepath.Abs(baseDir)
		if err != nil {
			return err
		}
		absPath, err := filepath.Abs(cleanPath)
		if err != nil {
			return err
		}
		if !strings.HasPrefix(absPath, absBase) {
			return ErrPathTraversal
		}
	}

	return nil
}

// ValidateFileName rejects names that are empty or carry directory
// components. Records store bare image filenames; anything else is a
// traversal attempt.
func ValidateFileName(name string) error {
	if name == "" {
		return ErrInvalidPath
	}
	if name != filepath.Base(name) {
		return ErrPathTraversal
	}
	if name == "." || name == ".." {
		return ErrPathTraversal
	}
	return nil
}
