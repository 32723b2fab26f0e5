// Package security validates local files before they are read or uploaded.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxUploadBytes is the largest CV file accepted for upload.
const MaxUploadBytes int64 = 10 << 20

// ErrUploadTooLarge is returned for files above the size limit.
var ErrUploadTooLarge = errors.New("file exceeds upload size limit")

// dangerousChars contains shell metacharacters that could be used for injection attacks.
var dangerousChars = []string{";", "&", "|", "$", "`", "(", ")", "{", "}", "<", ">", "!", "\n", "\r"}

// ValidateFilePath cleans path, makes it absolute and resolves symlinks.
// Paths with shell metacharacters are rejected.
func ValidateFilePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("file path cannot be empty")
	}

	for _, char := range dangerousChars {
		if strings.Contains(path, char) {
			return "", fmt.Errorf("file path contains forbidden character %q: %s", char, path)
		}
	}

	cleanPath := filepath.Clean(path)
	if !filepath.IsAbs(cleanPath) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		cleanPath = filepath.Join(cwd, cleanPath)
	}

	resolvedPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cleanPath, nil
		}
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}

	return resolvedPath, nil
}

// Upload is a validated file opened for upload.
type Upload struct {
	*os.File
	// Name is the base name sent to the server.
	Name string
	Size int64
}

// OpenUpload validates path and opens it for upload. The file must be a
// regular, non-empty file no larger than maxBytes; maxBytes <= 0 means
// MaxUploadBytes.
func OpenUpload(path string, maxBytes int64) (*Upload, error) {
	if maxBytes <= 0 {
		maxBytes = MaxUploadBytes
	}

	cleanPath, err := ValidateFilePath(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, err
	}
	switch {
	case !info.Mode().IsRegular():
		return nil, fmt.Errorf("%s is not a regular file", path)
	case info.Size() == 0:
		return nil, fmt.Errorf("%s is empty", path)
	case info.Size() > maxBytes:
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrUploadTooLarge, path, info.Size(), maxBytes)
	}

	// #nosec G304 - path is validated above
	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, err
	}
	return &Upload{File: f, Name: filepath.Base(path), Size: info.Size()}, nil
}
