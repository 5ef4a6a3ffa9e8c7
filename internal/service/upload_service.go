package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UploadService persists raw uploads into the upload directory under a
// generated stored name, keeping the client's name as provenance only.
type UploadService struct {
	uploadDir  string
	extensions map[string]bool
}

func NewUploadService(uploadDir string, allowedExtensions []string) *UploadService {
	exts := make(map[string]bool, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		exts[strings.ToLower(ext)] = true
	}
	return &UploadService{
		uploadDir:  uploadDir,
		extensions: exts,
	}
}

// AllowedExtension reports whether the original file name passes the
// configured extension allow-list.
func (s *UploadService) AllowedExtension(originalName string) bool {
	return s.extensions[strings.ToLower(filepath.Ext(originalName))]
}

// Save streams the upload to disk and returns the stored name and the byte
// count actually written. The stored name is a UUID plus the original
// extension, so concurrent uploads of the same file never collide.
func (s *UploadService) Save(originalName string, src io.Reader) (storedName string, size int64, err error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create upload dir: %w", err)
	}

	storedName = uuid.New().String() + strings.ToLower(filepath.Ext(originalName))
	dstPath := filepath.Join(s.uploadDir, storedName)

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", 0, fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	size, err = io.Copy(dst, src)
	if err != nil {
		os.Remove(dstPath)
		return "", 0, fmt.Errorf("write upload file: %w", err)
	}
	return storedName, size, nil
}

// InputPath resolves a stored name inside the upload directory.
func (s *UploadService) InputPath(storedName string) string {
	return filepath.Join(s.uploadDir, storedName)
}
