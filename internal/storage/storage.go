package storage

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// MaxUploadSize caps document uploads at 5MB.
const MaxUploadSize = 5 << 20

var (
	ErrFileTooLarge    = errors.New("file exceeds the 5MB limit")
	ErrUnsupportedType = errors.New("only images or PDFs allowed")
)

// Store persists uploaded document blobs and returns the public path they
// are served under. Removal is best-effort: callers log failures and
// proceed with the logical operation.
type Store interface {
	Save(c *gin.Context, ownerID string, file *multipart.FileHeader) (string, error)
	Remove(publicPath string)
}

// ValidateUpload checks size and mime type before a blob is accepted.
func ValidateUpload(file *multipart.FileHeader) error {
	if file.Size > MaxUploadSize {
		return ErrFileTooLarge
	}
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") && contentType != "application/pdf" {
		return ErrUnsupportedType
	}
	return nil
}

// LocalStore writes blobs to a directory on disk, served under /uploads.
type LocalStore struct {
	dir string
}

// NewLocalStore ensures the upload directory exists.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Save stores the file as <ownerID>-<timestamp><ext> and returns the
// public /uploads path recorded on the entity.
func (s *LocalStore) Save(c *gin.Context, ownerID string, file *multipart.FileHeader) (string, error) {
	if err := ValidateUpload(file); err != nil {
		return "", err
	}

	ext := filepath.Ext(file.Filename)
	name := fmt.Sprintf("%s-%d%s", ownerID, time.Now().UnixNano(), ext)
	if err := c.SaveUploadedFile(file, filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}

	return "/uploads/" + name, nil
}

// Remove deletes the blob behind a public path. Failures are logged, never
// propagated: a missing blob must not block the logical replace/delete.
func (s *LocalStore) Remove(publicPath string) {
	if publicPath == "" {
		return
	}
	name := filepath.Base(publicPath)
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		log.Printf("storage: failed to remove blob %s: %v", name, err)
	}
}
