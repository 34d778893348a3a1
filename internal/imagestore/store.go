package imagestore

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const DefaultMaxSize = 10 * 1024 * 1024 // 10 MB

// AllowedExtensions is the image allow-list. Anything else is rejected
// before a single byte hits the disk.
var AllowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

var (
	ErrMissingFile   = errors.New("no image provided")
	ErrEmptyFilename = errors.New("image has no filename")
	ErrBadExtension  = errors.New("image type is not allowed")
	ErrTooLarge      = errors.New("image exceeds maximum allowed size")
)

// Store writes uploaded images to a directory on local disk and hands
// back paths relative to the static root ("uploads/<name>"), which is
// what entry rows reference.
type Store struct {
	baseDir string // absolute or cwd-relative dir the files live in
	urlDir  string // path prefix stored in entry rows and used in URLs
	maxSize int64
}

func New(baseDir string, maxSize int64) *Store {
	if baseDir == "" {
		baseDir = "static/uploads"
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Store{baseDir: baseDir, urlDir: "uploads", maxSize: maxSize}
}

// BaseDir is where the files actually live on disk.
func (s *Store) BaseDir() string { return s.baseDir }

// Save validates and writes an uploaded image, returning its relative
// reference. Nothing is written when validation fails.
func (s *Store) Save(fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader == nil {
		return "", ErrMissingFile
	}
	if strings.TrimSpace(fileHeader.Filename) == "" {
		return "", ErrEmptyFilename
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !AllowedExtensions[ext] {
		return "", ErrBadExtension
	}
	if fileHeader.Size > s.maxSize {
		return "", ErrTooLarge
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	// uuid prefix makes the name collision-proof; the sanitized original
	// base is kept only for operator readability.
	filename := fmt.Sprintf("%s_%s%s", uuid.New().String(), sanitizeName(fileHeader.Filename), ext)
	absPath := filepath.Join(s.baseDir, filename)

	dst, err := os.Create(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(absPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return s.urlDir + "/" + filename, nil
}

// Remove deletes a stored image by its relative reference. References
// that escape the store (path traversal, absolute paths) are refused.
// A missing file is not an error: the caller treats removal as
// best-effort anyway.
func (s *Store) Remove(relPath string) error {
	name, ok := s.filenameFromRef(relPath)
	if !ok {
		return fmt.Errorf("invalid image reference %q", relPath)
	}
	err := os.Remove(filepath.Join(s.baseDir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Exists reports whether the referenced file is on disk.
func (s *Store) Exists(relPath string) bool {
	name, ok := s.filenameFromRef(relPath)
	if !ok {
		return false
	}
	_, err := os.Stat(filepath.Join(s.baseDir, name))
	return err == nil
}

func (s *Store) filenameFromRef(relPath string) (string, bool) {
	name, found := strings.CutPrefix(relPath, s.urlDir+"/")
	if !found || name == "" {
		return "", false
	}
	if name != filepath.Base(name) || name == ".." {
		return "", false
	}
	return name, true
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '_'
	}, name)
	if len(name) > 40 {
		name = name[:40]
	}
	if name == "" {
		return "image"
	}
	return name
}
