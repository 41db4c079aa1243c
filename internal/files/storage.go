// Package files stores uploaded documents on local disk or in S3. Both
// backends apply the same rules on names, extensions, sizes and paths.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GoSim-25-26J-441/erp-backend/config"
	"github.com/GoSim-25-26J-441/erp-backend/internal/apperr"
)

const (
	MaxFileSize   = 10 * 1024 * 1024
	DefaultFolder = "uploads"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrInvalidPath = errors.New("invalid file path")
)

var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".txt": true,
}

type FileInfo struct {
	Path        string
	Size        int64
	ModTime     time.Time
	ContentType string
}

// Storage keeps files addressed by their public path, "/{folder}/{file}".
type Storage interface {
	Save(ctx context.Context, r io.Reader, fileName, folder string) (string, error)
	Open(ctx context.Context, filePath string) (io.ReadCloser, FileInfo, error)
	Delete(ctx context.Context, filePath string) error
	Exists(ctx context.Context, filePath string) (bool, error)
	Stat(ctx context.Context, filePath string) (FileInfo, error)
}

// New picks the backend named by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "local":
		return NewLocalStorage(cfg.BasePath)
	case "s3":
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown file storage driver %q", cfg.Driver)
	}
}

func invalid(message string) error {
	return apperr.NewValidationError(apperr.Failure{Property: "File", Message: message})
}

// checkName validates the client file name and returns its lower-cased extension.
func checkName(fileName string) (string, error) {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), `\`, "/"))
	if base == "" || base == "." || base == "/" {
		return "", invalid("File name is required.")
	}
	ext := strings.ToLower(path.Ext(base))
	if !allowedExtensions[ext] {
		return "", invalid(fmt.Sprintf("File type %s is not allowed.", ext))
	}
	return ext, nil
}

func checkSize(size int64) error {
	if size <= 0 {
		return invalid("File is empty.")
	}
	if size > MaxFileSize {
		return invalid("File exceeds the 10MB limit.")
	}
	return nil
}

// uniqueName is {base}_{uuid}{ext} with the base stripped of anything that
// is not safe in a path segment.
func uniqueName(fileName, ext string) string {
	base := path.Base(strings.ReplaceAll(fileName, `\`, "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		base = "file"
	}
	return base + "_" + uuid.NewString() + ext
}

// cleanRel turns a public path or folder into a slash-separated relative
// path. Anything escaping the root is rejected.
func cleanRel(p string) (string, error) {
	p = strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", ErrInvalidPath
		}
	}
	clean := strings.TrimPrefix(path.Clean("/"+p), "/")
	if clean == "" {
		return "", ErrInvalidPath
	}
	return clean, nil
}

func folderOrDefault(folder string) (string, error) {
	if strings.TrimSpace(folder) == "" {
		folder = DefaultFolder
	}
	return cleanRel(folder)
}

func contentType(p string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(p))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// readLimited reads at most MaxFileSize bytes and fails when r holds more.
func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := checkSize(int64(len(data))); err != nil {
		return nil, err
	}
	return data, nil
}
