package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage keeps files under a base directory.
type LocalStorage struct {
	base string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if basePath == "" {
		basePath = "wwwroot"
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage path: %w", err)
	}
	return &LocalStorage{base: abs}, nil
}

// resolve maps a public path onto the disk and refuses anything outside base.
func (s *LocalStorage) resolve(filePath string) (string, error) {
	rel, err := cleanRel(filePath)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.base, filepath.FromSlash(rel))
	r, err := filepath.Rel(s.base, full)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return full, nil
}

func (s *LocalStorage) Save(ctx context.Context, r io.Reader, fileName, folder string) (string, error) {
	ext, err := checkName(fileName)
	if err != nil {
		return "", err
	}
	dir, err := folderOrDefault(folder)
	if err != nil {
		return "", err
	}
	data, err := readLimited(r)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	public := "/" + path.Join(dir, uniqueName(fileName, ext))
	full, err := s.resolve(public)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create folder: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return public, nil
}

func (s *LocalStorage) Open(_ context.Context, filePath string) (io.ReadCloser, FileInfo, error) {
	full, err := s.resolve(filePath)
	if err != nil {
		return nil, FileInfo{}, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, FileInfo{}, notFound(err)
	}
	st, err := f.Stat()
	if err != nil || st.IsDir() {
		f.Close()
		return nil, FileInfo{}, ErrNotFound
	}
	return f, s.info(filePath, st), nil
}

func (s *LocalStorage) Delete(_ context.Context, filePath string) error {
	full, err := s.resolve(filePath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		return notFound(err)
	}
	return nil
}

func (s *LocalStorage) Exists(ctx context.Context, filePath string) (bool, error) {
	_, err := s.Stat(ctx, filePath)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *LocalStorage) Stat(_ context.Context, filePath string) (FileInfo, error) {
	full, err := s.resolve(filePath)
	if err != nil {
		return FileInfo{}, err
	}
	st, err := os.Stat(full)
	if err != nil {
		return FileInfo{}, notFound(err)
	}
	if st.IsDir() {
		return FileInfo{}, ErrNotFound
	}
	return s.info(filePath, st), nil
}

func (s *LocalStorage) info(filePath string, st fs.FileInfo) FileInfo {
	return FileInfo{Path: filePath, Size: st.Size(), ModTime: st.ModTime(), ContentType: contentType(filePath)}
}

func notFound(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
