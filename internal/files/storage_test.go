package files

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/erp-backend/config"
	"github.com/GoSim-25-26J-441/erp-backend/internal/apperr"
)

var savedName = regexp.MustCompile(`^/uploads/report_[0-9a-f-]{36}\.pdf$`)

func TestCheckName(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		ext     string
		wantErr bool
	}{
		{"pdf", "report.pdf", ".pdf", false},
		{"upper case", "PHOTO.JPG", ".jpg", false},
		{"windows path", `C:\docs\sheet.xlsx`, ".xlsx", false},
		{"executable", "run.exe", "", true},
		{"no extension", "README", "", true},
		{"empty", " ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := checkName(tt.file)
			if tt.wantErr {
				assert.True(t, apperr.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ext, ext)
		})
	}
}

func TestCleanRel(t *testing.T) {
	for in, want := range map[string]string{
		"/uploads/a.pdf":   "uploads/a.pdf",
		"uploads//b.txt":   "uploads/b.txt",
		`uploads\c.png`:    "uploads/c.png",
		"/invoices/2025/x": "invoices/2025/x",
	} {
		got, err := cleanRel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	for _, bad := range []string{"../etc/passwd", "/uploads/../../secret", `..\win.ini`, "/", ""} {
		_, err := cleanRel(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}

func TestUniqueName(t *testing.T) {
	a := uniqueName("my report (1).pdf", ".pdf")
	b := uniqueName("my report (1).pdf", ".pdf")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "my_report__1__"), a)
	assert.True(t, strings.HasSuffix(a, ".pdf"))
}

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewLocalStorage(base)
	require.NoError(t, err)

	p, err := s.Save(ctx, strings.NewReader("%PDF-1.4"), "report.pdf", "")
	require.NoError(t, err)
	assert.Regexp(t, savedName, p)

	_, err = os.Stat(filepath.Join(base, filepath.FromSlash(p)))
	require.NoError(t, err)

	ok, err := s.Exists(ctx, p)
	require.NoError(t, err)
	assert.True(t, ok)

	rc, info, err := s.Open(ctx, p)
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "%PDF-1.4", string(body))
	assert.Equal(t, int64(8), info.Size)
	assert.Equal(t, "application/pdf", info.ContentType)

	require.NoError(t, s.Delete(ctx, p))
	ok, err = s.Exists(ctx, p)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, s.Delete(ctx, p), ErrNotFound)
}

func TestLocalStorage_Rules(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save(ctx, strings.NewReader(""), "empty.txt", "")
	assert.True(t, apperr.IsValidation(err))

	_, err = s.Save(ctx, bytes.NewReader(make([]byte, MaxFileSize+1)), "big.txt", "")
	assert.True(t, apperr.IsValidation(err))

	_, err = s.Save(ctx, strings.NewReader("x"), "a.txt", "../outside")
	assert.ErrorIs(t, err, ErrInvalidPath)

	p, err := s.Save(ctx, strings.NewReader("x"), "a.txt", "invoices/2025")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, "/invoices/2025/a_"))

	_, _, err = s.Open(ctx, "/../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, _, err = s.Open(ctx, "/uploads")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNew(t *testing.T) {
	s, err := New(context.Background(), config.StorageConfig{Driver: "local", BasePath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)

	_, err = New(context.Background(), config.StorageConfig{Driver: "ftp"})
	assert.Error(t, err)

	_, err = New(context.Background(), config.StorageConfig{Driver: "s3"})
	assert.Error(t, err, "bucket is required")
}
