// Package storage persists uploaded images under category directories.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/iliyamo/repairhub/internal/apperr"
)

// Category selects the directory an upload lands in.
type Category string

const (
	TaskImage         Category = "task_image"
	SlipImage         Category = "slip_image"
	IDCardImage       Category = "id_card_image"
	UserProfile       Category = "user_profile_image"
	TechnicianProfile Category = "technician_profile_image"
)

var categoryDirs = map[Category]string{
	TaskImage:         "tasks/images",
	SlipImage:         "payments/slips",
	IDCardImage:       "registration/id_card",
	UserProfile:       "users/profile",
	TechnicianProfile: "technicians/profile",
}

var allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

// Upload is one file received from a client.
type Upload struct {
	Filename string
	Body     io.Reader
}

// FileStore is the file collaborator used by the services.
type FileStore interface {
	Store(ctx context.Context, c Category, u Upload) (string, error)
	Delete(ctx context.Context, p string) error
}

// DiskStore keeps files on an afero filesystem rooted at the upload dir.
type DiskStore struct{ fs afero.Fs }

// NewDiskStore roots a store at dir on the OS filesystem.
func NewDiskStore(dir string) *DiskStore {
	return NewStore(afero.NewBasePathFs(afero.NewOsFs(), dir))
}

// NewStore wraps an arbitrary afero filesystem; tests pass a MemMapFs.
func NewStore(fs afero.Fs) *DiskStore { return &DiskStore{fs: fs} }

// Store writes the upload under a fresh uuid name and returns the relative
// path. Only image extensions are accepted.
func (s *DiskStore) Store(ctx context.Context, c Category, u Upload) (string, error) {
	dir, ok := categoryDirs[c]
	if !ok {
		return "", fmt.Errorf("storage: unknown category %q", c)
	}
	ext := strings.ToLower(path.Ext(u.Filename))
	if !allowedExt[ext] {
		return "", apperr.Validation("unsupported image type " + ext)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	p := path.Join(dir, uuid.NewString()+ext)
	f, err := s.fs.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, u.Body); err != nil {
		f.Close()
		_ = s.fs.Remove(p)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(p)
		return "", err
	}
	return p, nil
}

// Delete removes a stored file. A missing file is not an error.
func (s *DiskStore) Delete(_ context.Context, p string) error {
	clean := path.Clean(strings.TrimPrefix(p, "/"))
	if clean == "." || strings.HasPrefix(clean, "..") {
		return apperr.Validation("invalid file path")
	}
	err := s.fs.Remove(clean)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Exists reports whether p is present.
func (s *DiskStore) Exists(p string) (bool, error) {
	return afero.Exists(s.fs, path.Clean(strings.TrimPrefix(p, "/")))
}
