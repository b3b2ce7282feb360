package bookings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileStore implements Store with one YAML file per owner under a base
// directory. The format is human-inspectable; a user can read and even
// hand-edit their booking file.
//
// Only one process is expected to hold an owner's file at a time;
// concurrent access from two processes is undefined behavior.
type FileStore struct {
	baseDir string // absolute; all records live directly inside it
}

// NewFileStore creates a file-backed booking store rooted at baseDir.
// The directory is created if it does not exist.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		return nil, ErrInvalidConfig
	}

	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve base directory: %v", ErrInvalidConfig, err)
	}

	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("%w: create base directory: %v", ErrInvalidConfig, err)
	}

	return &FileStore{baseDir: abs}, nil
}

// Load reads the owner's record. A missing file yields an empty map.
func (s *FileStore) Load(ctx context.Context, owner string) (map[string]Booking, error) {
	path, err := s.path(owner)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]Booking), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}

	records := make(map[string]Booking)
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, errors.Join(ErrCorruptStore, err)
	}
	if records == nil {
		records = make(map[string]Booking)
	}
	return records, nil
}

// Save writes the full mapping to a temporary file in the base
// directory and renames it over the owner's record, so a crashed write
// never leaves a truncated file behind.
func (s *FileStore) Save(ctx context.Context, owner string, records map[string]Booking) error {
	path, err := s.path(owner)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(records)
	if err != nil {
		return errors.Join(ErrSaveFailed, err)
	}

	tmp, err := os.CreateTemp(s.baseDir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Join(ErrSaveFailed, err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return errors.Join(ErrSaveFailed, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Join(ErrSaveFailed, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Join(ErrSaveFailed, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Join(ErrSaveFailed, err)
	}
	return nil
}

// path maps an owner identifier to its record file, sanitizing the
// identifier so it cannot escape the base directory.
func (s *FileStore) path(owner string) (string, error) {
	name := sanitizeOwner(owner)
	if name == "" {
		return "", ErrInvalidOwner
	}
	return filepath.Join(s.baseDir, name+".yaml"), nil
}

// sanitizeOwner keeps only characters safe for a filename.
func sanitizeOwner(owner string) string {
	var b strings.Builder
	for _, r := range owner {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), ".")
}
