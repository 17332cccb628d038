package kv

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/peterbourgon/diskv/v3"
)

// Disk is a Store backed by one file per key in a directory.
type Disk struct {
	d *diskv.Diskv
}

// NewDisk opens (creating if needed) a disk store rooted at basePath.
// Writes go through a temporary file in the same tree and are renamed into
// place, so a value is never observed half-written.
func NewDisk(basePath string) (*Disk, error) {
	if basePath == "" {
		return nil, errors.New("kv: empty base path")
	}
	tmp := filepath.Join(basePath, ".tmp")
	if err := os.MkdirAll(tmp, 0o700); err != nil {
		return nil, fmt.Errorf("kv: mkdir failed: %w", err)
	}
	return &Disk{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			TempDir:      tmp,
			Transform:    func(string) []string { return []string{} },
			CacheSizeMax: 1024 * 1024, // 1MB
			PathPerm:     0o700,
			FilePerm:     0o600,
		}),
	}, nil
}

// Get returns the value for key or ErrNotFound.
func (s *Disk) Get(key string) (string, error) {
	val, err := s.d.Read(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("kv: read %s: %w", key, err)
	}
	return string(val), nil
}

// Set stores the value for key.
func (s *Disk) Set(key, value string) error {
	if err := s.d.Write(key, []byte(value)); err != nil {
		return fmt.Errorf("kv: write %s: %w", key, err)
	}
	return nil
}

// Remove deletes key; missing keys are ignored.
func (s *Disk) Remove(key string) error {
	if !s.d.Has(key) {
		return nil
	}
	if err := s.d.Erase(key); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("kv: erase %s: %w", key, err)
	}
	return nil
}
