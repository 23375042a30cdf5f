package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

type fileBackend struct {
	dir string
}

// NewFile returns a Store writing one JSON document per profile under dir.
func NewFile(dir string) *Repo {
	return newRepo(&fileBackend{dir: dir})
}

func (b *fileBackend) path(id string) string {
	return filepath.Join(b.dir, id+".json")
}

func (b *fileBackend) get(_ context.Context, id string) ([]byte, error) {
	data, err := os.ReadFile(b.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", id, err)
	}
	return data, nil
}

// put replaces the file through a rename so a crash never leaves half a record.
func (b *fileBackend) put(_ context.Context, id string, data []byte) error {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(b.dir, id+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp profile: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write profile %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close profile %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), b.path(id)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace profile %s: %w", id, err)
	}
	return nil
}
