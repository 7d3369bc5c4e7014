package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kukshaus/family-planner/docdb"
)

// Dir keeps backups as files in a local directory. Log, when set,
// receives Decode warnings.
type Dir struct {
	Path string
	Log  *zap.Logger
}

func (d Dir) file(name string) string {
	return filepath.Join(d.Path, filepath.Base(name))
}

func (d Dir) Save(_ context.Context, name string, snap docdb.Snapshot) error {
	if err := os.MkdirAll(d.Path, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	tmp, err := os.CreateTemp(d.Path, ".backup-*")
	if err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, snap); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	if err := os.Rename(tmp.Name(), d.file(name)); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

func (d Dir) Load(_ context.Context, name string) (docdb.Snapshot, error) {
	f, err := os.Open(d.file(name))
	if err != nil {
		return nil, fmt.Errorf("open backup: %w", err)
	}
	defer f.Close()
	return Decode(f, d.Log)
}
