package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mpc-refresher/internal/application/port/output"
	"mpc-refresher/internal/domain/entity"
)

var _ output.SnapshotStore = (*FileStore)(nil)

// FileStore writes failure screenshots to a directory.
type FileStore struct {
	dir string
	now func() time.Time
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, now: time.Now}
}

func (s *FileStore) Save(ctx context.Context, name string, shot *entity.Screenshot) (string, error) {
	if shot == nil || len(shot.Data) == 0 {
		return "", fmt.Errorf("empty screenshot")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	ext := shot.Format
	if ext == "" {
		ext = "jpeg"
	}
	filename := fmt.Sprintf("%s_%s.%s", s.now().Format("2006-01-02_15-04-05"), safeName(name), ext)
	path := filepath.Join(s.dir, filename)

	if err := os.WriteFile(path, shot.Data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

func safeName(s string) string {
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '_'
	}, s)
	if s == "" {
		return "snapshot"
	}
	return s
}
