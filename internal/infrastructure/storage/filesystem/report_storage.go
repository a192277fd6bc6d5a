package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/port"
)

// ReportStorage publishes report artifacts under a local directory.
// Writes go to a temp file in the target directory and are renamed into place.
type ReportStorage struct {
	root string
}

func NewReportStorage(root string) (*ReportStorage, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("reports directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create reports directory: %w", err)
	}
	return &ReportStorage{root: root}, nil
}

func (s *ReportStorage) Write(ctx context.Context, objectPath string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := s.resolve(objectPath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to replace %s: %w", objectPath, err)
	}

	return nil
}

func (s *ReportStorage) LastModified(ctx context.Context, objectPath string) (*time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target, err := s.resolve(objectPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", objectPath, err)
	}

	modified := info.ModTime().UTC()
	return &modified, nil
}

func (s *ReportStorage) Read(ctx context.Context, objectPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target, err := s.resolve(objectPath)
	if err != nil {
		return nil, err
	}

	body, err := os.ReadFile(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, port.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", objectPath, err)
	}

	return body, nil
}

// resolve maps an object path to a file under root, rejecting paths that escape it.
func (s *ReportStorage) resolve(objectPath string) (string, error) {
	cleaned := filepath.Clean("/" + strings.TrimSpace(objectPath))
	if cleaned == "/" {
		return "", fmt.Errorf("object path is required")
	}
	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}
