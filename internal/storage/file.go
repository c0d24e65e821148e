// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// FileStore keeps template content as plain files. Paths are absolute
// and already resolved against the owning site's root directory.
type FileStore struct {
	dirPerm  fs.FileMode
	filePerm fs.FileMode
}

// NewFileStore creates a FileStore writing files with mode 0644 into
// directories created with mode 0755.
func NewFileStore() *FileStore {
	return &FileStore{dirPerm: 0o755, filePerm: 0o644}
}

// Read returns the file content and whether the file exists.
func (s *FileStore) Read(_ context.Context, path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read template file %s: %w", path, err)
	}
	return string(data), true, nil
}

// Stage writes content to a temporary file next to path. The file at
// path is replaced only when the returned Staged is committed.
func (s *FileStore) Stage(_ context.Context, path, content string) (Staged, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, s.dirPerm); err != nil {
		return nil, fmt.Errorf("create template dir %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp template file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.WriteString(content); err != nil {
		tmpFile.Close()
		return nil, fmt.Errorf("write temp template file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return nil, fmt.Errorf("close temp template file: %w", err)
	}
	if err := os.Chmod(tmpPath, s.filePerm); err != nil {
		return nil, fmt.Errorf("chmod temp template file: %w", err)
	}

	success = true
	return &fileStage{tmpPath: tmpPath, path: path}, nil
}

// Write stages and commits content in one step.
func (s *FileStore) Write(ctx context.Context, path, content string) error {
	st, err := s.Stage(ctx, path, content)
	if err != nil {
		return err
	}
	return st.Commit(ctx)
}

// Delete removes the file at path. A missing file is not an error.
func (s *FileStore) Delete(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete template file %s: %w", path, err)
	}
	return nil
}

type fileStage struct {
	tmpPath string
	path    string
	done    bool
}

func (f *fileStage) Commit(_ context.Context) error {
	if f.done {
		return errors.New("staged write already finished")
	}
	f.done = true
	if err := os.Rename(f.tmpPath, f.path); err != nil {
		os.Remove(f.tmpPath)
		return fmt.Errorf("rename template file to %s: %w", f.path, err)
	}
	return nil
}

func (f *fileStage) Abort() error {
	if f.done {
		return nil
	}
	f.done = true
	if err := os.Remove(f.tmpPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to remove staged template file", "path", f.tmpPath, "error", err)
		return fmt.Errorf("remove staged template file: %w", err)
	}
	return nil
}
