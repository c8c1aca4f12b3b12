package local

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vbonduro/housecheck/internal/backup"
)

// LocalBackupStore keeps one JSON file per session under basePath.
type LocalBackupStore struct {
	basePath string
}

func NewLocalBackupStore(basePath string) (*LocalBackupStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &LocalBackupStore{basePath: basePath}, nil
}

func (s *LocalBackupStore) Save(ctx context.Context, entry *backup.Entry) error {
	filePath, err := s.pathFor(entry.SessionID)
	if err != nil {
		return err
	}

	data, err := backup.Encode(entry)
	if err != nil {
		return err
	}

	// Write to a temp file and rename so a crash never leaves a torn backup.
	tmp, err := os.CreateTemp(s.basePath, ".backup-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		if cerr := tmp.Close(); cerr != nil {
			slog.Error("failed to close temp file after write error", "error", cerr)
		}
		removeQuietly(tmp.Name())
		return fmt.Errorf("failed to write backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		removeQuietly(tmp.Name())
		return fmt.Errorf("failed to close backup: %w", err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		removeQuietly(tmp.Name())
		return fmt.Errorf("failed to replace backup: %w", err)
	}
	return nil
}

func (s *LocalBackupStore) Load(ctx context.Context, sessionID string) (*backup.Entry, error) {
	filePath, err := s.pathFor(sessionID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	return backup.Decode(data)
}

func (s *LocalBackupStore) Delete(ctx context.Context, sessionID string) error {
	filePath, err := s.pathFor(sessionID)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete backup: %w", err)
	}
	return nil
}

// pathFor maps a session's backup key to a file inside basePath and rejects
// keys that would escape it.
func (s *LocalBackupStore) pathFor(sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("empty session id")
	}
	name := strings.ReplaceAll(backup.Key(sessionID), ":", "_") + ".json"

	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(s.basePath, name))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	if filepath.Dir(absPath) != absBase {
		return "", fmt.Errorf("path traversal attempt")
	}
	return absPath, nil
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil {
		slog.Error("failed to remove temp file", "path", path, "error", err)
	}
}
