package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"bigbudget/internal/payroll"
)

const (
	budgetFile = "budgetData.json"
	usersFile  = "paycheckUsers.json"
)

// FileStore persists the snapshot and the paycheck user list as JSON files
// in a data directory. Missing or corrupt files load as an empty data set:
// bad durable state means "first run", never an error the caller has to
// handle.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) LoadSnapshot(_ context.Context) (Snapshot, error) {
	var snap Snapshot
	if !s.readJSON(budgetFile, &snap) {
		return Snapshot{}, nil
	}
	return snap, nil
}

func (s *FileStore) SaveSnapshot(_ context.Context, snap Snapshot) error {
	return s.writeJSON(budgetFile, snap)
}

func (s *FileStore) LoadUsers(_ context.Context) ([]payroll.User, error) {
	var users []payroll.User
	if !s.readJSON(usersFile, &users) {
		return nil, nil
	}
	return users, nil
}

func (s *FileStore) SaveUsers(_ context.Context, users []payroll.User) error {
	if users == nil {
		users = []payroll.User{}
	}
	return s.writeJSON(usersFile, users)
}

func (s *FileStore) readJSON(name string, v any) bool {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Snapshot file unreadable, starting empty", "path", path, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		slog.Warn("Snapshot file corrupt, starting empty", "path", path, "error", err)
		return false
	}
	return true
}

func (s *FileStore) writeJSON(name string, v any) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
