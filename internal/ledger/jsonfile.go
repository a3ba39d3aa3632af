package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"intake-agent/internal/domain"
)

// FileStore keeps the ledger as a pretty-printed JSON array on disk. Every
// operation holds the mutex across the whole read-modify-write cycle, so
// concurrent upload completions cannot interleave and overwrite each other.
type FileStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewFileStore creates a FileStore writing to path. The file is created on
// first write; a missing file reads as an empty ledger.
func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("ledger: file path must not be empty")
	}
	return &FileStore{path: path, now: time.Now}, nil
}

func (s *FileStore) IsEmailUsed(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *FileStore) RecordAttempt(_ context.Context, email string, status domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Email == email {
			// First write wins; the entry keeps its original timestamp.
			return nil
		}
	}
	entries = append(entries, domain.LedgerEntry{
		Email:     email,
		Timestamp: s.timestamp(),
		Status:    status,
	})
	return s.save(entries)
}

func (s *FileStore) UpdateOutcome(_ context.Context, email, fileName string, status domain.Status, extra Extra) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	found := false
	for i := range entries {
		if entries[i].Email != email {
			continue
		}
		entries[i].FileName = fileName
		entries[i].Status = status
		if extra.NotifiedAdmins != "" {
			entries[i].NotifiedAdmins = extra.NotifiedAdmins
		}
		if extra.Error != "" {
			entries[i].Error = extra.Error
		}
		found = true
		break
	}
	if !found {
		// The attempt record may not exist yet; append rather than drop.
		entries = append(entries, domain.LedgerEntry{
			Email:          email,
			Timestamp:      s.timestamp(),
			FileName:       fileName,
			Status:         status,
			NotifiedAdmins: extra.NotifiedAdmins,
			Error:          extra.Error,
		})
	}
	return s.save(entries)
}

func (s *FileStore) load() ([]domain.LedgerEntry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: read %s: %w", s.path, err)
	}
	var entries []domain.LedgerEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("ledger: parse %s: %w", s.path, err)
	}
	return entries, nil
}

func (s *FileStore) save(entries []domain.LedgerEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger: marshal: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("ledger: write %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
