package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"TokenBoard/internal/model"
)

// boardFile is the on-disk layout of a FileStore.
type boardFile struct {
	Tokens    []model.Token `json:"tokens"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// FileStore keeps the board in a single JSON file.
type FileStore struct {
	mu       sync.Mutex
	filePath string
}

// NewFileStore creates the parent directory if needed. A missing file reads
// as an empty board.
func NewFileStore(filePath string) (*FileStore, error) {
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	return &FileStore{filePath: filePath}, nil
}

func (s *FileStore) List(_ context.Context) ([]model.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.load()
	if err != nil {
		return nil, err
	}
	return b.Tokens, nil
}

func (s *FileStore) Append(_ context.Context, tok model.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.load()
	if err != nil {
		return err
	}
	if indexOf(b.Tokens, tok.Address) >= 0 {
		return ErrDuplicate
	}
	b.Tokens = append(b.Tokens, tok)
	return s.write(b)
}

func (s *FileStore) Save(_ context.Context, tokens []model.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(&boardFile{Tokens: tokens})
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) load() (*boardFile, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &boardFile{}, nil
		}
		return nil, err
	}
	var b boardFile
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.filePath, err)
	}
	return &b, nil
}

// write replaces the file atomically via a temp file and rename.
func (s *FileStore) write(b *boardFile) error {
	if b.Tokens == nil {
		b.Tokens = []model.Token{}
	}
	b.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.filePath)
}
