package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"smartbrief/internal/domain"
)

// FileStore keeps the document in memory and rewrites the JSON file after
// every successful Put, so an interrupted run resumes from what it stored.
type FileStore struct {
	mu   sync.Mutex
	path string
	doc  Document
}

func OpenFile(path string) (*FileStore, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	return &FileStore{path: path, doc: doc}, nil
}

// ReadFile loads the cache document without taking ownership of it.
// A missing file is an empty document.
func ReadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(Document), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	doc := make(Document)
	if len(data) == 0 {
		return doc, nil
	}

	if err = json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode cache file (path = %s): %w", path, err)
	}

	return doc, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(date, key string) (domain.DigestEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.doc.get(date, key)
}

func (s *FileStore) Put(date, key string, entry domain.DigestEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.doc.put(date, key, entry) {
		return false, nil
	}

	if err := s.flushLocked(); err != nil {
		delete(s.doc[date].Locations, key)
		return false, err
	}

	return true, nil
}

func (s *FileStore) DailyQuote(date string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.doc.quote(date)
}

func (s *FileStore) PutDailyQuote(date, text string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.doc.putQuote(date, text) {
		return false, nil
	}

	if err := s.flushLocked(); err != nil {
		s.doc[date].Quote = ""
		return false, err
	}

	return true, nil
}

func (s *FileStore) flushLocked() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}

	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err = os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace cache file: %w", err)
	}

	return nil
}
