package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

// IOError is a read or write failure against the backing file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Store is a small persistent key/value store backed by a single JSON file.
//
// The file is read once, on first use. Every Set/Remove rewrites the whole file;
// writes are chained so that only one is ever in flight and they land in the order
// the calls were made. A failed write is logged and returned but leaves the
// in-memory value in place, the next successful write persists it.
type Store struct {
	logger *log.Logger
	path   string

	loadOnce sync.Once

	mu   sync.Mutex
	data map[string]json.RawMessage
	// closed when the most recently queued write has finished
	tail chan struct{}
}

func NewStore(logger *log.Logger, path string) *Store {
	tail := make(chan struct{})
	close(tail)
	return &Store{logger: logger, path: path, tail: tail}
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() {
	s.loadOnce.Do(func() {
		data := map[string]json.RawMessage{}

		b, err := os.ReadFile(s.path)
		if err != nil {
			s.logger.Error("Unable to open the storage file", "err", &IOError{Op: "read", Path: s.path, Err: err})
		} else if err := json.Unmarshal(b, &data); err != nil {
			s.logger.Error("Unable to parse the storage file", "path", s.path, "err", err)
			data = map[string]json.RawMessage{}
		}
		if data == nil {
			// the file held a JSON null
			data = map[string]json.RawMessage{}
		}

		s.mu.Lock()
		s.data = data
		s.mu.Unlock()
	})
}

// Has reports whether key exists.
func (s *Store) Has(key string) bool {
	s.load()
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}

// Get returns the decoded value for key (JSON numbers come back as float64).
func (s *Store) Get(key string) (any, bool) {
	s.load()
	s.mu.Lock()
	raw, ok := s.data[key]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		s.logger.Error("Unable to decode stored value", "key", key, "err", err)
		return nil, false
	}
	return v, true
}

// GetInto decodes the value for key into dst.
func (s *Store) GetInto(key string, dst any) (bool, error) {
	s.load()
	s.mu.Lock()
	raw, ok := s.data[key]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("error decoding stored value (%s): %w", key, err)
	}
	return true, nil
}

// Keys returns all stored keys.
func (s *Store) Keys() []string {
	s.load()
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

// Set stores value under key and returns once it has been written to disk.
func (s *Store) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error encoding value for key (%s): %w", key, err)
	}

	s.load()

	s.mu.Lock()
	s.data[key] = raw
	prev, done, snapshot, err := s.enqueue()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	return s.save(prev, done, snapshot)
}

// Remove deletes key and returns once the change has been written to disk.
// Removing a missing key is a no-op.
func (s *Store) Remove(key string) error {
	s.load()

	s.mu.Lock()
	if _, ok := s.data[key]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.data, key)
	prev, done, snapshot, err := s.enqueue()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	return s.save(prev, done, snapshot)
}

// enqueue captures the current map and appends a write to the chain. Callers must
// hold s.mu so the chain order matches the mutation order.
func (s *Store) enqueue() (prev <-chan struct{}, done chan struct{}, snapshot []byte, err error) {
	prev = s.tail
	done = make(chan struct{})
	s.tail = done

	snapshot, err = json.Marshal(s.data)
	if err != nil {
		// keep the chain intact for the writes queued behind this one
		go func(prev <-chan struct{}, done chan struct{}) {
			<-prev
			close(done)
		}(prev, done)
		return nil, nil, nil, fmt.Errorf("error encoding storage data: %w", err)
	}
	return prev, done, snapshot, nil
}

func (s *Store) save(prev <-chan struct{}, done chan struct{}, snapshot []byte) error {
	defer close(done)
	<-prev

	if err := writeFile(s.path, snapshot); err != nil {
		ioErr := &IOError{Op: "write", Path: s.path, Err: err}
		s.logger.Error("Unable to write the storage file", "err", ioErr)
		return ioErr
	}

	s.logger.Debug("Wrote the storage file", "path", s.path, "bytes", len(snapshot))
	return nil
}

// writeFile replaces path with data via a temp file in the same directory.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
