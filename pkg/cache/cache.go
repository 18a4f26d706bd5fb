// Package cache persists computed dataflow edge sets keyed by source content
// hash, so repeated runs over unchanged files skip re-analysis.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Span mirrors a source location without depending on the AST package, so
// cached records stay decodable across analysis versions.
type Span struct {
	FirstLine   int `msgpack:"fl"`
	FirstColumn int `msgpack:"fc"`
	LastLine    int `msgpack:"ll"`
	LastColumn  int `msgpack:"lc"`
}

// EdgeRecord is one serialized def→use edge.
type EdgeRecord struct {
	From Span `msgpack:"from"`
	To   Span `msgpack:"to"`
}

// Entry holds the cached analysis result for one source file version.
type Entry struct {
	ContentHash string       `msgpack:"content_hash"`
	Edges       []EdgeRecord `msgpack:"edges"`
	CreatedAt   int64        `msgpack:"created_at"`
}

// Store is a file-backed cache of analysis entries.
type Store struct {
	mu      sync.RWMutex
	path    string
	entries map[string]Entry
}

// HashContent returns the cache key for a source buffer.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Open loads the store at path, starting empty when the file is absent.
func Open(path string) (*Store, error) {
	s := &Store{path: path, entries: make(map[string]Entry)}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()
	if err := s.loadFrom(f); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the entry for the given content hash.
func (s *Store) Get(hash string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[hash]
	return e, ok
}

// Put records an entry, replacing any previous one for the same hash.
func (s *Store) Put(e Entry) {
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	s.mu.Lock()
	s.entries[e.ContentHash] = e
	s.mu.Unlock()
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Save writes the store back to disk.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer f.Close()
	return s.saveTo(f)
}

type storeData struct {
	Entries map[string]Entry `msgpack:"entries"`
}

func (s *Store) saveTo(w io.Writer) error {
	s.mu.RLock()
	data := storeData{Entries: make(map[string]Entry, len(s.entries))}
	for hash, e := range s.entries {
		data.Entries[hash] = e
	}
	s.mu.RUnlock()

	enc := msgpack.NewEncoder(w)
	return enc.Encode(data)
}

func (s *Store) loadFrom(r io.Reader) error {
	var data storeData
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&data); err != nil {
		return fmt.Errorf("failed to decode cache: %w", err)
	}
	s.mu.Lock()
	for hash, e := range data.Entries {
		s.entries[hash] = e
	}
	s.mu.Unlock()
	return nil
}
