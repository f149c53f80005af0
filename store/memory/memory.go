// Package memory provides an in-memory exception document store for tests
// and development.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/warp/capacity-engine/exceptions"
)

// Store keeps the document in memory. Load returns (nil, nil) until the
// first Save, matching a file that does not exist yet.
type Store struct {
	mu  sync.RWMutex
	doc *exceptions.Document
}

func New() *Store {
	return &Store{}
}

func (s *Store) Load(_ context.Context) (*exceptions.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return nil, nil
	}
	return copyDocument(s.doc)
}

func (s *Store) Save(_ context.Context, doc *exceptions.Document) error {
	copied, err := copyDocument(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = copied
	return nil
}

// copyDocument round-trips through JSON so callers never share maps with
// the store.
func copyDocument(doc *exceptions.Document) (*exceptions.Document, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out exceptions.Document
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
