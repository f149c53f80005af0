/*
Package file persists the exception document as a single JSON file.

PURPOSE:
  The canonical on-disk layout for single-operator deployments: one
  human-inspectable document holding per-sprint exceptions and settings,
  created lazily on first write.

LAYOUT:
  {
    "sprints":  {"236": {"exceptions": {...}, "updated_at": "..."}},
    "settings": {"target_sp_per_person": 21, ...},
    "created_at": "..."
  }

CONCURRENCY:
  Writes go through a temp file + rename so a crashed process never leaves
  a half-written document. Cross-request ordering is the caller's job (the
  ledger serializes its read-modify-write cycles).
*/
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/warp/capacity-engine/exceptions"
)

// DefaultPath mirrors the dotfile the planning tool has always used.
const DefaultPath = ".sprinter_exceptions.json"

// Store reads and writes the document at a fixed path.
type Store struct {
	path string
}

func New(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Load returns (nil, nil) when the file does not exist yet.
func (s *Store) Load(_ context.Context) (*exceptions.Document, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading exception file: %w", err)
	}
	var doc exceptions.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing exception file %s: %w", s.path, err)
	}
	return &doc, nil
}

func (s *Store) Save(_ context.Context, doc *exceptions.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding exception document: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating exception directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".sprinter_exceptions-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing exception file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing exception file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing exception file: %w", err)
	}
	return nil
}
