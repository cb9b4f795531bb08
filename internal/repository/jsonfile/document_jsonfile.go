// Package jsonfile persists the document corpus as a single JSON array file.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// ErrCorruptCorpus is returned when the corpus file exists but is not a JSON array of documents.
var ErrCorruptCorpus = errors.New("corpus file is not a valid document array")

// DocumentFile is a repository.DocumentRepository backed by one JSON file.
// Appends rewrite the whole file through a temporary file and a rename, so a
// reader never observes a partially written array. It is safe for concurrent
// use within one process.
type DocumentFile struct {
	path string
	mu   sync.RWMutex
}

var _ repository.DocumentRepository = (*DocumentFile)(nil)

// NewDocumentFile creates the repository and the parent directory of path.
// The file itself is created by the first append.
func NewDocumentFile(path string) (*DocumentFile, error) {
	if path == "" {
		return nil, fmt.Errorf("corpus file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create corpus directory: %w", err)
	}
	return &DocumentFile{path: path}, nil
}

// Create appends doc to the corpus.
func (r *DocumentFile) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	docs, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if d.ID == doc.ID {
			return nil, fmt.Errorf("document %s already exists", doc.ID)
		}
	}

	stored := *doc
	if stored.Tags == nil {
		stored.Tags = []string{}
	}
	docs = append(docs, stored)
	if err := r.save(docs); err != nil {
		return nil, err
	}
	return &stored, nil
}

// FindByID scans the corpus for id.
func (r *DocumentFile) FindByID(ctx context.Context, id string) (*model.Document, error) {
	docs, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if docs[i].ID == id {
			return &docs[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

// All reads the whole corpus. A missing file is an empty corpus.
func (r *DocumentFile) All(ctx context.Context) ([]model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.load()
}

// List returns one page of the corpus in insertion order.
func (r *DocumentFile) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	docs, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	return repository.Page(docs, pq), nil
}

// PingContext checks that the corpus directory is reachable.
func (r *DocumentFile) PingContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(filepath.Dir(r.path))
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Dir(r.path))
	}
	return nil
}

func (r *DocumentFile) load() ([]model.Document, error) {
	b, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []model.Document{}, nil
		}
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	var docs []model.Document
	if err := json.Unmarshal(b, &docs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCorpus, err)
	}
	if docs == nil {
		// the file held a literal null
		return nil, ErrCorruptCorpus
	}
	return docs, nil
}

func (r *DocumentFile) save(docs []model.Document) error {
	b, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".documents-*.json")
	if err != nil {
		return fmt.Errorf("create temp corpus: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp corpus: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp corpus: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp corpus: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace corpus: %w", err)
	}
	return nil
}
