package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/lborres/realty/core"
)

// DocumentStore keeps JSON-encoded documents by path. Encoding on write
// gives callers the same value semantics as a remote store.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

var _ core.DocumentStore = (*DocumentStore)(nil)

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string][]byte)}
}

func (d *DocumentStore) GetDocument(_ context.Context, path string) (map[string]any, error) {
	d.mu.RLock()
	raw, ok := d.docs[path]
	d.mu.RUnlock()

	if !ok {
		return nil, core.ErrDocumentNotFound
	}
	return decodeDocument(raw)
}

func (d *DocumentStore) PutDocument(_ context.Context, path string, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", path, err)
	}

	d.mu.Lock()
	d.docs[path] = raw
	d.mu.Unlock()
	return nil
}

func (d *DocumentStore) DeleteDocument(_ context.Context, path string) error {
	d.mu.Lock()
	delete(d.docs, path)
	d.mu.Unlock()
	return nil
}

func (d *DocumentStore) ListDocuments(_ context.Context, prefix string) (map[string]map[string]any, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string]map[string]any)
	for path, raw := range d.docs {
		// Direct children only.
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok || rest == "" || strings.Contains(rest, "/") {
			continue
		}
		doc, err := decodeDocument(raw)
		if err != nil {
			return nil, err
		}
		out[path] = doc
	}
	return out, nil
}

func decodeDocument(raw []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}
