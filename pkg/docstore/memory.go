package docstore

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store used by tests and local development.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]any)}
}

func (s *MemoryStore) Get(ctx context.Context, path string) (Document, error) {
	collectionPath, key, err := SplitDocPath(path)
	if err != nil {
		return Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fields, ok := s.docs[collectionPath+"/"+key]
	if !ok {
		return Document{}, notFound(path)
	}
	return Document{Key: key, Fields: cloneFields(fields)}, nil
}

func (s *MemoryStore) Set(ctx context.Context, path string, fields map[string]any) error {
	collectionPath, key, err := SplitDocPath(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[collectionPath+"/"+key] = cloneFields(fields)
	return nil
}

func (s *MemoryStore) UpdateFields(ctx context.Context, path string, fields map[string]any) error {
	collectionPath, key, err := SplitDocPath(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.docs[collectionPath+"/"+key]
	if !ok {
		return notFound(path)
	}
	for name, value := range fields {
		existing[name] = cloneValue(value)
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, path string) error {
	collectionPath, key, err := SplitDocPath(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, collectionPath+"/"+key)
	return nil
}

func (s *MemoryStore) ListChildren(ctx context.Context, docPath, collection string) ([]Document, error) {
	childPath, err := ChildCollectionPath(docPath, collection)
	if err != nil {
		return nil, err
	}
	return s.ListCollection(ctx, childPath)
}

func (s *MemoryStore) ListCollection(ctx context.Context, collectionPath string) ([]Document, error) {
	if err := ValidateCollectionPath(collectionPath); err != nil {
		return nil, err
	}
	prefix := strings.Trim(collectionPath, "/") + "/"
	s.mu.RLock()
	defer s.mu.RUnlock()
	var docs []Document
	for fullPath, fields := range s.docs {
		if !strings.HasPrefix(fullPath, prefix) {
			continue
		}
		key := fullPath[len(prefix):]
		if strings.Contains(key, "/") {
			continue
		}
		docs = append(docs, Document{Key: key, Fields: cloneFields(fields)})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Key < docs[j].Key })
	return docs, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func cloneFields(fields map[string]any) map[string]any {
	cloned := make(map[string]any, len(fields))
	for name, value := range fields {
		cloned[name] = cloneValue(value)
	}
	return cloned
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return cloneFields(typed)
	case []any:
		cloned := make([]any, len(typed))
		for i, item := range typed {
			cloned[i] = cloneValue(item)
		}
		return cloned
	default:
		return value
	}
}
