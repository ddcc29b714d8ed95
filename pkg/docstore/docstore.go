// Package docstore provides a hierarchical document store with pluggable
// backends. Documents live at slash-separated paths that alternate between
// collection and document segments, e.g. users/42/driver/details.
package docstore

import (
	"context"
	"strings"

	pkgerrors "github.com/swiftride/users-backend/pkg/errors"
)

// Document is a stored record: its key within the parent collection plus
// an open field map.
type Document struct {
	Key    string
	Fields map[string]any
}

// Store is the backend-agnostic document store contract. Implementations do
// not offer cross-document transactions; callers sequence multi-document
// writes themselves.
type Store interface {
	// Get fetches the document at path. Returns CodeNotFound when absent.
	Get(ctx context.Context, path string) (Document, error)
	// Set creates or fully overwrites the document at path.
	Set(ctx context.Context, path string, fields map[string]any) error
	// UpdateFields merges fields into an existing document. Returns
	// CodeNotFound when the document does not exist.
	UpdateFields(ctx context.Context, path string, fields map[string]any) error
	// Delete removes the document at path. Deleting an absent document is
	// not an error.
	Delete(ctx context.Context, path string) error
	// ListChildren returns the documents of a named subcollection under a
	// document path, ordered by key.
	ListChildren(ctx context.Context, docPath, collection string) ([]Document, error)
	// ListCollection returns every document in a collection path, ordered
	// by key.
	ListCollection(ctx context.Context, collectionPath string) ([]Document, error)
	// Close releases backend resources.
	Close() error
}

// SplitDocPath validates a document path and returns its parent collection
// path and document key. Document paths have an even number of segments.
func SplitDocPath(path string) (collectionPath, key string, err error) {
	segments, err := splitSegments(path)
	if err != nil {
		return "", "", err
	}
	if len(segments)%2 != 0 {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "document path must have an even number of segments").
			WithDetails(map[string]string{"path": path})
	}
	return strings.Join(segments[:len(segments)-1], "/"), segments[len(segments)-1], nil
}

// ValidateCollectionPath checks that a path addresses a collection, which
// has an odd number of segments.
func ValidateCollectionPath(path string) error {
	segments, err := splitSegments(path)
	if err != nil {
		return err
	}
	if len(segments)%2 != 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "collection path must have an odd number of segments").
			WithDetails(map[string]string{"path": path})
	}
	return nil
}

// ChildCollectionPath joins a document path with a subcollection name,
// validating both parts.
func ChildCollectionPath(docPath, collection string) (string, error) {
	if _, _, err := SplitDocPath(docPath); err != nil {
		return "", err
	}
	if collection == "" || strings.Contains(collection, "/") {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "collection name must be a single non-empty segment").
			WithDetails(map[string]string{"collection": collection})
	}
	return docPath + "/" + collection, nil
}

func splitSegments(path string) ([]string, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document store path must not be empty")
	}
	segments := strings.Split(trimmed, "/")
	for _, segment := range segments {
		if segment == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "document store path contains an empty segment").
				WithDetails(map[string]string{"path": path})
		}
	}
	return segments, nil
}

func notFound(path string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "document not found").
		WithDetails(map[string]string{"path": path})
}
