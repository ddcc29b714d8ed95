package docstore

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pkgerrors "github.com/swiftride/users-backend/pkg/errors"
)

// FirestoreStore backs the document store with Cloud Firestore, which shares
// the same path model natively.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore connects to a named Firestore database of a project. An
// empty databaseID selects the default database. Extra client options allow
// emulator or credential overrides.
func NewFirestoreStore(ctx context.Context, projectID, databaseID string, opts ...option.ClientOption) (*FirestoreStore, error) {
	if projectID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "firestore project id is required")
	}
	var (
		client *firestore.Client
		err    error
	)
	if databaseID == "" || databaseID == firestore.DefaultDatabaseID {
		client, err = firestore.NewClient(ctx, projectID, opts...)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "firestore client init failed")
	}
	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) Get(ctx context.Context, path string) (Document, error) {
	if _, _, err := SplitDocPath(path); err != nil {
		return Document{}, err
	}
	snap, err := s.client.Doc(path).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Document{}, notFound(path)
		}
		return Document{}, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "firestore read failed")
	}
	return Document{Key: snap.Ref.ID, Fields: snap.Data()}, nil
}

func (s *FirestoreStore) Set(ctx context.Context, path string, fields map[string]any) error {
	if _, _, err := SplitDocPath(path); err != nil {
		return err
	}
	if _, err := s.client.Doc(path).Set(ctx, fields); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "firestore write failed")
	}
	return nil
}

func (s *FirestoreStore) UpdateFields(ctx context.Context, path string, fields map[string]any) error {
	if _, _, err := SplitDocPath(path); err != nil {
		return err
	}
	updates := make([]firestore.Update, 0, len(fields))
	for name, value := range fields {
		updates = append(updates, firestore.Update{Path: name, Value: value})
	}
	if len(updates) == 0 {
		return nil
	}
	if _, err := s.client.Doc(path).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return notFound(path)
		}
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "firestore update failed")
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, path string) error {
	if _, _, err := SplitDocPath(path); err != nil {
		return err
	}
	if _, err := s.client.Doc(path).Delete(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "firestore delete failed")
	}
	return nil
}

func (s *FirestoreStore) ListChildren(ctx context.Context, docPath, collection string) ([]Document, error) {
	childPath, err := ChildCollectionPath(docPath, collection)
	if err != nil {
		return nil, err
	}
	return s.ListCollection(ctx, childPath)
}

func (s *FirestoreStore) ListCollection(ctx context.Context, collectionPath string) ([]Document, error) {
	if err := ValidateCollectionPath(collectionPath); err != nil {
		return nil, err
	}
	snaps, err := s.client.Collection(collectionPath).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "firestore collection listing failed")
	}
	docs := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, Document{Key: snap.Ref.ID, Fields: snap.Data()})
	}
	return docs, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
