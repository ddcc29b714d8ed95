package docstore

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/swiftride/users-backend/pkg/db"
	pkgerrors "github.com/swiftride/users-backend/pkg/errors"
)

// documentRow is the relational projection of a document. The hierarchical
// path is split into the parent collection path and the document key so
// collection listings stay a single indexed lookup.
type documentRow struct {
	ID             string    `gorm:"column:id;primaryKey"`
	CollectionPath string    `gorm:"column:collection_path;uniqueIndex:ux_documents_path,priority:1"`
	DocKey         string    `gorm:"column:doc_key;uniqueIndex:ux_documents_path,priority:2"`
	Fields         string    `gorm:"column:fields"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (documentRow) TableName() string { return "documents" }

// SQLStore persists documents in a relational documents table.
type SQLStore struct {
	client *db.Client
}

// NewSQLStore wraps an existing database client.
func NewSQLStore(client *db.Client) *SQLStore {
	return &SQLStore{client: client}
}

func (s *SQLStore) Get(ctx context.Context, path string) (Document, error) {
	collectionPath, key, err := SplitDocPath(path)
	if err != nil {
		return Document{}, err
	}
	var row documentRow
	result := s.client.DB().WithContext(ctx).
		Where("collection_path = ? AND doc_key = ?", collectionPath, key).
		First(&row)
	if result.Error != nil {
		if stdErrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Document{}, notFound(path)
		}
		return Document{}, pkgerrors.Wrap(pkgerrors.CodeUpstream, result.Error, "document lookup failed")
	}
	fields, err := decodeFields(row.Fields)
	if err != nil {
		return Document{}, err
	}
	return Document{Key: key, Fields: fields}, nil
}

func (s *SQLStore) Set(ctx context.Context, path string, fields map[string]any) error {
	collectionPath, key, err := SplitDocPath(path)
	if err != nil {
		return err
	}
	encoded, err := encodeFields(fields)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	row := documentRow{
		ID:             uuid.NewString(),
		CollectionPath: collectionPath,
		DocKey:         key,
		Fields:         encoded,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	result := s.client.DB().WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection_path"}, {Name: "doc_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"fields", "updated_at"}),
	}).Create(&row)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, result.Error, "document write failed")
	}
	return nil
}

func (s *SQLStore) UpdateFields(ctx context.Context, path string, fields map[string]any) error {
	collectionPath, key, err := SplitDocPath(path)
	if err != nil {
		return err
	}
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		var row documentRow
		result := tx.
			Where("collection_path = ? AND doc_key = ?", collectionPath, key).
			First(&row)
		if result.Error != nil {
			if stdErrors.Is(result.Error, gorm.ErrRecordNotFound) {
				return notFound(path)
			}
			return pkgerrors.Wrap(pkgerrors.CodeUpstream, result.Error, "document lookup failed")
		}
		existing, err := decodeFields(row.Fields)
		if err != nil {
			return err
		}
		for name, value := range fields {
			existing[name] = value
		}
		encoded, err := encodeFields(existing)
		if err != nil {
			return err
		}
		update := tx.Model(&documentRow{}).
			Where("collection_path = ? AND doc_key = ?", collectionPath, key).
			Updates(map[string]any{"fields": encoded, "updated_at": time.Now().UTC()})
		if update.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUpstream, update.Error, "document update failed")
		}
		return nil
	})
}

func (s *SQLStore) Delete(ctx context.Context, path string) error {
	collectionPath, key, err := SplitDocPath(path)
	if err != nil {
		return err
	}
	result := s.client.DB().WithContext(ctx).
		Where("collection_path = ? AND doc_key = ?", collectionPath, key).
		Delete(&documentRow{})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, result.Error, "document delete failed")
	}
	return nil
}

func (s *SQLStore) ListChildren(ctx context.Context, docPath, collection string) ([]Document, error) {
	childPath, err := ChildCollectionPath(docPath, collection)
	if err != nil {
		return nil, err
	}
	return s.ListCollection(ctx, childPath)
}

func (s *SQLStore) ListCollection(ctx context.Context, collectionPath string) ([]Document, error) {
	if err := ValidateCollectionPath(collectionPath); err != nil {
		return nil, err
	}
	var rows []documentRow
	result := s.client.DB().WithContext(ctx).
		Where("collection_path = ?", collectionPath).
		Order("doc_key ASC").
		Find(&rows)
	if result.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, result.Error, "collection listing failed")
	}
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		fields, err := decodeFields(row.Fields)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{Key: row.DocKey, Fields: fields})
	}
	return docs, nil
}

func (s *SQLStore) Close() error {
	return s.client.Close()
}

func encodeFields(fields map[string]any) (string, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	encoded, err := json.Marshal(fields)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "document fields are not serializable")
	}
	return string(encoded), nil
}

func decodeFields(encoded string) (map[string]any, error) {
	fields := map[string]any{}
	if encoded == "" {
		return fields, nil
	}
	if err := json.Unmarshal([]byte(encoded), &fields); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stored document fields are corrupt")
	}
	return fields, nil
}
