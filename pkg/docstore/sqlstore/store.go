// Package sqlstore implements docstore.Store over a single GORM-managed
// documents table (postgres in production, sqlite for dev and tests).
package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/artcafe/storefront/pkg/db"
	"github.com/artcafe/storefront/pkg/docstore"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type document struct {
	ID             string  `gorm:"column:id;primaryKey"`
	Collection     string  `gorm:"column:collection"`
	IdempotencyKey *string `gorm:"column:idempotency_key"`
	Payload        string  `gorm:"column:payload"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (document) TableName() string { return "documents" }

type Store struct {
	client *db.Client
}

var _ docstore.Store = (*Store)(nil)

func New(client *db.Client) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &Store{client: client}, nil
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.client.DB().WithContext(ctx)
}

func (s *Store) Create(ctx context.Context, collection string, doc any) (string, error) {
	id := uuid.NewString()
	payload, err := encode(doc, id)
	if err != nil {
		return "", fmt.Errorf("encode %s document: %w", collection, err)
	}

	row := document{ID: id, Collection: collection, Payload: payload}
	key := strings.TrimSpace(docstore.IdempotencyKeyOf(doc))
	if key != "" {
		row.IdempotencyKey = &key
	}

	if err := s.conn(ctx).Create(&row).Error; err != nil {
		if key != "" && db.IsUniqueViolation(err) {
			existing, lookupErr := s.findByKey(ctx, collection, key)
			if lookupErr != nil {
				return "", fmt.Errorf("lookup duplicate %s document: %w", collection, lookupErr)
			}
			return "", &docstore.DuplicateError{Collection: collection, Key: key, ExistingID: existing}
		}
		return "", fmt.Errorf("insert %s document: %w", collection, err)
	}
	return id, nil
}

func (s *Store) findByKey(ctx context.Context, collection, key string) (string, error) {
	var row document
	err := s.conn(ctx).
		Select("id").
		Where("collection = ? AND idempotency_key = ?", collection, key).
		Take(&row).Error
	if err != nil {
		return "", err
	}
	return row.ID, nil
}

func (s *Store) Get(ctx context.Context, collection, id string, dest any) error {
	var row document
	err := s.conn(ctx).Where("collection = ? AND id = ?", collection, id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return docstore.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s document: %w", collection, err)
	}
	if err := json.Unmarshal([]byte(row.Payload), dest); err != nil {
		return fmt.Errorf("decode %s document: %w", collection, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, collection string, dest any) error {
	var rows []document
	err := s.conn(ctx).
		Where("collection = ?", collection).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return fmt.Errorf("list %s documents: %w", collection, err)
	}

	payloads := make([]string, 0, len(rows))
	for _, row := range rows {
		payloads = append(payloads, row.Payload)
	}
	raw := "[" + strings.Join(payloads, ",") + "]"
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("decode %s documents: %w", collection, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		var row document
		err := tx.Where("collection = ? AND id = ?", collection, id).Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return docstore.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load %s document: %w", collection, err)
		}

		current := map[string]any{}
		if err := json.Unmarshal([]byte(row.Payload), &current); err != nil {
			return fmt.Errorf("decode %s document: %w", collection, err)
		}
		for k, v := range fields {
			if k == "id" {
				continue
			}
			current[k] = v
		}
		merged, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("encode %s document: %w", collection, err)
		}

		return tx.Model(&document{}).
			Where("id = ?", id).
			Updates(map[string]any{"payload": string(merged), "updated_at": time.Now().UTC()}).Error
	})
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res := s.conn(ctx).Where("collection = ? AND id = ?", collection, id).Delete(&document{})
	if res.Error != nil {
		return fmt.Errorf("delete %s document: %w", collection, res.Error)
	}
	if res.RowsAffected == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *Store) Close(context.Context) error {
	return s.client.Close()
}

// encode marshals doc as a JSON object and stamps the store-assigned id.
func encode(doc any, id string) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", fmt.Errorf("document must encode to a JSON object: %w", err)
	}
	idJSON, _ := json.Marshal(id)
	fields["id"] = idJSON
	out, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
