// Package mongostore implements docstore.Store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/artcafe/storefront/pkg/config"
	"github.com/artcafe/storefront/pkg/docstore"
	"github.com/artcafe/storefront/pkg/logger"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const idempotencyField = "idempotency_key"

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ docstore.Store = (*Store)(nil)

// Connect dials MongoDB, verifies the connection and ensures indexes.
func Connect(ctx context.Context, cfg config.DocStoreConfig, logg *logger.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.MongoURI) == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}

	clientOpts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)
	if cfg.MaxOpenConns > 0 {
		clientOpts.SetMaxPoolSize(uint64(cfg.MaxOpenConns))
	}
	if cfg.MaxIdleConns > 0 {
		clientOpts.SetMinPoolSize(uint64(cfg.MaxIdleConns))
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	store := &Store{client: client, db: client.Database(cfg.MongoDatabase)}
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "database", cfg.MongoDatabase), "mongo connection established")
	}
	return store, nil
}

// EnsureIndexes creates the unique sparse idempotency index on orders.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(docstore.CollectionOrders).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: idempotencyField, Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true).SetName("orders_idempotency_key_uq"),
	})
	if err != nil {
		return fmt.Errorf("create orders indexes: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, collection string, doc any) (string, error) {
	fields, err := toBSON(doc)
	if err != nil {
		return "", fmt.Errorf("encode %s document: %w", collection, err)
	}

	id := uuid.NewString()
	fields["_id"] = id
	key := strings.TrimSpace(docstore.IdempotencyKeyOf(doc))
	if key == "" {
		delete(fields, idempotencyField)
	}

	if _, err := s.db.Collection(collection).InsertOne(ctx, fields); err != nil {
		if key != "" && mongo.IsDuplicateKeyError(err) {
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
	var found struct {
		ID string `bson:"_id"`
	}
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})
	if err := s.db.Collection(collection).FindOne(ctx, bson.M{idempotencyField: key}, opts).Decode(&found); err != nil {
		return "", err
	}
	return found.ID, nil
}

func (s *Store) Get(ctx context.Context, collection, id string, dest any) error {
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(dest)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return docstore.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s document: %w", collection, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, collection string, dest any) error {
	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("list %s documents: %w", collection, err)
	}
	if err := cursor.All(ctx, dest); err != nil {
		return fmt.Errorf("decode %s documents: %w", collection, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	set := bson.M{}
	for k, v := range fields {
		if k == "_id" || k == "id" {
			continue
		}
		set[k] = v
	}
	if len(set) == 0 {
		return nil
	}
	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update %s document: %w", collection, err)
	}
	if res.MatchedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s document: %w", collection, err)
	}
	if res.DeletedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func toBSON(doc any) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	fields := bson.M{}
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
