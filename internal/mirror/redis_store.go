package mirror

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each collection as a set of document ids plus one JSON
// value per document, namespaced to keep mirror data apart from other keys.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

// NewRedisStore builds a store over an existing client.
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	if namespace == "" {
		namespace = "mirror"
	}
	return &RedisStore{client: client, namespace: namespace}
}

func (s *RedisStore) docKey(collection, id string) string {
	return fmt.Sprintf("%s:%s:%s", s.namespace, collection, id)
}

func (s *RedisStore) indexKey(collection string) string {
	return fmt.Sprintf("%s:%s", s.namespace, collection)
}

// Get fetches a document by id.
func (s *RedisStore) Get(ctx context.Context, collection, id string) (Document, error) {
	raw, err := s.client.Get(ctx, s.docKey(collection, id)).Bytes()
	if err == redis.Nil {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return Document{}, fmt.Errorf("decode document %s/%s: %w", collection, id, err)
	}
	return Document{ID: id, Data: data}, nil
}

// Set writes a document at the given id, overwriting any previous content.
func (s *RedisStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, id, err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.docKey(collection, id), raw, 0)
	pipe.SAdd(ctx, s.indexKey(collection), id)
	_, err = pipe.Exec(ctx)
	return err
}

// Update merges patch fields into an existing document.
func (s *RedisStore) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	doc, err := s.Get(ctx, collection, id)
	if err != nil {
		return err
	}
	for field, value := range patch {
		doc.Data[field] = value
	}
	return s.Set(ctx, collection, id, doc.Data)
}

// Create writes a document under a newly generated id and returns the id.
func (s *RedisStore) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

// QueryAll returns every document in a collection. Ids whose value has
// expired or been removed out-of-band are silently dropped.
func (s *RedisStore) QueryAll(ctx context.Context, collection string) ([]Document, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey(collection)).Result()
	if err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(ids))
	for _, id := range ids {
		doc, err := s.Get(ctx, collection, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
