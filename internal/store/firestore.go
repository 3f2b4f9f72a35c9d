package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultCollection = "gauntlet_state"

type firestoreDoc struct {
	Data      []byte    `firestore:"data"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

type firestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore keeps each blob as a document in collection. The client
// is owned by the store and closed with it.
func NewFirestoreStore(client *firestore.Client, collection string) BlobStore {
	if collection == "" {
		collection = defaultCollection
	}
	return &firestoreStore{client: client, collection: collection}
}

func (s *firestoreStore) Get(ctx context.Context, key string) ([]byte, error) {
	snap, err := s.client.Collection(s.collection).Doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", key, err)
	}

	var doc firestoreDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", key, err)
	}
	return doc.Data, nil
}

func (s *firestoreStore) Put(ctx context.Context, key string, data []byte) error {
	doc := firestoreDoc{Data: data, UpdatedAt: time.Now().UTC()}
	if _, err := s.client.Collection(s.collection).Doc(key).Set(ctx, doc); err != nil {
		return fmt.Errorf("set document %s: %w", key, err)
	}
	return nil
}

func (s *firestoreStore) Delete(ctx context.Context, key string) error {
	ref := s.client.Collection(s.collection).Doc(key)
	if _, err := ref.Delete(ctx, firestore.Exists); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("delete document %s: %w", key, err)
	}
	return nil
}

func (s *firestoreStore) Keys(ctx context.Context) ([]string, error) {
	iter := s.client.Collection(s.collection).Documents(ctx)
	defer iter.Stop()

	var keys []string
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list documents: %w", err)
		}
		keys = append(keys, snap.Ref.ID)
	}
	return keys, nil
}

func (s *firestoreStore) Close() error {
	return s.client.Close()
}
