package repository

import (
	"context"
	"errors"

	"github.com/merchantry/merchantry/pkg/store/mongodb"
)

// Store errors. Implementations translate their driver errors into
// these sentinels so the repository can classify them.
var (
	// ErrNotFound marks an empty single-document result.
	ErrNotFound = errors.New("record not found")
	// ErrConflict marks a store constraint violation such as a
	// duplicate key.
	ErrConflict = errors.New("record conflict")
)

// FindOptions narrows a Find call. Zero values mean no sort, no skip,
// no limit.
type FindOptions struct {
	Sort  Filter
	Skip  int64
	Limit int64
}

// Store is the backing collection contract consumed by the repository.
// Filters use the store's native query operators.
type Store interface {
	InsertOne(ctx context.Context, collection string, doc Record) (interface{}, error)
	FindOne(ctx context.Context, collection string, filter Filter) (Record, error)
	Find(ctx context.Context, collection string, filter Filter, opts FindOptions) ([]Record, error)
	Count(ctx context.Context, collection string, filter Filter) (int64, error)
	UpdateOne(ctx context.Context, collection string, filter Filter, update Record) error
	DeleteOne(ctx context.Context, collection string, filter Filter) error
	DeleteAll(ctx context.Context, collection string) (int64, error)
}

// MongoStore adapts the MongoDB adapter to the Store contract,
// translating driver errors into the repository sentinels.
type MongoStore struct {
	adapter *mongodb.Adapter
}

// NewMongoStore wraps a connected MongoDB adapter.
func NewMongoStore(adapter *mongodb.Adapter) *MongoStore {
	return &MongoStore{adapter: adapter}
}

func (s *MongoStore) InsertOne(ctx context.Context, collection string, doc Record) (interface{}, error) {
	id, err := s.adapter.InsertOne(ctx, collection, doc)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return id, nil
}

func (s *MongoStore) FindOne(ctx context.Context, collection string, filter Filter) (Record, error) {
	doc, err := s.adapter.FindOne(ctx, collection, filter)
	if err != nil {
		if mongodb.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *MongoStore) Find(ctx context.Context, collection string, filter Filter, opts FindOptions) ([]Record, error) {
	docs, err := s.adapter.Find(ctx, collection, filter, mongodb.FindOptions{
		Sort:  opts.Sort,
		Skip:  opts.Skip,
		Limit: opts.Limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(docs))
	for i, d := range docs {
		out[i] = d
	}
	return out, nil
}

func (s *MongoStore) Count(ctx context.Context, collection string, filter Filter) (int64, error) {
	return s.adapter.CountDocuments(ctx, collection, filter)
}

func (s *MongoStore) UpdateOne(ctx context.Context, collection string, filter Filter, update Record) error {
	err := s.adapter.UpdateOne(ctx, collection, filter, update)
	if err != nil && mongodb.IsDuplicateKey(err) {
		return ErrConflict
	}
	return err
}

func (s *MongoStore) DeleteOne(ctx context.Context, collection string, filter Filter) error {
	return s.adapter.DeleteOne(ctx, collection, filter)
}

func (s *MongoStore) DeleteAll(ctx context.Context, collection string) (int64, error) {
	return s.adapter.DeleteMany(ctx, collection, map[string]interface{}{})
}
