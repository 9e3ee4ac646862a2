package repository

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-process Store used by tests and local
// development. It evaluates the operator subset the repository emits:
// equality, $regex/$options, and $gte/$lte windows.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string][]Record
	// UniqueKeys lists per-collection fields enforced as unique,
	// mirroring a unique index.
	UniqueKeys map[string][]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: map[string][]Record{}}
}

func (s *MemoryStore) InsertOne(ctx context.Context, collection string, doc Record) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := doc.Clone()
	id, ok := stored[FieldID]
	if !ok {
		id = primitive.NewObjectID()
		stored[FieldID] = id
	}

	for _, key := range s.UniqueKeys[collection] {
		value, present := stored[key]
		if !present {
			continue
		}
		for _, rec := range s.collections[collection] {
			if equalValues(rec[key], value) {
				return nil, ErrConflict
			}
		}
	}

	s.collections[collection] = append(s.collections[collection], stored)
	return id, nil
}

func (s *MemoryStore) FindOne(ctx context.Context, collection string, filter Filter) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.collections[collection] {
		if matches(rec, filter) {
			return rec.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Find(ctx context.Context, collection string, filter Filter, opts FindOptions) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Record
	for _, rec := range s.collections[collection] {
		if matches(rec, filter) {
			out = append(out, rec.Clone())
		}
	}

	applySort(out, opts.Sort)

	if opts.Skip > 0 {
		if opts.Skip >= int64(len(out)) {
			return nil, nil
		}
		out = out[opts.Skip:]
	}
	if opts.Limit > 0 && opts.Limit < int64(len(out)) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context, collection string, filter Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, rec := range s.collections[collection] {
		if matches(rec, filter) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) UpdateOne(ctx context.Context, collection string, filter Filter, update Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.collections[collection] {
		if matches(rec, filter) {
			for k, v := range update {
				rec[k] = v
			}
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) DeleteOne(ctx context.Context, collection string, filter Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.collections[collection]
	for i, rec := range recs {
		if matches(rec, filter) {
			s.collections[collection] = append(recs[:i:i], recs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) DeleteAll(ctx context.Context, collection string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.collections[collection]))
	delete(s.collections, collection)
	return n, nil
}

func matches(rec Record, filter Filter) bool {
	for key, cond := range filter {
		if !matchField(rec[key], cond) {
			return false
		}
	}
	return true
}

func matchField(value, cond interface{}) bool {
	ops := operatorMap(cond)
	if ops == nil {
		return equalValues(value, cond)
	}

	if pattern, ok := ops["$regex"].(string); ok {
		str, ok := value.(string)
		if !ok {
			return false
		}
		if opts, _ := ops["$options"].(string); strings.Contains(opts, "i") {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false
		}
		return re.MatchString(str)
	}

	t, ok := timeValue(value)
	if !ok {
		return false
	}
	if gte, present := ops["$gte"]; present {
		bound, ok := timeValue(gte)
		if !ok || t.Before(bound) {
			return false
		}
	}
	if lte, present := ops["$lte"]; present {
		bound, ok := timeValue(lte)
		if !ok || t.After(bound) {
			return false
		}
	}
	return true
}

func operatorMap(cond interface{}) map[string]interface{} {
	var m map[string]interface{}
	switch c := cond.(type) {
	case Filter:
		m = c
	case map[string]interface{}:
		m = c
	default:
		return nil
	}
	for key := range m {
		if strings.HasPrefix(key, "$") {
			return m
		}
	}
	return nil
}

func equalValues(a, b interface{}) bool {
	if ta, ok := timeValue(a); ok {
		if tb, ok := timeValue(b); ok {
			return ta.Equal(tb)
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func timeValue(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case primitive.DateTime:
		return t.Time(), true
	default:
		return time.Time{}, false
	}
}

func applySort(recs []Record, by Filter) {
	if len(by) == 0 {
		return
	}
	for key, dirRaw := range by {
		dir, ok := dirRaw.(int)
		if !ok {
			continue
		}
		sort.SliceStable(recs, func(i, j int) bool {
			a, aok := timeValue(recs[i][key])
			b, bok := timeValue(recs[j][key])
			if !aok || !bok {
				return false
			}
			if dir >= 0 {
				return a.Before(b)
			}
			return b.Before(a)
		})
		return
	}
}
