// Package repository implements the generic record lifecycle shared by
// every resource: create, find, update with image cleanup, archive,
// restore, guarded delete and paginated filtered listing. Resources
// differ only in the collection, serializer set and validation schema
// they inject.
package repository

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Record is a loosely-typed document bag keyed by field name.
type Record map[string]interface{}

// Filter represents field-based filtering criteria, using the store's
// native query operators ($gte, $lte, $regex).
type Filter map[string]interface{}

// Well-known record fields maintained by the repository.
const (
	FieldID        = "_id"
	FieldArchived  = "isArchived"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
	FieldImages    = "images"
)

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Archived reports the soft-delete flag, treating a missing or
// non-boolean value as false.
func (r Record) Archived() bool {
	b, _ := r[FieldArchived].(bool)
	return b
}

// Result is the single-record (or message-only) response shape. Data
// holds one record, a record slice for unpaginated listings, or nil
// for delete acknowledgements.
type Result struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
	Status  int         `json:"status"`
}

// ListResult is the paginated response shape.
type ListResult struct {
	Data        []Record `json:"data"`
	TotalObject int64    `json:"totalObject"`
	PageSize    int64    `json:"pageSize"`
	CurrentPage int64    `json:"currentPage"`
	TotalPage   int64    `json:"totalPage"`
	Message     string   `json:"message"`
	Status      int      `json:"status"`
}

// StringSlice coerces a record field into a []string, accepting the
// decoded array shapes the store hands back. Non-string elements are
// skipped.
func StringSlice(v interface{}) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []interface{}:
		return collectStrings(vv)
	case primitive.A:
		return collectStrings(vv)
	default:
		return nil
	}
}

func collectStrings(in []interface{}) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
