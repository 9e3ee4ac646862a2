package validation

import (
	"context"

	"github.com/merchantry/merchantry/pkg/repository"
)

// StoreFinder adapts a document store collection to the Finder and
// Counter contracts used by uniqueness checks and list pre-checks.
type StoreFinder struct {
	Store      repository.Store
	Collection string
}

func (f StoreFinder) Find(ctx context.Context, filter map[string]interface{}) ([]map[string]interface{}, error) {
	recs, err := f.Store.Find(ctx, f.Collection, repository.Filter(filter), repository.FindOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, len(recs))
	for i, rec := range recs {
		out[i] = rec
	}
	return out, nil
}

func (f StoreFinder) Count(ctx context.Context, filter map[string]interface{}) (int64, error) {
	return f.Store.Count(ctx, f.Collection, repository.Filter(filter))
}
