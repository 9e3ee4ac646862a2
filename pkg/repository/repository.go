package repository

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/merchantry/merchantry/pkg/apperror"
	"github.com/merchantry/merchantry/pkg/observability/logger"
	"github.com/merchantry/merchantry/pkg/observability/metrics"
)

// Options configures one repository instance. A single struct carries
// everything a resource injects: collection, store handle, serializer
// set and image directory.
type Options struct {
	// Label is the human-readable resource name used in messages,
	// e.g. "Product". Defaults to the collection name.
	Label string
	// Collection is the backing collection name.
	Collection string
	// Store is the backing document store.
	Store Store
	// Serializers is the projection configuration applied to output.
	Serializers Serializers
	// ImageDir is the directory holding the files referenced by the
	// records' images field.
	ImageDir string
	Logger   logger.Logger
	// Clock overrides the time source; nil means UTC wall clock.
	Clock func() time.Time
}

// Repository performs resource-agnostic persistence operations over a
// single backing collection.
type Repository struct {
	label       string
	collection  string
	store       Store
	serializers Serializers
	imageDir    string
	logger      logger.Logger
	now         func() time.Time
}

// New validates the options and builds a repository.
func New(opts Options) (*Repository, error) {
	if opts.Collection == "" {
		return nil, fmt.Errorf("repository collection is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("repository store is required")
	}
	if opts.Label == "" {
		opts.Label = opts.Collection
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	if opts.Clock == nil {
		opts.Clock = nowUTC
	}
	return &Repository{
		label:       opts.Label,
		collection:  opts.Collection,
		store:       opts.Store,
		serializers: opts.Serializers,
		imageDir:    opts.ImageDir,
		logger:      opts.Logger,
		now:         opts.Clock,
	}, nil
}

// Label returns the human-readable resource name.
func (r *Repository) Label() string { return r.label }

// Serializers returns the projection configuration, letting services
// shape role-specific responses.
func (r *Repository) Serializers() Serializers { return r.serializers }

// Count reports how many records match the filter. A nil filter counts
// the whole collection.
func (r *Repository) Count(ctx context.Context, filter Filter) (int64, error) {
	if filter == nil {
		filter = Filter{}
	}
	return r.store.Count(ctx, r.collection, filter)
}

// Create shapes the input through the detail projection, stamps the
// lifecycle fields and persists the record.
func (r *Repository) Create(ctx context.Context, data Record) (res *Result, err error) {
	defer func() { metrics.RecordRepositoryOperation(r.collection, "create", err) }()

	doc := r.serializers.Default.Detail.Mask(data)
	now := r.now()
	if _, ok := doc[FieldArchived]; !ok {
		doc[FieldArchived] = false
	}
	doc[FieldCreatedAt] = now
	doc[FieldUpdatedAt] = now

	id, err := r.store.InsertOne(ctx, r.collection, doc)
	if err != nil {
		if err == ErrConflict {
			return nil, apperror.BadRequest(fmt.Sprintf("%s could not be created: duplicate value", r.label))
		}
		return nil, apperror.Internal(fmt.Sprintf("%s could not be created", r.label), err)
	}
	doc[FieldID] = id

	return &Result{
		Data:    doc,
		Message: fmt.Sprintf("%s created successfully", r.label),
		Status:  http.StatusCreated,
	}, nil
}

// FindOne looks a record up by filter.
func (r *Repository) FindOne(ctx context.Context, filter Filter) (res *Result, err error) {
	defer func() { metrics.RecordRepositoryOperation(r.collection, "findOne", err) }()

	rec, err := r.load(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Result{
		Data:    rec,
		Message: fmt.Sprintf("%s retrieved successfully", r.label),
		Status:  http.StatusOK,
	}, nil
}

// FindOneWithQuery performs a single-field equality lookup, coercing a
// string identifier into the store's native identifier type.
func (r *Repository) FindOneWithQuery(ctx context.Context, key string, value interface{}) (*Result, error) {
	if key == FieldID {
		if s, ok := value.(string); ok {
			oid, err := primitive.ObjectIDFromHex(s)
			if err != nil {
				return nil, apperror.BadRequest(fmt.Sprintf("invalid %s identifier", r.label))
			}
			value = oid
		}
	}
	return r.FindOne(ctx, Filter{key: value})
}

// Update merges the payload shallowly over the stored record. When the
// payload carries a non-empty images list, files dropped from the
// stored list are deleted from disk first, best-effort.
func (r *Repository) Update(ctx context.Context, filter Filter, data Record) (res *Result, err error) {
	defer func() { metrics.RecordRepositoryOperation(r.collection, "update", err) }()

	existing, err := r.load(ctx, filter)
	if err != nil {
		return nil, err
	}

	if updated := StringSlice(data[FieldImages]); len(updated) > 0 {
		if removed := imageDifference(StringSlice(existing[FieldImages]), updated); len(removed) > 0 {
			r.removeImages(removed)
		}
	}

	update := data.Clone()
	delete(update, FieldID)
	update[FieldUpdatedAt] = r.now()

	if err = r.persist(ctx, filter, update, "updated"); err != nil {
		return nil, err
	}

	merged := existing.Clone()
	for k, v := range update {
		merged[k] = v
	}

	return &Result{
		Data:    merged,
		Message: fmt.Sprintf("%s updated successfully", r.label),
		Status:  http.StatusOK,
	}, nil
}

// Archive flips the soft-delete flag on. Archiving an already archived
// record is allowed.
func (r *Repository) Archive(ctx context.Context, filter Filter) (res *Result, err error) {
	defer func() { metrics.RecordRepositoryOperation(r.collection, "archive", err) }()

	rec, err := r.load(ctx, filter)
	if err != nil {
		return nil, err
	}

	update := Record{FieldArchived: true, FieldUpdatedAt: r.now()}
	if err = r.persist(ctx, filter, update, "archived"); err != nil {
		return nil, err
	}
	rec[FieldArchived] = true
	rec[FieldUpdatedAt] = update[FieldUpdatedAt]

	return &Result{
		Data:    rec,
		Message: fmt.Sprintf("%s archived successfully", r.label),
		Status:  http.StatusOK,
	}, nil
}

// Restore flips the soft-delete flag back off. Restoring a record that
// is not archived is rejected.
func (r *Repository) Restore(ctx context.Context, filter Filter) (res *Result, err error) {
	defer func() { metrics.RecordRepositoryOperation(r.collection, "restore", err) }()

	rec, err := r.load(ctx, filter)
	if err != nil {
		return nil, err
	}
	if !rec.Archived() {
		return nil, apperror.BadRequest(fmt.Sprintf("%s is not archived", r.label))
	}

	update := Record{FieldArchived: false, FieldUpdatedAt: r.now()}
	if err = r.persist(ctx, filter, update, "restored"); err != nil {
		return nil, err
	}
	rec[FieldArchived] = false
	rec[FieldUpdatedAt] = update[FieldUpdatedAt]

	return &Result{
		Data:    rec,
		Message: fmt.Sprintf("%s restored successfully", r.label),
		Status:  http.StatusOK,
	}, nil
}

// Delete removes an archived record and its image files. Deleting a
// record that was never archived is rejected before any file is
// touched.
func (r *Repository) Delete(ctx context.Context, filter Filter) (res *Result, err error) {
	defer func() { metrics.RecordRepositoryOperation(r.collection, "delete", err) }()

	rec, err := r.load(ctx, filter)
	if err != nil {
		return nil, err
	}
	if !rec.Archived() {
		return nil, apperror.BadRequest(fmt.Sprintf("%s must be archived before deletion", r.label))
	}

	if images := StringSlice(rec[FieldImages]); len(images) > 0 {
		r.removeImages(images)
	}

	if err = r.store.DeleteOne(ctx, r.collection, filter); err != nil {
		return nil, apperror.Internal(fmt.Sprintf("%s could not be deleted", r.label), err)
	}

	return &Result{
		Message: fmt.Sprintf("%s deleted successfully", r.label),
		Status:  http.StatusOK,
	}, nil
}

// DeleteAll clears the whole collection after best-effort-deleting
// every referenced image file. Used by bulk-import overwrite flows.
func (r *Repository) DeleteAll(ctx context.Context) (res *Result, err error) {
	defer func() { metrics.RecordRepositoryOperation(r.collection, "deleteAll", err) }()

	recs, err := r.store.Find(ctx, r.collection, Filter{}, FindOptions{})
	if err != nil {
		return nil, apperror.Internal(fmt.Sprintf("%s records could not be loaded", r.label), err)
	}
	for _, rec := range recs {
		if images := StringSlice(rec[FieldImages]); len(images) > 0 {
			r.removeImages(images)
		}
	}

	if _, err = r.store.DeleteAll(ctx, r.collection); err != nil {
		return nil, apperror.Internal(fmt.Sprintf("%s records could not be deleted", r.label), err)
	}

	return &Result{
		Message: fmt.Sprintf("all %s records deleted successfully", r.label),
		Status:  http.StatusOK,
	}, nil
}

// FindArchive returns every archived record.
func (r *Repository) FindArchive(ctx context.Context) (res *Result, err error) {
	defer func() { metrics.RecordRepositoryOperation(r.collection, "findArchive", err) }()

	recs, err := r.store.Find(ctx, r.collection, Filter{FieldArchived: true}, FindOptions{})
	if err != nil {
		return nil, apperror.Internal(fmt.Sprintf("archived %s records could not be loaded", r.label), err)
	}
	if len(recs) == 0 {
		return nil, apperror.NotFound(fmt.Sprintf("no archived %s records found", r.label))
	}

	return &Result{
		Data:    recs,
		Message: fmt.Sprintf("archived %s records retrieved successfully", r.label),
		Status:  http.StatusOK,
	}, nil
}

// FindAll runs the paginated, filtered listing. Pagination is
// mandatory; every non-reserved query key becomes a case-insensitive
// partial match; archived records are excluded unless requested.
func (r *Repository) FindAll(ctx context.Context, q ListQuery) (res *ListResult, err error) {
	defer func() { metrics.RecordRepositoryOperation(r.collection, "findAll", err) }()

	if q.Page == nil || q.Limit == nil {
		return nil, apperror.BadRequest("page and limit are required")
	}
	page, limit := *q.Page, *q.Limit
	if page < 1 || limit < 1 {
		return nil, apperror.BadRequest("page and limit must be positive")
	}

	filter, err := buildListFilter(q, r.now())
	if err != nil {
		return nil, err
	}

	total, err := r.store.Count(ctx, r.collection, filter)
	if err != nil {
		return nil, apperror.Internal(fmt.Sprintf("%s records could not be counted", r.label), err)
	}
	if total == 0 {
		return nil, apperror.NotFound(fmt.Sprintf("no %s records matching query", r.label))
	}

	recs, err := r.store.Find(ctx, r.collection, filter, FindOptions{
		Sort:  listSort(q.Query),
		Skip:  (page - 1) * limit,
		Limit: limit,
	})
	if err != nil {
		return nil, apperror.Internal(fmt.Sprintf("%s records could not be loaded", r.label), err)
	}

	return &ListResult{
		Data:        recs,
		TotalObject: total,
		PageSize:    limit,
		CurrentPage: page,
		TotalPage:   (total + limit - 1) / limit,
		Message:     fmt.Sprintf("%s records retrieved successfully", r.label),
		Status:      http.StatusOK,
	}, nil
}

// IDFilter builds an identifier filter from a hex string id.
func IDFilter(id string) (Filter, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.BadRequest("invalid identifier")
	}
	return Filter{FieldID: oid}, nil
}

// load fetches one record, classifying absence as NotFound.
func (r *Repository) load(ctx context.Context, filter Filter) (Record, error) {
	rec, err := r.store.FindOne(ctx, r.collection, filter)
	if err != nil {
		if err == ErrNotFound {
			return nil, apperror.NotFound(fmt.Sprintf("%s not found", r.label))
		}
		return nil, apperror.Internal(fmt.Sprintf("%s could not be loaded", r.label), err)
	}
	return rec, nil
}

func (r *Repository) persist(ctx context.Context, filter Filter, update Record, verb string) error {
	if err := r.store.UpdateOne(ctx, r.collection, filter, update); err != nil {
		if err == ErrConflict {
			return apperror.BadRequest(fmt.Sprintf("%s could not be %s: duplicate value", r.label, verb))
		}
		return apperror.Internal(fmt.Sprintf("%s could not be %s", r.label, verb), err)
	}
	return nil
}
