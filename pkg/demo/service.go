// Package demo is the minimal resource: it exists to exercise the full
// generic record lifecycle with nothing but a name and a description.
package demo

import (
	"context"

	"github.com/merchantry/merchantry/pkg/apperror"
	"github.com/merchantry/merchantry/pkg/observability/logger"
	"github.com/merchantry/merchantry/pkg/repository"
	"github.com/merchantry/merchantry/pkg/validation"
)

// Collection is the backing collection name.
const Collection = "demos"

var fields = repository.FieldSet{
	repository.FieldID, "name", "description",
	repository.FieldArchived, repository.FieldCreatedAt, repository.FieldUpdatedAt,
}

func serializers() repository.Serializers {
	return repository.Serializers{
		Default: repository.Views{Detail: fields, List: fields},
	}
}

func schema() validation.Schema {
	return validation.Schema{
		{Name: "name", Rules: []validation.Rule{
			validation.Required(),
			validation.String(),
			validation.MaxLength(100),
		}},
		{Name: "description", Rules: []validation.Rule{
			validation.Required(),
			validation.String(),
			validation.MaxLength(500),
		}},
	}
}

// Service owns the demo repository and its validation schema.
type Service struct {
	repo      *repository.Repository
	validator *validation.Validator
	finder    validation.StoreFinder
}

// NewService wires the demo resource against the store.
func NewService(store repository.Store, imageDir string, log logger.Logger) (*Service, error) {
	repo, err := repository.New(repository.Options{
		Label:       "Demo",
		Collection:  Collection,
		Store:       store,
		Serializers: serializers(),
		ImageDir:    imageDir,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}
	finder := validation.StoreFinder{Store: store, Collection: Collection}
	return &Service{
		repo:      repo,
		validator: validation.New(schema(), finder),
		finder:    finder,
	}, nil
}

// Create validates the payload, rejects duplicate names and persists
// the record.
func (s *Service) Create(ctx context.Context, payload map[string]interface{}) (*repository.Result, error) {
	data, err := s.validator.Validate(ctx, payload)
	if err != nil {
		return nil, err
	}

	if name, ok := data["name"].(string); ok {
		matches, err := s.finder.Find(ctx, map[string]interface{}{"name": name})
		if err != nil {
			return nil, apperror.Internal("Demo lookup failed", err)
		}
		if len(matches) > 0 {
			return nil, apperror.BadRequest("Demo with this name already exists")
		}
	}

	return s.repo.Create(ctx, data)
}

// FindOne looks a demo record up by id.
func (s *Service) FindOne(ctx context.Context, id string) (*repository.Result, error) {
	return s.repo.FindOneWithQuery(ctx, repository.FieldID, id)
}

// Update validates the payload and merges it over the stored record.
func (s *Service) Update(ctx context.Context, id string, payload map[string]interface{}) (*repository.Result, error) {
	filter, err := repository.IDFilter(id)
	if err != nil {
		return nil, err
	}
	data, err := s.validator.Validate(ctx, payload)
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, filter, data)
}

// Archive soft-deletes the record.
func (s *Service) Archive(ctx context.Context, id string) (*repository.Result, error) {
	filter, err := repository.IDFilter(id)
	if err != nil {
		return nil, err
	}
	return s.repo.Archive(ctx, filter)
}

// Restore brings an archived record back.
func (s *Service) Restore(ctx context.Context, id string) (*repository.Result, error) {
	filter, err := repository.IDFilter(id)
	if err != nil {
		return nil, err
	}
	return s.repo.Restore(ctx, filter)
}

// Delete hard-deletes an archived record.
func (s *Service) Delete(ctx context.Context, id string) (*repository.Result, error) {
	filter, err := repository.IDFilter(id)
	if err != nil {
		return nil, err
	}
	return s.repo.Delete(ctx, filter)
}

// FindArchive lists the archived records.
func (s *Service) FindArchive(ctx context.Context) (*repository.Result, error) {
	return s.repo.FindArchive(ctx)
}

// FindAll runs the paginated listing after the page pre-check.
func (s *Service) FindAll(ctx context.Context, values map[string]interface{}, query map[string]string) (*repository.ListResult, error) {
	page, limit, err := validation.ValidateListRequest(ctx, s.finder, values)
	if err != nil {
		return nil, err
	}
	return s.repo.FindAll(ctx, repository.NewListQuery(page, limit, query))
}
