// Package catalog implements the product resource: role-aware CRUD
// over the generic repository plus the bulk import flow.
package catalog

import (
	"context"
	"fmt"
	"net/http"

	"github.com/merchantry/merchantry/pkg/apperror"
	"github.com/merchantry/merchantry/pkg/auth"
	"github.com/merchantry/merchantry/pkg/observability/logger"
	"github.com/merchantry/merchantry/pkg/repository"
	"github.com/merchantry/merchantry/pkg/validation"
)

// Collection is the backing collection name.
const Collection = "products"

// adminOnlyFields are stripped from vendor-submitted payloads; only
// admins curate the storefront surface.
var adminOnlyFields = []string{"isFeatured", "isPublished"}

var allFields = repository.FieldSet{
	repository.FieldID, "title", "description", "price", "purchasePrice",
	"stockQuantity", "tags", repository.FieldImages, "vendorEmail", "vendorPhone",
	"isFeatured", "isPublished",
	repository.FieldArchived, repository.FieldCreatedAt, repository.FieldUpdatedAt,
}

// publicFields hide the purchase price from shoppers.
var publicFields = repository.FieldSet{
	repository.FieldID, "title", "description", "price",
	"stockQuantity", "tags", repository.FieldImages, "vendorEmail", "vendorPhone",
	"isFeatured", "isPublished",
	repository.FieldArchived, repository.FieldCreatedAt, repository.FieldUpdatedAt,
}

func serializers() repository.Serializers {
	return repository.Serializers{
		Default: repository.Views{Detail: allFields, List: allFields},
		PerRole: map[string]repository.Views{
			string(auth.RoleUser): {Detail: publicFields, List: publicFields},
		},
	}
}

func createSchema() validation.Schema {
	return validation.Schema{
		{Name: "title", Rules: []validation.Rule{
			validation.Required(), validation.String(), validation.MaxLength(100),
		}},
		{Name: "description", Rules: []validation.Rule{
			validation.Required(), validation.String(), validation.MaxLength(1000),
		}},
		{Name: "price", Rules: []validation.Rule{
			validation.Required(), validation.Number(), validation.Min(0),
		}},
		{Name: "stockQuantity", Rules: []validation.Rule{
			validation.Required(), validation.Integer(), validation.Min(0),
		}},
		{Name: "purchasePrice", Rules: []validation.Rule{
			validation.Number(), validation.Min(0),
		}},
		{Name: "tags", Rules: []validation.Rule{validation.StringArray()}},
		{Name: repository.FieldImages, Rules: []validation.Rule{validation.StringArray()}},
		{Name: "vendorEmail", Rules: []validation.Rule{validation.Email()}},
		{Name: "vendorPhone", Rules: []validation.Rule{validation.Phone()}},
		{Name: "isFeatured", Rules: []validation.Rule{validation.Boolean()}},
		{Name: "isPublished", Rules: []validation.Rule{validation.Boolean()}},
	}
}

// updateSchema drops the required rules: updates are partial.
func updateSchema() validation.Schema {
	schema := createSchema()
	out := make(validation.Schema, 0, len(schema))
	for _, field := range schema {
		rules := make([]validation.Rule, 0, len(field.Rules))
		for _, rule := range field.Rules {
			if rule.Kind == validation.KindRequired {
				continue
			}
			rules = append(rules, rule)
		}
		field.Rules = rules
		out = append(out, field)
	}
	return out
}

// Service owns the product repository, schemas and import flow.
type Service struct {
	repo     *repository.Repository
	create   *validation.Validator
	update   *validation.Validator
	finder   validation.StoreFinder
	logger   logger.Logger
	imageDir string
}

// NewService wires the product resource against the store.
func NewService(store repository.Store, imageDir string, log logger.Logger) (*Service, error) {
	repo, err := repository.New(repository.Options{
		Label:       "Product",
		Collection:  Collection,
		Store:       store,
		Serializers: serializers(),
		ImageDir:    imageDir,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Noop()
	}
	finder := validation.StoreFinder{Store: store, Collection: Collection}
	return &Service{
		repo:     repo,
		create:   validation.New(createSchema(), finder),
		update:   validation.New(updateSchema(), finder),
		finder:   finder,
		logger:   log,
		imageDir: imageDir,
	}, nil
}

// Create validates the payload and persists a product. Vendors are
// pinned to their own vendorEmail and cannot set the admin-only
// curation flags. isFeatured defaults false, isPublished true.
func (s *Service) Create(ctx context.Context, identity *auth.Identity, payload map[string]interface{}) (*repository.Result, error) {
	data, err := s.create.Validate(ctx, payload)
	if err != nil {
		return nil, err
	}

	if identity != nil && identity.Role == auth.RoleVendor {
		stripAdminOnly(data)
		data["vendorEmail"] = identity.Email
	}
	if _, ok := data["isFeatured"]; !ok {
		data["isFeatured"] = false
	}
	if _, ok := data["isPublished"]; !ok {
		data["isPublished"] = true
	}

	res, err := s.repo.Create(ctx, repository.Record(data))
	if err != nil {
		return nil, err
	}
	return s.maskResult(res, identity), nil
}

// FindOne looks a product up by id, shaped for the caller's role.
func (s *Service) FindOne(ctx context.Context, identity *auth.Identity, id string) (*repository.Result, error) {
	res, err := s.repo.FindOneWithQuery(ctx, repository.FieldID, id)
	if err != nil {
		return nil, err
	}
	return s.maskResult(res, identity), nil
}

// Update merges the validated payload over the stored product. Vendors
// may only touch their own products and never the admin-only flags.
func (s *Service) Update(ctx context.Context, identity *auth.Identity, id string, payload map[string]interface{}) (*repository.Result, error) {
	filter, err := repository.IDFilter(id)
	if err != nil {
		return nil, err
	}
	data, err := s.update.Validate(ctx, payload)
	if err != nil {
		return nil, err
	}

	if identity != nil && identity.Role == auth.RoleVendor {
		if err := s.checkOwnership(ctx, filter, identity); err != nil {
			return nil, err
		}
		stripAdminOnly(data)
	}

	res, err := s.repo.Update(ctx, filter, repository.Record(data))
	if err != nil {
		return nil, err
	}
	return s.maskResult(res, identity), nil
}

// Archive soft-deletes a product, vendors only their own.
func (s *Service) Archive(ctx context.Context, identity *auth.Identity, id string) (*repository.Result, error) {
	filter, err := s.ownedFilter(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	return s.repo.Archive(ctx, filter)
}

// Restore brings an archived product back, vendors only their own.
func (s *Service) Restore(ctx context.Context, identity *auth.Identity, id string) (*repository.Result, error) {
	filter, err := s.ownedFilter(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	return s.repo.Restore(ctx, filter)
}

// Delete hard-deletes an archived product, vendors only their own.
func (s *Service) Delete(ctx context.Context, identity *auth.Identity, id string) (*repository.Result, error) {
	filter, err := s.ownedFilter(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	return s.repo.Delete(ctx, filter)
}

// FindArchive lists the archived products.
func (s *Service) FindArchive(ctx context.Context) (*repository.Result, error) {
	return s.repo.FindArchive(ctx)
}

// FindAll runs the paginated listing. Vendors are scoped to their own
// products; shoppers get the public projection.
func (s *Service) FindAll(ctx context.Context, identity *auth.Identity, values map[string]interface{}, query map[string]string) (*repository.ListResult, error) {
	page, limit, err := validation.ValidateListRequest(ctx, s.finder, values)
	if err != nil {
		return nil, err
	}

	if query == nil {
		query = map[string]string{}
	}
	if identity != nil && identity.Role == auth.RoleVendor {
		query["vendorEmail"] = identity.Email
	}

	res, err := s.repo.FindAll(ctx, repository.NewListQuery(page, limit, query))
	if err != nil {
		return nil, err
	}
	res.Data = s.viewsFor(identity).List.MaskAll(res.Data)
	return res, nil
}

// BypassFindAll returns every non-archived product without pagination.
// Admin-only escape hatch for exports and dashboards.
func (s *Service) BypassFindAll(ctx context.Context) (*repository.Result, error) {
	recs, err := s.finder.Store.Find(ctx, Collection,
		repository.Filter{repository.FieldArchived: false}, repository.FindOptions{})
	if err != nil {
		return nil, apperror.Internal("Product records could not be loaded", err)
	}
	return &repository.Result{
		Data:    recs,
		Message: "Product records retrieved successfully",
		Status:  http.StatusOK,
	}, nil
}

func (s *Service) viewsFor(identity *auth.Identity) repository.Views {
	role := string(auth.RoleUser)
	if identity != nil {
		role = string(identity.Role)
	}
	return s.repo.Serializers().For(role)
}

func (s *Service) maskResult(res *repository.Result, identity *auth.Identity) *repository.Result {
	if rec, ok := res.Data.(repository.Record); ok {
		res.Data = s.viewsFor(identity).Detail.Mask(rec)
	}
	return res
}

// ownedFilter builds the id filter, enforcing vendor ownership first.
func (s *Service) ownedFilter(ctx context.Context, identity *auth.Identity, id string) (repository.Filter, error) {
	filter, err := repository.IDFilter(id)
	if err != nil {
		return nil, err
	}
	if identity != nil && identity.Role == auth.RoleVendor {
		if err := s.checkOwnership(ctx, filter, identity); err != nil {
			return nil, err
		}
	}
	return filter, nil
}

// checkOwnership rejects vendors touching records they do not own. A
// missing record surfaces as NotFound, never as Unauthorized.
func (s *Service) checkOwnership(ctx context.Context, filter repository.Filter, identity *auth.Identity) error {
	res, err := s.repo.FindOne(ctx, filter)
	if err != nil {
		return err
	}
	rec, _ := res.Data.(repository.Record)
	owner, _ := rec["vendorEmail"].(string)
	if owner != identity.Email {
		return apperror.Unauthorized(fmt.Sprintf("Product does not belong to %s", identity.Email))
	}
	return nil
}

func stripAdminOnly(data map[string]interface{}) {
	for _, field := range adminOnlyFields {
		delete(data, field)
	}
}
