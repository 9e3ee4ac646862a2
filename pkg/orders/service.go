// Package orders implements order intake: cart lines are checked
// against live product stock, accepted lines decrement it, and the
// totals are computed from the product prices at order time.
package orders

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/merchantry/merchantry/pkg/apperror"
	"github.com/merchantry/merchantry/pkg/catalog"
	"github.com/merchantry/merchantry/pkg/observability/logger"
	"github.com/merchantry/merchantry/pkg/repository"
	"github.com/merchantry/merchantry/pkg/validation"
)

// Collection is the backing collection name.
const Collection = "orders"

var fields = repository.FieldSet{
	repository.FieldID, "invoice", "name", "email", "phone", "address",
	"products", "status", "price", "profit",
	repository.FieldArchived, repository.FieldCreatedAt, repository.FieldUpdatedAt,
}

// publicFields hide the profit figure from non-admin callers.
var publicFields = repository.FieldSet{
	repository.FieldID, "invoice", "name", "email", "phone", "address",
	"products", "status", "price",
	repository.FieldArchived, repository.FieldCreatedAt, repository.FieldUpdatedAt,
}

func serializers() repository.Serializers {
	return repository.Serializers{
		Default: repository.Views{Detail: fields, List: fields},
		PerRole: map[string]repository.Views{
			"user":   {Detail: publicFields, List: publicFields},
			"vendor": {Detail: publicFields, List: publicFields},
		},
	}
}

func createSchema() validation.Schema {
	return validation.Schema{
		{Name: "name", Rules: []validation.Rule{
			validation.Required(), validation.String(), validation.MaxLength(100),
		}},
		{Name: "email", Rules: []validation.Rule{
			validation.Required(), validation.Email(),
		}},
		{Name: "phone", Rules: []validation.Rule{
			validation.Required(), validation.Phone(),
		}},
		{Name: "address", Rules: []validation.Rule{
			validation.Required(), validation.String(), validation.MaxLength(500),
		}},
		{Name: "products", Rules: []validation.Rule{
			validation.Required(), validation.Array(),
		}},
	}
}

func statusSchema() validation.Schema {
	return validation.Schema{
		{Name: "status", Rules: []validation.Rule{
			validation.Required(),
			validation.Enum(StatusValues()...),
		}},
	}
}

// Service owns the order repository and reads product stock through
// the shared store.
type Service struct {
	repo      *repository.Repository
	create    *validation.Validator
	status    *validation.Validator
	finder    validation.StoreFinder
	store     repository.Store
	logger    logger.Logger
	invoiceFn func() string
}

// NewService wires the order resource against the store.
func NewService(store repository.Store, imageDir string, log logger.Logger) (*Service, error) {
	repo, err := repository.New(repository.Options{
		Label:       "Order",
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
		repo:      repo,
		create:    validation.New(createSchema(), finder),
		status:    validation.New(statusSchema(), finder),
		finder:    finder,
		store:     store,
		logger:    log,
		invoiceFn: newInvoice,
	}, nil
}

// newInvoice generates an 8-digit numeric invoice number.
func newInvoice() string {
	return fmt.Sprintf("%08d", rand.IntN(100_000_000))
}

// Create validates the contact fields, resolves every cart line
// against the catalog and persists the order. Lines whose product is
// missing or short on stock are skipped without touching that stock;
// an order with no surviving line is rejected.
func (s *Service) Create(ctx context.Context, payload map[string]interface{}) (*repository.Result, error) {
	data, err := s.create.Validate(ctx, payload)
	if err != nil {
		return nil, err
	}

	lines, totalPrice, totalProfit, err := s.resolveCart(ctx, cartEntries(data["products"]))
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperror.BadRequest("no ordered product is available")
	}

	order := repository.Record{
		"invoice":  s.invoiceFn(),
		"name":     data["name"],
		"email":    data["email"],
		"phone":    data["phone"],
		"address":  data["address"],
		"products": lines,
		"status":   string(StatusPending),
		"price":    totalPrice,
		"profit":   totalProfit,
	}
	return s.repo.Create(ctx, order)
}

// resolveCart walks the submitted cart, skipping unusable lines and
// decrementing stock for the accepted ones.
func (s *Service) resolveCart(ctx context.Context, entries []cartEntry) ([]repository.Record, float64, float64, error) {
	var (
		lines       []repository.Record
		totalPrice  float64
		totalProfit float64
	)

	for _, entry := range entries {
		if entry.productID == "" || entry.quantity < 1 {
			s.logger.Warn("skipping malformed cart line", "productId", entry.productID)
			continue
		}
		filter, err := repository.IDFilter(entry.productID)
		if err != nil {
			s.logger.Warn("skipping cart line with invalid product id", "productId", entry.productID)
			continue
		}

		product, err := s.store.FindOne(ctx, catalog.Collection, filter)
		if err != nil {
			if err == repository.ErrNotFound {
				s.logger.Warn("skipping cart line for missing product", "productId", entry.productID)
				continue
			}
			return nil, 0, 0, apperror.Internal("Product lookup failed", err)
		}

		price, priceOK := numeric(product["price"])
		stock, stockOK := numeric(product["stockQuantity"])
		if !priceOK || !stockOK {
			s.logger.Warn("skipping cart line with incomplete product data", "productId", entry.productID)
			continue
		}
		if int64(stock) < entry.quantity {
			s.logger.Warn("skipping cart line with insufficient stock",
				"productId", entry.productID, "stock", int64(stock), "requested", entry.quantity)
			continue
		}

		if err := s.store.UpdateOne(ctx, catalog.Collection, filter, repository.Record{
			"stockQuantity": int64(stock) - entry.quantity,
		}); err != nil {
			return nil, 0, 0, apperror.Internal("Product stock could not be updated", err)
		}

		qty := float64(entry.quantity)
		totalPrice += price * qty
		if purchase, ok := numeric(product["purchasePrice"]); ok {
			totalProfit += (price - purchase) * qty
		}

		lines = append(lines, repository.Record{
			repository.FieldID: product[repository.FieldID],
			"title":            product["title"],
			"price":            price,
			"vendorEmail":      product["vendorEmail"],
			"vendorPhone":      product["vendorPhone"],
			"cartQuantity":     entry.quantity,
		})
	}

	return lines, totalPrice, totalProfit, nil
}

// UpdateStatus moves the order through the fulfilment states.
func (s *Service) UpdateStatus(ctx context.Context, id string, payload map[string]interface{}) (*repository.Result, error) {
	filter, err := repository.IDFilter(id)
	if err != nil {
		return nil, err
	}
	data, err := s.status.Validate(ctx, payload)
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, filter, repository.Record{"status": data["status"]})
}

// FindOne looks an order up by id.
func (s *Service) FindOne(ctx context.Context, id string) (*repository.Result, error) {
	return s.repo.FindOneWithQuery(ctx, repository.FieldID, id)
}

// FindByInvoice looks an order up by its invoice number.
func (s *Service) FindByInvoice(ctx context.Context, invoice string) (*repository.Result, error) {
	return s.repo.FindOneWithQuery(ctx, "invoice", invoice)
}

// Archive soft-deletes the order.
func (s *Service) Archive(ctx context.Context, id string) (*repository.Result, error) {
	filter, err := repository.IDFilter(id)
	if err != nil {
		return nil, err
	}
	return s.repo.Archive(ctx, filter)
}

// Restore brings an archived order back.
func (s *Service) Restore(ctx context.Context, id string) (*repository.Result, error) {
	filter, err := repository.IDFilter(id)
	if err != nil {
		return nil, err
	}
	return s.repo.Restore(ctx, filter)
}

// Delete hard-deletes an archived order.
func (s *Service) Delete(ctx context.Context, id string) (*repository.Result, error) {
	filter, err := repository.IDFilter(id)
	if err != nil {
		return nil, err
	}
	return s.repo.Delete(ctx, filter)
}

// FindArchive lists the archived orders.
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

type cartEntry struct {
	productID string
	quantity  int64
}

// cartEntries normalizes the loosely-typed cart payload. Lines name
// their product by _id or productId.
func cartEntries(v interface{}) []cartEntry {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	entries := make([]cartEntry, 0, len(items))
	for _, item := range items {
		line, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		id, _ := line[repository.FieldID].(string)
		if id == "" {
			id, _ = line["productId"].(string)
		}
		qty, _ := numeric(line["cartQuantity"])
		entries = append(entries, cartEntry{productID: id, quantity: int64(qty)})
	}
	return entries
}

func numeric(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
