package orders

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/merchantry/merchantry/pkg/apperror"
	"github.com/merchantry/merchantry/pkg/catalog"
	"github.com/merchantry/merchantry/pkg/repository"
)

func newTestService(t *testing.T) (*Service, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	svc, err := NewService(store, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	svc.invoiceFn = func() string { return "00001234" }
	return svc, store
}

func seedProduct(t *testing.T, store *repository.MemoryStore, rec repository.Record) string {
	t.Helper()
	id, err := store.InsertOne(context.Background(), catalog.Collection, rec)
	if err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return id.(primitive.ObjectID).Hex()
}

func orderPayload(products []interface{}) map[string]interface{} {
	return map[string]interface{}{
		"name":     "Jamie Carter",
		"email":    "jamie@example.com",
		"phone":    "01712345678",
		"address":  "12 Harbor Lane, Chattogram",
		"products": products,
	}
}

func cartLine(id string, qty float64) map[string]interface{} {
	return map[string]interface{}{"productId": id, "cartQuantity": qty}
}

func TestCreate_ValidatesContactFields(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), map[string]interface{}{
		"name":  "Jamie",
		"email": "not-an-email",
	})
	fields := apperror.FieldsOf(err)
	if len(fields["email"]) == 0 || len(fields["phone"]) == 0 || len(fields["products"]) == 0 {
		t.Fatalf("expected email, phone and products errors, got %v", fields)
	}
}

func TestCreate_ComputesTotalsAndDecrementsStock(t *testing.T) {
	svc, store := newTestService(t)
	anvil := seedProduct(t, store, repository.Record{
		"title": "Anvil", "price": float64(100), "purchasePrice": float64(60),
		"stockQuantity": float64(5), "vendorEmail": "vendor@shop.co",
	})
	mallet := seedProduct(t, store, repository.Record{
		"title": "Mallet", "price": float64(20), "purchasePrice": float64(10),
		"stockQuantity": float64(10),
	})

	res, err := svc.Create(context.Background(), orderPayload([]interface{}{
		cartLine(anvil, 2), cartLine(mallet, 3),
	}))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	order := res.Data.(repository.Record)
	if order["invoice"] != "00001234" {
		t.Fatalf("expected injected invoice, got %v", order["invoice"])
	}
	if order["status"] != string(StatusPending) {
		t.Fatalf("expected pending status, got %v", order["status"])
	}
	if order["price"] != float64(260) {
		t.Fatalf("expected total price 260, got %v", order["price"])
	}
	if order["profit"] != float64(110) {
		t.Fatalf("expected total profit 110, got %v", order["profit"])
	}

	filter, _ := repository.IDFilter(anvil)
	product, err := store.FindOne(context.Background(), catalog.Collection, filter)
	if err != nil {
		t.Fatalf("product read failed: %v", err)
	}
	if product["stockQuantity"] != int64(3) {
		t.Fatalf("expected stock decremented to 3, got %v", product["stockQuantity"])
	}
}

func TestCreate_SkipsUnusableLines(t *testing.T) {
	sc, _ := newTestStockScenario(t)

	res, err := sc.order(t)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	lines := res.Data.(repository.Record)["products"].([]repository.Record)
	if len(lines) != 1 || lines[0]["title"] != "Anvil" {
		t.Fatalf("expected only the viable line kept, got %v", lines)
	}
}

// newTestStockScenario seeds one viable product next to a missing,
// a malformed and an understocked line.
func newTestStockScenario(t *testing.T) (*stockScenario, *repository.MemoryStore) {
	t.Helper()
	svc, store := newTestService(t)
	anvil := seedProduct(t, store, repository.Record{
		"title": "Anvil", "price": float64(100), "stockQuantity": float64(5),
	})
	short := seedProduct(t, store, repository.Record{
		"title": "Chisel", "price": float64(15), "stockQuantity": float64(1),
	})
	return &stockScenario{svc: svc, anvil: anvil, short: short, store: store}, store
}

type stockScenario struct {
	svc   *Service
	store *repository.MemoryStore
	anvil string
	short string
}

func (sc *stockScenario) order(t *testing.T) (*repository.Result, error) {
	t.Helper()
	return sc.svc.Create(context.Background(), orderPayload([]interface{}{
		cartLine(sc.anvil, 1),
		cartLine(primitive.NewObjectID().Hex(), 1),
		cartLine("not-a-hex-id", 1),
		cartLine(sc.short, 3),
		map[string]interface{}{"cartQuantity": float64(1)},
		"not even a map",
	}))
}

func TestCreate_SkippedLinesLeaveStockAlone(t *testing.T) {
	sc, store := newTestStockScenario(t)

	if _, err := sc.order(t); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	filter, _ := repository.IDFilter(sc.short)
	product, err := store.FindOne(context.Background(), catalog.Collection, filter)
	if err != nil {
		t.Fatalf("product read failed: %v", err)
	}
	if product["stockQuantity"] != float64(1) {
		t.Fatalf("expected understocked product untouched, got %v", product["stockQuantity"])
	}
}

func TestCreate_RejectsOrderWithNoViableLine(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), orderPayload([]interface{}{
		cartLine(primitive.NewObjectID().Hex(), 1),
	}))
	if apperror.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unfulfillable order, got %v", err)
	}
	if !strings.Contains(err.Error(), "no ordered product is available") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestCreate_ProfitSkipsProductsWithoutPurchasePrice(t *testing.T) {
	svc, store := newTestService(t)
	id := seedProduct(t, store, repository.Record{
		"title": "Anvil", "price": float64(100), "stockQuantity": float64(5),
	})

	res, err := svc.Create(context.Background(), orderPayload([]interface{}{cartLine(id, 1)}))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	order := res.Data.(repository.Record)
	if order["profit"] != float64(0) {
		t.Fatalf("expected zero profit without purchasePrice, got %v", order["profit"])
	}
}

func TestUpdateStatus_EnforcesTheEnum(t *testing.T) {
	svc, store := newTestService(t)
	id := seedProduct(t, store, repository.Record{
		"title": "Anvil", "price": float64(100), "stockQuantity": float64(5),
	})
	res, err := svc.Create(context.Background(), orderPayload([]interface{}{cartLine(id, 1)}))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	orderID := res.Data.(repository.Record)[repository.FieldID].(primitive.ObjectID).Hex()

	_, err = svc.UpdateStatus(context.Background(), orderID, map[string]interface{}{"status": "teleported"})
	if apperror.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %v", err)
	}

	updated, err := svc.UpdateStatus(context.Background(), orderID, map[string]interface{}{"status": "shipped"})
	if err != nil {
		t.Fatalf("status update failed: %v", err)
	}
	if updated.Data.(repository.Record)["status"] != "shipped" {
		t.Fatalf("expected shipped status, got %v", updated.Data)
	}
}

func TestFindByInvoice(t *testing.T) {
	svc, store := newTestService(t)
	id := seedProduct(t, store, repository.Record{
		"title": "Anvil", "price": float64(100), "stockQuantity": float64(5),
	})
	if _, err := svc.Create(context.Background(), orderPayload([]interface{}{cartLine(id, 1)})); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	res, err := svc.FindByInvoice(context.Background(), "00001234")
	if err != nil {
		t.Fatalf("invoice lookup failed: %v", err)
	}
	if res.Data.(repository.Record)["name"] != "Jamie Carter" {
		t.Fatalf("unexpected order: %v", res.Data)
	}

	_, err = svc.FindByInvoice(context.Background(), "99999999")
	if apperror.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown invoice, got %v", err)
	}
}

func TestLifecycle_DeleteRequiresArchive(t *testing.T) {
	svc, store := newTestService(t)
	id := seedProduct(t, store, repository.Record{
		"title": "Anvil", "price": float64(100), "stockQuantity": float64(5),
	})
	res, err := svc.Create(context.Background(), orderPayload([]interface{}{cartLine(id, 1)}))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	orderID := res.Data.(repository.Record)[repository.FieldID].(primitive.ObjectID).Hex()

	if _, err := svc.Delete(context.Background(), orderID); apperror.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected delete-before-archive rejection, got %v", err)
	}
	if _, err := svc.Archive(context.Background(), orderID); err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	archived, err := svc.FindArchive(context.Background())
	if err != nil {
		t.Fatalf("findArchive failed: %v", err)
	}
	if len(archived.Data.([]repository.Record)) != 1 {
		t.Fatalf("expected one archived order, got %v", archived.Data)
	}
	if _, err := svc.Restore(context.Background(), orderID); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if _, err := svc.Archive(context.Background(), orderID); err != nil {
		t.Fatalf("re-archive failed: %v", err)
	}
	if _, err := svc.Delete(context.Background(), orderID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.FindOne(context.Background(), orderID); apperror.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %v", err)
	}
}
