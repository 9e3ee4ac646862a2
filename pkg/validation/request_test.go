package validation

import (
	"context"
	"net/http"
	"testing"

	"github.com/merchantry/merchantry/pkg/apperror"
)

type fakeCounter struct {
	total int64
	err   error
}

func (f *fakeCounter) Count(ctx context.Context, filter map[string]interface{}) (int64, error) {
	return f.total, f.err
}

func TestValidateListRequest_RequiresPageAndLimit(t *testing.T) {
	_, _, err := ValidateListRequest(context.Background(), &fakeCounter{}, map[string]interface{}{})
	if err == nil {
		t.Fatalf("expected missing pagination to fail")
	}
	fields := apperror.FieldsOf(err)
	if fields["page"][0] != "page is required" || fields["limit"][0] != "limit is required" {
		t.Fatalf("unexpected field errors: %v", fields)
	}
	if status := apperror.StatusOf(err); status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestValidateListRequest_RejectsNonPositiveValues(t *testing.T) {
	_, _, err := ValidateListRequest(context.Background(), &fakeCounter{}, map[string]interface{}{
		"page":  0,
		"limit": 10,
	})
	if err == nil {
		t.Fatalf("expected non-positive page to fail")
	}
}

func TestValidateListRequest_ResetsPagePastLastToOne(t *testing.T) {
	page, limit, err := ValidateListRequest(context.Background(), &fakeCounter{total: 15}, map[string]interface{}{
		"page":  99,
		"limit": 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != 1 || limit != 10 {
		t.Fatalf("expected page reset to 1, got page=%d limit=%d", page, limit)
	}
}

func TestValidateListRequest_KeepsPageInsideRange(t *testing.T) {
	page, _, err := ValidateListRequest(context.Background(), &fakeCounter{total: 15}, map[string]interface{}{
		"page":  2,
		"limit": 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != 2 {
		t.Fatalf("expected in-range page to survive, got %d", page)
	}
}

func TestValidateListRequest_CoercesStringAndFloatInputs(t *testing.T) {
	page, limit, err := ValidateListRequest(context.Background(), &fakeCounter{total: 100}, map[string]interface{}{
		"page":  "3",
		"limit": float64(20),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != 3 || limit != 20 {
		t.Fatalf("expected coerced pagination, got page=%d limit=%d", page, limit)
	}
}

func TestValidateListRequest_EmptyCollectionKeepsRequestedPage(t *testing.T) {
	page, _, err := ValidateListRequest(context.Background(), &fakeCounter{total: 0}, map[string]interface{}{
		"page":  5,
		"limit": 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != 5 {
		t.Fatalf("expected page untouched when the collection is empty, got %d", page)
	}
}
