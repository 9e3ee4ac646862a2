package repository

import (
	"testing"
	"time"
)

func TestBuildListFilter_ReservedKeysNeverBecomeFieldFilters(t *testing.T) {
	now := time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC)
	q := NewListQuery(1, 10, map[string]string{
		"name":  "anvil",
		"order": "asc",
		"start": "2024-04-01",
		"end":   "2024-04-30",
	})

	filter, err := buildListFilter(q, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := filter["order"]; ok {
		t.Fatalf("order must not become a field filter")
	}
	if _, ok := filter["start"]; ok {
		t.Fatalf("start must not become a field filter")
	}
	nameCond, ok := filter["name"].(Filter)
	if !ok || nameCond["$regex"] != "anvil" || nameCond["$options"] != "i" {
		t.Fatalf("expected case-insensitive regex filter on name, got %v", filter["name"])
	}
	if _, ok := filter[FieldCreatedAt].(Filter); !ok {
		t.Fatalf("expected createdAt window, got %v", filter[FieldCreatedAt])
	}
	if filter[FieldArchived] != false {
		t.Fatalf("expected archived filter to default to false")
	}
}

func TestBuildListFilter_EmptyValuesAreSkipped(t *testing.T) {
	filter, err := buildListFilter(NewListQuery(1, 10, map[string]string{"name": ""}), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := filter["name"]; ok {
		t.Fatalf("empty filter values must be skipped")
	}
}

func TestBuildListFilter_RejectsBadArchivedFlag(t *testing.T) {
	_, err := buildListFilter(NewListQuery(1, 10, map[string]string{FieldArchived: "maybe"}), time.Now())
	if err == nil {
		t.Fatalf("expected non-boolean isArchived to be rejected")
	}
}

func TestDateWindow_PairSyntax(t *testing.T) {
	start, end, ok, err := dateWindow(map[string]string{
		"dateRange": "2024-04-01|2024-04-30",
	}, time.Now())
	if err != nil || !ok {
		t.Fatalf("expected pair syntax to resolve, got ok=%v err=%v", ok, err)
	}
	if start.Month() != time.April || end.Day() != 30 {
		t.Fatalf("unexpected window [%v, %v]", start, end)
	}
}

func TestDateWindow_RejectsMalformedPair(t *testing.T) {
	_, _, _, err := dateWindow(map[string]string{"dateRange": "2024-04-01"}, time.Now())
	if err == nil {
		t.Fatalf("expected malformed dateRange to be rejected")
	}
}

func TestDateWindow_RFC3339Timestamps(t *testing.T) {
	start, _, ok, err := dateWindow(map[string]string{
		"start": "2024-04-01T08:30:00Z",
		"end":   "2024-04-02T08:30:00Z",
	}, time.Now())
	if err != nil || !ok {
		t.Fatalf("expected RFC3339 window to resolve, got ok=%v err=%v", ok, err)
	}
	if start.Hour() != 8 {
		t.Fatalf("expected time-of-day to be preserved, got %v", start)
	}
}

func TestListSort(t *testing.T) {
	if dir := listSort(nil)[FieldCreatedAt]; dir != -1 {
		t.Fatalf("expected newest-first default, got %v", dir)
	}
	if dir := listSort(map[string]string{"order": "Asc"})[FieldCreatedAt]; dir != 1 {
		t.Fatalf("expected ascending sort for order=Asc, got %v", dir)
	}
	if dir := listSort(map[string]string{"order": "desc"})[FieldCreatedAt]; dir != -1 {
		t.Fatalf("expected descending sort for order=desc, got %v", dir)
	}
}
