package health

import (
	"context"
	"errors"
	"testing"
)

func TestCheck_AllHealthy(t *testing.T) {
	r := NewRegistry()
	r.Register("mongodb", CheckerFunc(func(context.Context) error { return nil }))
	r.Register("redis", CheckerFunc(func(context.Context) error { return nil }))

	report := r.Check(context.Background())
	if !report.Healthy {
		t.Fatalf("expected healthy report, got %+v", report)
	}
	if report.Checks["mongodb"] != "ok" || report.Checks["redis"] != "ok" {
		t.Fatalf("unexpected check results: %v", report.Checks)
	}
}

func TestCheck_OneFailureMakesTheReportUnhealthy(t *testing.T) {
	r := NewRegistry()
	r.Register("mongodb", CheckerFunc(func(context.Context) error { return nil }))
	r.Register("redis", CheckerFunc(func(context.Context) error {
		return errors.New("connection refused")
	}))

	report := r.Check(context.Background())
	if report.Healthy {
		t.Fatalf("expected unhealthy report, got %+v", report)
	}
	if report.Checks["redis"] != "connection refused" {
		t.Fatalf("expected the failure recorded, got %v", report.Checks)
	}
	if report.Checks["mongodb"] != "ok" {
		t.Fatalf("expected the passing check still reported, got %v", report.Checks)
	}
}

func TestCheck_EmptyRegistryIsHealthy(t *testing.T) {
	report := NewRegistry().Check(context.Background())
	if !report.Healthy || len(report.Checks) != 0 {
		t.Fatalf("unexpected report for empty registry: %+v", report)
	}
}

func TestRegister_ReplacesByName(t *testing.T) {
	r := NewRegistry()
	r.Register("store", CheckerFunc(func(context.Context) error {
		return errors.New("down")
	}))
	r.Register("store", CheckerFunc(func(context.Context) error { return nil }))

	if report := r.Check(context.Background()); !report.Healthy {
		t.Fatalf("expected the replacement checker used, got %+v", report)
	}
}

func TestCheckOne(t *testing.T) {
	r := NewRegistry()
	r.Register("redis", CheckerFunc(func(context.Context) error { return nil }))

	if err := r.CheckOne(context.Background(), "redis"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.CheckOne(context.Background(), "postgres"); err == nil {
		t.Fatalf("expected unknown check rejected")
	}
}
