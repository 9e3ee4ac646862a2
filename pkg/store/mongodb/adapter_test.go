package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/merchantry/merchantry/pkg/observability/logger"
	"github.com/merchantry/merchantry/pkg/testutil"
)

func TestNewAdapter_RequiresURLAndDatabase(t *testing.T) {
	if _, err := NewAdapter(Config{Database: "db"}, logger.Noop()); err == nil {
		t.Fatalf("expected missing URL rejected")
	}
	if _, err := NewAdapter(Config{URL: "mongodb://localhost:27017"}, logger.Noop()); err == nil {
		t.Fatalf("expected missing database rejected")
	}
}

func TestAdapter_Integration(t *testing.T) {
	url := testutil.RequireEnv(t, "TEST_MONGODB_URL")

	a, err := NewAdapter(Config{
		URL:              url,
		Database:         "merchantry_test",
		ConnectTimeout:   5 * time.Second,
		OperationTimeout: 5 * time.Second,
	}, logger.Noop())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer a.Close()

	ctx := context.Background()
	collection := "integration_" + t.Name()
	defer a.Collection(collection).Drop(ctx)

	id, err := a.InsertOne(ctx, collection, map[string]interface{}{"title": "Anvil", "price": 120})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if id == nil {
		t.Fatalf("expected an inserted id")
	}

	doc, err := a.FindOne(ctx, collection, map[string]interface{}{"title": "Anvil"})
	if err != nil {
		t.Fatalf("findOne failed: %v", err)
	}
	if doc["title"] != "Anvil" {
		t.Fatalf("unexpected document: %v", doc)
	}

	if err := a.UpdateOne(ctx, collection, map[string]interface{}{"title": "Anvil"},
		map[string]interface{}{"price": 150}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	n, err := a.CountDocuments(ctx, collection, map[string]interface{}{})
	if err != nil || n != 1 {
		t.Fatalf("count returned %d, %v", n, err)
	}

	_, err = a.FindOne(ctx, collection, map[string]interface{}{"title": "Mallet"})
	if !IsNotFound(err) {
		t.Fatalf("expected a not-found miss, got %v", err)
	}

	deleted, err := a.DeleteMany(ctx, collection, map[string]interface{}{})
	if err != nil || deleted != 1 {
		t.Fatalf("deleteMany returned %d, %v", deleted, err)
	}
}
