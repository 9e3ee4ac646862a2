// Package mongodb provides the document-store adapter backing every
// record collection.
package mongodb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/merchantry/merchantry/pkg/observability/logger"
)

// Adapter provides MongoDB connectivity.
type Adapter struct {
	client   *mongo.Client
	database string
	logger   logger.Logger
	timeout  time.Duration
	mu       sync.RWMutex
	closed   bool
}

// Config holds MongoDB adapter configuration.
type Config struct {
	URL              string
	Database         string
	ConnectTimeout   time.Duration
	OperationTimeout time.Duration
}

// FindOptions narrows a Find call. Zero values mean no sort, no skip,
// no limit.
type FindOptions struct {
	Sort  map[string]interface{}
	Skip  int64
	Limit int64
}

// Cosa fa: inizializza un adapter MongoDB e verifica connettività via ping.
// Cosa NON fa: non crea indici o collezioni automaticamente.
// Esempio minimo: adapter, err := mongodb.NewAdapter(cfg, log)
func NewAdapter(cfg Config, log logger.Logger) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("mongodb URL is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongodb database is required")
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	log.Info("MongoDB connection established", "database", cfg.Database)
	return &Adapter{
		client:   client,
		database: cfg.Database,
		logger:   log,
		timeout:  cfg.OperationTimeout,
	}, nil
}

func (a *Adapter) Client() *mongo.Client {
	return a.client
}

func (a *Adapter) Database() *mongo.Database {
	return a.client.Database(a.database)
}

func (a *Adapter) Collection(name string) *mongo.Collection {
	return a.Database().Collection(name)
}

func (a *Adapter) Ping(ctx context.Context) error {
	a.mu.RLock()
	closed := a.closed
	a.mu.RUnlock()
	if closed {
		return fmt.Errorf("mongodb adapter is closed")
	}
	return a.client.Ping(ctx, readpref.Primary())
}

func (a *Adapter) HealthCheck(ctx context.Context) error {
	hcCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := a.Ping(hcCtx); err != nil {
		a.logger.Error("MongoDB health check failed", "error", err)
		return fmt.Errorf("mongodb health check failed: %w", err)
	}
	return nil
}

func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to close mongodb connection: %w", err)
	}
	return nil
}

// Cosa fa: inserisce un documento nella collection target.
// Cosa NON fa: non valida lo schema del documento.
// Esempio minimo: id, err := adapter.InsertOne(ctx, "products", doc)
func (a *Adapter) InsertOne(ctx context.Context, collection string, doc map[string]interface{}) (interface{}, error) {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	res, err := a.Collection(collection).InsertOne(opCtx, bson.M(doc))
	if err != nil {
		return nil, err
	}
	return res.InsertedID, nil
}

func (a *Adapter) FindOne(ctx context.Context, collection string, filter map[string]interface{}) (map[string]interface{}, error) {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	var doc bson.M
	if err := a.Collection(collection).FindOne(opCtx, bson.M(filter)).Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (a *Adapter) Find(ctx context.Context, collection string, filter map[string]interface{}, opts FindOptions) ([]map[string]interface{}, error) {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()

	findOpts := options.Find()
	if len(opts.Sort) > 0 {
		findOpts.SetSort(bson.M(opts.Sort))
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}

	cursor, err := a.Collection(collection).Find(opCtx, bson.M(filter), findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(opCtx)

	var docs []bson.M
	if err := cursor.All(opCtx, &docs); err != nil {
		return nil, err
	}

	out := make([]map[string]interface{}, len(docs))
	for i, d := range docs {
		out[i] = d
	}
	return out, nil
}

func (a *Adapter) CountDocuments(ctx context.Context, collection string, filter map[string]interface{}) (int64, error) {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	return a.Collection(collection).CountDocuments(opCtx, bson.M(filter))
}

func (a *Adapter) UpdateOne(ctx context.Context, collection string, filter, update map[string]interface{}) error {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	_, err := a.Collection(collection).UpdateOne(opCtx, bson.M(filter), bson.M{"$set": bson.M(update)})
	return err
}

func (a *Adapter) DeleteOne(ctx context.Context, collection string, filter map[string]interface{}) error {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	_, err := a.Collection(collection).DeleteOne(opCtx, bson.M(filter))
	return err
}

func (a *Adapter) DeleteMany(ctx context.Context, collection string, filter map[string]interface{}) (int64, error) {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	res, err := a.Collection(collection).DeleteMany(opCtx, bson.M(filter))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// IsNotFound reports whether err marks an empty single-document result.
func IsNotFound(err error) bool {
	return err == mongo.ErrNoDocuments
}

// IsDuplicateKey reports whether err is a unique-index violation.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

func (a *Adapter) withOperationTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.timeout)
}
