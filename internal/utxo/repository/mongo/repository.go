// Package mongo persists annotated blocks and transactions in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	blocksCollection       = "blocks"
	transactionsCollection = "transactions"

	duplicateKeyCode = 11000
	connectTimeout   = 5 * time.Second
)

type (
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}
)

// Repository reads and writes the blocks and transactions collections.
type Repository struct {
	db      *mongo.Database
	metrics Metrics
}

// Connect opens a client for uri, checks the primary is reachable and ensures
// the unique indexes used to deduplicate rewrites.
func Connect(ctx context.Context, uri, database string, metrics Metrics) (*Repository, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	if database == "" {
		return nil, errors.New("mongo database is required")
	}

	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := cli.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	repo := NewRepository(cli.Database(database), metrics)
	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = cli.Disconnect(ctx)
		return nil, err
	}
	return repo, nil
}

// NewRepository wraps an already connected database.
func NewRepository(db *mongo.Database, metrics Metrics) *Repository {
	return &Repository{db: db, metrics: metrics}
}

// EnsureIndexes creates the unique hash indexes on both collections.
func (r *Repository) EnsureIndexes(ctx context.Context) (err error) {
	started := time.Now()
	defer func() {
		r.observe("ensure_indexes", err, started)
	}()

	indexes := map[string]string{
		blocksCollection:       "hash",
		transactionsCollection: "txHash",
	}
	for _, name := range []string{blocksCollection, transactionsCollection} {
		_, err = r.db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: indexes[name], Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("create %s index: %w", name, err)
		}
	}
	return nil
}

// Ping checks the primary is reachable.
func (r *Repository) Ping(ctx context.Context) (err error) {
	started := time.Now()
	defer func() {
		r.observe("ping", err, started)
	}()

	if err = r.db.Client().Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	return nil
}

// Disconnect closes the underlying client.
func (r *Repository) Disconnect(ctx context.Context) error {
	return r.db.Client().Disconnect(ctx)
}

func (r *Repository) observe(operation string, err error, started time.Time) {
	if r.metrics != nil {
		r.metrics.Observe(operation, err, started)
	}
}

// onlyDuplicates reports whether err consists solely of duplicate key write errors,
// meaning every rejected document is already stored.
func onlyDuplicates(err error) bool {
	var bulk mongo.BulkWriteException
	if errors.As(err, &bulk) {
		if bulk.WriteConcernError != nil || len(bulk.WriteErrors) == 0 {
			return false
		}
		for _, we := range bulk.WriteErrors {
			if we.Code != duplicateKeyCode {
				return false
			}
		}
		return true
	}

	var write mongo.WriteException
	if errors.As(err, &write) {
		if write.WriteConcernError != nil || len(write.WriteErrors) == 0 {
			return false
		}
		for _, we := range write.WriteErrors {
			if we.Code != duplicateKeyCode {
				return false
			}
		}
		return true
	}
	return false
}
