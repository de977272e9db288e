package db

import (
	"context"
	"fmt"
	"time"

	"github.com/tokenized/milestone-escrow/pkg/storage"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

var (
	// ErrInvalidDBProvided is returned in the event that an uninitialized db is
	// used to perform actions against.
	ErrInvalidDBProvided = errors.New("Invalid DB provided")

	// ErrNotFound abstracts the standard not found error.
	ErrNotFound = errors.New("Entity not found")
)

// DB is the document store the escrow keeps its records in.
type DB struct {
	storage storage.Storage
}

// New returns a DB on the bucket storage described by config.
func New(config storage.Config) *DB {
	return &DB{
		storage: storage.CreateStorage(config),
	}
}

// NewWithStorage returns a DB on an existing storage.
func NewWithStorage(store storage.Storage) *DB {
	return &DB{
		storage: store,
	}
}

// Storage returns the underlying storage.
func (db *DB) Storage() storage.Storage {
	return db.storage
}

// StatusCheck validates the DB status good.
func (db *DB) StatusCheck(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "platform.DB.StatusCheck")
	defer span.End()

	if db.storage == nil {
		return ErrInvalidDBProvided
	}

	// Generate a random key that is almost certain not to exist.
	uid, err := uuid.NewRandom()
	if err != nil {
		return errors.Wrap(err, "uuid")
	}
	k := fmt.Sprintf("healthcheck/%v/%v", uid, time.Now().UnixNano())

	// We should receive a "not found" error for a non-existant key.
	if _, err := db.Fetch(ctx, k); errors.Cause(err) != ErrNotFound {
		if err == nil {
			return fmt.Errorf("Health check key %s exists", k)
		}
		return err
	}

	return nil
}

// Close closes a DB value being used.
func (db *DB) Close() {
	db.storage = nil
}

// -------------------------------------------------------------------------
// Storage

// Put something in storage
func (db *DB) Put(ctx context.Context, key string, body []byte) error {
	if db.storage == nil {
		return errors.Wrap(ErrInvalidDBProvided, "storage == nil")
	}

	return db.storage.Write(ctx, key, body, nil)
}

// Fetch something from storage
func (db *DB) Fetch(ctx context.Context, key string) ([]byte, error) {
	if db.storage == nil {
		return nil, errors.Wrap(ErrInvalidDBProvided, "storage == nil")
	}

	b, err := db.storage.Read(ctx, key)
	if err != nil {
		if storage.IsNotFound(err) {
			err = ErrNotFound
		}

		return nil, err
	}

	return b, nil
}

// Remove something from storage
func (db *DB) Remove(ctx context.Context, key string) error {
	if db.storage == nil {
		return errors.Wrap(ErrInvalidDBProvided, "storage == nil")
	}

	if err := db.storage.Remove(ctx, key); err != nil {
		if storage.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// List returns the keys under a given path.
func (db *DB) List(ctx context.Context, keyStart string) ([]string, error) {
	if db.storage == nil {
		return nil, errors.Wrap(ErrInvalidDBProvided, "storage == nil")
	}

	return db.storage.List(ctx, keyStart)
}

// Search returns the contents of every key under a given path, in key order.
func (db *DB) Search(ctx context.Context, keyStart string) ([][]byte, error) {
	keys, err := db.List(ctx, keyStart)
	if err != nil {
		return nil, err
	}

	result := make([][]byte, 0, len(keys))
	for _, key := range keys {
		b, err := db.Fetch(ctx, key)
		if err != nil {
			if err == ErrNotFound {
				continue // removed since listing
			}
			return nil, errors.Wrap(err, key)
		}
		result = append(result, b)
	}

	return result, nil
}
