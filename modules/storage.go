package modules

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/wippyai/native-bridge/errors"
)

const storageBucket = "storage"

// Storage is a persistent string key/value module backed by bbolt.
type Storage struct {
	db *bolt.DB
}

// OpenStorage opens or creates the database at path.
func OpenStorage(path string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.New(errors.PhaseModule, errors.KindInstantiation).
			Detail("storage directory").Cause(err).Build()
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.New(errors.PhaseModule, errors.KindInstantiation).
			Detail("open storage %s", path).Cause(err).Build()
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(storageBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.New(errors.PhaseModule, errors.KindInstantiation).
			Detail("initialize storage bucket").Cause(err).Build()
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Name() string { return "storage" }

// GetItem returns the value stored under args[0], or nil.
func (s *Storage) GetItem(_ context.Context, args []any) (any, error) {
	key, err := stringArg(args, 0, "key")
	if err != nil {
		return nil, err
	}
	var out any
	err = s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(storageBucket)).Get([]byte(key)); v != nil {
			out = string(v)
		}
		return nil
	})
	return out, err
}

// SetItem stores args[1] under args[0].
func (s *Storage) SetItem(_ context.Context, args []any) (any, error) {
	key, err := stringArg(args, 0, "key")
	if err != nil {
		return nil, err
	}
	value, err := stringArg(args, 1, "value")
	if err != nil {
		return nil, err
	}
	return nil, s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(storageBucket)).Put([]byte(key), []byte(value))
	})
}

// RemoveItem deletes the value under args[0].
func (s *Storage) RemoveItem(_ context.Context, args []any) (any, error) {
	key, err := stringArg(args, 0, "key")
	if err != nil {
		return nil, err
	}
	return nil, s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(storageBucket)).Delete([]byte(key))
	})
}

// GetAllKeys returns every stored key in byte order.
func (s *Storage) GetAllKeys(_ context.Context, _ []any) (any, error) {
	keys := []any{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(storageBucket)).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

// Clear removes every stored value.
func (s *Storage) Clear(_ context.Context, _ []any) (any, error) {
	return nil, s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(storageBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(storageBucket))
		return err
	})
}

// Close releases the database.
func (s *Storage) Close() error {
	return s.db.Close()
}

func stringArg(args []any, i int, name string) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing %s argument", name)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", name, args[i])
	}
	return s, nil
}
