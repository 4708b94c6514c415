// Package storage provides the key/value backends that hold persisted
// dashboard state: layouts, widget membership and theme preferences.
//
// A Backend is a flat namespace of byte values. Implementations:
//   - file: JSON files under a directory, for the CLI
//   - memory: a map, for tests and ephemeral servers
//   - null: stores nothing
//   - redis, mongo, sqlite: shared stores for multi-instance servers
//
// Use Scoped to give each client or dashboard its own namespace over a
// shared backend:
//
//	b, err := storage.Open(ctx, storage.Config{Kind: storage.KindFile, Dir: dir})
//	if err != nil {
//	    return err
//	}
//	defer b.Close()
//	user := storage.Scoped(b, "session:"+id+":")
package storage

import (
	"context"
	"fmt"

	"github.com/matzehuels/gridboard/pkg/errors"
)

// Backend is a key/value store.
//
// Get reports a missing key as (nil, false, nil). Delete of a missing key is
// not an error.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Kind names a backend implementation.
type Kind string

const (
	KindFile   Kind = "file"
	KindMemory Kind = "memory"
	KindNone   Kind = "none"
	KindRedis  Kind = "redis"
	KindMongo  Kind = "mongo"
	KindSQLite Kind = "sqlite"
)

// Config selects and configures a backend.
type Config struct {
	Kind      Kind        `toml:"kind"`
	Dir       string      `toml:"dir"`
	Namespace string      `toml:"namespace"`
	Redis     RedisConfig `toml:"redis"`
	Mongo     MongoConfig `toml:"mongo"`
	SQLite    string      `toml:"sqlite_path"`
}

// Open creates the backend described by cfg. An empty kind means file. A
// non-empty namespace scopes every key under it.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	var (
		b   Backend
		err error
	)
	switch cfg.Kind {
	case KindFile, "":
		if cfg.Dir == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "file storage needs a directory")
		}
		b, err = NewFileBackend(cfg.Dir)
	case KindMemory:
		b = NewMemoryBackend()
	case KindNone:
		b = NewNullBackend()
	case KindRedis:
		b, err = NewRedisBackend(ctx, cfg.Redis)
	case KindMongo:
		b, err = NewMongoBackend(ctx, cfg.Mongo)
	case KindSQLite:
		b, err = NewSQLiteBackend(cfg.SQLite)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown storage kind %q", cfg.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Kind, err)
	}
	if cfg.Namespace != "" {
		sb := Scoped(b, cfg.Namespace)
		sb.owns = true
		b = sb
	}
	return b, nil
}

func checkKey(key string) error {
	if err := errors.ValidateStorageKey(key); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return nil
}
