package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/classboard/core"
)

var errClosed = core.NewShutdownError("inmem", core.ErrStoreClosed)

type kvRepository struct {
	db *kvTable
}

func NewKVRepository(db *DB) core.KVRepository {
	return &kvRepository{db: db.kv}
}

func (repo *kvRepository) Get(_ context.Context, key string) (*core.KVEntry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if repo.db.closed {
		return nil, errClosed
	}

	entry, ok := repo.db.table[key]
	if !ok {
		return nil, core.ErrKeyNotFound
	}
	entry.Value = append([]byte(nil), entry.Value...)
	return &entry, nil
}

func (repo *kvRepository) Set(_ context.Context, key string, value []byte) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if repo.db.closed {
		return errClosed
	}

	repo.db.table[key] = core.KVEntry{
		Key:       key,
		Value:     append([]byte(nil), value...),
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}

func (repo *kvRepository) Delete(_ context.Context, key string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if repo.db.closed {
		return errClosed
	}

	delete(repo.db.table, key)
	return nil
}
