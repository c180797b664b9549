package inmemdb

import (
	"sync"

	"github.com/trezcool/classboard/core"
)

type (
	DB struct {
		kv *kvTable
	}

	kvTable struct {
		mutex  sync.RWMutex
		table  map[string]core.KVEntry
		closed bool
	}
)

func Open() (*DB, error) {
	db := &DB{
		kv: &kvTable{table: make(map[string]core.KVEntry)},
	}
	return db, nil
}

// Close drops the data. Repositories fail with a core.ShutdownError afterwards.
func (db *DB) Close() error {
	db.kv.mutex.Lock()
	defer db.kv.mutex.Unlock()
	db.kv.closed = true
	db.kv.table = nil
	return nil
}
