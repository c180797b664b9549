package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/classboard/core"
)

type kvRepository struct {
	db *sqlx.DB
}

func NewKVRepository(db *sqlx.DB) core.KVRepository {
	return &kvRepository{db: db}
}

func (repo *kvRepository) Get(ctx context.Context, key string) (*core.KVEntry, error) {
	var entry core.KVEntry
	q := repo.db.Rebind(`SELECT "key", value, updated_at FROM kv WHERE "key" = ?`)
	if err := repo.db.GetContext(ctx, &entry, q, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrKeyNotFound
		}
		return nil, kvError(err, "selecting kv %q", key)
	}
	return &entry, nil
}

func (repo *kvRepository) Set(ctx context.Context, key string, value []byte) error {
	q := repo.db.Rebind(`INSERT INTO kv ("key", value, updated_at) VALUES (?, ?, ?)
ON CONFLICT ("key") DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if _, err := repo.db.ExecContext(ctx, q, key, value, time.Now().UTC()); err != nil {
		return kvError(err, "upserting kv %q", key)
	}
	return nil
}

func (repo *kvRepository) Delete(ctx context.Context, key string) error {
	q := repo.db.Rebind(`DELETE FROM kv WHERE "key" = ?`)
	if _, err := repo.db.ExecContext(ctx, q, key); err != nil {
		return kvError(err, "deleting kv %q", key)
	}
	return nil
}

// kvError turns the errors of a closed database into a core.ShutdownError.
func kvError(err error, format, key string) error {
	// database/sql does not export its "database is closed" error
	if errors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "sql: database is closed") {
		return core.NewShutdownError("sqlx", errors.Wrapf(core.ErrStoreClosed, format, key))
	}
	return errors.Wrapf(err, format, key)
}
