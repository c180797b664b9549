package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/trezcool/classboard/core"
)

const (
	EngineInMem    = "inmem"
	EngineSQLite   = "sqlite3"
	EnginePostgres = "postgres"
)

var migrations = map[string]string{
	EngineSQLite: `CREATE TABLE IF NOT EXISTS kv (
	"key"      TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at DATETIME NOT NULL
)`,
	EnginePostgres: `CREATE TABLE IF NOT EXISTS kv (
	"key"      TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`,
}

func postgresDSN(dbName string, conf *core.Config) string {
	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   EnginePostgres,
		User:     url.UserPassword(conf.Database.User, conf.Database.Password),
		Host:     conf.Database.Host + ":" + strconv.Itoa(conf.Database.Port),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Open connects to the SQL database configured in conf.Database.
func Open(conf *core.Config) (*sqlx.DB, error) {
	switch conf.Database.Engine {
	case EngineSQLite:
		db, err := sqlx.Open(EngineSQLite, conf.Database.Path+"?_busy_timeout=5000")
		if err != nil {
			return nil, err
		}
		// a single connection also keeps ":memory:" databases alive
		db.SetMaxOpenConns(1)
		return db, nil
	case EnginePostgres:
		return sqlx.Open(EnginePostgres, postgresDSN(conf.Database.Name, conf))
	default:
		return nil, errors.Errorf("unsupported database engine %q", conf.Database.Engine)
	}
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// CreateIfNotExist creates the postgres database. Other engines create it on open.
func CreateIfNotExist(conf *core.Config) error {
	if conf.Database.Engine != EnginePostgres {
		return nil
	}

	db, err := sqlx.Open(EnginePostgres, postgresDSN("postgres", conf))
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	if err = ping(db); err != nil {
		return errors.Wrap(err, "pinging database")
	}

	var exists bool
	err = db.Get(&exists, "SELECT true FROM pg_database WHERE datname = $1", conf.Database.Name)
	if err != nil && err != sql.ErrNoRows {
		return errors.Wrap(err, "checking DB")
	}
	if !exists {
		if _, err = db.Exec(fmt.Sprintf("CREATE DATABASE %q", conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// Migrate creates the tables the app needs.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	ddl, ok := migrations[db.DriverName()]
	if !ok {
		return errors.Errorf("no migrations for driver %q", db.DriverName())
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// Setup creates, opens and migrates the configured database.
func Setup(ctx context.Context, conf *core.Config) (*sqlx.DB, error) {
	if err := CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := Open(conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err = Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
