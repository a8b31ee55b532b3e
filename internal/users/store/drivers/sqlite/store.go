package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/store"
)

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// NewStore opens dsn (a file path or ":memory:"). The pool is capped at one
// connection, which also keeps an in-memory database alive.
func NewStore(dsn string) (*Store, error) {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", dsn+sep+"_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewStoreFromDB wraps an already opened database.
func NewStoreFromDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Projections() store.Projections { return &projectionsRepo{db: s.db} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapCheck turns CHECK constraint violations into store.ErrInvalid.
func mapCheck(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return store.ErrInvalid
		case sqlite3.SQLITE_CONSTRAINT:
			if strings.Contains(se.Error(), "CHECK") {
				return store.ErrInvalid
			}
		}
	}
	return err
}

// Times are stored as unix milliseconds.
func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
