package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"logistics-dashboard-service/internal/platform/db"
	"logistics-dashboard-service/internal/platform/obs"
	"strings"
)

// SQL-backed implementation of the CollectionStore port.
// Each collection is one row holding the JSON array verbatim.
type SQLCollectionStore struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLCollectionStore(conn *sql.DB, dialect db.Dialect) *SQLCollectionStore {
	return &SQLCollectionStore{DB: conn, Dialect: dialect}
}

// Return the stored payload for a collection, nil when absent.
func (s *SQLCollectionStore) Get(ctx context.Context, collection string) (_ []byte, err error) {
	defer obs.Time(ctx, "collections.Get")(&err)

	if s.DB == nil {
		return nil, errors.New("collection store: DB is nil")
	}
	if strings.TrimSpace(collection) == "" {
		return nil, errors.New("get collection: name must not be empty")
	}

	q := s.Dialect.Rebind(`
	SELECT payload
	FROM collections
	WHERE name = ?;
	`)

	var payload string
	err = s.DB.QueryRowContext(ctx, q, collection).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get collection %q: query collections table: %w", collection, err)
	}

	return []byte(payload), nil
}

// Replace the payload for a collection.
func (s *SQLCollectionStore) Set(ctx context.Context, collection string, payload []byte) (err error) {
	defer obs.Time(ctx, "collections.Set")(&err)

	if s.DB == nil {
		return errors.New("collection store: DB is nil")
	}
	if strings.TrimSpace(collection) == "" {
		return errors.New("set collection: name must not be empty")
	}

	q := s.Dialect.Rebind(`
	INSERT INTO collections (name, payload)
	VALUES (?, ?)
	ON CONFLICT (name) DO UPDATE
	SET payload = EXCLUDED.payload;
	`)

	if _, err := s.DB.ExecContext(ctx, q, collection, string(payload)); err != nil {
		return fmt.Errorf("set collection %q: %w", collection, err)
	}

	return nil
}
