package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Aurfi/pizzeria/internal/auth/store"
	_ "modernc.org/sqlite"
)

// Store is the sqlite-backed user system of record.
type Store struct {
	db *sql.DB
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Enforce FKs, mostly out of habit; the schema is one table today.
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Users() store.Users { return &usersRepo{q: s.db} }

// WithTx executes fn against a transaction-scoped Users, committing when fn
// returns nil and rolling back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Users) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(&usersRepo{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}
