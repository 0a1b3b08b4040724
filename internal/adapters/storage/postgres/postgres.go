package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store bundles the PostgreSQL-backed repositories over one connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects a pool and verifies the connection actually works.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Properties() *PropertyRepository {
	return &PropertyRepository{pool: s.pool}
}

func (s *Store) Orders() *OrderRepository {
	return &OrderRepository{pool: s.pool}
}

func (s *Store) Assignments() *AssignmentRepository {
	return &AssignmentRepository{pool: s.pool}
}

func (s *Store) Users() *UserDirectory {
	return &UserDirectory{pool: s.pool}
}
