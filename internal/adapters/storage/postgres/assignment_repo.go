package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"property-brokerage-system/internal/core/domain"
)

// AssignmentRepository keeps the append-only broker assignment history.
type AssignmentRepository struct {
	pool *pgxpool.Pool
}

func (r *AssignmentRepository) Create(ctx context.Context, a *domain.BrokerAssignment) error {
	const sql = `
		INSERT INTO broker_assignments
			(id, property_id, broker_id, assigned_by, assigned_at)
		VALUES
			($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, sql, a.ID, a.PropertyID, a.BrokerID, a.AssignedBy, a.AssignedAt)
	if err != nil {
		return fmt.Errorf("failed to create broker assignment: %w", err)
	}
	return nil
}

func (r *AssignmentRepository) LatestByProperty(ctx context.Context, propertyID uuid.UUID) (*domain.BrokerAssignment, error) {
	var a domain.BrokerAssignment
	err := r.pool.QueryRow(ctx,
		`SELECT id, property_id, broker_id, assigned_by, assigned_at
		 FROM broker_assignments WHERE property_id = $1
		 ORDER BY assigned_at DESC LIMIT 1`, propertyID).
		Scan(&a.ID, &a.PropertyID, &a.BrokerID, &a.AssignedBy, &a.AssignedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get latest assignment: %w", err)
	}
	return &a, nil
}

// UserDirectory resolves user references from the replicated users table the
// identity collaborator maintains.
type UserDirectory struct {
	pool *pgxpool.Pool
}

func (d *UserDirectory) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := d.pool.QueryRow(ctx,
		`SELECT id, name, role FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
