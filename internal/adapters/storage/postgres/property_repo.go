package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"property-brokerage-system/internal/core/domain"
	"property-brokerage-system/internal/core/ports"
)

// PropertyRepository implements the PropertyRepository port for PostgreSQL.
// Atomicity of status changes rests on conditional UPDATEs: a write that
// names a stale status affects zero rows and reads as ErrStatusConflict.
type PropertyRepository struct {
	pool *pgxpool.Pool
}

const propertyColumns = `
	id, owner_id, assigned_broker_id, status, purpose, kind, title,
	price, currency, details, images, final_price, created_at, updated_at`

func (r *PropertyRepository) Create(ctx context.Context, p *domain.Property) error {
	details, err := marshalDetails(p)
	if err != nil {
		return err
	}
	const sql = `
		INSERT INTO properties
			(id, owner_id, status, purpose, kind, title, price, currency, details, images, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`
	_, err = r.pool.Exec(ctx, sql,
		p.ID, p.OwnerID, p.Status, p.Purpose, p.Kind, p.Title,
		p.Price, p.Currency, details, p.Images, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create property: %w", err)
	}
	return nil
}

func (r *PropertyRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id)
	return scanProperty(row)
}

func (r *PropertyRepository) List(ctx context.Context, f ports.PropertyFilter) ([]domain.Property, error) {
	var (
		conds []string
		args  []any
	)
	if f.Status != nil {
		args = append(args, *f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	sql := `SELECT ` + propertyColumns + ` FROM properties`
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	sql += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer rows.Close()
	return scanProperties(rows)
}

func (r *PropertyRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Property, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties by owner: %w", err)
	}
	defer rows.Close()
	return scanProperties(rows)
}

func (r *PropertyRepository) ListByBroker(ctx context.Context, brokerID uuid.UUID) ([]domain.Property, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE assigned_broker_id = $1 ORDER BY created_at DESC`, brokerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties by broker: %w", err)
	}
	defer rows.Close()
	return scanProperties(rows)
}

// UpdateStatus is the compare-and-set behind every transition.
func (r *PropertyRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.PropertyStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE properties SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, from, to)
	if err != nil {
		return fmt.Errorf("failed to update property status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.conflictOrMissing(ctx, id)
	}
	return nil
}

// Settle flips to a terminal status and freezes the final price in the same
// conditional write.
func (r *PropertyRepository) Settle(ctx context.Context, id uuid.UUID, from, to domain.PropertyStatus, finalPrice float64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE properties SET status = $3, final_price = $4, updated_at = now()
		 WHERE id = $1 AND status = $2`,
		id, from, to, finalPrice)
	if err != nil {
		return fmt.Errorf("failed to settle property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.conflictOrMissing(ctx, id)
	}
	return nil
}

// SetBroker writes the active broker reference, conditional on the current
// status. The row lock taken by UPDATE serializes concurrent assignments;
// the last committed one wins.
func (r *PropertyRepository) SetBroker(ctx context.Context, id uuid.UUID, brokerID uuid.UUID, allowed []domain.PropertyStatus) error {
	statuses := make([]string, len(allowed))
	for i, s := range allowed {
		statuses[i] = string(s)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE properties SET assigned_broker_id = $2, updated_at = now()
		 WHERE id = $1 AND status = ANY($3)`,
		id, brokerID, statuses)
	if err != nil {
		return fmt.Errorf("failed to set broker: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, gerr := r.Get(ctx, id); gerr != nil {
			return gerr
		}
		return domain.ErrPropertyNotAssignable
	}
	return nil
}

func (r *PropertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPropertyNotFound
	}
	return nil
}

// conflictOrMissing disambiguates a zero-row conditional update: the row is
// either gone or carries a different status than the caller read.
func (r *PropertyRepository) conflictOrMissing(ctx context.Context, id uuid.UUID) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return domain.ErrStatusConflict
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (*domain.Property, error) {
	var (
		p       domain.Property
		details []byte
	)
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.AssignedBrokerID, &p.Status, &p.Purpose, &p.Kind,
		&p.Title, &p.Price, &p.Currency, &details, &p.Images, &p.FinalPrice,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPropertyNotFound
		}
		return nil, fmt.Errorf("failed to scan property: %w", err)
	}
	if err := unmarshalDetails(&p, details); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanProperties(rows pgx.Rows) ([]domain.Property, error) {
	var props []domain.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		props = append(props, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate properties: %w", err)
	}
	return props, nil
}

// marshalDetails serializes the kind-specific variant to the JSONB column.
func marshalDetails(p *domain.Property) ([]byte, error) {
	var v any
	switch p.Kind {
	case domain.KindHome:
		v = p.Home
	case domain.KindCar:
		v = p.Car
	case domain.KindElectronics:
		v = p.Electronics
	default:
		return nil, fmt.Errorf("%w: unknown property kind %q", domain.ErrInvalidInput, p.Kind)
	}
	details, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal property details: %w", err)
	}
	return details, nil
}

func unmarshalDetails(p *domain.Property, details []byte) error {
	if len(details) == 0 {
		return nil
	}
	var target any
	switch p.Kind {
	case domain.KindHome:
		p.Home = &domain.HomeDetails{}
		target = p.Home
	case domain.KindCar:
		p.Car = &domain.CarDetails{}
		target = p.Car
	case domain.KindElectronics:
		p.Electronics = &domain.ElectronicsDetails{}
		target = p.Electronics
	default:
		return nil
	}
	if err := json.Unmarshal(details, target); err != nil {
		return fmt.Errorf("failed to unmarshal property details: %w", err)
	}
	return nil
}
