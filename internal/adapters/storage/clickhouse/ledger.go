// Package clickhouse is the commission ledger: the reporting store the
// settlement recorder writes every completed transaction into. The ledger is
// derived data; the Postgres registry stays the source of truth.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
)

// SettlementRecord is one ledger row: a settled transaction with its
// commission breakdown.
type SettlementRecord struct {
	PropertyID  uuid.UUID
	OrderID     uuid.UUID
	BrokerID    uuid.UUID // zero UUID when no broker was assigned
	Status      string
	Purpose     string
	FinalPrice  float64
	SellerShare float64
	BuyerShare  float64
	Total       float64
	SettledAt   time.Time
}

// Ledger wraps the ClickHouse connection.
type Ledger struct {
	conn clickhouse.Conn
}

func NewLedger(addr string) (*Ledger, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}
	return &Ledger{conn: conn}, nil
}

func (l *Ledger) Close() error {
	return l.conn.Close()
}

// RecordSettlement appends one settlement to the ledger.
func (l *Ledger) RecordSettlement(ctx context.Context, rec SettlementRecord) error {
	const sql = `
		INSERT INTO commission_ledger
			(property_id, order_id, broker_id, status, purpose,
			 final_price, seller_share, buyer_share, total, settled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	err := l.conn.Exec(ctx, sql,
		rec.PropertyID.String(), rec.OrderID.String(), rec.BrokerID.String(),
		rec.Status, rec.Purpose,
		rec.FinalPrice, rec.SellerShare, rec.BuyerShare, rec.Total, rec.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record settlement: %w", err)
	}
	return nil
}

// Recent returns the latest settlements, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]SettlementRecord, error) {
	rows, err := l.conn.Query(ctx, `
		SELECT property_id, order_id, broker_id, status, purpose,
		       final_price, seller_share, buyer_share, total, settled_at
		FROM commission_ledger ORDER BY settled_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent settlements: %w", err)
	}
	defer rows.Close()

	var out []SettlementRecord
	for rows.Next() {
		var rec SettlementRecord
		var propertyID, orderID, brokerID string
		if err := rows.Scan(&propertyID, &orderID, &brokerID, &rec.Status, &rec.Purpose,
			&rec.FinalPrice, &rec.SellerShare, &rec.BuyerShare, &rec.Total, &rec.SettledAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		rec.PropertyID, _ = uuid.Parse(propertyID)
		rec.OrderID, _ = uuid.Parse(orderID)
		rec.BrokerID, _ = uuid.Parse(brokerID)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// BrokerEarnings is an aggregate over the ledger.
type BrokerEarnings struct {
	BrokerID    string
	Settlements uint64
	Total       float64
}

// TopBrokers ranks brokers by total commission on their settled properties.
func (l *Ledger) TopBrokers(ctx context.Context, limit int) ([]BrokerEarnings, error) {
	rows, err := l.conn.Query(ctx, `
		SELECT broker_id, count() AS settlements, sum(total) AS total
		FROM commission_ledger
		WHERE broker_id != '00000000-0000-0000-0000-000000000000'
		GROUP BY broker_id ORDER BY total DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top brokers: %w", err)
	}
	defer rows.Close()

	var out []BrokerEarnings
	for rows.Next() {
		var be BrokerEarnings
		if err := rows.Scan(&be.BrokerID, &be.Settlements, &be.Total); err != nil {
			return nil, fmt.Errorf("failed to scan broker earnings: %w", err)
		}
		out = append(out, be)
	}
	return out, rows.Err()
}
