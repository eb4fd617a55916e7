package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lhchen/storefront/internal/core/domain"
)

// MySQLAdapter archives completed checkouts. Orders are append-only; the
// cart's own state never lives here.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// EnsureSchema creates the orders table when it does not exist yet.
func (m *MySQLAdapter) EnsureSchema(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			id              VARCHAR(36)  PRIMARY KEY,
			request_id      VARCHAR(128) NOT NULL,
			items_json      MEDIUMTEXT   NOT NULL,
			subtotal        DECIMAL(12,2) NOT NULL,
			shipping_fee    DECIMAL(12,2) NOT NULL,
			coupon_discount DECIMAL(12,2) NOT NULL,
			total           DECIMAL(12,2) NOT NULL,
			status          VARCHAR(16)  NOT NULL,
			created_at      DATETIME     NOT NULL,
			updated_at      DATETIME     NOT NULL,
			UNIQUE KEY uniq_request (request_id)
		)`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) SaveOrder(ctx context.Context, order domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, request_id, items_json, subtotal, shipping_fee,
			coupon_discount, total, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.RequestID, items,
		order.Subtotal.StringFixed(2), order.ShippingFee.StringFixed(2),
		order.CouponDiscount.StringFixed(2), order.Total.StringFixed(2),
		domain.OrderStatusConfirmed, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return tx.Commit()
}

// GetOrder reads one archived order back, mainly for verification in tests.
func (m *MySQLAdapter) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var (
		order                 domain.Order
		items                 []byte
		sub, fee, disc, total string
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT id, request_id, items_json, subtotal, shipping_fee,
			coupon_discount, total, status, created_at, updated_at
		FROM orders WHERE id = ?`, id,
	).Scan(&order.ID, &order.RequestID, &items, &sub, &fee, &disc, &total,
		&order.Status, &order.CreatedAt, &order.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	if err := scanDecimals(&order, sub, fee, disc, total); err != nil {
		return nil, err
	}
	return &order, nil
}

func scanDecimals(order *domain.Order, sub, fee, disc, total string) error {
	var err error
	if order.Subtotal, err = decimal.NewFromString(sub); err != nil {
		return fmt.Errorf("parse subtotal: %w", err)
	}
	if order.ShippingFee, err = decimal.NewFromString(fee); err != nil {
		return fmt.Errorf("parse shipping fee: %w", err)
	}
	if order.CouponDiscount, err = decimal.NewFromString(disc); err != nil {
		return fmt.Errorf("parse coupon discount: %w", err)
	}
	if order.Total, err = decimal.NewFromString(total); err != nil {
		return fmt.Errorf("parse total: %w", err)
	}
	return nil
}
