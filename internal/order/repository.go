package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KeeperOfTheLights/best-project-backend/internal/apperr"
	"github.com/KeeperOfTheLights/best-project-backend/internal/db"
	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type Repository interface {
	// InTx runs fn in one transaction: everything fn did through tx is
	// committed when it returns nil and rolled back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByConsumer(ctx context.Context, consumerID uuid.UUID, status *Status) ([]Order, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID, status *Status) ([]Order, error)
	CountByStatus(ctx context.Context, supplierID uuid.UUID) (map[Status]int, error)
	CountPendingComplaints(ctx context.Context, supplierID uuid.UUID) (int, error)
}

// Tx is the set of statements the order engine issues inside a transaction.
type Tx interface {
	// LockCheckoutLines returns the consumer's cart joined with its products,
	// locking the product rows in product id order.
	LockCheckoutLines(ctx context.Context, consumerID uuid.UUID) ([]CheckoutLine, error)
	IsLinked(ctx context.Context, consumerID, supplierID uuid.UUID) (bool, error)
	InsertOrder(ctx context.Context, o *Order) error
	// AdjustStock adds delta to the product stock. A decrement that would go
	// below zero fails with *apperr.StockError.
	AdjustStock(ctx context.Context, productID uuid.UUID, delta int) error
	ClearCart(ctx context.Context, consumerID uuid.UUID) error
	LockOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status, at time.Time) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{db: pool}
}

func (r *postgresRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &postgresTx{tx: tx})
	})
}

const orderColumns = `id, consumer_id, supplier_id, status, total_price, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	if err := row.Scan(&o.ID, &o.ConsumerID, &o.SupplierID, &o.Status, &o.TotalPrice, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Items = make([]OrderItem, 0)
	return &o, nil
}

// loadItems fills Items of every order in orders with one query.
func loadItems(ctx context.Context, q db.Querier, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*Order, len(orders))
	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY product_name`, ids)
	if err != nil {
		return fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice); err != nil {
			return fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("repository: failed iterating order items: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}
	if err := loadItems(ctx, r.db, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepository) list(ctx context.Context, column string, partyID uuid.UUID, status *Status) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + column + ` = $1`
	args := []any{partyID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for %s %s: %w", column, partyID, err)
	}
	defer rows.Close()

	ptrs := make([]*Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		ptrs = append(ptrs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating orders: %w", err)
	}
	rows.Close()

	if err := loadItems(ctx, r.db, ptrs); err != nil {
		return nil, err
	}

	orders := make([]Order, 0, len(ptrs))
	for _, o := range ptrs {
		orders = append(orders, *o)
	}
	return orders, nil
}

func (r *postgresRepository) ListByConsumer(ctx context.Context, consumerID uuid.UUID, status *Status) ([]Order, error) {
	return r.list(ctx, "consumer_id", consumerID, status)
}

func (r *postgresRepository) ListBySupplier(ctx context.Context, supplierID uuid.UUID, status *Status) ([]Order, error) {
	return r.list(ctx, "supplier_id", supplierID, status)
}

func (r *postgresRepository) CountByStatus(ctx context.Context, supplierID uuid.UUID) (map[Status]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM orders WHERE supplier_id = $1 GROUP BY status`, supplierID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to count orders for supplier %s: %w", supplierID, err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var (
			status Status
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating order counts: %w", err)
	}
	return counts, nil
}

func (r *postgresRepository) CountPendingComplaints(ctx context.Context, supplierID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM complaints
		WHERE supplier_id = $1 AND status IN ('pending', 'escalated')`, supplierID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to count complaints for supplier %s: %w", supplierID, err)
	}
	return n, nil
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) LockCheckoutLines(ctx context.Context, consumerID uuid.UUID) ([]CheckoutLine, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT c.id, p.id, p.supplier_id, p.name, c.quantity, p.stock, p.price
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.consumer_id = $1
		ORDER BY p.id
		FOR UPDATE OF p, c`, consumerID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to lock cart of consumer %s: %w", consumerID, err)
	}
	defer rows.Close()

	lines := make([]CheckoutLine, 0)
	for rows.Next() {
		var l CheckoutLine
		if err := rows.Scan(&l.CartItemID, &l.ProductID, &l.SupplierID, &l.ProductName, &l.Quantity, &l.Stock, &l.Price); err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating cart lines: %w", err)
	}
	return lines, nil
}

func (t *postgresTx) IsLinked(ctx context.Context, consumerID, supplierID uuid.UUID) (bool, error) {
	var status string
	err := t.tx.QueryRow(ctx, `
		SELECT status FROM links
		WHERE consumer_id = $1 AND supplier_id = $2
		FOR SHARE`, consumerID, supplierID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("repository: failed to read link %s/%s: %w", consumerID, supplierID, err)
	}
	return status == "linked", nil
}

func (t *postgresTx) InsertOrder(ctx context.Context, o *Order) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders (id, consumer_id, supplier_id, status, total_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.ConsumerID, o.SupplierID, string(o.Status), o.TotalPrice, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	batch := &pgx.Batch{}
	for _, item := range o.Items {
		batch.Queue(`
			INSERT INTO order_items (id, order_id, product_id, product_name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID, o.ID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice,
		)
	}
	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("repository: failed to insert order items for order %s: %w", o.ID, err)
	}
	return nil
}

func (t *postgresTx) AdjustStock(ctx context.Context, productID uuid.UUID, delta int) error {
	cmdTag, err := t.tx.Exec(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1 AND stock + $2 >= 0`, productID, delta)
	if err != nil {
		return fmt.Errorf("repository: failed to adjust stock of product %s: %w", productID, err)
	}
	if cmdTag.RowsAffected() == 1 {
		return nil
	}

	var available int
	err = t.tx.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Warn().Stringer("product_id", productID).Msg("repository: stock adjustment skipped for deleted product")
			return nil
		}
		return fmt.Errorf("repository: failed to read stock of product %s: %w", productID, err)
	}
	return &apperr.StockError{ProductID: productID, Requested: -delta, Available: available}
}

func (t *postgresTx) ClearCart(ctx context.Context, consumerID uuid.UUID) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM cart_items WHERE consumer_id = $1`, consumerID); err != nil {
		return fmt.Errorf("repository: failed to clear cart of consumer %s: %w", consumerID, err)
	}
	return nil
}

func (t *postgresTx) LockOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := scanOrder(t.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to lock order %s: %w", id, err)
	}
	if err := loadItems(ctx, t.tx, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (t *postgresTx) SetStatus(ctx context.Context, id uuid.UUID, status Status, at time.Time) error {
	cmdTag, err := t.tx.Exec(ctx, `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`, string(status), at, id)
	if err != nil {
		return fmt.Errorf("repository: failed to update order status %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
