package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Stealz-com/order/internal/order/application"
	"github.com/Stealz-com/order/internal/order/domain"
)

// Repository implements both the order store and the status history ledger
// on a shared pool.
type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Save(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	addr := domain.Address{}
	if o.Shipping != nil {
		addr = *o.Shipping
	}
	err = tx.QueryRow(ctx, `INSERT INTO orders
			(order_number, user_id, total_amount,
			 shipping_full_name, shipping_address_line, shipping_city,
			 shipping_state, shipping_zip_code, shipping_phone,
			 status, tracking_number, carrier, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now())
		RETURNING id, created_at`,
		o.OrderNumber, o.UserID, o.TotalAmount,
		addr.FullName, addr.AddressLine, addr.City,
		addr.State, addr.ZipCode, addr.Phone,
		o.Status, o.TrackingNumber, o.Carrier).
		Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, item := range o.Items {
		batch.Queue(`INSERT INTO order_line_items
				(order_id, sku_code, price, quantity,
				 custom_image_url, original_image_url, design_instructions)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			o.ID, item.SKUCode, item.Price, item.Quantity,
			item.CustomImageURL, item.OriginalImageURL, item.DesignInstructions)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repository) FindByID(ctx context.Context, id int64) (domain.Order, error) {
	o, err := r.scanOrder(r.pool.QueryRow(ctx, selectOrder+` WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, application.ErrNotFound
		}
		return domain.Order{}, err
	}
	if err := r.loadItems(ctx, &o); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *Repository) FindAllByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, selectOrder+` WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orders {
		if err := r.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *Repository) Update(ctx context.Context, o domain.Order) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE orders SET status=$2, tracking_number=$3, carrier=$4 WHERE id=$1`,
		o.ID, o.Status, o.TrackingNumber, o.Carrier)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return application.ErrNotFound
	}
	return nil
}

func (r *Repository) Append(ctx context.Context, h domain.StatusHistory) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO order_status_history (order_id, status, message, created_at)
		 VALUES ($1,$2,$3,now())`,
		h.OrderID, h.Status, h.Message)
	return err
}

func (r *Repository) FindByOrderID(ctx context.Context, orderID int64) ([]domain.StatusHistory, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, status, message, created_at
		 FROM order_status_history
		 WHERE order_id=$1
		 ORDER BY created_at DESC, id DESC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StatusHistory
	for rows.Next() {
		var h domain.StatusHistory
		if err := rows.Scan(&h.ID, &h.OrderID, &h.Status, &h.Message, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

const selectOrder = `SELECT id, order_number, user_id, total_amount,
	shipping_full_name, shipping_address_line, shipping_city,
	shipping_state, shipping_zip_code, shipping_phone,
	status, tracking_number, carrier, created_at
	FROM orders`

func (r *Repository) scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var addr domain.Address
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.TotalAmount,
		&addr.FullName, &addr.AddressLine, &addr.City,
		&addr.State, &addr.ZipCode, &addr.Phone,
		&o.Status, &o.TrackingNumber, &o.Carrier, &o.CreatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	if addr != (domain.Address{}) {
		o.Shipping = &addr
	}
	return o, nil
}

func (r *Repository) loadItems(ctx context.Context, o *domain.Order) error {
	rows, err := r.pool.Query(ctx,
		`SELECT sku_code, price, quantity, custom_image_url, original_image_url, design_instructions
		 FROM order_line_items WHERE order_id=$1 ORDER BY id`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(&item.SKUCode, &item.Price, &item.Quantity,
			&item.CustomImageURL, &item.OriginalImageURL, &item.DesignInstructions); err != nil {
			return err
		}
		o.Items = append(o.Items, item)
	}
	return rows.Err()
}
