package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cartpulse/order-tracker/internal/apperr"
	"github.com/cartpulse/order-tracker/internal/timeline"
)

type OrderRepo struct{ DB *pgxpool.Pool }

var ErrOrderNotFound = errors.New("order not found")

const orderCols = `id, external_order_id, external_order_number, store_id, product_id,
	product_details, customer_email, customer, shipping_address, payment,
	custom_steps, current_step_index, progress, status, created_at, updated_at`

// Create persists a new order. The unique index on
// (store_id, external_order_id) is the idempotency boundary: a duplicate
// webhook delivery hits the conflict, no second order is written, and the
// existing order is returned with existed=true.
func (r *OrderRepo) Create(ctx context.Context, o Order) (Order, bool, error) {
	details, customer, address, payment, steps, err := marshalOrderDocs(o)
	if err != nil {
		return Order{}, false, err
	}

	ct, err := r.DB.Exec(ctx, `
		INSERT INTO orders(id, external_order_id, external_order_number, store_id,
		                   product_id, product_details, customer_email, customer,
		                   shipping_address, payment, custom_steps,
		                   current_step_index, progress, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (store_id, external_order_id) DO NOTHING`,
		o.ID, o.ExternalOrderID, o.ExternalOrderNumber, o.StoreID, o.ProductID,
		details, o.CustomerEmail, customer, address, payment, steps,
		o.CurrentStepIndex, o.Progress, o.Status,
	)
	if err != nil {
		return Order{}, false, fmt.Errorf("%w: insert order: %v", apperr.ErrStorage, err)
	}
	if ct.RowsAffected() == 1 {
		created, err := r.GetByID(ctx, o.ID, o.StoreID)
		if err != nil {
			return Order{}, false, err
		}
		return created, false, nil
	}

	existing, err := r.GetByExternalID(ctx, o.StoreID, o.ExternalOrderID)
	if err != nil {
		return Order{}, false, err
	}
	return existing, true, nil
}

func (r *OrderRepo) GetByID(ctx context.Context, id, storeID string) (Order, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id=$1 AND store_id=$2`, id, storeID)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("%w: get order: %v", apperr.ErrStorage, err)
	}
	return o, nil
}

// GetByExternalID resolves the idempotency boundary: it is how both a
// conflicting insert and a Redis cache hit find the already-absorbed order.
func (r *OrderRepo) GetByExternalID(ctx context.Context, storeID, externalID string) (Order, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE store_id=$1 AND external_order_id=$2`,
		storeID, externalID)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("%w: get order by external id: %v", apperr.ErrStorage, err)
	}
	return o, nil
}

// ListByEmail is the customer-area lookup; email is the one contact
// field that is stored unmasked for exactly this purpose.
func (r *OrderRepo) ListByEmail(ctx context.Context, email string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+orderCols+` FROM orders
		WHERE customer_email=$1
		ORDER BY created_at DESC`, email)
	if err != nil {
		return nil, fmt.Errorf("%w: list orders by email: %v", apperr.ErrStorage, err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

// ListOpen feeds the progress refresher sweep.
func (r *OrderRepo) ListOpen(ctx context.Context, limit int) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+orderCols+` FROM orders
		WHERE status NOT IN ($1, $2)
		ORDER BY created_at
		LIMIT $3`, StatusCompleted, StatusCanceled, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list open orders: %v", apperr.ErrStorage, err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

// UpdateProgress rewrites the evaluated timeline fields in a single
// document write.
func (r *OrderRepo) UpdateProgress(ctx context.Context, id string, steps []timeline.CompiledStep, currentIdx, progress int, status Status) error {
	encoded, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("%w: encode steps: %v", apperr.ErrStorage, err)
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders
		SET custom_steps=$2, current_step_index=$3, progress=$4, status=$5, updated_at=now()
		WHERE id=$1`,
		id, encoded, currentIdx, progress, status,
	)
	if err != nil {
		return fmt.Errorf("%w: update progress: %v", apperr.ErrStorage, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func marshalOrderDocs(o Order) (details, customer, address, payment, steps []byte, err error) {
	for _, enc := range []struct {
		dst *[]byte
		src any
	}{
		{&details, o.ProductDetails},
		{&customer, o.Customer},
		{&address, o.ShippingAddress},
		{&payment, o.Payment},
		{&steps, o.CustomSteps},
	} {
		if *enc.dst, err = json.Marshal(enc.src); err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("%w: encode order: %v", apperr.ErrStorage, err)
		}
	}
	return details, customer, address, payment, steps, nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o                                       Order
		details, customer, address, payment, st []byte
	)
	if err := row.Scan(&o.ID, &o.ExternalOrderID, &o.ExternalOrderNumber, &o.StoreID,
		&o.ProductID, &details, &o.CustomerEmail, &customer, &address, &payment,
		&st, &o.CurrentStepIndex, &o.Progress, &o.Status,
		&o.CreatedAt, &o.UpdatedAt); err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(details, &o.ProductDetails); err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(payment, &o.Payment); err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(st, &o.CustomSteps); err != nil {
		return Order{}, err
	}
	return o, nil
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan order: %v", apperr.ErrStorage, err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate orders: %v", apperr.ErrStorage, err)
	}
	return out, nil
}
