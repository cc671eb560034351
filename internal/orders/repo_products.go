package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cartpulse/order-tracker/internal/apperr"
)

type ProductRepo struct{ DB *pgxpool.Pool }

const productCols = `id, store_id, display_name, image, description, custom_steps,
	webhook_url, active, created_at, updated_at`

func (r *ProductRepo) Create(ctx context.Context, p Product) error {
	steps, err := json.Marshal(p.CustomSteps)
	if err != nil {
		return fmt.Errorf("%w: encode custom steps: %v", apperr.ErrStorage, err)
	}
	_, err = r.DB.Exec(ctx, `
		INSERT INTO products(id, store_id, display_name, image, description,
		                     custom_steps, webhook_url, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true)`,
		p.ID, p.StoreID, p.DisplayName, p.Image, p.Description, steps, p.WebhookURL,
	)
	if err != nil {
		return fmt.Errorf("%w: insert product: %v", apperr.ErrStorage, err)
	}
	return nil
}

// GetByID loads a product regardless of owner; ownership is the
// caller's check so a mismatch can be reported as 403, not 404.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (Product, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, apperr.ErrProductNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("%w: get product: %v", apperr.ErrStorage, err)
	}
	return p, nil
}

// ListByStore returns the store's active products, newest first.
func (r *ProductRepo) ListByStore(ctx context.Context, storeID string) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+productCols+` FROM products
		WHERE store_id=$1 AND active
		ORDER BY created_at DESC`, storeID)
	if err != nil {
		return nil, fmt.Errorf("%w: list products: %v", apperr.ErrStorage, err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan product: %v", apperr.ErrStorage, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list products: %v", apperr.ErrStorage, err)
	}
	return out, nil
}

func (r *ProductRepo) Update(ctx context.Context, p Product) error {
	steps, err := json.Marshal(p.CustomSteps)
	if err != nil {
		return fmt.Errorf("%w: encode custom steps: %v", apperr.ErrStorage, err)
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE products
		SET display_name=$2, image=$3, description=$4, custom_steps=$5, updated_at=now()
		WHERE id=$1`,
		p.ID, p.DisplayName, p.Image, p.Description, steps,
	)
	if err != nil {
		return fmt.Errorf("%w: update product: %v", apperr.ErrStorage, err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.ErrProductNotFound
	}
	return nil
}

// SoftDelete deactivates a product; orders already ingested keep their
// compiled timelines.
func (r *ProductRepo) SoftDelete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx,
		`UPDATE products SET active=false, updated_at=now() WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("%w: deactivate product: %v", apperr.ErrStorage, err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.ErrProductNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p     Product
		steps []byte
	)
	if err := row.Scan(&p.ID, &p.StoreID, &p.DisplayName, &p.Image, &p.Description,
		&steps, &p.WebhookURL, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	if err := json.Unmarshal(steps, &p.CustomSteps); err != nil {
		return Product{}, err
	}
	return p, nil
}
