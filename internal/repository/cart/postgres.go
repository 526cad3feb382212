package cart

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"watchstore/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const itemColumns = `id::text, product_id::text, product_name, image_url, unit_price, quantity, stock, added_at`

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.CartItem, error) {
	q := `
SELECT ` + itemColumns + `
FROM cart_items
WHERE user_id = $1
ORDER BY added_at DESC
`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *postgresRepo) Insert(ctx context.Context, userID string, item domain.CartItem) (*domain.CartItem, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var existingID string
	var existingQty int
	err = tx.QueryRow(ctx, `
SELECT id::text, quantity
FROM cart_items
WHERE user_id = $1 AND product_id = $2
`, userID, item.ProductID).Scan(&existingID, &existingQty)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	var row pgx.Row
	if err == nil {
		row = tx.QueryRow(ctx, `
UPDATE cart_items
SET quantity = $1
WHERE id = $2
RETURNING `+itemColumns, existingQty+item.Quantity, existingID)
	} else {
		row = tx.QueryRow(ctx, `
INSERT INTO cart_items (user_id, product_id, product_name, image_url, unit_price, quantity, stock)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+itemColumns,
			userID, item.ProductID, item.ProductName, item.ImageURL, item.UnitPrice, item.Quantity, item.Stock)
	}

	stored, err := scanItem(row)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *postgresRepo) UpdateQuantity(ctx context.Context, itemID string, quantity int) (*domain.CartItem, error) {
	row := r.pool.QueryRow(ctx, `
UPDATE cart_items
SET quantity = $1
WHERE id = $2
RETURNING `+itemColumns, quantity, itemID)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *postgresRepo) Delete(ctx context.Context, itemID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) ClearByUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}

func scanItem(row pgx.Row) (domain.CartItem, error) {
	var item domain.CartItem
	err := row.Scan(
		&item.ID,
		&item.ProductID,
		&item.ProductName,
		&item.ImageURL,
		&item.UnitPrice,
		&item.Quantity,
		&item.Stock,
		&item.AddedAt,
	)
	return item, err
}
