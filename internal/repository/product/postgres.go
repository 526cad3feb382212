package product

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"watchstore/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const productColumns = `id::text, brand, name, COALESCE(description, ''), image_url, price, stock_quantity, created_at`

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	q := `
SELECT ` + productColumns + `
FROM products
ORDER BY created_at DESC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Printf("product repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows error=%v", err)
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `
SELECT ` + productColumns + `
FROM products
WHERE id = $1
`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	q := `
INSERT INTO products (id, brand, name, description, image_url, price, stock_quantity)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, NULLIF($4, ''), $5, $6, $7)
ON CONFLICT (brand, name) DO UPDATE SET
    description = EXCLUDED.description,
    image_url = EXCLUDED.image_url,
    price = EXCLUDED.price,
    stock_quantity = EXCLUDED.stock_quantity
RETURNING ` + productColumns
	stored, err := scanProduct(r.pool.QueryRow(ctx, q,
		p.ID, p.Brand, p.Name, p.Description, p.ImageURL, p.Price, p.StockQuantity))
	if err != nil {
		r.logger.Printf("product repo: upsert brand=%s name=%s error=%v", p.Brand, p.Name, err)
		return nil, err
	}
	return &stored, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID,
		&p.Brand,
		&p.Name,
		&p.Description,
		&p.ImageURL,
		&p.Price,
		&p.StockQuantity,
		&p.CreatedAt,
	)
	return p, err
}
