package promotion

import (
	"context"
	"io"
	"log"
	"time"

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

func (r *postgresRepo) List(ctx context.Context) ([]domain.Promotion, error) {
	const q = `
SELECT p.id::text, p.name, p.discount, p.start_date, p.end_date,
       COALESCE(array_agg(pp.product_id::text) FILTER (WHERE pp.product_id IS NOT NULL), '{}')
FROM promotions p
LEFT JOIN promotion_products pp ON pp.promotion_id = p.id
WHERE NOT p.archived
GROUP BY p.id
ORDER BY p.start_date DESC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Printf("promotion repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Promotion
	for rows.Next() {
		var p domain.Promotion
		if err := rows.Scan(&p.ID, &p.Name, &p.Discount, &p.StartDate, &p.EndDate, &p.ProductIDs); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *postgresRepo) ListByProduct(ctx context.Context) ([]domain.ProductPromotions, error) {
	const q = `
SELECT pp.product_id::text, p.id::text, p.name, p.discount, p.start_date, p.end_date
FROM promotion_products pp
JOIN promotions p ON p.id = pp.promotion_id
WHERE NOT p.archived
ORDER BY pp.product_id, p.start_date DESC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Printf("promotion repo: list by product error=%v", err)
		return nil, err
	}
	defer rows.Close()

	grouped := make(map[string][]domain.Promotion)
	var order []string
	for rows.Next() {
		var productID string
		var p domain.Promotion
		if err := rows.Scan(&productID, &p.ID, &p.Name, &p.Discount, &p.StartDate, &p.EndDate); err != nil {
			return nil, err
		}
		if _, seen := grouped[productID]; !seen {
			order = append(order, productID)
		}
		grouped[productID] = append(grouped[productID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]domain.ProductPromotions, 0, len(order))
	for _, productID := range order {
		result = append(result, domain.ProductPromotions{ProductID: productID, Promotions: grouped[productID]})
	}
	return result, nil
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Promotion) (*domain.Promotion, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
INSERT INTO promotions (id, name, discount, start_date, end_date)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5)
ON CONFLICT (name) DO UPDATE SET
    discount = EXCLUDED.discount,
    start_date = EXCLUDED.start_date,
    end_date = EXCLUDED.end_date,
    archived = false
RETURNING id::text
`, p.ID, p.Name, p.Discount, p.StartDate, p.EndDate).Scan(&p.ID)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM promotion_products WHERE promotion_id = $1`, p.ID); err != nil {
		return nil, err
	}
	for _, productID := range p.ProductIDs {
		if _, err := tx.Exec(ctx, `
INSERT INTO promotion_products (promotion_id, product_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`, p.ID, productID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) ArchiveExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `
UPDATE promotions
SET archived = true
WHERE NOT archived AND end_date < $1
`, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
