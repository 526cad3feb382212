package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type productSeed struct {
	Brand       string
	Name        string
	Description string
	ImageURL    string
	Price       int64
	Stock       int
}

type promotionSeed struct {
	Name     string
	Discount int
	Start    time.Time
	End      time.Time
	Products []string // brand/name pairs resolved to IDs at apply time
}

// Apply inserts basic seed data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	products := []productSeed{
		{
			Brand:       "Meridian",
			Name:        "Diver 300m",
			Description: "Automatic diver with a ceramic bezel",
			ImageURL:    "https://img.example.com/meridian-diver.jpg",
			Price:       420000,
			Stock:       6,
		},
		{
			Brand:       "Meridian",
			Name:        "Fieldmaster 38",
			Description: "Hand-wound field watch on a leather strap",
			ImageURL:    "https://img.example.com/meridian-field.jpg",
			Price:       98000,
			Stock:       24,
		},
		{
			Brand:       "Kasper",
			Name:        "Regatta Chrono",
			Description: "Quartz chronograph with a sailing timer",
			ImageURL:    "https://img.example.com/kasper-regatta.jpg",
			Price:       156000,
			Stock:       3,
		},
	}

	ids := make(map[string]string, len(products))
	for _, p := range products {
		id, err := upsertProduct(ctx, pool, p)
		if err != nil {
			return fmt.Errorf("upsert product %s %s: %w", p.Brand, p.Name, err)
		}
		ids[p.Brand+"/"+p.Name] = id
	}

	now := time.Now().UTC()
	promotions := []promotionSeed{
		{
			Name:     "Summer Dive",
			Discount: 20,
			Start:    now.AddDate(0, 0, -7),
			End:      now.AddDate(0, 0, 21),
			Products: []string{"Meridian/Diver 300m"},
		},
		{
			Name:     "Field Season",
			Discount: 10,
			Start:    now.AddDate(0, 0, -1),
			End:      now.AddDate(0, 1, 0),
			Products: []string{"Meridian/Fieldmaster 38", "Kasper/Regatta Chrono"},
		},
	}

	for _, promo := range promotions {
		if err := upsertPromotion(ctx, pool, promo, ids); err != nil {
			return fmt.Errorf("upsert promotion %s: %w", promo.Name, err)
		}
	}

	return nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) (string, error) {
	const q = `
INSERT INTO products (brand, name, description, image_url, price, stock_quantity)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (brand, name) DO UPDATE
SET description = EXCLUDED.description,
    image_url = EXCLUDED.image_url,
    price = EXCLUDED.price,
    stock_quantity = EXCLUDED.stock_quantity
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q, p.Brand, p.Name, p.Description, p.ImageURL, p.Price, p.Stock).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func upsertPromotion(ctx context.Context, pool *pgxpool.Pool, promo promotionSeed, productIDs map[string]string) error {
	const q = `
INSERT INTO promotions (name, discount, start_date, end_date)
VALUES ($1, $2, $3, $4)
ON CONFLICT (name) DO UPDATE
SET discount = EXCLUDED.discount,
    start_date = EXCLUDED.start_date,
    end_date = EXCLUDED.end_date,
    archived = false
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q, promo.Name, promo.Discount, promo.Start, promo.End).Scan(&id); err != nil {
		return err
	}

	for _, key := range promo.Products {
		productID, ok := productIDs[key]
		if !ok {
			return fmt.Errorf("unknown seed product %q", key)
		}
		if _, err := pool.Exec(ctx, `
INSERT INTO promotion_products (promotion_id, product_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`, id, productID); err != nil {
			return err
		}
	}
	return nil
}
