package importer

import (
	"context"
	"strings"
	"testing"

	"watchstore/internal/domain"
)

type stubProductRepo struct {
	items []domain.Product
}

func (s *stubProductRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	s.items = append(s.items, p)
	return &p, nil
}

func TestCSVImporter_Run(t *testing.T) {
	csvData := `brand,name,description,image_url,price,stock_quantity
Meridian,Diver 300m,Automatic diver,https://example.com/diver.jpg,420000,6
Kasper,Regatta Chrono,Quartz chronograph,https://example.com/regatta.jpg,156000,
`

	repo := &stubProductRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), repo)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 products imported, got %d", count)
	}

	if repo.items[0].Brand != "Meridian" || repo.items[0].Name != "Diver 300m" || repo.items[0].Price != 420000 {
		t.Fatalf("unexpected product data: %+v", repo.items[0])
	}
	if repo.items[0].StockQuantity == nil || *repo.items[0].StockQuantity != 6 {
		t.Fatalf("expected stock 6, got %v", repo.items[0].StockQuantity)
	}
	if repo.items[1].StockQuantity != nil {
		t.Fatalf("blank stock must stay unbounded, got %v", repo.items[1].StockQuantity)
	}
}

func TestCSVImporter_SkipsBlankRows(t *testing.T) {
	csvData := `brand,name,description,image_url,price,stock_quantity
,,,,,
Meridian,Fieldmaster 38,Field watch,,98000,24
`

	repo := &stubProductRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), repo)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 1 || len(repo.items) != 1 {
		t.Fatalf("expected 1 product imported, got %d", count)
	}
}

func TestCSVImporter_InvalidRow(t *testing.T) {
	csvData := `brand,name,description,image_url,price,stock_quantity
Meridian,No Price,Broken row,,0,
`

	imp := NewCSVImporter(strings.NewReader(csvData), &stubProductRepo{})

	if _, err := imp.Run(context.Background()); err == nil {
		t.Fatalf("expected error for row without a price")
	}
}
