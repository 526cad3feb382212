package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"watchstore/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalog CSV exports and inserts/updates products.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
}

func NewCSVImporter(r io.Reader, repo ProductWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
	}
}

// Run parses CSV rows and upserts one product per row.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		product, ok := parseRow(record, index)
		if !ok {
			continue
		}
		if err := i.save(ctx, product); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, p domain.Product) error {
	if p.Name == "" || p.Price <= 0 {
		return fmt.Errorf("invalid product row (missing required fields) for %q", p.Name)
	}
	if _, err := i.productRepo.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", p.Name, err)
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (domain.Product, bool) {
	brand := pick(record, index, "brand")
	name := pick(record, index, "name")
	if brand == "" && name == "" {
		return domain.Product{}, false
	}

	price, _ := strconv.ParseInt(pick(record, index, "price"), 10, 64)

	p := domain.Product{
		Brand:       brand,
		Name:        name,
		Description: pick(record, index, "description"),
		ImageURL:    pick(record, index, "image_url"),
		Price:       price,
	}
	if stockStr := pick(record, index, "stock_quantity"); stockStr != "" {
		if stock, err := strconv.Atoi(stockStr); err == nil {
			p.StockQuantity = &stock
		}
	}
	return p, true
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
