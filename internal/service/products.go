package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/MineAdmin/internal/models"
)

// ImportResult summarizes a CSV product import.
type ImportResult struct {
	Created int      `json:"created"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// ProductInserter stores imported products.
type ProductInserter interface {
	Insert(ctx context.Context, p models.Product) error
}

var requiredColumns = []string{"name", "price"}

// ImportProducts reads a CSV file with a header row and stores one product
// per valid row. Recognised columns are name, description, sku, categoryId,
// price and stock; name and price are mandatory. Bad rows are reported and
// skipped.
func ImportProducts(ctx context.Context, store ProductInserter, r io.Reader) (ImportResult, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return ImportResult{}, invalidf("csv file is empty")
	}
	if err != nil {
		return ImportResult{}, invalidf("read csv header: %v", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[strings.ToLower(name)]; !ok {
			return ImportResult{}, invalidf("csv header is missing column %q", name)
		}
	}

	var res ImportResult
	for row := 2; ; row++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", row, err))
			continue
		}

		p, err := productFromRecord(rec, cols)
		if err == nil {
			err = store.Insert(ctx, p)
		}
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", row, err))
			continue
		}
		res.Created++
	}
	return res, nil
}

func productFromRecord(rec []string, cols map[string]int) (models.Product, error) {
	field := func(name string) string {
		i, ok := cols[strings.ToLower(name)]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	p := models.Product{
		ID:          uuid.NewString(),
		Name:        field("name"),
		Description: field("description"),
		SKU:         field("sku"),
		CategoryID:  field("categoryId"),
		CreatedAt:   time.Now(),
	}
	if p.Name == "" {
		return p, errors.New("name is required")
	}
	price, err := strconv.ParseFloat(field("price"), 64)
	if err != nil || price < 0 {
		return p, errors.New("price must be a non-negative number")
	}
	p.Price = price
	if s := field("stock"); s != "" {
		stock, err := strconv.Atoi(s)
		if err != nil || stock < 0 {
			return p, errors.New("stock must be a non-negative integer")
		}
		p.Stock = stock
	}
	return p, nil
}
