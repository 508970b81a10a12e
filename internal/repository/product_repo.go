package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"agrosnab/internal/apierror"
	"agrosnab/internal/model"
	"agrosnab/internal/sheets"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ProductRepository is the data access contract for the product sheet.
// Services depend on this interface, not on the sheets-backed implementation,
// enabling clean unit testing via stubs.
type ProductRepository interface {
	// GetAll returns the full product set, read-through cached. useCache=false
	// forces a refresh.
	GetAll(ctx context.Context, useCache bool) ([]model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	// Search matches SKU exactly first, then name-contains, capped at limit.
	Search(ctx context.Context, query string, limit int) ([]model.Product, error)
	// GetByRow re-reads one row directly from the sheet, bypassing the cache.
	GetByRow(ctx context.Context, rowNumber int) (*model.Product, error)

	Create(ctx context.Context, in NewProduct) (*model.Product, error)
	UpdateStock(ctx context.Context, p *model.Product, delta int, updatedBy string) (*model.Product, error)
	UpdatePhoto(ctx context.Context, p *model.Product, photoURL, updatedBy string) (*model.Product, error)
	UpdateActive(ctx context.Context, p *model.Product, active bool, updatedBy string) (*model.Product, error)

	InvalidateCache()
	CacheAge() time.Duration
}

// NewProduct carries the fields for product creation.
type NewProduct struct {
	Name        string
	Price       decimal.Decimal
	Quantity    int
	PhotoURL    string
	Description string
	Tags        string
	UpdatedBy   string
}

type productRepo struct {
	api    sheets.API
	schema *sheets.Schema
	cache  *TTLCache[[]model.Product]
}

func NewProductRepository(api sheets.API, schema *sheets.Schema, cacheTTL time.Duration) ProductRepository {
	return &productRepo{
		api:    api,
		schema: schema,
		cache:  NewTTLCache[[]model.Product](cacheTTL),
	}
}

func (r *productRepo) GetAll(ctx context.Context, useCache bool) ([]model.Product, error) {
	if useCache {
		if cached, ok := r.cache.Get(); ok {
			log.Debug().Int("count", len(cached)).Dur("age", r.cache.Age()).
				Msg("products served from cache")
			return cached, nil
		}
	}

	rows, err := r.api.GetRows(ctx, r.schema.ProductSheet(), 2, 0)
	if err != nil {
		return nil, err
	}

	products := make([]model.Product, 0, len(rows))
	for idx, row := range rows {
		data := r.schema.RowToMap(row)
		if data["SKU"] == "" {
			continue
		}
		products = append(products, productFromMap(idx+2, data))
	}

	r.cache.Set(products)
	log.Debug().Int("count", len(products)).Msg("products cached from sheet")
	return products, nil
}

func (r *productRepo) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	products, err := r.GetAll(ctx, true)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].SKU == sku {
			return &products[i], nil
		}
	}
	return nil, apierror.ErrProductNotFound
}

func (r *productRepo) Search(ctx context.Context, query string, limit int) ([]model.Product, error) {
	products, err := r.GetAll(ctx, true)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	for i := range products {
		if strings.ToLower(products[i].SKU) == q {
			return []model.Product{products[i]}, nil
		}
	}
	var matches []model.Product
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) {
			matches = append(matches, p)
			if limit > 0 && len(matches) >= limit {
				break
			}
		}
	}
	return matches, nil
}

func (r *productRepo) GetByRow(ctx context.Context, rowNumber int) (*model.Product, error) {
	rows, err := r.api.GetRows(ctx, r.schema.ProductSheet(), rowNumber, rowNumber)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, apierror.ErrProductNotFound
	}
	data := r.schema.RowToMap(rows[0])
	if data["SKU"] == "" {
		return nil, apierror.ErrProductNotFound
	}
	p := productFromMap(rowNumber, data)
	return &p, nil
}

// generateSKU returns PRD-YYYYMMDD-XXXX.
func generateSKU() string {
	buf := make([]byte, 2)
	_, _ = rand.Read(buf)
	return "PRD-" + time.Now().Format("20060102") + "-" + strings.ToUpper(hex.EncodeToString(buf))
}

func (r *productRepo) Create(ctx context.Context, in NewProduct) (*model.Product, error) {
	sku := generateSKU()
	now := time.Now()

	row := make([]interface{}, r.schema.Width())
	for i := range row {
		row[i] = ""
	}
	set := func(col string, v interface{}) {
		if idx, ok := r.schema.ColIdx(col); ok {
			row[idx] = v
		}
	}
	set("SKU", sku)
	set("Name", in.Name)
	set("Price", in.Price.String())
	set("Stock", in.Quantity)
	set("Photo", in.PhotoURL)
	set("Active", "TRUE")
	set("Tags", in.Tags)
	set("Description_Short", in.Description)
	set("last_intake_at", now.Format(time.RFC3339))
	set("last_intake_qty", in.Quantity)
	set("last_updated_by", in.UpdatedBy)

	rowNum, err := r.api.AppendRow(ctx, r.schema.ProductSheet(), row)
	if err != nil {
		return nil, err
	}
	r.cache.Invalidate()

	log.Info().Str("sku", sku).Int("row", rowNum).Str("name", in.Name).Msg("product created")
	return &model.Product{
		RowNumber:     rowNum,
		SKU:           sku,
		Name:          in.Name,
		Price:         in.Price,
		Stock:         in.Quantity,
		PhotoURL:      in.PhotoURL,
		Description:   in.Description,
		Tags:          in.Tags,
		Active:        true,
		LastIntakeAt:  &now,
		LastIntakeQty: in.Quantity,
		LastUpdatedBy: in.UpdatedBy,
	}, nil
}

func (r *productRepo) UpdateStock(ctx context.Context, p *model.Product, delta int, updatedBy string) (*model.Product, error) {
	newStock := p.Stock + delta
	now := time.Now()

	updates := []sheets.CellUpdate{}
	add := func(col string, v interface{}) {
		if idx, ok := r.schema.ColIdx(col); ok {
			updates = append(updates, sheets.CellUpdate{Row: p.RowNumber, Col: idx + 1, Value: v})
		}
	}
	add("Stock", newStock)
	add("last_intake_at", now.Format(time.RFC3339))
	add("last_intake_qty", delta)
	add("last_updated_by", updatedBy)

	if err := r.api.BatchUpdateCells(ctx, r.schema.ProductSheet(), updates); err != nil {
		return nil, err
	}
	r.cache.Invalidate()

	log.Info().Str("sku", p.SKU).Int("row", p.RowNumber).
		Int("old", p.Stock).Int("delta", delta).Int("new", newStock).
		Msg("product stock updated")

	out := *p
	out.Stock = newStock
	out.LastIntakeAt = &now
	out.LastIntakeQty = delta
	out.LastUpdatedBy = updatedBy
	return &out, nil
}

func (r *productRepo) UpdatePhoto(ctx context.Context, p *model.Product, photoURL, updatedBy string) (*model.Product, error) {
	updates := []sheets.CellUpdate{}
	add := func(col string, v interface{}) {
		if idx, ok := r.schema.ColIdx(col); ok {
			updates = append(updates, sheets.CellUpdate{Row: p.RowNumber, Col: idx + 1, Value: v})
		}
	}
	add("Photo", photoURL)
	add("last_updated_by", updatedBy)

	if err := r.api.BatchUpdateCells(ctx, r.schema.ProductSheet(), updates); err != nil {
		return nil, err
	}
	r.cache.Invalidate()

	out := *p
	out.PhotoURL = photoURL
	out.LastUpdatedBy = updatedBy
	return &out, nil
}

func (r *productRepo) UpdateActive(ctx context.Context, p *model.Product, active bool, updatedBy string) (*model.Product, error) {
	activeVal := "FALSE"
	if active {
		activeVal = "TRUE"
	}
	updates := []sheets.CellUpdate{}
	add := func(col string, v interface{}) {
		if idx, ok := r.schema.ColIdx(col); ok {
			updates = append(updates, sheets.CellUpdate{Row: p.RowNumber, Col: idx + 1, Value: v})
		}
	}
	add("Active", activeVal)
	add("last_updated_by", updatedBy)

	if err := r.api.BatchUpdateCells(ctx, r.schema.ProductSheet(), updates); err != nil {
		return nil, err
	}
	r.cache.Invalidate()

	out := *p
	out.Active = active
	out.LastUpdatedBy = updatedBy
	return &out, nil
}

func (r *productRepo) InvalidateCache() {
	r.cache.Invalidate()
}

func (r *productRepo) CacheAge() time.Duration {
	return r.cache.Age()
}

func productFromMap(rowNumber int, data map[string]string) model.Product {
	get := func(key string, aliases ...string) string {
		if v, ok := data[key]; ok && v != "" {
			return v
		}
		for _, a := range aliases {
			if v, ok := data[a]; ok && v != "" {
				return v
			}
		}
		return ""
	}

	stock, _ := strconv.Atoi(strings.TrimSpace(get("Stock_Calc", "Stock")))
	lastQty, _ := strconv.Atoi(strings.TrimSpace(get("last_intake_qty")))

	var lastIntakeAt *time.Time
	if raw := get("last_intake_at"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			lastIntakeAt = &t
		}
	}

	return model.Product{
		RowNumber:     rowNumber,
		SKU:           get("SKU"),
		Name:          get("Name"),
		Price:         model.ParsePrice(get("Price_RUB", "Price")),
		Stock:         stock,
		PhotoURL:      get("Photo_URL", "Photo"),
		Description:   get("Description_Short"),
		Tags:          get("Tags"),
		Active:        model.ParseActive(data["Active"]),
		LastIntakeAt:  lastIntakeAt,
		LastIntakeQty: lastQty,
		LastUpdatedBy: get("last_updated_by"),
	}
}
