package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Category is the top-level catalog section a product belongs to.
type Category string

const (
	CategoryFlowers   Category = "flowers"
	CategorySeedlings Category = "seedlings"
)

// Product is a catalog item snapshot. The storefront never mutates a
// Product; cart lines and favorites hold copies of it.
//
// Price is nullable because snapshots may come back from storage without a
// usable price. Such snapshots are rejected by the cart sanitization rules.
type Product struct {
	ID            string
	Name          string
	Description   string
	Price         decimal.NullDecimal
	OriginalPrice decimal.NullDecimal
	Image         string
	Category      Category
	Subcategory   string
	InStock       bool
	Featured      bool
	IsNew         bool
	IsOnSale      bool
	Rating        float64
	Reviews       int
}

// HasPrice reports whether the product carries a numeric, non-negative price.
func (p Product) HasPrice() bool {
	return p.Price.Valid && !p.Price.Decimal.IsNegative()
}

// UnitPrice returns the product price, or zero when it has none.
func (p Product) UnitPrice() decimal.Decimal {
	if !p.HasPrice() {
		return decimal.Zero
	}
	return p.Price.Decimal
}

// Query holds catalog search parameters. Zero values are omitted.
type Query struct {
	Search    string
	Category  Category
	InStock   *bool
	Featured  *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination describes the position of a search page in the full result set.
type Pagination struct {
	Page       int
	PageSize   int
	Total      int
	TotalPages int
}

// SearchResult is one page of catalog search results.
type SearchResult struct {
	Products   []Product
	Pagination Pagination
}

// CategoryCount is the number of catalog products in a category.
type CategoryCount struct {
	Category Category
	Count    int
}

// Catalog defines read operations against the remote product catalog.
type Catalog interface {
	Search(ctx context.Context, q Query) (*SearchResult, error)
	Categories(ctx context.Context) ([]CategoryCount, error)
	GetByID(ctx context.Context, id string) (*Product, error)
}
