// Package cart defines cart lines and the validation rules shared by the
// state reducer and the persistence layer.
//
// Cart and favorites data may come from storage written by an older build or
// cut short by a failed write, so every computation over these collections
// skips invalid entries instead of failing as a whole.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/florist-storefront/internal/domain/product"
)

// Line is one product snapshot with its quantity in the cart.
type Line struct {
	Product  product.Product
	Quantity int
}

// Subtotal returns price * quantity for a valid line and zero otherwise.
func (l Line) Subtotal() decimal.Decimal {
	if !ValidLine(l) {
		return decimal.Zero
	}
	return l.Product.Price.Decimal.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ValidProduct reports whether p carries a product identity.
func ValidProduct(p product.Product) bool {
	return p.ID != ""
}

// ValidFavorite reports whether p may be kept in the favorites collection.
func ValidFavorite(p product.Product) bool {
	return ValidProduct(p)
}

// ValidPricedProduct reports whether p may be placed in the cart.
func ValidPricedProduct(p product.Product) bool {
	return ValidProduct(p) && p.HasPrice()
}

// ValidLine reports whether l may be kept in the cart collection.
func ValidLine(l Line) bool {
	return ValidPricedProduct(l.Product) && l.Quantity >= 1
}

// ClampQuantity returns q raised to the minimum line quantity of 1.
func ClampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// SanitizeLines returns the valid lines of lines in order. Lines sharing a
// product id are merged into the first occurrence by summing quantities.
// The input slice is never modified.
func SanitizeLines(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, l := range lines {
		if !ValidLine(l) {
			continue
		}
		if i, ok := index[l.Product.ID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.Product.ID] = len(out)
		out = append(out, l)
	}
	return out
}

// SanitizeFavorites returns the valid favorites in order, keeping the first
// snapshot for each product id. The input slice is never modified.
func SanitizeFavorites(favs []product.Product) []product.Product {
	out := make([]product.Product, 0, len(favs))
	seen := make(map[string]struct{}, len(favs))
	for _, p := range favs {
		if !ValidFavorite(p) {
			continue
		}
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Total returns the sum of price * quantity over the valid lines.
func Total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

// ItemCount returns the sum of quantities across all lines. It does not
// require a usable price, only a positive quantity.
func ItemCount(lines []Line) int {
	n := 0
	for _, l := range lines {
		if l.Quantity > 0 {
			n += l.Quantity
		}
	}
	return n
}
