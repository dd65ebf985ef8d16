package store

import (
	"slices"

	"github.com/xenking/florist-storefront/internal/domain/cart"
	"github.com/xenking/florist-storefront/internal/domain/product"
)

// Reduce returns the state that results from applying a to s. It is a pure
// function: s is never modified and the result shares no modified slice with
// it. Unknown or nil actions return s unchanged.
//
// Every cart and favorites mutation starts from the sanitized collection, so
// entries that were invalid in s (for example, hydrated from damaged storage)
// are dropped rather than carried forward.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case AddToCart:
		lines := cart.SanitizeLines(s.Cart)
		if !cart.ValidPricedProduct(a.Product) {
			s.Cart = lines
			return s
		}
		if i := lineIndex(lines, a.Product.ID); i >= 0 {
			lines[i].Quantity++
		} else {
			lines = append(lines, cart.Line{Product: a.Product, Quantity: 1})
		}
		s.Cart = lines
	case RemoveFromCart:
		s.Cart = slices.DeleteFunc(cart.SanitizeLines(s.Cart), func(l cart.Line) bool {
			return l.Product.ID == a.ProductID
		})
	case UpdateQuantity:
		if a.Quantity <= 0 {
			return s
		}
		lines := cart.SanitizeLines(s.Cart)
		if i := lineIndex(lines, a.ProductID); i >= 0 {
			lines[i].Quantity = a.Quantity
		}
		s.Cart = lines
	case ClearCart:
		s.Cart = []cart.Line{}
	case DeductFromCart:
		lines := cart.SanitizeLines(s.Cart)
		for _, d := range a.Lines {
			if i := lineIndex(lines, d.Product.ID); i >= 0 && d.Quantity > 0 {
				lines[i].Quantity -= d.Quantity
			}
		}
		s.Cart = slices.DeleteFunc(lines, func(l cart.Line) bool { return l.Quantity <= 0 })
	case ToggleFavorite:
		favs := cart.SanitizeFavorites(s.Favorites)
		if !cart.ValidFavorite(a.Product) {
			s.Favorites = favs
			return s
		}
		if i := favoriteIndex(favs, a.Product.ID); i >= 0 {
			favs = slices.Delete(favs, i, i+1)
		} else {
			favs = append(favs, a.Product)
		}
		s.Favorites = favs
	case AddFavorite:
		favs := cart.SanitizeFavorites(s.Favorites)
		if cart.ValidFavorite(a.Product) && favoriteIndex(favs, a.Product.ID) < 0 {
			favs = append(favs, a.Product)
		}
		s.Favorites = favs
	case RemoveFavorite:
		s.Favorites = slices.DeleteFunc(cart.SanitizeFavorites(s.Favorites), func(p product.Product) bool {
			return p.ID == a.ProductID
		})
	case ClearFavorites:
		s.Favorites = []product.Product{}
	case SetCurrency:
		s.Currency = a.Currency
	case SetSearchQuery:
		s.SearchQuery = a.Query
	case SetCategory:
		s.SelectedCategory = a.Category
	case SetCurrentPage:
		s.CurrentPage = a.Page
	case SetCookieConsent:
		s.CookieConsent = a.Consent
	}
	return s
}

func lineIndex(lines []cart.Line, id string) int {
	return slices.IndexFunc(lines, func(l cart.Line) bool { return l.Product.ID == id })
}

func favoriteIndex(favs []product.Product, id string) int {
	return slices.IndexFunc(favs, func(p product.Product) bool { return p.ID == id })
}
