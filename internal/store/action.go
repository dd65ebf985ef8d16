package store

import (
	"github.com/xenking/florist-storefront/internal/domain/cart"
	"github.com/xenking/florist-storefront/internal/domain/currency"
	"github.com/xenking/florist-storefront/internal/domain/product"
)

// Action is a state transition request. The set of actions is closed: only
// the types declared in this package implement it.
type Action interface {
	// Name returns the action name used in logs.
	Name() string
	action()
}

// AddToCart increments the line for Product, creating it with quantity 1.
type AddToCart struct{ Product product.Product }

// RemoveFromCart drops the line for ProductID.
type RemoveFromCart struct{ ProductID string }

// UpdateQuantity sets the quantity of the line for ProductID. Non-positive
// quantities are rejected; callers route them to RemoveFromCart.
type UpdateQuantity struct {
	ProductID string
	Quantity  int
}

// ClearCart empties the cart.
type ClearCart struct{}

// DeductFromCart subtracts the quantities of Lines from the matching cart
// lines and drops lines that reach zero. Lines added since the snapshot was
// taken are kept.
type DeductFromCart struct{ Lines []cart.Line }

// ToggleFavorite adds Product to favorites or removes it when present.
type ToggleFavorite struct{ Product product.Product }

// AddFavorite adds Product to favorites when absent.
type AddFavorite struct{ Product product.Product }

// RemoveFavorite drops ProductID from favorites.
type RemoveFavorite struct{ ProductID string }

// ClearFavorites empties the favorites collection.
type ClearFavorites struct{}

// SetCurrency switches the display currency.
type SetCurrency struct{ Currency currency.Currency }

// SetSearchQuery records the current catalog search text.
type SetSearchQuery struct{ Query string }

// SetCategory records the selected catalog category filter.
type SetCategory struct{ Category string }

// SetCurrentPage records the page the client is showing.
type SetCurrentPage struct{ Page string }

// SetCookieConsent records the cookie consent decision.
type SetCookieConsent struct{ Consent bool }

func (AddToCart) Name() string        { return "add_to_cart" }
func (RemoveFromCart) Name() string   { return "remove_from_cart" }
func (UpdateQuantity) Name() string   { return "update_quantity" }
func (ClearCart) Name() string        { return "clear_cart" }
func (DeductFromCart) Name() string   { return "deduct_from_cart" }
func (ToggleFavorite) Name() string   { return "toggle_favorite" }
func (AddFavorite) Name() string      { return "add_favorite" }
func (RemoveFavorite) Name() string   { return "remove_favorite" }
func (ClearFavorites) Name() string   { return "clear_favorites" }
func (SetCurrency) Name() string      { return "set_currency" }
func (SetSearchQuery) Name() string   { return "set_search_query" }
func (SetCategory) Name() string      { return "set_category" }
func (SetCurrentPage) Name() string   { return "set_current_page" }
func (SetCookieConsent) Name() string { return "set_cookie_consent" }

func (AddToCart) action()        {}
func (RemoveFromCart) action()   {}
func (UpdateQuantity) action()   {}
func (ClearCart) action()        {}
func (DeductFromCart) action()   {}
func (ToggleFavorite) action()   {}
func (AddFavorite) action()      {}
func (RemoveFavorite) action()   {}
func (ClearFavorites) action()   {}
func (SetCurrency) action()      {}
func (SetSearchQuery) action()   {}
func (SetCategory) action()      {}
func (SetCurrentPage) action()   {}
func (SetCookieConsent) action() {}

// scope reports which durable collections an action may change.
func scope(a Action) (cartChanged, favoritesChanged bool) {
	switch a.(type) {
	case AddToCart, RemoveFromCart, UpdateQuantity, ClearCart, DeductFromCart:
		return true, false
	case ToggleFavorite, AddFavorite, RemoveFavorite, ClearFavorites:
		return false, true
	default:
		return false, false
	}
}
