package store

import (
	"slices"

	"github.com/xenking/florist-storefront/internal/domain/cart"
	"github.com/xenking/florist-storefront/internal/domain/currency"
	"github.com/xenking/florist-storefront/internal/domain/product"
)

// Defaults for the transient session fields.
const (
	DefaultCategory = "all"
	DefaultPage     = "home"
)

// State is the storefront session state. Only Cart and Favorites are
// durable; the remaining fields live as long as the session.
type State struct {
	Cart             []cart.Line
	Favorites        []product.Product
	Currency         currency.Currency
	SearchQuery      string
	SelectedCategory string
	CurrentPage      string
	CookieConsent    bool
}

// InitialState returns the state of a fresh session with no persisted data.
func InitialState() State {
	return State{
		Cart:             []cart.Line{},
		Favorites:        []product.Product{},
		Currency:         currency.Default(),
		SelectedCategory: DefaultCategory,
		CurrentPage:      DefaultPage,
	}
}

// Clone returns a copy of s that shares no slices with it.
func (s State) Clone() State {
	s.Cart = slices.Clone(s.Cart)
	s.Favorites = slices.Clone(s.Favorites)
	if s.Cart == nil {
		s.Cart = []cart.Line{}
	}
	if s.Favorites == nil {
		s.Favorites = []product.Product{}
	}
	return s
}
