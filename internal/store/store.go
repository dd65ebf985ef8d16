// Package store holds the storefront session state: cart, favorites, display
// currency and transient UI selections.
//
// A Store is constructed explicitly with its initial (hydrated) state and is
// mutated only through Dispatch. Dispatches are serialized, so the order of
// dispatched actions is the order of state transitions and of observer
// notifications.
package store

import (
	"context"
	"slices"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/xenking/florist-storefront/internal/domain/cart"
	"github.com/xenking/florist-storefront/internal/domain/currency"
	"github.com/xenking/florist-storefront/internal/domain/product"
)

// Observer is notified synchronously after an action that may have changed
// the cart or the favorites. Observers receive copies of the collections.
type Observer interface {
	CartChanged(ctx context.Context, lines []cart.Line)
	FavoritesChanged(ctx context.Context, favorites []product.Product)
}

// Option configures a Store.
type Option func(*Store)

// WithObserver registers o for change notifications.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observers = append(s.observers, o) }
}

// WithLogger sets the logger used for dispatch tracing.
func WithLogger(lg *zap.Logger) Option {
	return func(s *Store) { s.lg = lg }
}

// WithLocale sets the locale used for digit grouping in FormatPrice.
func WithLocale(tag language.Tag) Option {
	return func(s *Store) { s.locale = tag }
}

// Store is the single writer of a session State.
type Store struct {
	mu        sync.Mutex
	state     State
	observers []Observer
	lg        *zap.Logger
	locale    language.Tag
}

// New returns a Store starting from initial.
func New(initial State, opts ...Option) *Store {
	s := &Store{
		state:  initial.Clone(),
		lg:     zap.NewNop(),
		locale: language.English,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch applies a, notifies observers, and returns the resulting state.
func (s *Store) Dispatch(ctx context.Context, a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a == nil {
		return s.state.Clone()
	}

	s.state = Reduce(s.state, a)
	s.lg.Debug("Action dispatched",
		zap.String("action", a.Name()),
		zap.Int("cart_lines", len(s.state.Cart)),
		zap.Int("favorites", len(s.state.Favorites)),
	)

	cartChanged, favoritesChanged := scope(a)
	for _, o := range s.observers {
		if cartChanged {
			o.CartChanged(ctx, slices.Clone(s.state.Cart))
		}
		if favoritesChanged {
			o.FavoritesChanged(ctx, slices.Clone(s.state.Favorites))
		}
	}
	return s.state.Clone()
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// CartLines returns the valid cart lines.
func (s *Store) CartLines() []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cart.SanitizeLines(s.state.Cart)
}

// Favorites returns the valid favorites.
func (s *Store) Favorites() []product.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cart.SanitizeFavorites(s.state.Favorites)
}

// CartTotal returns the cart total in base units. Lines with a missing id or
// price are skipped.
func (s *Store) CartTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cart.Total(s.state.Cart)
}

// CartItemCount returns the sum of quantities across the cart.
func (s *Store) CartItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cart.ItemCount(s.state.Cart)
}

// FavoritesCount returns the number of favorites.
func (s *Store) FavoritesCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Favorites)
}

// IsFavorite reports whether the product with id is a favorite.
func (s *Store) IsFavorite(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return id != "" && favoriteIndex(s.state.Favorites, id) >= 0
}

// Currency returns the active display currency.
func (s *Store) Currency() currency.Currency {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Currency
}

// FormatPrice renders a base-unit price in the active currency.
func (s *Store) FormatPrice(price decimal.Decimal) string {
	s.mu.Lock()
	c, tag := s.state.Currency, s.locale
	s.mu.Unlock()
	return c.FormatIn(tag, price)
}
