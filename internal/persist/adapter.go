// Package persist keeps a durable copy of the cart and favorites so they
// survive a reload.
//
// Each collection is stored as a payload plus an existence marker with a
// long expiry. Hydration reads the marker first: without it the collection
// starts empty even when a payload is still stored, which makes clearing the
// marker storage equivalent to starting fresh. Payload and marker are written
// and removed together; an empty collection leaves neither behind.
//
// Nothing in this package returns an error to the store. Storage failures
// are logged and counted, and the in-memory state stays authoritative.
package persist

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/xenking/florist-storefront/internal/domain/cart"
	"github.com/xenking/florist-storefront/internal/domain/product"
	"github.com/xenking/florist-storefront/internal/store"
)

// Default marker lifetimes.
const (
	DefaultCartMaxAge      = 180 * 24 * time.Hour
	DefaultFavoritesMaxAge = 365 * 24 * time.Hour
)

const markerValue = "1"

const (
	collectionCart      = "cart"
	collectionFavorites = "favorites"
)

var _ store.Observer = (*Adapter)(nil)

// Options configures an Adapter. Zero values select defaults.
type Options struct {
	Keys            Keys
	CartMaxAge      time.Duration
	FavoritesMaxAge time.Duration
	Logger          *zap.Logger
	Metrics         *Metrics
}

// Adapter hydrates and writes through the durable collections of one
// key layout.
type Adapter struct {
	storage         Storage
	markers         Markers
	keys            Keys
	cartMaxAge      time.Duration
	favoritesMaxAge time.Duration
	lg              *zap.Logger
	metrics         *Metrics
}

// New returns an Adapter over the given payload storage and markers.
func New(storage Storage, markers Markers, opts Options) *Adapter {
	if opts.Keys == (Keys{}) {
		opts.Keys = DefaultKeys()
	}
	if opts.CartMaxAge <= 0 {
		opts.CartMaxAge = DefaultCartMaxAge
	}
	if opts.FavoritesMaxAge <= 0 {
		opts.FavoritesMaxAge = DefaultFavoritesMaxAge
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Adapter{
		storage:         storage,
		markers:         markers,
		keys:            opts.Keys,
		cartMaxAge:      opts.CartMaxAge,
		favoritesMaxAge: opts.FavoritesMaxAge,
		lg:              opts.Logger,
		metrics:         opts.Metrics,
	}
}

// Hydrate returns the initial state for a store: defaults plus the persisted
// cart and favorites.
func (a *Adapter) Hydrate(ctx context.Context) store.State {
	s := store.InitialState()
	s.Cart = a.LoadCart(ctx)
	s.Favorites = a.LoadFavorites(ctx)
	return s
}

// LoadCart returns the persisted cart, or an empty cart when there is none or
// it cannot be read.
func (a *Adapter) LoadCart(ctx context.Context) []cart.Line {
	data, ok := a.load(ctx, collectionCart, a.keys.CartMarker, a.keys.CartPayload)
	if !ok {
		return []cart.Line{}
	}
	lines, err := DecodeCart(data)
	if err != nil {
		a.lg.Debug("Discarding unreadable payload", zap.String("collection", collectionCart), zap.Error(err))
		a.metrics.hydrated(ctx, collectionCart, outcomeCorrupt)
		return []cart.Line{}
	}
	a.metrics.hydrated(ctx, collectionCart, outcomeRestored)
	return lines
}

// LoadFavorites returns the persisted favorites, or an empty collection when
// there are none or they cannot be read.
func (a *Adapter) LoadFavorites(ctx context.Context) []product.Product {
	data, ok := a.load(ctx, collectionFavorites, a.keys.FavoritesMarker, a.keys.FavoritesPayload)
	if !ok {
		return []product.Product{}
	}
	favs, err := DecodeFavorites(data)
	if err != nil {
		a.lg.Debug("Discarding unreadable payload", zap.String("collection", collectionFavorites), zap.Error(err))
		a.metrics.hydrated(ctx, collectionFavorites, outcomeCorrupt)
		return []product.Product{}
	}
	a.metrics.hydrated(ctx, collectionFavorites, outcomeRestored)
	return favs
}

// load returns the payload for a collection if its marker is present.
func (a *Adapter) load(ctx context.Context, collection, marker, payload string) ([]byte, bool) {
	lg := a.lg.With(zap.String("collection", collection))

	_, ok, err := a.markers.Get(ctx, marker)
	if err != nil {
		lg.Warn("Read marker failed", zap.Error(err))
		a.metrics.hydrated(ctx, collection, outcomeError)
		return nil, false
	}
	if !ok {
		a.metrics.hydrated(ctx, collection, outcomeFresh)
		return nil, false
	}

	v, ok, err := a.storage.Get(ctx, payload)
	if err != nil {
		lg.Warn("Read payload failed", zap.Error(err))
		a.metrics.hydrated(ctx, collection, outcomeError)
		return nil, false
	}
	if !ok {
		a.metrics.hydrated(ctx, collection, outcomeFresh)
		return nil, false
	}
	return []byte(v), true
}

// CartChanged writes the cart through to storage. The write outlives
// cancellation of ctx: the in-memory change has already happened.
func (a *Adapter) CartChanged(ctx context.Context, lines []cart.Line) {
	ctx = context.WithoutCancel(ctx)
	lines = cart.SanitizeLines(lines)
	if len(lines) == 0 {
		a.drop(ctx, collectionCart, a.keys.CartMarker, a.keys.CartPayload)
		return
	}
	a.save(ctx, collectionCart, a.keys.CartMarker, a.keys.CartPayload, EncodeCart(lines), a.cartMaxAge)
}

// FavoritesChanged writes the favorites through to storage, ignoring
// cancellation of ctx.
func (a *Adapter) FavoritesChanged(ctx context.Context, favorites []product.Product) {
	ctx = context.WithoutCancel(ctx)
	favorites = cart.SanitizeFavorites(favorites)
	if len(favorites) == 0 {
		a.drop(ctx, collectionFavorites, a.keys.FavoritesMarker, a.keys.FavoritesPayload)
		return
	}
	a.save(ctx, collectionFavorites, a.keys.FavoritesMarker, a.keys.FavoritesPayload, EncodeFavorites(favorites), a.favoritesMaxAge)
}

// save stores the payload before setting the marker, so a marker never
// points at a payload that failed to write. When the marker cannot be set
// and no earlier marker covers the payload, the payload is removed again.
func (a *Adapter) save(ctx context.Context, collection, marker, payload string, data []byte, maxAge time.Duration) {
	lg := a.lg.With(zap.String("collection", collection))

	if err := a.storage.Set(ctx, payload, string(data)); err != nil {
		lg.Warn("Write payload failed", zap.Error(err))
		a.metrics.writeFailed(ctx, collection)
		return
	}
	if err := a.markers.Set(ctx, marker, markerValue, maxAge); err != nil {
		lg.Warn("Write marker failed", zap.Error(err))
		a.metrics.writeFailed(ctx, collection)

		if _, ok, err := a.markers.Get(ctx, marker); err == nil && ok {
			return
		}
		if err := a.storage.Remove(ctx, payload); err != nil {
			lg.Warn("Remove orphaned payload failed", zap.Error(err))
		}
	}
}

// drop clears the marker before removing the payload, so a failed payload
// removal still reads back as an empty collection.
func (a *Adapter) drop(ctx context.Context, collection, marker, payload string) {
	lg := a.lg.With(zap.String("collection", collection))

	if err := a.markers.Clear(ctx, marker); err != nil {
		lg.Warn("Clear marker failed", zap.Error(err))
		a.metrics.writeFailed(ctx, collection)
	}
	if err := a.storage.Remove(ctx, payload); err != nil {
		lg.Warn("Remove payload failed", zap.Error(err))
		a.metrics.writeFailed(ctx, collection)
	}
}

// Hydration outcomes reported by Metrics.
const (
	outcomeRestored = "restored"
	outcomeFresh    = "fresh"
	outcomeCorrupt  = "corrupt"
	outcomeError    = "error"
)

// Metrics counts persistence events. A nil *Metrics records nothing.
type Metrics struct {
	writeFailures metric.Int64Counter
	hydrations    metric.Int64Counter
}

// NewMetrics registers the persistence instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter("github.com/xenking/florist-storefront/internal/persist")

	writeFailures, err := meter.Int64Counter("storefront.persist.write_failures",
		metric.WithDescription("Failed payload or marker writes"),
	)
	if err != nil {
		return nil, err
	}
	hydrations, err := meter.Int64Counter("storefront.persist.hydrations",
		metric.WithDescription("Collection hydrations by outcome"),
	)
	if err != nil {
		return nil, err
	}
	return &Metrics{writeFailures: writeFailures, hydrations: hydrations}, nil
}

func (m *Metrics) writeFailed(ctx context.Context, collection string) {
	if m == nil {
		return
	}
	m.writeFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("collection", collection)))
}

func (m *Metrics) hydrated(ctx context.Context, collection, outcome string) {
	if m == nil {
		return
	}
	m.hydrations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("collection", collection),
		attribute.String("outcome", outcome),
	))
}
