// Package handler exposes the storefront session over a JSON HTTP API.
package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/florist-storefront/internal/domain/currency"
	"github.com/xenking/florist-storefront/internal/domain/order"
	"github.com/xenking/florist-storefront/internal/domain/product"
	"github.com/xenking/florist-storefront/internal/store"
	"github.com/xenking/florist-storefront/pkg/httpmiddleware"
)

const maxBodySize = 1 << 20

var (
	errNoSession = errors.New("missing session")
	errNoPrice   = errors.New("product has no price")
	errUpstream  = errors.New("catalog unavailable")
)

// requestError marks a malformed request body or parameter.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return &requestError{err: err} }

// Sessions resolves the store of a session id.
type Sessions interface {
	Get(ctx context.Context, id string) *store.Store
}

// Checkout places an order from a session cart.
type Checkout interface {
	Checkout(ctx context.Context, st *store.Store, d order.Details) (*order.Order, error)
}

// Handler serves the storefront API. Session ids come from the request
// context, set by httpmiddleware.Session.
type Handler struct {
	sessions Sessions
	catalog  product.Catalog
	checkout Checkout
}

// New constructs a Handler.
func New(sessions Sessions, catalog product.Catalog, checkout Checkout) *Handler {
	return &Handler{
		sessions: sessions,
		catalog:  catalog,
		checkout: checkout,
	}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/session", h.handle(h.getSession))

	mux.HandleFunc("GET /api/cart", h.handle(h.getCart))
	mux.HandleFunc("POST /api/cart/items", h.handle(h.addCartItem))
	mux.HandleFunc("PUT /api/cart/items/{id}", h.handle(h.updateCartItem))
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.handle(h.removeCartItem))
	mux.HandleFunc("DELETE /api/cart", h.handle(h.clearCart))

	mux.HandleFunc("GET /api/favorites", h.handle(h.getFavorites))
	mux.HandleFunc("POST /api/favorites/{id}/toggle", h.handle(h.toggleFavorite))
	mux.HandleFunc("DELETE /api/favorites/{id}", h.handle(h.removeFavorite))
	mux.HandleFunc("DELETE /api/favorites", h.handle(h.clearFavorites))

	mux.HandleFunc("GET /api/currencies", h.handle(h.listCurrencies))
	mux.HandleFunc("PUT /api/currency", h.handle(h.setCurrency))
	mux.HandleFunc("PUT /api/preferences", h.handle(h.setPreferences))

	mux.HandleFunc("GET /api/products", h.handle(h.searchProducts))
	mux.HandleFunc("GET /api/products/categories", h.handle(h.listCategories))
	mux.HandleFunc("GET /api/products/{id}", h.handle(h.getProduct))

	mux.HandleFunc("GET /api/payment-methods", h.handle(h.listPaymentMethods))
	mux.HandleFunc("POST /api/checkout", h.handle(h.placeOrder))
}

// response is a status plus a body writer. A nil body writes no content.
type response struct {
	status int
	body   func(e *jx.Encoder)
}

func ok(body func(e *jx.Encoder)) response {
	return response{status: http.StatusOK, body: body}
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) (response, error)

func (h *Handler) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := fn(w, r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, resp)
	}
}

// session returns the store of the request's session.
func (h *Handler) session(r *http.Request) (*store.Store, error) {
	id := httpmiddleware.SessionIDFromContext(r.Context())
	if id == "" {
		return nil, errNoSession
	}
	return h.sessions.Get(r.Context(), id), nil
}

// lookup fetches a product from the catalog, separating "not found" from
// catalog failures.
func (h *Handler) lookup(ctx context.Context, id string) (*product.Product, error) {
	p, err := h.catalog.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(errUpstream, err.Error())
	}
	return p, nil
}

func writeJSON(w http.ResponseWriter, resp response) {
	if resp.body == nil {
		w.WriteHeader(resp.status)
		return
	}
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	resp.body(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_, _ = w.Write(e.Bytes())
}

// fail maps domain errors to HTTP errors.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		reqErr *requestError
		valErr *order.ValidationError
	)
	switch {
	case errors.As(err, &reqErr):
		httpmiddleware.WriteError(w, http.StatusBadRequest, reqErr.Error())
	case errors.Is(err, errNoSession):
		httpmiddleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrEmptyCart):
		httpmiddleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, product.ErrNotFound):
		httpmiddleware.WriteError(w, http.StatusNotFound, "product not found")
	case errors.As(err, &valErr):
		httpmiddleware.WriteError(w, http.StatusUnprocessableEntity, valErr.Error())
	case errors.Is(err, currency.ErrUnknown),
		errors.Is(err, errNoPrice):
		httpmiddleware.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, errUpstream):
		zctx.From(r.Context()).Warn("Catalog request failed", zap.Error(err))
		httpmiddleware.WriteError(w, http.StatusBadGateway, errUpstream.Error())
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		httpmiddleware.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeBody reads a JSON object body, calling field for every key.
func decodeBody(r *http.Request, field func(d *jx.Decoder, key string) error) error {
	data, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodySize))
	if err != nil {
		return badRequest(errors.Wrap(err, "read body"))
	}
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Object {
		return badRequest(errors.New("request body must be a JSON object"))
	}
	if err := d.Obj(field); err != nil {
		return badRequest(errors.Wrap(err, "decode body"))
	}
	return nil
}
