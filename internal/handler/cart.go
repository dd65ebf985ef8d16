package handler

import (
	"math"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/florist-storefront/internal/domain/cart"
	"github.com/xenking/florist-storefront/internal/store"
)

func (h *Handler) getCart(_ http.ResponseWriter, r *http.Request) (response, error) {
	st, err := h.session(r)
	if err != nil {
		return response{}, err
	}
	return ok(cartView(st, st.State())), nil
}

// addCartItem resolves the product through the catalog so the cart stores
// a current snapshot rather than client-supplied data.
func (h *Handler) addCartItem(_ http.ResponseWriter, r *http.Request) (response, error) {
	var productID string
	if err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != "productId" {
			return d.Skip()
		}
		v, err := d.Str()
		productID = strings.TrimSpace(v)
		return err
	}); err != nil {
		return response{}, err
	}
	if productID == "" {
		return response{}, badRequest(errors.New("productId is required"))
	}

	st, err := h.session(r)
	if err != nil {
		return response{}, err
	}
	p, err := h.lookup(r.Context(), productID)
	if err != nil {
		return response{}, err
	}
	if !cart.ValidPricedProduct(*p) {
		return response{}, errNoPrice
	}

	s := st.Dispatch(r.Context(), store.AddToCart{Product: *p})
	return ok(cartView(st, s)), nil
}

// maxQuantity bounds a cart line quantity accepted from clients.
const maxQuantity = math.MaxInt32

func (h *Handler) updateCartItem(_ http.ResponseWriter, r *http.Request) (response, error) {
	var (
		quantity int
		set      bool
	)
	if err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		if d.Next() != jx.Number {
			return errors.New("quantity must be a number")
		}
		f, err := d.Float64()
		if err != nil {
			return err
		}
		if math.Trunc(f) != f {
			return errors.New("quantity must be a whole number")
		}
		if math.Abs(f) > maxQuantity {
			return errors.Errorf("quantity must not exceed %d", maxQuantity)
		}
		quantity, set = int(f), true
		return nil
	}); err != nil {
		return response{}, err
	}
	if !set {
		return response{}, badRequest(errors.New("quantity is required"))
	}

	st, err := h.session(r)
	if err != nil {
		return response{}, err
	}

	id := r.PathValue("id")
	var action store.Action = store.UpdateQuantity{ProductID: id, Quantity: quantity}
	if quantity <= 0 {
		action = store.RemoveFromCart{ProductID: id}
	}
	s := st.Dispatch(r.Context(), action)
	return ok(cartView(st, s)), nil
}

func (h *Handler) removeCartItem(_ http.ResponseWriter, r *http.Request) (response, error) {
	st, err := h.session(r)
	if err != nil {
		return response{}, err
	}
	s := st.Dispatch(r.Context(), store.RemoveFromCart{ProductID: r.PathValue("id")})
	return ok(cartView(st, s)), nil
}

func (h *Handler) clearCart(_ http.ResponseWriter, r *http.Request) (response, error) {
	st, err := h.session(r)
	if err != nil {
		return response{}, err
	}
	s := st.Dispatch(r.Context(), store.ClearCart{})
	return ok(cartView(st, s)), nil
}
