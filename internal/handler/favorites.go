package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/florist-storefront/internal/store"
)

func (h *Handler) getFavorites(_ http.ResponseWriter, r *http.Request) (response, error) {
	st, err := h.session(r)
	if err != nil {
		return response{}, err
	}
	return ok(favoritesView(st.State())), nil
}

// toggleFavorite removes a favorite without a catalog round trip; adding one
// needs the product snapshot.
func (h *Handler) toggleFavorite(_ http.ResponseWriter, r *http.Request) (response, error) {
	st, err := h.session(r)
	if err != nil {
		return response{}, err
	}

	id := r.PathValue("id")
	var s store.State
	if st.IsFavorite(id) {
		s = st.Dispatch(r.Context(), store.RemoveFavorite{ProductID: id})
	} else {
		p, err := h.lookup(r.Context(), id)
		if err != nil {
			return response{}, err
		}
		s = st.Dispatch(r.Context(), store.ToggleFavorite{Product: *p})
	}

	favorites := favoritesView(s)
	isFavorite := st.IsFavorite(id)
	return ok(func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(id)
		e.FieldStart("isFavorite")
		e.Bool(isFavorite)
		e.FieldStart("favorites")
		favorites(e)
		e.ObjEnd()
	}), nil
}

func (h *Handler) removeFavorite(_ http.ResponseWriter, r *http.Request) (response, error) {
	st, err := h.session(r)
	if err != nil {
		return response{}, err
	}
	s := st.Dispatch(r.Context(), store.RemoveFavorite{ProductID: r.PathValue("id")})
	return ok(favoritesView(s)), nil
}

func (h *Handler) clearFavorites(_ http.ResponseWriter, r *http.Request) (response, error) {
	st, err := h.session(r)
	if err != nil {
		return response{}, err
	}
	s := st.Dispatch(r.Context(), store.ClearFavorites{})
	return ok(favoritesView(s)), nil
}
