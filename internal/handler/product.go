package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/florist-storefront/internal/domain/product"
	"github.com/xenking/florist-storefront/internal/store"
)

const maxPageSize = 100

// searchProducts proxies a catalog search and records the query and
// category filter in the session.
func (h *Handler) searchProducts(_ http.ResponseWriter, r *http.Request) (response, error) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		return response{}, badRequest(err)
	}

	st, err := h.session(r)
	if err != nil {
		return response{}, err
	}
	st.Dispatch(r.Context(), store.SetSearchQuery{Query: q.Search})
	category := string(q.Category)
	if category == "" {
		category = store.DefaultCategory
	}
	st.Dispatch(r.Context(), store.SetCategory{Category: category})

	res, err := h.catalog.Search(r.Context(), q)
	if err != nil {
		return response{}, errors.Wrap(errUpstream, err.Error())
	}

	favorite := make([]bool, len(res.Products))
	for i, p := range res.Products {
		favorite[i] = st.IsFavorite(p.ID)
	}
	return ok(func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("products")
		e.ArrStart()
		for _, p := range res.Products {
			product.Encode(e, p)
		}
		e.ArrEnd()
		e.FieldStart("favorites")
		e.ArrStart()
		for i, p := range res.Products {
			if favorite[i] {
				e.Str(p.ID)
			}
		}
		e.ArrEnd()
		e.FieldStart("pagination")
		encodePagination(e, res.Pagination)
		e.ObjEnd()
	}), nil
}

func parseQuery(v url.Values) (product.Query, error) {
	q := product.Query{
		Search:    strings.TrimSpace(v.Get("search")),
		SortBy:    v.Get("sortBy"),
		SortOrder: v.Get("sortOrder"),
	}
	switch c := strings.ToLower(v.Get("category")); c {
	case "", store.DefaultCategory:
	case string(product.CategoryFlowers), string(product.CategorySeedlings):
		q.Category = product.Category(c)
	default:
		return q, errors.Errorf("unknown category %q", c)
	}
	for name, dst := range map[string]**bool{"inStock": &q.InStock, "featured": &q.Featured} {
		s := v.Get(name)
		if s == "" {
			continue
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return q, errors.Wrapf(err, "parse %s", name)
		}
		*dst = &b
	}
	for name, dst := range map[string]*int{"page": &q.Page, "pageSize": &q.PageSize} {
		s := v.Get(name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return q, errors.Errorf("%s must be a positive integer", name)
		}
		*dst = n
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	return q, nil
}

func (h *Handler) listCategories(_ http.ResponseWriter, r *http.Request) (response, error) {
	cats, err := h.catalog.Categories(r.Context())
	if err != nil {
		return response{}, errors.Wrap(errUpstream, err.Error())
	}
	return ok(func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("categories")
		e.ArrStart()
		for _, c := range cats {
			e.ObjStart()
			e.FieldStart("category")
			e.Str(string(c.Category))
			e.FieldStart("count")
			e.Int(c.Count)
			e.ObjEnd()
		}
		e.ArrEnd()
		e.ObjEnd()
	}), nil
}

func (h *Handler) getProduct(_ http.ResponseWriter, r *http.Request) (response, error) {
	p, err := h.lookup(r.Context(), r.PathValue("id"))
	if err != nil {
		return response{}, err
	}
	return ok(func(e *jx.Encoder) { product.Encode(e, *p) }), nil
}
