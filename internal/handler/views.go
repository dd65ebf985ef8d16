package handler

import (
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/florist-storefront/internal/domain/cart"
	"github.com/xenking/florist-storefront/internal/domain/currency"
	"github.com/xenking/florist-storefront/internal/domain/order"
	"github.com/xenking/florist-storefront/internal/domain/product"
	"github.com/xenking/florist-storefront/internal/store"
)

func encodeDecimal(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.String()))
}

func encodeCurrency(e *jx.Encoder, c currency.Currency) {
	e.ObjStart()
	e.FieldStart("code")
	e.Str(string(c.Code))
	e.FieldStart("symbol")
	e.Str(c.Symbol)
	e.FieldStart("rate")
	encodeDecimal(e, c.Rate)
	e.ObjEnd()
}

// cartView encodes the valid lines of s with totals formatted by st.
func cartView(st *store.Store, s store.State) func(e *jx.Encoder) {
	lines := cart.SanitizeLines(s.Cart)
	total := cart.Total(lines)
	return func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("items")
		e.ArrStart()
		for _, l := range lines {
			sub := l.Subtotal()
			e.ObjStart()
			e.FieldStart("product")
			product.Encode(e, l.Product)
			e.FieldStart("quantity")
			e.Int(l.Quantity)
			e.FieldStart("subtotal")
			encodeDecimal(e, sub)
			e.FieldStart("formattedSubtotal")
			e.Str(st.FormatPrice(sub))
			e.ObjEnd()
		}
		e.ArrEnd()
		e.FieldStart("itemCount")
		e.Int(cart.ItemCount(lines))
		e.FieldStart("total")
		encodeDecimal(e, total)
		e.FieldStart("formattedTotal")
		e.Str(st.FormatPrice(total))
		e.FieldStart("currency")
		encodeCurrency(e, s.Currency)
		e.ObjEnd()
	}
}

func favoritesView(s store.State) func(e *jx.Encoder) {
	favs := cart.SanitizeFavorites(s.Favorites)
	return func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("items")
		e.ArrStart()
		for _, p := range favs {
			product.Encode(e, p)
		}
		e.ArrEnd()
		e.FieldStart("count")
		e.Int(len(favs))
		e.ObjEnd()
	}
}

func sessionView(st *store.Store) func(e *jx.Encoder) {
	s := st.State()
	encodeCart := cartView(st, s)
	encodeFavorites := favoritesView(s)
	return func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("cart")
		encodeCart(e)
		e.FieldStart("favorites")
		encodeFavorites(e)
		e.FieldStart("currency")
		encodeCurrency(e, s.Currency)
		e.FieldStart("searchQuery")
		e.Str(s.SearchQuery)
		e.FieldStart("selectedCategory")
		e.Str(s.SelectedCategory)
		e.FieldStart("currentPage")
		e.Str(s.CurrentPage)
		e.FieldStart("cookieConsent")
		e.Bool(s.CookieConsent)
		e.ObjEnd()
	}
}

func encodePagination(e *jx.Encoder, p product.Pagination) {
	e.ObjStart()
	e.FieldStart("page")
	e.Int(p.Page)
	e.FieldStart("pageSize")
	e.Int(p.PageSize)
	e.FieldStart("total")
	e.Int(p.Total)
	e.FieldStart("totalPages")
	e.Int(p.TotalPages)
	e.ObjEnd()
}

func orderView(o *order.Order, formattedTotal string) func(e *jx.Encoder) {
	return func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(o.ID)
		e.FieldStart("items")
		e.ArrStart()
		for _, it := range o.Items {
			e.ObjStart()
			e.FieldStart("productId")
			e.Str(it.ProductID)
			e.FieldStart("name")
			e.Str(it.Name)
			e.FieldStart("quantity")
			e.Int(it.Quantity)
			e.FieldStart("unitPrice")
			encodeDecimal(e, it.UnitPrice)
			e.ObjEnd()
		}
		e.ArrEnd()
		e.FieldStart("total")
		encodeDecimal(e, o.Total)
		e.FieldStart("currency")
		e.Str(string(o.Currency))
		e.FieldStart("convertedTotal")
		encodeDecimal(e, o.ConvertedTotal)
		e.FieldStart("formattedTotal")
		e.Str(formattedTotal)
		e.FieldStart("paymentMethod")
		e.Str(o.PaymentMethod)
		e.FieldStart("createdAt")
		e.Str(o.CreatedAt.UTC().Format(time.RFC3339))
		e.ObjEnd()
	}
}
