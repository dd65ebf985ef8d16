package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/florist-storefront/internal/domain/currency"
	"github.com/xenking/florist-storefront/internal/store"
)

func (h *Handler) getSession(_ http.ResponseWriter, r *http.Request) (response, error) {
	st, err := h.session(r)
	if err != nil {
		return response{}, err
	}
	return ok(sessionView(st)), nil
}

func (h *Handler) listCurrencies(_ http.ResponseWriter, r *http.Request) (response, error) {
	st, err := h.session(r)
	if err != nil {
		return response{}, err
	}
	active := st.Currency()
	return ok(func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("currencies")
		e.ArrStart()
		for _, c := range currency.List() {
			encodeCurrency(e, c)
		}
		e.ArrEnd()
		e.FieldStart("active")
		e.Str(string(active.Code))
		e.ObjEnd()
	}), nil
}

func (h *Handler) setCurrency(_ http.ResponseWriter, r *http.Request) (response, error) {
	var code string
	if err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != "code" {
			return d.Skip()
		}
		v, err := d.Str()
		code = strings.TrimSpace(v)
		return err
	}); err != nil {
		return response{}, err
	}
	if code == "" {
		return response{}, badRequest(errors.New("code is required"))
	}
	c, err := currency.Lookup(code)
	if err != nil {
		return response{}, err
	}

	st, err := h.session(r)
	if err != nil {
		return response{}, err
	}
	st.Dispatch(r.Context(), store.SetCurrency{Currency: c})
	return ok(sessionView(st)), nil
}

func (h *Handler) setPreferences(_ http.ResponseWriter, r *http.Request) (response, error) {
	var (
		page    *string
		consent *bool
	)
	if err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "page":
			v, err := d.Str()
			page = &v
			return err
		case "cookieConsent":
			v, err := d.Bool()
			consent = &v
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return response{}, err
	}

	st, err := h.session(r)
	if err != nil {
		return response{}, err
	}
	if page != nil {
		st.Dispatch(r.Context(), store.SetCurrentPage{Page: *page})
	}
	if consent != nil {
		st.Dispatch(r.Context(), store.SetCookieConsent{Consent: *consent})
	}
	return ok(sessionView(st)), nil
}
