package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/jx"

	"github.com/xenking/florist-storefront/internal/domain/order"
)

func (h *Handler) listPaymentMethods(_ http.ResponseWriter, _ *http.Request) (response, error) {
	return ok(func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("paymentMethods")
		e.ArrStart()
		for _, m := range order.PaymentMethods() {
			e.ObjStart()
			e.FieldStart("id")
			e.Str(m.ID)
			e.FieldStart("name")
			e.Str(m.Name)
			e.FieldStart("type")
			e.Str(string(m.Type))
			e.FieldStart("description")
			e.Str(m.Description)
			e.ObjEnd()
		}
		e.ArrEnd()
		e.ObjEnd()
	}), nil
}

// placeOrder runs checkout on the session cart. The cart is cleared only
// when the order is stored.
func (h *Handler) placeOrder(_ http.ResponseWriter, r *http.Request) (response, error) {
	var d order.Details
	if err := decodeBody(r, func(dec *jx.Decoder, key string) error {
		switch key {
		case "customer":
			return decodeFields(dec, map[string]*string{
				"firstName": &d.Customer.FirstName,
				"lastName":  &d.Customer.LastName,
				"email":     &d.Customer.Email,
				"phone":     &d.Customer.Phone,
			})
		case "shipping":
			return decodeFields(dec, map[string]*string{
				"street":     &d.Shipping.Street,
				"city":       &d.Shipping.City,
				"province":   &d.Shipping.Province,
				"postalCode": &d.Shipping.PostalCode,
			})
		case "paymentMethod":
			v, err := dec.Str()
			d.PaymentMethod = v
			return err
		default:
			return dec.Skip()
		}
	}); err != nil {
		return response{}, err
	}

	st, err := h.session(r)
	if err != nil {
		return response{}, err
	}
	o, err := h.checkout.Checkout(r.Context(), st, d)
	if err != nil {
		return response{}, err
	}
	return response{
		status: http.StatusCreated,
		body:   orderView(o, st.FormatPrice(o.Total)),
	}, nil
}

// decodeFields reads an object of string fields into dst, trimming spaces.
// Unknown keys are ignored.
func decodeFields(d *jx.Decoder, dst map[string]*string) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		p, ok := dst[key]
		if !ok {
			return d.Skip()
		}
		v, err := d.Str()
		*p = strings.TrimSpace(v)
		return err
	})
}
