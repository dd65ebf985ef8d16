package persist

import (
	"math"
	"slices"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/florist-storefront/internal/domain/cart"
	"github.com/xenking/florist-storefront/internal/domain/product"
)

// ErrNotCollection is returned when a payload is valid JSON but not an array.
var ErrNotCollection = errors.New("payload is not a collection")

// EncodeCart serializes lines as [{"product": {...}, "quantity": n}, ...].
func EncodeCart(lines []cart.Line) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ArrStart()
	for _, l := range lines {
		e.ObjStart()
		e.FieldStart("product")
		product.Encode(e, l.Product)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	return slices.Clone(e.Bytes())
}

// EncodeFavorites serializes favorites as an array of product objects.
func EncodeFavorites(favorites []product.Product) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ArrStart()
	for _, p := range favorites {
		product.Encode(e, p)
	}
	e.ArrEnd()
	return slices.Clone(e.Bytes())
}

// DecodeCart parses a cart payload. An entry that cannot be decoded is
// dropped on its own; the error result is reserved for payloads that are not
// a JSON array at all. Quantities are floored and raised to at least 1, and
// the result is sanitized.
func DecodeCart(data []byte) ([]cart.Line, error) {
	entries, err := splitArray(data)
	if err != nil {
		return nil, err
	}
	lines := make([]cart.Line, 0, len(entries))
	for _, raw := range entries {
		l, err := decodeLine(raw)
		if err != nil {
			continue
		}
		lines = append(lines, l)
	}
	return cart.SanitizeLines(lines), nil
}

// DecodeFavorites parses a favorites payload with the same per-entry
// tolerance as DecodeCart.
func DecodeFavorites(data []byte) ([]product.Product, error) {
	entries, err := splitArray(data)
	if err != nil {
		return nil, err
	}
	favs := make([]product.Product, 0, len(entries))
	for _, raw := range entries {
		p, err := product.DecodeBytes(raw)
		if err != nil {
			continue
		}
		favs = append(favs, p)
	}
	return cart.SanitizeFavorites(favs), nil
}

func splitArray(data []byte) ([]jx.Raw, error) {
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Array {
		return nil, ErrNotCollection
	}
	var entries []jx.Raw
	if err := d.Arr(func(d *jx.Decoder) error {
		raw, err := d.Raw()
		if err != nil {
			return err
		}
		entries = append(entries, slices.Clone(raw))
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode array")
	}
	return entries, nil
}

func decodeLine(raw jx.Raw) (cart.Line, error) {
	var (
		l   cart.Line
		qty = 1.0
	)
	d := jx.DecodeBytes(raw)
	if d.Next() != jx.Object {
		return l, errors.New("line: expected object")
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "product":
			p, err := product.Decode(d)
			if err != nil {
				return err
			}
			l.Product = p
			return nil
		case "quantity":
			if d.Next() != jx.Number {
				return d.Skip()
			}
			v, err := d.Float64()
			if err != nil {
				return err
			}
			qty = v
			return nil
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return cart.Line{}, errors.Wrap(err, "decode line")
	}
	l.Quantity = clampQuantity(qty)
	return l, nil
}

func clampQuantity(v float64) int {
	v = math.Floor(v)
	if v < 1 {
		return 1
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return cart.ClampQuantity(int(v))
}
