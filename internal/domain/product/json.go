package product

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Encode writes p as a JSON object using the catalog API field names.
func Encode(e *jx.Encoder, p Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("price")
	encodePrice(e, p.Price)
	if p.OriginalPrice.Valid {
		e.FieldStart("originalPrice")
		encodePrice(e, p.OriginalPrice)
	}
	e.FieldStart("image")
	e.Str(p.Image)
	e.FieldStart("category")
	e.Str(string(p.Category))
	e.FieldStart("subcategory")
	e.Str(p.Subcategory)
	e.FieldStart("inStock")
	e.Bool(p.InStock)
	e.FieldStart("featured")
	e.Bool(p.Featured)
	e.FieldStart("isNew")
	e.Bool(p.IsNew)
	e.FieldStart("isOnSale")
	e.Bool(p.IsOnSale)
	e.FieldStart("rating")
	e.Float64(p.Rating)
	e.FieldStart("reviews")
	e.Int(p.Reviews)
	e.ObjEnd()
}

func encodePrice(e *jx.Encoder, v decimal.NullDecimal) {
	if !v.Valid {
		e.Null()
		return
	}
	e.Num(jx.Num(v.Decimal.String()))
}

// Decode reads a product object. It is lenient about field types: a field
// holding an unexpected JSON type is skipped and left at its zero value, so a
// snapshot with a missing id or a non-numeric price decodes successfully and
// is left for the caller's validation to reject. Only malformed JSON or a
// non-object value is an error.
func Decode(d *jx.Decoder) (Product, error) {
	var p Product
	if d.Next() != jx.Object {
		return p, errors.Errorf("product: expected object, got %s", d.Next())
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = decodeID(d)
		case "name":
			p.Name, err = decodeStr(d)
		case "description":
			p.Description, err = decodeStr(d)
		case "price":
			p.Price, err = decodePrice(d)
		case "originalPrice":
			p.OriginalPrice, err = decodePrice(d)
		case "image":
			p.Image, err = decodeStr(d)
		case "category":
			var c string
			c, err = decodeStr(d)
			p.Category = Category(strings.ToLower(c))
		case "subcategory":
			p.Subcategory, err = decodeStr(d)
		case "inStock":
			p.InStock, err = decodeBool(d)
		case "featured":
			p.Featured, err = decodeBool(d)
		case "isNew":
			p.IsNew, err = decodeBool(d)
		case "isOnSale":
			p.IsOnSale, err = decodeBool(d)
		case "rating":
			p.Rating, err = decodeFloat(d)
		case "reviews":
			var f float64
			f, err = decodeFloat(d)
			p.Reviews = int(f)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	if err != nil {
		return Product{}, errors.Wrap(err, "decode product")
	}
	return p, nil
}

// DecodeBytes decodes a single product object from raw JSON.
func DecodeBytes(data []byte) (Product, error) {
	return Decode(jx.DecodeBytes(data))
}

// decodeID accepts both string and numeric identifiers.
func decodeID(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return "", d.Skip()
	}
}

func decodeStr(d *jx.Decoder) (string, error) {
	if d.Next() != jx.String {
		return "", d.Skip()
	}
	return d.Str()
}

func decodeBool(d *jx.Decoder) (bool, error) {
	if d.Next() != jx.Bool {
		return false, d.Skip()
	}
	return d.Bool()
}

func decodeFloat(d *jx.Decoder) (float64, error) {
	if d.Next() != jx.Number {
		return 0, d.Skip()
	}
	return d.Float64()
}

// decodePrice only accepts JSON numbers. Anything else, including numeric
// strings, yields an invalid price.
func decodePrice(d *jx.Decoder) (decimal.NullDecimal, error) {
	if d.Next() != jx.Number {
		return decimal.NullDecimal{}, d.Skip()
	}
	n, err := d.Num()
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	v, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.NullDecimal{}, nil
	}
	return decimal.NewNullDecimal(v), nil
}
