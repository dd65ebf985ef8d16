package currency

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ErrUnknown is returned when a currency code is not in the supported list.
var ErrUnknown = errors.New("unknown currency")

// Code is an ISO-like currency code.
type Code string

const (
	RWF Code = "RWF"
	USD Code = "USD"
)

// Currency is a display currency. Rate converts base-unit (USD) prices into
// this currency; stored prices are never converted.
type Currency struct {
	Code   Code
	Symbol string
	Rate   decimal.Decimal
}

var supported = []Currency{
	{Code: RWF, Symbol: "RWF", Rate: decimal.NewFromInt(1300)},
	{Code: USD, Symbol: "$", Rate: decimal.NewFromInt(1)},
}

// List returns the supported currencies, default first.
func List() []Currency {
	out := make([]Currency, len(supported))
	copy(out, supported)
	return out
}

// Default returns the currency a fresh session starts with.
func Default() Currency {
	return supported[0]
}

// Lookup finds a supported currency by code, ignoring case.
func Lookup(code string) (Currency, error) {
	for _, c := range supported {
		if strings.EqualFold(string(c.Code), code) {
			return c, nil
		}
	}
	return Currency{}, errors.Wrapf(ErrUnknown, "code %q", code)
}

// Convert returns price expressed in c.
func (c Currency) Convert(price decimal.Decimal) decimal.Decimal {
	return price.Mul(c.Rate)
}

// Format renders price converted to c with the currency symbol prefix and
// English digit grouping, e.g. "RWF32,500" or "$25".
func (c Currency) Format(price decimal.Decimal) string {
	return c.FormatIn(language.English, price)
}

// FormatIn is like Format but groups digits according to tag.
func (c Currency) FormatIn(tag language.Tag, price decimal.Decimal) string {
	v := c.Convert(price).Round(3).InexactFloat64()
	p := message.NewPrinter(tag)
	return c.Symbol + p.Sprint(number.Decimal(v))
}
