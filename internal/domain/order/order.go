package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/florist-storefront/internal/domain/currency"
)

// PaymentType groups payment methods by how the customer pays.
type PaymentType string

const (
	PaymentMobileMoney PaymentType = "mobile_money"
	PaymentCard        PaymentType = "card"
	PaymentBank        PaymentType = "bank"
)

// PaymentMethod is one of the payment options offered at checkout.
type PaymentMethod struct {
	ID          string
	Name        string
	Type        PaymentType
	Description string
}

var paymentMethods = []PaymentMethod{
	{ID: "mtn", Name: "MTN Mobile Money", Type: PaymentMobileMoney, Description: "Pay with MTN Mobile Money"},
	{ID: "airtel", Name: "Airtel Money", Type: PaymentMobileMoney, Description: "Pay with Airtel Money"},
	{ID: "paystack", Name: "Paystack", Type: PaymentCard, Description: "Pay with credit/debit card via Paystack"},
	{ID: "bank", Name: "Bank Transfer", Type: PaymentBank, Description: "Direct bank transfer"},
}

// PaymentMethods returns the supported payment methods.
func PaymentMethods() []PaymentMethod {
	out := make([]PaymentMethod, len(paymentMethods))
	copy(out, paymentMethods)
	return out
}

// LookupPaymentMethod finds a payment method by id.
func LookupPaymentMethod(id string) (PaymentMethod, bool) {
	for _, m := range paymentMethods {
		if m.ID == id {
			return m, true
		}
	}
	return PaymentMethod{}, false
}

// Customer holds the buyer's contact details.
type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Address is a shipping address.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postalCode,omitempty"`
}

// Details is the checkout form submitted by the customer.
type Details struct {
	Customer      Customer
	Shipping      Address
	PaymentMethod string
}

// Order is a confirmed (simulated) order.
type Order struct {
	ID             string
	Items          []Item
	Total          decimal.Decimal
	Currency       currency.Code
	ConvertedTotal decimal.Decimal
	PaymentMethod  string
	Customer       Customer
	Shipping       Address
	CreatedAt      time.Time
}

// Item is a snapshot of one cart line at checkout time.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
}
