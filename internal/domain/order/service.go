package order

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/florist-storefront/internal/domain/cart"
	"github.com/xenking/florist-storefront/internal/store"
)

// ErrEmptyCart is returned when checking out a cart with no valid lines.
var ErrEmptyCart = errors.New("cart is empty")

// ValidationError lists the checkout fields that are missing or invalid.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid checkout details: %s", strings.Join(e.Fields, ", "))
}

// Service runs the simulated checkout.
type Service struct {
	orders Repository
	tracer trace.Tracer
	now    func() time.Time
}

// NewService creates a Service that persists orders to orders. A nil tp uses
// the global tracer provider.
func NewService(orders Repository, tp trace.TracerProvider) *Service {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Service{
		orders: orders,
		tracer: tp.Tracer("github.com/xenking/florist-storefront/internal/domain/order"),
		now:    time.Now,
	}
}

// Checkout validates d, snapshots the cart of st into an order, persists it,
// and deducts the ordered lines from the cart. Items added to the cart while
// the order is being created stay in it. The cart is left untouched when any
// step fails.
func (s *Service) Checkout(ctx context.Context, st *store.Store, d Details) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.Checkout")
	defer span.End()

	if err := Validate(d); err != nil {
		return nil, err
	}

	lines := st.CartLines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]Item, len(lines))
	for i, l := range lines {
		items[i] = Item{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.Product.UnitPrice(),
		}
	}

	cur := st.Currency()
	total := cart.Total(lines)
	o := &Order{
		ID:             uuid.New().String(),
		Items:          items,
		Total:          total.Round(2),
		Currency:       cur.Code,
		ConvertedTotal: cur.Convert(total).Round(2),
		PaymentMethod:  d.PaymentMethod,
		Customer:       d.Customer,
		Shipping:       d.Shipping,
		CreatedAt:      s.now().UTC(),
	}
	span.SetAttributes(
		attribute.String("order.id", o.ID),
		attribute.Int("order.lines", len(items)),
	)

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	st.Dispatch(ctx, store.DeductFromCart{Lines: lines})
	return o, nil
}

// Validate checks that every required checkout field is present and the
// payment method is supported.
func Validate(d Details) error {
	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"firstName", d.Customer.FirstName},
		{"lastName", d.Customer.LastName},
		{"email", d.Customer.Email},
		{"phone", d.Customer.Phone},
		{"street", d.Shipping.Street},
		{"city", d.Shipping.City},
		{"province", d.Shipping.Province},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if strings.TrimSpace(d.Customer.Email) != "" {
		if _, err := mail.ParseAddress(d.Customer.Email); err != nil {
			missing = append(missing, "email")
		}
	}
	if _, ok := LookupPaymentMethod(d.PaymentMethod); !ok {
		missing = append(missing, "paymentMethod")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}
