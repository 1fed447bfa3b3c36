package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/email"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sent struct {
	to           string
	confirmation email.OrderConfirmation
}

type mockMailer struct {
	sent []sent
	err  error
}

func (m *mockMailer) SendOrderConfirmation(to string, c email.OrderConfirmation) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sent{to, c})
	return nil
}

func makeEvent(aggregateType, eventType string, data any) []byte {
	jsonData, _ := json.Marshal(data)
	event := store.Event{
		ID:            "event-1",
		AggregateID:   "agg-1",
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
		Version:       1,
	}
	value, _ := json.Marshal(event)
	return value
}

func placed(payment order.Payment) order.OrderPlaced {
	return order.OrderPlaced{
		OrderID: "order-1",
		Owner:   "user-1",
		Email:   "jane@example.com",
		Items: []order.Item{
			{ProductID: "shoe-1", Name: "Classic Pink Sneakers", Price: decimal.RequireFromString("89.99"), Quantity: 1, SelectedSize: "38", SelectedColor: "Pink"},
			{ProductID: "bag-1", Name: "Luxury Handbag", Price: decimal.RequireFromString("249.99"), Quantity: 1},
		},
		Total:    decimal.RequireFromString("339.98"),
		Shipping: order.Shipping{Name: "Jane Doe", Address: "1 Moi Avenue", City: "Nairobi", PostalCode: "00100"},
		Payment:  payment,
		PlacedAt: time.Now(),
	}
}

func TestHandler_OrderPlacedSendsConfirmation(t *testing.T) {
	mailer := &mockMailer{}
	h := NewHandler(mailer, zap.NewNop())

	value := makeEvent(order.AggregateType, order.EventOrderPlaced, placed(order.Payment{Method: order.PaymentCard, CardLast4: "4242"}))
	require.NoError(t, h.HandleEvent(context.Background(), []byte("order-1"), value))

	require.Len(t, mailer.sent, 1)
	got := mailer.sent[0]
	assert.Equal(t, "jane@example.com", got.to)
	assert.Equal(t, "order-1", got.confirmation.OrderID)
	assert.Equal(t, "Jane Doe", got.confirmation.CustomerName)
	assert.Equal(t, "Jane Doe, 1 Moi Avenue, Nairobi, 00100", got.confirmation.ShipTo)
	assert.Equal(t, "Card ending 4242", got.confirmation.PaymentMethod)
	require.Len(t, got.confirmation.Items, 2)
	assert.Equal(t, "Size 38, Pink", got.confirmation.Items[0].Options)
	assert.Empty(t, got.confirmation.Items[1].Options)
	assert.True(t, decimal.RequireFromString("339.98").Equal(got.confirmation.Total))
}

func TestHandler_PaymentLabels(t *testing.T) {
	assert.Equal(t, "M-Pesa (254712345678)", paymentLabel(order.Payment{Method: order.PaymentMpesa, MpesaPhone: "254712345678"}))
	assert.Equal(t, "Bank transfer", paymentLabel(order.Payment{Method: order.PaymentBank}))
}

func TestHandler_IgnoresOtherEvents(t *testing.T) {
	mailer := &mockMailer{}
	h := NewHandler(mailer, zap.NewNop())

	value := makeEvent(cart.AggregateType, cart.EventCartCleared, cart.CartCleared{CartID: "cart-1"})
	require.NoError(t, h.HandleEvent(context.Background(), nil, value))
	assert.Empty(t, mailer.sent)
}

func TestHandler_SkipsOrderWithoutEmail(t *testing.T) {
	mailer := &mockMailer{}
	h := NewHandler(mailer, zap.NewNop())

	e := placed(order.Payment{Method: order.PaymentBank})
	e.Email = ""
	require.NoError(t, h.HandleEvent(context.Background(), nil, makeEvent(order.AggregateType, order.EventOrderPlaced, e)))
	assert.Empty(t, mailer.sent)
}

func TestHandler_MailerError(t *testing.T) {
	mailer := &mockMailer{err: errors.New("smtp unavailable")}
	h := NewHandler(mailer, zap.NewNop())

	value := makeEvent(order.AggregateType, order.EventOrderPlaced, placed(order.Payment{Method: order.PaymentBank}))
	err := h.HandleEvent(context.Background(), nil, value)
	assert.ErrorContains(t, err, "smtp unavailable")
}

func TestHandler_InvalidJSON(t *testing.T) {
	h := NewHandler(&mockMailer{}, zap.NewNop())
	assert.Error(t, h.HandleEvent(context.Background(), []byte("k"), []byte("nope")))
}
