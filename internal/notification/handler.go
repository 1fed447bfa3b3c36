package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/email"
	"github.com/example/storefront/internal/infrastructure/store"
	"go.uber.org/zap"
)

// Mailer sends order confirmations; email.Service implements it
type Mailer interface {
	SendOrderConfirmation(to string, c email.OrderConfirmation) error
}

// Handler processes events for sending notifications
type Handler struct {
	mailer Mailer
	logger *zap.Logger
}

func NewHandler(mailer Mailer, logger *zap.Logger) *Handler {
	return &Handler{
		mailer: mailer,
		logger: logger.Named("notifier"),
	}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("decode event %s: %w", key, err)
	}

	if event.EventType == order.EventOrderPlaced {
		return h.handleOrderPlaced(event)
	}
	return nil
}

func (h *Handler) handleOrderPlaced(event store.Event) error {
	var e order.OrderPlaced
	if err := event.Decode(&e); err != nil {
		return err
	}
	logger := h.logger.With(zap.String("order_id", e.OrderID))

	if e.Email == "" {
		logger.Warn("order has no email address, skipping confirmation")
		return nil
	}

	items := make([]email.OrderItem, len(e.Items))
	for i, item := range e.Items {
		items[i] = email.OrderItem{
			Name:     item.Name,
			Options:  options(item),
			Quantity: item.Quantity,
			Price:    item.Price,
		}
	}

	confirmation := email.OrderConfirmation{
		OrderID:       e.OrderID,
		CustomerName:  e.Shipping.Name,
		Items:         items,
		Total:         e.Total,
		ShipTo:        strings.Join(nonEmpty(e.Shipping.Name, e.Shipping.Address, e.Shipping.City, e.Shipping.PostalCode), ", "),
		PaymentMethod: paymentLabel(e.Payment),
	}
	if err := h.mailer.SendOrderConfirmation(e.Email, confirmation); err != nil {
		return fmt.Errorf("send confirmation for %s: %w", e.OrderID, err)
	}

	logger.Info("order confirmation sent", zap.String("to", e.Email))
	return nil
}

func options(item order.Item) string {
	var parts []string
	if item.SelectedSize != "" {
		parts = append(parts, "Size "+item.SelectedSize)
	}
	if item.SelectedColor != "" {
		parts = append(parts, item.SelectedColor)
	}
	return strings.Join(parts, ", ")
}

func paymentLabel(p order.Payment) string {
	switch p.Method {
	case order.PaymentMpesa:
		return "M-Pesa (" + p.MpesaPhone + ")"
	case order.PaymentCard:
		return "Card ending " + p.CardLast4
	case order.PaymentBank:
		return "Bank transfer"
	}
	return string(p.Method)
}

func nonEmpty(values ...string) []string {
	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
