package order

import (
	"context"
	"errors"
	"time"

	"github.com/example/storefront/internal/domain/aggregate"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateType = "Order"

type Status string

// StatusPlaced is the only status: payment is mocked and fulfilment is out of scope
const StatusPlaced Status = "placed"

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyOrder    = errors.New("order must have at least one item")
)

type Order struct {
	ID        string          `json:"id"`
	Owner     string          `json:"owner"`
	Email     string          `json:"email"`
	Items     []Item          `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Shipping  Shipping        `json:"shipping"`
	Payment   Payment         `json:"payment"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	Version   int             `json:"version"`
}

func (o *Order) GetID() string    { return o.ID }
func (o *Order) GetVersion() int  { return o.Version }
func (o *Order) SetVersion(v int) { o.Version = v }

// ApplyEvent applies a single event to the order state (implements aggregate.Aggregate)
func (o *Order) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventOrderPlaced:
		var data OrderPlaced
		if err := event.Decode(&data); err != nil {
			return err
		}
		o.ID = data.OrderID
		o.Owner = data.Owner
		o.Email = data.Email
		o.Items = data.Items
		o.Total = data.Total
		o.Shipping = data.Shipping
		o.Payment = data.Payment
		o.Status = StatusPlaced
		o.CreatedAt = data.PlacedAt
	}
	o.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// Place validates the form and records a mock order for items
func (s *Service) Place(ctx context.Context, owner string, items []Item, form CheckoutForm) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}

	event := OrderPlaced{
		OrderID: uuid.New().String(),
		Owner:   owner,
		Email:   form.Email,
		Items:   items,
		Total:   total,
		Shipping: Shipping{
			Name:       form.FullName(),
			Phone:      form.Phone,
			Address:    form.Address,
			City:       form.City,
			PostalCode: form.PostalCode,
		},
		Payment: Payment{
			Method:    form.PaymentMethod,
			CardLast4: form.CardLast4(),
		},
		PlacedAt: time.Now(),
	}
	if form.PaymentMethod == PaymentMpesa {
		event.Payment.MpesaPhone = form.MpesaPhone
	}

	stored, err := s.eventStore.Append(ctx, event.OrderID, AggregateType, EventOrderPlaced, event)
	if err != nil {
		return nil, err
	}

	o := &Order{}
	if err := o.ApplyEvent(*stored); err != nil {
		return nil, err
	}
	return o, nil
}

// Get rebuilds an order from its events
func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	o, found, err := aggregate.LoadAggregate(ctx, s.eventStore, orderID, func() *Order { return &Order{} })
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrOrderNotFound
	}
	return o, nil
}
