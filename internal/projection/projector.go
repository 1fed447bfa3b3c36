package projection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/readmodel"
	"go.uber.org/zap"
)

type Projector struct {
	readStore store.ReadStoreInterface
	logger    *zap.Logger
}

func NewProjector(readStore store.ReadStoreInterface, logger *zap.Logger) *Projector {
	return &Projector{
		readStore: readStore,
		logger:    logger.Named("projector"),
	}
}

// HandleEvent decodes a JSON event (Kafka message value) and projects it
func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("decode event %s: %w", key, err)
	}
	return p.Project(ctx, event)
}

// Publish lets the projector stand in for Kafka as the event store publisher
func (p *Projector) Publish(ctx context.Context, _ string, event any) error {
	e, ok := event.(store.Event)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	return p.Project(ctx, e)
}

// Project applies one event to the read models. Events of other aggregates are ignored.
func (p *Projector) Project(_ context.Context, event store.Event) error {
	p.logger.Debug("event received",
		zap.String("event_type", event.EventType),
		zap.String("aggregate_id", event.AggregateID),
	)

	switch event.AggregateType {
	case order.AggregateType:
		return p.handleOrderEvent(event)
	}
	return nil
}

// Replay rebuilds the read models from the full journal
func (p *Projector) Replay(ctx context.Context, es store.EventStoreInterface) (int, error) {
	events, err := es.GetAllEvents(ctx)
	if err != nil {
		return 0, fmt.Errorf("load journal: %w", err)
	}
	for _, event := range events {
		if err := p.Project(ctx, event); err != nil {
			return 0, err
		}
	}
	p.logger.Info("replay complete", zap.Int("events", len(events)))
	return len(events), nil
}

func (p *Projector) handleOrderEvent(event store.Event) error {
	switch event.EventType {
	case order.EventOrderPlaced:
		var e order.OrderPlaced
		if err := event.Decode(&e); err != nil {
			return err
		}

		items := make([]readmodel.OrderItemReadModel, len(e.Items))
		count := 0
		for i, item := range e.Items {
			items[i] = readmodel.OrderItemReadModel{
				ProductID:     item.ProductID,
				Name:          item.Name,
				Price:         item.Price,
				Quantity:      item.Quantity,
				SelectedSize:  item.SelectedSize,
				SelectedColor: item.SelectedColor,
			}
			count += item.Quantity
		}

		p.readStore.Set(readmodel.Orders, e.OrderID, &readmodel.OrderReadModel{
			ID:            e.OrderID,
			Owner:         e.Owner,
			Email:         e.Email,
			Items:         items,
			ItemCount:     count,
			Total:         e.Total,
			ShipTo:        e.Shipping.Name,
			City:          e.Shipping.City,
			PaymentMethod: string(e.Payment.Method),
			Status:        string(order.StatusPlaced),
			CreatedAt:     e.PlacedAt,
		})
	}
	return nil
}
