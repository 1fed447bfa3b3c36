package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/storefront/internal/domain/aggregate"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const AggregateType = "Cart"

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("product id is required")
	ErrInvalidOwner    = errors.New("cart owner is required")
)

// CartID returns the aggregate id of an owner's cart
func CartID(owner string) string {
	return "cart-" + owner
}

// Change describes one applied cart mutation
type Change struct {
	Owner      string          `json:"owner"`
	Ack        Ack             `json:"ack"`
	Message    string          `json:"message"`
	ProductID  string          `json:"product_id,omitempty"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Listener is told about every mutation that changed a cart
type Listener interface {
	CartChanged(ctx context.Context, change Change)
}

type ListenerFunc func(ctx context.Context, change Change)

func (f ListenerFunc) CartChanged(ctx context.Context, change Change) { f(ctx, change) }

// View is a read-only copy of a cart
type View struct {
	CartID     string          `json:"cart_id"`
	Owner      string          `json:"owner"`
	Items      []Item          `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type session struct {
	mu    sync.Mutex // held across append and apply
	store *Store
}

// Service keeps one Store per owner and journals every mutation before applying it
type Service struct {
	eventStore store.EventStoreInterface
	logger     *zap.Logger

	mu        sync.Mutex
	sessions  map[string]*session
	listeners []Listener
}

func NewService(es store.EventStoreInterface, logger *zap.Logger) *Service {
	return &Service{
		eventStore: es,
		logger:     logger.Named("cart"),
		sessions:   make(map[string]*session),
	}
}

// Subscribe registers a listener for cart changes
func (s *Service) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Service) session(owner string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[owner]
	if !ok {
		sess = &session{}
		s.sessions[owner] = sess
	}
	return sess
}

// lock returns the owner's session locked, rebuilding its store from the journal on first use
func (s *Service) lock(ctx context.Context, owner string) (*session, error) {
	if owner == "" {
		return nil, ErrInvalidOwner
	}
	sess := s.session(owner)
	sess.mu.Lock()
	if sess.store != nil {
		return sess, nil
	}

	cartID := CartID(owner)
	st, _, err := aggregate.LoadAggregate(ctx, s.eventStore, cartID, func() *Store { return NewStore(cartID) })
	if err != nil {
		sess.mu.Unlock()
		return nil, fmt.Errorf("load cart %s: %w", cartID, err)
	}
	sess.store = st
	return sess, nil
}

// record appends the event, applies it to the owner's store and notifies listeners
func (s *Service) record(ctx context.Context, sess *session, owner, eventType string, data any, productID string) (Ack, error) {
	cartID := CartID(owner)
	event, err := s.eventStore.Append(ctx, cartID, AggregateType, eventType, data)
	if err != nil {
		return AckNone, err
	}

	ack, err := sess.store.apply(*event)
	if err != nil {
		return AckNone, err
	}

	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, sess.store, AggregateType); err != nil {
		s.logger.Warn("snapshot failed", zap.String("cart_id", cartID), zap.Error(err))
	}

	s.logger.Debug("cart changed",
		zap.String("cart_id", cartID),
		zap.String("event", eventType),
		zap.String("ack", string(ack)),
		zap.Int("version", event.Version),
	)

	if ack != AckNone {
		s.notify(ctx, Change{
			Owner:      owner,
			Ack:        ack,
			Message:    ack.Message(),
			ProductID:  productID,
			TotalItems: sess.store.TotalItems(),
			TotalPrice: sess.store.TotalPrice(),
		})
	}
	return ack, nil
}

func (s *Service) notify(ctx context.Context, change Change) {
	s.mu.Lock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l.CartChanged(ctx, change)
	}
}

// Cart returns the owner's cart, empty when nothing was journaled yet
func (s *Service) Cart(ctx context.Context, owner string) (*View, error) {
	sess, err := s.lock(ctx, owner)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	return &View{
		CartID:     CartID(owner),
		Owner:      owner,
		Items:      sess.store.Items(),
		TotalItems: sess.store.TotalItems(),
		TotalPrice: sess.store.TotalPrice(),
	}, nil
}

// AddItem adds quantity of p with the chosen size and color, merging into an existing line
func (s *Service) AddItem(ctx context.Context, owner string, p product.Product, quantity int, size, color string) (Ack, error) {
	if p.ID == "" {
		return AckNone, ErrInvalidProduct
	}
	if quantity < 1 {
		return AckNone, ErrInvalidQuantity
	}

	sess, err := s.lock(ctx, owner)
	if err != nil {
		return AckNone, err
	}
	defer sess.mu.Unlock()

	return s.record(ctx, sess, owner, EventItemAdded, ItemAddedToCart{
		CartID:        CartID(owner),
		Owner:         owner,
		Product:       p,
		Quantity:      quantity,
		SelectedSize:  size,
		SelectedColor: color,
		AddedAt:       time.Now(),
	}, p.ID)
}

// UpdateQuantity sets a line's quantity exactly; quantity <= 0 removes it.
// Nothing is journaled when the product is not in the cart.
func (s *Service) UpdateQuantity(ctx context.Context, owner, productID string, quantity int) (Ack, error) {
	if productID == "" {
		return AckNone, ErrInvalidProduct
	}

	sess, err := s.lock(ctx, owner)
	if err != nil {
		return AckNone, err
	}
	defer sess.mu.Unlock()

	if !sess.store.Contains(productID) {
		return AckNone, nil
	}
	return s.record(ctx, sess, owner, EventQuantityUpdated, CartItemQuantityUpdated{
		CartID:    CartID(owner),
		Owner:     owner,
		ProductID: productID,
		Quantity:  quantity,
		UpdatedAt: time.Now(),
	}, productID)
}

// RemoveItem deletes a line. Nothing is journaled when the product is not in the cart.
func (s *Service) RemoveItem(ctx context.Context, owner, productID string) (Ack, error) {
	if productID == "" {
		return AckNone, ErrInvalidProduct
	}

	sess, err := s.lock(ctx, owner)
	if err != nil {
		return AckNone, err
	}
	defer sess.mu.Unlock()

	if !sess.store.Contains(productID) {
		return AckNone, nil
	}
	return s.record(ctx, sess, owner, EventItemRemoved, ItemRemovedFromCart{
		CartID:    CartID(owner),
		Owner:     owner,
		ProductID: productID,
		RemovedAt: time.Now(),
	}, productID)
}

// Clear empties the cart unconditionally
func (s *Service) Clear(ctx context.Context, owner string) error {
	sess, err := s.lock(ctx, owner)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()

	_, err = s.record(ctx, sess, owner, EventCartCleared, CartCleared{
		CartID:    CartID(owner),
		Owner:     owner,
		ClearedAt: time.Now(),
	}, "")
	return err
}

// Drain hands the owner's items to fn and clears the cart, holding the owner's lock throughout
// so no concurrent mutation lands between the read and the clear. The cart is left untouched
// when fn fails. An empty cart is passed to fn but nothing is journaled for it.
func (s *Service) Drain(ctx context.Context, owner string, fn func(items []Item) error) error {
	sess, err := s.lock(ctx, owner)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()

	items := sess.store.Items()
	if err := fn(items); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	_, err = s.record(ctx, sess, owner, EventCartCleared, CartCleared{
		CartID:    CartID(owner),
		Owner:     owner,
		ClearedAt: time.Now(),
	}, "")
	return err
}

// Merge folds the from cart into the to cart with add semantics and then clears from.
// It is used when an anonymous shopper signs in. The from cart stays locked until it is cleared.
func (s *Service) Merge(ctx context.Context, from, to string) error {
	if from == to {
		return nil
	}
	return s.Drain(ctx, from, func(items []Item) error {
		for _, item := range items {
			if _, err := s.AddItem(ctx, to, item.Product, item.Quantity, item.SelectedSize, item.SelectedColor); err != nil {
				return fmt.Errorf("merge %s into %s: %w", from, to, err)
			}
		}
		return nil
	})
}
