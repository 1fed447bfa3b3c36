package cart

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/shopspring/decimal"
)

// Ack is the acknowledgment a cart mutation produces for the shopper
type Ack string

const (
	AckNone            Ack = ""
	AckAdded           Ack = "added"
	AckQuantityUpdated Ack = "quantity_updated"
	AckRemoved         Ack = "removed"
	AckCleared         Ack = "cleared"
)

func (a Ack) Message() string {
	switch a {
	case AckAdded:
		return "Added to cart!"
	case AckQuantityUpdated:
		return "Updated cart quantity"
	case AckRemoved:
		return "Removed from cart"
	case AckCleared:
		return "Cart cleared"
	default:
		return ""
	}
}

// Item is a product copied into the cart with its quantity and chosen options
type Item struct {
	product.Product
	Quantity      int    `json:"quantity"`
	SelectedSize  string `json:"selectedSize,omitempty"`
	SelectedColor string `json:"selectedColor,omitempty"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Store holds the line items of one cart. It keeps at most one item per product id,
// in insertion order, each with quantity >= 1.
type Store struct {
	mu      sync.RWMutex
	id      string
	items   []Item
	version int
}

func NewStore(id string) *Store {
	return &Store{id: id}
}

// Add merges quantity into an existing item or appends a new one.
// A quantity below 1 counts as 1. Stock is not checked here.
func (s *Store) Add(p product.Product, quantity int) Ack {
	return s.AddItem(Item{Product: p, Quantity: quantity})
}

// AddItem is Add with the size and color chosen on the product card.
// When the product is already in the cart only its quantity changes.
func (s *Store) AddItem(item Item) Ack {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(item)
}

func (s *Store) add(item Item) Ack {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if i := s.indexOf(item.ID); i >= 0 {
		s.items[i].Quantity += item.Quantity
		return AckQuantityUpdated
	}
	item.Product = item.Product.Clone()
	s.items = append(s.items, item)
	return AckAdded
}

// Remove deletes the item with productID and reports whether it was present
func (s *Store) Remove(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(productID)
}

func (s *Store) remove(productID string) bool {
	i := s.indexOf(productID)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

// UpdateQuantity sets the quantity exactly; quantity <= 0 removes the item.
// It reports whether an item was present.
func (s *Store) UpdateQuantity(productID string, quantity int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateQuantity(productID, quantity)
}

func (s *Store) updateQuantity(productID string, quantity int) bool {
	if quantity <= 0 {
		return s.remove(productID)
	}
	i := s.indexOf(productID)
	if i < 0 {
		return false
	}
	s.items[i].Quantity = quantity
	return true
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

func (s *Store) Contains(productID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(productID) >= 0
}

// Items returns a copy of the line items
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, len(s.items))
	for i, item := range s.items {
		item.Product = item.Product.Clone()
		out[i] = item
	}
	return out
}

// TotalPrice is the sum of price * quantity
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// TotalItems is the sum of quantities, not the number of distinct products
func (s *Store) TotalItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, item := range s.items {
		n += item.Quantity
	}
	return n
}

func (s *Store) indexOf(productID string) int {
	for i, item := range s.items {
		if item.ID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) GetID() string { return s.id }

func (s *Store) GetVersion() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) SetVersion(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = v
}

// ApplyEvent folds a journaled cart event into the store
func (s *Store) ApplyEvent(event store.Event) error {
	_, err := s.apply(event)
	return err
}

// apply returns the acknowledgment the event produced, AckNone for a no-op
func (s *Store) apply(event store.Event) (Ack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ack := AckNone
	switch event.EventType {
	case EventItemAdded:
		var e ItemAddedToCart
		if err := event.Decode(&e); err != nil {
			return AckNone, err
		}
		ack = s.add(Item{
			Product:       e.Product,
			Quantity:      e.Quantity,
			SelectedSize:  e.SelectedSize,
			SelectedColor: e.SelectedColor,
		})
	case EventQuantityUpdated:
		var e CartItemQuantityUpdated
		if err := event.Decode(&e); err != nil {
			return AckNone, err
		}
		if s.updateQuantity(e.ProductID, e.Quantity) {
			ack = AckQuantityUpdated
			if e.Quantity <= 0 {
				ack = AckRemoved
			}
		}
	case EventItemRemoved:
		var e ItemRemovedFromCart
		if err := event.Decode(&e); err != nil {
			return AckNone, err
		}
		if s.remove(e.ProductID) {
			ack = AckRemoved
		}
	case EventCartCleared:
		s.items = nil
		ack = AckCleared
	default:
		return AckNone, fmt.Errorf("unknown cart event %q", event.EventType)
	}
	s.version = event.Version
	return ack, nil
}

type storeState struct {
	ID      string `json:"id"`
	Items   []Item `json:"items"`
	Version int    `json:"version"`
}

func (s *Store) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(storeState{ID: s.id, Items: s.items, Version: s.version})
}

func (s *Store) UnmarshalJSON(data []byte) error {
	var state storeState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id, s.items, s.version = state.ID, state.Items, state.Version
	return nil
}
