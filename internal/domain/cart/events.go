package cart

import (
	"time"

	"github.com/example/storefront/internal/domain/product"
)

const (
	EventItemAdded       = "ItemAddedToCart"
	EventQuantityUpdated = "CartItemQuantityUpdated"
	EventItemRemoved     = "ItemRemovedFromCart"
	EventCartCleared     = "CartCleared"
)

// ItemAddedToCart carries the whole product so a journal replay does not depend on the catalog
type ItemAddedToCart struct {
	CartID        string          `json:"cart_id"`
	Owner         string          `json:"owner"`
	Product       product.Product `json:"product"`
	Quantity      int             `json:"quantity"`
	SelectedSize  string          `json:"selected_size,omitempty"`
	SelectedColor string          `json:"selected_color,omitempty"`
	AddedAt       time.Time       `json:"added_at"`
}

type CartItemQuantityUpdated struct {
	CartID    string    `json:"cart_id"`
	Owner     string    `json:"owner"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ItemRemovedFromCart struct {
	CartID    string    `json:"cart_id"`
	Owner     string    `json:"owner"`
	ProductID string    `json:"product_id"`
	RemovedAt time.Time `json:"removed_at"`
}

type CartCleared struct {
	CartID    string    `json:"cart_id"`
	Owner     string    `json:"owner"`
	ClearedAt time.Time `json:"cleared_at"`
}
