package readmodel

import (
	"time"

	"github.com/shopspring/decimal"
)

// Collection names in the read store
const (
	Orders = "orders"
)

// OrderItemReadModel represents an item in an order
type OrderItemReadModel struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	SelectedSize  string          `json:"selected_size,omitempty"`
	SelectedColor string          `json:"selected_color,omitempty"`
}

// OrderReadModel is the read model for order history
type OrderReadModel struct {
	ID            string               `json:"id"`
	Owner         string               `json:"owner"`
	Email         string               `json:"email"`
	Items         []OrderItemReadModel `json:"items"`
	ItemCount     int                  `json:"item_count"`
	Total         decimal.Decimal      `json:"total"`
	ShipTo        string               `json:"ship_to"`
	City          string               `json:"city"`
	PaymentMethod string               `json:"payment_method"`
	Status        string               `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
}
