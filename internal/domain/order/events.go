package order

import (
	"time"

	"github.com/shopspring/decimal"
)

const EventOrderPlaced = "OrderPlaced"

type Item struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	SelectedSize  string          `json:"selected_size,omitempty"`
	SelectedColor string          `json:"selected_color,omitempty"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Shipping struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

type Payment struct {
	Method     PaymentMethod `json:"method"`
	MpesaPhone string        `json:"mpesa_phone,omitempty"`
	CardLast4  string        `json:"card_last4,omitempty"`
}

type OrderPlaced struct {
	OrderID  string          `json:"order_id"`
	Owner    string          `json:"owner"`
	Email    string          `json:"email"`
	Items    []Item          `json:"items"`
	Total    decimal.Decimal `json:"total"`
	Shipping Shipping        `json:"shipping"`
	Payment  Payment         `json:"payment"`
	PlacedAt time.Time       `json:"placed_at"`
}
