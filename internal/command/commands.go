package command

import "github.com/example/storefront/internal/domain/order"

// Cart Commands
type AddToCart struct {
	Owner     string `json:"-"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

type UpdateCartItem struct {
	Owner     string `json:"-"`
	ProductID string `json:"-"`
	Quantity  int    `json:"quantity"`
}

type RemoveFromCart struct {
	Owner     string
	ProductID string
}

type ClearCart struct {
	Owner string
}

// Order Commands
type Checkout struct {
	Owner string
	Form  order.CheckoutForm
}
