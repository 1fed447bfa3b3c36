package command

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
	"go.uber.org/zap"
)

var (
	ErrProductNotFound = catalog.ErrProductNotFound
	ErrOutOfStock      = errors.New("product is out of stock")
	ErrSizeRequired    = errors.New("size is required")
	ErrUnknownSize     = errors.New("size is not available for this product")
	ErrUnknownColor    = errors.New("color is not available for this product")
)

// ProductLookup resolves catalog products by id
type ProductLookup interface {
	Get(id string) (product.Product, error)
}

type Handler struct {
	products ProductLookup
	cartSvc  *cart.Service
	orderSvc *order.Service
	logger   *zap.Logger
}

func NewHandler(products ProductLookup, cartSvc *cart.Service, orderSvc *order.Service, logger *zap.Logger) *Handler {
	return &Handler{
		products: products,
		cartSvc:  cartSvc,
		orderSvc: orderSvc,
		logger:   logger.Named("command"),
	}
}

// AddToCart checks the product card preconditions and adds the item
func (h *Handler) AddToCart(ctx context.Context, cmd AddToCart) (cart.Ack, error) {
	p, err := h.products.Get(cmd.ProductID)
	if err != nil {
		return cart.AckNone, err
	}
	if !p.InStock {
		return cart.AckNone, ErrOutOfStock
	}
	if len(p.Sizes) > 0 {
		if cmd.Size == "" {
			return cart.AckNone, ErrSizeRequired
		}
		if !p.HasSize(cmd.Size) {
			return cart.AckNone, fmt.Errorf("%w: %s", ErrUnknownSize, cmd.Size)
		}
	} else if cmd.Size != "" {
		return cart.AckNone, fmt.Errorf("%w: %s", ErrUnknownSize, cmd.Size)
	}
	if cmd.Color != "" && !slices.Contains(p.Colors, cmd.Color) {
		return cart.AckNone, fmt.Errorf("%w: %s", ErrUnknownColor, cmd.Color)
	}

	quantity := cmd.Quantity
	if quantity == 0 {
		quantity = 1
	}
	return h.cartSvc.AddItem(ctx, cmd.Owner, p, quantity, cmd.Size, cmd.Color)
}

// UpdateCartItem sets the quantity of a line; zero or less removes it
func (h *Handler) UpdateCartItem(ctx context.Context, cmd UpdateCartItem) (cart.Ack, error) {
	return h.cartSvc.UpdateQuantity(ctx, cmd.Owner, cmd.ProductID, cmd.Quantity)
}

// RemoveFromCart removes an item from cart
func (h *Handler) RemoveFromCart(ctx context.Context, cmd RemoveFromCart) (cart.Ack, error) {
	return h.cartSvc.RemoveItem(ctx, cmd.Owner, cmd.ProductID)
}

// ClearCart clears all items from cart
func (h *Handler) ClearCart(ctx context.Context, cmd ClearCart) error {
	return h.cartSvc.Clear(ctx, cmd.Owner)
}

// Checkout places a mock order for the cart contents and empties the cart in one step
func (h *Handler) Checkout(ctx context.Context, cmd Checkout) (*order.Order, error) {
	var placed *order.Order
	err := h.cartSvc.Drain(ctx, cmd.Owner, func(cartItems []cart.Item) error {
		items := make([]order.Item, 0, len(cartItems))
		for _, item := range cartItems {
			items = append(items, order.Item{
				ProductID:     item.ID,
				Name:          item.Name,
				Price:         item.Price,
				Quantity:      item.Quantity,
				SelectedSize:  item.SelectedSize,
				SelectedColor: item.SelectedColor,
			})
		}

		o, err := h.orderSvc.Place(ctx, cmd.Owner, items, cmd.Form)
		if err != nil {
			return err
		}
		placed = o
		return nil
	})
	if err != nil {
		if placed != nil {
			return nil, fmt.Errorf("clear cart after order %s: %w", placed.ID, err)
		}
		return nil, err
	}

	h.logger.Info("order placed",
		zap.String("order_id", placed.ID),
		zap.String("owner", cmd.Owner),
		zap.String("total", placed.Total.StringFixed(2)),
	)
	return placed, nil
}
