package query

import (
	"context"
	"sort"

	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/readmodel"
)

type Handler struct {
	catalog   *catalog.Catalog
	cartSvc   *cart.Service
	readStore store.ReadStoreInterface
	pageSize  int
}

func NewHandler(c *catalog.Catalog, cartSvc *cart.Service, readStore store.ReadStoreInterface, pageSize int) *Handler {
	if pageSize < 1 {
		pageSize = catalog.DefaultPageSize
	}
	return &Handler{
		catalog:   c,
		cartSvc:   cartSvc,
		readStore: readStore,
		pageSize:  pageSize,
	}
}

// Products

// Browse lists a category page. A zero page or page size falls back to the first page and the default size.
func (h *Handler) Browse(q catalog.BrowseQuery) catalog.Page {
	q.Page, q.PageSize = h.defaults(q.Page, q.PageSize)
	return catalog.Browse(h.catalog.All(), q)
}

// Search runs a free-text search grouped by category
func (h *Handler) Search(q catalog.SearchQuery) catalog.SearchResult {
	q.Page, q.PageSize = h.defaults(q.Page, q.PageSize)
	return catalog.Search(h.catalog.All(), q)
}

func (h *Handler) GetProduct(id string) (product.Product, error) {
	return h.catalog.Get(id)
}

// Products returns the whole catalog in catalog order
func (h *Handler) Products() []product.Product {
	return h.catalog.All()
}

func (h *Handler) defaults(page, size int) (int, int) {
	if page == 0 {
		page = 1
	}
	if size == 0 {
		size = h.pageSize
	}
	return page, size
}

// Cart
func (h *Handler) GetCart(ctx context.Context, owner string) (*cart.View, error) {
	return h.cartSvc.Cart(ctx, owner)
}

// Orders

// ListOrders returns the owner's orders, newest first
func (h *Handler) ListOrders(owner string) []*readmodel.OrderReadModel {
	var orders []*readmodel.OrderReadModel
	for _, item := range h.readStore.GetAll(readmodel.Orders) {
		o := item.(*readmodel.OrderReadModel)
		if o.Owner == owner {
			orders = append(orders, o)
		}
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}

func (h *Handler) GetOrder(owner, id string) (*readmodel.OrderReadModel, bool) {
	data, ok := h.readStore.Get(readmodel.Orders, id)
	if !ok {
		return nil, false
	}
	o := data.(*readmodel.OrderReadModel)
	if o.Owner != owner {
		return nil, false
	}
	return o, true
}
