package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/command"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/export"
	"github.com/example/storefront/internal/query"
	"github.com/example/storefront/internal/readmodel"
	"github.com/example/storefront/internal/realtime"
	"go.uber.org/zap"
)

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	hub          *realtime.Hub
	logger       *zap.Logger
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, hub *realtime.Hub, logger *zap.Logger) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		hub:          hub,
		logger:       logger.Named("api"),
	}
}

// Product Handlers

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	var q catalog.BrowseQuery
	if c := params.Get("category"); c != "" {
		category, err := product.ParseCategory(c)
		if err != nil {
			respondJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		q.Category = category
	}
	if err := parseListing(params.Get, &q.Band, &q.Sort, &q.Page, &q.PageSize); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	respondJSON(w, http.StatusOK, h.queryHandler.Browse(q))
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")
	p, err := h.queryHandler.GetProduct(id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) ExportProducts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Disposition", "attachment; filename=products.xlsx")
	w.Header().Set("Content-Type", export.ContentType)
	if err := export.WriteCatalog(w, h.queryHandler.Products()); err != nil {
		h.logger.Error("export catalog", zap.Error(err))
	}
}

func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := catalog.SearchQuery{Text: params.Get("q")}
	if err := parseListing(params.Get, &q.Band, &q.Sort, &q.Page, &q.PageSize); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	respondJSON(w, http.StatusOK, h.queryHandler.Search(q))
}

// Cart Handlers

// CartResponse acknowledges a cart mutation and carries the updated cart
type CartResponse struct {
	Ack     cart.Ack   `json:"ack"`
	Message string     `json:"message,omitempty"`
	Cart    *cart.View `json:"cart"`
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.queryHandler.GetCart(r.Context(), middleware.GetCartOwner(r.Context()))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var cmd command.AddToCart
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cmd.Owner = middleware.GetCartOwner(r.Context())

	ack, err := h.cmdHandler.AddToCart(r.Context(), cmd)
	h.respondCart(w, r, ack, err)
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var cmd command.UpdateCartItem
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cmd.Owner = middleware.GetCartOwner(r.Context())
	cmd.ProductID = extractPathParam(r.URL.Path, "/cart/items/")

	ack, err := h.cmdHandler.UpdateCartItem(r.Context(), cmd)
	h.respondCart(w, r, ack, err)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	cmd := command.RemoveFromCart{
		Owner:     middleware.GetCartOwner(r.Context()),
		ProductID: extractPathParam(r.URL.Path, "/cart/items/"),
	}
	ack, err := h.cmdHandler.RemoveFromCart(r.Context(), cmd)
	h.respondCart(w, r, ack, err)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	err := h.cmdHandler.ClearCart(r.Context(), command.ClearCart{Owner: middleware.GetCartOwner(r.Context())})
	h.respondCart(w, r, cart.AckCleared, err)
}

func (h *Handlers) respondCart(w http.ResponseWriter, r *http.Request, ack cart.Ack, err error) {
	if err != nil {
		h.respondError(w, err)
		return
	}
	view, err := h.queryHandler.GetCart(r.Context(), middleware.GetCartOwner(r.Context()))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, CartResponse{Ack: ack, Message: ack.Message(), Cart: view})
}

// CartSocket streams cart acknowledgments for the current owner
func (h *Handlers) CartSocket(w http.ResponseWriter, r *http.Request) {
	h.hub.Serve(w, r, middleware.GetCartOwner(r.Context()))
}

// Order Handlers

func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	var form order.CheckoutForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.cmdHandler.Checkout(r.Context(), command.Checkout{
		Owner: middleware.GetCartOwner(r.Context()),
		Form:  form,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, o)
}

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders := h.queryHandler.ListOrders(middleware.GetCartOwner(r.Context()))
	if orders == nil {
		orders = []*readmodel.OrderReadModel{}
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/orders/")
	o, ok := h.queryHandler.GetOrder(middleware.GetCartOwner(r.Context()), id)
	if !ok {
		respondJSONError(w, order.ErrOrderNotFound.Error(), http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// Helper functions

// parseListing reads the price, sort, page and page_size parameters shared by browse and search
func parseListing(get func(string) string, band *catalog.PriceBand, sort *catalog.SortKey, page, pageSize *int) error {
	var err error
	if *band, err = catalog.ParsePriceBand(get("price")); err != nil {
		return err
	}
	if *sort, err = catalog.ParseSortKey(get("sort")); err != nil {
		return err
	}
	if *page, err = parseInt(get("page"), "page"); err != nil {
		return err
	}
	if *pageSize, err = parseInt(get("page_size"), "page_size"); err != nil {
		return err
	}
	return nil
}

func parseInt(s, name string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, s)
	}
	return n, nil
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var verr *order.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, command.ErrOutOfStock),
		errors.Is(err, command.ErrSizeRequired),
		errors.Is(err, command.ErrUnknownSize),
		errors.Is(err, command.ErrUnknownColor),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidProduct),
		errors.Is(err, order.ErrEmptyOrder):
		return http.StatusBadRequest
	}
	if status, ok := authStatus(err); ok {
		return status
	}
	return http.StatusInternalServerError
}

func (h *Handlers) respondError(w http.ResponseWriter, err error) {
	respondDomainError(w, h.logger, err)
}

func respondDomainError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		respondJSONError(w, "internal server error", status)
		return
	}

	var verr *order.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, status, verr)
		return
	}
	respondJSONError(w, userMessage(err), status)
}

// userMessage is the text the storefront shows for a rejected request
func userMessage(err error) string {
	if errors.Is(err, command.ErrSizeRequired) {
		return "Please select a size"
	}
	return err.Error()
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

func extractPathParam(path, prefix string) string {
	return strings.TrimSuffix(strings.TrimPrefix(path, prefix), "/")
}
