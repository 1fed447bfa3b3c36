package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/command"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/projection"
	"github.com/example/storefront/internal/query"
	"github.com/example/storefront/internal/readmodel"
	"github.com/example/storefront/internal/realtime"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	*httptest.Server
	hub *realtime.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()

	readStore := store.NewReadStore()
	eventStore := store.NewEventStore(projection.NewProjector(readStore, logger))

	cartSvc := cart.NewService(eventStore, logger)
	hub := realtime.NewHub(logger)
	cartSvc.Subscribe(hub)
	orderSvc := order.NewService(eventStore)

	products := catalog.Default()
	cmdHandler := command.NewHandler(products, cartSvc, orderSvc, logger)
	queryHandler := query.NewHandler(products, cartSvc, readStore, 0)

	authenticator := auth.NewMockAuthenticator(
		auth.NewJWTService("router-test-secret-0123456789abcdef", 15*time.Minute),
		logger,
		auth.WithBcryptCost(bcrypt.MinCost),
		auth.WithResetDelay(0),
	)

	router := NewRouter(
		NewHandlers(cmdHandler, queryHandler, hub, logger),
		NewAuthHandlers(authenticator, cartSvc, logger),
		authenticator,
		logger,
		"",
	)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testServer{Server: server, hub: hub}
}

// client is a browser stand-in that keeps cookies between requests
type client struct {
	t    *testing.T
	base string
	http *http.Client
	jar  http.CookieJar
}

func (s *testServer) client(t *testing.T) *client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: s.URL, http: &http.Client{Jar: jar}, jar: jar}
}

func (c *client) do(method, path string, body any) *http.Response {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (c *client) cookie(name string) string {
	u, _ := url.Parse(c.base)
	for _, cookie := range c.jar.Cookies(u) {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// ============================================
// Product Tests
// ============================================

func TestRouter_GetProducts(t *testing.T) {
	c := newTestServer(t).client(t)

	resp := c.do(http.MethodGet, "/products?category=shoes&sort=price-high", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	page := decode[catalog.Page](t, resp)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "shoe-2", page.Items[0].ID)
	assert.Equal(t, "shoe-1", page.Items[2].ID)
}

func TestRouter_GetProducts_Paging(t *testing.T) {
	c := newTestServer(t).client(t)

	page := decode[catalog.Page](t, c.do(http.MethodGet, "/products?page=2&page_size=5", nil))
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 5)

	page = decode[catalog.Page](t, c.do(http.MethodGet, "/products?page=4&page_size=5", nil))
	assert.Empty(t, page.Items)
}

func TestRouter_GetProducts_BadParams(t *testing.T) {
	c := newTestServer(t).client(t)

	for _, path := range []string{
		"/products?category=hats",
		"/products?price=cheap",
		"/products?sort=random",
		"/products?page=two",
	} {
		resp := c.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}
}

func TestRouter_GetProduct(t *testing.T) {
	c := newTestServer(t).client(t)

	resp := c.do(http.MethodGet, "/products/acc-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "Luxury Watch", body["name"])
	assert.Equal(t, "299.99", body["price"])

	resp = c.do(http.MethodGet, "/products/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_ExportProducts(t *testing.T) {
	c := newTestServer(t).client(t)

	resp := c.do(http.MethodGet, "/products/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	file, err := xlsx.OpenBinary(data)
	require.NoError(t, err)
	assert.Equal(t, 13, file.Sheets[0].MaxRow)
}

func TestRouter_Search(t *testing.T) {
	c := newTestServer(t).client(t)

	resp := c.do(http.MethodGet, "/search?q=gold", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decode[catalog.SearchResult](t, resp)
	assert.Equal(t, "gold", result.Query)
	require.Len(t, result.Groups, 2)
	assert.Equal(t, "Bags", result.Groups[0].Label)

	result = decode[catalog.SearchResult](t, c.do(http.MethodGet, "/search?q=", nil))
	assert.Empty(t, result.Groups)
	assert.Zero(t, result.Page.Total)
}

// ============================================
// Cart Tests
// ============================================

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Please select a size", userMessage(fmt.Errorf("add shoe-1: %w", command.ErrSizeRequired)))
	assert.Equal(t, "product is out of stock", userMessage(command.ErrOutOfStock))
}

func TestRouter_CartFlow(t *testing.T) {
	c := newTestServer(t).client(t)

	resp := c.do(http.MethodPost, "/cart/items", map[string]any{"productId": "shoe-1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Please select a size", decode[map[string]string](t, resp)["error"])

	resp = c.do(http.MethodPost, "/cart/items", map[string]any{"productId": "shoe-1", "size": "38", "color": "Pink"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	added := decode[CartResponse](t, resp)
	assert.Equal(t, cart.AckAdded, added.Ack)
	assert.Equal(t, "Added to cart!", added.Message)
	assert.Equal(t, 1, added.Cart.TotalItems)
	assert.NotEmpty(t, c.cookie(middleware.CartSessionCookie))

	again := decode[CartResponse](t, c.do(http.MethodPost, "/cart/items", map[string]any{"productId": "shoe-1", "size": "38"}))
	assert.Equal(t, cart.AckQuantityUpdated, again.Ack)
	assert.Equal(t, "Updated cart quantity", again.Message)
	assert.Equal(t, 2, again.Cart.TotalItems)

	updated := decode[CartResponse](t, c.do(http.MethodPatch, "/cart/items/shoe-1", map[string]any{"quantity": 5}))
	assert.Equal(t, 5, updated.Cart.TotalItems)
	assert.Equal(t, "449.95", updated.Cart.TotalPrice.StringFixed(2))

	removed := decode[CartResponse](t, c.do(http.MethodDelete, "/cart/items/shoe-1", nil))
	assert.Equal(t, cart.AckRemoved, removed.Ack)
	assert.Empty(t, removed.Cart.Items)

	noop := decode[CartResponse](t, c.do(http.MethodDelete, "/cart/items/shoe-1", nil))
	assert.Equal(t, cart.AckNone, noop.Ack)
	assert.Empty(t, noop.Message)

	decode[CartResponse](t, c.do(http.MethodPost, "/cart/items", map[string]any{"productId": "bag-1", "quantity": 2}))
	cleared := decode[CartResponse](t, c.do(http.MethodDelete, "/cart", nil))
	assert.Equal(t, cart.AckCleared, cleared.Ack)
	assert.Zero(t, cleared.Cart.TotalItems)
}

func TestRouter_CartsAreSeparatePerSession(t *testing.T) {
	server := newTestServer(t)
	alice, bob := server.client(t), server.client(t)

	alice.do(http.MethodPost, "/cart/items", map[string]any{"productId": "bag-2"})

	view := decode[cart.View](t, bob.do(http.MethodGet, "/cart", nil))
	assert.Empty(t, view.Items)
	view = decode[cart.View](t, alice.do(http.MethodGet, "/cart", nil))
	assert.Len(t, view.Items, 1)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	c := newTestServer(t).client(t)

	assert.Equal(t, http.StatusMethodNotAllowed, c.do(http.MethodPut, "/cart", nil).StatusCode)
	assert.Equal(t, http.StatusMethodNotAllowed, c.do(http.MethodPost, "/products", nil).StatusCode)
	assert.Equal(t, http.StatusMethodNotAllowed, c.do(http.MethodGet, "/auth/login", nil).StatusCode)
}

func TestRouter_CartSocket(t *testing.T) {
	server := newTestServer(t)
	c := server.client(t)
	c.do(http.MethodGet, "/cart", nil)
	owner := c.cookie(middleware.CartSessionCookie)
	require.NotEmpty(t, owner)

	dialer := websocket.Dialer{Jar: c.jar}
	conn, _, err := dialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return server.hub.Connections(owner) == 1 }, time.Second, 10*time.Millisecond)

	c.do(http.MethodPost, "/cart/items", map[string]any{"productId": "acc-2"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "cart", frame["type"])
	assert.Equal(t, "added", frame["ack"])
	assert.Equal(t, "acc-2", frame["product_id"])
	assert.EqualValues(t, 1, frame["total_items"])
}

// ============================================
// Checkout Tests
// ============================================

func checkoutForm() order.CheckoutForm {
	return order.CheckoutForm{
		FirstName:     "Jane",
		LastName:      "Doe",
		Email:         "jane@example.com",
		Phone:         "254712345678",
		Address:       "1 Moi Avenue",
		City:          "Nairobi",
		PostalCode:    "00100",
		PaymentMethod: order.PaymentCard,
		CardNumber:    "4242424242424242",
		Expiry:        "12/29",
		CVV:           "123",
	}
}

func TestRouter_Checkout(t *testing.T) {
	c := newTestServer(t).client(t)

	resp := c.do(http.MethodPost, "/checkout", checkoutForm())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	c.do(http.MethodPost, "/cart/items", map[string]any{"productId": "bag-1"})

	bad := checkoutForm()
	bad.CVV = "12"
	resp = c.do(http.MethodPost, "/checkout", bad)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	verr := decode[map[string]string](t, resp)
	assert.Equal(t, "cvv", verr["field"])
	assert.Equal(t, "Please enter a valid 3-digit CVV", verr["error"])

	resp = c.do(http.MethodPost, "/checkout", checkoutForm())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	placed := decode[order.Order](t, resp)
	assert.Equal(t, "4242", placed.Payment.CardLast4)
	assert.Equal(t, "249.99", placed.Total.StringFixed(2))

	view := decode[cart.View](t, c.do(http.MethodGet, "/cart", nil))
	assert.Empty(t, view.Items)

	orders := decode[[]readmodel.OrderReadModel](t, c.do(http.MethodGet, "/orders", nil))
	require.Len(t, orders, 1)
	assert.Equal(t, placed.ID, orders[0].ID)

	resp = c.do(http.MethodGet, "/orders/"+placed.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	other := newTestServer(t).client(t)
	assert.Equal(t, http.StatusNotFound, other.do(http.MethodGet, "/orders/"+placed.ID, nil).StatusCode)
}

func TestRouter_Orders_EmptyList(t *testing.T) {
	c := newTestServer(t).client(t)

	resp := c.do(http.MethodGet, "/orders", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(body))
}

// ============================================
// Auth Tests
// ============================================

func TestRouter_RegisterLoginLogout(t *testing.T) {
	server := newTestServer(t)
	c := server.client(t)

	resp := c.do(http.MethodPost, "/auth/register", RegisterRequest{Name: "J", Email: "jane@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = c.do(http.MethodPost, "/auth/register", RegisterRequest{Name: "Jane", Email: "jane@example.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	registered := decode[AuthResponse](t, resp)
	assert.NotEmpty(t, c.cookie(middleware.AccessTokenCookie))

	resp = c.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[auth.User](t, resp)
	assert.Equal(t, registered.User.ID, me.ID)

	resp = c.do(http.MethodPost, "/auth/register", RegisterRequest{Name: "Jane", Email: "JANE@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/logout", nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/auth/me", nil).StatusCode)

	other := server.client(t)
	resp = other.do(http.MethodPost, "/auth/login", LoginRequest{Email: "jane@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = other.do(http.MethodPost, "/auth/login", LoginRequest{Email: "jane@example.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, http.StatusOK, other.do(http.MethodGet, "/auth/me", nil).StatusCode)
}

func TestRouter_LoginMergesAnonymousCart(t *testing.T) {
	server := newTestServer(t)

	first := server.client(t)
	first.do(http.MethodPost, "/auth/register", RegisterRequest{Name: "Jane", Email: "jane@example.com", Password: "secret1"})
	first.do(http.MethodPost, "/cart/items", map[string]any{"productId": "bag-3", "quantity": 1})

	shopper := server.client(t)
	shopper.do(http.MethodPost, "/cart/items", map[string]any{"productId": "bag-3", "quantity": 2})
	shopper.do(http.MethodPost, "/cart/items", map[string]any{"productId": "acc-3"})

	resp := shopper.do(http.MethodPost, "/auth/login", LoginRequest{Email: "jane@example.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	view := decode[cart.View](t, shopper.do(http.MethodGet, "/cart", nil))
	require.Len(t, view.Items, 2)
	assert.Equal(t, "bag-3", view.Items[0].ID)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.Equal(t, 4, view.TotalItems)

	shared := decode[cart.View](t, first.do(http.MethodGet, "/cart", nil))
	assert.Equal(t, 4, shared.TotalItems)
}

func TestRouter_ForgotPassword(t *testing.T) {
	c := newTestServer(t).client(t)

	resp := c.do(http.MethodPost, "/auth/forgot-password", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = c.do(http.MethodPost, "/auth/forgot-password", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusFor_Unknown(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
	assert.Equal(t, http.StatusBadRequest, statusFor(command.ErrOutOfStock))
	assert.Equal(t, http.StatusConflict, statusFor(auth.ErrEmailTaken))
}
