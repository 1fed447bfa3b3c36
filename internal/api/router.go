package api

import (
	"net/http"

	"github.com/example/storefront/internal/api/middleware"
	"go.uber.org/zap"
)

func methodNotAllowed(w http.ResponseWriter) {
	respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
}

func NewRouter(handlers *Handlers, authHandlers *AuthHandlers, users middleware.UserResolver, logger *zap.Logger, webDir string) http.Handler {
	mux := http.NewServeMux()

	// Static files (web UI)
	if webDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(webDir)))
	}

	// Products
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetProducts(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		if extractPathParam(r.URL.Path, "/products/") == "export" {
			handlers.ExportProducts(w, r)
			return
		}
		handlers.GetProduct(w, r)
	})

	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.Search(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	// Cart
	mux.HandleFunc("/cart", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetCart(w, r)
		case http.MethodDelete:
			handlers.ClearCart(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/cart/items", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			handlers.AddToCart(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/cart/items/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch:
			handlers.UpdateCartItem(w, r)
		case http.MethodDelete:
			handlers.RemoveFromCart(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		handlers.CartSocket(w, r)
	})

	// Checkout and orders
	mux.HandleFunc("/checkout", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			handlers.Checkout(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetOrders(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/orders/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetOrder(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	// Auth
	post := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w)
				return
			}
			h(w, r)
		}
	}
	mux.HandleFunc("/auth/register", post(authHandlers.Register))
	mux.HandleFunc("/auth/login", post(authHandlers.Login))
	mux.HandleFunc("/auth/logout", post(authHandlers.Logout))
	mux.HandleFunc("/auth/forgot-password", post(authHandlers.ForgotPassword))
	mux.Handle("/auth/me", middleware.AuthMiddleware(users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		authHandlers.Me(w, r)
	})))

	var handler http.Handler = mux
	handler = middleware.CartSession(handler)
	handler = middleware.OptionalAuthMiddleware(users)(handler)
	handler = middleware.RequestLogger(logger)(handler)
	return handler
}
