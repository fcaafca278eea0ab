// Package router sets up all HTTP routes and middleware chains for the
// shopadmin API. Routes are grouped by the authentication they require.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"shopadmin/internal/handlers"
	"shopadmin/internal/middleware"
)

// Options carries the settings that shape the middleware chain.
type Options struct {
	// SecureCookies marks the CSRF cookie Secure.
	SecureCookies bool
	// LoginLimiter throttles login attempts per client IP. Nil disables it.
	LoginLimiter *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessions middleware.SessionGetter, admin *handlers.Admin, auth *handlers.Auth, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check: no session, no CSRF.
	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.LoadSession(sessions))
		r.Use(middleware.NewCSRF(opts.SecureCookies))
		r.NotFound(notFound)
		r.MethodNotAllowed(methodNotAllowed)

		// Auth endpoints accessible without a session.
		r.Route("/auth", func(r chi.Router) {
			r.Get("/csrf", auth.CSRFToken)
			r.Group(func(r chi.Router) {
				if opts.LoginLimiter != nil {
					r.Use(opts.LoginLimiter.Middleware)
				}
				r.Post("/login", auth.Login)
			})
			r.Post("/logout", auth.Logout)

			// 2FA requires a session but NOT completed 2FA.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Get("/me", auth.Me)
				r.Get("/2fa/setup", auth.TwoFASetup)
				r.Post("/2fa/verify", auth.TwoFAVerify)
			})
		})

		// Authenticated + 2FA-verified admin area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", admin.CategoriesList)
				r.Post("/", admin.CategoryCreate)
				r.Get("/tree", admin.CategoriesTree)
				r.Get("/parent-options", admin.CategoryParentOptions)
				r.Get("/{id}", admin.CategoryGet)
				r.Put("/{id}", admin.CategoryUpdate)
				r.Delete("/{id}", admin.CategoryDelete)
				r.Get("/{id}/parent-options", admin.CategoryParentOptions)
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", admin.ProductsList)
				r.Post("/", admin.ProductCreate)
				r.Get("/{id}", admin.ProductGet)
				r.Put("/{id}", admin.ProductUpdate)
				r.Delete("/{id}", admin.ProductDelete)
				r.Put("/{id}/images", admin.ProductImagesSync)
			})

			r.Post("/uploads", admin.Upload)
			r.Delete("/uploads", admin.UploadDelete)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", admin.OrdersList)
				r.Get("/{id}", admin.OrderGet)
			})

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", admin.SettingsGet)
				// Storefront-wide changes are admin only.
				r.With(middleware.RequireAdmin).Put("/main-image", admin.SettingsMainImage)
			})

			// Account management is admin only.
			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/", admin.UsersList)
				r.Post("/", admin.UserCreate)
				r.Post("/{id}/reset-2fa", admin.UserResetTwoFA)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"not found"}`))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	w.Write([]byte(`{"error":"method not allowed"}`))
}
