package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/swiftserve/internal/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Deps struct {
	Carts    CartService
	Bookings BookingService

	// Health reports store reachability; nil means always healthy.
	Health func(ctx context.Context) error

	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	CORSAllowOrigins   []string
	JWTSecret          string
}

func NewRouter(d Deps) http.Handler {
	cartHandler := NewCartHandler(d.Carts, d.RequestTimeout)
	bookingHandler := NewBookingHandler(d.Bookings, d.RequestTimeout)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Timeout(d.RequestTimeout))
	if d.MaxRequestBodySize > 0 {
		r.Use(middleware.RequestSize(d.MaxRequestBodySize))
	}

	r.Get("/health", health(d.Health))

	r.Group(func(r chi.Router) {
		r.Use(IdentityMiddleware(d.JWTSecret))

		r.Route("/cart", func(r chi.Router) {
			r.Post("/add", cartHandler.AddItem)
			r.Get("/{userId}", cartHandler.GetCart)
			r.Delete("/remove/{userId}", cartHandler.RemoveItem)
			r.Delete("/clear/{userId}", cartHandler.ClearCart)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/book", bookingHandler.Book)
			r.Post("/checkout", bookingHandler.Checkout)
			r.Get("/user/{userId}", bookingHandler.UserBookings)
			r.Get("/vendor/{vendorId}/slot", bookingHandler.SlotStatus)
			r.Patch("/{id}/confirm", bookingHandler.Confirm)
			r.Patch("/{id}/cancel", bookingHandler.Cancel)
		})
	})

	return otelhttp.NewHandler(r, "swiftserve",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}))
}

func health(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				logger.FromContext(ctx).Warn("health check failed", "error", err)
				respondJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.FromContext(r.Context()).Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds())
	})
}
