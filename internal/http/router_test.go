package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-testing-purposes"

func signToken(t *testing.T, secret, userID string, ttl time.Duration) string {
	t.Helper()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newSecuredRouter(carts CartService, bookings BookingService) http.Handler {
	return NewRouter(Deps{
		Carts:          carts,
		Bookings:       bookings,
		RequestTimeout: 5 * time.Second,
		JWTSecret:      testSecret,
	})
}

func TestIdentity(t *testing.T) {
	valid := signToken(t, testSecret, "u1", time.Hour)

	tests := []struct {
		name       string
		path       string
		auth       string
		wantStatus int
	}{
		{name: "no token", path: "/cart/u1", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", path: "/cart/u1", auth: "Basic dTE6cHc=", wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", path: "/cart/u1", auth: "Bearer " + signToken(t, "other", "u1", time.Hour), wantStatus: http.StatusUnauthorized},
		{name: "expired", path: "/cart/u1", auth: "Bearer " + signToken(t, testSecret, "u1", -time.Minute), wantStatus: http.StatusUnauthorized},
		{name: "other user", path: "/cart/u2", auth: "Bearer " + valid, wantStatus: http.StatusForbidden},
		{name: "own cart", path: "/cart/u1", auth: "Bearer " + valid, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newSecuredRouter(&mockCartService{cart: sampleCart()}, &mockBookingService{})

			var rec *httptest.ResponseRecorder
			if tt.auth == "" {
				rec = do(t, h, http.MethodGet, tt.path, "")
			} else {
				rec = do(t, h, http.MethodGet, tt.path, "", "Authorization", tt.auth)
			}
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestIdentity_TokenSuppliesUserID(t *testing.T) {
	carts := &mockCartService{cart: sampleCart()}
	h := newSecuredRouter(carts, &mockBookingService{})

	rec := do(t, h, http.MethodPost, "/cart/add",
		`{"vendorId":"v1","serviceName":"Deep Clean","category":"Cleaning","price":1}`,
		"Authorization", "Bearer "+signToken(t, testSecret, "u1", time.Hour))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", carts.lastUser)
}

func TestIdentity_SubjectFallback(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "u7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	parsed, err := parseToken("Bearer "+token, []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, "u7", parsed.UserID)
}

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		h := newTestRouter(&mockCartService{}, &mockBookingService{})

		rec := do(t, h, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("store down", func(t *testing.T) {
		h := NewRouter(Deps{
			Carts:          &mockCartService{},
			Bookings:       &mockBookingService{},
			RequestTimeout: time.Second,
			Health:         func(context.Context) error { return errors.New("no reachable servers") },
		})

		rec := do(t, h, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("no token needed", func(t *testing.T) {
		h := newSecuredRouter(&mockCartService{}, &mockBookingService{})

		rec := do(t, h, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequestID(t *testing.T) {
	h := newTestRouter(&mockCartService{}, &mockBookingService{})

	rec := do(t, h, http.MethodGet, "/health", "", middleware.RequestIDHeader, "req-42")
	assert.Equal(t, "req-42", rec.Header().Get(middleware.RequestIDHeader))

	rec = do(t, h, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(&mockCartService{}, &mockBookingService{})

	req := httptest.NewRequest(http.MethodOptions, "/cart/add", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoversFromPanic(t *testing.T) {
	h := newTestRouter(&mockCartService{}, &mockBookingService{})

	// A nil cart from the service panics inside the handler.
	rec := do(t, h, http.MethodGet, "/cart/u1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
