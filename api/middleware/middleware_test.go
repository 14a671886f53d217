package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artcafe/storefront/pkg/auth"
	"github.com/artcafe/storefront/pkg/config"
	pkgerrors "github.com/artcafe/storefront/pkg/errors"
	"github.com/artcafe/storefront/pkg/logger"
	pkgredis "github.com/artcafe/storefront/pkg/redis"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestRouteTTLSelection(t *testing.T) {
	ttl, ok := routeTTL(http.MethodPost, "/api/v1/checkout")
	assert.True(t, ok)
	assert.Equal(t, criticalIdempotencyTTL, ttl)

	_, ok = routeTTL(http.MethodGet, "/api/v1/checkout")
	assert.False(t, ok)
	_, ok = routeTTL(http.MethodPost, "/api/v1/cart/items")
	assert.False(t, ok)
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	var calls atomic.Int32
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "key-1", IdempotencyKeyFromContext(r.Context()))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"order_id":"o1"}}`))
	}))

	for i := 0; i < 2; i++ {
		req := requestWithPattern(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "key-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"data":{"order_id":"o1"}}`, rec.Body.String())
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestIdempotencyRejectsDifferentBody(t *testing.T) {
	store := newFakeStore()
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	first := requestWithPattern(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", strings.NewReader(`{"a":1}`))
	first.Header.Set("Idempotency-Key", "key-2")
	handler.ServeHTTP(httptest.NewRecorder(), first)

	second := requestWithPattern(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", strings.NewReader(`{"a":2}`))
	second.Header.Set("Idempotency-Key", "key-2")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, second)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), string(pkgerrors.CodeIdempotency))
}

func TestIdempotencyLeavesUnsettledOutcomesRetryable(t *testing.T) {
	cases := map[string]int{
		"server error":       http.StatusServiceUnavailable,
		"rate limited":       http.StatusTooManyRequests,
		"attempt in flight":  http.StatusConflict,
		"validation failure": http.StatusBadRequest,
	}
	for name, first := range cases {
		t.Run(name, func(t *testing.T) {
			store := newFakeStore()
			var calls atomic.Int32
			handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) == 1 {
					w.WriteHeader(first)
					return
				}
				w.WriteHeader(http.StatusCreated)
			}))

			for _, want := range []int{first, http.StatusCreated} {
				req := requestWithPattern(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", strings.NewReader(`{}`))
				req.Header.Set("Idempotency-Key", "key-3")
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, req)
				assert.Equal(t, want, rec.Code)
				assert.Empty(t, rec.Header().Get("Idempotent-Replayed"))
			}
			assert.Equal(t, int32(2), calls.Load())
		})
	}
}

func TestIdempotencyStoresSignInPrompt(t *testing.T) {
	store := newFakeStore()
	var calls atomic.Int32
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))

	for i := 0; i < 2; i++ {
		req := requestWithPattern(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "key-4")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestReplayableStatus(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusCreated, http.StatusUnauthorized} {
		assert.Truef(t, replayableStatus(status), "%d", status)
	}
	for _, status := range []int{http.StatusBadRequest, http.StatusConflict, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		assert.Falsef(t, replayableStatus(status), "%d", status)
	}
}

func TestIdempotencyHeaderIsOptional(t *testing.T) {
	store := newFakeStore()
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, IdempotencyKeyFromContext(r.Context()))
		w.WriteHeader(http.StatusCreated)
	}))
	req := requestWithPattern(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, store.data)
}

func TestOptionalAuth(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 5}
	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{UserID: "u1", Email: "u1@example.com"})
	require.NoError(t, err)

	var seen auth.Identity
	var signedIn bool
	handler := OptionalAuth(cfg, logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, signedIn = auth.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, signedIn)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, signedIn)
	assert.Equal(t, "u1", seen.UserID)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionAssignsStableKey(t *testing.T) {
	sm := scs.New()
	var keys []string
	handler := Session(sm, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, SessionKeyFromContext(r.Context()))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, keys, 2)
	assert.NotEmpty(t, keys[0])
	assert.Equal(t, keys[0], keys[1])

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEqual(t, keys[0], keys[2], "new visitor gets a new cart session")
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	srv := miniredis.RunT(t)
	client := pkgredis.NewFromRedis(redis.NewClient(&redis.Options{Addr: srv.Addr()}))
	t.Cleanup(func() { _ = client.Close() })

	handler := RateLimit("checkout", client, 2, time.Minute, logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
		req = req.WithContext(WithSessionKey(req.Context(), "sess-1"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	other := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	other = other.WithContext(WithSessionKey(other.Context(), "sess-2"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code, "limits are per caller")
}

func TestRecovererReturnsInternalError(t *testing.T) {
	handler := Recoverer(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestRequestIDPropagates(t *testing.T) {
	handler := RequestID(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}
