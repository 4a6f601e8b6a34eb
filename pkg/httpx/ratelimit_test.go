package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/postboard/pkg/httpx"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRemoteIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	require.Equal(t, "192.168.1.1", httpx.RemoteIP(req))

	req.RemoteAddr = "pipe"
	require.Equal(t, "pipe", httpx.RemoteIP(req))
}

func TestThrottle(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	from := func(addr string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = addr
		return req
	}

	t.Run("blocks requests over limit", func(t *testing.T) {
		config := httpx.RateLimitConfig{RequestsPerWindow: 3, Window: time.Minute, Burst: 3}
		limited := httpx.Throttle(config, httpx.RemoteIP)(ok)

		for i := range 3 {
			rec := httptest.NewRecorder()
			limited.ServeHTTP(rec, from("192.168.1.1:12345"))
			require.Equal(t, http.StatusOK, rec.Code, "request %d should succeed", i+1)
		}

		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, from("192.168.1.1:12345"))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Contains(t, rec.Body.String(), `"message"`)

		// Another address has its own bucket.
		rec = httptest.NewRecorder()
		limited.ServeHTTP(rec, from("192.168.1.2:12345"))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("empty key is exempt", func(t *testing.T) {
		config := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		limited := httpx.Throttle(config, func(*http.Request) string { return "" })(ok)

		for range 3 {
			rec := httptest.NewRecorder()
			limited.ServeHTTP(rec, from("192.168.1.1:12345"))
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})
}

func TestRateLimitConfigLimiter(t *testing.T) {
	c := httpx.RateLimitConfig{RequestsPerWindow: 60, Window: time.Minute, Burst: 2}
	require.InDelta(t, 1.0, float64(c.Rate()), 0.0001)

	l := c.Limiter()
	require.True(t, l.Allow())
	require.True(t, l.Allow())
	require.False(t, l.Allow())

	require.Equal(t, rate.Inf, httpx.RateLimitConfig{}.Rate())
}

func TestParseRateLimitFromEnv(t *testing.T) {
	t.Setenv("RATELIMIT_TEST_REQUESTS", "7")
	t.Setenv("RATELIMIT_TEST_WINDOW_SEC", "2")
	t.Setenv("RATELIMIT_TEST_BURST", "nope")

	got := httpx.ParseRateLimitFromEnv("TEST", httpx.ClientLimit)
	require.Equal(t, 7, got.RequestsPerWindow)
	require.Equal(t, 2*time.Second, got.Window)
	require.Equal(t, httpx.ClientLimit.Burst, got.Burst)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := httpx.BearerToken(req)
	require.False(t, ok)

	req.Header.Set("Authorization", "Basic abc")
	_, ok = httpx.BearerToken(req)
	require.False(t, ok)

	httpx.SetBearer(req.Header, "tok")
	tok, ok := httpx.BearerToken(req)
	require.True(t, ok)
	require.Equal(t, "tok", tok)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("a"), mw("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"a", "b", "handler"}, order)
}
