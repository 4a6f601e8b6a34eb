package feedsdk

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aussiebroadwan/postboard/pkg/slogx"
)

// scriptedServer answers by endpoint ("GET /posts") and records what it saw.
type scriptedServer struct {
	t *testing.T

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	seen     []*http.Request
	bodies   [][]byte
}

func newScriptedServer(t *testing.T) (*scriptedServer, *httptest.Server) {
	t.Helper()

	s := &scriptedServer{t: t, handlers: make(map[string]http.HandlerFunc)}
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return s, srv
}

func (s *scriptedServer) on(endpoint string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[endpoint] = h
}

func (s *scriptedServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body := make([]byte, 0)
	if r.Body != nil {
		buf := make([]byte, 4096)
		for {
			n, err := r.Body.Read(buf)
			body = append(body, buf[:n]...)
			if err != nil {
				break
			}
		}
	}

	s.mu.Lock()
	s.seen = append(s.seen, r.Clone(r.Context()))
	s.bodies = append(s.bodies, body)
	h, ok := s.handlers[r.Method+" "+r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

func (s *scriptedServer) requests(endpoint string) []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*http.Request
	for _, r := range s.seen {
		if r.Method+" "+r.URL.Path == endpoint {
			out = append(out, r)
		}
	}
	return out
}

func (s *scriptedServer) bodiesFor(endpoint string) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out [][]byte
	for i, r := range s.seen {
		if r.Method+" "+r.URL.Path == endpoint {
			out = append(out, s.bodies[i])
		}
	}
	return out
}

func respond(code int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}
}

// sequence answers with each handler in turn, repeating the last one.
func sequence(hs ...http.HandlerFunc) http.HandlerFunc {
	var mu sync.Mutex
	i := 0
	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		h := hs[min(i, len(hs)-1)]
		i++
		mu.Unlock()
		h(w, r)
	}
}

func newTestClient(baseURL string) *SDKClient {
	c := NewSDKClient(baseURL)
	c.Logger = slogx.Discard()
	return c
}

// authedSession returns a session already in the Authenticated state.
func authedSession(t *testing.T, baseURL string, tokens Tokens) (*Session, *MemoryTokenStore) {
	t.Helper()

	store := NewMemoryTokenStore(tokens)
	s := newTestClient(baseURL).NewSession(store)
	s.tokens = tokens
	s.user = &User{ID: "1", Name: "Ada", Email: "ada@example.com"}
	s.state = StateAuthenticated
	return s, store
}
