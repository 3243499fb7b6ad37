package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sispat/sispat/internal/audit"
	"github.com/sispat/sispat/internal/authz"
	"github.com/sispat/sispat/internal/guard"
)

type stubAuthenticator guard.Auth

func (s stubAuthenticator) Authenticate(*http.Request) guard.Auth {
	return guard.Auth(s)
}

type memStore struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

func (s *memStore) Load(context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, authz.ErrNotFound
	}
	return s.data, nil
}

func (s *memStore) Save(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	s.saves++
	return nil
}

type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAudit) Log(_ context.Context, e audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingAudit) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type testServer struct {
	router   *chi.Mux
	registry *authz.Registry
	store    *memStore
	audit    *recordingAudit
}

var testSPA = fstest.MapFS{
	"index.html":    {Data: []byte("<!doctype html><div id=app></div>")},
	"assets/app.js": {Data: []byte("console.log('sispat')")},
}

func userWith(role authz.RoleID) guard.Auth {
	return guard.Auth{
		Authenticated: true,
		User: &authz.User{
			ID:             "u-" + string(role),
			MunicipalityID: "mun-1",
			Roles:          []authz.RoleID{role},
		},
	}
}

func newTestServer(t *testing.T, auth guard.Auth) *testServer {
	t.Helper()

	store := &memStore{}
	reg := authz.NewRegistry(store, authz.DefaultRoles())
	reg.Init(context.Background())

	rec := &recordingAudit{}
	h := NewHandler(authz.NewEvaluator(reg), stubAuthenticator(auth), rec)

	rl := NewRateLimiter(1000, 1000)
	t.Cleanup(rl.Stop)

	return &testServer{
		router:   NewRouter(h, rl, RouterConfig{StaticFS: testSPA}),
		registry: reg,
		store:    store,
		audit:    rec,
	}
}

// do sends a bearer-style request so CSRF checks do not apply.
func (s *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Authorization", "Bearer test")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func requireJSON(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	require.Contains(t, w.Header().Get("Content-Type"), "application/json")
}
