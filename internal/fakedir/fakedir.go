// Package fakedir provides an in-memory directory server for package tests.
//
// The server speaks the same REST surface as the production directory, so
// the typed client runs against it unchanged. Fault injection and request
// counters let tests pin down retry and skip behavior exactly.
package fakedir

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/platformops/idsweep/pkg/apiclient"
)

// Server is an in-memory directory backed by an httptest listener.
type Server struct {
	mu         sync.Mutex
	users      map[string]*apiclient.User
	identities map[string]*apiclient.Identity
	mappings   map[string]*apiclient.Mapping
	session    string
	failures   []*failRule
	counts     map[string]int

	httpSrv *httptest.Server
}

type failRule struct {
	method string
	path   string
	times  int
	status int
}

// New starts a directory server on a local listener. Callers must Close it.
func New() *Server {
	s := &Server{
		users:      make(map[string]*apiclient.User),
		identities: make(map[string]*apiclient.Identity),
		mappings:   make(map[string]*apiclient.Mapping),
		session:    "admin",
		counts:     make(map[string]int),
	}
	s.httpSrv = httptest.NewServer(s.router())
	return s
}

// URL returns the base URL of the listener.
func (s *Server) URL() string {
	return s.httpSrv.URL
}

// Close shuts the listener down.
func (s *Server) Close() {
	s.httpSrv.Close()
}

// Seed creates a linked user, identity, and mapping for each username under
// the given provider.
func (s *Server) Seed(provider string, usernames ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, username := range usernames {
		name := apiclient.IdentityName(provider, username)
		s.users[username] = &apiclient.User{
			ID:         uuid.New().String(),
			Username:   username,
			Identities: []string{name},
			CreatedAt:  now,
		}
		s.identities[name] = &apiclient.Identity{
			ID:               uuid.New().String(),
			Name:             name,
			Provider:         provider,
			ProviderUsername: username,
			User:             username,
			CreatedAt:        now,
		}
		s.mappings[name] = &apiclient.Mapping{
			ID:        uuid.New().String(),
			Identity:  name,
			User:      username,
			CreatedAt: now,
		}
	}
}

// SeedUnlinked creates an identity with no user record behind it.
func (s *Server) SeedUnlinked(provider, providerUsername string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := apiclient.IdentityName(provider, providerUsername)
	s.identities[name] = &apiclient.Identity{
		ID:               uuid.New().String(),
		Name:             name,
		Provider:         provider,
		ProviderUsername: providerUsername,
		CreatedAt:        time.Now().UTC(),
	}
}

// SeedUser creates a bare user with no identity.
func (s *Server) SeedUser(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[username] = &apiclient.User{
		ID:        uuid.New().String(),
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}
}

// FailNext makes the next times requests matching method and path fail with
// the given status. Rules are consumed in the order they were added.
func (s *Server) FailNext(method, path string, times, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures = append(s.failures, &failRule{
		method: method,
		path:   path,
		times:  times,
		status: status,
	})
}

// Requests reports how many requests matched method and path.
func (s *Server) Requests(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[method+" "+path]
}

// TotalRequests reports how many requests the server has received.
func (s *Server) TotalRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, n := range s.counts {
		total += n
	}
	return total
}

// HasUser reports whether a user record exists.
func (s *Server) HasUser(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[username]
	return ok
}

// HasIdentity reports whether an identity record exists.
func (s *Server) HasIdentity(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.identities[name]
	return ok
}

// HasMapping reports whether a mapping exists for an identity name.
func (s *Server) HasMapping(identity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.mappings[identity]
	return ok
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.intercept)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/auth/whoami", s.whoAmI)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.listUsers)
			r.Post("/", s.createUser)
			r.Get("/{username}", s.getUser)
			r.Delete("/{username}", s.deleteUser)
		})

		r.Route("/identities", func(r chi.Router) {
			r.Get("/", s.listIdentities)
			r.Post("/", s.createIdentity)
			r.Get("/{name}", s.getIdentity)
			r.Delete("/{name}", s.deleteIdentity)
		})

		r.Route("/identity-mappings", func(r chi.Router) {
			r.Post("/", s.createMapping)
			r.Get("/{identity}", s.getMapping)
			r.Delete("/{identity}", s.deleteMapping)
		})
	})

	return r
}

// intercept counts every request and applies pending failure rules before
// the resource handlers run.
func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.counts[r.Method+" "+r.URL.Path]++

		var hit *failRule
		for _, f := range s.failures {
			if f.times > 0 && f.method == r.Method && f.path == r.URL.Path {
				f.times--
				hit = f
				break
			}
		}
		s.mu.Unlock()

		if hit != nil {
			writeError(w, hit.status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    codeFor(status),
		"message": message,
	})
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	default:
		return "INTERNAL"
	}
}

func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
