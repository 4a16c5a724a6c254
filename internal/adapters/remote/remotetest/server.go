// Package remotetest provides an in-memory stand-in for the remote content
// service, for use in tests.
package remotetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/philly/arch-blog/reader/internal/posts/domain"
)

// Operation names used for counters, gates and failures.
const (
	OpList   = "list"
	OpGet    = "get"
	OpCreate = "create"
)

// Failure is an injected error response.
type Failure struct {
	Status int
	Body   string
}

// Server serves GET /blogs, GET /blogs/{id} and POST /blogs from memory.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	posts    []domain.Post
	calls    map[string]int
	gates    map[string]chan struct{}
	failures map[string]Failure
	bodies   []map[string]any
	nextID   func() string
}

// NewServer starts a server seeded with posts. Close it when done.
func NewServer(posts ...domain.Post) *Server {
	s := &Server{
		posts:    append([]domain.Post(nil), posts...),
		calls:    make(map[string]int),
		gates:    make(map[string]chan struct{}),
		failures: make(map[string]Failure),
		nextID:   uuid.NewString,
	}

	r := chi.NewRouter()
	r.Get("/blogs", s.list)
	r.Get("/blogs/{id}", s.get)
	r.Post("/blogs", s.create)
	s.Server = httptest.NewServer(r)
	return s
}

// Close releases every held request and shuts the server down.
func (s *Server) Close() {
	s.mu.Lock()
	gates := s.gates
	s.gates = make(map[string]chan struct{})
	s.mu.Unlock()
	for _, gate := range gates {
		close(gate)
	}
	s.Server.Close()
}

// SetIDGenerator replaces the id assigned to created posts.
func (s *Server) SetIDGenerator(next func() string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = next
}

// Calls returns how many requests op has received.
func (s *Server) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Hold makes every following op request block until the returned release
// func is called. Requests are counted before they block. A second Hold on
// the same op releases the first.
func (s *Server) Hold(op string) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	previous := s.gates[op]
	s.gates[op] = gate
	s.mu.Unlock()
	if previous != nil {
		close(previous)
	}

	return func() {
		s.mu.Lock()
		owned := s.gates[op] == gate
		if owned {
			delete(s.gates, op)
		}
		s.mu.Unlock()
		if owned {
			close(gate)
		}
	}
}

// Fail makes op answer with f until Recover is called.
func (s *Server) Fail(op string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = f
}

// Recover clears an injected failure.
func (s *Server) Recover(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, op)
}

// Add stores a post directly, bypassing the API.
func (s *Server) Add(p domain.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append(s.posts, p)
}

// CreatedBodies returns the raw JSON bodies received by POST /blogs.
func (s *Server) CreatedBodies() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.bodies...)
}

// enter counts the call and returns the gate to wait on and any failure.
func (s *Server) enter(op string) (chan struct{}, *Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	var failure *Failure
	if f, ok := s.failures[op]; ok {
		failure = &f
	}
	return s.gates[op], failure
}

func (s *Server) wait(r *http.Request, op string) (*Failure, bool) {
	gate, failure := s.enter(op)
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return nil, false
		}
	}
	return failure, true
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	failure, ok := s.wait(r, OpList)
	if !ok {
		return
	}
	if failure != nil {
		writeFailure(w, *failure)
		return
	}

	s.mu.Lock()
	posts := append([]domain.Post{}, s.posts...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	failure, ok := s.wait(r, OpGet)
	if !ok {
		return
	}
	if failure != nil {
		writeFailure(w, *failure)
		return
	}

	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.ID == id {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "blog not found"})
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	failure, ok := s.wait(r, OpCreate)
	if !ok {
		return
	}
	if failure != nil {
		writeFailure(w, *failure)
		return
	}

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON body"})
		return
	}
	encoded, _ := json.Marshal(raw)

	var post domain.Post
	if err := json.Unmarshal(encoded, &post); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	s.mu.Lock()
	s.bodies = append(s.bodies, raw)
	post.ID = s.nextID()
	s.posts = append(s.posts, post)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, post)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFailure(w http.ResponseWriter, f Failure) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.Status)
	_, _ = w.Write([]byte(f.Body))
}
