// Package upstreamtest provides an in-process stand-in for the placeholder API.
package upstreamtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// User mirrors the upstream user document, including fields the graph ignores.
type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Website  string `json:"website"`
}

// Todo mirrors the upstream todo document.
type Todo struct {
	UserID    int    `json:"userId"`
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// DefaultUsers are the users served by NewServer.
var DefaultUsers = []User{
	{ID: 1, Name: "Leanne Graham", Username: "Bret", Email: "Sincere@april.biz", Phone: "1-770-736-8031 x56442", Website: "hildegard.org"},
	{ID: 2, Name: "Ervin Howell", Username: "Antonette", Email: "Shanna@melissa.tv", Phone: "010-692-6593 x09125", Website: "anastasia.net"},
	{ID: 3, Name: "Clementine Bauch", Username: "Samantha", Email: "Nathan@yesenia.net", Phone: "1-463-123-4447", Website: "ramiro.info"},
}

// DefaultTodos are the todos served by NewServer. User 3 has none.
var DefaultTodos = []Todo{
	{UserID: 1, ID: 1, Title: "delectus aut autem", Completed: false},
	{UserID: 1, ID: 2, Title: "quis ut nam facilis et officia qui", Completed: false},
	{UserID: 2, ID: 3, Title: "fugiat veniam minus", Completed: true},
	{UserID: 2, ID: 4, Title: "et porro tempora", Completed: true},
}

// Server is a fake upstream that records every request it receives.
type Server struct {
	*httptest.Server

	Users []User
	Todos []Todo

	mu          sync.Mutex
	hits        map[string]int
	overrides   map[string]response
	delays      map[string]time.Duration
	inFlight    int
	maxInFlight int
}

type response struct {
	status int
	body   string
}

// NewServer starts a fake upstream with the default fixtures. It is closed
// when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		Users: append([]User(nil), DefaultUsers...),
		Todos: append([]Todo(nil), DefaultTodos...),
		hits:      make(map[string]int),
		overrides: make(map[string]response),
		delays:    make(map[string]time.Duration),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Hits returns how many times the request URI (path plus query) was requested.
func (s *Server) Hits(requestURI string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[requestURI]
}

// TotalHits returns the number of requests received.
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.hits {
		total += n
	}
	return total
}

// Respond makes requests for path answer with status and a raw body instead of the fixtures.
func (s *Server) Respond(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[path] = response{status: status, body: body}
}

// Delay holds every request whose path starts with prefix for d before answering.
func (s *Server) Delay(prefix string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[prefix] = d
}

// MaxInFlight returns the largest number of requests that were being served at once.
func (s *Server) MaxInFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxInFlight
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.RequestURI()]++
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	override, overridden := s.overrides[r.URL.Path]
	var delay time.Duration
	for prefix, d := range s.delays {
		if strings.HasPrefix(r.URL.Path, prefix) && d > delay {
			delay = d
		}
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if overridden {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(override.status)
		_, _ = w.Write([]byte(override.body))
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] == "users":
		writeJSON(w, s.Users)
	case len(parts) == 1 && parts[0] == "todos":
		writeJSON(w, s.filterTodos(r))
	case len(parts) == 2 && parts[0] == "users":
		for _, u := range s.Users {
			if strconv.Itoa(u.ID) == parts[1] {
				writeJSON(w, u)
				return
			}
		}
		notFound(w)
	case len(parts) == 2 && parts[0] == "todos":
		for _, t := range s.Todos {
			if strconv.Itoa(t.ID) == parts[1] {
				writeJSON(w, t)
				return
			}
		}
		notFound(w)
	default:
		notFound(w)
	}
}

func (s *Server) filterTodos(r *http.Request) []Todo {
	q := r.URL.Query()
	todos := make([]Todo, 0, len(s.Todos))
	for _, t := range s.Todos {
		if uid := q.Get("userId"); uid != "" && strconv.Itoa(t.UserID) != uid {
			continue
		}
		todos = append(todos, t)
	}
	if limit, err := strconv.Atoi(q.Get("_limit")); err == nil && limit >= 0 && limit < len(todos) {
		todos = todos[:limit]
	}
	return todos
}

// notFound answers like the placeholder API does for unknown ids.
func notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("{}"))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
