// Package usercycletest provides an in-process fake of the USERCycle API for
// tests. It records every request, keeps submitted events in memory so reads
// return them, and can be told to answer a given call with a canned response.
package usercycletest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/otherjamesbrown/usercycle/usercycle"
)

const apiPrefix = "/api/v1"

// Request is a recorded inbound request.
type Request struct {
	Method string
	// Path is relative to /api/v1, e.g. "/events.json".
	Path   string
	Query  url.Values
	Form   url.Values
	Header http.Header
}

type canned struct {
	status int
	body   string
}

// Server is a fake USERCycle API listening on a local port.
type Server struct {
	*httptest.Server
	Token string

	mu        sync.Mutex
	requests  []Request
	overrides map[string]canned
	events    []map[string]any
}

// NewServer starts a fake that accepts token via header or access_token param.
// Callers must Close it.
func NewServer(token string) *Server {
	s := &Server{
		Token:     token,
		overrides: make(map[string]canned),
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Route(apiPrefix, func(r chi.Router) {
		r.Use(s.override)
		r.Use(s.authenticate)
		r.Post("/events.json", s.createEvent)
		r.Get("/events.json", s.listEvents)
		r.Get("/events/{id}.json", s.getEvent)
		r.Get("/people.json", s.listPeople)
	})

	s.Server = httptest.NewServer(r)
	return s
}

// Config returns a client configuration pointed at the fake.
func (s *Server) Config() usercycle.Config {
	return usercycle.Config{
		AccessToken: s.Token,
		Scheme:      "http",
		Host:        strings.TrimPrefix(s.URL, "http://"),
		HTTPClient:  s.Client(),
	}
}

// Respond makes the next and all later method+path calls return status/body,
// bypassing authentication. path is relative to /api/v1.
func (s *Server) Respond(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[method+" "+path] = canned{status: status, body: body}
}

// Requests returns a copy of everything received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request.
func (s *Server) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   strings.TrimPrefix(r.URL.Path, apiPrefix),
			Query:  r.URL.Query(),
			Form:   r.PostForm,
			Header: r.Header.Clone(),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) override(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		c, ok := s.overrides[r.Method+" "+strings.TrimPrefix(r.URL.Path, apiPrefix)]
		s.mu.Unlock()
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(c.status)
		_, _ = w.Write([]byte(c.body))
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(usercycle.AuthHeader)
		if token == "" {
			token = r.URL.Query().Get("access_token")
		}
		if token != s.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	identity := r.PostForm.Get("identity")
	action := r.PostForm.Get("action_name")
	if identity == "" || action == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "identity and action_name are required"})
		return
	}

	props := map[string]string{}
	for key, values := range r.PostForm {
		if name, ok := strings.CutPrefix(key, "properties["); ok && strings.HasSuffix(name, "]") {
			props[strings.TrimSuffix(name, "]")] = values[0]
		}
	}

	s.mu.Lock()
	event := map[string]any{
		"id":          len(s.events) + 1,
		"identity":    identity,
		"action_name": action,
		"occurred_at": r.PostForm.Get("occurred_at"),
		"properties":  props,
	}
	s.events = append(s.events, event)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, event)
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	identity, action := q.Get("identity"), q.Get("action_name")

	s.mu.Lock()
	var matched []map[string]any
	for _, ev := range s.events {
		if identity != "" && ev["identity"] != identity {
			continue
		}
		if action != "" && ev["action_name"] != action {
			continue
		}
		matched = append(matched, ev)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, paginate(matched, q))
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil || id < 1 || id > len(s.events) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, s.events[id-1])
}

func (s *Server) listPeople(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	identity := q.Get("identity")

	s.mu.Lock()
	counts := map[string]int{}
	var order []string
	for _, ev := range s.events {
		id := ev["identity"].(string)
		if identity != "" && id != identity {
			continue
		}
		if _, seen := counts[id]; !seen {
			order = append(order, id)
		}
		counts[id]++
	}
	s.mu.Unlock()

	people := make([]map[string]any, 0, len(order))
	for _, id := range order {
		people = append(people, map[string]any{"identity": id, "events": counts[id]})
	}
	writeJSON(w, http.StatusOK, paginate(people, q))
}

func paginate(items []map[string]any, q url.Values) []map[string]any {
	count, err := strconv.Atoi(q.Get("count"))
	if err != nil || count <= 0 {
		count = usercycle.DefaultCount
	}
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page <= 0 {
		page = usercycle.DefaultPage
	}

	start := (page - 1) * count
	if start >= len(items) {
		return []map[string]any{}
	}
	end := start + count
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
