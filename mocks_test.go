package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/courselane/go-session"
)

// recordingNotifier captures user-facing notifications.
type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	failures  []string
}

func (n *recordingNotifier) Success(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, message)
}

func (n *recordingNotifier) Failure(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, message)
}

func (n *recordingNotifier) lastFailure() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.failures) == 0 {
		return ""
	}
	return n.failures[len(n.failures)-1]
}

func (n *recordingNotifier) lastSuccess() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.successes) == 0 {
		return ""
	}
	return n.successes[len(n.successes)-1]
}

// recordingNavigator captures surface transitions.
type recordingNavigator struct {
	mu           sync.Mutex
	destinations []session.Destination
}

func (n *recordingNavigator) NavigateTo(dest session.Destination) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.destinations = append(n.destinations, dest)
}

func (n *recordingNavigator) last() session.Destination {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.destinations) == 0 {
		return ""
	}
	return n.destinations[len(n.destinations)-1]
}

// recordingSink captures activity events and can simulate sink failures.
type recordingSink struct {
	mu     sync.Mutex
	events []session.ActivityEvent
	err    error
}

func (s *recordingSink) Record(_ context.Context, event session.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) has(eventType session.ActivityEventType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range s.events {
		if event.EventType == eventType {
			return true
		}
	}
	return false
}

// failingStore simulates token slot failures.
type failingStore struct {
	token    string
	getErr   error
	setErr   error
	clearErr error
}

func (s *failingStore) Get() (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	return s.token, nil
}

func (s *failingStore) Set(token string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.token = token
	return nil
}

func (s *failingStore) Clear() error {
	if s.clearErr != nil {
		return s.clearErr
	}
	s.token = ""
	return nil
}

// countingHandler wraps a handler and counts how often it was hit.
type countingHandler struct {
	mu      sync.Mutex
	hits    int
	handler http.HandlerFunc
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.hits++
	h.mu.Unlock()
	if h.handler != nil {
		h.handler(w, r)
	}
}

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hits
}

func newIdentityAPI(t *testing.T, routes map[string]http.Handler) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	for pattern, handler := range routes {
		mux.Handle(pattern, handler)
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func jsonResponse(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
