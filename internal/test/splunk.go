package test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/justinas/alice"
)

const SplunkToken = "test-token"

type SplunkEvent struct {
	Event      map[string]any `json:"event"`
	Index      string         `json:"index,omitempty"`
	Host       string         `json:"host,omitempty"`
	Source     string         `json:"source,omitempty"`
	SourceType string         `json:"sourcetype,omitempty"`
	Time       int64          `json:"time,omitempty"`
}

type splunkResponse struct {
	Text string `json:"text"`
	Code int    `json:"code"`
}

// SplunkHEC fakes a Splunk HTTP Event Collector and keeps every event it accepts.
type SplunkHEC struct {
	Token string

	mu     sync.Mutex
	events []SplunkEvent
}

func NewSplunkHEC() *SplunkHEC {
	return &SplunkHEC{Token: SplunkToken}
}

func NewSplunkServer(t *testing.T) (*httptest.Server, *SplunkHEC) {
	t.Helper()

	hec := NewSplunkHEC()
	server := httptest.NewServer(hec.Handler())
	t.Cleanup(server.Close)

	return server, hec
}

func (s *SplunkHEC) Events() []SplunkEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SplunkEvent(nil), s.events...)
}

func (s *SplunkHEC) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/services/collector/event", s.handleEvent).Methods(http.MethodPost)
	r.HandleFunc("/services/collector/health/1.0", s.handleHealth).Methods(http.MethodGet)

	return alice.New(handlers.RecoveryHandler()).Then(r)
}

func (s *SplunkHEC) handleEvent(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Splunk ")
	if header == "" || token == header {
		writeJSON(w, http.StatusUnauthorized, splunkResponse{Text: "Token is required", Code: 2})
		return
	}
	if token != s.Token {
		writeJSON(w, http.StatusForbidden, splunkResponse{Text: "Invalid token", Code: 4})
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, splunkResponse{Text: "Invalid request", Code: 5})
		return
	}

	var event SplunkEvent
	if err := json.Unmarshal(body, &event); err != nil {
		writeJSON(w, http.StatusBadRequest, splunkResponse{Text: "Invalid data format", Code: 6})
		return
	}

	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, splunkResponse{Text: "Success", Code: 0})
}

func (s *SplunkHEC) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"text":   "HEC is healthy",
		"status": "green",
	})
}
