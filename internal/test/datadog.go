package test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/justinas/alice"
)

const (
	DatadogAPIKey = "test-api-key"
	DatadogAppKey = "test-app-key"
)

// DatadogMetrics is the catalogue served by the fake metrics listing.
var DatadogMetrics = []string{
	"postgresql.connections",
	"postgresql.rows_fetched",
	"PostgreSQL.Locks",
	"system.cpu.idle",
	"system.mem.used",
	"trace.django.request.duration",
}

// DatadogAPI fakes the subset of the Datadog REST API the explorer uses and
// records the body of every search request it receives.
type DatadogAPI struct {
	APIKey string
	AppKey string

	mu       sync.Mutex
	searches map[string][]byte
}

func NewDatadogAPI() *DatadogAPI {
	return &DatadogAPI{
		APIKey:   DatadogAPIKey,
		AppKey:   DatadogAppKey,
		searches: make(map[string][]byte),
	}
}

// NewDatadogServer starts the fake API and stops it when the test ends.
func NewDatadogServer(t *testing.T) (*httptest.Server, *DatadogAPI) {
	t.Helper()

	api := NewDatadogAPI()
	server := httptest.NewServer(api.Handler())
	t.Cleanup(server.Close)

	return server, api
}

// LastSearch returns the last request body posted to path.
func (d *DatadogAPI) LastSearch(path string) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.searches[path]
}

func (d *DatadogAPI) Handler() http.Handler {
	r := mux.NewRouter()

	r.Handle("/api/v1/validate", alice.New(d.requireKeys(false)).ThenFunc(d.handleValidate)).Methods(http.MethodGet)

	read := alice.New(d.requireKeys(true))
	r.Handle("/api/v1/query", read.ThenFunc(d.handleQuery)).Methods(http.MethodGet)
	r.Handle("/api/v1/metrics", read.ThenFunc(d.handleMetrics)).Methods(http.MethodGet)
	r.Handle("/api/v1/metrics/{name}", read.ThenFunc(d.handleMetricMetadata)).Methods(http.MethodGet)

	search := read.Append(jsonOnly)
	r.Handle("/api/v2/logs/events/search", search.ThenFunc(d.handleSearch(logEvents))).Methods(http.MethodPost)
	r.Handle("/api/v2/spans/events/search", search.ThenFunc(d.handleSearch(spanEvents))).Methods(http.MethodPost)

	return alice.New(handlers.RecoveryHandler()).Then(r)
}

func jsonOnly(next http.Handler) http.Handler {
	return handlers.ContentTypeHandler(next, "application/json")
}

func (d *DatadogAPI) requireKeys(application bool) alice.Constructor {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("DD-API-KEY") != d.APIKey {
				writeJSON(w, http.StatusForbidden, map[string]any{"errors": []string{"Forbidden"}})
				return
			}
			if application && r.Header.Get("DD-APPLICATION-KEY") != d.AppKey {
				writeJSON(w, http.StatusForbidden, map[string]any{"errors": []string{"Forbidden"}})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (d *DatadogAPI) handleValidate(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"valid": true})
}

func (d *DatadogAPI) handleQuery(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": []string{"Missing query"}})
		return
	}
	if strings.HasPrefix(query, "error:") {
		writeJSON(w, http.StatusOK, map[string]any{"status": "error", "error": "Rule 'error' is not supported"})
		return
	}

	series := []map[string]any{}
	if !strings.Contains(query, "nodata") {
		series = append(series, map[string]any{
			"metric":       "system.cpu.idle",
			"display_name": "system.cpu.idle",
			"scope":        "host:web-1",
			"expression":   query,
			"length":       3,
			"pointlist": [][]any{
				{1735898400000.0, 10.0},
				{1735898460000.0, nil},
				{1735898520000.0, 30.0},
			},
		})
	}

	from, _ := strconv.ParseInt(r.URL.Query().Get("from"), 10, 64)
	to, _ := strconv.ParseInt(r.URL.Query().Get("to"), 10, 64)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"query":     query,
		"from_date": from,
		"to_date":   to,
		"series":    series,
	})
}

func (d *DatadogAPI) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("from") == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": []string{"Missing from"}})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"metrics": DatadogMetrics})
}

func (d *DatadogAPI) handleMetricMetadata(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	for _, m := range DatadogMetrics {
		if m == name {
			writeJSON(w, http.StatusOK, map[string]any{
				"type":        "gauge",
				"description": "Fake metric " + name,
				"unit":        "connection",
			})
			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]any{"errors": []string{"Metric not found"}})
}

func (d *DatadogAPI) handleSearch(events []map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil || !json.Valid(body) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"errors": []string{"Invalid body"}})
			return
		}

		d.mu.Lock()
		d.searches[r.URL.Path] = body
		d.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]any{"data": events})
	}
}

var logEvents = []map[string]any{
	{
		"id":   "AQAAAYdX1",
		"type": "log",
		"attributes": map[string]any{
			"timestamp": "2025-01-03T10:00:00.250Z",
			"message":   "GET /api/sheets/42 200",
			"service":   "web",
			"host":      "web-1",
			"status":    "info",
			"attributes": map[string]any{
				"performance": map[string]any{
					"total_db_queries_time": 0.42,
					"cache_hit":             true,
				},
				"sheet": 42,
				"file_info": map[string]any{
					"file": "views.py",
					"line": 118,
				},
			},
		},
	},
	{
		"id":   "AQAAAYdX2",
		"type": "log",
		"attributes": map[string]any{
			"timestamp": "2025-01-03T10:00:01Z",
			"message":   "worker heartbeat",
			"service":   "worker",
			"status":    "warn",
			"attributes": map[string]any{
				"host": "worker-2",
			},
		},
	},
}

var spanEvents = []map[string]any{
	{
		"id":   "AAAAAYdS1",
		"type": "spans",
		"attributes": map[string]any{
			"service":         "web",
			"resource_name":   "GET /api/sheets",
			"trace_id":        "7233462891923942471",
			"span_id":         "1407768292931548829",
			"start_timestamp": "2025-01-03T10:00:00Z",
			"end_timestamp":   "2025-01-03T10:00:00.125Z",
			"custom": map[string]any{
				"duration": 125000000.0,
			},
		},
	},
	{
		"id":   "AAAAAYdS2",
		"type": "spans",
		"attributes": map[string]any{
			"service":         "worker",
			"resource_name":   "tasks.refresh",
			"trace_id":        "5511201245109812",
			"span_id":         "812093451",
			"start_timestamp": "2025-01-03T10:00:02Z",
			"end_timestamp":   "2025-01-03T10:00:02.5Z",
		},
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
