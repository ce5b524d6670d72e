package checks

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/smokecheck/endpoint"
)

// fakeService mimics the service under test: GET /api/, POST and GET /api/status.
// Each route can be overridden.
type fakeService struct {
	mu      sync.Mutex
	records []StatusRecord
	headers []http.Header

	root       http.HandlerFunc
	createStat http.HandlerFunc
	listStat   http.HandlerFunc
}

func newFakeService() *fakeService {
	return &fakeService{}
}

func (f *fakeService) start(t *testing.T) endpoint.Endpoint {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return endpoint.New(srv.URL + "/api")
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.headers = append(f.headers, r.Header.Clone())
	f.mu.Unlock()

	switch {
	case r.URL.Path == "/api/" && r.Method == http.MethodGet:
		if f.root != nil {
			f.root(w, r)
			return
		}
		writeJSON(w, http.StatusOK, RootResponse{Message: "Hello World"})

	case r.URL.Path == "/api/status" && r.Method == http.MethodPost:
		if f.createStat != nil {
			f.createStat(w, r)
			return
		}
		var in StatusCreate
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.ClientName == "" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		f.mu.Lock()
		rec := StatusRecord{
			ID:         fmt.Sprintf("rec-%d", len(f.records)+1),
			ClientName: in.ClientName,
			Timestamp:  "2026-10-19T09:12:44.123456",
		}
		f.records = append(f.records, rec)
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, rec)

	case r.URL.Path == "/api/status" && r.Method == http.MethodGet:
		if f.listStat != nil {
			f.listStat(w, r)
			return
		}
		f.mu.Lock()
		records := append([]StatusRecord{}, f.records...)
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, records)

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeService) lastHeader() http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.headers) == 0 {
		return nil
	}
	return f.headers[len(f.headers)-1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func status(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(code), code)
	}
}

func raw(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

// stall holds the request until the client gives up.
func stall(d time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(d):
		}
	}
}

// refusedEndpoint returns an endpoint whose port has no listener.
func refusedEndpoint(t *testing.T) endpoint.Endpoint {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return endpoint.New("http://" + addr + "/api")
}

func testClient(timeout time.Duration) *Client {
	return NewClient(ClientConfig{Timeout: timeout})
}
