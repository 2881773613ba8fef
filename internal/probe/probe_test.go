package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestProber(t *testing.T, handler http.Handler, apiKey string) (*Prober, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p := New(nil, Config{
		BaseURL: srv.URL,
		Origin:  "http://localhost:3000",
		APIKey:  apiKey,
		Timeout: 5 * time.Second,
	})
	return p, srv
}

func TestCheckHealth(t *testing.T) {
	p, _ := newTestProber(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Fatalf("path: got=%q", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}), "")

	res := p.CheckHealth(context.Background())
	if !res.OK || res.StatusCode != http.StatusOK {
		t.Fatalf("health: want ok/200 got=%+v", res)
	}
}

func TestCheckHealthDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	p := New(nil, Config{BaseURL: srv.URL, Timeout: time.Second})

	res := p.CheckHealth(context.Background())
	if res.OK || res.Err == nil {
		t.Fatalf("unreachable backend: want error result got=%+v", res)
	}
}

func TestCheckCORSEchoedOrigin(t *testing.T) {
	p, _ := newTestProber(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodOptions {
			t.Fatalf("method: got=%q", r.Method)
		}
		if got := r.Header.Get("Access-Control-Request-Method"); got != http.MethodPost {
			t.Fatalf("request-method header: got=%q", got)
		}
		w.Header().Set("Access-Control-Allow-Origin", r.Header.Get("Origin"))
		w.WriteHeader(http.StatusNoContent)
	}), "")

	res := p.CheckCORS(context.Background(), "http://localhost:3000")
	if !res.OK {
		t.Fatalf("cors echo: want ok got=%+v", res)
	}
}

func TestCheckCORSMissingHeader(t *testing.T) {
	p, _ := newTestProber(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), "")

	res := p.CheckCORS(context.Background(), "http://localhost:3000")
	if res.OK {
		t.Fatalf("missing allow-origin: want failure got=%+v", res)
	}
}

func TestCheckCORSWrongOrigin(t *testing.T) {
	p, _ := newTestProber(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "http://evil.example")
		w.WriteHeader(http.StatusOK)
	}), "")

	res := p.CheckCORS(context.Background(), "http://localhost:3000")
	if res.OK {
		t.Fatalf("mismatched allow-origin: want failure got=%+v", res)
	}
}

func apiKeyHandler(t *testing.T, want string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/status" {
			t.Fatalf("path: got=%q", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != want {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestCheckAPIKeyEnforced(t *testing.T) {
	p, _ := newTestProber(t, apiKeyHandler(t, "s3cret"), "s3cret")

	res := p.CheckAPIKey(context.Background())
	if !res.OK {
		t.Fatalf("enforced key: want ok got=%+v", res)
	}
}

func TestCheckAPIKeyNotEnforced(t *testing.T) {
	p, _ := newTestProber(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), "s3cret")

	res := p.CheckAPIKey(context.Background())
	if res.OK {
		t.Fatalf("anonymous access allowed: want failure got=%+v", res)
	}
}

func TestCheckAPIKeyRejectedKey(t *testing.T) {
	p, _ := newTestProber(t, apiKeyHandler(t, "other"), "s3cret")

	res := p.CheckAPIKey(context.Background())
	if res.OK {
		t.Fatalf("rejected key: want failure got=%+v", res)
	}
}

func TestRunAllStableOrder(t *testing.T) {
	p, _ := newTestProber(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.URL.Path == "/api/status" && r.Header.Get("X-API-Key") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}), "s3cret")

	results := p.RunAll(context.Background())
	if len(results) != 3 {
		t.Fatalf("results: want=3 got=%d", len(results))
	}
	wantOrder := []string{"health", "cors", "api_key"}
	for i, name := range wantOrder {
		if results[i].Name != name {
			t.Fatalf("order[%d]: want=%q got=%q", i, name, results[i].Name)
		}
		if !results[i].OK {
			t.Fatalf("check %q: want ok got=%+v", name, results[i])
		}
	}
}
