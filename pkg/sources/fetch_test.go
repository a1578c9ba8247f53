package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "json" {
			t.Errorf("query = %q, want appended format param", r.URL.RawQuery)
		}
		if r.URL.Query().Get("existing") != "1" {
			t.Errorf("existing query parameter lost: %q", r.URL.RawQuery)
		}
		w.Write([]byte("payload"))
	}))
	defer server.Close()

	body, err := Fetch(context.Background(), server.Client(), server.URL+"?existing=1", url.Values{"format": {"json"}})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != "payload" {
		t.Errorf("body = %q", body)
	}
}

func TestFetchNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer server.Close()

	if _, err := Fetch(context.Background(), server.Client(), server.URL, nil); err == nil {
		t.Error("expected error for 404")
	}
}

func TestFetchCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("late"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Fetch(ctx, server.Client(), server.URL, nil); err == nil {
		t.Error("expected error for cancelled context")
	}
}
