package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetJSONSendsHeadersAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	var out struct {
		Status string `json:"status"`
	}
	err := NewClient().GetJSON(context.Background(), srv.URL, map[string]string{"X-API-KEY": "secret"}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != "ok" {
		t.Fatalf("unexpected body %+v", out)
	}
}

func TestNon2xxReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	err := NewClient().GetJSON(context.Background(), srv.URL+"/v0/x?api-key=topsecret", nil, nil)
	if StatusCode(err) != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
	if strings.Contains(err.Error(), "topsecret") {
		t.Fatalf("query string leaked into error: %v", err)
	}
}

func TestPostJSONEncodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var in map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"echo": in["method"]})
	}))
	defer srv.Close()

	var out map[string]string
	if err := NewClient().PostJSON(context.Background(), srv.URL, nil, map[string]string{"method": "getAssetBatch"}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["echo"] != "getAssetBatch" {
		t.Fatalf("unexpected response %+v", out)
	}
}

func TestStatusCodeOnOtherErrors(t *testing.T) {
	if StatusCode(nil) != 0 {
		t.Fatalf("expected 0 for nil")
	}
	if StatusCode(context.Canceled) != 0 {
		t.Fatalf("expected 0 for non-status error")
	}
}
