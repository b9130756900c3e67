package covalent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"WalletPnL/internal/domain/models"
	xhttp "WalletPnL/pkg/http"
)

func TestFetchPageNumbersAndHasMore(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "k" || r.URL.Query().Get("no-logs") != "false" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		paths = append(paths, r.URL.Path)
		more := strings.Contains(r.URL.Path, "/page/0/")
		body := `{"data":{"items":[` + buyTx + `],"pagination":{"has_more":false}},"error":false}`
		if more {
			body = `{"data":{"items":[` + buyTx + `],"links":{"next":"x"},"pagination":{"has_more":true}},"error":false}`
		}
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewClient(xhttp.NewClient(), "k", WithBaseURL(srv.URL))
	page, err := c.FetchPage(context.Background(), testWallet, models.ChainBSC, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.NextCursor != "1" || len(page.Transfers) != 1 || page.Transfers[0].Chain != models.ChainBSC {
		t.Fatalf("unexpected first page %+v", page)
	}
	page, err = c.FetchPage(context.Background(), testWallet, models.ChainBSC, page.NextCursor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.NextCursor != "" {
		t.Fatalf("expected last page, got cursor %q", page.NextCursor)
	}
	if len(paths) != 2 || !strings.HasPrefix(paths[0], "/v1/bsc-mainnet/address/") || !strings.HasSuffix(paths[1], "/transactions_v3/page/1/") {
		t.Fatalf("unexpected paths %v", paths)
	}
}

func TestFetchPageErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":null,"error":true,"error_message":"bad key","error_code":401}`))
	}))
	defer srv.Close()

	c := NewClient(xhttp.NewClient(), "k", WithBaseURL(srv.URL))
	if _, err := c.FetchPage(context.Background(), testWallet, models.ChainEthereum, ""); err == nil {
		t.Fatalf("expected error envelope to fail")
	}
	if _, err := c.FetchPage(context.Background(), testWallet, models.ChainEthereum, "x"); err == nil {
		t.Fatalf("expected bad cursor to fail")
	}
}
