package helius

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"WalletPnL/internal/domain/models"
	xhttp "WalletPnL/pkg/http"
)

func TestFetchPageBuildsQueryAndCursor(t *testing.T) {
	var gotBefore string
	var gotTypes []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v0/addresses/"+testWallet+"/transactions" || r.URL.Query().Get("api-key") != "k" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		gotBefore = r.URL.Query().Get("before")
		gotTypes = r.URL.Query()["type"]
		_, _ = w.Write([]byte("[" + swapTx + `,{"signature":"sig9","timestamp":1700000200,"transactionError":{"error":"x"}}]`))
	}))
	defer srv.Close()

	c := NewClient(xhttp.NewClient(), "k", WithBaseURL(srv.URL))
	page, err := c.FetchPage(context.Background(), testWallet, models.ChainSolana, "sig0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotBefore != "sig0" || len(gotTypes) != 2 {
		t.Fatalf("unexpected query before=%q types=%v", gotBefore, gotTypes)
	}
	if page.RawCount != 2 || len(page.Transfers) != 1 {
		t.Fatalf("expected 2 raw and 1 decoded, got %d/%d", page.RawCount, len(page.Transfers))
	}
	if page.NextCursor != "sig9" {
		t.Fatalf("cursor must be the last raw signature, got %q", page.NextCursor)
	}
}

func TestFetchPageEmptyEndsPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	page, err := NewClient(xhttp.NewClient(), "k", WithBaseURL(srv.URL)).FetchPage(context.Background(), testWallet, models.ChainSolana, "")
	if err != nil || page.NextCursor != "" {
		t.Fatalf("expected terminal empty page, got %+v %v", page, err)
	}
}

func TestFetchPageRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(xhttp.NewClient(), "k", WithBaseURL(srv.URL)).FetchPage(context.Background(), testWallet, models.ChainSolana, "")
	if !errors.Is(err, models.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestAssetResolver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Method != "getAssetBatch" || r.URL.Query().Get("api-key") != "k" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"result":[
			{"id":"MintA","interface":"FungibleToken","content":{"metadata":{"symbol":"AAA"},"files":[{"uri":"u","cdn_uri":"cdn"}]}},
			{"id":"MintB","interface":"FungibleToken","content":{"metadata":{"name":"Bee"},"links":{"image":"b.png"}}},
			{"id":"Nft","interface":"V1_NFT","content":{"metadata":{"symbol":"NFT"}}},
			{"id":"MintC","interface":"FungibleToken","token_info":{"symbol":"CCC"}},
			null
		]}`))
	}))
	defer srv.Close()

	r := NewAssetResolver(xhttp.NewClient(), "k", srv.URL)
	got, err := r.TryResolve(context.Background(), models.ChainSolana, []string{"MintA", "MintB", "Nft", "MintC", "MintD"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 resolved, got %+v", got)
	}
	if got["MintA"].Symbol != "AAA" || got["MintA"].ImageURL != "cdn" {
		t.Fatalf("unexpected MintA %+v", got["MintA"])
	}
	if got["MintB"].Symbol != "Bee" || got["MintB"].ImageURL != "b.png" {
		t.Fatalf("unexpected MintB %+v", got["MintB"])
	}
	if got["MintC"].Symbol != "CCC" {
		t.Fatalf("unexpected MintC %+v", got["MintC"])
	}
	if r.Supports(models.ChainEthereum) {
		t.Fatalf("das is solana only")
	}
}
