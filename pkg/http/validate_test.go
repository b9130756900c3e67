package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type walletQuery struct {
	Wallet string `param:"wallet" validate:"required,wallet"`
	Chain  string `query:"chain" default:"solana" validate:"oneof=solana evm"`
}

func TestReadAndValidateRequest(t *testing.T) {
	e := echo.New()

	cases := []struct {
		name    string
		wallet  string
		query   string
		wantErr bool
		chain   string
	}{
		{name: "solana default chain", wallet: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", chain: "solana"},
		{name: "evm", wallet: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", query: "?chain=evm", chain: "evm"},
		{name: "bad wallet", wallet: "nope", wantErr: true},
		{name: "bad chain", wallet: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", query: "?chain=tron", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/pnl/"+tc.wallet+tc.query, nil)
			c := e.NewContext(req, httptest.NewRecorder())
			c.SetParamNames("wallet")
			c.SetParamValues(tc.wallet)

			var in walletQuery
			errs := ReadAndValidateRequest(c, &in)
			if tc.wantErr {
				if errs == nil {
					t.Fatalf("expected validation errors")
				}
				return
			}
			if errs != nil {
				t.Fatalf("unexpected validation errors: %+v", errs)
			}
			if in.Chain != tc.chain {
				t.Fatalf("expected chain %s, got %s", tc.chain, in.Chain)
			}
		})
	}
}
