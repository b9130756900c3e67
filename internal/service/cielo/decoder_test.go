package cielo

import (
	"encoding/json"
	"testing"
)

const testWallet = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"

func item(t *testing.T, raw string) FeedItem {
	t.Helper()
	var it FeedItem
	if err := json.Unmarshal([]byte(raw), &it); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return it
}

func TestDecodeBuyWithSOL(t *testing.T) {
	it := item(t, `{"tx_hash":"h1","tx_type":"swap","timestamp":1700000000,"is_sell":false,
		"token0_address":"So11111111111111111111111111111111111111112","token0_symbol":"SOL","token0_amount":"2","token0_amount_usd":300,
		"token1_address":"MintX","token1_symbol":"XXX","token1_amount":1000,"token1_amount_usd":""}`)

	nt, ok := Decode(testWallet, it)
	if !ok {
		t.Fatalf("expected transfer")
	}
	if nt.NativeAmountSigned != -2 {
		t.Fatalf("buy spends SOL, got %v", nt.NativeAmountSigned)
	}
	if nt.NativeUSD == nil || *nt.NativeUSD != 300 {
		t.Fatalf("expected native usd 300, got %v", nt.NativeUSD)
	}
	if len(nt.TokenBalanceChanges) != 1 || nt.TokenBalanceChanges[0].AmountSigned != 1000 || nt.TokenBalanceChanges[0].SymbolHint != "XXX" {
		t.Fatalf("unexpected deltas %+v", nt.TokenBalanceChanges)
	}
}

func TestDecodeSellSOLOnSecondLeg(t *testing.T) {
	it := item(t, `{"tx_hash":"h2","tx_type":"swap","timestamp":1700000000,"is_sell":true,
		"token0_address":"MintX","token0_symbol":"XXX","token0_amount":"400",
		"token1_address":"other","token1_symbol":"Wrapped SOL","token1_amount":"1.5"}`)

	nt, ok := Decode(testWallet, it)
	if !ok {
		t.Fatalf("expected transfer")
	}
	if nt.NativeAmountSigned != 1.5 || nt.NativeUSD != nil {
		t.Fatalf("sell receives SOL, got %v usd=%v", nt.NativeAmountSigned, nt.NativeUSD)
	}
	if nt.TokenBalanceChanges[0].TokenID != "MintX" || nt.TokenBalanceChanges[0].AmountSigned != -400 {
		t.Fatalf("unexpected deltas %+v", nt.TokenBalanceChanges)
	}
}

func TestDecodeStableLeg(t *testing.T) {
	it := item(t, `{"tx_hash":"h3","tx_type":"swap","timestamp":1700000000,"is_sell":false,
		"token0_address":"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v","token0_symbol":"USDC","token0_amount":"50",
		"token1_address":"MintX","token1_symbol":"XXX","token1_amount":"10"}`)

	nt, ok := Decode(testWallet, it)
	if !ok {
		t.Fatalf("expected transfer")
	}
	if nt.NativeAmountSigned != 0 || len(nt.TokenBalanceChanges) != 2 {
		t.Fatalf("unexpected transfer %+v", nt)
	}
	byID := map[string]float64{}
	for _, d := range nt.TokenBalanceChanges {
		byID[d.TokenID] = d.AmountSigned
	}
	if byID["MintX"] != 10 || byID["EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"] != -50 {
		t.Fatalf("unexpected deltas %v", byID)
	}
}

func TestDecodeSkips(t *testing.T) {
	cases := map[string]string{
		"transfer":  `{"tx_hash":"a","tx_type":"transfer","token0_symbol":"SOL","token1_symbol":"XXX"}`,
		"both sol":  `{"tx_hash":"b","tx_type":"swap","token0_symbol":"SOL","token0_amount":"1","token1_symbol":"WSOL","token1_amount":"1"}`,
		"no anchor": `{"tx_hash":"c","tx_type":"swap","token0_address":"A","token0_symbol":"AAA","token0_amount":"1","token1_address":"B","token1_symbol":"BBB","token1_amount":"1"}`,
	}
	for name, raw := range cases {
		if _, ok := Decode(testWallet, item(t, raw)); ok {
			t.Fatalf("%s: expected skip", name)
		}
	}
}
