package market

import "testing"

func testMarket(t *testing.T) *Market {
	t.Helper()
	m, err := New("BTC-USDT", "BTC", "USDT", Params{
		TickSize:     10,
		LotSize:      5,
		MinOrderSize: 5,
		MaxOrderSize: 1000,
		MaxPrice:     100000,
	})
	if err != nil {
		t.Fatalf("new market: %v", err)
	}
	return m
}

func TestNewMarketValidation(t *testing.T) {
	if _, err := New("", "BTC", "USDT", DefaultParams); err == nil {
		t.Error("expected error for empty symbol")
	}
	if _, err := New("X-X", "BTC", "BTC", DefaultParams); err == nil {
		t.Error("expected error for base == quote")
	}
	bad := DefaultParams
	bad.TickSize = 0
	if _, err := New("BTC-USDT", "BTC", "USDT", bad); err == nil {
		t.Error("expected error for zero tick size")
	}
	overflow := DefaultParams
	overflow.MaxPrice = 1 << 40
	overflow.MaxOrderSize = 1 << 40
	if _, err := New("BTC-USDT", "BTC", "USDT", overflow); err == nil {
		t.Error("expected error for overflowing collateral bound")
	}
}

func TestValidateOrder(t *testing.T) {
	m := testMarket(t)

	cases := []struct {
		name    string
		price   uint64
		qty     uint64
		wantErr bool
	}{
		{"valid", 100, 10, false},
		{"zero price", 0, 10, true},
		{"unaligned price", 105, 10, true},
		{"price above max", 100010, 10, true},
		{"zero qty", 100, 0, true},
		{"unaligned qty", 100, 7, true},
		{"qty below min", 100, 0, true},
		{"qty above max", 100, 1005, true},
		{"at bounds", 100000, 1000, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := m.ValidateOrder(tc.price, tc.qty)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateOrder(%d, %d) = %v, wantErr=%v", tc.price, tc.qty, err, tc.wantErr)
			}
		})
	}
}
