package amm

import "testing"

func TestDepositSharesBootstrap(t *testing.T) {
	tests := []struct {
		name     string
		amountA  uint64
		amountB  uint64
		expected uint64
	}{
		{name: "geometric mean floored", amountA: 1_000, amountB: 2_000, expected: 1_414},
		{name: "perfect square", amountA: 4, amountB: 9, expected: 6},
		{name: "one-sided bootstrap mints nothing", amountA: 1_000, amountB: 0, expected: 0},
		{name: "max amounts", amountA: ^uint64(0), amountB: ^uint64(0), expected: ^uint64(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := DepositShares(tt.amountA, tt.amountB, 0, 0, 0)
			if err != nil {
				t.Fatalf("DepositShares: %v", err)
			}
			if shares != tt.expected {
				t.Errorf("DepositShares(%d, %d, 0, 0, 0) = %d, want %d",
					tt.amountA, tt.amountB, shares, tt.expected)
			}
		})
	}
}

func TestDepositSharesProportional(t *testing.T) {
	tests := []struct {
		name     string
		amountA  uint64
		amountB  uint64
		supply   uint64
		reserveA uint64
		reserveB uint64
		expected uint64
	}{
		{name: "matched deposit", amountA: 100, amountB: 200, supply: 1_000, reserveA: 1_000, reserveB: 2_000, expected: 100},
		{name: "lopsided deposit takes minimum", amountA: 100, amountB: 500, supply: 1_000, reserveA: 1_000, reserveB: 2_000, expected: 100},
		{name: "lopsided the other way", amountA: 500, amountB: 200, supply: 1_000, reserveA: 1_000, reserveB: 2_000, expected: 100},
		{name: "fractional shares floored", amountA: 7, amountB: 14, supply: 1_000, reserveA: 3_000, reserveB: 6_000, expected: 2},
		{name: "dust deposit mints nothing", amountA: 1, amountB: 1, supply: 100, reserveA: 1_000, reserveB: 1_000, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := DepositShares(tt.amountA, tt.amountB, tt.supply, tt.reserveA, tt.reserveB)
			if err != nil {
				t.Fatalf("DepositShares: %v", err)
			}
			if shares != tt.expected {
				t.Errorf("got %d shares, want %d", shares, tt.expected)
			}
		})
	}
}

func TestDepositSharesEmptyReserveWithSupply(t *testing.T) {
	if _, err := DepositShares(10, 10, 100, 0, 50); err != ErrMathOverflow {
		t.Errorf("nonzero supply over empty reserve should fail, got %v", err)
	}
}

func TestWithdrawAmountsProportional(t *testing.T) {
	tests := []struct {
		name      string
		shares    uint64
		supply    uint64
		reserveA  uint64
		reserveB  uint64
		expectedA uint64
		expectedB uint64
	}{
		{name: "tenth of the pool", shares: 100, supply: 1_000, reserveA: 1_000, reserveB: 2_000, expectedA: 100, expectedB: 200},
		{name: "full supply drains both sides", shares: 1_000, supply: 1_000, reserveA: 1_000, reserveB: 2_000, expectedA: 1_000, expectedB: 2_000},
		{name: "payout floored", shares: 1, supply: 3, reserveA: 10, reserveB: 20, expectedA: 3, expectedB: 6},
		{name: "zero shares", shares: 0, supply: 1_000, reserveA: 1_000, reserveB: 2_000, expectedA: 0, expectedB: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amountA, amountB, err := WithdrawAmounts(tt.shares, tt.supply, tt.reserveA, tt.reserveB)
			if err != nil {
				t.Fatalf("WithdrawAmounts: %v", err)
			}
			if amountA != tt.expectedA || amountB != tt.expectedB {
				t.Errorf("got (%d, %d), want (%d, %d)", amountA, amountB, tt.expectedA, tt.expectedB)
			}
		})
	}
}

func TestWithdrawAmountsZeroSupply(t *testing.T) {
	amountA, amountB, err := WithdrawAmounts(100, 0, 1_000, 2_000)
	if err != nil {
		t.Fatalf("WithdrawAmounts: %v", err)
	}
	if amountA != 0 || amountB != 0 {
		t.Errorf("zero supply should pay out nothing, got (%d, %d)", amountA, amountB)
	}
}
