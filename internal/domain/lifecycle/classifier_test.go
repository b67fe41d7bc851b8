package lifecycle

import (
	"testing"
	"time"

	"jo3qma.com/autosniper/internal/domain/model"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
}

func TestClassifier_Classify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		snap      model.AuctionSnapshot
		wantState model.State
		wantPrice string
		wantBids  int
		wantTime  string // 空文字は値なし
	}{
		{
			name:      "countdown is active",
			snap:      model.AuctionSnapshot{RawPrice: "$8,200", RawBids: "4 bids", RawTime: "2d 4h"},
			wantState: model.StateActive,
			wantPrice: "$8,200",
			wantBids:  4,
			wantTime:  "2d 4h",
		},
		{
			name:      "countdown wins over price and bids",
			snap:      model.AuctionSnapshot{RawPrice: "$100", RawBids: "1 bid", RawTime: "35m"},
			wantState: model.StateActive,
			wantPrice: "$100",
			wantBids:  1,
			wantTime:  "35m",
		},
		{
			name:      "ended with price and bids is sold",
			snap:      model.AuctionSnapshot{RawPrice: "$12,400", RawBids: "3 bids", RawTime: "Auction Ended"},
			wantState: model.StateSold,
			wantPrice: "$12,400",
			wantBids:  3,
			wantTime:  "2025-03-14",
		},
		{
			name:      "ended without bids is referred",
			snap:      model.AuctionSnapshot{RawPrice: "$5,000", RawBids: "", RawTime: "Auction Ended"},
			wantState: model.StateReferred,
			wantPrice: "$5,000",
		},
		{
			name:      "no price is referred",
			snap:      model.AuctionSnapshot{RawPrice: model.Unavailable, RawBids: "7 bids", RawTime: ""},
			wantState: model.StateReferred,
			wantBids:  7,
		},
	}

	c := NewClassifier(fixedClock)
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := c.Classify(tc.snap)
			if got.State != tc.wantState {
				t.Fatalf("State got %v, want %v", got.State, tc.wantState)
			}
			if price, _ := got.Auction.Price.Get(); price != tc.wantPrice {
				t.Fatalf("Price got %q, want %q", price, tc.wantPrice)
			}
			if got.Auction.Bids != tc.wantBids {
				t.Fatalf("Bids got %d, want %d", got.Auction.Bids, tc.wantBids)
			}
			timeLeft, ok := got.Auction.TimeLeftOrSold.Get()
			if tc.wantTime == "" {
				if ok {
					t.Fatalf("TimeLeftOrSold got %q, want empty", timeLeft)
				}
				return
			}
			if timeLeft != tc.wantTime {
				t.Fatalf("TimeLeftOrSold got %q, want %q", timeLeft, tc.wantTime)
			}
		})
	}
}

func TestParseBids(t *testing.T) {
	t.Parallel()

	tests := map[string]int{
		"12 bids":    12,
		" 1 bid":     1,
		"bids: 3":    0,
		"":           0,
		"N/A":        0,
		"0 bids":     0,
		"5":          5,
		"1,234 bids": 1234,
	}
	for in, want := range tests {
		if got := ParseBids(in); got != want {
			t.Fatalf("ParseBids(%q) got %d, want %d", in, got, want)
		}
	}
}

func TestParsePrice(t *testing.T) {
	t.Parallel()

	if _, ok := ParsePrice("").Get(); ok {
		t.Fatalf("empty price should be empty")
	}
	if _, ok := ParsePrice(" n/a ").Get(); ok {
		t.Fatalf("sentinel price should be empty")
	}
	if got, _ := ParsePrice(" $1,250 ").Get(); got != "$1,250" {
		t.Fatalf("ParsePrice got %q, want %q", got, "$1,250")
	}
}
