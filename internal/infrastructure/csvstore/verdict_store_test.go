package csvstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"jo3qma.com/autosniper/internal/domain/model"
)

func TestVerdictStore_Append_keepsHistory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "verdicts.csv")
	store := NewVerdictStore(path)
	ctx := context.Background()

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Load len got %d, want 0", len(got))
	}

	first := &model.Verdict{URL: "https://www.grays.com/lot/1", ResaleEstimate: "$10,000", MaxBid: "$7,000", ProfitMarginPercent: "30%", Label: "Good"}
	second := &model.Verdict{URL: "https://www.grays.com/lot/1", ResaleEstimate: "$9,000", MaxBid: "$8,500", ProfitMarginPercent: "5%"}
	for _, v := range []*model.Verdict{first, second} {
		if err := store.Append(ctx, v); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []*model.Verdict{first, second}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Load mismatch (-want +got):\n%s", diff)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.HasPrefix(string(raw), strings.Join(VerdictColumns, ",")+"\n") {
		t.Fatalf("header got %q", raw)
	}
	if !strings.HasSuffix(string(raw), ",N/A\n") {
		t.Fatalf("empty verdict label should be written as %q: %q", model.Unavailable, raw)
	}
}

func TestSkippedLinkLog_Append(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "skipped.txt")
	log := NewSkippedLinkLog(path)
	ctx := context.Background()

	if err := log.Append(ctx, []string{"https://www.grays.com/lot/1", "https://www.grays.com/lot/2"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := log.Append(ctx, nil); err != nil {
		t.Fatalf("Append(nil): %v", err)
	}
	if err := log.Append(ctx, []string{"https://www.grays.com/lot/3"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "https://www.grays.com/lot/1\nhttps://www.grays.com/lot/2\nhttps://www.grays.com/lot/3\n"
	if string(raw) != want {
		t.Fatalf("log got %q, want %q", raw, want)
	}
}

func TestVerdictStore_Append_preservesLegacyRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "verdicts.csv")
	legacy := "year,make,url,resale_estimate,max_bid,profit_margin_percent,verdict\n" +
		"2010,Mazda,,$4,000,$2,500,20%,Good\n"
	legacy = strings.Replace(legacy, "$4,000,$2,500", "\"$4,000\",\"$2,500\"", 1)
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store := NewVerdictStore(path)
	v := &model.Verdict{URL: "https://www.grays.com/lot/5", ResaleEstimate: "$9,000", MaxBid: "$6,000", ProfitMarginPercent: "15%", Label: "Profitable"}
	if err := store.Append(context.Background(), v); err != nil {
		t.Fatalf("Append: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "year,make,url,resale_estimate,max_bid,profit_margin_percent,verdict\n" +
		"2010,Mazda,,\"$4,000\",\"$2,500\",20%,Good\n" +
		"N/A,N/A,https://www.grays.com/lot/5,\"$9,000\",\"$6,000\",15%,Profitable\n"
	if string(raw) != want {
		t.Fatalf("file got %q, want %q", raw, want)
	}

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff([]*model.Verdict{v}, got); diff != "" {
		t.Fatalf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestVerdictStore_Append_addsMissingColumns(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "verdicts.csv")
	if err := os.WriteFile(path, []byte("url,verdict\nhttps://www.grays.com/lot/1,Good\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store := NewVerdictStore(path)
	v := &model.Verdict{URL: "https://www.grays.com/lot/2", ResaleEstimate: "$1", MaxBid: "$1", ProfitMarginPercent: "1%", Label: "Poor"}
	if err := store.Append(context.Background(), v); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []*model.Verdict{
		{URL: "https://www.grays.com/lot/1", Label: "Good"},
		v,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Load mismatch (-want +got):\n%s", diff)
	}
}
