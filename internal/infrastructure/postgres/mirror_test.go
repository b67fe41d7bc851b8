package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"4d63.com/optional"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"jo3qma.com/autosniper/internal/domain/model"
)

type fakeBatchResults struct {
	execErr error
	closed  bool
}

func (r *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("INSERT 0 1"), r.execErr
}

func (r *fakeBatchResults) Query() (pgx.Rows, error) { return nil, errors.New("not implemented") }

func (r *fakeBatchResults) QueryRow() pgx.Row { return nil }

func (r *fakeBatchResults) Close() error {
	r.closed = true
	return nil
}

type fakeDB struct {
	execs   []string
	batches []*pgx.Batch
	execErr error
	results *fakeBatchResults
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (f *fakeDB) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	f.batches = append(f.batches, b)
	if f.results == nil {
		f.results = &fakeBatchResults{execErr: f.execErr}
	}
	return f.results
}

func mirrorListing(url string) *model.Listing {
	return &model.Listing{
		URL:   url,
		State: model.StateSold,
		Details: model.Details{
			Year: "2015",
			Make: "Toyota",
		},
		Auction: model.Auction{
			Price:          optional.Of("$12,400"),
			Bids:           3,
			TimeLeftOrSold: optional.Of("2025-03-14"),
		},
	}
}

func TestMirror_Mirror_batchesRows(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	m := newMirror(db, "autosniper")
	m.batchSize = 2

	listings := []*model.Listing{
		mirrorListing("https://www.grays.com/lot/1"),
		mirrorListing("https://www.grays.com/lot/2"),
		mirrorListing(""),
		mirrorListing("https://www.grays.com/lot/3"),
	}
	if err := m.Mirror(context.Background(), model.BucketSold, listings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(db.batches) != 2 {
		t.Fatalf("batches got %d, want 2", len(db.batches))
	}
	if n := db.batches[0].Len() + db.batches[1].Len(); n != 3 {
		t.Errorf("queued rows got %d, want 3", n)
	}

	q := db.batches[0].QueuedQueries[0]
	if !strings.Contains(q.SQL, `INSERT INTO "autosniper"."listings"`) {
		t.Errorf("SQL should target the schema table, got %q", q.SQL)
	}
	if !strings.Contains(q.SQL, "ON CONFLICT (url) DO UPDATE") {
		t.Errorf("SQL should upsert on url, got %q", q.SQL)
	}
	if got, want := len(q.Arguments), len(columns)+2; got != want {
		t.Fatalf("arguments got %d, want %d", got, want)
	}
	if q.Arguments[0] != "https://www.grays.com/lot/1" {
		t.Errorf("url argument got %v", q.Arguments[0])
	}
	if got, ok := q.Arguments[1].(*string); !ok || *got != "sold" {
		t.Errorf("bucket argument got %v, want sold", q.Arguments[1])
	}
	if q.Arguments[4] != 3 {
		t.Errorf("bids argument got %v, want 3", q.Arguments[4])
	}
	if !db.results.closed {
		t.Errorf("batch results should be closed")
	}
}

func TestMirror_Mirror_returnsExecError(t *testing.T) {
	t.Parallel()

	execErr := errors.New("relation does not exist")
	db := &fakeDB{execErr: execErr}
	m := newMirror(db, "")

	err := m.Mirror(context.Background(), model.BucketActive, []*model.Listing{mirrorListing("https://www.grays.com/lot/1")})
	if !errors.Is(err, execErr) {
		t.Fatalf("got error %v, want %v", err, execErr)
	}
	if !db.results.closed {
		t.Errorf("batch results should be closed after an error")
	}
}

func TestMirror_EnsureSchema(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	if err := newMirror(db, "").EnsureSchema(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(db.execs) != 1 {
		t.Fatalf("execs got %d, want 1", len(db.execs))
	}
	for _, want := range []string{"CREATE TABLE IF NOT EXISTS listings", "url TEXT PRIMARY KEY", `"features_list" TEXT`, "row_hash BIGINT"} {
		if !strings.Contains(db.execs[0], want) {
			t.Errorf("DDL should contain %q, got %q", want, db.execs[0])
		}
	}
}

func TestRowHash_changesWithContent(t *testing.T) {
	t.Parallel()

	a := mirrorArgs(model.BucketSold, mirrorListing("https://www.grays.com/lot/1"))
	b := mirrorArgs(model.BucketSold, mirrorListing("https://www.grays.com/lot/1"))
	if a[len(a)-1] != b[len(b)-1] {
		t.Errorf("identical rows should hash equally")
	}

	changed := mirrorListing("https://www.grays.com/lot/1")
	changed.Auction.Bids = 4
	c := mirrorArgs(model.BucketSold, changed)
	if a[len(a)-1] == c[len(c)-1] {
		t.Errorf("changed rows should hash differently")
	}
}

func TestNewMirror_quotesSchema(t *testing.T) {
	t.Parallel()

	tests := []struct {
		schema string
		want   string
	}{
		{"", "listings"},
		{"autosniper", `"autosniper"."listings"`},
		{`we"ird`, `"we""ird"."listings"`},
	}
	for _, tc := range tests {
		tc := tc
		if got := newMirror(&fakeDB{}, tc.schema).table; got != tc.want {
			t.Errorf("table for schema %q got %s, want %s", tc.schema, got, tc.want)
		}
	}
}
