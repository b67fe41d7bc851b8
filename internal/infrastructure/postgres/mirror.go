// Package postgres は振り分け後の出品を PostgreSQL に複製します
// CSV が正のデータで、こちらは集計・検索用の写しです
package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"jo3qma.com/autosniper/internal/domain/model"
	"jo3qma.com/autosniper/internal/domain/repository"
)

const defaultBatchSize = 200

// querier は *pgxpool.Pool のうち複製で使う部分です
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Mirror は repository.ListingMirror の PostgreSQL 実装です
type Mirror struct {
	db        querier
	table     string
	batchSize int
}

var _ repository.ListingMirror = (*Mirror)(nil)

// Open は DSN から接続プールを作成します
func Open(ctx context.Context, dsn string, maxConns int) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pg dsn: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 2
	}
	cfg.MaxConns = int32(maxConns)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	return pool, nil
}

// NewMirror は接続プールを使う Mirror を作成します
// schema が空の場合は search_path に従います
func NewMirror(pool *pgxpool.Pool, schema string) *Mirror {
	return newMirror(pool, schema)
}

func newMirror(db querier, schema string) *Mirror {
	table := "listings"
	if schema != "" {
		table = pgx.Identifier{schema, "listings"}.Sanitize()
	}
	return &Mirror{db: db, table: table, batchSize: defaultBatchSize}
}

// columns は url と row_hash / mirrored_at 以外の列です（順序は mirrorArgs と対応）
var columns = []string{
	"bucket", "status", "price", "bids", "time_remaining_or_date_sold",
	"year", "make", "model", "variant", "body_type", "no_of_seats", "build_date",
	"compliance_date", "vin", "rego_no", "rego_state", "rego_expiry", "no_of_plates",
	"no_of_cylinders", "engine_capacity", "fuel_type", "transmission", "odometer_reading",
	"odometer_unit", "exterior_colour", "interior_colour", "key", "spare_key",
	"owners_manual", "service_history", "engine_turns_over", "location",
	"general_condition", "features_list",
}

// EnsureSchema は listings テーブルがなければ作成します
func (m *Mirror) EnsureSchema(ctx context.Context) error {
	defs := make([]string, 0, len(columns)+3)
	defs = append(defs, "url TEXT PRIMARY KEY")
	for _, c := range columns {
		typ := "TEXT"
		if c == "bids" {
			typ = "INTEGER NOT NULL DEFAULT 0"
		}
		defs = append(defs, fmt.Sprintf("%s %s", quoteIdent(c), typ))
	}
	defs = append(defs, "row_hash BIGINT NOT NULL", "mirrored_at TIMESTAMPTZ NOT NULL DEFAULT now()")

	sql := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", m.table, strings.Join(defs, ",\n\t"))
	if _, err := m.db.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create listings table: %w", err)
	}
	return nil
}

// Mirror は出品をまとめて upsert します
// 内容が変わっていない行（row_hash が同じ行）は更新しません
func (m *Mirror) Mirror(ctx context.Context, bucket model.Bucket, listings []*model.Listing) error {
	sql := m.upsertSQL()

	for i := 0; i < len(listings); i += m.batchSize {
		j := min(i+m.batchSize, len(listings))

		b := &pgx.Batch{}
		count := 0
		for _, l := range listings[i:j] {
			if strings.TrimSpace(l.URL) == "" {
				continue
			}
			b.Queue(sql, mirrorArgs(bucket, l)...)
			count++
		}
		if count == 0 {
			continue
		}

		br := m.db.SendBatch(ctx, b)
		for k := 0; k < count; k++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("upsert %s listings: %w", bucket, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("upsert %s listings: %w", bucket, err)
		}
	}
	return nil
}

func (m *Mirror) upsertSQL() string {
	names := make([]string, 0, len(columns)+2)
	placeholders := make([]string, 0, len(columns)+2)
	updates := make([]string, 0, len(columns)+2)

	names = append(names, "url")
	placeholders = append(placeholders, "$1")
	for i, c := range columns {
		names = append(names, quoteIdent(c))
		placeholders = append(placeholders, "$"+strconv.Itoa(i+2))
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", quoteIdent(c), quoteIdent(c)))
	}
	names = append(names, "row_hash")
	placeholders = append(placeholders, "$"+strconv.Itoa(len(columns)+2))
	updates = append(updates, "row_hash = EXCLUDED.row_hash", "mirrored_at = now()")

	return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)
ON CONFLICT (url) DO UPDATE SET %s
WHERE %s.row_hash IS DISTINCT FROM EXCLUDED.row_hash`,
		m.table,
		strings.Join(names, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
		m.table,
	)
}

// mirrorArgs は upsertSQL のプレースホルダに対応する値を返します
func mirrorArgs(bucket model.Bucket, l *model.Listing) []any {
	d := l.Details
	values := []string{
		string(bucket), l.State.String(), "", "", "",
		d.Year, d.Make, d.Model, d.Variant, d.BodyType, d.NoOfSeats, d.BuildDate,
		d.ComplianceDate, d.VIN, d.RegoNo, d.RegoState, d.RegoExpiry, d.NoOfPlates,
		d.NoOfCylinders, d.EngineCapacity, d.FuelType, d.Transmission, d.OdometerReading,
		d.OdometerUnit, d.ExteriorColour, d.InteriorColour, d.Key, d.SpareKey,
		d.OwnersManual, d.ServiceHistory, d.EngineTurnsOver, d.Location,
		d.GeneralCondition, d.FeaturesList,
	}

	args := make([]any, 0, len(values)+2)
	args = append(args, l.URL)
	for i, v := range values {
		switch columns[i] {
		case "price":
			args = append(args, optionalText(l.Auction.Price.Get()))
		case "bids":
			args = append(args, l.Auction.Bids)
		case "time_remaining_or_date_sold":
			args = append(args, optionalText(l.Auction.TimeLeftOrSold.Get()))
		default:
			args = append(args, nullableText(v))
		}
	}
	args = append(args, rowHash(args))
	return args
}

// rowHash は行の内容から変更検知用のハッシュを計算します
// BIGINT に収めるため int64 として扱います
func rowHash(args []any) int64 {
	h := xxhash.New()
	for _, a := range args {
		switch v := a.(type) {
		case *string:
			if v != nil {
				_, _ = h.WriteString(*v)
			}
		default:
			_, _ = h.WriteString(fmt.Sprint(v))
		}
		_, _ = h.WriteString("\x1f")
	}
	return int64(h.Sum64())
}

func optionalText(v string, ok bool) *string {
	if !ok {
		return nil
	}
	return nullableText(v)
}

func nullableText(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
