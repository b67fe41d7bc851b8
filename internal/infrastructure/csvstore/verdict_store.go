package csvstore

import (
	"context"
	"errors"
	"slices"

	"jo3qma.com/autosniper/internal/domain/model"
	"jo3qma.com/autosniper/internal/domain/repository"
)

type verdictStore struct {
	path string
}

// NewVerdictStore は収益性判定（追記専用CSV）のストアを作成します
func NewVerdictStore(path string) repository.VerdictStore {
	return &verdictStore{path: path}
}

// Load は追記された順に全行を返します。同じURLが複数回現れることがあります
func (s *verdictStore) Load(ctx context.Context) ([]*model.Verdict, error) {
	header, records, err := readAll(s.path)
	if errors.Is(err, model.ErrStoreNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	index := headerIndex(header)
	get := func(record []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return fromUnavailable(record[i])
	}

	verdicts := make([]*model.Verdict, 0, len(records))
	for _, record := range records {
		url := model.CleanURL(get(record, "url"))
		if url == "" {
			continue
		}
		verdicts = append(verdicts, &model.Verdict{
			URL:                 url,
			ResaleEstimate:      get(record, "resale_estimate"),
			MaxBid:              get(record, "max_bid"),
			ProfitMarginPercent: get(record, "profit_margin_percent"),
			Label:               get(record, "verdict"),
		})
	}
	return verdicts, nil
}

// Append は既存のヘッダーと行をそのまま残し、末尾に1行加えてアトミックに書き戻します
// 既存ファイルに判定の列が欠けている場合はヘッダーの末尾に追加し、既存行は空で埋めます
func (s *verdictStore) Append(ctx context.Context, v *model.Verdict) error {
	header, records, err := readAll(s.path)
	if err != nil && !errors.Is(err, model.ErrStoreNotFound) {
		return err
	}
	if len(header) == 0 {
		header = slices.Clone(VerdictColumns)
	}

	index := headerIndex(header)
	for _, col := range VerdictColumns {
		if _, ok := index[col]; !ok {
			index[col] = len(header)
			header = append(header, col)
		}
	}
	for i, record := range records {
		for len(record) < len(header) {
			record = append(record, "")
		}
		records[i] = record
	}

	values := map[string]string{
		"url":                   model.CleanURL(v.URL),
		"resale_estimate":       v.ResaleEstimate,
		"max_bid":               v.MaxBid,
		"profit_margin_percent": v.ProfitMarginPercent,
		"verdict":               v.Label,
	}
	row := make([]string, len(header))
	for i := range row {
		row[i] = model.Unavailable
	}
	for col, value := range values {
		row[index[col]] = orUnavailable(value)
	}

	return writeAtomic(s.path, header, append(records, row))
}
