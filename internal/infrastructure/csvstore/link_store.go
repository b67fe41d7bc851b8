package csvstore

import (
	"context"
	"slices"

	"jo3qma.com/autosniper/internal/domain/model"
	"jo3qma.com/autosniper/internal/domain/repository"
)

type linkStore struct {
	path string
}

// NewLinkStore は収集リンク（url 列のみのCSV）のストアを作成します
func NewLinkStore(path string) repository.LinkStore {
	return &linkStore{path: path}
}

// Load は重複と空行を除いたURLをファイル順で返します
func (s *linkStore) Load(ctx context.Context) ([]string, error) {
	header, records, err := readAll(s.path)
	if err != nil {
		return nil, err
	}

	col, ok := headerIndex(header)["url"]
	if !ok {
		return nil, nil
	}

	seen := make(map[string]bool, len(records))
	urls := make([]string, 0, len(records))
	for _, record := range records {
		if col >= len(record) {
			continue
		}
		u := model.CleanURL(record[col])
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	return urls, nil
}

// Save は毎回スナップショットとして全体を置き換えます（追記ではありません）
// URLは重複を除いてソートしてから書き出します
func (s *linkStore) Save(ctx context.Context, urls []string) error {
	sorted := slices.Clone(urls)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	records := make([][]string, 0, len(sorted))
	for _, u := range sorted {
		records = append(records, []string{u})
	}
	return writeAtomic(s.path, []string{"url"}, records)
}
