package csvstore

import (
	"context"

	"jo3qma.com/autosniper/internal/domain/model"
	"jo3qma.com/autosniper/internal/domain/repository"
)

type listingStore struct {
	path string
}

// NewListingStore は出品データセット（CSV）のストアを作成します
func NewListingStore(path string) repository.ListingStore {
	return &listingStore{path: path}
}

// Load はCSV全体を読み込みます
// 列は名前で対応付けるため、列順の違いや欠けた列があっても読み込めます
func (s *listingStore) Load(ctx context.Context) ([]*model.Listing, error) {
	header, records, err := readAll(s.path)
	if err != nil {
		return nil, err
	}

	index := headerIndex(header)
	listings := make([]*model.Listing, 0, len(records))
	for _, record := range records {
		if isBlank(record) {
			continue
		}
		listings = append(listings, decodeListing(index, record))
	}
	return listings, nil
}

// Save は固定列順でCSV全体を書き出します。行が0件でもヘッダーは必ず書きます
func (s *listingStore) Save(ctx context.Context, listings []*model.Listing) error {
	records := make([][]string, 0, len(listings))
	for _, l := range listings {
		records = append(records, encodeListing(l))
	}
	return writeAtomic(s.path, ListingColumns, records)
}

func isBlank(record []string) bool {
	for _, v := range record {
		if v != "" {
			return false
		}
	}
	return true
}
