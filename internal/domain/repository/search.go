package repository

import (
	"context"

	"jo3qma.com/autosniper/internal/domain/model"
)

// SearchRepository は検索結果ページの取得方法を抽象化します。
type SearchRepository interface {
	// FetchSearchPage は指定ページの候補リンクを取得します
	// page は 1 始まりのページ番号です
	FetchSearchPage(ctx context.Context, page int) (*model.SearchPage, error)
}
