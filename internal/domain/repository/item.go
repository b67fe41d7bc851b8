package repository

import (
	"context"

	"jo3qma.com/autosniper/internal/domain/model"
)

// ListingDetailRepository は出品詳細の取得方法を抽象化します。
// 実装がスクレイピングなのか外部APIなのかはドメイン層は知りません。
// これにより、腐敗防止層（Anti-Corruption Layer）のパターンを実現します。
type ListingDetailRepository interface {
	// FetchListing は出品ページから静的属性を抽出し、状態 Active の Listing を返します
	FetchListing(ctx context.Context, url string) (*model.Listing, error)
}

// AuctionPageRepository は出品ページの入札情報の取得方法を抽象化します。
type AuctionPageRepository interface {
	// FetchSnapshot は価格・入札数・残り時間の生テキストを取得します
	// リトライ後も失敗した場合はエラーを返し、代替値の判断は呼び出し側が行います
	FetchSnapshot(ctx context.Context, url string) (model.AuctionSnapshot, error)
}
