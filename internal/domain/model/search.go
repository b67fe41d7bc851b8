package model

// SearchPage は検索結果1ページ分の候補リンクです
type SearchPage struct {
	Links    []string // ページ内で重複を除いた出品URL
	RawCount int      // 重複を含む一致数
	LastPage int      // ページネーションから読み取った最終ページ。読み取れない場合は1
}

// AuctionSnapshot は出品ページから取り出した入札情報の生テキストです
// 状態の推定は lifecycle パッケージが行い、ここでは解釈しません
type AuctionSnapshot struct {
	RawPrice string // 例: "$12,400"。見つからない場合は "N/A"
	RawBids  string // 例: "3 bids"。見つからない場合は空
	RawTime  string // 例: "2d 4h"。カウントダウンがない場合は "Auction Ended"
}

// FailedSnapshot は取得に失敗したときに代わりに使うスナップショットです
func FailedSnapshot() AuctionSnapshot {
	return AuctionSnapshot{
		RawPrice: Unavailable,
		RawBids:  "0",
		RawTime:  "Auction Ended",
	}
}
