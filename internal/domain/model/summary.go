package model

// RefreshSummary は入札情報の再取得1回分の結果です
type RefreshSummary struct {
	RunID    string
	Total    int    // データセットの行数
	Targeted int    // 対象に選ばれた行数
	Updated  int    // 取得に成功して更新した行数
	Failed   int    // 取得に失敗し、センチネル値で更新した行数
	Skipped  int    // URLが不正で対象外にした行数
	NoOp     string // 何もしなかった場合の理由。空なら通常終了
}

// Visited は状態を推定し直した行数を返します
func (s *RefreshSummary) Visited() int {
	return s.Updated + s.Failed
}

// PartitionSummary はデータセット振り分け1回分の結果です
type PartitionSummary struct {
	RunID         string
	Total         int // 振り分け前の正規データセットの行数
	Active        int // 今回の Active 行数
	Sold          int // 今回振り分けた Sold 行数
	Referred      int // 今回振り分けた Referred（Canceled / Closed を含む）行数
	Unclassified  int // 状態不明のため正規データセットに残した行数
	SoldTotal     int // 統合後の Sold データセットの行数
	ReferredTotal int // 統合後の Referred データセットの行数
	Mirrored      bool
	NoOp          string
}

// DiscoverySummary はリンク収集1回分の統計です
type DiscoverySummary struct {
	RunID          string
	PagesProcessed int
	MaxPages       int
	TotalLinks     int // 全ページの一致数（重複を含む）
	UniqueLinks    int
	LinksSaved     int
	Status         string
}

// ExtractSummary は詳細抽出1回分の結果です
type ExtractSummary struct {
	RunID     string
	KnownURLs int      // 既存データセットに含まれていたURL数
	NewURLs   int      // 今回処理対象になったURL数
	Extracted int      // 抽出に成功した件数
	Skipped   []string // 取得に失敗したURL
	Total     int      // 保存後の正規データセットの行数
	NoOp      string
}

// StatusSummary は正規データセットの状態別件数です
type StatusSummary struct {
	Active   int
	Sold     int
	Referred int
	Unknown  int
	Total    int
	NoOp     string // データセットがない場合の理由
}
