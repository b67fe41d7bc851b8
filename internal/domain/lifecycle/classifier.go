// Package lifecycle は出品ページの入札シグナルからライフサイクル状態を推定します
//
// サイトには「落札済み」を示す明示的なフラグがないため、カウントダウン・価格・入札数の
// 組み合わせから状態を推定します。サイト固有のHTML解析は infrastructure 側が担当し、
// このパッケージは生テキストだけを受け取ります。
package lifecycle

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"4d63.com/optional"
	"jo3qma.com/autosniper/internal/domain/model"
)

// SoldDateLayout は落札を確認した日付の書式です
const SoldDateLayout = "2006-01-02"

var (
	// "2d", "5h", "30m" のような残り時間表記
	countdownPattern  = regexp.MustCompile(`(?i)\d+[dhm]`)
	leadingIntPattern = regexp.MustCompile(`^\s*(\d+)`)
)

// Outcome は推定結果です
type Outcome struct {
	State   model.State
	Auction model.Auction
}

// AuctionClassifier は入札シグナルの分類器を抽象化します
type AuctionClassifier interface {
	Classify(snap model.AuctionSnapshot) Outcome
}

// Classifier はGraysの表示仕様に合わせた決定的な分類器です
type Classifier struct {
	now func() time.Time
}

// NewClassifier は新しいClassifierを作成します
// now が nil の場合は time.Now を使います
func NewClassifier(now func() time.Time) *Classifier {
	if now == nil {
		now = time.Now
	}
	return &Classifier{now: now}
}

// Classify は以下の順で最初に一致した規則を採用します
//  1. 残り時間がカウントダウン表記なら Active（残り時間はそのまま保持）
//  2. 価格があり入札数が0でなければ Sold（日付は今回の取得日）
//  3. それ以外は Referred（残り時間は不明）
func (c *Classifier) Classify(snap model.AuctionSnapshot) Outcome {
	price := ParsePrice(snap.RawPrice)
	bids := ParseBids(snap.RawBids)
	rawTime := strings.TrimSpace(snap.RawTime)

	out := Outcome{
		Auction: model.Auction{
			Price: price,
			Bids:  bids,
		},
	}

	_, hasPrice := price.Get()
	switch {
	case countdownPattern.MatchString(rawTime):
		out.State = model.StateActive
		out.Auction.TimeLeftOrSold = optional.Of(rawTime)
	case hasPrice && bids != 0:
		out.State = model.StateSold
		out.Auction.TimeLeftOrSold = optional.Of(c.now().Format(SoldDateLayout))
	default:
		out.State = model.StateReferred
		out.Auction.TimeLeftOrSold = optional.Empty[string]()
	}
	return out
}

// ParseBids は "12 bids" や "1,234 bids" のような文字列から先頭の整数を取り出します
// 一致しない場合や数値にできない場合は0を返します
func ParseBids(s string) int {
	m := leadingIntPattern.FindStringSubmatch(strings.ReplaceAll(s, ",", ""))
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// ParsePrice は価格テキストを数値化せずに保持します
// 空文字とセンチネルは「価格なし」として扱います
func ParsePrice(s string) optional.Optional[string] {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, model.Unavailable) {
		return optional.Empty[string]()
	}
	return optional.Of(s)
}
