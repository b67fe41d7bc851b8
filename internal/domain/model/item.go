package model

import (
	"regexp"
	"strings"

	"4d63.com/optional"
)

// Unavailable は値が取得できなかったことを表すストレージ上のセンチネルです
// ドメイン内部では optional.Optional / 空文字で表現し、CSVの読み書き時にのみ変換します
const Unavailable = "N/A"

// Listing は車両オークション出品のドメインモデルです
// 外部サイト（Grays）のHTML構造を知らない、純粋なデータ構造を定義します
type Listing struct {
	URL     string  // 正規化済みURL（全データセット共通の識別子）
	Details Details // 取得時に一度だけ設定される静的属性
	Auction Auction // 再取得のたびに更新される入札情報
	State   State   // ライフサイクル状態
}

// Details は出品ページから抽出される静的な車両属性です
// 空文字は「取得できなかった」ことを意味します
type Details struct {
	Year             string
	Make             string
	Model            string
	Variant          string
	BodyType         string
	NoOfSeats        string
	BuildDate        string
	ComplianceDate   string
	VIN              string
	RegoNo           string
	RegoState        string
	RegoExpiry       string
	NoOfPlates       string
	NoOfCylinders    string
	EngineCapacity   string
	FuelType         string
	Transmission     string
	OdometerReading  string
	OdometerUnit     string
	ExteriorColour   string
	InteriorColour   string
	Key              string
	SpareKey         string
	OwnersManual     string
	ServiceHistory   string
	EngineTurnsOver  string
	Location         string
	GeneralCondition string
	FeaturesList     string
}

// Auction は再取得で上書きされる入札情報です
type Auction struct {
	Price          optional.Optional[string] // 通貨表記のまま保持（数値化しない）
	Bids           int                       // 入札数。不明な場合は0
	TimeLeftOrSold optional.Optional[string] // 残り時間（"2d 4h"など）または落札を確認した日付
}

// Title は "年式 メーカー モデル グレード" 形式の表示名を返します
func (l *Listing) Title() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{l.Details.Year, l.Details.Make, l.Details.Model, l.Details.Variant} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Clone はスライス操作で元データを壊さないためのコピーを返します
func (l *Listing) Clone() *Listing {
	c := *l
	return &c
}

var hrefPattern = regexp.MustCompile(`href="([^"]+)"`)

// CleanURL は識別子として使えるURLに正規化します
// <a href="..."> で包まれた値からはURLだけを取り出し、それ以外はそのまま（前後の空白のみ除去）返します
func CleanURL(raw string) string {
	if m := hrefPattern.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

// IsFetchable は再取得の対象にできるURLかどうかを判定します
func IsFetchable(url string) bool {
	return strings.HasPrefix(url, "http")
}
