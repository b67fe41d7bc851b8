package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Verdict は価格推定オラクルが返した収益性の判定です
// 同じURLに複数行が追記されることがあり、最後に追記されたものを正とします
type Verdict struct {
	URL                 string
	ResaleEstimate      string // 再販価格の見込み（通貨表記）
	MaxBid              string // 利益が出る最大入札額（通貨表記）
	ProfitMarginPercent string // 利益率（"25%" や "12.5"）
	Label               string // "Good" などの定性的な判定
}

// Margin は利益率を数値で返します
// 数値として解釈できない場合は0を返します
func (v *Verdict) Margin() decimal.Decimal {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v.ProfitMarginPercent), "%"))
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// IsViable は判定ラベルが利益ありを示すか、利益率が正であれば true を返します
// "unprofitable" / "not profitable" は利益ありとはみなしません
func (v *Verdict) IsViable() bool {
	label := strings.ToLower(v.Label)
	if strings.Contains(label, "profitable") &&
		!strings.Contains(label, "unprofitable") &&
		!strings.Contains(label, "not profitable") {
		return true
	}
	return v.Margin().IsPositive()
}
