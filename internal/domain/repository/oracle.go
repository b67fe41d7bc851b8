package repository

import (
	"context"

	"jo3qma.com/autosniper/internal/domain/model"
)

// PricingOracle は出品ごとの再販価格・収益性を推定する外部機能です。
// 応答が解釈できない場合は *model.OracleResponseError を返します。
type PricingOracle interface {
	Estimate(ctx context.Context, listing *model.Listing) (*model.Verdict, error)
}
