package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"jo3qma.com/autosniper/internal/domain/model"
	"jo3qma.com/autosniper/internal/domain/repository"
)

// VerdictUsecase は価格推定オラクルに出品を評価させ、判定を追記します
type VerdictUsecase struct {
	stores   ListingStores
	verdicts repository.VerdictStore
	oracle   repository.PricingOracle
	logger   *slog.Logger
}

// NewVerdictUsecase は新しいVerdictUsecaseインスタンスを作成します
func NewVerdictUsecase(
	stores ListingStores,
	verdicts repository.VerdictStore,
	oracle repository.PricingOracle,
	logger *slog.Logger,
) *VerdictUsecase {
	return &VerdictUsecase{
		stores:   stores,
		verdicts: verdicts,
		oracle:   oracle,
		logger:   loggerOrDefault(logger),
	}
}

// Estimate は指定URLの出品を評価して判定を保存します
// 解釈できない応答（*model.OracleResponseError）は保存せずにそのまま返します
func (u *VerdictUsecase) Estimate(ctx context.Context, url string) (*model.Verdict, error) {
	url = model.CleanURL(url)
	listing, err := u.findListing(ctx, url)
	if err != nil {
		return nil, err
	}

	verdict, err := u.oracle.Estimate(ctx, listing)
	if err != nil {
		var malformed *model.OracleResponseError
		if errors.As(err, &malformed) {
			u.logger.Warn("oracle response discarded", "url", url, "reason", malformed.Reason)
			return nil, err
		}
		return nil, fmt.Errorf("failed to estimate listing: %w", err)
	}
	verdict.URL = url

	if err := u.verdicts.Append(ctx, verdict); err != nil {
		return nil, fmt.Errorf("failed to save verdict: %w", err)
	}
	u.logger.Info("verdict saved",
		"url", url,
		"title", listing.Title(),
		"resale_estimate", verdict.ResaleEstimate,
		"max_bid", verdict.MaxBid,
		"margin", verdict.ProfitMarginPercent,
		"verdict", verdict.Label,
	)
	return verdict, nil
}

// findListing は正規データセット、続いてアーカイブから出品を探します
func (u *VerdictUsecase) findListing(ctx context.Context, url string) (*model.Listing, error) {
	if url == "" {
		return nil, model.ErrListingNotFound
	}
	for _, store := range []repository.ListingStore{u.stores.Canonical, u.stores.Sold, u.stores.Referred} {
		listings, err := loadOptional(ctx, store)
		if err != nil {
			return nil, fmt.Errorf("failed to load listings: %w", err)
		}
		for _, l := range listings {
			if model.CleanURL(l.URL) == url {
				return l, nil
			}
		}
	}
	return nil, fmt.Errorf("%s: %w", url, model.ErrListingNotFound)
}

// LatestVerdicts はURLごとに最後に追記された判定を返します
func LatestVerdicts(verdicts []*model.Verdict) map[string]*model.Verdict {
	latest := make(map[string]*model.Verdict, len(verdicts))
	for _, v := range verdicts {
		latest[model.CleanURL(v.URL)] = v
	}
	return latest
}
