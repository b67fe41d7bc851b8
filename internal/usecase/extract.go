package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"jo3qma.com/autosniper/internal/domain/model"
	"jo3qma.com/autosniper/internal/domain/repository"
)

const (
	noOpLinksNotFound = "link store not found"
	noOpNoNewLinks    = "no new links to extract"
)

// ExtractStores は詳細抽出で参照するデータセットの組です
// Sold / Referred は既知URLの判定にだけ使います
type ExtractStores struct {
	Links     repository.LinkStore
	Canonical repository.ListingStore
	Sold      repository.ListingStore
	Referred  repository.ListingStore
}

// ExtractUsecase は未取得の出品URLから車両の静的属性を抽出します
type ExtractUsecase struct {
	stores  ExtractStores
	details repository.ListingDetailRepository
	skipped repository.SkippedLinkLog
	logger  *slog.Logger
}

// NewExtractUsecase は新しいExtractUsecaseインスタンスを作成します
// skipped は nil でも構いません
func NewExtractUsecase(
	stores ExtractStores,
	details repository.ListingDetailRepository,
	skipped repository.SkippedLinkLog,
	logger *slog.Logger,
) *ExtractUsecase {
	return &ExtractUsecase{
		stores:  stores,
		details: details,
		skipped: skipped,
		logger:  loggerOrDefault(logger),
	}
}

// Extract はリンクストアのうち、どのデータセットにもないURLだけを取得して
// 正規データセットの末尾に追加します
func (u *ExtractUsecase) Extract(ctx context.Context) (*model.ExtractSummary, error) {
	summary := &model.ExtractSummary{RunID: newRunID()}
	log := u.logger.With("run_id", summary.RunID, "stage", "extract")

	links, err := u.stores.Links.Load(ctx)
	if errors.Is(err, model.ErrStoreNotFound) {
		summary.NoOp = noOpLinksNotFound
		log.Warn("extract skipped", "reason", summary.NoOp)
		return summary, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load links: %w", err)
	}

	existing, err := loadOptional(ctx, u.stores.Canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to load canonical listings: %w", err)
	}
	existing = dedupeByURL(existing)

	known := urlSet(existing)
	for _, store := range []repository.ListingStore{u.stores.Sold, u.stores.Referred} {
		archived, err := loadOptional(ctx, store)
		if err != nil {
			return nil, fmt.Errorf("failed to load archived listings: %w", err)
		}
		for _, l := range archived {
			known[model.CleanURL(l.URL)] = true
		}
	}
	summary.KnownURLs = len(known)

	var pending []string
	for _, link := range links {
		if !known[link] {
			pending = append(pending, link)
		}
	}
	summary.NewURLs = len(pending)
	summary.Total = len(existing)
	if len(pending) == 0 {
		summary.NoOp = noOpNoNewLinks
		log.Info("extract skipped", "reason", summary.NoOp, "known", summary.KnownURLs)
		return summary, nil
	}

	extracted := make([]*model.Listing, 0, len(pending))
	for i, link := range pending {
		listing, err := u.details.FetchListing(ctx, link)
		if err != nil {
			summary.Skipped = append(summary.Skipped, link)
			log.Warn("failed to extract listing", "url", link, "error", err)
			continue
		}
		listing.URL = link
		extracted = append(extracted, listing)
		log.Info("listing extracted", "progress", fmt.Sprintf("%d/%d", i+1, len(pending)), "url", link, "title", listing.Title())
	}
	summary.Extracted = len(extracted)

	merged := dedupeByURL(append(existing, extracted...))
	if err := u.stores.Canonical.Save(ctx, merged); err != nil {
		return nil, fmt.Errorf("failed to save canonical listings: %w", err)
	}
	summary.Total = len(merged)

	if u.skipped != nil && len(summary.Skipped) > 0 {
		if err := u.skipped.Append(ctx, summary.Skipped); err != nil {
			log.Error("failed to record skipped links", "error", err)
		}
	}

	log.Info("extract finished",
		"new", summary.NewURLs,
		"extracted", summary.Extracted,
		"skipped", len(summary.Skipped),
		"total", summary.Total,
	)
	return summary, nil
}

// loadOptional はストアを読み込み、ファイルがない場合は空として扱います
func loadOptional(ctx context.Context, store repository.ListingStore) ([]*model.Listing, error) {
	if store == nil {
		return nil, nil
	}
	listings, err := store.Load(ctx)
	if errors.Is(err, model.ErrStoreNotFound) {
		return nil, nil
	}
	return listings, err
}
