package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"jo3qma.com/autosniper/internal/domain/lifecycle"
	"jo3qma.com/autosniper/internal/domain/model"
	"jo3qma.com/autosniper/internal/domain/repository"
)

// 何もしなかった場合の理由
const (
	noOpStoreNotFound = "listing store not found"
	noOpEmptyStore    = "listing store is empty"
	noOpNoValidURLs   = "no valid URLs were provided"
	noOpURLsNotFound  = "none of the provided URLs were found in the dataset"
)

// RefreshUsecase は出品の入札情報を再取得し、ライフサイクル状態を更新します
type RefreshUsecase struct {
	store      repository.ListingStore
	pages      repository.AuctionPageRepository
	classifier lifecycle.AuctionClassifier
	logger     *slog.Logger
}

// NewRefreshUsecase は新しいRefreshUsecaseインスタンスを作成します
func NewRefreshUsecase(
	store repository.ListingStore,
	pages repository.AuctionPageRepository,
	classifier lifecycle.AuctionClassifier,
	logger *slog.Logger,
) *RefreshUsecase {
	return &RefreshUsecase{
		store:      store,
		pages:      pages,
		classifier: classifier,
		logger:     loggerOrDefault(logger),
	}
}

// Refresh はデータセットの出品を再取得して状態を更新します
// urls が空なら全件、指定があればそのURLだけを対象にします
// データセットがない・対象がない場合はエラーではなく NoOp を設定したサマリーを返します
// ctx がキャンセルされた場合は何も保存せずにエラーを返します
func (u *RefreshUsecase) Refresh(ctx context.Context, urls []string) (*model.RefreshSummary, error) {
	summary := &model.RefreshSummary{RunID: newRunID()}
	log := u.logger.With("run_id", summary.RunID, "stage", "refresh")

	listings, err := u.store.Load(ctx)
	if errors.Is(err, model.ErrStoreNotFound) {
		summary.NoOp = noOpStoreNotFound
		log.Warn("refresh skipped", "reason", summary.NoOp)
		return summary, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load listings: %w", err)
	}
	listings = dedupeByURL(listings)
	summary.Total = len(listings)
	if len(listings) == 0 {
		summary.NoOp = noOpEmptyStore
		log.Warn("refresh skipped", "reason", summary.NoOp)
		return summary, nil
	}

	targets, noOp := selectTargets(listings, urls)
	if noOp != "" {
		summary.NoOp = noOp
		log.Warn("refresh skipped", "reason", summary.NoOp, "requested", len(urls))
		return summary, nil
	}
	summary.Targeted = len(targets)

	for _, l := range targets {
		if !model.IsFetchable(l.URL) {
			summary.Skipped++
			log.Warn("skipping listing without a fetchable url", "url", l.URL)
			continue
		}

		if err := ctx.Err(); err != nil {
			log.Warn("refresh cancelled, dataset left unchanged", "updated", summary.Updated, "failed", summary.Failed)
			return nil, fmt.Errorf("refresh cancelled: %w", err)
		}

		snap, err := u.pages.FetchSnapshot(ctx, l.URL)
		if err != nil {
			// キャンセルによる失敗はセンチネルで上書きせず、保存せずに中断する
			if ctxErr := ctx.Err(); ctxErr != nil {
				log.Warn("refresh cancelled, dataset left unchanged", "updated", summary.Updated, "failed", summary.Failed)
				return nil, fmt.Errorf("refresh cancelled: %w", ctxErr)
			}
			summary.Failed++
			log.Warn("failed to fetch auction page, using fallback values", "url", l.URL, "error", err)
			snap = model.FailedSnapshot()
		} else {
			summary.Updated++
		}

		out := u.classifier.Classify(snap)
		l.Auction = out.Auction
		l.State = out.State
		log.Info("listing refreshed",
			"url", l.URL,
			"state", l.State.String(),
			"bids", l.Auction.Bids,
		)
	}

	if err := u.store.Save(ctx, listings); err != nil {
		return nil, fmt.Errorf("failed to save listings: %w", err)
	}

	log.Info("refresh finished",
		"total", summary.Total,
		"targeted", summary.Targeted,
		"updated", summary.Updated,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)
	return summary, nil
}

// selectTargets は更新対象の行を選びます
// 指定URLのうちデータセットにないものは黙って無視します
func selectTargets(listings []*model.Listing, urls []string) ([]*model.Listing, string) {
	if len(urls) == 0 {
		return listings, ""
	}

	wanted := make(map[string]bool, len(urls))
	for _, raw := range urls {
		if u := model.CleanURL(raw); u != "" {
			wanted[u] = true
		}
	}
	if len(wanted) == 0 {
		return nil, noOpNoValidURLs
	}

	var targets []*model.Listing
	for _, l := range listings {
		if wanted[l.URL] {
			targets = append(targets, l)
		}
	}
	if len(targets) == 0 {
		return nil, noOpURLsNotFound
	}
	return targets, ""
}
