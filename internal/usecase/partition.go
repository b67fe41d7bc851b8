package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"jo3qma.com/autosniper/internal/domain/model"
	"jo3qma.com/autosniper/internal/domain/repository"
)

// ListingStores は出品データセットの組です
type ListingStores struct {
	Canonical repository.ListingStore
	Active    repository.ListingStore
	Sold      repository.ListingStore
	Referred  repository.ListingStore
}

// ByBucket はデータセット名に対応するストアを返します
func (s ListingStores) ByBucket(b model.Bucket) (repository.ListingStore, error) {
	switch b {
	case model.BucketAll:
		return s.Canonical, nil
	case model.BucketActive:
		return s.Active, nil
	case model.BucketSold:
		return s.Sold, nil
	case model.BucketReferred:
		return s.Referred, nil
	default:
		return nil, model.ErrInvalidBucket
	}
}

// PartitionUsecase は正規データセットを状態ごとのデータセットへ振り分けます
type PartitionUsecase struct {
	stores ListingStores
	mirror repository.ListingMirror
	logger *slog.Logger
}

// NewPartitionUsecase は新しいPartitionUsecaseインスタンスを作成します
// mirror は nil でも構いません
func NewPartitionUsecase(stores ListingStores, mirror repository.ListingMirror, logger *slog.Logger) *PartitionUsecase {
	return &PartitionUsecase{
		stores: stores,
		mirror: mirror,
		logger: loggerOrDefault(logger),
	}
}

// Partition は振り分けを1回実行します
// 書き込み順は Sold / Referred → Active → 正規データセットです。途中で失敗しても
// 行が失われることはなく、最悪でも重複するだけになります
func (u *PartitionUsecase) Partition(ctx context.Context) (*model.PartitionSummary, error) {
	summary := &model.PartitionSummary{RunID: newRunID()}
	log := u.logger.With("run_id", summary.RunID, "stage", "partition")

	canonical, err := u.stores.Canonical.Load(ctx)
	if errors.Is(err, model.ErrStoreNotFound) {
		summary.NoOp = noOpStoreNotFound
		log.Warn("partition skipped", "reason", summary.NoOp)
		return summary, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load canonical listings: %w", err)
	}
	canonical = dedupeByURL(canonical)
	summary.Total = len(canonical)

	var active, sold, referred, unknown []*model.Listing
	for _, l := range canonical {
		switch l.State.Bucket() {
		case model.BucketActive:
			active = append(active, l)
		case model.BucketSold:
			sold = append(sold, l)
		case model.BucketReferred:
			referred = append(referred, l)
		default:
			unknown = append(unknown, l)
		}
	}
	summary.Active = len(active)
	summary.Sold = len(sold)
	summary.Referred = len(referred)
	summary.Unclassified = len(unknown)

	// 他のデータセットに属する行をアーカイブから除き、データセット同士を排他に保つ
	notSold := urlSet(append(append(append([]*model.Listing{}, active...), referred...), unknown...))
	notReferred := urlSet(append(append(append([]*model.Listing{}, active...), sold...), unknown...))

	soldMerged, err := u.mergeArchive(ctx, u.stores.Sold, sold, notSold)
	if err != nil {
		return nil, fmt.Errorf("failed to update sold listings: %w", err)
	}
	summary.SoldTotal = len(soldMerged)

	referredMerged, err := u.mergeArchive(ctx, u.stores.Referred, referred, notReferred)
	if err != nil {
		return nil, fmt.Errorf("failed to update referred listings: %w", err)
	}
	summary.ReferredTotal = len(referredMerged)

	if err := u.stores.Active.Save(ctx, active); err != nil {
		return nil, fmt.Errorf("failed to save active listings: %w", err)
	}

	remaining := append(append([]*model.Listing{}, active...), unknown...)
	if err := u.stores.Canonical.Save(ctx, remaining); err != nil {
		return nil, fmt.Errorf("failed to save canonical listings: %w", err)
	}

	if u.mirror != nil {
		summary.Mirrored = u.mirrorAll(ctx, log, map[model.Bucket][]*model.Listing{
			model.BucketActive:   active,
			model.BucketSold:     soldMerged,
			model.BucketReferred: referredMerged,
		})
	}

	log.Info("partition finished",
		"total", summary.Total,
		"active", summary.Active,
		"sold", summary.Sold,
		"referred", summary.Referred,
		"unclassified", summary.Unclassified,
		"sold_total", summary.SoldTotal,
		"referred_total", summary.ReferredTotal,
	)
	return summary, nil
}

// mergeArchive はアーカイブの既存行に今回の行を統合して保存します
// ファイルがない場合は今回の行だけで作成します（0行ならヘッダーのみ）
func (u *PartitionUsecase) mergeArchive(
	ctx context.Context,
	store repository.ListingStore,
	next []*model.Listing,
	exclude map[string]bool,
) ([]*model.Listing, error) {
	prior, err := store.Load(ctx)
	if err != nil && !errors.Is(err, model.ErrStoreNotFound) {
		return nil, err
	}

	merged := mergeByURL(dedupeByURL(prior), next, exclude)
	if err := store.Save(ctx, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// mirrorAll は全データセットを外部データベースへ複製します
// 複製の失敗はログに残すだけで振り分け自体は成功として扱います
func (u *PartitionUsecase) mirrorAll(ctx context.Context, log *slog.Logger, buckets map[model.Bucket][]*model.Listing) bool {
	ok := true
	for _, bucket := range []model.Bucket{model.BucketActive, model.BucketSold, model.BucketReferred} {
		if err := u.mirror.Mirror(ctx, bucket, buckets[bucket]); err != nil {
			ok = false
			log.Error("failed to mirror listings", "bucket", string(bucket), "error", err)
		}
	}
	return ok
}
