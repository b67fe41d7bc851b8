package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"jo3qma.com/autosniper/internal/domain/model"
	"jo3qma.com/autosniper/internal/domain/repository"
)

// 残り時間のグループ
const (
	TimeGroupUnderDay   = "< 24h"
	TimeGroupOneToTwo   = "1–2d"
	TimeGroupTwoToThree = "2–3d"
	TimeGroupThreePlus  = "3+d"
)

var timeGroupOrder = map[string]int{
	TimeGroupUnderDay:   0,
	TimeGroupOneToTwo:   1,
	TimeGroupTwoToThree: 2,
	TimeGroupThreePlus:  3,
}

var (
	daysPattern  = regexp.MustCompile(`(\d+)\s*d`)
	hoursPattern = regexp.MustCompile(`(\d+)\s*h`)

	engineIssueKeywords = []string{
		"engine light", "rough idle", "engine oil leak", "smoke", "seized", "blown",
		"won't start", "does not start", "engine does not turn", "no compression",
	}
)

// CatalogEntry は表示用に判定を結合した出品です
type CatalogEntry struct {
	Listing   *model.Listing
	Verdict   *model.Verdict // 判定がない場合は nil
	TimeGroup string
}

// ListFilter は一覧の絞り込み条件です。ゼロ値は絞り込みなしです
type ListFilter struct {
	HideEngineIssues bool // 状態評価にエンジン不調の記述がある車両を除く
	HideUnregistered bool // ナンバープレートが0枚の車両を除く
	VICOnly          bool
}

func (f ListFilter) match(l *model.Listing) bool {
	if f.HideEngineIssues && hasEngineIssue(l) {
		return false
	}
	if f.HideUnregistered && isUnregistered(l) {
		return false
	}
	if f.VICOnly && !strings.EqualFold(l.Details.Location, "VIC") {
		return false
	}
	return true
}

// CatalogUsecase はデータセットの読み取り専用ビューを提供します
type CatalogUsecase struct {
	stores   ListingStores
	verdicts repository.VerdictStore
}

// NewCatalogUsecase は新しいCatalogUsecaseインスタンスを作成します
func NewCatalogUsecase(stores ListingStores, verdicts repository.VerdictStore) *CatalogUsecase {
	return &CatalogUsecase{
		stores:   stores,
		verdicts: verdicts,
	}
}

// List は指定データセットの出品を最新の判定と結合して返します
// Active は残り時間の短いグループから順に並べます（グループ内はファイル順）
func (u *CatalogUsecase) List(ctx context.Context, bucket model.Bucket, filter ListFilter) ([]*CatalogEntry, error) {
	store, err := u.stores.ByBucket(bucket)
	if err != nil {
		return nil, err
	}
	listings, err := loadOptional(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s listings: %w", bucket, err)
	}
	latest, err := u.latestVerdicts(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]*CatalogEntry, 0, len(listings))
	for _, l := range listings {
		if !filter.match(l) {
			continue
		}
		entry := &CatalogEntry{
			Listing: l,
			Verdict: latest[model.CleanURL(l.URL)],
		}
		if l.State == model.StateActive {
			timeLeft, _ := l.Auction.TimeLeftOrSold.Get()
			entry.TimeGroup = TimeBucket(timeLeft)
		}
		entries = append(entries, entry)
	}

	if bucket == model.BucketActive {
		slices.SortStableFunc(entries, func(a, b *CatalogEntry) int {
			return timeGroupOrder[a.TimeGroup] - timeGroupOrder[b.TimeGroup]
		})
	}
	return entries, nil
}

// Summary は正規データセットの状態別件数を返します
// Referred には Canceled / Closed も含みます。データセットがない場合は件数0で NoOp を設定します
func (u *CatalogUsecase) Summary(ctx context.Context) (*model.StatusSummary, error) {
	listings, err := u.stores.Canonical.Load(ctx)
	if errors.Is(err, model.ErrStoreNotFound) {
		return &model.StatusSummary{NoOp: noOpStoreNotFound}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load canonical listings: %w", err)
	}

	summary := &model.StatusSummary{Total: len(listings)}
	for _, l := range listings {
		switch l.State.Bucket() {
		case model.BucketActive:
			summary.Active++
		case model.BucketSold:
			summary.Sold++
		case model.BucketReferred:
			summary.Referred++
		default:
			summary.Unknown++
		}
	}
	return summary, nil
}

// Viable は最新の判定が利益ありを示す Active の出品を返します
func (u *CatalogUsecase) Viable(ctx context.Context) ([]*CatalogEntry, error) {
	entries, err := u.List(ctx, model.BucketActive, ListFilter{})
	if err != nil {
		return nil, err
	}

	viable := entries[:0]
	for _, e := range entries {
		if e.Verdict != nil && e.Verdict.IsViable() {
			viable = append(viable, e)
		}
	}
	return viable, nil
}

func (u *CatalogUsecase) latestVerdicts(ctx context.Context) (map[string]*model.Verdict, error) {
	if u.verdicts == nil {
		return map[string]*model.Verdict{}, nil
	}
	verdicts, err := u.verdicts.Load(ctx)
	if err != nil && !errors.Is(err, model.ErrStoreNotFound) {
		return nil, fmt.Errorf("failed to load verdicts: %w", err)
	}
	return LatestVerdicts(verdicts), nil
}

// TimeBucket は "2d 4h" のような残り時間をグループ名に変換します
// 日と時間の表記がない場合は24時間未満とみなします
func TimeBucket(timeLeft string) string {
	s := strings.ToLower(timeLeft)
	hours := 0
	if m := daysPattern.FindStringSubmatch(s); m != nil {
		d, _ := strconv.Atoi(m[1])
		hours += d * 24
	}
	if m := hoursPattern.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		hours += h
	}

	switch {
	case hours < 24:
		return TimeGroupUnderDay
	case hours < 48:
		return TimeGroupOneToTwo
	case hours < 72:
		return TimeGroupTwoToThree
	default:
		return TimeGroupThreePlus
	}
}

func hasEngineIssue(l *model.Listing) bool {
	condition := strings.ToLower(l.Details.GeneralCondition)
	for _, kw := range engineIssueKeywords {
		if strings.Contains(condition, kw) {
			return true
		}
	}
	return false
}

func isUnregistered(l *model.Listing) bool {
	n, err := strconv.Atoi(strings.TrimSpace(l.Details.NoOfPlates))
	return err == nil && n == 0
}
