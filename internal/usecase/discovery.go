package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"jo3qma.com/autosniper/internal/domain/model"
	"jo3qma.com/autosniper/internal/domain/repository"
)

// 収集の終了理由
const (
	DiscoveryCompleted  = "completed"
	DiscoveryNoNewLinks = "stopped: no new links"
	DiscoveryFetchError = "halted: fetch error"
)

// DiscoveryUsecase は検索結果ページを巡回して出品URLを収集します
type DiscoveryUsecase struct {
	search repository.SearchRepository
	links  repository.LinkStore
	logger *slog.Logger
}

// NewDiscoveryUsecase は新しいDiscoveryUsecaseインスタンスを作成します
func NewDiscoveryUsecase(search repository.SearchRepository, links repository.LinkStore, logger *slog.Logger) *DiscoveryUsecase {
	return &DiscoveryUsecase{
		search: search,
		links:  links,
		logger: loggerOrDefault(logger),
	}
}

// Discover は1ページ目から順に検索結果を取得し、収集したURLでリンクストアを置き換えます
// 取得エラーは処理の中断として Status に記録し、それまでに集めたURLは保存します
func (u *DiscoveryUsecase) Discover(ctx context.Context) (*model.DiscoverySummary, error) {
	summary := &model.DiscoverySummary{RunID: newRunID(), MaxPages: 1, Status: DiscoveryCompleted}
	log := u.logger.With("run_id", summary.RunID, "stage", "discovery")

	seen := make(map[string]bool)
	for page := 1; page <= summary.MaxPages; page++ {
		result, err := u.search.FetchSearchPage(ctx, page)
		if err != nil {
			summary.Status = DiscoveryFetchError
			log.Error("failed to fetch search page", "page", page, "error", err)
			break
		}
		summary.PagesProcessed++
		if page == 1 && result.LastPage > 1 {
			summary.MaxPages = result.LastPage
		}

		added := 0
		for _, link := range result.Links {
			link = model.CleanURL(link)
			if link == "" || seen[link] {
				continue
			}
			seen[link] = true
			added++
		}
		summary.TotalLinks += result.RawCount
		log.Info("search page processed", "page", page, "max_pages", summary.MaxPages, "found", result.RawCount, "new", added)

		if added == 0 {
			summary.Status = DiscoveryNoNewLinks
			break
		}
	}

	urls := make([]string, 0, len(seen))
	for link := range seen {
		urls = append(urls, link)
	}
	slices.Sort(urls)
	summary.UniqueLinks = len(urls)

	// 1件も集められずに中断した場合は既存のリンクストアを残す
	if len(urls) == 0 && summary.Status == DiscoveryFetchError {
		log.Warn("no links collected, keeping existing link store")
		return summary, nil
	}

	if err := u.links.Save(ctx, urls); err != nil {
		return nil, fmt.Errorf("failed to save links: %w", err)
	}
	summary.LinksSaved = len(urls)

	log.Info("discovery finished",
		"pages", summary.PagesProcessed,
		"max_pages", summary.MaxPages,
		"total_links", summary.TotalLinks,
		"unique_links", summary.UniqueLinks,
		"status", summary.Status,
	)
	return summary, nil
}
