// Package app は設定から各層を組み立てます（依存性注入）
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"jo3qma.com/autosniper/internal/config"
	"jo3qma.com/autosniper/internal/domain/lifecycle"
	"jo3qma.com/autosniper/internal/domain/repository"
	"jo3qma.com/autosniper/internal/handler"
	"jo3qma.com/autosniper/internal/infrastructure/csvstore"
	"jo3qma.com/autosniper/internal/infrastructure/grays"
	"jo3qma.com/autosniper/internal/infrastructure/llm"
	"jo3qma.com/autosniper/internal/infrastructure/postgres"
	"jo3qma.com/autosniper/internal/usecase"
)

// App は組み立て済みのユースケース一式です
type App struct {
	Refresh   *usecase.RefreshUsecase
	Partition *usecase.PartitionUsecase
	Discovery *usecase.DiscoveryUsecase
	Extract   *usecase.ExtractUsecase
	Catalog   *usecase.CatalogUsecase
	Verdict   *usecase.VerdictUsecase // APIキーがない場合は nil

	pool *pgxpool.Pool
}

// New は設定に従って依存関係を組み立てます
// DBの代わりにCSVストアとスクレイパーを注入することで、腐敗防止層のパターンを実現します
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	stores := usecase.ListingStores{
		Canonical: csvstore.NewListingStore(cfg.Path(cfg.CanonicalFile)),
		Active:    csvstore.NewListingStore(cfg.Path(cfg.ActiveFile)),
		Sold:      csvstore.NewListingStore(cfg.Path(cfg.SoldFile)),
		Referred:  csvstore.NewListingStore(cfg.Path(cfg.ReferredFile)),
	}
	links := csvstore.NewLinkStore(cfg.Path(cfg.LinksFile))
	verdicts := csvstore.NewVerdictStore(cfg.Path(cfg.VerdictsFile))

	opts := grays.Options{
		BaseURL:    cfg.BaseURL,
		SearchPath: cfg.SearchPath,
		Timeout:    cfg.HTTPTimeout,
		Attempts:   cfg.FetchAttempts,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	}

	a := &App{}

	var mirror repository.ListingMirror
	if cfg.MirrorEnabled() {
		pool, err := postgres.Open(ctx, cfg.PGDSN, cfg.PGMaxConns)
		if err != nil {
			return nil, err
		}
		m := postgres.NewMirror(pool, cfg.PGSchema)
		if err := m.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		a.pool = pool
		mirror = m
		logger.Info("postgres mirror enabled", "schema", cfg.PGSchema)
	}

	a.Refresh = usecase.NewRefreshUsecase(stores.Canonical, grays.NewAuctionScraper(opts), lifecycle.NewClassifier(nil), logger)
	a.Partition = usecase.NewPartitionUsecase(stores, mirror, logger)
	a.Discovery = usecase.NewDiscoveryUsecase(grays.NewSearchScraper(opts), links, logger)
	a.Extract = usecase.NewExtractUsecase(usecase.ExtractStores{
		Links:     links,
		Canonical: stores.Canonical,
		Sold:      stores.Sold,
		Referred:  stores.Referred,
	}, grays.NewDetailScraper(opts), csvstore.NewSkippedLinkLog(cfg.Path(cfg.SkippedLinksFile)), logger)
	a.Catalog = usecase.NewCatalogUsecase(stores, verdicts)

	if cfg.OpenAIAPIKey != "" {
		oracle, err := llm.NewOpenAIOracle(cfg.OpenAIAPIKey, cfg.LLMModel)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Verdict = usecase.NewVerdictUsecase(stores, verdicts, oracle, logger)
	}

	return a, nil
}

// Handler は Connect のルーティングを登録した http.Handler を返します
func (a *App) Handler() http.Handler {
	var estimator handler.Estimator
	if a.Verdict != nil {
		estimator = a.Verdict
	}
	h := handler.NewListingHandler(a.Catalog, a.Refresh, a.Partition, estimator)

	mux := http.NewServeMux()
	path, svc := handler.NewListingServiceHandler(h)
	mux.Handle(path, svc)
	return mux
}

// RequireVerdict は価格推定が使えない場合にエラーを返します
func (a *App) RequireVerdict() (*usecase.VerdictUsecase, error) {
	if a.Verdict == nil {
		return nil, fmt.Errorf("pricing oracle is not configured: set OPENAI_API_KEY")
	}
	return a.Verdict, nil
}

// Close は外部接続を閉じます
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
