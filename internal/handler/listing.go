package handler

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"connectrpc.com/connect"
	"jo3qma.com/autosniper/internal/domain/model"
	"jo3qma.com/autosniper/internal/usecase"
)

// ListingServiceName はサービスの完全修飾名です
const ListingServiceName = "autosniper.v1.ListingService"

// 各RPCのプロシージャ名
const (
	ListListingsProcedure      = "/" + ListingServiceName + "/ListListings"
	GetSummaryProcedure        = "/" + ListingServiceName + "/GetSummary"
	ListViableProcedure        = "/" + ListingServiceName + "/ListViable"
	RefreshListingsProcedure   = "/" + ListingServiceName + "/RefreshListings"
	PartitionListingsProcedure = "/" + ListingServiceName + "/PartitionListings"
	EstimateListingProcedure   = "/" + ListingServiceName + "/EstimateListing"
)

// ErrRunInProgress は別の更新処理が実行中であることを表します
var ErrRunInProgress = errors.New("another refresh or partition run is in progress")

type ListingCatalog interface {
	List(ctx context.Context, bucket model.Bucket, filter usecase.ListFilter) ([]*usecase.CatalogEntry, error)
	Summary(ctx context.Context) (*model.StatusSummary, error)
	Viable(ctx context.Context) ([]*usecase.CatalogEntry, error)
}

type Refresher interface {
	Refresh(ctx context.Context, urls []string) (*model.RefreshSummary, error)
}

type Partitioner interface {
	Partition(ctx context.Context) (*model.PartitionSummary, error)
}

type Estimator interface {
	Estimate(ctx context.Context, url string) (*model.Verdict, error)
}

// ListingHandler はConnectのハンドラー実装です
// プロトコル層とドメイン層（usecase）を橋渡しします
type ListingHandler struct {
	catalog     ListingCatalog
	refresher   Refresher
	partitioner Partitioner
	estimator   Estimator

	// 再取得と振り分けは同じデータセットを書き換えるため同時に1つだけ実行する
	runMu sync.Mutex
}

// NewListingHandler は新しいListingHandlerインスタンスを作成します
// estimator は nil でも構いません（EstimateListing は Unimplemented を返します）
func NewListingHandler(catalog ListingCatalog, refresher Refresher, partitioner Partitioner, estimator Estimator) *ListingHandler {
	return &ListingHandler{
		catalog:     catalog,
		refresher:   refresher,
		partitioner: partitioner,
		estimator:   estimator,
	}
}

// NewListingServiceHandler はサービスの全プロシージャを束ねた http.Handler とそのパスを返します
func NewListingServiceHandler(h *ListingHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(ListListingsProcedure, connect.NewUnaryHandler(ListListingsProcedure, h.ListListings, opts...))
	mux.Handle(GetSummaryProcedure, connect.NewUnaryHandler(GetSummaryProcedure, h.GetSummary, opts...))
	mux.Handle(ListViableProcedure, connect.NewUnaryHandler(ListViableProcedure, h.ListViable, opts...))
	mux.Handle(RefreshListingsProcedure, connect.NewUnaryHandler(RefreshListingsProcedure, h.RefreshListings, opts...))
	mux.Handle(PartitionListingsProcedure, connect.NewUnaryHandler(PartitionListingsProcedure, h.PartitionListings, opts...))
	mux.Handle(EstimateListingProcedure, connect.NewUnaryHandler(EstimateListingProcedure, h.EstimateListing, opts...))
	return "/" + ListingServiceName + "/", mux
}

// ListListings はデータセットの出品一覧を返すRPCハンドラーです
func (h *ListingHandler) ListListings(
	ctx context.Context,
	req *connect.Request[ListListingsRequest],
) (*connect.Response[ListListingsResponse], error) {
	bucket, err := model.ParseBucket(req.Msg.Bucket)
	if err != nil {
		return nil, toConnectError(err)
	}

	entries, err := h.catalog.List(ctx, bucket, usecase.ListFilter{
		HideEngineIssues: req.Msg.HideEngineIssues,
		HideUnregistered: req.Msg.HideUnregistered,
		VICOnly:          req.Msg.VICOnly,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&ListListingsResponse{Listings: toListings(entries)}), nil
}

// GetSummary は状態別の件数を返すRPCハンドラーです
func (h *ListingHandler) GetSummary(
	ctx context.Context,
	req *connect.Request[GetSummaryRequest],
) (*connect.Response[GetSummaryResponse], error) {
	s, err := h.catalog.Summary(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&GetSummaryResponse{
		Active:   s.Active,
		Sold:     s.Sold,
		Referred: s.Referred,
		Unknown:  s.Unknown,
		Total:    s.Total,
		NoOp:     s.NoOp,
	}), nil
}

// ListViable は利益が見込める出品を返すRPCハンドラーです
func (h *ListingHandler) ListViable(
	ctx context.Context,
	req *connect.Request[ListViableRequest],
) (*connect.Response[ListViableResponse], error) {
	entries, err := h.catalog.Viable(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListViableResponse{Listings: toListings(entries)}), nil
}

// RefreshListings は入札情報の再取得を実行するRPCハンドラーです
func (h *ListingHandler) RefreshListings(
	ctx context.Context,
	req *connect.Request[RefreshListingsRequest],
) (*connect.Response[RefreshListingsResponse], error) {
	if !h.runMu.TryLock() {
		return nil, connect.NewError(connect.CodeFailedPrecondition, ErrRunInProgress)
	}
	defer h.runMu.Unlock()

	s, err := h.refresher.Refresh(ctx, req.Msg.URLs)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&RefreshListingsResponse{
		RunID:    s.RunID,
		Total:    s.Total,
		Targeted: s.Targeted,
		Updated:  s.Updated,
		Failed:   s.Failed,
		Skipped:  s.Skipped,
		NoOp:     s.NoOp,
	}), nil
}

// PartitionListings はデータセットの振り分けを実行するRPCハンドラーです
func (h *ListingHandler) PartitionListings(
	ctx context.Context,
	req *connect.Request[PartitionListingsRequest],
) (*connect.Response[PartitionListingsResponse], error) {
	if !h.runMu.TryLock() {
		return nil, connect.NewError(connect.CodeFailedPrecondition, ErrRunInProgress)
	}
	defer h.runMu.Unlock()

	s, err := h.partitioner.Partition(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&PartitionListingsResponse{
		RunID:         s.RunID,
		Total:         s.Total,
		Active:        s.Active,
		Sold:          s.Sold,
		Referred:      s.Referred,
		Unclassified:  s.Unclassified,
		SoldTotal:     s.SoldTotal,
		ReferredTotal: s.ReferredTotal,
		Mirrored:      s.Mirrored,
		NoOp:          s.NoOp,
	}), nil
}

// EstimateListing は出品の価格推定を実行するRPCハンドラーです
func (h *ListingHandler) EstimateListing(
	ctx context.Context,
	req *connect.Request[EstimateListingRequest],
) (*connect.Response[EstimateListingResponse], error) {
	if h.estimator == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pricing oracle is not configured"))
	}

	v, err := h.estimator.Estimate(ctx, req.Msg.URL)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&EstimateListingResponse{
		URL:     v.URL,
		Verdict: toVerdict(v),
	}), nil
}

// toConnectError はドメインのエラーをConnectのエラーコードに変換します
func toConnectError(err error) error {
	var malformed *model.OracleResponseError
	switch {
	case errors.Is(err, model.ErrListingNotFound), errors.Is(err, model.ErrStoreNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, model.ErrInvalidBucket):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.As(err, &malformed):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
