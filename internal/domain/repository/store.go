package repository

import (
	"context"

	"jo3qma.com/autosniper/internal/domain/model"
)

// ListingStore は出品データセット1つ分の永続化を抽象化します。
// 呼び出し側はメモリ上のスライスを操作し、Save で丸ごと置き換えます。
type ListingStore interface {
	// Load はデータセット全体を読み込みます
	// ファイルが存在しない場合は model.ErrStoreNotFound を返します
	Load(ctx context.Context) ([]*model.Listing, error)

	// Save はデータセット全体をアトミックに置き換えます
	Save(ctx context.Context, listings []*model.Listing) error
}

// LinkStore は収集した出品URLの永続化を抽象化します。
type LinkStore interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, urls []string) error
}

// VerdictStore は収益性判定の追記専用ストアです。
type VerdictStore interface {
	// Load は追記された順に全行を返します。ファイルがない場合は空です
	Load(ctx context.Context) ([]*model.Verdict, error)
	Append(ctx context.Context, v *model.Verdict) error
}

// ListingMirror は振り分け後の出品を外部データベースへ複製します。
type ListingMirror interface {
	Mirror(ctx context.Context, bucket model.Bucket, listings []*model.Listing) error
}

// SkippedLinkLog は取得できなかった出品URLの記録先です。
type SkippedLinkLog interface {
	Append(ctx context.Context, urls []string) error
}
