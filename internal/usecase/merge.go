package usecase

import (
	"log/slog"

	"github.com/google/uuid"
	"jo3qma.com/autosniper/internal/domain/model"
)

// dedupeByURL はURLを正規化し、同じURLの2行目以降を取り除きます
// 出現順は維持します
func dedupeByURL(listings []*model.Listing) []*model.Listing {
	seen := make(map[string]bool, len(listings))
	out := make([]*model.Listing, 0, len(listings))
	for _, l := range listings {
		l.URL = model.CleanURL(l.URL)
		if l.URL != "" {
			if seen[l.URL] {
				continue
			}
			seen[l.URL] = true
		}
		out = append(out, l)
	}
	return out
}

// mergeByURL は既存行に新しい行を統合します
//   - exclude に含まれるURLは既存行から取り除く（他のデータセットへ移った行）
//   - 同じURLの既存行は新しい行で置き換える（位置は既存行のまま）
//   - 新しいURLは末尾に追加する
//
// URLが空の行は識別できないため、既存行も新しい行もそのまま残します
func mergeByURL(prior, next []*model.Listing, exclude map[string]bool) []*model.Listing {
	nextByURL := make(map[string]*model.Listing, len(next))
	for _, l := range next {
		if l.URL != "" {
			nextByURL[l.URL] = l
		}
	}

	merged := make([]*model.Listing, 0, len(prior)+len(next))
	placed := make(map[string]bool, len(prior)+len(next))
	for _, l := range prior {
		if l.URL == "" {
			merged = append(merged, l)
			continue
		}
		if exclude[l.URL] || placed[l.URL] {
			continue
		}
		if replacement, ok := nextByURL[l.URL]; ok {
			l = replacement
		}
		placed[l.URL] = true
		merged = append(merged, l)
	}
	for _, l := range next {
		if l.URL != "" {
			if placed[l.URL] {
				continue
			}
			placed[l.URL] = true
		}
		merged = append(merged, l)
	}
	return merged
}

// urlSet は空でないURLの集合を返します
func urlSet(listings []*model.Listing) map[string]bool {
	set := make(map[string]bool, len(listings))
	for _, l := range listings {
		if l.URL != "" {
			set[l.URL] = true
		}
	}
	return set
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

func newRunID() string {
	return uuid.NewString()
}
