package csvstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"jo3qma.com/autosniper/internal/domain/repository"
)

type skippedLog struct {
	path string
}

// NewSkippedLinkLog は取得できなかったURLを1行ずつ追記するログを作成します
func NewSkippedLinkLog(path string) repository.SkippedLinkLog {
	return &skippedLog{path: path}
}

func (s *skippedLog) Append(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create log dir: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open skipped link log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(strings.Join(urls, "\n") + "\n"); err != nil {
		return fmt.Errorf("failed to write skipped link log: %w", err)
	}
	return nil
}
