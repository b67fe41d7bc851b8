package grays

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultBaseURL はGraysのサイトURLです
	DefaultBaseURL = "https://www.grays.com"
	// DefaultSearchPath は乗用車カテゴリの検索パスです
	DefaultSearchPath = "/search/automotive-trucks-and-marine/motor-vehiclesmotor-cycles/motor-vehicles"

	defaultTimeout    = 30 * time.Second
	defaultAttempts   = 2
	defaultRetryDelay = 2 * time.Second
)

// Options はスクレイパーの接続設定です。ゼロ値の項目は既定値になります
type Options struct {
	BaseURL    string
	SearchPath string
	Timeout    time.Duration
	Attempts   int           // 1ページあたりの最大試行回数
	RetryDelay time.Duration // 試行間の待ち時間
	Logger     *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.SearchPath == "" {
		o.SearchPath = DefaultSearchPath
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Attempts <= 0 {
		o.Attempts = defaultAttempts
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	} else if o.RetryDelay == 0 {
		o.RetryDelay = defaultRetryDelay
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// fetcher はリトライ付きでHTMLを取得します
type fetcher struct {
	client     *http.Client
	attempts   int
	retryDelay time.Duration
	logger     *slog.Logger
}

// StatusError は200以外のHTTPステータスを表します
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to fetch page: status %d", e.Code)
}

// fetchHTML は指定されたURLからHTMLを取得してgoquery.Documentを返します
// 一時的なエラーは一定間隔で再試行し、429以外の4xxは即座に諦めます
func (f *fetcher) fetchHTML(ctx context.Context, url string) (*goquery.Document, error) {
	var doc *goquery.Document
	attempt := 0

	operation := func() error {
		attempt++
		d, err := fetchOnce(ctx, f.client, url)
		if err == nil {
			doc = d
			return nil
		}
		f.logger.Warn("fetch attempt failed", "url", url, "attempt", attempt, "error", err)
		var se *StatusError
		if errors.As(err, &se) && se.Code >= 400 && se.Code < 500 && se.Code != http.StatusTooManyRequests {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(f.retryDelay), uint64(f.attempts-1)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return doc, nil
}

func fetchOnce(ctx context.Context, client *http.Client, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// 一般的なブラウザに見せかけるUser-Agent
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-AU,en;q=0.9")

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: res.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return doc, nil
}

var joinedWordsPattern = regexp.MustCompile(`([a-z])([A-Z])`)

// cleanJoinedFields は "AirbagsABS" のように連結された単語を "Airbags, ABS" に分割します
func cleanJoinedFields(s string) string {
	return joinedWordsPattern.ReplaceAllString(s, "$1, $2")
}

// text は要素のテキストを前後の空白を除いて返します
func text(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}
