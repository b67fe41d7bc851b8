package grays

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"jo3qma.com/autosniper/internal/domain/model"
	"jo3qma.com/autosniper/internal/domain/repository"
)

type graysSearchScraper struct {
	fetcher    *fetcher
	baseURL    string
	searchPath string
}

// NewSearchScraper は検索結果ページを取得する SearchRepository を作成します
func NewSearchScraper(opts Options) repository.SearchRepository {
	opts = opts.withDefaults()
	return &graysSearchScraper{
		fetcher: &fetcher{
			client:     &http.Client{Timeout: opts.Timeout},
			attempts:   opts.Attempts,
			retryDelay: opts.RetryDelay,
			logger:     opts.Logger,
		},
		baseURL:    opts.BaseURL,
		searchPath: opts.SearchPath,
	}
}

var (
	lotPathPattern    = regexp.MustCompile(`/lot/\d+`)
	yearPrefixPattern = regexp.MustCompile(`^\d{4}\b`)
	// バイクはカテゴリが混在するため文言で除外する
	motorcycleWords = []string{"motorbike", "motor bike", "motorcycle"}
)

func (s *graysSearchScraper) FetchSearchPage(ctx context.Context, page int) (*model.SearchPage, error) {
	// 例: https://www.grays.com/search/automotive-trucks-and-marine/motor-vehiclesmotor-cycles/motor-vehicles?tab=items&isdesktop=1&page=2
	u, err := url.Parse(s.baseURL + s.searchPath)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	q := u.Query()
	q.Set("tab", "items")
	q.Set("isdesktop", "1")
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	doc, err := s.fetcher.fetchHTML(ctx, u.String())
	if err != nil {
		return nil, err
	}

	return s.extractSearchPage(doc), nil
}

func (s *graysSearchScraper) extractSearchPage(doc *goquery.Document) *model.SearchPage {
	result := &model.SearchPage{}
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		title := text(a)
		if !lotPathPattern.MatchString(href) || !yearPrefixPattern.MatchString(title) {
			return
		}
		if isMotorcycle(title) {
			return
		}

		full := href
		if strings.HasPrefix(href, "/") {
			full = s.baseURL + href
		}
		result.RawCount++
		if !seen[full] {
			seen[full] = true
			result.Links = append(result.Links, full)
		}
	})

	result.LastPage = extractLastPage(doc)
	return result
}

// extractLastPage はページネーションの数字リンクのうち最大のものを返します
// ページネーションがない場合は1ページのみとみなします
func extractLastPage(doc *goquery.Document) int {
	last := 1
	doc.Find("div.pagination a[href]").Each(func(_ int, a *goquery.Selection) {
		if n, err := strconv.Atoi(text(a)); err == nil && n > last {
			last = n
		}
	})
	return last
}

func isMotorcycle(title string) bool {
	lower := strings.ToLower(title)
	for _, w := range motorcycleWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
