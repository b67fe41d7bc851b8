package grays

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"jo3qma.com/autosniper/internal/domain/model"
	"jo3qma.com/autosniper/internal/domain/repository"
)

// graysScraper はGraysの出品ページをスクレイピングして車両情報と入札情報を取得する実装です
// 腐敗防止層（Anti-Corruption Layer）として、外部システムの不安定な構造を
// ドメインモデルに変換する責務を持ちます
type graysScraper struct {
	fetcher *fetcher
}

// NewDetailScraper は出品詳細を取得する ListingDetailRepository を作成します
func NewDetailScraper(opts Options) repository.ListingDetailRepository {
	return newGraysScraper(opts)
}

// NewAuctionScraper は入札情報を取得する AuctionPageRepository を作成します
func NewAuctionScraper(opts Options) repository.AuctionPageRepository {
	return newGraysScraper(opts)
}

func newGraysScraper(opts Options) *graysScraper {
	opts = opts.withDefaults()
	return &graysScraper{
		fetcher: &fetcher{
			client:     &http.Client{Timeout: opts.Timeout},
			attempts:   opts.Attempts,
			retryDelay: opts.RetryDelay,
			logger:     opts.Logger,
		},
	}
}

// FetchListing は出品ページから静的属性を抽出します
func (s *graysScraper) FetchListing(ctx context.Context, url string) (*model.Listing, error) {
	doc, err := s.fetcher.fetchHTML(ctx, url)
	if err != nil {
		return nil, err
	}
	return parseListing(doc, url), nil
}

// FetchSnapshot は出品ページから入札情報の生テキストを取り出します
func (s *graysScraper) FetchSnapshot(ctx context.Context, url string) (model.AuctionSnapshot, error) {
	doc, err := s.fetcher.fetchHTML(ctx, url)
	if err != nil {
		return model.AuctionSnapshot{}, fmt.Errorf("failed to fetch auction page: %w", err)
	}
	return parseSnapshot(doc), nil
}

// fieldLabels はドメインの項目と出品ページの表示ラベルの対応です
// ページ上では <li>ラベル: 値</li> の形で並んでいます
var fieldLabels = []struct {
	label string
	set   func(d *model.Details, v string)
}{
	{"Body Type", func(d *model.Details, v string) { d.BodyType = v }},
	{"No. of Seats", func(d *model.Details, v string) { d.NoOfSeats = v }},
	{"Build Date", func(d *model.Details, v string) { d.BuildDate = v }},
	{"Compliance Date", func(d *model.Details, v string) { d.ComplianceDate = v }},
	{"VIN", func(d *model.Details, v string) { d.VIN = v }},
	{"Registration No", func(d *model.Details, v string) { d.RegoNo = v }},
	{"Registration State", func(d *model.Details, v string) { d.RegoState = v }},
	{"Registration Expiry Date", func(d *model.Details, v string) { d.RegoExpiry = v }},
	{"No. of Plates", func(d *model.Details, v string) { d.NoOfPlates = v }},
	{"No. of Cylinders", func(d *model.Details, v string) { d.NoOfCylinders = v }},
	{"Engine Capacity", func(d *model.Details, v string) { d.EngineCapacity = v }},
	{"Fuel Type", func(d *model.Details, v string) { d.FuelType = v }},
	{"Transmission", func(d *model.Details, v string) { d.Transmission = v }},
	{"Indicated Odometer Reading", func(d *model.Details, v string) { d.OdometerReading = v }},
	{"Exterior Colour", func(d *model.Details, v string) { d.ExteriorColour = v }},
	{"Interior Colour", func(d *model.Details, v string) { d.InteriorColour = v }},
	{"Key", func(d *model.Details, v string) { d.Key = v }},
	{"Spare Key", func(d *model.Details, v string) { d.SpareKey = v }},
	{"Owners Manual", func(d *model.Details, v string) { d.OwnersManual = v }},
	{"Service History", func(d *model.Details, v string) { d.ServiceHistory = v }},
	{"Engine Turns Over", func(d *model.Details, v string) { d.EngineTurnsOver = v }},
}

var (
	yearPattern             = regexp.MustCompile(`^\d{4}$`)
	conditionHeadingPattern = regexp.MustCompile(`(?i)condition assessment`)
	featuresHeadingPattern  = regexp.MustCompile(`(?i)^features`)
	locationLabelPattern    = regexp.MustCompile(`(?i)location`)
	bidCountPattern         = regexp.MustCompile(`(?i)\d[\d,]*\s+bids?\b`)
	australianStates        = map[string]bool{"NSW": true, "VIC": true, "QLD": true, "SA": true, "WA": true, "TAS": true, "NT": true, "ACT": true}
)

// parseListing はHTMLドキュメントから Listing を組み立てます
// 見つからない項目は空のまま残し、保存時にセンチネルへ変換されます
func parseListing(doc *goquery.Document, url string) *model.Listing {
	l := &model.Listing{
		URL:   model.CleanURL(url),
		State: model.StateActive,
	}

	// タイトル: "2015 Toyota Corolla Ascent Sport" → 年式 / メーカー / モデル / グレード
	title := strings.Fields(text(doc.Find("h1.lotPageTitle").First()))
	if len(title) > 0 && yearPattern.MatchString(title[0]) {
		l.Details.Year = title[0]
	}
	if len(title) > 1 {
		l.Details.Make = title[1]
	}
	if len(title) > 2 {
		l.Details.Model = title[2]
	}
	if len(title) > 3 {
		l.Details.Variant = strings.Join(title[3:], " ")
	}
	l.Details.OdometerUnit = "km"

	items := doc.Find("li").Map(func(_ int, s *goquery.Selection) string {
		return text(s)
	})
	for _, f := range fieldLabels {
		f.set(&l.Details, extractField(items, f.label))
	}

	l.Details.GeneralCondition = strings.Join(listAfterHeading(doc, conditionHeadingPattern), "\n")
	l.Details.FeaturesList = strings.Join(listAfterHeading(doc, featuresHeadingPattern), ", ")
	l.Details.Location = extractLocation(doc)

	return l
}

// extractField は "ラベル: 値" 形式の項目から値を取り出します
func extractField(items []string, label string) string {
	prefix := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(label) + `\s*:`)
	for _, item := range items {
		if !prefix.MatchString(item) {
			continue
		}
		_, value, found := strings.Cut(item, ":")
		if !found {
			continue
		}
		return cleanJoinedFields(strings.TrimSpace(value))
	}
	return ""
}

// listAfterHeading は <p><strong>見出し</strong></p> の後に続く <ul> の項目を返します
func listAfterHeading(doc *goquery.Document, heading *regexp.Regexp) []string {
	strong := doc.Find("strong").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return heading.MatchString(text(s))
	}).First()
	if strong.Length() == 0 {
		return nil
	}

	ul := strong.Closest("p").NextAllFiltered("ul").First()
	var values []string
	ul.Find("li").Each(func(_ int, li *goquery.Selection) {
		if v := text(li); v != "" {
			values = append(values, v)
		}
	})
	return values
}

// extractLocation は "Location" セルの隣のセルから州コードを取り出します
// 例: "Dandenong South, VIC, 3175" → "VIC"
func extractLocation(doc *goquery.Document) string {
	cell := doc.Find("td").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return locationLabelPattern.MatchString(text(s))
	}).First()
	if cell.Length() == 0 {
		return ""
	}

	parts := strings.Split(text(cell.NextAllFiltered("td").First()), ",")
	if len(parts) < 2 {
		return ""
	}
	region := strings.ToUpper(strings.TrimSpace(parts[len(parts)-2]))
	if !australianStates[region] {
		return ""
	}
	return region
}

// parseSnapshot は入札情報の3項目を生テキストのまま取り出します
func parseSnapshot(doc *goquery.Document) model.AuctionSnapshot {
	snap := model.AuctionSnapshot{
		RawPrice: model.Unavailable,
		RawTime:  "Auction Ended",
	}

	// 現在価格: span[itemprop=price]
	if price := doc.Find(`span[itemprop="price"]`).First(); price.Length() > 0 {
		snap.RawPrice = text(price)
	}

	// 残り時間: カウントダウンは終了すると表示されなくなる
	if countdown := doc.Find("span#lot-closing-countdown").First(); countdown.Length() > 0 {
		snap.RawTime = text(countdown)
	}

	// 入札数: "12 bids" のリンク
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if t := text(a); bidCountPattern.MatchString(t) {
			snap.RawBids = t
			return false
		}
		return true
	})

	return snap
}
