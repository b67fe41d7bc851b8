package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"4d63.com/optional"
	"jo3qma.com/autosniper/internal/domain/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore はメモリ上の ListingStore です。missing が true の間はファイルがない扱いになります
type memStore struct {
	mu       sync.Mutex
	listings []*model.Listing
	missing  bool
	saves    int
	saveErr  error
}

func newMemStore(listings ...*model.Listing) *memStore {
	return &memStore{listings: listings}
}

func missingStore() *memStore {
	return &memStore{missing: true}
}

func (s *memStore) Load(ctx context.Context) ([]*model.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.missing {
		return nil, model.ErrStoreNotFound
	}
	out := make([]*model.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		out = append(out, l.Clone())
	}
	return out, nil
}

func (s *memStore) Save(ctx context.Context, listings []*model.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.missing = false
	s.listings = make([]*model.Listing, 0, len(listings))
	for _, l := range listings {
		s.listings = append(s.listings, l.Clone())
	}
	return nil
}

func (s *memStore) urls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.listings))
	for _, l := range s.listings {
		out = append(out, l.URL)
	}
	return out
}

func (s *memStore) get(url string) *model.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.listings {
		if l.URL == url {
			return l
		}
	}
	return nil
}

type memLinks struct {
	urls    []string
	missing bool
	saved   []string
	saves   int
}

func (s *memLinks) Load(ctx context.Context) ([]string, error) {
	if s.missing {
		return nil, model.ErrStoreNotFound
	}
	return s.urls, nil
}

func (s *memLinks) Save(ctx context.Context, urls []string) error {
	s.saves++
	s.saved = append([]string(nil), urls...)
	return nil
}

type memVerdicts struct {
	rows []*model.Verdict
}

func (s *memVerdicts) Load(ctx context.Context) ([]*model.Verdict, error) {
	return s.rows, nil
}

func (s *memVerdicts) Append(ctx context.Context, v *model.Verdict) error {
	s.rows = append(s.rows, v)
	return nil
}

type memSkipped struct {
	urls []string
}

func (s *memSkipped) Append(ctx context.Context, urls []string) error {
	s.urls = append(s.urls, urls...)
	return nil
}

// fakeAuctionPages は URL ごとに決まったスナップショットかエラーを返します
type fakeAuctionPages struct {
	snaps   map[string]model.AuctionSnapshot
	fetched []string
}

var errFetch = errors.New("fetch failed")

func (f *fakeAuctionPages) FetchSnapshot(ctx context.Context, url string) (model.AuctionSnapshot, error) {
	f.fetched = append(f.fetched, url)
	snap, ok := f.snaps[url]
	if !ok {
		return model.AuctionSnapshot{}, errFetch
	}
	return snap, nil
}

type fakeDetails struct {
	listings map[string]*model.Listing
	fetched  []string
}

func (f *fakeDetails) FetchListing(ctx context.Context, url string) (*model.Listing, error) {
	f.fetched = append(f.fetched, url)
	l, ok := f.listings[url]
	if !ok {
		return nil, errFetch
	}
	return l.Clone(), nil
}

type fakeSearch struct {
	pages   map[int]*model.SearchPage
	fetched []int
}

func (f *fakeSearch) FetchSearchPage(ctx context.Context, page int) (*model.SearchPage, error) {
	f.fetched = append(f.fetched, page)
	p, ok := f.pages[page]
	if !ok {
		return nil, errFetch
	}
	return p, nil
}

type fakeMirror struct {
	calls map[model.Bucket]int
	err   error
}

func (m *fakeMirror) Mirror(ctx context.Context, bucket model.Bucket, listings []*model.Listing) error {
	if m.calls == nil {
		m.calls = make(map[model.Bucket]int)
	}
	m.calls[bucket] += len(listings)
	return m.err
}

type fakeOracle struct {
	verdict *model.Verdict
	err     error
	calls   int
}

func (o *fakeOracle) Estimate(ctx context.Context, listing *model.Listing) (*model.Verdict, error) {
	o.calls++
	if o.err != nil {
		return nil, o.err
	}
	v := *o.verdict
	return &v, nil
}

func listing(url string, state model.State) *model.Listing {
	return &model.Listing{
		URL:   url,
		State: state,
		Details: model.Details{
			Year:  "2015",
			Make:  "Toyota",
			Model: "Corolla",
		},
	}
}

func activeListing(url, timeLeft string) *model.Listing {
	l := listing(url, model.StateActive)
	l.Auction = model.Auction{
		Price:          optional.Of("$5,000"),
		Bids:           2,
		TimeLeftOrSold: optional.Of(timeLeft),
	}
	return l
}
