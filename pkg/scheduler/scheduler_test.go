package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewiq/leatly/pkg/domain"
)

const stubFeedXML = `<rss version="2.0"><channel><title>t</title><link>https://x.com</link></channel></rss>`

type stubStore struct {
	mu       sync.Mutex
	channels []domain.StoredChannel
	saved    []string // source URLs passed to SaveFeed
	saveErr  error
}

func (s *stubStore) GetAllChannels(_ context.Context) ([]domain.StoredChannel, error) {
	return s.channels, nil
}

func (s *stubStore) SaveFeed(_ context.Context, _ *domain.Feed, sourceURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, sourceURL)
	return nil
}

func (s *stubStore) savedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.saved...)
}

type stubFetcher struct {
	mu      sync.Mutex
	fetched []string
	failFor map[string]error
	body    []byte
}

func (f *stubFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, url)
	f.mu.Unlock()
	if err, ok := f.failFor[url]; ok {
		return nil, err
	}
	return f.body, nil
}

func (f *stubFetcher) fetchedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

func TestScheduler_RefreshAll(t *testing.T) {
	store := &stubStore{channels: []domain.StoredChannel{
		{Channel: domain.Channel{Link: "https://a.com"}, FeedURL: "https://a.com/rss.xml"},
		{Channel: domain.Channel{Link: "https://b.com"}, FeedURL: "https://b.com/rss.xml"},
	}}
	fetcher := &stubFetcher{body: []byte(stubFeedXML)}

	s := New(store, fetcher, Config{MaxConcurrent: 2})
	s.RefreshAll(context.Background())

	assert.ElementsMatch(t, []string{"https://a.com/rss.xml", "https://b.com/rss.xml"}, fetcher.fetchedURLs())
	assert.ElementsMatch(t, []string{"https://a.com/rss.xml", "https://b.com/rss.xml"}, store.savedURLs())
}

func TestScheduler_RefreshFallsBackToChannelLink(t *testing.T) {
	// records stored before the fetch URL was tracked have no feedUrl
	store := &stubStore{channels: []domain.StoredChannel{
		{Channel: domain.Channel{Link: "https://legacy.com"}},
	}}
	fetcher := &stubFetcher{body: []byte(stubFeedXML)}

	s := New(store, fetcher, Config{})
	s.RefreshAll(context.Background())

	assert.Equal(t, []string{"https://legacy.com"}, fetcher.fetchedURLs())
}

func TestScheduler_FailedFeedSkipped(t *testing.T) {
	store := &stubStore{channels: []domain.StoredChannel{
		{Channel: domain.Channel{Link: "https://bad.com"}, FeedURL: "https://bad.com/rss.xml"},
		{Channel: domain.Channel{Link: "https://good.com"}, FeedURL: "https://good.com/rss.xml"},
	}}
	fetcher := &stubFetcher{
		body:    []byte(stubFeedXML),
		failFor: map[string]error{"https://bad.com/rss.xml": errors.New("connection refused")},
	}

	s := New(store, fetcher, Config{})
	s.RefreshAll(context.Background())

	assert.Equal(t, []string{"https://good.com/rss.xml"}, store.savedURLs(),
		"one broken feed never aborts the pass")
}

func TestScheduler_UnparseableFeedSkipped(t *testing.T) {
	store := &stubStore{channels: []domain.StoredChannel{
		{Channel: domain.Channel{Link: "https://garbage.com"}, FeedURL: "https://garbage.com/rss.xml"},
	}}
	fetcher := &stubFetcher{body: []byte("this is not XML")}

	s := New(store, fetcher, Config{})
	s.RefreshAll(context.Background())

	assert.Empty(t, store.savedURLs(), "normalization failure drops the feed for this pass")
}

func TestScheduler_StartStop(t *testing.T) {
	store := &stubStore{channels: []domain.StoredChannel{
		{Channel: domain.Channel{Link: "https://a.com"}, FeedURL: "https://a.com/rss.xml"},
	}}
	fetcher := &stubFetcher{body: []byte(stubFeedXML)}

	s := New(store, fetcher, Config{RefreshInterval: time.Hour})
	s.Start(context.Background())

	// the first pass runs immediately
	require.Eventually(t, func() bool {
		return len(store.savedURLs()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	s.Stop()
	assert.Equal(t, []string{"https://a.com/rss.xml"}, store.savedURLs())
}

func TestScheduler_NoChannels(t *testing.T) {
	store := &stubStore{}
	fetcher := &stubFetcher{body: []byte(stubFeedXML)}

	s := New(store, fetcher, Config{})
	s.RefreshAll(context.Background())

	assert.Empty(t, fetcher.fetchedURLs())
}
