package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewiq/leatly/pkg/domain"
	"github.com/ewiq/leatly/pkg/feed"
)

type mockStore struct {
	savedFeeds      []string // source URLs
	saveErr         error
	items           []domain.StoredItem
	channels        []domain.StoredChannel
	collections     []domain.Collection
	deletedChannels []string
	itemUpdates     map[string]domain.ItemUpdate
	settingUpdates  map[string]domain.ChannelSettings
	toggles         []string
	deletedColls    []string
}

func newMockStore() *mockStore {
	return &mockStore{
		itemUpdates:    map[string]domain.ItemUpdate{},
		settingUpdates: map[string]domain.ChannelSettings{},
	}
}

func (m *mockStore) SaveFeed(_ context.Context, _ *domain.Feed, sourceURL string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.savedFeeds = append(m.savedFeeds, sourceURL)
	return nil
}

func (m *mockStore) GetAllItems(_ context.Context) ([]domain.StoredItem, error) {
	return m.items, nil
}

func (m *mockStore) GetAllChannels(_ context.Context) ([]domain.StoredChannel, error) {
	return m.channels, nil
}

func (m *mockStore) GetAllCollections(_ context.Context) ([]domain.Collection, error) {
	return m.collections, nil
}

func (m *mockStore) DeleteChannel(_ context.Context, channelID string) error {
	m.deletedChannels = append(m.deletedChannels, channelID)
	return nil
}

func (m *mockStore) UpdateItem(_ context.Context, id string, upd domain.ItemUpdate) error {
	m.itemUpdates[id] = upd
	return nil
}

func (m *mockStore) UpdateChannelSettings(_ context.Context, channelID string, settings domain.ChannelSettings) error {
	m.settingUpdates[channelID] = settings
	return nil
}

func (m *mockStore) CreateCollection(_ context.Context, name string) (*domain.Collection, error) {
	coll := domain.Collection{ID: "coll-1", Name: name, CreatedAt: time.Now().UTC()}
	m.collections = append(m.collections, coll)
	return &coll, nil
}

func (m *mockStore) DeleteCollection(_ context.Context, id string) error {
	m.deletedColls = append(m.deletedColls, id)
	return nil
}

func (m *mockStore) ToggleChannelCollection(_ context.Context, channelID, collectionID string, add bool) error {
	m.toggles = append(m.toggles, fmt.Sprintf("%s:%s:%v", channelID, collectionID, add))
	return nil
}

type mockFetcher struct {
	body []byte
	err  error
}

func (m *mockFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.body, nil
}

const validFeedXML = `<rss version="2.0"><channel><title>Test Feed</title><link>https://example.com</link></channel></rss>`

func newTestServer(store Store, fetcher Fetcher) *httptest.Server {
	srv := New(Config{Listen: ":0", Timeout: 5 * time.Second, Version: "test"}, store, fetcher)
	return httptest.NewServer(srv.router)
}

func TestServer_Status(t *testing.T) {
	ts := newTestServer(newMockStore(), &mockFetcher{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestServer_Subscribe(t *testing.T) {
	store := newMockStore()
	ts := newTestServer(store, &mockFetcher{body: []byte(validFeedXML)})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/subscribe", "application/json",
		bytes.NewBufferString(`{"url":"https://example.com/rss.xml"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"https://example.com/rss.xml"}, store.savedFeeds)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Channel domain.Channel `json:"channel"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "Test Feed", body.Data.Channel.Title)
}

func TestServer_SubscribeErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		fetcher    Fetcher
		wantStatus int
	}{
		{
			name:       "missing url",
			body:       `{}`,
			fetcher:    &mockFetcher{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid json",
			body:       `{broken`,
			fetcher:    &mockFetcher{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unparseable feed",
			body:       `{"url":"https://example.com/rss.xml"}`,
			fetcher:    &mockFetcher{body: []byte("not xml at all")},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "fetch timeout",
			body:       `{"url":"https://example.com/rss.xml"}`,
			fetcher:    &mockFetcher{err: &feed.NetworkError{Msg: "request timeout", Timeout: true}},
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "fetch failure",
			body:       `{"url":"https://example.com/rss.xml"}`,
			fetcher:    &mockFetcher{err: &feed.NetworkError{Msg: "connection refused"}},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(newMockStore(), tt.fetcher)
			defer ts.Close()

			resp, err := http.Post(ts.URL+"/api/v1/subscribe", "application/json", bytes.NewBufferString(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestServer_Feed(t *testing.T) {
	store := newMockStore()
	store.channels = []domain.StoredChannel{
		{Channel: domain.Channel{Title: "A", Link: "https://a.com"}},
	}
	store.items = []domain.StoredItem{
		{Item: domain.Item{Title: "hello", Link: "https://a.com/1"}, ID: "1", ChannelID: "https://a.com", SavedAt: time.Now().UTC()},
	}
	ts := newTestServer(store, &mockFetcher{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/feed")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Items []struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"items"`
		Channels    []domain.StoredChannel `json:"channels"`
		Collections []domain.Collection    `json:"collections"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "hello", body.Items[0].Title)
	assert.Equal(t, "A", body.Items[0].ChannelTitle)
	assert.Len(t, body.Channels, 1)
}

func TestServer_FeedFilters(t *testing.T) {
	store := newMockStore()
	store.channels = []domain.StoredChannel{
		{Channel: domain.Channel{Title: "A", Link: "https://a.com"}},
		{Channel: domain.Channel{Title: "B", Link: "https://b.com"}},
	}
	now := time.Now().UTC()
	store.items = []domain.StoredItem{
		{Item: domain.Item{Title: "from a", Link: "https://a.com/1"}, ID: "1", ChannelID: "https://a.com", SavedAt: now},
		{Item: domain.Item{Title: "from b", Link: "https://b.com/1"}, ID: "2", ChannelID: "https://b.com", SavedAt: now},
	}
	ts := newTestServer(store, &mockFetcher{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/feed?channel=" + "https%3A%2F%2Fa.com")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Items []struct {
			Title string `json:"title"`
		} `json:"items"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "from a", body.Items[0].Title)
}

func TestServer_UpdateItem(t *testing.T) {
	store := newMockStore()
	ts := newTestServer(store, &mockFetcher{})
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPatch, ts.URL+"/api/v1/items/item-42",
		bytes.NewBufferString(`{"read":true,"favourite":false}`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	upd, ok := store.itemUpdates["item-42"]
	require.True(t, ok)
	require.NotNil(t, upd.Read)
	assert.True(t, *upd.Read)
	require.NotNil(t, upd.Favourite)
	assert.False(t, *upd.Favourite)
	assert.Nil(t, upd.Closed, "absent field stays nil")
}

func TestServer_UpdateChannel(t *testing.T) {
	store := newMockStore()
	ts := newTestServer(store, &mockFetcher{})
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPatch, ts.URL+"/api/v1/channels",
		bytes.NewBufferString(`{"channel":"https://a.com","hideOnMainFeed":true,"customTitle":"Mine"}`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	settings, ok := store.settingUpdates["https://a.com"]
	require.True(t, ok)
	require.NotNil(t, settings.HideOnMainFeed)
	assert.True(t, *settings.HideOnMainFeed)
	require.NotNil(t, settings.CustomTitle)
	assert.Equal(t, "Mine", *settings.CustomTitle)
}

func TestServer_DeleteChannel(t *testing.T) {
	store := newMockStore()
	ts := newTestServer(store, &mockFetcher{})
	defer ts.Close()

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/channels?channel=https%3A%2F%2Fa.com", http.NoBody)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"https://a.com"}, store.deletedChannels)

	// missing channel parameter
	req, err = http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/channels", http.NoBody)
	require.NoError(t, err)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestServer_ToggleChannelCollection(t *testing.T) {
	store := newMockStore()
	ts := newTestServer(store, &mockFetcher{})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/channels/collections", "application/json",
		bytes.NewBufferString(`{"channel":"https://a.com","collection":"coll-1","add":true}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"https://a.com:coll-1:true"}, store.toggles)
}

func TestServer_Collections(t *testing.T) {
	store := newMockStore()
	ts := newTestServer(store, &mockFetcher{})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/collections", "application/json",
		bytes.NewBufferString(`{"name":"Tech"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Success bool              `json:"success"`
		Data    domain.Collection `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "Tech", body.Data.Name)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/collections/coll-1", http.NoBody)
	require.NoError(t, err)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Equal(t, []string{"coll-1"}, store.deletedColls)
}

func TestServer_Ping(t *testing.T) {
	ts := newTestServer(newMockStore(), &mockFetcher{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
