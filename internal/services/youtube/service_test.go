package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypeeconomy/hype-engine/internal/domain"
)

type memCache struct {
	mu      sync.Mutex
	entries map[string]*domain.ChannelMetrics
	stores  int
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]*domain.ChannelMetrics{}}
}

func (c *memCache) CachedChannelMetrics(ctx context.Context, handle string, maxAge time.Duration) (*domain.ChannelMetrics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.entries[handle]
	if !ok || time.Since(m.FetchedAt) > maxAge {
		return nil, fmt.Errorf("no fresh metrics for %s", handle)
	}
	return m, nil
}

func (c *memCache) CacheChannelMetrics(ctx context.Context, m *domain.ChannelMetrics) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[m.ChannelHandle] = m
	c.stores++
	return nil
}

func apiStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/channels", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "true", r.URL.Query().Get("mine"))
		fmt.Fprint(w, `{"items":[{
			"snippet":{
				"title":"MrBeast",
				"customUrl":"@mrbeast",
				"thumbnails":{"default":{"url":"https://img.example/thumb.jpg"}}
			},
			"statistics":{"viewCount":"1000000000","subscriberCount":"250000000","videoCount":"800"},
			"contentDetails":{"relatedPlaylists":{"uploads":"UUX6OQ3DkcsbYNE6H8uQQuVA"}}
		}]}`)
	})
	mux.HandleFunc("/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "UUX6OQ3DkcsbYNE6H8uQQuVA", r.URL.Query().Get("playlistId"))
		fmt.Fprint(w, `{"items":[
			{"snippet":{"resourceId":{"videoId":"vid1"}}},
			{"snippet":{"resourceId":{"videoId":"vid2"}}}
		]}`)
	})
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "vid1,vid2", r.URL.Query().Get("id"))
		fmt.Fprint(w, `{"items":[
			{"statistics":{"viewCount":"100","likeCount":"11"}},
			{"statistics":{"viewCount":"201","likeCount":"20"}}
		]}`)
	})
	return httptest.NewServer(mux)
}

func newTestService(cache *memCache, baseURL string) *Service {
	s := &Service{cache: cache, baseURL: baseURL}
	_ = s.Start()
	return s
}

func TestChannelForUser(t *testing.T) {
	srv := apiStub(t)
	defer srv.Close()
	cache := newMemCache()
	svc := newTestService(cache, srv.URL)

	m, err := svc.ChannelForUser(context.Background(), "tok-1")
	require.NoError(t, err)

	assert.Equal(t, "MrBeast", m.ChannelName)
	assert.Equal(t, "@mrbeast", m.ChannelHandle)
	assert.Equal(t, int64(250_000_000), m.Subscribers)
	assert.Equal(t, int64(1_000_000_000), m.TotalViews)
	assert.Equal(t, int64(800), m.TotalVideos)
	// (100+201)/2 floors to 150, (11+20)/2 floors to 15.
	assert.Equal(t, 150.0, m.AvgRecentViews)
	assert.Equal(t, 15.0, m.AvgRecentLikes)
	assert.Equal(t, "https://img.example/thumb.jpg", m.ThumbnailURL)
	assert.Equal(t, 1, cache.stores)
}

func TestChannelForUserServesCache(t *testing.T) {
	srv := apiStub(t)
	defer srv.Close()
	cache := newMemCache()
	svc := newTestService(cache, srv.URL)

	first, err := svc.ChannelForUser(context.Background(), "tok-1")
	require.NoError(t, err)
	second, err := svc.ChannelForUser(context.Background(), "tok-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.stores, "second call must not refresh the cache")
}

func TestChannelForUserNoChannel(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/channels", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	svc := newTestService(newMemCache(), srv.URL)

	_, err := svc.ChannelForUser(context.Background(), "tok-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no YouTube channel")
}

func TestChannelForUserRejectedToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/channels", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	svc := newTestService(newMemCache(), srv.URL)

	_, err := svc.ChannelForUser(context.Background(), "bad-token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNAUTHORIZED")
}
