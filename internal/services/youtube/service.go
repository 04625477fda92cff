// Package youtube resolves the signed-in creator's channel statistics via
// the YouTube Data API. Metrics drive valuation, so results are cached
// briefly to keep token creation retries from hammering the quota.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hypeeconomy/hype-engine/internal/common"
	"github.com/hypeeconomy/hype-engine/internal/domain"
	"github.com/hypeeconomy/hype-engine/internal/repository"
)

const (
	YOUTUBE_SERVICE = "youtube-service"

	defaultBaseURL = "https://www.googleapis.com/youtube/v3"

	// recentVideoCount is how many latest uploads feed the engagement
	// averages.
	recentVideoCount = 10

	cacheMaxAge = time.Hour

	requestTimeout = 15 * time.Second
)

type metricsCache interface {
	CachedChannelMetrics(ctx context.Context, handle string, maxAge time.Duration) (*domain.ChannelMetrics, error)
	CacheChannelMetrics(ctx context.Context, m *domain.ChannelMetrics) error
}

type Service struct {
	container.BaseDIInstance

	cache  metricsCache
	client *http.Client

	// baseURL is swappable for tests.
	baseURL string
}

func (s *Service) ID() string {
	return YOUTUBE_SERVICE
}

func (s *Service) Configure(c container.IContainer) error {
	cache, ok := c.Instance(repository.REPOSITORY_SERVICE).(metricsCache)
	if !ok {
		return errors.New("repository service not registered")
	}
	s.cache = cache
	return nil
}

func (s *Service) Start() error {
	s.client = &http.Client{Timeout: requestTimeout}
	if s.baseURL == "" {
		s.baseURL = defaultBaseURL
	}
	return nil
}

func (s *Service) Stop() error { return nil }

// ChannelForUser fetches the channel owned by the bearer of accessToken and
// its recent-upload averages. A fresh cached snapshot short-circuits the
// two statistics calls.
func (s *Service) ChannelForUser(ctx context.Context, accessToken string) (*domain.ChannelMetrics, error) {
	ch, err := s.fetchOwnChannel(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	if cached, err := s.cache.CachedChannelMetrics(ctx, ch.handle, cacheMaxAge); err == nil && cached != nil {
		log.Debug().Str("handle", ch.handle).Msg("serving cached channel metrics")
		return cached, nil
	}

	avgViews, avgLikes, err := s.recentVideoAverages(ctx, accessToken, ch.uploadsPlaylist)
	if err != nil {
		return nil, err
	}

	m := &domain.ChannelMetrics{
		ChannelName:    ch.name,
		ChannelHandle:  ch.handle,
		Subscribers:    ch.subscribers,
		TotalViews:     ch.totalViews,
		TotalVideos:    ch.totalVideos,
		AvgRecentViews: avgViews,
		AvgRecentLikes: avgLikes,
		ThumbnailURL:   ch.thumbnail,
		FetchedAt:      time.Now().UTC(),
	}
	if err := validate(m); err != nil {
		return nil, err
	}
	if err := s.cache.CacheChannelMetrics(ctx, m); err != nil {
		log.Warn().Err(err).Str("handle", m.ChannelHandle).Msg("failed to cache channel metrics")
	}
	return m, nil
}

type ownChannel struct {
	name            string
	handle          string
	thumbnail       string
	subscribers     int64
	totalViews      int64
	totalVideos     int64
	uploadsPlaylist string
}

type channelListResponse struct {
	Items []struct {
		Snippet struct {
			Title      string `json:"title"`
			CustomURL  string `json:"customUrl"`
			Thumbnails struct {
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount       string `json:"viewCount"`
			SubscriberCount string `json:"subscriberCount"`
			VideoCount      string `json:"videoCount"`
		} `json:"statistics"`
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

func (s *Service) fetchOwnChannel(ctx context.Context, accessToken string) (*ownChannel, error) {
	q := url.Values{}
	q.Set("part", "snippet,statistics,contentDetails")
	q.Set("mine", "true")

	var out channelListResponse
	if err := s.get(ctx, accessToken, "/channels", q, &out); err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, common.HTTPErrorNotFound("no YouTube channel found for this account")
	}
	item := out.Items[0]

	handle := item.Snippet.CustomURL
	if handle == "" {
		handle = strings.ReplaceAll(item.Snippet.Title, " ", "")
	}
	if !strings.HasPrefix(handle, "@") {
		handle = "@" + handle
	}

	return &ownChannel{
		name:            item.Snippet.Title,
		handle:          handle,
		thumbnail:       item.Snippet.Thumbnails.Default.URL,
		subscribers:     parseCount(item.Statistics.SubscriberCount),
		totalViews:      parseCount(item.Statistics.ViewCount),
		totalVideos:     parseCount(item.Statistics.VideoCount),
		uploadsPlaylist: item.ContentDetails.RelatedPlaylists.Uploads,
	}, nil
}

type playlistItemsResponse struct {
	Items []struct {
		Snippet struct {
			ResourceID struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
}

type videoListResponse struct {
	Items []struct {
		Statistics struct {
			ViewCount string `json:"viewCount"`
			LikeCount string `json:"likeCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// recentVideoAverages floors the per-video averages the way the valuation
// expects whole numbers. A channel with no uploads averages to zero.
func (s *Service) recentVideoAverages(ctx context.Context, accessToken, uploadsPlaylist string) (float64, float64, error) {
	if uploadsPlaylist == "" {
		return 0, 0, nil
	}

	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("playlistId", uploadsPlaylist)
	q.Set("maxResults", strconv.Itoa(recentVideoCount))

	var items playlistItemsResponse
	if err := s.get(ctx, accessToken, "/playlistItems", q, &items); err != nil {
		return 0, 0, err
	}

	ids := make([]string, 0, len(items.Items))
	for _, it := range items.Items {
		if id := it.Snippet.ResourceID.VideoID; id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, 0, nil
	}

	q = url.Values{}
	q.Set("part", "statistics")
	q.Set("id", strings.Join(ids, ","))

	var videos videoListResponse
	if err := s.get(ctx, accessToken, "/videos", q, &videos); err != nil {
		return 0, 0, err
	}
	if len(videos.Items) == 0 {
		return 0, 0, nil
	}

	var totalViews, totalLikes int64
	for _, v := range videos.Items {
		totalViews += parseCount(v.Statistics.ViewCount)
		totalLikes += parseCount(v.Statistics.LikeCount)
	}
	n := int64(len(videos.Items))
	return float64(totalViews / n), float64(totalLikes / n), nil
}

func (s *Service) get(ctx context.Context, accessToken, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("youtube request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return common.HTTPErrorUnauthorized("YouTube rejected the access token")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("youtube %s returned %d: %s", path, resp.StatusCode, string(body))
	}
	if err := sonic.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode youtube %s response: %w", path, err)
	}
	return nil
}

func parseCount(raw string) int64 {
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func validate(m *domain.ChannelMetrics) error {
	switch {
	case m.ChannelName == "":
		return errors.New("channel metrics missing channel name")
	case m.ChannelHandle == "" || m.ChannelHandle == "@":
		return errors.New("channel metrics missing channel handle")
	case m.ThumbnailURL == "":
		return errors.New("channel metrics missing thumbnail url")
	}
	return nil
}
