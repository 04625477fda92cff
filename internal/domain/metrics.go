package domain

import "time"

// ChannelMetrics is the snapshot of a YouTube channel used for valuation.
// Cached in the metrics collection keyed by channel handle.
type ChannelMetrics struct {
	ChannelName    string    `bson:"channel_name" json:"channelName"`
	ChannelHandle  string    `bson:"channel_handle" json:"channelHandle"`
	Subscribers    int64     `bson:"subscribers" json:"subscribers"`
	TotalViews     int64     `bson:"total_views" json:"totalViews"`
	TotalVideos    int64     `bson:"total_videos" json:"totalVideos"`
	AvgRecentViews float64   `bson:"avg_recent_views" json:"avgRecentViews"`
	AvgRecentLikes float64   `bson:"avg_recent_likes" json:"avgRecentLikes"`
	ThumbnailURL   string    `bson:"thumbnail_url" json:"thumbnailUrl"`
	FetchedAt      time.Time `bson:"fetched_at" json:"fetchedAt"`
}

// EngagementRate is likes over views of recent uploads, 0 when the channel
// has no recent views.
func (m *ChannelMetrics) EngagementRate() float64 {
	if m.AvgRecentViews <= 0 {
		return 0
	}
	return m.AvgRecentLikes / m.AvgRecentViews
}
