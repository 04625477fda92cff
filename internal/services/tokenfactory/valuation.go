package tokenfactory

import (
	"math"

	"github.com/hypeeconomy/hype-engine/internal/domain"
)

// Price and supply are derived from channel statistics, not market input.
// The composite score log-scales subscribers and recent views so a 10M-sub
// channel lands near the top of the range without dwarfing everyone else.

const (
	subscriberWeight = 0.5
	viewWeight       = 0.3
	engagementWeight = 0.2

	minPriceSOL = 0.0001
	maxPriceSOL = 1.0

	minSupply = 100_000
	maxSupply = 5_000_000
)

// InitialPrice returns the launch price in SOL per token, rounded to six
// decimal places and always within [minPriceSOL, maxPriceSOL].
func InitialPrice(m *domain.ChannelMetrics) float64 {
	subScore := math.Log10(math.Max(float64(m.Subscribers), 1)) / 7 // ~1 at 10M subs
	viewScore := math.Log10(math.Max(m.AvgRecentViews, 1)) / 6     // ~1 at 1M views
	engagementScore := math.Min(m.EngagementRate()*10, 1)

	composite := subscriberWeight*subScore + viewWeight*viewScore + engagementWeight*engagementScore

	price := minPriceSOL + composite*(maxPriceSOL-minPriceSOL)
	return math.Round(price*1e6) / 1e6
}

// TokenSupply returns the whole-token supply to mint, within
// [minSupply, maxSupply]. Engagement nudges it up by at most 30%.
func TokenSupply(m *domain.ChannelMetrics) float64 {
	logSubs := math.Log10(math.Max(float64(m.Subscribers), 1000))
	baseSupply := math.Floor(50_000 * math.Pow(logSubs, 1.5))

	engagementModifier := 1 + math.Min(m.EngagementRate()*2, 0.3)
	total := math.Floor(baseSupply * engagementModifier)

	return math.Max(math.Min(total, maxSupply), minSupply)
}

// InitialSOL is the SOL side of the seed liquidity: the full supply valued
// at the launch price.
func InitialSOL(m *domain.ChannelMetrics) float64 {
	sol := TokenSupply(m) * InitialPrice(m)
	return math.Round(sol*1e6) / 1e6
}

// MarketCap values a pool at its current price.
func MarketCap(price, poolSupply float64) float64 {
	return price * poolSupply
}
