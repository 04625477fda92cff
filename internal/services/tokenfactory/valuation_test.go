package tokenfactory

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypeeconomy/hype-engine/internal/domain"
)

func metricsFor(subs int64, avgViews, avgLikes float64) *domain.ChannelMetrics {
	return &domain.ChannelMetrics{
		ChannelName:    "Some Channel",
		Subscribers:    subs,
		AvgRecentViews: avgViews,
		AvgRecentLikes: avgLikes,
	}
}

func TestInitialPriceBounds(t *testing.T) {
	cases := []*domain.ChannelMetrics{
		metricsFor(0, 0, 0),
		metricsFor(1, 1, 0),
		metricsFor(10_000_000, 1_000_000, 200_000),
		metricsFor(500_000_000, 100_000_000, 100_000_000),
	}
	for _, m := range cases {
		price := InitialPrice(m)
		assert.GreaterOrEqual(t, price, minPriceSOL, "subs=%d", m.Subscribers)
		assert.LessOrEqual(t, price, maxPriceSOL, "subs=%d", m.Subscribers)
	}
}

func TestInitialPriceMonotonicInSubscribers(t *testing.T) {
	small := InitialPrice(metricsFor(10_000, 5_000, 500))
	big := InitialPrice(metricsFor(10_000_000, 5_000, 500))
	assert.Greater(t, big, small)
}

func TestInitialPriceSixDecimals(t *testing.T) {
	price := InitialPrice(metricsFor(123_456, 7_890, 321))
	scaled := price * 1e6
	assert.InDelta(t, scaled, float64(int64(scaled+0.5)), 1e-6)
}

func TestTokenSupplyBounds(t *testing.T) {
	assert.Equal(t, float64(minSupply), TokenSupply(metricsFor(0, 0, 0)),
		"tiny channels floor at the minimum supply")
	assert.Equal(t, float64(minSupply), TokenSupply(metricsFor(1000, 100, 10)))

	huge := TokenSupply(metricsFor(500_000_000, 100_000_000, 30_000_000))
	assert.LessOrEqual(t, huge, float64(maxSupply))
}

func TestTokenSupplyEngagementCappedAt30Percent(t *testing.T) {
	flat := TokenSupply(metricsFor(1_000_000, 100_000, 0))
	hyped := TokenSupply(metricsFor(1_000_000, 100_000, 100_000))
	assert.LessOrEqual(t, hyped, flat*1.3+1)
	assert.Greater(t, hyped, flat)
}

func TestInitialSOLMatchesSupplyTimesPrice(t *testing.T) {
	m := metricsFor(2_000_000, 400_000, 20_000)
	sol := InitialSOL(m)
	assert.InDelta(t, TokenSupply(m)*InitialPrice(m), sol, 0.000001)
}

func TestGenerateTokenSymbol(t *testing.T) {
	cases := map[string]string{
		"PewDiePie":     "PEWD",
		"MrBeast":       "MRBE",
		"T-Series":      "TSER",
		"Ali":           "ALI",
		"A B!":          "AB",
		"Linus Tech":    "LINU",
		"99 Problems??": "99PR",
	}
	for name, want := range cases {
		assert.Equal(t, want, GenerateTokenSymbol(name), "channel %q", name)
	}
}

func TestCreateTokenArgsEncoding(t *testing.T) {
	args := createTokenArgs{
		TokenTitle:    "MrBeast Token",
		TokenSymbol:   "MRBE",
		TokenURI:      "https://example.com/mock-metadata.json",
		TokenDecimals: 9,
	}
	data, err := args.encode()
	require.NoError(t, err)

	// Borsh lays strings out as u32 length then bytes, fields in order,
	// no discriminator in front.
	require.GreaterOrEqual(t, len(data), 4)
	titleLen := binary.LittleEndian.Uint32(data[:4])
	assert.Equal(t, uint32(len("MrBeast Token")), titleLen)
	assert.Equal(t, "MrBeast Token", string(data[4:4+titleLen]))

	rest := data[4+titleLen:]
	symbolLen := binary.LittleEndian.Uint32(rest[:4])
	assert.Equal(t, "MRBE", string(rest[4:4+symbolLen]))

	assert.Equal(t, byte(9), data[len(data)-1])
	expectedLen := 4 + len(args.TokenTitle) + 4 + len(args.TokenSymbol) + 4 + len(args.TokenURI) + 1
	assert.Len(t, data, expectedLen)
}
