package scanner

import (
	"testing"

	"github.com/markcheno/go-quote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
)

type stubFetcher struct {
	quotes map[string]quote.Quote
}

func (s *stubFetcher) Daily(symbol string, _ int) (quote.Quote, error) {
	q, ok := s.quotes[symbol]
	if !ok {
		return quote.Quote{}, assert.AnError
	}
	return q, nil
}

// syntheticQuote builds n candles walking from start by step per bar,
// with a fixed high/low band around the close.
func syntheticQuote(symbol string, n int, start, step, band float64) quote.Quote {
	q := quote.NewQuote(symbol, n)
	price := start
	for i := 0; i < n; i++ {
		q.Open[i] = price
		q.Close[i] = price
		q.High[i] = price + band
		q.Low[i] = price - band
		q.Volume[i] = 1000
		price += step
	}
	return q
}

func TestScanDraftsTrendEntries(t *testing.T) {
	fetcher := &stubFetcher{quotes: map[string]quote.Quote{
		"UP":   syntheticQuote("UP", 60, 100, 0.5, 0.4),  // steady uptrend
		"DOWN": syntheticQuote("DOWN", 60, 200, -1, 0.8), // steady downtrend
	}}
	s := New(fetcher, DefaultConfig())

	proposals := s.Scan([]string{"UP", "DOWN", "MISSING"})
	require.Len(t, proposals, 2)

	byID := map[string]Proposal{}
	for _, p := range proposals {
		byID[p.Order.Symbol] = p
	}

	up := byID["UP"]
	assert.Equal(t, enum.ActionBuy, up.Order.Action)
	assert.Less(t, up.Order.StopLoss, up.Order.EntryPrice)

	down := byID["DOWN"]
	assert.Equal(t, enum.ActionShortSell, down.Order.Action)
	assert.Greater(t, down.Order.StopLoss, down.Order.EntryPrice)

	// steeper trend relative to range ranks first
	assert.Equal(t, proposals[0].Strength, maxStrength(proposals))
}

func maxStrength(proposals []Proposal) float64 {
	best := proposals[0].Strength
	for _, p := range proposals {
		if p.Strength > best {
			best = p.Strength
		}
	}
	return best
}

func TestScanSkipsShortHistory(t *testing.T) {
	fetcher := &stubFetcher{quotes: map[string]quote.Quote{
		"THIN": syntheticQuote("THIN", 5, 100, 1, 0.5),
	}}
	s := New(fetcher, DefaultConfig())
	assert.Empty(t, s.Scan([]string{"THIN"}))
}
