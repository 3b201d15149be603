package stocks

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
)

// Polygon.io REST aggregates. Quotes are the previous session's close.
type Polygon struct {
	client *polygon.Client
}

func NewPolygon(apiKey string) *Polygon {
	return &Polygon{client: polygon.New(apiKey)}
}

func barFromAgg(a models.Agg) Bar {
	return Bar{
		Date:  time.Time(a.Timestamp).UTC(),
		Close: a.Close,
	}
}

func (p *Polygon) Quote(ctx context.Context, symbol string) (Quote, error) {
	params := models.GetPreviousCloseAggParams{
		Ticker: symbol,
	}.WithAdjusted(true)

	res, err := p.client.GetPreviousCloseAgg(ctx, params)
	if err != nil {
		return Quote{}, fmt.Errorf("polygon quote %s: %w", symbol, err)
	}
	if len(res.Results) == 0 {
		return Quote{}, fmt.Errorf("polygon quote %s: %w", symbol, ErrNoData)
	}

	agg := res.Results[0]
	return Quote{
		Symbol:  symbol,
		Price:   agg.Close,
		DayHigh: agg.High,
		DayLow:  agg.Low,
		Volume:  int(agg.Volume),
		// open-to-close move of the session
		Change:        agg.Close - agg.Open,
		ChangePercent: pctChange(agg.Open, agg.Close),
		Currency:      "USD",
	}, nil
}

func (p *Polygon) History(ctx context.Context, symbol string, start, end time.Time) (Series, error) {
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   "day",
		From:       models.Millis(start),
		To:         models.Millis(end),
	}.WithOrder(models.Order("asc")).WithLimit(5000)

	var bars []Bar
	iter := p.client.ListAggs(ctx, params)
	for iter.Next() {
		bars = append(bars, barFromAgg(iter.Item()))
	}
	if err := iter.Err(); err != nil {
		return Series{}, fmt.Errorf("polygon history %s: %w", symbol, err)
	}
	// To is inclusive and would add the session still in progress
	bars = barsBefore(bars, end)
	if len(bars) == 0 {
		return Series{}, fmt.Errorf("polygon history %s: %w", symbol, ErrNoData)
	}

	return Series{Symbol: symbol, Bars: bars}, nil
}

func pctChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from * 100
}
