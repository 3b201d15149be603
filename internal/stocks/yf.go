package stocks

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"
	"github.com/shopspring/decimal"
)

// Yahoo Finance through finance-go. Needs no API key.
type Yahoo struct{}

// finance-go has no context support, so calls run in their own goroutine and
// are abandoned if ctx ends first.
func withContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-done:
		return r.v, r.err
	}
}

func quoteFromEquity(e *finance.Equity) Quote {
	return Quote{
		Symbol:           e.Symbol,
		Name:             e.ShortName,
		Price:            e.RegularMarketPrice,
		Change:           e.RegularMarketChange,
		ChangePercent:    e.RegularMarketChangePercent,
		DayHigh:          e.RegularMarketDayHigh,
		DayLow:           e.RegularMarketDayLow,
		PreviousClose:    e.RegularMarketPreviousClose,
		FiftyTwoWeekHigh: e.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  e.FiftyTwoWeekLow,
		FiftyDayAverage:  e.FiftyDayAverage,
		Volume:           e.RegularMarketVolume,
		Currency:         e.CurrencyID,
		Exchange:         e.FullExchangeName,
	}
}

func (Yahoo) Quote(ctx context.Context, symbol string) (Quote, error) {
	e, err := withContext(ctx, func() (*finance.Equity, error) {
		return equity.Get(symbol)
	})
	if err != nil {
		return Quote{}, fmt.Errorf("yahoo quote %s: %w", symbol, err)
	}
	if e == nil || e.RegularMarketPrice == 0 {
		return Quote{}, fmt.Errorf("yahoo quote %s: %w", symbol, ErrNoData)
	}
	return quoteFromEquity(e), nil
}

func closeFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func barFromChart(b *finance.ChartBar) Bar {
	return Bar{
		Date:  time.Unix(int64(b.Timestamp), 0).UTC(),
		Close: closeFloat(b.Close),
	}
}

func (Yahoo) History(ctx context.Context, symbol string, start, end time.Time) (Series, error) {
	params := &chart.Params{
		Symbol:   symbol,
		Interval: datetime.OneDay,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
	}

	bars, err := withContext(ctx, func() ([]Bar, error) {
		var bars []Bar
		iter := chart.Get(params)
		for iter.Next() {
			bars = append(bars, barFromChart(iter.Bar()))
		}
		return bars, iter.Err()
	})
	if err != nil {
		return Series{}, fmt.Errorf("yahoo history %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return Series{}, fmt.Errorf("yahoo history %s: %w", symbol, ErrNoData)
	}

	return Series{Symbol: symbol, Bars: bars}, nil
}
