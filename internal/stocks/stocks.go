package stocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// Returned when the provider answered but had nothing for the symbol.
var ErrNoData = errors.New("no data")

// Returned by ValidateSelection when too few or too many symbols are picked.
var ErrSelectionCount = errors.New("wrong number of symbols selected")

// Latest market data for a single symbol. Fields a provider doesn't return stay zero.
type Quote struct {
	Symbol           string
	Name             string
	Price            float64
	Change           float64
	ChangePercent    float64
	DayHigh          float64
	DayLow           float64
	PreviousClose    float64
	FiftyTwoWeekHigh float64
	FiftyTwoWeekLow  float64
	FiftyDayAverage  float64
	Volume           int
	Currency         string
	Exchange         string
}

// One daily close.
type Bar struct {
	Date  time.Time
	Close float64
}

type Series struct {
	Symbol string
	Bars   []Bar
}

// Backend is a market data provider.
type Backend interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
	// Daily closes in [start, end), oldest first.
	History(ctx context.Context, symbol string, start, end time.Time) (Series, error)
}

// SymbolError ties a fetch failure to the symbol that caused it.
type SymbolError struct {
	Symbol string
	Err    error
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("%s: %v", e.Symbol, e.Err)
}

func (e *SymbolError) Unwrap() error { return e.Err }

func ValidateSelection(symbols []string, min, max int) error {
	if len(symbols) < min || len(symbols) > max {
		return fmt.Errorf("%w: got %d, want %d to %d", ErrSelectionCount, len(symbols), min, max)
	}
	return nil
}

// Window returns the date range covering the last days days up to now.
func Window(now time.Time, days int) (time.Time, time.Time) {
	return now.AddDate(0, 0, -days), now
}

// FetchAll loads history for every symbol concurrently. The result keeps the order of symbols.
func FetchAll(ctx context.Context, b Backend, symbols []string, start, end time.Time) ([]Series, error) {
	out := make([]Series, len(symbols))
	g, ctx := errgroup.WithContext(ctx)

	for i, symbol := range symbols {
		g.Go(func() error {
			s, err := b.History(ctx, symbol, start, end)
			if err != nil {
				return &SymbolError{Symbol: symbol, Err: err}
			}
			if len(s.Bars) == 0 {
				return &SymbolError{Symbol: symbol, Err: ErrNoData}
			}
			s.Symbol = symbol
			out[i] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// barsBefore drops bars dated at or after end, keeping History's [start, end) range.
func barsBefore(bars []Bar, end time.Time) []Bar {
	out := bars[:0]
	for _, b := range bars {
		if b.Date.Before(end) {
			out = append(out, b)
		}
	}
	return out
}

func dayKey(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Align puts every series on the union of their dates.
// Missing closes are carried forward, leading gaps take the first known close.
func Align(series []Series) ([]time.Time, [][]float64) {
	seen := make(map[time.Time]bool)
	var dates []time.Time
	for _, s := range series {
		for _, b := range s.Bars {
			k := dayKey(b.Date)
			if !seen[k] {
				seen[k] = true
				dates = append(dates, k)
			}
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	values := make([][]float64, len(series))
	for i, s := range series {
		closes := make(map[time.Time]float64, len(s.Bars))
		for _, b := range s.Bars {
			closes[dayKey(b.Date)] = b.Close
		}

		row := make([]float64, len(dates))
		filled := -1
		for j, d := range dates {
			if c, ok := closes[d]; ok {
				row[j] = c
				if filled < 0 {
					// backfill the leading gap
					for k := 0; k < j; k++ {
						row[k] = c
					}
				}
				filled = j
			} else if filled >= 0 {
				row[j] = row[filled]
			}
		}
		values[i] = row
	}

	return dates, values
}
