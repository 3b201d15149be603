package stocks

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeBackend struct {
	series map[string]Series
	errs   map[string]error
}

func (f fakeBackend) Quote(ctx context.Context, symbol string) (Quote, error) {
	return Quote{}, ErrNoData
}

func (f fakeBackend) History(ctx context.Context, symbol string, start, end time.Time) (Series, error) {
	if err, ok := f.errs[symbol]; ok {
		return Series{}, err
	}
	return f.series[symbol], nil
}

func day(d int) time.Time {
	return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC)
}

func TestValidateSelection(t *testing.T) {
	tests := []struct {
		name    string
		symbols []string
		wantErr bool
	}{
		{"none", nil, true},
		{"one", []string{"AAPL"}, true},
		{"two", []string{"AAPL", "TSLA"}, false},
		{"three", []string{"AAPL", "TSLA", "KO"}, false},
		{"four", []string{"AAPL", "TSLA", "KO", "IBM"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSelection(tt.symbols, 2, 3)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateSelection(%v) error = %v, wantErr %v", tt.symbols, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrSelectionCount) {
				t.Errorf("error %v is not ErrSelectionCount", err)
			}
		})
	}
}

func TestWindow(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	start, end := Window(now, 30)
	if !end.Equal(now) {
		t.Errorf("end = %v, want %v", end, now)
	}
	if want := time.Date(2024, 5, 16, 10, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("start = %v, want %v", start, want)
	}
}

func TestFetchAllKeepsOrder(t *testing.T) {
	b := fakeBackend{series: map[string]Series{
		"AAPL": {Bars: []Bar{{day(1), 190}}},
		"TSLA": {Bars: []Bar{{day(1), 170}}},
		"KO":   {Bars: []Bar{{day(1), 60}}},
	}}

	got, err := FetchAll(context.Background(), b, []string{"TSLA", "KO", "AAPL"}, day(1), day(2))
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []string{"TSLA", "KO", "AAPL"} {
		if got[i].Symbol != want {
			t.Errorf("got[%d].Symbol = %q, want %q", i, got[i].Symbol, want)
		}
	}
	if got[1].Bars[0].Close != 60 {
		t.Errorf("KO close = %v, want 60", got[1].Bars[0].Close)
	}
}

func TestFetchAllReportsFailingSymbol(t *testing.T) {
	boom := errors.New("boom")
	b := fakeBackend{
		series: map[string]Series{"AAPL": {Bars: []Bar{{day(1), 190}}}},
		errs:   map[string]error{"TSLA": boom},
	}

	_, err := FetchAll(context.Background(), b, []string{"AAPL", "TSLA"}, day(1), day(2))
	if err == nil {
		t.Fatal("expected error")
	}

	var symErr *SymbolError
	if !errors.As(err, &symErr) {
		t.Fatalf("error %v is not a *SymbolError", err)
	}
	if symErr.Symbol != "TSLA" {
		t.Errorf("Symbol = %q, want TSLA", symErr.Symbol)
	}
	if !errors.Is(err, boom) {
		t.Errorf("error %v does not wrap the backend error", err)
	}
}

func TestFetchAllEmptySeries(t *testing.T) {
	b := fakeBackend{series: map[string]Series{
		"AAPL": {Bars: []Bar{{day(1), 190}}},
	}}

	_, err := FetchAll(context.Background(), b, []string{"AAPL", "ZZZZ"}, day(1), day(2))
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("error = %v, want ErrNoData", err)
	}
}

func TestAlign(t *testing.T) {
	series := []Series{
		{Symbol: "AAPL", Bars: []Bar{{day(1), 10}, {day(2), 11}, {day(4), 13}}},
		{Symbol: "TSLA", Bars: []Bar{{day(2), 20}, {day(3), 21}}},
	}

	dates, values := Align(series)

	wantDates := []time.Time{day(1), day(2), day(3), day(4)}
	if len(dates) != len(wantDates) {
		t.Fatalf("len(dates) = %d, want %d", len(dates), len(wantDates))
	}
	for i := range wantDates {
		if !dates[i].Equal(wantDates[i]) {
			t.Errorf("dates[%d] = %v, want %v", i, dates[i], wantDates[i])
		}
	}

	want := [][]float64{
		{10, 11, 11, 13},
		{20, 20, 21, 21},
	}
	for i := range want {
		for j := range want[i] {
			if values[i][j] != want[i][j] {
				t.Errorf("values[%d][%d] = %v, want %v", i, j, values[i][j], want[i][j])
			}
		}
	}
}

func TestAlignIgnoresTimeOfDay(t *testing.T) {
	series := []Series{
		{Bars: []Bar{{day(1).Add(14 * time.Hour), 1}}},
		{Bars: []Bar{{day(1).Add(20 * time.Hour), 2}}},
	}
	dates, _ := Align(series)
	if len(dates) != 1 {
		t.Errorf("len(dates) = %d, want 1", len(dates))
	}
}

func TestAlignEmpty(t *testing.T) {
	dates, values := Align(nil)
	if len(dates) != 0 || len(values) != 0 {
		t.Errorf("Align(nil) = %v, %v, want empty", dates, values)
	}
}

func TestBarsBefore(t *testing.T) {
	end := time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)
	bars := []Bar{
		{Date: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), Close: 1},
		{Date: time.Date(2024, 5, 3, 20, 0, 0, 0, time.UTC), Close: 2},
		// today's partial session
		{Date: end, Close: 3},
		{Date: end.Add(4 * time.Hour), Close: 4},
	}

	got := barsBefore(bars, end)
	if len(got) != 2 {
		t.Fatalf("barsBefore kept %d bars, want 2: %v", len(got), got)
	}
	if got[0].Close != 1 || got[1].Close != 2 {
		t.Errorf("barsBefore = %v, want closes 1 and 2", got)
	}

	if got := barsBefore(nil, end); len(got) != 0 {
		t.Errorf("barsBefore(nil) = %v", got)
	}
}
