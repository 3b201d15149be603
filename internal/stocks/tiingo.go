package stocks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"
)

const tiingoBaseURL = "https://api.tiingo.com"

// Tiingo IEX quotes and end-of-day prices.
type Tiingo struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewTiingo(token string) *Tiingo {
	return &Tiingo{
		BaseURL: tiingoBaseURL,
		Token:   token,
		Client:  &http.Client{},
	}
}

func (t *Tiingo) get(ctx context.Context, path string, query url.Values) (gjson.Result, error) {
	query.Set("token", t.Token)
	endpoint := fmt.Sprintf("%s%s?%s", t.BaseURL, path, query.Encode())
	log.Debug("Requesting tiingo data", "path", path)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return gjson.Result{}, err
	}

	resp, err := t.Client.Do(request)
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, err
	}

	if resp.StatusCode != http.StatusOK {
		// tiingo reports errors as {"detail": "..."}
		return gjson.Result{}, fmt.Errorf("status %d: %s", resp.StatusCode, gjson.GetBytes(body, "detail").String())
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("invalid JSON response")
	}

	return gjson.ParseBytes(body), nil
}

func (t *Tiingo) Quote(ctx context.Context, symbol string) (Quote, error) {
	data, err := t.get(ctx, "/iex/"+url.PathEscape(symbol), url.Values{})
	if err != nil {
		return Quote{}, fmt.Errorf("tiingo quote %s: %w", symbol, err)
	}

	rows := data.Array()
	if len(rows) == 0 {
		return Quote{}, fmt.Errorf("tiingo quote %s: %w", symbol, ErrNoData)
	}

	row := rows[0]
	price := row.Get("tngoLast").Float()
	if price == 0 {
		return Quote{}, fmt.Errorf("tiingo quote %s: %w", symbol, ErrNoData)
	}
	prev := row.Get("prevClose").Float()

	return Quote{
		Symbol:        symbol,
		Price:         price,
		PreviousClose: prev,
		Change:        price - prev,
		ChangePercent: pctChange(prev, price),
		DayHigh:       row.Get("high").Float(),
		DayLow:        row.Get("low").Float(),
		Volume:        int(row.Get("volume").Int()),
		Currency:      "USD",
		Exchange:      "IEX",
	}, nil
}

func (t *Tiingo) History(ctx context.Context, symbol string, start, end time.Time) (Series, error) {
	query := url.Values{}
	query.Set("startDate", start.Format("2006-01-02"))
	query.Set("endDate", end.Format("2006-01-02"))

	data, err := t.get(ctx, fmt.Sprintf("/tiingo/daily/%s/prices", url.PathEscape(symbol)), query)
	if err != nil {
		return Series{}, fmt.Errorf("tiingo history %s: %w", symbol, err)
	}

	var bars []Bar
	for _, row := range data.Array() {
		bars = append(bars, Bar{Date: row.Get("date").Time().UTC(), Close: row.Get("close").Float()})
	}
	bars = barsBefore(bars, end)
	if len(bars) == 0 {
		return Series{}, fmt.Errorf("tiingo history %s: %w", symbol, ErrNoData)
	}

	return Series{Symbol: symbol, Bars: bars}, nil
}
