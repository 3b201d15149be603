package news

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	feed "github.com/mmcdole/gofeed"
)

type Article struct {
	Title           string
	PublicationDate time.Time
	URL             string
	Source          string
}

// Fetches headlines for symbol from an RSS feed. feedURL is a format string with one %s for the symbol.
type Fetcher struct {
	FeedURL string
	Parser  *feed.Parser
}

func NewFetcher(feedURL string) *Fetcher {
	return &Fetcher{FeedURL: feedURL, Parser: feed.NewParser()}
}

// Headlines returns at most limit articles, newest first as the feed orders them. limit <= 0 means all.
func (f *Fetcher) Headlines(ctx context.Context, symbol string, limit int) ([]Article, error) {
	url := fmt.Sprintf(f.FeedURL, symbol)

	parsed, err := f.Parser.ParseURLWithContext(url, ctx)
	if err != nil {
		log.Error("Failed to get headlines", "symbol", symbol, "error", err)
		return nil, fmt.Errorf("headlines for %s: %w", symbol, err)
	}

	source := parsed.Title
	if source == "" {
		source = "Yahoo Finance"
	}

	var articles []Article
	for _, item := range parsed.Items {
		if limit > 0 && len(articles) == limit {
			break
		}

		article := Article{
			Title:  item.Title,
			Source: source,
			URL:    item.Link,
		}
		// some items come without a date
		if item.PublishedParsed != nil {
			article.PublicationDate = *item.PublishedParsed
		}

		articles = append(articles, article)
	}
	return articles, nil
}

// Short date for tables: the time of day for today's articles, otherwise MM/DD.
func FormatDate(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	year, month, day := t.Date()
	nowYear, nowMonth, nowDay := now.Date()
	if year == nowYear && month == nowMonth && day == nowDay {
		return t.Format("03:04 PM")
	}
	return t.Format("01/02")
}
