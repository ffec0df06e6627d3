// Package sources fetches raw listings from the real-estate feed and its
// detail pages. It is the fetch collaborator in front of the ingestion
// coordinator: everything it produces is re-checked for duplicates there.
package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"time"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/ingest"
)

type FeedFetcher struct {
	logger    *slog.Logger
	client    *http.Client
	feedURL   string
	extractor *DetailExtractor
}

func NewFeedFetcher(logger *slog.Logger, client *http.Client, feedURL string, extractor *DetailExtractor) *FeedFetcher {
	return &FeedFetcher{
		logger:    logger,
		client:    client,
		feedURL:   feedURL,
		extractor: extractor,
	}
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
}

// FetchSince returns the feed entries published at or after since, enriched
// with detail-page attributes where the detail fetch succeeds. A failed
// detail fetch degrades to a feed-only listing; missing attributes later
// fail hard criteria instead of passing silently.
func (f *FeedFetcher) FetchSince(ctx context.Context, since time.Time) ([]ingest.RawListing, error) {
	items, err := f.fetchFeed(ctx)
	if err != nil {
		return nil, err
	}

	listings := make([]ingest.RawListing, 0, len(items))
	for _, item := range items {
		published, err := parsePubDate(item.PubDate)
		if err != nil {
			f.logger.Warn("feed entry with unparseable date skipped", "link", item.Link, "error", err)
			continue
		}
		if published.Before(since) {
			continue
		}

		raw := ingest.RawListing{
			ExternalID:  externalIDFromLink(item.Link),
			PublishedAt: published,
			ListingURL:  item.Link,
		}
		ParseTitle(item.Title, &raw)

		if f.extractor != nil {
			if err := f.enrich(ctx, &raw); err != nil {
				f.logger.Warn("detail fetch failed, keeping feed-only listing",
					"external_id", raw.ExternalID, "error", err)
			}
		}

		listings = append(listings, raw)
	}

	f.logger.Info("feed fetched", "entries", len(items), "in_window", len(listings))

	return listings, nil
}

func (f *FeedFetcher) fetchFeed(ctx context.Context) ([]rssItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}

	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: unexpected status %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	return feed.Channel.Items, nil
}

func (f *FeedFetcher) enrich(ctx context.Context, raw *ingest.RawListing) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw.ListingURL, nil)
	if err != nil {
		return fmt.Errorf("build detail request: %w", err)
	}

	res, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch detail: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch detail: unexpected status %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read detail body: %w", err)
	}

	f.extractor.Extract(string(body), raw)

	return nil
}

// externalIDFromLink pulls the listing id from a detail link such as
// http://www.realestatecroatia.com/hrv/detail.asp?id=1209086.
func externalIDFromLink(link string) string {
	u, err := neturl.Parse(link)
	if err != nil {
		return ""
	}
	return u.Query().Get("id")
}

func parsePubDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
