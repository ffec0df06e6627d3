package sources

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Real Estate Croatia</title>
<item>
<title>Stan - Prodaja - Splitsko-dalmatinska - Split - Split</title>
<link>http://www.realestatecroatia.com/hrv/detail.asp?id=1209086</link>
<pubDate>Mon, 02 Jun 2025 10:00:00 +0200</pubDate>
</item>
<item>
<title>Kuća - Prodaja - Zadarska - Zadar - Zadar</title>
<link>http://www.realestatecroatia.com/hrv/detail.asp?id=1209087</link>
<pubDate>Sun, 01 Jun 2025 08:00:00 +0200</pubDate>
</item>
<item>
<title>Old listing</title>
<link>http://www.realestatecroatia.com/hrv/detail.asp?id=1100000</link>
<pubDate>Mon, 05 May 2025 08:00:00 +0200</pubDate>
</item>
</channel>
</rss>`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchSince_ParsesFeedAndFiltersWindow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testFeed))
	}))
	defer server.Close()

	fetcher := NewFeedFetcher(testLogger(), server.Client(), server.URL, nil)

	since := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	listings, err := fetcher.FetchSince(context.Background(), since)
	require.NoError(t, err)

	require.Len(t, listings, 2)
	assert.Equal(t, "1209086", listings[0].ExternalID)
	assert.Equal(t, "1209087", listings[1].ExternalID)
	assert.Equal(t, "http://www.realestatecroatia.com/hrv/detail.asp?id=1209086", listings[0].ListingURL)
	assert.Equal(t, time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC), listings[0].PublishedAt)
	assert.Equal(t, "Stan", listings[0].PropertyType)
	assert.Equal(t, "Zadarska", listings[1].County)
}

func TestFetchSince_FeedErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	fetcher := NewFeedFetcher(testLogger(), server.Client(), server.URL, nil)

	_, err := fetcher.FetchSince(context.Background(), time.Time{})
	assert.Error(t, err)
}

func TestExternalIDFromLink(t *testing.T) {
	assert.Equal(t, "1209086", externalIDFromLink("http://www.realestatecroatia.com/hrv/detail.asp?id=1209086"))
	assert.Equal(t, "", externalIDFromLink("http://www.realestatecroatia.com/hrv/rss.asp"))
}

func TestParsePubDate(t *testing.T) {
	parsed, err := parsePubDate("Mon, 02 Jun 2025 10:00:00 +0200")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC), parsed)

	_, err = parsePubDate("not a date")
	assert.Error(t, err)
}
