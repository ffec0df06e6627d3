package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/ingest"
)

const testDetailPage = `<html><head><title>detail</title></head><body>
<h1>Stan - Prodaja - Splitsko-dalmatinska - Split - Split</h1>
<h3>185,000 €</h3>
<table>
<tr><td>Površina:</td><td><b>85 m2</b></td></tr>
<tr><td>Broj soba:</td><td><b>3</b></td></tr>
<tr><td>Broj kupaona:</td><td><b>2</b></td></tr>
<tr><td>Kat:</td><td><b>2</b></td></tr>
</table>
<p>REC ID: 1209086 Beautiful three bedroom apartment close to the beach with
an open sea view and a private parking space. Intrnal number: 551</p>
</body></html>`

func TestExtract_FullPage(t *testing.T) {
	raw := ingest.RawListing{ExternalID: "1209086"}
	NewDetailExtractor().Extract(testDetailPage, &raw)

	require.NotNil(t, raw.Price)
	assert.Equal(t, int64(185000), *raw.Price)
	assert.Equal(t, "€", raw.Currency)

	require.NotNil(t, raw.Area)
	assert.Equal(t, int64(85), *raw.Area)
	require.NotNil(t, raw.RoomCount)
	assert.Equal(t, int64(3), *raw.RoomCount)
	require.NotNil(t, raw.BathroomCount)
	assert.Equal(t, int64(2), *raw.BathroomCount)

	assert.Contains(t, raw.Description, "three bedroom apartment")
	assert.Equal(t, "EN", raw.DescriptionLang)
}

func TestParseTitle(t *testing.T) {
	var raw ingest.RawListing
	ParseTitle("Stan - Prodaja - Splitsko-dalmatinska - Split - Split", &raw)

	assert.Equal(t, "Stan", raw.PropertyType)
	assert.Equal(t, "Prodaja", raw.TransactionType)
	assert.Equal(t, "Splitsko-dalmatinska", raw.County)
	assert.Equal(t, "Split", raw.Municipality)
	assert.Equal(t, "Split", raw.Place)
}

func TestParseTitle_ShortTitleLeavesFieldsEmpty(t *testing.T) {
	var raw ingest.RawListing
	ParseTitle("Old listing", &raw)

	assert.Empty(t, raw.PropertyType)
	assert.Empty(t, raw.Place)
}

func TestExtract_MissingAttributesStayAbsent(t *testing.T) {
	raw := ingest.RawListing{ExternalID: "42"}
	NewDetailExtractor().Extract("<html><body>nothing useful here</body></html>", &raw)

	assert.Nil(t, raw.Price)
	assert.Nil(t, raw.Area)
	assert.Nil(t, raw.RoomCount)
	assert.Empty(t, raw.Description)
}

func TestParseAmount(t *testing.T) {
	n, ok := parseAmount("185,000")
	assert.True(t, ok)
	assert.Equal(t, int64(185000), n)

	n, ok = parseAmount("1.250.000")
	assert.True(t, ok)
	assert.Equal(t, int64(1250000), n)

	_, ok = parseAmount("-")
	assert.False(t, ok)
}
