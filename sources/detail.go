package sources

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pemistahl/lingua-go"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/ingest"
)

// Detail pages label their attribute table in Croatian. The labels are
// stable across listings; only the values change.
var (
	tagRe      = regexp.MustCompile(`<[^>]+>`)
	priceRe    = regexp.MustCompile(`([\d][\d.,]*)\s*(€|EUR)`)
	areaRe     = regexp.MustCompile(`Površina:\s*([\d.]+)\s*m2`)
	roomsRe    = regexp.MustCompile(`Broj soba:\s*(\d+)`)
	bathsRe    = regexp.MustCompile(`Broj kupaona:\s*(\d+)`)
	floorRe    = regexp.MustCompile(`Kat:\s*(\d+)`)
	descBlockRe = regexp.MustCompile(`(?s)REC ID:\s*\d+\s*(.*?)\s*(?:Intrnal number:|Interni broj:|Interne Nummer:|$)`)
)

// DetailExtractor pulls structured attributes out of a fetched detail page.
// Extraction is best effort: whatever cannot be found stays absent and is
// handled downstream as missing data.
type DetailExtractor struct {
	detector lingua.LanguageDetector
}

func NewDetailExtractor() *DetailExtractor {
	// The source publishes descriptions in Croatian, English and German.
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.Croatian, lingua.English, lingua.German).
		Build()

	return &DetailExtractor{detector: detector}
}

// Extract fills raw with every attribute it can find in the page.
func (e *DetailExtractor) Extract(page string, raw *ingest.RawListing) {
	text := tagRe.ReplaceAllString(page, " ")
	text = strings.Join(strings.Fields(text), " ")

	if m := priceRe.FindStringSubmatch(text); m != nil {
		if price, ok := parseAmount(m[1]); ok {
			raw.Price = &price
			raw.Currency = "€"
		}
	}
	if m := areaRe.FindStringSubmatch(text); m != nil {
		if area, ok := parseAmount(m[1]); ok {
			raw.Area = &area
		}
	}
	raw.RoomCount = findCount(roomsRe, text)
	raw.BathroomCount = findCount(bathsRe, text)
	raw.Floor = findCount(floorRe, text)

	if m := descBlockRe.FindStringSubmatch(text); m != nil {
		raw.Description = strings.TrimSpace(m[1])
	}
	if raw.Description != "" {
		if lang, ok := e.detector.DetectLanguageOf(raw.Description); ok {
			raw.DescriptionLang = lang.IsoCode639_1().String()
		}
	}
}

// ParseTitle parses the "type - transaction - county - municipality - place"
// heading the source uses for every feed item title.
func ParseTitle(title string, raw *ingest.RawListing) {
	parts := strings.Split(title, " - ")
	if len(parts) < 3 {
		return
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	raw.PropertyType = parts[0]
	raw.TransactionType = parts[1]

	location := parts[2:]
	switch {
	case len(location) >= 3:
		raw.County = location[0]
		raw.Municipality = location[1]
		raw.Place = location[2]
	case len(location) == 2:
		raw.County = location[0]
		raw.Municipality = location[1]
		raw.Place = location[1]
	default:
		raw.Place = location[0]
	}
}

func findCount(re *regexp.Regexp, text string) *int64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// parseAmount reads amounts like "1.250.000" or "185,000" as integers.
func parseAmount(s string) (int64, bool) {
	s = strings.NewReplacer(".", "", ",", "").Replace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
