package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/data/repos"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/models"
)

type ListingHandler struct {
	repo *repos.ListingRepo
}

func NewListingHandler(repo *repos.ListingRepo) *ListingHandler {
	return &ListingHandler{repo}
}

func (h *ListingHandler) GetListings(w http.ResponseWriter, r *http.Request) Result {
	q := r.URL.Query()

	filter := repos.ListingFilter{
		TransactionType: q.Get("transactionType"),
		PropertyTypes:   splitCSV(q.Get("propertyTypes")),
		Counties:        splitCSV(q.Get("counties")),
		MinPrice:        queryInt(q.Get("minPrice")),
		MaxPrice:        queryInt(q.Get("maxPrice")),
		MinArea:         queryInt(q.Get("minArea")),
		MaxArea:         queryInt(q.Get("maxArea")),
		ActiveOnly:      q.Get("includeInactive") != "true",
	}

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	filter.Limit = 50
	filter.Offset = (page - 1) * filter.Limit

	listings, err := h.repo.Filter(r.Context(), filter)
	if err != nil {
		return InternalError(err, "get listings: ")
	}

	res := models.GetListingsResponse{Listings: make([]models.Listing, 0, len(listings))}
	for _, l := range listings {
		res.Listings = append(res.Listings, models.FromDataListing(l))
	}

	return Ok(res)
}

func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) Result {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return BadRequest("Invalid listing ID.")
	}

	listing, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		return InternalError(err, "get listing: ")
	}
	if listing == nil {
		return NotFound("Listing not found.")
	}

	return Ok(models.FromDataListing(*listing))
}

// DeactivateListing marks a listing withdrawn at the source. The row and
// its match history stay.
func (h *ListingHandler) DeactivateListing(w http.ResponseWriter, r *http.Request) Result {
	externalID := r.PathValue("externalId")
	if externalID == "" {
		return BadRequest("Listing external ID is required.")
	}

	if err := h.repo.Deactivate(r.Context(), externalID); err != nil {
		return InternalError(err, "deactivate listing: ")
	}

	return Ok(nil)
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func queryInt(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
