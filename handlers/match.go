package handlers

import (
	"net/http"
	"strconv"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/data"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/data/repos"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/models"
)

type MatchHandler struct {
	repo *repos.MatchResultRepo
}

func NewMatchHandler(repo *repos.MatchResultRepo) *MatchHandler {
	return &MatchHandler{repo}
}

func (h *MatchHandler) GetMatches(w http.ResponseWriter, r *http.Request) Result {
	user := r.Context().Value("user").(data.User)

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage := 20
	offset := (page - 1) * perPage

	matches, total, err := h.repo.GetMatchesByUserID(r.Context(), user.ID, perPage, offset)
	if err != nil {
		return InternalError(err, "get matches")
	}

	res := models.GetMatchesResponse{
		Matches: make([]models.Match, 0, len(matches)),
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}
	for _, m := range matches {
		res.Matches = append(res.Matches, models.FromMatchNotification(m))
	}

	return Ok(res)
}
