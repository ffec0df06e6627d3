package handlers

import (
	"net/http"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/data"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/data/repos"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/models"
)

type UserHandler struct {
	userRepo *repos.UserRepo
}

func NewUserHandler(repo *repos.UserRepo) *UserHandler {
	return &UserHandler{
		userRepo: repo,
	}
}

func (h UserHandler) InitializeUser(w http.ResponseWriter, r *http.Request) Result {
	user := r.Context().Value("user").(data.User)
	exists, err := h.userRepo.GetUserByID(r.Context(), user.ID)
	if err != nil {
		return InternalError(err, "initialize user: get user")
	}
	if exists != nil {
		return Ok(models.UserModel{
			ID:          exists.ID,
			Name:        exists.Name,
			DisplayName: exists.DisplayName,
			Email:       exists.Email,
			Avatar:      exists.Avatar,
		})
	}

	id, err := h.userRepo.InsertUser(r.Context(), user)
	if err != nil {
		return InternalError(err, "initialize user: insert user")
	}

	return Created(id)
}

// DeleteUser removes the account and, through cascades, its goals,
// criteria and match results.
func (h UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) Result {
	user := r.Context().Value("user").(data.User)

	if err := h.userRepo.DeleteUser(r.Context(), user.ID); err != nil {
		return InternalError(err, "delete user")
	}

	return Ok(nil)
}
