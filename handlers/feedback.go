package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/data"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/models"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/notifiers"
)

type FeedbackHandler struct {
	mailer *notifiers.Mailer
	inbox  string
}

func NewFeedbackHandler(mailer *notifiers.Mailer, inbox string) *FeedbackHandler {
	return &FeedbackHandler{mailer: mailer, inbox: inbox}
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
}

func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) Result {
	user := r.Context().Value("user").(data.User)

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return BadRequest("Invalid request.")
	}

	if req.Feedback == "" {
		return BadRequest("Feedback is required.")
	}

	email := models.Email{
		To:      h.inbox,
		Subject: "adriatic monitor feedback",
		Body:    fmt.Sprintf("<strong>From:</strong> %s<br/><br/>%s", user.Email, req.Feedback),
	}

	if err := h.mailer.Send(email); err != nil {
		return InternalError(err, "send feedback email: ")
	}

	return Ok(nil)
}
