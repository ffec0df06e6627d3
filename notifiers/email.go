package notifiers

import (
	"bytes"
	"embed"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"text/template"

	"github.com/google/uuid"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/data"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/models"
)

//go:embed templates/property_match.html templates/property_digest.html
var emailTemplates embed.FS

var propertyTemplates = template.Must(template.New("emails").ParseFS(emailTemplates, "templates/*.html"))

const digestItemLimit = 10

type Mailer struct {
	smtpHost string
	smtpPort string
	from     string
	password string
	appBase  string
}

func NewMailer(smtpHost, smtpPort, from, password, appBase string) *Mailer {
	return &Mailer{
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		from:     from,
		password: password,
		appBase:  strings.TrimRight(appBase, "/"),
	}
}

func (h *Mailer) PropertyMatchEmail(email string, match data.MatchNotification) (models.Email, error) {
	description := strings.TrimSpace(match.Description)
	if len(description) > 500 {
		description = description[:500] + "..."
	}

	var buf bytes.Buffer
	tmplData := struct {
		GoalName      string
		Headline      string
		Price         string
		Details       string
		Description   string
		Score         string
		URL           string
		GoalConfigURL string
	}{
		GoalName:      match.GoalName,
		Headline:      headline(match),
		Price:         priceLine(match),
		Details:       detailLine(match),
		Description:   description,
		Score:         scoreLine(match.SoftScore),
		URL:           match.ListingURL,
		GoalConfigURL: h.goalConfigURL(match.GoalID),
	}
	if err := propertyTemplates.ExecuteTemplate(&buf, "property_match.html", tmplData); err != nil {
		return models.Email{}, fmt.Errorf("render property match template: %w", err)
	}

	return models.Email{
		To:      email,
		Subject: "New listing matches your goal: " + match.GoalName,
		Body:    buf.String(),
	}, nil
}

func (h *Mailer) PropertyDigestEmail(email string, matches []data.MatchNotification) (models.Email, error) {
	if len(matches) == 0 {
		return models.Email{}, fmt.Errorf("no matches to notify")
	}

	type digestItem struct {
		GoalName string
		Headline string
		Price    string
		Details  string
		Score    string
		URL      string
	}

	items := make([]digestItem, 0, digestItemLimit)
	goalSet := make(map[string]struct{})
	for _, match := range matches {
		goalSet[match.GoalName] = struct{}{}
		if len(items) >= digestItemLimit {
			continue
		}

		items = append(items, digestItem{
			GoalName: match.GoalName,
			Headline: headline(match),
			Price:    priceLine(match),
			Details:  detailLine(match),
			Score:    scoreLine(match.SoftScore),
			URL:      match.ListingURL,
		})
	}

	goals := make([]string, 0, len(goalSet))
	for g := range goalSet {
		goals = append(goals, g)
	}

	var buf bytes.Buffer
	tmplData := struct {
		Items     []digestItem
		Goals     []string
		Total     int
		Remaining int
	}{
		Items:     items,
		Goals:     goals,
		Total:     len(matches),
		Remaining: len(matches) - len(items),
	}
	if err := propertyTemplates.ExecuteTemplate(&buf, "property_digest.html", tmplData); err != nil {
		return models.Email{}, fmt.Errorf("render property digest template: %w", err)
	}

	subject := fmt.Sprintf("%d new listings match your goals", len(matches))

	return models.Email{
		To:      email,
		Subject: subject,
		Body:    buf.String(),
	}, nil
}

func (h *Mailer) Send(mail models.Email) error {
	message := fmt.Sprintf(`From: Adriatic Monitor <%s>
To: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, h.from, mail.To, mail.Subject, mail.Body)

	auth := smtp.PlainAuth("", h.from, h.password, h.smtpHost)
	addr := fmt.Sprintf("%s:%s", h.smtpHost, h.smtpPort)
	err := smtp.SendMail(addr, auth, h.from, []string{mail.To}, []byte(message))
	if err != nil {
		slog.Error("Failed to send email", "error", err)
		return err
	}

	slog.Info("email sent", "recipient", mail.To, "subject", mail.Subject)
	return nil
}

func (h *Mailer) goalConfigURL(goalID uuid.UUID) string {
	if h.appBase == "" {
		return ""
	}

	return fmt.Sprintf("%s/goals/%s/edit", h.appBase, goalID)
}

func headline(match data.MatchNotification) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{match.PropertyType, match.TransactionType, match.Place} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "Listing " + match.ExternalID
	}
	return strings.Join(parts, " - ")
}

func priceLine(match data.MatchNotification) string {
	if match.Price <= 0 {
		return "Price on request"
	}
	currency := match.Currency
	if currency == "" {
		currency = "€"
	}
	return fmt.Sprintf("%d %s", match.Price, currency)
}

func detailLine(match data.MatchNotification) string {
	parts := make([]string, 0, 3)
	if match.Area > 0 {
		parts = append(parts, fmt.Sprintf("%d m2", match.Area))
	}
	if match.RoomCount > 0 {
		parts = append(parts, fmt.Sprintf("%d rooms", match.RoomCount))
	}
	if match.County != "" {
		parts = append(parts, match.County)
	}
	return strings.Join(parts, " · ")
}

func scoreLine(score float64) string {
	return fmt.Sprintf("%.0f%%", score*100)
}
