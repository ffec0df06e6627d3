package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/data"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/data/repos"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/metrics"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/models"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/notifiers"
)

type Notifier struct {
	matchRepo *repos.MatchResultRepo
	usersRepo *repos.UserRepo
	mailer    *notifiers.Mailer
	metrics   *metrics.Metrics
	interval  time.Duration
}

func NewNotifier(mailer *notifiers.Mailer, matchRepo *repos.MatchResultRepo, usersRepo *repos.UserRepo, m *metrics.Metrics, interval time.Duration) *Notifier {
	return &Notifier{
		matchRepo: matchRepo,
		usersRepo: usersRepo,
		mailer:    mailer,
		metrics:   m,
		interval:  interval,
	}
}

func (n *Notifier) Start(ctx context.Context) {
	if err := n.notifyUsers(ctx); err != nil {
		slog.Error("notify users:", "error", err)
	}

	go func() {
		ticker := time.NewTicker(n.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := n.notifyUsers(ctx); err != nil {
					slog.Error("notify users:", "error", err)
				}
			}
		}
	}()
}

func (n *Notifier) notifyUsers(ctx context.Context) error {
	unnotified, err := n.matchRepo.GetUnnotified(ctx)
	if err != nil {
		return errors.Wrap(err, "notify users: get unnotified matches")
	}
	if len(unnotified) == 0 {
		return nil
	}

	// Group matches by user, then send a single email or a digest depending
	// on how many listings matched for that user since the last cycle.
	userMatches := make(map[uuid.UUID][]data.MatchNotification)
	userIDs := make([]uuid.UUID, 0, len(unnotified))
	for _, match := range unnotified {
		if _, seen := userMatches[match.UserID]; !seen {
			userIDs = append(userIDs, match.UserID)
		}
		userMatches[match.UserID] = append(userMatches[match.UserID], match)
	}

	u, err := n.usersRepo.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return errors.Wrap(err, "notify users: get users by IDs")
	}
	users := make(map[uuid.UUID]data.User)
	for _, user := range u {
		users[user.ID] = user
	}

	for userID, matches := range userMatches {
		user, ok := users[userID]
		if !ok {
			slog.Error("notify users: user not found", "userID", userID)
			continue
		}

		if err := n.notifyUser(ctx, user, matches); err != nil {
			slog.Error("notify users: send notification", "userID", userID, "error", err)
		}
	}

	return nil
}

func (n *Notifier) notifyUser(ctx context.Context, user data.User, matches []data.MatchNotification) error {
	var (
		mail models.Email
		err  error
	)
	if len(matches) == 1 {
		mail, err = n.mailer.PropertyMatchEmail(user.Email, matches[0])
	} else {
		mail, err = n.mailer.PropertyDigestEmail(user.Email, matches)
	}
	if err != nil {
		return errors.Wrap(err, "create email")
	}

	if err = n.mailer.Send(mail); err != nil {
		n.metrics.EmailsFailed.Inc()
		return errors.Wrap(err, "send email")
	}
	n.metrics.EmailsSent.Inc()

	matchIDs := make([]int64, 0, len(matches))
	for _, match := range matches {
		matchIDs = append(matchIDs, match.MatchID)
	}
	if err = n.matchRepo.MarkNotified(ctx, matchIDs, time.Now()); err != nil {
		return errors.Wrap(err, "mark matches as notified")
	}

	return nil
}
