package helper

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"zipline_manager/constants"
	"zipline_manager/utils"
)

// Paid sessions younger than this are re-checked for missing tickets.
const reconcileWindow = 24 * time.Hour

var (
	digestScheduler    gocron.Scheduler
	reconcileScheduler *cron.Cron
)

// SendDailyDigest mails the day's ticket counts to the office.
func SendDailyDigest(ctx context.Context) error {
	if Mailer == nil || Settings == nil || Settings.AdminEmail == "" {
		logrus.Debug("[CRON] daily digest skipped, no recipient")
		return nil
	}

	tickets, err := Tickets.GetAllTickets(ctx)
	if err != nil {
		return fmt.Errorf("loading tickets for digest: %w", err)
	}
	now := Tickets.Now()
	loc := Schedule.Location()
	stats := ComputeStats(tickets, now, loc)

	closures, _, err := Closures.Load(ctx)
	if err != nil {
		logrus.WithError(err).Warn("[CRON] closures unavailable for digest")
	}
	tomorrow := Schedule.ClassifyDay(now.In(loc).AddDate(0, 0, 1), closures, now)

	return Mailer.SendDigest(Settings.AdminEmail, utils.DigestData{
		Date:     now.In(loc).Format("02/01/2006"),
		Stats:    stats,
		Tomorrow: describeDay(tomorrow.Status, tomorrow.OpeningHours),
	})
}

func describeDay(status string, hours *string) string {
	switch status {
	case constants.DAY_OPEN:
		if hours != nil {
			return "ouvert (" + *hours + ")"
		}
		return "ouvert"
	case constants.DAY_EXCEPTIONALLY_CLOSED:
		return "fermeture exceptionnelle"
	}
	return "fermé (hors saison)"
}

// ReconcilePaidSessions issues the tickets of paid sessions whose webhook
// never arrived.
func ReconcilePaidSessions(ctx context.Context, since time.Time) (int, error) {
	ids, err := Payments.ListPaidSessions(ctx, since)
	if err != nil {
		return 0, err
	}
	issued := 0
	for _, id := range ids {
		_, created, err := Fulfiller.EnsureTickets(ctx, id)
		if err != nil {
			logrus.WithError(err).WithField("sessionId", id).Warn("[CRON] reconcile failed for session")
			continue
		}
		if len(created) > 0 {
			issued += len(created)
			DeliverTickets(ctx, created)
		}
	}
	return issued, nil
}

func StartDigestScheduler() error {
	s, err := gocron.NewScheduler(gocron.WithLocation(Schedule.Location()))
	if err != nil {
		return err
	}
	digestScheduler = s

	_, err = s.NewJob(
		gocron.DailyJob(
			1,
			gocron.NewAtTimes(
				gocron.NewAtTime(20, 0, 0),
			),
		),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := SendDailyDigest(ctx); err != nil {
				logrus.WithError(err).Error("[CRON] daily digest failed")
			}
		}),
	)
	if err != nil {
		return err
	}

	s.Start()
	logrus.Info("Daily digest scheduler started (20:00)")
	return nil
}

func StartReconcileScheduler() error {
	reconcileScheduler = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	_, err := reconcileScheduler.AddFunc("*/15 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		issued, err := ReconcilePaidSessions(ctx, Clock.Now().Add(-reconcileWindow))
		if err != nil {
			logrus.WithError(err).Error("[CRON] reconcile failed")
			return
		}
		if issued > 0 {
			logrus.WithField("issued", issued).Warn("[CRON] issued tickets missed by the webhook")
		}
	})
	if err != nil {
		return err
	}

	reconcileScheduler.Start()
	logrus.Info("Reconcile scheduler started (every 15 minutes)")
	return nil
}

func StopSchedulers() {
	if digestScheduler != nil {
		if err := digestScheduler.Shutdown(); err != nil {
			logrus.WithError(err).Warn("stopping digest scheduler")
		}
	}
	if reconcileScheduler != nil {
		<-reconcileScheduler.Stop().Done()
	}
	logrus.Info("Schedulers stopped")
}
