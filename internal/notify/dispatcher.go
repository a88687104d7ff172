package notify

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"flightmatrix/internal/config"
	"flightmatrix/internal/models"
	"flightmatrix/internal/repository"
)

const defaultMinInterval = 24 * time.Hour

// DealIdentifier filters fares to the ones worth telling a user about.
type DealIdentifier interface {
	IdentifyDeals(ctx context.Context, fares []models.Fare) []models.Fare
}

// Dispatcher decides, per alert, whether a notification may go out, sends it,
// and records the outcome. Throttle state advances only on successful sends,
// so a failed send is retried on the next cycle.
type Dispatcher struct {
	Repo   repository.Repository
	Users  repository.UserDirectory
	Mailer Mailer
	Deals  DealIdentifier
	Config config.NotifyConfig
	Logger *zap.Logger

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Dispatcher) minInterval() time.Duration {
	if d.Config.MinInterval > 0 {
		return d.Config.MinInterval
	}
	return defaultMinInterval
}

// DispatchFareAlert sends the per-fare notification for one matched
// (alert, fare) pair if the throttle and dedup checks allow it. It reports
// whether a send happened; skips are not errors.
func (d *Dispatcher) DispatchFareAlert(ctx context.Context, a models.Alert, fare models.Fare) (bool, error) {
	if !d.Config.Enabled {
		return false, nil
	}

	now := d.now()
	if a.LastNotifiedAt != nil && now.Sub(*a.LastNotifiedAt) < d.minInterval() {
		return false, nil
	}
	sent, err := d.Repo.HasSentNotification(ctx, a.ID, fare.ID)
	if err != nil {
		return false, fmt.Errorf("failed to check notification log: %w", err)
	}
	if sent {
		return false, nil
	}

	user, err := d.Users.GetUserByID(ctx, a.UserID)
	if err != nil {
		return false, fmt.Errorf("alert %d owner: %w", a.ID, err)
	}

	subject, body, err := RenderFareAlert(user.Name, fare)
	if err != nil {
		d.recordFailure(ctx, a.ID, &fare.ID, models.NotificationKindFareAlert, now)
		return false, err
	}
	if err := d.Mailer.Send(ctx, user.Email, subject, body); err != nil {
		d.Logger.Warn("fare alert send failed",
			zap.Uint64("alert_id", a.ID), zap.Uint64("fare_id", fare.ID), zap.Error(err))
		d.recordFailure(ctx, a.ID, &fare.ID, models.NotificationKindFareAlert, now)
		return false, nil
	}

	err = d.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := d.Repo.InsertNotificationTx(ctx, tx, &models.Notification{
			AlertID: a.ID,
			FareID:  &fare.ID,
			Kind:    models.NotificationKindFareAlert,
			Success: true,
			Content: body,
			SentAt:  now,
		}); err != nil {
			return err
		}
		return d.Repo.SetAlertNotifiedAtTx(ctx, tx, a.ID, now)
	})
	if err != nil {
		return false, fmt.Errorf("failed to record notification: %w", err)
	}
	return true, nil
}

// DispatchDailyDigest summarizes the prior day's deals per route and sends
// one digest to every active user with at least one alert. Digest sends
// ignore per-alert throttle state.
func (d *Dispatcher) DispatchDailyDigest(ctx context.Context) error {
	if !d.Config.Enabled {
		return nil
	}

	now := d.now()
	fares, err := d.Repo.ListFaresQueriedSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return fmt.Errorf("failed to load recent fares: %w", err)
	}
	deals := d.Deals.IdentifyDeals(ctx, fares)
	if len(deals) == 0 {
		d.Logger.Info("no deals in the last 24h, skipping digest")
		return nil
	}
	routes := GroupByRoute(deals)

	offerCount := len(deals)
	minPrice := deals[0].Price // IdentifyDeals sorts ascending

	users, err := d.Repo.ListUsers(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to list active users: %w", err)
	}

	for _, user := range users {
		alerts, err := d.Repo.ListAlertsByUser(ctx, user.ID)
		if err != nil {
			d.Logger.Warn("failed to load user alerts for digest",
				zap.Uint64("user_id", user.ID), zap.Error(err))
			continue
		}
		logAlertID := firstActiveAlertID(alerts)
		if logAlertID == 0 {
			continue
		}

		subject, body, err := RenderDigest(user.Name, now, routes)
		if err != nil {
			d.Logger.Warn("failed to render digest", zap.Uint64("user_id", user.ID), zap.Error(err))
			continue
		}

		success := true
		if err := d.Mailer.Send(ctx, user.Email, subject, body); err != nil {
			success = false
			d.Logger.Warn("digest send failed", zap.Uint64("user_id", user.ID), zap.Error(err))
		}

		count := offerCount
		min := minPrice
		if err := d.Repo.InsertNotification(ctx, &models.Notification{
			AlertID:    logAlertID,
			Kind:       models.NotificationKindDigest,
			Success:    success,
			Content:    body,
			OfferCount: &count,
			MinPrice:   &min,
			SentAt:     now,
		}); err != nil {
			d.Logger.Warn("failed to record digest notification",
				zap.Uint64("user_id", user.ID), zap.Error(err))
		}
	}
	return nil
}

func (d *Dispatcher) recordFailure(ctx context.Context, alertID uint64, fareID *uint64, kind string, at time.Time) {
	if err := d.Repo.InsertNotification(ctx, &models.Notification{
		AlertID: alertID,
		FareID:  fareID,
		Kind:    kind,
		Success: false,
		SentAt:  at,
	}); err != nil {
		d.Logger.Warn("failed to record notification failure",
			zap.Uint64("alert_id", alertID), zap.Error(err))
	}
}

// GroupByRoute splits price-sorted deals into per-route sections, routes
// ordered by their cheapest fare.
func GroupByRoute(deals []models.Fare) []RouteDeals {
	index := map[string]int{}
	var routes []RouteDeals
	for _, f := range deals {
		key := f.OriginCode + "-" + f.DestinationCode
		i, ok := index[key]
		if !ok {
			i = len(routes)
			index[key] = i
			routes = append(routes, RouteDeals{Origin: f.OriginCode, Destination: f.DestinationCode})
		}
		routes[i].Fares = append(routes[i].Fares, f)
	}
	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].Fares[0].Price.LessThan(routes[j].Fares[0].Price)
	})
	return routes
}

func firstActiveAlertID(alerts []models.Alert) uint64 {
	for _, a := range alerts {
		if a.Active {
			return a.ID
		}
	}
	return 0
}
