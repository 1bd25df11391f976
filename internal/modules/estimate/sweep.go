// README: Periodic sweeps over the estimate table, driven by the scheduler.
package estimate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"charter/internal/modules/notification"
)

type SweepResult struct {
	Scanned      int `json:"scanned"`
	Updated      int `json:"updated"`
	Notified     int `json:"notified"`
	NotifyFailed int `json:"notify_failed"`
	Failed       int `json:"failed"`
}

// Today is the current calendar date in the service's time zone, encoded as
// midnight UTC so it compares directly with stored wall-clock dates.
func (s *Service) Today() time.Time {
	return calendarDate(s.now().In(s.loc))
}

// tripEnd is the last calendar day of the trip: the return date when one was
// given, otherwise the departure date.
func tripEnd(e *Estimate) time.Time {
	if e.ReturnAt != nil {
		return calendarDate(*e.ReturnAt)
	}
	return calendarDate(e.DepartureAt)
}

// RunFinishSweep marks confirmed trips whose last day is before today as
// finished and asks their owners for a review. Each row is flipped with a
// conditional update, so a rerun on the same day changes nothing and sends
// nothing.
func (s *Service) RunFinishSweep(ctx context.Context, today time.Time) (SweepResult, error) {
	var res SweepResult
	today = calendarDate(today)
	candidates, err := s.store.ListUnfinishedConfirmed(ctx)
	if err != nil {
		return res, fmt.Errorf("estimate.Service.RunFinishSweep: %w", err)
	}
	for i := range candidates {
		e := &candidates[i]
		res.Scanned++
		end := tripEnd(e)
		if !end.Before(today) {
			continue
		}
		flipped, err := s.store.MarkFinished(ctx, e.ID, end)
		if err != nil {
			res.Failed++
			s.logger.ErrorContext(ctx, "finish sweep update failed",
				slog.String("estimate_id", string(e.ID)), slog.Any("error", err))
			continue
		}
		if !flipped {
			continue
		}
		res.Updated++
		s.recordEvent(ctx, &Event{
			EstimateID: e.ID,
			FromStatus: &e.Status,
			ToStatus:   e.Status,
			Source:     SourceSweep,
			Actor:      "finish",
			CreatedAt:  s.now(),
		})
		if e.OwnerID == nil {
			continue
		}
		if err := s.notifier.NotifyUser(ctx, *e.OwnerID, tripFinishedMessage(e)); err != nil {
			res.NotifyFailed++
			s.logger.WarnContext(ctx, "finish sweep notification failed",
				slog.String("estimate_id", string(e.ID)), slog.Any("error", err))
			continue
		}
		res.Notified++
	}
	s.logger.InfoContext(ctx, "finish sweep completed",
		slog.String("today", today.Format("2006-01-02")),
		slog.Int("scanned", res.Scanned),
		slog.Int("updated", res.Updated),
		slog.Int("notified", res.Notified),
		slog.Int("notify_failed", res.NotifyFailed),
		slog.Int("failed", res.Failed),
	)
	return res, nil
}

// RunDepositReminderSweep reminds every owner with an estimate awaiting
// deposit and asks admins to confirm it. Reminders repeat on every run.
func (s *Service) RunDepositReminderSweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	pending, err := s.store.ListByStatus(ctx, StatusAwaitingDeposit)
	if err != nil {
		return res, fmt.Errorf("estimate.Service.RunDepositReminderSweep: %w", err)
	}
	for i := range pending {
		e := &pending[i]
		res.Scanned++
		if e.OwnerID != nil {
			if err := s.notifier.NotifyUser(ctx, *e.OwnerID, depositReminderMessage(e)); err != nil {
				res.NotifyFailed++
				s.logger.WarnContext(ctx, "deposit reminder failed",
					slog.String("estimate_id", string(e.ID)), slog.Any("error", err))
			} else {
				res.Notified++
			}
		}
		if err := s.notifier.NotifyAdmins(ctx, confirmRequestMessage(e)); err != nil {
			res.NotifyFailed++
			s.logger.WarnContext(ctx, "admin confirmation request failed",
				slog.String("estimate_id", string(e.ID)), slog.Any("error", err))
		} else {
			res.Notified++
		}
	}
	s.logger.InfoContext(ctx, "deposit reminder sweep completed",
		slog.Int("scanned", res.Scanned),
		slog.Int("notified", res.Notified),
		slog.Int("notify_failed", res.NotifyFailed),
	)
	return res, nil
}

func tripFinishedMessage(e *Estimate) notification.Message {
	return notification.Message{
		Title: "How was your trip?",
		Body:  fmt.Sprintf("Your trip to %s has finished. Leave a review!", e.Destination.Name),
		Kind:  notification.KindTripFinished,
		Data:  map[string]string{"estimate_id": string(e.ID)},
	}
}

func depositReminderMessage(e *Estimate) notification.Message {
	return notification.Message{
		Title: "Deposit pending",
		Body:  fmt.Sprintf("Please pay the deposit of your %s trip to complete the reservation.", e.DepartureAt.Format("2006-01-02")),
		Kind:  notification.KindDepositReminder,
		Data:  map[string]string{"estimate_id": string(e.ID)},
	}
}

func confirmRequestMessage(e *Estimate) notification.Message {
	return notification.Message{
		Title: "Deposit confirmation needed",
		Body:  fmt.Sprintf("Estimate %s is awaiting deposit confirmation.", e.ID),
		Kind:  notification.KindConfirmRequest,
		Data:  map[string]string{"estimate_id": string(e.ID)},
	}
}

func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
