package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meditrax/clinical-core/internal/model"
	"github.com/meditrax/clinical-core/internal/repository"
	"github.com/meditrax/clinical-core/internal/service/notification"
	apperrors "github.com/meditrax/clinical-core/pkg/errors"
	"github.com/meditrax/clinical-core/pkg/logger"
	"github.com/meditrax/clinical-core/pkg/metrics"
)

const notifyTimeout = 10 * time.Second

// Service persists and dispatches critical alerts. Persisting is the
// clinical contract; notification is best effort on top of it.
type Service struct {
	repo     repository.AlertRepository
	notifier *notification.Service
	metrics  *metrics.Metrics
	log      *logger.Logger
}

func NewService(repo repository.AlertRepository, notifier *notification.Service, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		metrics:  m,
		log:      log,
	}
}

// Raise creates the alert for an observation and kicks off notification.
// A second call for the same observation returns the existing alert without
// notifying again; the unique constraint on observation_id is the dedupe.
func (s *Service) Raise(ctx context.Context, obs *model.Observation, severity model.AlertSeverity, message string) (*model.CriticalAlert, error) {
	alert := &model.CriticalAlert{
		Base:          model.Base{ID: uuid.New()},
		PatientID:     obs.PatientID,
		ObservationID: obs.ID,
		Severity:      severity,
		Message:       message,
	}

	err := s.repo.Create(ctx, alert)
	if errors.Is(err, repository.ErrDuplicate) {
		existing, getErr := s.repo.GetByObservation(ctx, obs.ID)
		if getErr != nil {
			return nil, fmt.Errorf("failed to load existing alert: %w", getErr)
		}
		s.countDeduplicated()
		s.log.Info("alert already raised for observation",
			"observation_id", obs.ID,
			"alert_id", existing.ID,
		)
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}

	s.countRaised(severity)
	s.log.Info("critical alert raised",
		"alert_id", alert.ID,
		"patient_id", alert.PatientID,
		"severity", severity,
	)

	s.notifyAsync(alert)
	return alert, nil
}

// notifyAsync hands the alert off without blocking the write path. Delivery
// failures are logged and counted; the alert row already exists, so nothing
// clinical is lost.
func (s *Service) notifyAsync(alert *model.CriticalAlert) {
	if s.notifier == nil {
		return
	}
	payload := &model.AlertNotification{
		AlertID:   alert.ID,
		PatientID: alert.PatientID,
		Severity:  alert.Severity,
		Message:   alert.Message,
		RaisedAt:  alert.CreatedAt,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, payload); err != nil {
			s.countNotificationFailure()
			s.log.Error(apperrors.NotificationDelivery(err), "alert notification failed",
				"alert_id", alert.ID,
			)
		}
	}()
}

func (s *Service) GetAlert(ctx context.Context, id uuid.UUID) (*model.CriticalAlert, error) {
	alert, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("alert", err)
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return alert, nil
}

func (s *Service) ListAlerts(ctx context.Context, filters *model.AlertFilters) ([]*model.CriticalAlert, error) {
	alerts, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}

// Acknowledge stamps who saw the alert. Acknowledging twice is a no-op; the
// first actor and timestamp are kept.
func (s *Service) Acknowledge(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*model.CriticalAlert, error) {
	alert, err := s.GetAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert.AcknowledgedAt != nil {
		return alert, nil
	}

	now := time.Now()
	alert.AcknowledgedAt = &now
	alert.AcknowledgedBy = &actorID
	if err := s.repo.Update(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	return alert, nil
}

// Resolve closes the alert. Resolving implies acknowledging: an alert
// resolved directly gets both stamps from the same actor.
func (s *Service) Resolve(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*model.CriticalAlert, error) {
	alert, err := s.GetAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert.ResolvedAt != nil {
		return alert, nil
	}

	now := time.Now()
	if alert.AcknowledgedAt == nil {
		alert.AcknowledgedAt = &now
		alert.AcknowledgedBy = &actorID
	}
	alert.ResolvedAt = &now
	alert.ResolvedBy = &actorID
	if err := s.repo.Update(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to resolve alert: %w", err)
	}
	return alert, nil
}

func (s *Service) countRaised(severity model.AlertSeverity) {
	if s.metrics != nil {
		s.metrics.AlertsRaised.WithLabelValues(string(severity)).Inc()
	}
}

func (s *Service) countDeduplicated() {
	if s.metrics != nil {
		s.metrics.AlertsDeduplicated.Inc()
	}
}

func (s *Service) countNotificationFailure() {
	if s.metrics != nil {
		s.metrics.NotificationFailures.Inc()
	}
}
