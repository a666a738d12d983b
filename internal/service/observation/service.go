package observation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meditrax/clinical-core/internal/model"
	"github.com/meditrax/clinical-core/internal/repository"
	"github.com/meditrax/clinical-core/internal/service/alert"
	"github.com/meditrax/clinical-core/internal/service/evaluator"
	apperrors "github.com/meditrax/clinical-core/pkg/errors"
	"github.com/meditrax/clinical-core/pkg/logger"
)

// Service is the observation write path: store first, then evaluate, then
// alert. The stored row is never blocked by evaluation problems; a value no
// range can judge is flagged for manual review instead of being dropped or
// defaulted to normal.
type Service struct {
	repo      repository.ObservationRepository
	evaluator *evaluator.Service
	alerts    *alert.Service
	log       *logger.Logger
}

func NewService(repo repository.ObservationRepository, eval *evaluator.Service, alerts *alert.Service, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		evaluator: eval,
		alerts:    alerts,
		log:       log,
	}
}

// Record stores the observation, classifies it, and raises an alert for
// critical verdicts. Always returns the stored row with its verdict; only
// storage failures error out.
func (s *Service) Record(ctx context.Context, req *model.RecordObservationRequest) (*model.ObservationResult, error) {
	obs := &model.Observation{
		Base:       model.Base{ID: uuid.New()},
		PatientID:  req.PatientID,
		Kind:       model.ObservationKind(req.Kind),
		Parameter:  req.Parameter,
		Value:      req.Value,
		Unit:       req.Unit,
		RecordedAt: req.RecordedAt,
		RecorderID: req.RecorderID,
	}
	if obs.RecordedAt.IsZero() {
		obs.RecordedAt = time.Now()
	}

	eval, err := s.evaluator.Evaluate(ctx, obs, req.PatientAgeYears, model.Gender(req.PatientGender))
	if err != nil {
		if !apperrors.IsCode(err, apperrors.ErrNotEvaluable) {
			return nil, err
		}
		obs.NeedsReview = true
		eval = &evaluator.Evaluation{Verdict: model.VerdictNotEvaluable}
		s.log.Warn("observation not evaluable, flagged for review",
			"patient_id", obs.PatientID,
			"parameter", obs.Parameter,
		)
	}

	if err := s.repo.Create(ctx, obs); err != nil {
		return nil, fmt.Errorf("failed to store observation: %w", err)
	}

	result := &model.ObservationResult{
		Observation: obs,
		Verdict:     eval.Verdict,
	}

	if eval.Verdict.IsCritical() {
		raised, err := s.alerts.Raise(ctx, obs, eval.Severity, alertMessage(obs, eval))
		if err != nil {
			return nil, err
		}
		result.AlertID = &raised.ID
	}

	return result, nil
}

func (s *Service) GetObservation(ctx context.Context, id uuid.UUID) (*model.Observation, error) {
	obs, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("observation", err)
		}
		return nil, fmt.Errorf("failed to get observation: %w", err)
	}
	return obs, nil
}

func alertMessage(obs *model.Observation, eval *evaluator.Evaluation) string {
	direction := "above critical high"
	if eval.Verdict == model.VerdictCriticalLow {
		direction = "below critical low"
	}
	return fmt.Sprintf("%s %g %s is %s", obs.Parameter, obs.Value, obs.Unit, direction)
}
