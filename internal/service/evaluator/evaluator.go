package evaluator

import (
	"context"
	"fmt"
	"strings"

	"github.com/meditrax/clinical-core/internal/model"
	"github.com/meditrax/clinical-core/internal/repository"
	apperrors "github.com/meditrax/clinical-core/pkg/errors"
	"github.com/meditrax/clinical-core/pkg/metrics"
)

// vitalThreshold is a hardcoded physiological limit for a vital sign.
// These apply regardless of what the reference table says: an SpO2 of 88
// is critical for every patient.
type vitalThreshold struct {
	criticalLow   *float64
	criticalHigh  *float64
	emergencyLow  *float64
	emergencyHigh *float64
}

func f(v float64) *float64 { return &v }

var vitalThresholds = map[string]vitalThreshold{
	"spo2":        {criticalLow: f(90), emergencyLow: f(85)},
	"heart_rate":  {criticalLow: f(40), criticalHigh: f(140)},
	"temperature": {criticalLow: f(35), criticalHigh: f(39.5), emergencyHigh: f(41)},
}

// Evaluation is the full outcome of classifying one observation.
type Evaluation struct {
	Verdict  model.Verdict
	Severity model.AlertSeverity
	Bucket   model.Bucket
}

// Service classifies observed values against fixed vital thresholds and the
// patient's reference-range bucket. It is stateless and never writes.
type Service struct {
	ranges  repository.ReferenceRangeRepository
	metrics *metrics.Metrics
}

func NewService(ranges repository.ReferenceRangeRepository, m *metrics.Metrics) *Service {
	return &Service{ranges: ranges, metrics: m}
}

// Evaluate classifies the observation. Vital signs are checked against the
// fixed thresholds first; lab results and vitals without a fixed threshold
// fall through to the reference table. A lab parameter with no range row in
// any candidate bucket is not evaluable and must not be silently passed.
func (s *Service) Evaluate(ctx context.Context, obs *model.Observation, ageYears float64, gender model.Gender) (*Evaluation, error) {
	eval, err := s.evaluate(ctx, obs, ageYears, gender)
	if err != nil {
		return nil, err
	}
	s.countVerdict(eval.Verdict)
	return eval, nil
}

func (s *Service) evaluate(ctx context.Context, obs *model.Observation, ageYears float64, gender model.Gender) (*Evaluation, error) {
	if obs.Kind == model.ObservationKindVital {
		if eval, ok := classifyVital(obs.Parameter, obs.Value); ok {
			return eval, nil
		}
	}

	for _, bucket := range model.BucketsFor(ageYears, gender) {
		rng, err := s.ranges.GetRange(ctx, obs.Parameter, bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to look up reference range: %w", err)
		}
		if rng == nil {
			continue
		}
		return classifyAgainstRange(rng, obs.Value, bucket), nil
	}

	// Fixed-threshold vitals that passed the hardcoded check are fine even
	// without a table row; anything else cannot be judged.
	if obs.Kind == model.ObservationKindVital {
		if _, known := vitalThresholds[normalizeParameter(obs.Parameter)]; known {
			return &Evaluation{Verdict: model.VerdictNormal}, nil
		}
	}

	s.countVerdict(model.VerdictNotEvaluable)
	return nil, apperrors.NotEvaluable(obs.Parameter)
}

// classifyVital applies the fixed thresholds. The bool is false when the
// parameter has no fixed threshold or the value is inside all of them, in
// which case the reference table decides.
func classifyVital(parameter string, value float64) (*Evaluation, bool) {
	t, ok := vitalThresholds[normalizeParameter(parameter)]
	if !ok {
		return nil, false
	}

	if t.emergencyLow != nil && value < *t.emergencyLow {
		return &Evaluation{Verdict: model.VerdictCriticalLow, Severity: model.AlertSeverityEmergency}, true
	}
	if t.emergencyHigh != nil && value > *t.emergencyHigh {
		return &Evaluation{Verdict: model.VerdictCriticalHigh, Severity: model.AlertSeverityEmergency}, true
	}
	if t.criticalLow != nil && value < *t.criticalLow {
		return &Evaluation{Verdict: model.VerdictCriticalLow, Severity: model.AlertSeverityCritical}, true
	}
	if t.criticalHigh != nil && value > *t.criticalHigh {
		return &Evaluation{Verdict: model.VerdictCriticalHigh, Severity: model.AlertSeverityCritical}, true
	}
	return nil, false
}

// classifyAgainstRange orders the checks critical-first so a value below
// both critical_low and min reads as critical, not merely low. Critical
// bounds are inclusive; the normal band is exclusive.
func classifyAgainstRange(rng *model.ReferenceRange, value float64, bucket model.Bucket) *Evaluation {
	switch {
	case rng.CriticalLow != nil && value <= *rng.CriticalLow:
		return &Evaluation{Verdict: model.VerdictCriticalLow, Severity: model.AlertSeverityCritical, Bucket: bucket}
	case rng.CriticalHigh != nil && value >= *rng.CriticalHigh:
		return &Evaluation{Verdict: model.VerdictCriticalHigh, Severity: model.AlertSeverityCritical, Bucket: bucket}
	case rng.Min != nil && value < *rng.Min:
		return &Evaluation{Verdict: model.VerdictLow, Bucket: bucket}
	case rng.Max != nil && value > *rng.Max:
		return &Evaluation{Verdict: model.VerdictHigh, Bucket: bucket}
	default:
		return &Evaluation{Verdict: model.VerdictNormal, Bucket: bucket}
	}
}

func normalizeParameter(parameter string) string {
	return strings.ToLower(strings.TrimSpace(parameter))
}

func (s *Service) countVerdict(v model.Verdict) {
	if s.metrics != nil {
		s.metrics.EvaluationsTotal.WithLabelValues(string(v)).Inc()
	}
}
