package evaluator

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meditrax/clinical-core/internal/model"
	apperrors "github.com/meditrax/clinical-core/pkg/errors"
)

type fakeRangeRepo struct {
	ranges map[string]*model.ReferenceRange
}

func rangeKey(parameter string, bucket model.Bucket) string {
	return fmt.Sprintf("%s|%s", parameter, bucket)
}

func (f *fakeRangeRepo) GetRange(ctx context.Context, parameter string, bucket model.Bucket) (*model.ReferenceRange, error) {
	return f.ranges[rangeKey(parameter, bucket)], nil
}

func newFakeRanges(rows ...*model.ReferenceRange) *fakeRangeRepo {
	f := &fakeRangeRepo{ranges: make(map[string]*model.ReferenceRange)}
	for _, r := range rows {
		f.ranges[rangeKey(r.Parameter, r.Bucket)] = r
	}
	return f
}

func glucoseRange(bucket model.Bucket, min, max, critLow, critHigh float64) *model.ReferenceRange {
	return &model.ReferenceRange{
		Parameter:    "glucose",
		Bucket:       bucket,
		Min:          &min,
		Max:          &max,
		CriticalLow:  &critLow,
		CriticalHigh: &critHigh,
		Unit:         "mg/dL",
	}
}

func labObs(parameter string, value float64) *model.Observation {
	return &model.Observation{Kind: model.ObservationKindLab, Parameter: parameter, Value: value}
}

func vitalObs(parameter string, value float64) *model.Observation {
	return &model.Observation{Kind: model.ObservationKindVital, Parameter: parameter, Value: value}
}

func TestEvaluateLabVerdicts(t *testing.T) {
	svc := NewService(newFakeRanges(glucoseRange(model.BucketAdultMale, 70, 110, 50, 300)), nil)

	tests := []struct {
		value   float64
		verdict model.Verdict
	}{
		{90, model.VerdictNormal},
		{65, model.VerdictLow},
		{120, model.VerdictHigh},
		{45, model.VerdictCriticalLow},
		{320, model.VerdictCriticalHigh},
		// Critical bounds are inclusive.
		{50, model.VerdictCriticalLow},
		{300, model.VerdictCriticalHigh},
		// Normal band bounds are not.
		{70, model.VerdictNormal},
		{110, model.VerdictNormal},
	}

	for _, tt := range tests {
		eval, err := svc.Evaluate(context.Background(), labObs("glucose", tt.value), 40, model.GenderMale)
		require.NoError(t, err, "value %g", tt.value)
		assert.Equal(t, tt.verdict, eval.Verdict, "value %g", tt.value)
	}
}

func TestEvaluateBucketPriority(t *testing.T) {
	// Child bucket is tighter than default; a child must hit the child row.
	svc := NewService(newFakeRanges(
		glucoseRange(model.BucketChild, 80, 100, 60, 200),
		glucoseRange(model.BucketDefault, 70, 110, 50, 300),
	), nil)

	eval, err := svc.Evaluate(context.Background(), labObs("glucose", 105), 5, model.GenderFemale)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictHigh, eval.Verdict)
	assert.Equal(t, model.BucketChild, eval.Bucket)

	// No child row: falls back to default.
	svcDefault := NewService(newFakeRanges(glucoseRange(model.BucketDefault, 70, 110, 50, 300)), nil)
	eval, err = svcDefault.Evaluate(context.Background(), labObs("glucose", 105), 5, model.GenderFemale)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictNormal, eval.Verdict)
	assert.Equal(t, model.BucketDefault, eval.Bucket)
}

func TestEvaluateNotEvaluable(t *testing.T) {
	svc := NewService(newFakeRanges(), nil)

	_, err := svc.Evaluate(context.Background(), labObs("obscure_enzyme", 12), 40, model.GenderMale)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotEvaluable))
}

func TestEvaluateVitalFixedThresholds(t *testing.T) {
	svc := NewService(newFakeRanges(), nil)

	tests := []struct {
		parameter string
		value     float64
		verdict   model.Verdict
		severity  model.AlertSeverity
	}{
		{"spo2", 88, model.VerdictCriticalLow, model.AlertSeverityCritical},
		{"spo2", 84, model.VerdictCriticalLow, model.AlertSeverityEmergency},
		{"heart_rate", 35, model.VerdictCriticalLow, model.AlertSeverityCritical},
		{"heart_rate", 150, model.VerdictCriticalHigh, model.AlertSeverityCritical},
		{"temperature", 34.5, model.VerdictCriticalLow, model.AlertSeverityCritical},
		{"temperature", 40.0, model.VerdictCriticalHigh, model.AlertSeverityCritical},
		{"temperature", 41.5, model.VerdictCriticalHigh, model.AlertSeverityEmergency},
	}

	for _, tt := range tests {
		eval, err := svc.Evaluate(context.Background(), vitalObs(tt.parameter, tt.value), 40, model.GenderMale)
		require.NoError(t, err, "%s %g", tt.parameter, tt.value)
		assert.Equal(t, tt.verdict, eval.Verdict, "%s %g", tt.parameter, tt.value)
		assert.Equal(t, tt.severity, eval.Severity, "%s %g", tt.parameter, tt.value)
	}
}

func TestEvaluateVitalFixedThresholdsIgnoreBucket(t *testing.T) {
	// Even with a permissive table row, SpO2 88 is critical for everyone.
	low := 80.0
	svc := NewService(newFakeRanges(&model.ReferenceRange{
		Parameter:   "spo2",
		Bucket:      model.BucketDefault,
		CriticalLow: &low,
	}), nil)

	eval, err := svc.Evaluate(context.Background(), vitalObs("spo2", 88), 40, model.GenderMale)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictCriticalLow, eval.Verdict)
}

func TestEvaluateVitalInRangeWithoutTableRow(t *testing.T) {
	svc := NewService(newFakeRanges(), nil)

	eval, err := svc.Evaluate(context.Background(), vitalObs("heart_rate", 72), 40, model.GenderMale)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictNormal, eval.Verdict)
}

func TestEvaluateVitalFallsThroughToTable(t *testing.T) {
	// A heart rate of 120 passes the fixed thresholds but violates the
	// patient's bucket row.
	min, max := 60.0, 100.0
	svc := NewService(newFakeRanges(&model.ReferenceRange{
		Parameter: "heart_rate",
		Bucket:    model.BucketAdultMale,
		Min:       &min,
		Max:       &max,
	}), nil)

	eval, err := svc.Evaluate(context.Background(), vitalObs("heart_rate", 120), 40, model.GenderMale)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictHigh, eval.Verdict)
}
