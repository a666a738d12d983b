package alert

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meditrax/clinical-core/internal/model"
	"github.com/meditrax/clinical-core/internal/repository"
	"github.com/meditrax/clinical-core/pkg/logger"
)

type memAlertRepo struct {
	byID          map[uuid.UUID]*model.CriticalAlert
	byObservation map[uuid.UUID]*model.CriticalAlert
}

func newMemAlertRepo() *memAlertRepo {
	return &memAlertRepo{
		byID:          make(map[uuid.UUID]*model.CriticalAlert),
		byObservation: make(map[uuid.UUID]*model.CriticalAlert),
	}
}

func (r *memAlertRepo) Create(ctx context.Context, a *model.CriticalAlert) error {
	if _, exists := r.byObservation[a.ObservationID]; exists {
		return repository.ErrDuplicate
	}
	a.CreatedAt = time.Now()
	r.byID[a.ID] = a
	r.byObservation[a.ObservationID] = a
	return nil
}

func (r *memAlertRepo) Get(ctx context.Context, id uuid.UUID) (*model.CriticalAlert, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

func (r *memAlertRepo) GetByObservation(ctx context.Context, observationID uuid.UUID) (*model.CriticalAlert, error) {
	a, ok := r.byObservation[observationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

func (r *memAlertRepo) Update(ctx context.Context, a *model.CriticalAlert) error {
	if _, ok := r.byID[a.ID]; !ok {
		return repository.ErrNotFound
	}
	r.byID[a.ID] = a
	return nil
}

func (r *memAlertRepo) List(ctx context.Context, filters *model.AlertFilters) ([]*model.CriticalAlert, error) {
	var out []*model.CriticalAlert
	for _, a := range r.byID {
		if filters.OpenOnly && !a.IsOpen() {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func testObservation() *model.Observation {
	return &model.Observation{
		Base:      model.Base{ID: uuid.New()},
		PatientID: uuid.New(),
		Kind:      model.ObservationKindVital,
		Parameter: "spo2",
		Value:     88,
		Unit:      "%",
	}
}

func newTestService() (*Service, *memAlertRepo) {
	repo := newMemAlertRepo()
	return NewService(repo, nil, nil, logger.NewLogger(nil)), repo
}

func TestRaise(t *testing.T) {
	svc, _ := newTestService()
	obs := testObservation()

	a, err := svc.Raise(context.Background(), obs, model.AlertSeverityCritical, "spo2 88 % is below critical low")
	require.NoError(t, err)

	assert.Equal(t, obs.ID, a.ObservationID)
	assert.Equal(t, obs.PatientID, a.PatientID)
	assert.Equal(t, model.AlertSeverityCritical, a.Severity)
	assert.True(t, a.IsOpen())
}

func TestRaiseDeduplicates(t *testing.T) {
	svc, repo := newTestService()
	obs := testObservation()

	first, err := svc.Raise(context.Background(), obs, model.AlertSeverityCritical, "msg")
	require.NoError(t, err)

	second, err := svc.Raise(context.Background(), obs, model.AlertSeverityCritical, "msg")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.byID, 1)
}

func TestAcknowledge(t *testing.T) {
	svc, _ := newTestService()
	obs := testObservation()

	a, err := svc.Raise(context.Background(), obs, model.AlertSeverityCritical, "msg")
	require.NoError(t, err)

	actor := uuid.New()
	acked, err := svc.Acknowledge(context.Background(), a.ID, actor)
	require.NoError(t, err)
	require.NotNil(t, acked.AcknowledgedAt)
	assert.Equal(t, actor, *acked.AcknowledgedBy)
	assert.True(t, acked.IsOpen(), "acknowledged but unresolved is still open")

	// Second acknowledge keeps the first stamp.
	other := uuid.New()
	again, err := svc.Acknowledge(context.Background(), a.ID, other)
	require.NoError(t, err)
	assert.Equal(t, actor, *again.AcknowledgedBy)
}

func TestResolveImpliesAcknowledge(t *testing.T) {
	svc, _ := newTestService()
	obs := testObservation()

	a, err := svc.Raise(context.Background(), obs, model.AlertSeverityCritical, "msg")
	require.NoError(t, err)

	actor := uuid.New()
	resolved, err := svc.Resolve(context.Background(), a.ID, actor)
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)
	require.NotNil(t, resolved.AcknowledgedAt)
	assert.Equal(t, actor, *resolved.AcknowledgedBy)
	assert.False(t, resolved.IsOpen())
}

func TestListOpenOnly(t *testing.T) {
	svc, _ := newTestService()

	open, err := svc.Raise(context.Background(), testObservation(), model.AlertSeverityCritical, "open")
	require.NoError(t, err)
	closed, err := svc.Raise(context.Background(), testObservation(), model.AlertSeverityCritical, "closed")
	require.NoError(t, err)
	_, err = svc.Resolve(context.Background(), closed.ID, uuid.New())
	require.NoError(t, err)

	alerts, err := svc.ListAlerts(context.Background(), &model.AlertFilters{OpenOnly: true})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, open.ID, alerts[0].ID)
}
