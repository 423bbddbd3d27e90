package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifesure/internal/common/logger"
	"lifesure/internal/models"
)

type fakeReconcileStore struct {
	orphans []models.Transaction
	healed  []string
	failFor string
	listErr error
}

func (f *fakeReconcileStore) ListUnreconciled(_ context.Context) ([]models.Transaction, error) {
	return f.orphans, f.listErr
}

func (f *fakeReconcileStore) MarkApplicationPaid(_ context.Context, applicationID string) error {
	if applicationID == f.failFor {
		return errors.New("deadlock detected")
	}
	f.healed = append(f.healed, applicationID)
	return nil
}

func TestSweep_HealsOrphanedCharges(t *testing.T) {
	store := &fakeReconcileStore{
		orphans: []models.Transaction{
			{ApplicationID: "app-1", ChargeID: "ch_1"},
			{ApplicationID: "app-2", ChargeID: "ch_2"},
		},
	}
	r := NewReconciler("@every 15m", store, logger.NewNoOpLogger())

	healed, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, healed)
	assert.Equal(t, []string{"app-1", "app-2"}, store.healed)
}

func TestSweep_NothingToHeal(t *testing.T) {
	r := NewReconciler("@every 15m", &fakeReconcileStore{}, logger.NewNoOpLogger())

	healed, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, healed)
}

func TestSweep_ContinuesPastFailedHeal(t *testing.T) {
	store := &fakeReconcileStore{
		orphans: []models.Transaction{
			{ApplicationID: "app-1", ChargeID: "ch_1"},
			{ApplicationID: "app-2", ChargeID: "ch_2"},
		},
		failFor: "app-1",
	}
	r := NewReconciler("@every 15m", store, logger.NewNoOpLogger())

	healed, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, healed)
	assert.Equal(t, []string{"app-2"}, store.healed)
}

func TestSweep_ListError(t *testing.T) {
	store := &fakeReconcileStore{listErr: errors.New("connection refused")}
	r := NewReconciler("@every 15m", store, logger.NewNoOpLogger())

	_, err := r.Sweep(context.Background())
	assert.Error(t, err)
}

func TestReconciler_BadScheduleRejected(t *testing.T) {
	r := NewReconciler("not-a-schedule", &fakeReconcileStore{}, logger.NewNoOpLogger())
	assert.Error(t, r.Start())
}
