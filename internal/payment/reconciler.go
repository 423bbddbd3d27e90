package payment

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"lifesure/internal/common/logger"
	"lifesure/internal/common/metrics"
	"lifesure/internal/models"
)

// ReconcileStore is the slice of the transaction repository the reconciler
// needs: succeeded charges whose application still reads Due, and the patch
// that heals them.
type ReconcileStore interface {
	ListUnreconciled(ctx context.Context) ([]models.Transaction, error)
	MarkApplicationPaid(ctx context.Context, applicationID string) error
}

// Reconciler sweeps for applications left Due after their charge succeeded
// and re-drives the payment_status patch. Finalization is transactional, so
// sweeps normally find nothing; the sweep covers rows healed in from gateway
// events or written before the transactional flow.
type Reconciler struct {
	store    ReconcileStore
	schedule string
	cron     *cron.Cron
	logger   logger.Logger
}

func NewReconciler(schedule string, store ReconcileStore, log logger.Logger) *Reconciler {
	return &Reconciler{
		store:    store,
		schedule: schedule,
		cron:     cron.New(),
		logger:   log,
	}
}

// Start registers the sweep on its schedule and starts the cron runner.
func (r *Reconciler) Start() error {
	_, err := r.cron.AddFunc(r.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := r.Sweep(ctx); err != nil {
			r.logger.Error("reconciler sweep failed", map[string]interface{}{"error": err.Error()})
		}
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	r.logger.Info("payment reconciler started", map[string]interface{}{"schedule": r.schedule})
	return nil
}

// Stop halts the cron runner and waits for a running sweep to finish.
func (r *Reconciler) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// Sweep heals every orphaned charge it finds and returns how many it healed.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	orphans, err := r.store.ListUnreconciled(ctx)
	if err != nil {
		metrics.ReconcilerSweepsTotal.WithLabelValues("error").Inc()
		return 0, err
	}

	healed := 0
	for _, txn := range orphans {
		if err := r.store.MarkApplicationPaid(ctx, txn.ApplicationID); err != nil {
			r.logger.Warn("orphaned charge not healed", map[string]interface{}{
				"applicationId": txn.ApplicationID,
				"chargeId":      txn.ChargeID,
				"error":         err.Error(),
			})
			continue
		}
		healed++
		r.logger.Info("orphaned charge healed", map[string]interface{}{
			"applicationId": txn.ApplicationID,
			"chargeId":      txn.ChargeID,
		})
	}

	metrics.ReconcilerSweepsTotal.WithLabelValues("success").Inc()
	return healed, nil
}
