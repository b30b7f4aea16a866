package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/straye-as/renewal-api/internal/service"
	"go.uber.org/zap"
)

// ReconcileJobName is the name of the upload cleanup job
const ReconcileJobName = "reconcile_uploads"

// UploadReconciler removes pending upload rows and unreferenced files older
// than maxAge.
type UploadReconciler interface {
	Reconcile(ctx context.Context, maxAge time.Duration) (service.ReconcileReport, error)
}

// ReconcileJob sweeps uploads that were written to storage but never
// confirmed in the database.
type ReconcileJob struct {
	reconciler UploadReconciler
	maxAge     time.Duration
	logger     *zap.Logger
}

func NewReconcileJob(reconciler UploadReconciler, maxAge time.Duration, logger *zap.Logger) *ReconcileJob {
	return &ReconcileJob{reconciler: reconciler, maxAge: maxAge, logger: logger}
}

// Run executes one sweep
func (j *ReconcileJob) Run(ctx context.Context) error {
	report, err := j.reconciler.Reconcile(ctx, j.maxAge)
	if err != nil {
		return fmt.Errorf("reconcile uploads: %w", err)
	}
	if report.PendingDocuments+report.PendingStaff+report.Orphans > 0 {
		j.logger.Info("stale uploads removed",
			zap.Int("pending_documents", report.PendingDocuments),
			zap.Int("pending_staff_files", report.PendingStaff),
			zap.Int("orphans", report.Orphans))
	}
	return nil
}

// RegisterReconcileJob adds the cleanup job to the scheduler
func RegisterReconcileJob(scheduler *Scheduler, reconciler UploadReconciler, maxAge time.Duration, cronExpr string, logger *zap.Logger) error {
	job := NewReconcileJob(reconciler, maxAge, logger)
	return scheduler.AddJob(ReconcileJobName, cronExpr, 10*time.Minute, job.Run)
}
