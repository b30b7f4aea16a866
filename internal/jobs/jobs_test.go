package jobs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/straye-as/renewal-api/internal/jobs"
	"github.com/straye-as/renewal-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestScheduler_AddJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	require.NoError(t, s.AddJob("nightly", "0 0 21 * * *", 0, func(context.Context) error { return nil }))
	assert.Error(t, s.AddJob("nightly", "0 0 21 * * *", 0, func(context.Context) error { return nil }), "duplicate name")
	assert.Error(t, s.AddJob("broken", "not a cron", 0, func(context.Context) error { return nil }))
	assert.Equal(t, []string{"nightly"}, s.JobNames())

	require.NoError(t, s.RemoveJob("nightly"))
	assert.Error(t, s.RemoveJob("nightly"))
	assert.Empty(t, s.JobNames())
}

func TestScheduler_RunNowAppliesTimeout(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	var deadline time.Time
	var hasDeadline bool
	require.NoError(t, s.AddJob("timed", "@daily", time.Minute, func(ctx context.Context) error {
		deadline, hasDeadline = ctx.Deadline()
		return nil
	}))

	require.NoError(t, s.RunNow("timed"))
	assert.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)

	assert.Error(t, s.RunNow("missing"))
}

func TestScheduler_LogsFailedRun(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := jobs.NewScheduler(zap.New(core))

	require.NoError(t, s.AddJob("failing", "@daily", 0, func(context.Context) error {
		return errors.New("disk full")
	}))
	require.NoError(t, s.RunNow("failing"))

	failed := logs.FilterMessage("scheduled job failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "failing", failed[0].ContextMap()["job_name"])
}

func TestScheduler_StartStop(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())
	require.NoError(t, s.AddJob("idle", "@daily", 0, func(context.Context) error { return nil }))

	s.Start()
	select {
	case <-s.Stop().Done():
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o640))
}

func TestBackupJob_CopiesStoresAndUploads(t *testing.T) {
	root := t.TempDir()
	users := filepath.Join(root, "data", "users.db")
	projects := filepath.Join(root, "data", "projects.db")
	writeFile(t, users, "users")
	writeFile(t, users+"-wal", "users-wal")
	writeFile(t, projects, "projects")
	uploads := filepath.Join(root, "uploads")
	writeFile(t, filepath.Join(uploads, "resident_docs", "id.pdf"), "pdf")
	writeFile(t, filepath.Join(uploads, "protocols", "p.docx"), "docx")

	job := jobs.NewBackupJob([]string{users, projects, ""}, uploads, filepath.Join(root, "backups"), zap.NewNop())
	dest, err := job.Backup(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "backups"), filepath.Dir(dest))
	for rel, want := range map[string]string{
		"users.db":                     "users",
		"users.db-wal":                 "users-wal",
		"projects.db":                  "projects",
		"uploads/resident_docs/id.pdf": "pdf",
		"uploads/protocols/p.docx":     "docx",
	} {
		got, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(rel)))
		require.NoError(t, err, rel)
		assert.Equal(t, want, string(got), rel)
	}
}

func TestBackupJob_MissingStoreFails(t *testing.T) {
	root := t.TempDir()
	job := jobs.NewBackupJob([]string{filepath.Join(root, "nope.db")}, "", filepath.Join(root, "backups"), zap.NewNop())

	assert.Error(t, job.Run(context.Background()))
}

func TestBackupJob_MissingUploadsDirIsEmpty(t *testing.T) {
	root := t.TempDir()
	job := jobs.NewBackupJob(nil, filepath.Join(root, "no-uploads"), filepath.Join(root, "backups"), zap.NewNop())

	assert.NoError(t, job.Run(context.Background()))
}

type fakeReconciler struct {
	maxAge time.Duration
	report service.ReconcileReport
	err    error
}

func (f *fakeReconciler) Reconcile(ctx context.Context, maxAge time.Duration) (service.ReconcileReport, error) {
	f.maxAge = maxAge
	return f.report, f.err
}

func TestReconcileJob_Run(t *testing.T) {
	rec := &fakeReconciler{report: service.ReconcileReport{PendingDocuments: 2, Orphans: 1}}
	job := jobs.NewReconcileJob(rec, 2*time.Hour, zap.NewNop())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 2*time.Hour, rec.maxAge)

	rec.err = errors.New("storage offline")
	assert.ErrorContains(t, job.Run(context.Background()), "storage offline")
}

func TestRegisterReconcileJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())
	rec := &fakeReconciler{}

	require.NoError(t, jobs.RegisterReconcileJob(s, rec, time.Hour, "0 */30 * * * *", zap.NewNop()))
	require.NoError(t, s.RunNow(jobs.ReconcileJobName))
	assert.Equal(t, time.Hour, rec.maxAge)
}
