package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/straye-as/renewal-api/internal/config"
	"github.com/straye-as/renewal-api/internal/database"
	"go.uber.org/zap"
)

// BackupJobName is the name of the nightly backup job
const BackupJobName = "backup"

// backupStamp names each backup directory; it sorts chronologically
const backupStamp = "2006-01-02T15-04-05"

// BackupJob copies the SQLite store files and the local uploads tree into a
// fresh timestamped directory. The stores are not quiesced, so a copy taken
// during a write may need SQLite's recovery on restore.
type BackupJob struct {
	dbFiles    []string
	uploadsDir string
	targetDir  string
	logger     *zap.Logger
	now        func() time.Time
}

// NewBackupJob creates a backup job. Empty dbFiles or uploadsDir entries are
// skipped, which is how a postgres or cloud-storage deployment opts out.
func NewBackupJob(dbFiles []string, uploadsDir, targetDir string, logger *zap.Logger) *BackupJob {
	return &BackupJob{
		dbFiles:    dbFiles,
		uploadsDir: uploadsDir,
		targetDir:  targetDir,
		logger:     logger,
		now:        time.Now,
	}
}

// NewBackupJobFromConfig backs up what this deployment keeps on local disk:
// the SQLite files and the uploads directory of local storage.
func NewBackupJobFromConfig(cfg *config.Config, logger *zap.Logger) *BackupJob {
	var dbFiles []string
	if cfg.Database.Driver == database.DriverSQLite || cfg.Database.Driver == "" {
		dbFiles = cfg.Database.SQLitePaths()
	}
	var uploadsDir string
	if cfg.Storage.Mode == "local" || cfg.Storage.Mode == "" {
		uploadsDir = cfg.Storage.LocalBasePath
	}
	return NewBackupJob(dbFiles, uploadsDir, cfg.Backup.Directory, logger)
}

// Run is the scheduler entry point
func (j *BackupJob) Run(ctx context.Context) error {
	_, err := j.Backup(ctx)
	return err
}

// Backup takes one backup and returns the directory it wrote
func (j *BackupJob) Backup(ctx context.Context) (string, error) {
	dest := filepath.Join(j.targetDir, j.now().Format(backupStamp))
	if err := os.MkdirAll(dest, 0o750); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	files := 0
	for _, src := range j.dbFiles {
		if src == "" {
			continue
		}
		// the write-ahead log holds committed pages not yet in the main file
		for _, p := range []string{src, src + "-wal"} {
			if err := ctx.Err(); err != nil {
				return dest, err
			}
			err := copyFile(p, filepath.Join(dest, filepath.Base(p)))
			if errors.Is(err, fs.ErrNotExist) && p != src {
				continue
			}
			if err != nil {
				return dest, fmt.Errorf("back up %s: %w", p, err)
			}
			files++
		}
	}

	if j.uploadsDir != "" {
		n, err := copyTree(ctx, j.uploadsDir, filepath.Join(dest, "uploads"))
		if err != nil {
			return dest, fmt.Errorf("back up uploads: %w", err)
		}
		files += n
	}

	j.logger.Info("backup written", zap.String("path", dest), zap.Int("files", files))
	return dest, nil
}

func copyTree(ctx context.Context, src, dst string) (int, error) {
	files := 0
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o750)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		files++
		return copyFile(p, target)
	})
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	return files, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// RegisterBackupJob adds the backup job to the scheduler
func RegisterBackupJob(scheduler *Scheduler, job *BackupJob, cronExpr string) error {
	return scheduler.AddJob(BackupJobName, cronExpr, time.Hour, job.Run)
}
