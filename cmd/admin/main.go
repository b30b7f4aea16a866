// Command admin runs maintenance tasks against the renewal API stores:
// bootstrapping an admin account, taking a backup, and sweeping stale uploads.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/straye-as/renewal-api/internal/auth"
	"github.com/straye-as/renewal-api/internal/config"
	"github.com/straye-as/renewal-api/internal/database"
	"github.com/straye-as/renewal-api/internal/jobs"
	"github.com/straye-as/renewal-api/internal/logger"
	"github.com/straye-as/renewal-api/internal/repository"
	"github.com/straye-as/renewal-api/internal/service"
	"github.com/straye-as/renewal-api/internal/storage"
	"go.uber.org/zap"
)

var (
	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "admin",
	Short:         "Maintenance commands for the renewal API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadWithSecrets(cmd.Context(), zap.NewNop())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		log, err = logger.NewLogger(&cfg.Logging, &cfg.App)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		return nil
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create the bootstrap admin account if it does not exist",
	RunE:  runCreateAdmin,
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Copy the SQLite stores and local uploads into the backup directory",
	RunE:  runBackup,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Delete pending uploads and unreferenced files older than --max-age",
	RunE:  runReconcile,
}

func init() {
	createAdminCmd.Flags().String("username", "", "admin username (defaults to auth.bootstrapAdminUsername)")
	createAdminCmd.Flags().String("password", "", "admin password (defaults to auth.bootstrapAdminPassword)")
	reconcileCmd.Flags().Duration("max-age", 0, "age after which pending uploads are removed (defaults to reconcile.pendingMaxAgeMinutes)")

	rootCmd.AddCommand(createAdminCmd, backupCmd, reconcileCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openStores() (*database.Stores, error) {
	stores, err := database.Open(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.Driver != database.DriverPostgres {
		if err := database.AutoMigrate(stores); err != nil {
			_ = stores.Close()
			return nil, err
		}
	}
	return stores, nil
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	if username != "" {
		cfg.Auth.BootstrapAdminUsername = username
	}
	if password == "" {
		password = cfg.Auth.BootstrapAdminPassword
	}

	stores, err := openStores()
	if err != nil {
		return err
	}
	defer stores.Close()

	// this command never issues tokens
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	authService := service.NewAuthService(repository.NewUserRepository(stores.Users), tokens, &cfg.Auth, log)

	created, err := authService.EnsureAdmin(cmd.Context(), password)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("Admin %q created\n", cfg.Auth.BootstrapAdminUsername)
	} else {
		fmt.Printf("Admin %q already exists\n", cfg.Auth.BootstrapAdminUsername)
	}
	return nil
}

func runBackup(cmd *cobra.Command, args []string) error {
	dest, err := jobs.NewBackupJobFromConfig(cfg, log).Backup(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Backup written to %s\n", dest)
	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	maxAge, _ := cmd.Flags().GetDuration("max-age")
	if maxAge == 0 {
		maxAge = cfg.Reconcile.PendingMaxAge()
	}

	stores, err := openStores()
	if err != nil {
		return err
	}
	defer stores.Close()

	store, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	documents := service.NewDocumentService(
		repository.NewDocumentRepository(stores.Projects),
		repository.NewStaffMessageRepository(stores.Projects),
		repository.NewComplexRepository(stores.Projects),
		store,
		log,
	)

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
	defer cancel()
	report, err := documents.Reconcile(ctx, maxAge)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d pending documents, %d pending staff files, %d orphaned files\n",
		report.PendingDocuments, report.PendingStaff, report.Orphans)
	return nil
}
