package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/straye-as/renewal-api/internal/secrets"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Auth      AuthConfig
	ApiKey    ApiKeyConfig
	Backup    BackupConfig
	Reconcile ReconcileConfig
	Import    ImportConfig
	Secrets   SecretsConfig
	Logging   LoggingConfig
	Server    ServerConfig
	CORS      CORSConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

// DatabaseConfig describes the three logical stores (users, projects, meetings).
// With driver "sqlite" each store is its own file. With driver "postgres" the
// stores share one database and the path settings are ignored.
type DatabaseConfig struct {
	Driver          string
	UsersPath       string
	ProjectsPath    string
	MeetingsPath    string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

type StorageConfig struct {
	// Mode is one of "local", "azure" or "minio"
	Mode                  string
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
	MinioEndpoint         string
	MinioAccessKey        string
	MinioSecretKey        string
	MinioBucket           string
	MinioUseSSL           bool
	MaxUploadSizeMB       int64
}

type AuthConfig struct {
	JWTSecret     string
	TokenTTLHours int
	// BootstrapAdminUsername/Password seed the first admin account on startup
	BootstrapAdminUsername string
	BootstrapAdminPassword string
	// ExposeTempPassword returns the generated password from forgot-password.
	// Only meant for deployments without an SMS/email gateway.
	ExposeTempPassword bool
	MinPasswordLength  int
}

type ApiKeyConfig struct {
	SecretName string
	Value      string
}

type BackupConfig struct {
	Enabled   bool
	Cron      string
	Directory string
}

type ReconcileConfig struct {
	Enabled              bool
	Cron                 string
	PendingMaxAgeMinutes int
}

// ImportConfig selects how spreadsheet rows are committed.
// "best_effort" writes each row on its own; "transactional" wraps every sheet
// in a transaction with a savepoint per row.
type ImportConfig struct {
	Mode string
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
	EnableSwagger  bool
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeNosniff    bool
	XSSProtection         string
	ReferrerPolicy        string
	PermissionsPolicy     string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	// LoginPerWindow and UploadPerWindow are the stricter limits applied to
	// /login and the upload endpoints, counted per IP over a 15 minute window.
	LoginPerWindow  int
	UploadPerWindow int
	WhitelistIPs    []string
	WhitelistPaths  []string
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// SQLitePaths returns the store files in users, projects, meetings order.
func (d *DatabaseConfig) SQLitePaths() []string {
	return []string{d.UsersPath, d.ProjectsPath, d.MeetingsPath}
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

func (a *AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}

func (r *ReconcileConfig) PendingMaxAge() time.Duration {
	return time.Duration(r.PendingMaxAgeMinutes) * time.Minute
}

// MaxUploadBytes returns the upload limit in bytes
func (s *StorageConfig) MaxUploadBytes() int64 {
	return s.MaxUploadSizeMB << 20
}

// Load loads configuration from file and environment variables.
// Use LoadWithSecrets to additionally resolve secrets from Key Vault.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.ApiKey.Value == "" {
		cfg.ApiKey.Value = v.GetString("BOT_API_KEY")
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = v.GetString("JWT_SECRET")
	}
	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks enumerated settings that viper cannot type-check.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	switch c.Import.Mode {
	case "best_effort", "transactional":
	default:
		return fmt.Errorf("unsupported import mode: %s", c.Import.Mode)
	}
	if c.Auth.MinPasswordLength < 1 {
		return fmt.Errorf("auth.minPasswordLength must be positive")
	}
	return nil
}

// LoadWithSecrets loads configuration and resolves secrets.
//
// Key Vault is used when USE_AZURE_KEY_VAULT=true and the environment is
// staging or production. Otherwise the values from Load are kept.
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	useKeyVault := strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) == "true"
	isValidEnv := cfg.App.Environment == "staging" || cfg.App.Environment == "production"

	if !useKeyVault {
		logger.Info("USE_AZURE_KEY_VAULT not enabled, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if !isValidEnv {
		logger.Warn("USE_AZURE_KEY_VAULT is enabled but environment is not staging or production, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when USE_AZURE_KEY_VAULT=true")
	}

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider: %w", err)
	}

	if err := applySecrets(ctx, cfg, provider); err != nil {
		return nil, err
	}

	logger.Info("Secrets loaded from vault successfully",
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)
	return cfg, nil
}

// SecretSource is the part of secrets.Provider used to fill in the config.
type SecretSource interface {
	GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error)
}

func applySecrets(ctx context.Context, cfg *Config, src SecretSource) error {
	jwtSecret, err := src.GetSecretOrEnv(ctx, "jwt-secret", "JWT_SECRET")
	if err != nil {
		return fmt.Errorf("jwt-secret is required in vault mode: %w", err)
	}
	cfg.Auth.JWTSecret = jwtSecret

	if password, err := src.GetSecretOrEnv(ctx, "database-password", "DATABASE_PASSWORD"); err == nil && password != "" {
		cfg.Database.Password = password
	}
	if apiKey, err := src.GetSecretOrEnv(ctx, "bot-api-key", "BOT_API_KEY"); err == nil && apiKey != "" {
		cfg.ApiKey.Value = apiKey
	}
	if connStr, err := src.GetSecretOrEnv(ctx, "storage-connection-string", "STORAGE_CLOUDCONNECTIONSTRING"); err == nil && connStr != "" {
		cfg.Storage.CloudConnectionString = connStr
	}
	if secretKey, err := src.GetSecretOrEnv(ctx, "minio-secret-key", "STORAGE_MINIOSECRETKEY"); err == nil && secretKey != "" {
		cfg.Storage.MinioSecretKey = secretKey
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Renewal CRM API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 3000)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.usersPath", filepath.Join("data", "users.db"))
	v.SetDefault("database.projectsPath", filepath.Join("data", "projects.db"))
	v.SetDefault("database.meetingsPath", filepath.Join("data", "meetings.db"))
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "renewal")
	v.SetDefault("database.user", "renewal_user")
	v.SetDefault("database.password", "renewal_password")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)

	v.SetDefault("storage.mode", "local")
	v.SetDefault("storage.localBasePath", "./uploads")
	v.SetDefault("storage.cloudContainer", "renewal-uploads")
	v.SetDefault("storage.minioBucket", "renewal-uploads")
	v.SetDefault("storage.maxUploadSizeMB", 50)

	v.SetDefault("auth.tokenTTLHours", 12)
	v.SetDefault("auth.bootstrapAdminUsername", "admin")
	v.SetDefault("auth.exposeTempPassword", false)
	v.SetDefault("auth.minPasswordLength", 4)

	v.SetDefault("backup.enabled", true)
	v.SetDefault("backup.cron", "0 0 21 * * *")
	v.SetDefault("backup.directory", "./backups")

	v.SetDefault("reconcile.enabled", true)
	v.SetDefault("reconcile.cron", "0 30 * * * *")
	v.SetDefault("reconcile.pendingMaxAgeMinutes", 60)

	v.SetDefault("import.mode", "best_effort")

	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 60)
	v.SetDefault("server.requestTimeout", 60)
	v.SetDefault("server.enableSwagger", true)

	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Content-Disposition", "X-Request-ID"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.hstsPreload", false)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.xssProtection", "1; mode=block")
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")
	v.SetDefault("security.permissionsPolicy", "geolocation=(), microphone=(), camera=()")

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 300)
	v.SetDefault("rateLimit.loginPerWindow", 10)
	v.SetDefault("rateLimit.uploadPerWindow", 20)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/ready"})
}
