package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	Lifecycle    LifecycleConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PAWHAVEN_APP_ENV" required:"true"`
	Port         string `envconfig:"PAWHAVEN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PAWHAVEN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PAWHAVEN_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"PAWHAVEN_CORS_ORIGINS" default:"*"`
	// ProxyHops is how many reverse proxies append to X-Forwarded-For in
	// front of the api. Zero ignores the header.
	ProxyHops int `envconfig:"PAWHAVEN_TRUSTED_PROXY_HOPS" default:"0"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	var out []string
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type ServiceConfig struct {
	Kind string `envconfig:"PAWHAVEN_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PAWHAVEN_DB_DSN"`
	Driver string `envconfig:"PAWHAVEN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PAWHAVEN_DB_HOST"`
	LegacyPort     int    `envconfig:"PAWHAVEN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PAWHAVEN_DB_USER"`
	LegacyPassword string `envconfig:"PAWHAVEN_DB_PASSWORD"`
	LegacyName     string `envconfig:"PAWHAVEN_DB_NAME"`
	LegacySSLMode  string `envconfig:"PAWHAVEN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PAWHAVEN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PAWHAVEN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PAWHAVEN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PAWHAVEN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"PAWHAVEN_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PAWHAVEN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PAWHAVEN_REDIS_ADDR"`
	Password     string        `envconfig:"PAWHAVEN_REDIS_PASSWORD"`
	DB           int           `envconfig:"PAWHAVEN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PAWHAVEN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PAWHAVEN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PAWHAVEN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PAWHAVEN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PAWHAVEN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig holds the verification settings for tokens minted by the
// identity provider.
type JWTConfig struct {
	Secret string `envconfig:"PAWHAVEN_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"PAWHAVEN_JWT_ISSUER" required:"true"`
	// ExpirationMinutes applies to tokens minted locally for dev and tests.
	ExpirationMinutes int `envconfig:"PAWHAVEN_JWT_EXPIRATION_MINUTES" default:"60"`
	// Leeway tolerates clock skew against the identity provider.
	Leeway time.Duration `envconfig:"PAWHAVEN_JWT_LEEWAY" default:"30s"`
}

type RateLimitConfig struct {
	ApplyWindow        time.Duration `envconfig:"PAWHAVEN_RATE_LIMIT_APPLY_WINDOW" default:"1m"`
	ApplyLimit         int           `envconfig:"PAWHAVEN_RATE_LIMIT_APPLY_LIMIT" default:"10"`
	ApplyIPLimit       int           `envconfig:"PAWHAVEN_RATE_LIMIT_APPLY_IP_LIMIT" default:"30"`
	VerificationWindow time.Duration `envconfig:"PAWHAVEN_RATE_LIMIT_VERIFICATION_WINDOW" default:"5m"`
	VerificationLimit  int           `envconfig:"PAWHAVEN_RATE_LIMIT_VERIFICATION_LIMIT" default:"3"`
	ConfirmLimit       int           `envconfig:"PAWHAVEN_RATE_LIMIT_CONFIRM_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PAWHAVEN_AUTO_MIGRATE" default:"false"`
	CopyPhotos  bool `envconfig:"PAWHAVEN_FEATURE_COPY_PHOTOS" default:"true"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PAWHAVEN_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"PAWHAVEN_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PAWHAVEN_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"PAWHAVEN_GCS_BUCKET_NAME" required:"true"`
	PetPrefix  string `envconfig:"PAWHAVEN_GCS_PET_PREFIX" default:"pets"`
}

type PubSubConfig struct {
	PetEventsTopic           string `envconfig:"PAWHAVEN_PUBSUB_PET_EVENTS_TOPIC" required:"true"`
	PetEventsSubscription    string `envconfig:"PAWHAVEN_PUBSUB_PET_EVENTS_SUBSCRIPTION"`
	NotificationTopic        string `envconfig:"PAWHAVEN_PUBSUB_NOTIFICATION_TOPIC" default:"ph-notification-events"`
	NotificationSubscription string `envconfig:"PAWHAVEN_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PAWHAVEN_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PAWHAVEN_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PAWHAVEN_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"PAWHAVEN_CRON_INTERVAL" default:"1h"`
	OutboxRetentionDays int           `envconfig:"PAWHAVEN_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	// RunOnce makes the worker exit after a single cycle, for external schedulers.
	RunOnce bool `envconfig:"PAWHAVEN_CRON_RUN_ONCE" default:"false"`
}

// LifecycleConfig tunes the pet lifecycle side features.
type LifecycleConfig struct {
	ViewDedupeTTL       time.Duration `envconfig:"PAWHAVEN_VIEW_DEDUPE_TTL" default:"24h"`
	VerificationCodeTTL time.Duration `envconfig:"PAWHAVEN_VERIFICATION_CODE_TTL" default:"5m"`
	MaxDonationPhotos   int           `envconfig:"PAWHAVEN_MAX_DONATION_PHOTOS" default:"8"`
	// VerificationSecret keys the code digests; empty falls back to the JWT secret.
	VerificationSecret string `envconfig:"PAWHAVEN_VERIFICATION_SECRET"`
}

// CodeSecret is the key for verification code digests.
func (c *Config) CodeSecret() []byte {
	if c.Lifecycle.VerificationSecret != "" {
		return []byte(c.Lifecycle.VerificationSecret)
	}
	return []byte(c.JWT.Secret)
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
