package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "SWIFTRIDE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	// Pluggable backend names.
	DocstoreBackendFirestore = "firestore"
	DocstoreBackendSQL       = "sql"
	DocstoreBackendMemory    = "memory"
	IdentityBackendFirebase  = "firebase"
	IdentityBackendLocal     = "local"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Identity      IdentityConfig
	Docstore      DocstoreConfig
	Google        GoogleConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Docstore.Backend == DocstoreBackendSQL || cfg.Identity.Backend == IdentityBackendLocal {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SWIFTRIDE_APP_ENV" default:"dev"`
	Port         string `envconfig:"SWIFTRIDE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SWIFTRIDE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SWIFTRIDE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SWIFTRIDE_DB_DSN"`
	Driver string `envconfig:"SWIFTRIDE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SWIFTRIDE_DB_HOST"`
	Port     int    `envconfig:"SWIFTRIDE_DB_PORT" default:"5432"`
	User     string `envconfig:"SWIFTRIDE_DB_USER"`
	Password string `envconfig:"SWIFTRIDE_DB_PASSWORD"`
	Name     string `envconfig:"SWIFTRIDE_DB_NAME"`
	SSLMode  string `envconfig:"SWIFTRIDE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SWIFTRIDE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SWIFTRIDE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SWIFTRIDE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SWIFTRIDE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for env, value := range map[string]string{
		"SWIFTRIDE_DB_HOST": db.Host,
		"SWIFTRIDE_DB_USER": db.User,
		"SWIFTRIDE_DB_NAME": db.Name,
	} {
		if value == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either SWIFTRIDE_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"SWIFTRIDE_REDIS_URL"`
	Address      string        `envconfig:"SWIFTRIDE_REDIS_ADDR"`
	Password     string        `envconfig:"SWIFTRIDE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SWIFTRIDE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SWIFTRIDE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SWIFTRIDE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SWIFTRIDE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SWIFTRIDE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SWIFTRIDE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured at all. Rate
// limiting is skipped when redis is absent (bare local runs).
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"SWIFTRIDE_JWT_SECRET"`
	Issuer            string `envconfig:"SWIFTRIDE_JWT_ISSUER" default:"swiftride-users"`
	ExpirationMinutes int    `envconfig:"SWIFTRIDE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SWIFTRIDE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SWIFTRIDE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SWIFTRIDE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SWIFTRIDE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SWIFTRIDE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow      time.Duration `envconfig:"SWIFTRIDE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit  int           `envconfig:"SWIFTRIDE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit     int           `envconfig:"SWIFTRIDE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow     time.Duration `envconfig:"SWIFTRIDE_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupEmailLimit int           `envconfig:"SWIFTRIDE_AUTH_RATE_LIMIT_SIGNUP_EMAIL_LIMIT" default:"3"`
	SignupIPLimit    int           `envconfig:"SWIFTRIDE_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
}

type IdentityConfig struct {
	Backend string `envconfig:"SWIFTRIDE_IDENTITY_BACKEND" default:"local"`
}

type DocstoreConfig struct {
	Backend string `envconfig:"SWIFTRIDE_DOCSTORE_BACKEND" default:"sql"`
	// Database ID for the firestore backend ("users" in production).
	FirestoreDatabase string `envconfig:"SWIFTRIDE_FIRESTORE_DATABASE" default:"users"`
}

type GoogleConfig struct {
	ProjectID              string `envconfig:"SWIFTRIDE_GCP_PROJECT_ID"`
	APIKey                 string `envconfig:"SWIFTRIDE_FIREBASE_API_KEY"`
	ApplicationCredentials string `envconfig:"SWIFTRIDE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SWIFTRIDE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SWIFTRIDE_AUTO_MIGRATE" default:"false"`
}
