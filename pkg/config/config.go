package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "CAMPUSTRADE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv     = "CAMPUSTRADE_APP_ENV"
	EnvPort       = "CAMPUSTRADE_APP_PORT"
	EnvDBDSN      = "CAMPUSTRADE_DB_DSN"
	EnvDBHost     = "CAMPUSTRADE_DB_HOST"
	EnvDBUser     = "CAMPUSTRADE_DB_USER"
	EnvDBName     = "CAMPUSTRADE_DB_NAME"
	EnvRedisURL   = "CAMPUSTRADE_REDIS_URL"
	EnvJWTSecret  = "CAMPUSTRADE_JWT_SECRET"
	EnvJWTIssuer  = "CAMPUSTRADE_JWT_ISSUER"
	EnvJWTExpMins = "CAMPUSTRADE_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Uploads       UploadsConfig
	Trust         TrustConfig
	GroupOrders   GroupOrdersConfig
	Auctions      AuctionsConfig
	Notifications NotificationsConfig
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
	Env          string `envconfig:"CAMPUSTRADE_APP_ENV" required:"true"`
	Port         string `envconfig:"CAMPUSTRADE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CAMPUSTRADE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CAMPUSTRADE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CAMPUSTRADE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CAMPUSTRADE_DB_DSN"`
	Driver string `envconfig:"CAMPUSTRADE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CAMPUSTRADE_DB_HOST"`
	LegacyPort     int    `envconfig:"CAMPUSTRADE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CAMPUSTRADE_DB_USER"`
	LegacyPassword string `envconfig:"CAMPUSTRADE_DB_PASSWORD"`
	LegacyName     string `envconfig:"CAMPUSTRADE_DB_NAME"`
	LegacySSLMode  string `envconfig:"CAMPUSTRADE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CAMPUSTRADE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CAMPUSTRADE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CAMPUSTRADE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CAMPUSTRADE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CAMPUSTRADE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CAMPUSTRADE_REDIS_ADDR"`
	Password     string        `envconfig:"CAMPUSTRADE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAMPUSTRADE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAMPUSTRADE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CAMPUSTRADE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CAMPUSTRADE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAMPUSTRADE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CAMPUSTRADE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"CAMPUSTRADE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"CAMPUSTRADE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"CAMPUSTRADE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"CAMPUSTRADE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CAMPUSTRADE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CAMPUSTRADE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CAMPUSTRADE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CAMPUSTRADE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CAMPUSTRADE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"CAMPUSTRADE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"CAMPUSTRADE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"CAMPUSTRADE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"CAMPUSTRADE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"CAMPUSTRADE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"CAMPUSTRADE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CAMPUSTRADE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CAMPUSTRADE_AUTO_MIGRATE" default:"false"`
}

type UploadsConfig struct {
	Dir         string `envconfig:"CAMPUSTRADE_UPLOADS_DIR" default:"./uploads"`
	MaxUploadMB int    `envconfig:"CAMPUSTRADE_MAX_UPLOAD_MB" default:"10"`
}

type TrustConfig struct {
	PenaltyStep        int           `envconfig:"CAMPUSTRADE_TRUST_PENALTY_STEP" default:"10"`
	DeliveryReward     int           `envconfig:"CAMPUSTRADE_TRUST_DELIVERY_REWARD" default:"5"`
	BlacklistThreshold int           `envconfig:"CAMPUSTRADE_TRUST_BLACKLIST_THRESHOLD" default:"5"`
	BlacklistBase      time.Duration `envconfig:"CAMPUSTRADE_TRUST_BLACKLIST_BASE" default:"24h"`
}

type GroupOrdersConfig struct {
	HandlingFeeCents int `envconfig:"CAMPUSTRADE_GROUP_ORDER_HANDLING_FEE_CENTS" default:"1000"`
}

type AuctionsConfig struct {
	SweepInterval time.Duration `envconfig:"CAMPUSTRADE_AUCTION_SWEEP_INTERVAL" default:"1m"`
}

type NotificationsConfig struct {
	Retention time.Duration `envconfig:"CAMPUSTRADE_NOTIFICATION_RETENTION" default:"2160h"`
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
