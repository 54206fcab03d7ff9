package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// - neither: optional integrations that degrade gracefully when unset (payment gateway, broker)
// -----------------------------------------------------------------------------

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	CORS    CORSConfig
	Log     LogConfig
	JWT     JWTConfig
	Gateway GatewayConfig
	Broker  BrokerConfig
	Worker  WorkerConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host          string `envconfig:"DB_HOST" default:"localhost"`
	Port          string `envconfig:"DB_PORT" default:"5432"`
	User          string `envconfig:"DB_USER" required:"true"`
	Password      string `envconfig:"DB_PASSWORD" required:"true"`
	DBName        string `envconfig:"DB_NAME" required:"true"`
	SSLMode       string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone      string `envconfig:"DB_TIMEZONE" default:"UTC"`
	MaxConns      int32  `envconfig:"DB_MAX_CONNS" default:"20"`
	RunMigrations bool   `envconfig:"DB_RUN_MIGRATIONS" default:"true"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization,Idempotency-Key"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length,Idempotent-Replayed"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"Asia/Kolkata"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"19800"` // 5.5*60*60
}

type JWTConfig struct {
	Secret   string        `envconfig:"JWT_SECRET" required:"true"`
	Duration time.Duration `envconfig:"JWT_DURATION" default:"24h"`
}

// Credentials are optional. An empty key pair leaves the gateway unconfigured
// and every payment operation fails with a configuration error.
type GatewayConfig struct {
	KeyID         string        `envconfig:"RAZORPAY_KEY_ID"`
	KeySecret     string        `envconfig:"RAZORPAY_KEY_SECRET"`
	WebhookSecret string        `envconfig:"RAZORPAY_WEBHOOK_SECRET"`
	BaseURL       string        `envconfig:"RAZORPAY_BASE_URL" default:"https://api.razorpay.com"`
	Timeout       time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"10s"`
	Currency      string        `envconfig:"PAYMENT_CURRENCY" default:"INR"`
}

func (c GatewayConfig) HasCredentials() bool {
	return c.KeyID != "" && c.KeySecret != ""
}

type BrokerConfig struct {
	URL      string `envconfig:"AMQP_URL"`
	Exchange string `envconfig:"AMQP_EXCHANGE" default:"toolrental.events"`
	Producer string `envconfig:"AMQP_PRODUCER" default:"toolrental-api"`
}

type WorkerConfig struct {
	Enabled                    bool   `envconfig:"WORKER_ENABLED" default:"true"`
	OutboxDispatchSchedule     string `envconfig:"OUTBOX_DISPATCH_SCHEDULE" default:"*/5 * * * * *"`
	IdempotencyCleanupSchedule string `envconfig:"IDEMPOTENCY_CLEANUP_SCHEDULE" default:"0 0 * * * *"`
	OutboxBatchSize            int    `envconfig:"OUTBOX_BATCH_SIZE" default:"50"`
	OutboxMaxAttempts          int    `envconfig:"OUTBOX_MAX_ATTEMPTS" default:"5"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid env config: %w", err)
	}
	return cfg, nil
}

// Validate rejects values envconfig parses but the service cannot run with.
func (c Config) Validate() error {
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be positive, got %s", c.Gateway.Timeout)
	}
	if c.JWT.Duration <= 0 {
		return fmt.Errorf("JWT_DURATION must be positive, got %s", c.JWT.Duration)
	}
	if c.Worker.OutboxBatchSize < 1 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be at least 1, got %d", c.Worker.OutboxBatchSize)
	}
	if c.Worker.OutboxMaxAttempts < 1 {
		return fmt.Errorf("OUTBOX_MAX_ATTEMPTS must be at least 1, got %d", c.Worker.OutboxMaxAttempts)
	}
	return nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:          "localhost",
			Port:          "15433", // Test DB port
			User:          "test",
			Password:      "test",
			DBName:        "test_db",
			SSLMode:       "disable",
			TimeZone:      "UTC",
			MaxConns:      20,
			RunMigrations: false,
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "UTC",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 0,
		},
		JWT: JWTConfig{
			Secret:   "test-secret-key-for-jwt-signing-only",
			Duration: time.Hour,
		},
		Gateway: GatewayConfig{
			KeyID:         "rzp_test_key",
			KeySecret:     "test_key_secret",
			WebhookSecret: "test_webhook_secret",
			BaseURL:       "http://127.0.0.1:0",
			Timeout:       2 * time.Second,
			Currency:      "INR",
		},
		Broker: BrokerConfig{
			Exchange: "toolrental.events",
			Producer: "toolrental-test",
		},
		Worker: WorkerConfig{
			Enabled:           false,
			OutboxBatchSize:   50,
			OutboxMaxAttempts: 5,
		},
	}
}
