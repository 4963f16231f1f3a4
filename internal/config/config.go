package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port               int      `mapstructure:"port"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
		CorsAllowedMethods []string `mapstructure:"cors_allowed_methods"`
		CorsAllowedHeaders []string `mapstructure:"cors_allowed_headers"`
		RateLimitPerSecond float64  `mapstructure:"rate_limit_per_second"`
		RateLimitBurst     int      `mapstructure:"rate_limit_burst"`
	} `mapstructure:"server"`

	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
		MaxConns int32  `mapstructure:"max_conns"`
	} `mapstructure:"database"`

	Redis struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	JWT struct {
		Secret          string `mapstructure:"secret"`
		Issuer          string `mapstructure:"issuer"`
		ExpirationHours int    `mapstructure:"expiration_hours"`
	} `mapstructure:"jwt"`

	Razorpay struct {
		KeyID         string `mapstructure:"key_id"`
		KeySecret     string `mapstructure:"key_secret"`
		WebhookSecret string `mapstructure:"webhook_secret"`
	} `mapstructure:"razorpay"`

	Payments PaymentsConfig `mapstructure:"payments"`

	Archive ArchiveConfig `mapstructure:"archive"`

	Monitoring struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"monitoring"`
}

// PaymentsConfig holds every money rule default the split pipeline needs.
// It is passed to the services explicitly; nothing reads it from globals.
type PaymentsConfig struct {
	PlatformFeePercent    float64       `mapstructure:"platform_fee_percent"`
	ReferralFeePercent    float64       `mapstructure:"referral_fee_percent"`
	DefaultCommissionRate float64       `mapstructure:"default_commission_rate"`
	PlatformAccountID     string        `mapstructure:"platform_account_id"`
	Currency              string        `mapstructure:"currency"`
	Timezone              string        `mapstructure:"timezone"`
	GatewayTimeout        time.Duration `mapstructure:"gateway_timeout"`
	LockTTL               time.Duration `mapstructure:"lock_ttl"`
	LockWait              time.Duration `mapstructure:"lock_wait"`
	ReconcileInterval     time.Duration `mapstructure:"reconcile_interval"`
	ReconcileBatch        int           `mapstructure:"reconcile_batch"`
}

// ArchiveConfig points at the S3-compatible bucket (Cloudflare R2 in production)
// that keeps a write-once copy of every ledger row.
type ArchiveConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

func Load() *Config {
	// Load .env file if exists (ignore error in production)
	godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile("configs/config.yaml")

	// Auto bind environment variables
	v.AutomaticEnv()

	SetDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		log.Printf("[Config] No config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("config unmarshal error: %v", err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	return &cfg
}

// SetDefaults registers the defaults that let the binary run without a config file
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("server.cors_allowed_methods", []string{"GET", "POST", "PUT", "OPTIONS"})
	v.SetDefault("server.cors_allowed_headers", []string{"Authorization", "Content-Type", "Idempotency-Key"})
	v.SetDefault("server.rate_limit_per_second", 20.0)
	v.SetDefault("server.rate_limit_burst", 40)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "clinic_db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("redis.host", "redis")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.issuer", "clinic-auth")
	v.SetDefault("jwt.expiration_hours", 24)

	v.SetDefault("payments.platform_fee_percent", 0.0599)
	v.SetDefault("payments.referral_fee_percent", 0.0233)
	v.SetDefault("payments.default_commission_rate", 0.5)
	v.SetDefault("payments.currency", "INR")
	v.SetDefault("payments.timezone", "Asia/Kolkata")
	v.SetDefault("payments.gateway_timeout", 10*time.Second)
	v.SetDefault("payments.lock_ttl", 30*time.Second)
	v.SetDefault("payments.lock_wait", 5*time.Second)
	v.SetDefault("payments.reconcile_interval", 5*time.Minute)
	v.SetDefault("payments.reconcile_batch", 50)

	v.SetDefault("archive.region", "auto")

	v.SetDefault("monitoring.port", 9090)
}

func applyEnvOverrides(cfg *Config) {
	// Override database settings from DB_* environment variables
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Database.Port = n
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Database.User = user
	}
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		cfg.Database.Password = pass
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Database.Name = name
	}

	// K8s sets REDIS_SERVICE_HOST and REDIS_SERVICE_PORT for services
	if host := os.Getenv("REDIS_SERVICE_HOST"); host != "" {
		cfg.Redis.Host = host
	}
	if port := os.Getenv("REDIS_SERVICE_PORT"); port != "" {
		cfg.Redis.Port = port
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		cfg.Redis.Password = pass
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}

	// Load Razorpay config from environment variables
	if keyID := os.Getenv("RAZORPAY_KEY_ID"); keyID != "" {
		cfg.Razorpay.KeyID = keyID
	}
	if keySecret := os.Getenv("RAZORPAY_KEY_SECRET"); keySecret != "" {
		cfg.Razorpay.KeySecret = keySecret
	}
	if webhookSecret := os.Getenv("RAZORPAY_WEBHOOK_SECRET"); webhookSecret != "" {
		cfg.Razorpay.WebhookSecret = webhookSecret
	}
	if account := os.Getenv("PLATFORM_ACCOUNT_ID"); account != "" {
		cfg.Payments.PlatformAccountID = account
	}

	if endpoint := os.Getenv("R2_ENDPOINT"); endpoint != "" {
		cfg.Archive.Endpoint = endpoint
	}
	if bucket := os.Getenv("R2_BUCKET"); bucket != "" {
		cfg.Archive.Bucket = bucket
	}
	if key := os.Getenv("R2_ACCESS_KEY"); key != "" {
		cfg.Archive.AccessKey = key
	}
	if secret := os.Getenv("R2_SECRET_KEY"); secret != "" {
		cfg.Archive.SecretKey = secret
	}
	if cfg.Archive.Bucket != "" && cfg.Archive.AccessKey != "" && cfg.Archive.SecretKey != "" {
		cfg.Archive.Enabled = true
	}
}

// Validate rejects money rule defaults outside [0,1], non-positive timeouts and a lock TTL
// that would expire before the gateway call it guards
func (c *Config) Validate() error {
	rates := map[string]float64{
		"payments.platform_fee_percent":    c.Payments.PlatformFeePercent,
		"payments.referral_fee_percent":    c.Payments.ReferralFeePercent,
		"payments.default_commission_rate": c.Payments.DefaultCommissionRate,
	}
	for name, rate := range rates {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", name, rate)
		}
	}
	if c.Payments.GatewayTimeout <= 0 {
		return fmt.Errorf("payments.gateway_timeout must be positive")
	}
	if c.Payments.LockTTL <= 0 {
		return fmt.Errorf("payments.lock_ttl must be positive")
	}
	// the lock has to outlive the gateway call it guards
	if c.Payments.LockTTL <= c.Payments.GatewayTimeout {
		return fmt.Errorf("payments.lock_ttl (%s) must exceed payments.gateway_timeout (%s)",
			c.Payments.LockTTL, c.Payments.GatewayTimeout)
	}
	return nil
}

// DatabaseURL builds the pgx connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Name, c.Database.SSLMode)
}
