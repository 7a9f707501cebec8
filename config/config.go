package config

import (
	"sync"
	"time"
	"yeshivashop_server/structs"
)

var (
	configInstance *structs.Config
	configOnce     sync.Once
)

func GetConfig() *structs.Config {
	configOnce.Do(func() {
		configInstance = Load()
	})
	return configInstance
}

// Load builds a fresh Config from the environment. Most callers want GetConfig.
func Load() *structs.Config {
	return &structs.Config{
		Server: &structs.ServerConfig{
			AppName:        getEnvAsString("APP_NAME", "YeshivaShop"),
			Environment:    getEnvAsString("APP_ENV", "development"),
			Port:           getEnvAsString("APP_PORT", ":8082"),
			PublicURL:      getEnvAsString("APP_PUBLIC_URL", "http://localhost:3000"),
			LogLevel:       getEnvAsString("LOG_LEVEL", ""),
			ReadTimeout:    getEnvAsTimeDuration("SERVER_READ_TIME_OUT", 15*time.Second),
			WriteTimeout:   getEnvAsTimeDuration("SERVER_WRITE_TIME_OUT", 15*time.Second),
			IdleTimeout:    getEnvAsTimeDuration("SERVER_IDLE_TIME_OUT", 60*time.Second),
			MaxHeaderBytes: getEnvAsInt("SERVER_MAX_HEADER_BYTES", 1<<20), // 1 MB
			MaxBodyBytes:   int64(getEnvAsInt("SERVER_MAX_BODY_BYTES", 10<<20)),
		},
		Cors: &structs.CorsConfig{
			AllowedOrigins:   getEnvAsSlice("CORS_ALLOW_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods:   getEnvAsSlice("CORS_ALLOW_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getEnvAsSlice("CORS_ALLOW_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-CSRF-Token"}),
			ExposedHeaders:   getEnvAsSlice("CORS_EXPOSED_HEADERS", []string{"Content-Length", "X-RateLimit-Remaining"}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", true),
			MaxAge:           getEnvAsInt("CORS_MAX_AGE", 300),
		},
		Database: &structs.DatabaseConfig{
			Driver:       getEnvAsString("DB_DRIVER", "pgdriver"),
			URL:          getEnvAsString("DATABASE_URL", ""),
			Host:         getEnvAsString("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnvAsString("DB_USER", "postgres"),
			Password:     getEnvAsString("DB_PASSWORD", "password"),
			Name:         getEnvAsString("DB_NAME", "yeshivashop"),
			SSLMode:      getEnvAsString("DB_SSLMODE", "disable"),
			AutoMigrate:  getEnvAsBool("DB_AUTO_MIGRATE", false),
			MaxConns:     getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:     getEnvAsInt("DB_MIN_CONNS", 2),
			MaxLifetime:  getEnvAsTimeDuration("DB_MAX_LIFETIME", 30*time.Minute),
			MaxIdleTime:  getEnvAsTimeDuration("DB_MAX_IDLE_TIME", 5*time.Minute),
			ReadTimeout:  getEnvAsTimeDuration("DB_READ_TIMEOUT", 5*time.Second),
			WriteTimeout: getEnvAsTimeDuration("DB_WRITE_TIMEOUT", 5*time.Second),
		},
		Auth: &structs.AuthConfig{
			ProviderURL:   getEnvAsString("AUTH_URL", ""),
			AnonKey:       getEnvAsString("AUTH_ANON_KEY", ""),
			JWTSecret:     getEnvAsString("AUTH_JWT_SECRET", "default_jwt_secret"),
			JWTAudience:   getEnvAsString("AUTH_JWT_AUDIENCE", "authenticated"),
			IdleTimeout:   getEnvAsTimeDuration("AUTH_IDLE_TIMEOUT", 30*time.Minute),
			CookieDomain:  getEnvAsString("AUTH_COOKIE_DOMAIN", ".yeshivashop.co.uk"),
			RefreshExpiry: getEnvAsTimeDuration("AUTH_REFRESH_EXPIRY", 7*24*time.Hour),
			ProfileTTL:    getEnvAsTimeDuration("AUTH_PROFILE_CACHE_TTL", 5*time.Minute),
			BlacklistTTL:  getEnvAsTimeDuration("AUTH_BLACKLIST_TTL", time.Hour),
			HTTPTimeout:   getEnvAsTimeDuration("AUTH_HTTP_TIMEOUT", 10*time.Second),
		},
		Cache: &structs.CacheConfig{
			Address:         getEnvAsString("REDIS_ADDR", "localhost:6379"),
			Username:        getEnvAsString("REDIS_USERNAME", ""),
			Password:        getEnvAsString("REDIS_PASSWORD", ""),
			DB:              getEnvAsInt("REDIS_DB", 0),
			PoolSize:        getEnvAsInt("REDIS_POOL_SIZE", 20),
			MinIdleConns:    getEnvAsInt("REDIS_MIN_IDLE_CONNS", 2),
			MaxIdleConns:    getEnvAsInt("REDIS_MAX_IDLE_CONNS", 10),
			PoolTimeout:     getEnvAsTimeDuration("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:     getEnvAsTimeDuration("REDIS_IDLE_TIMEOUT", 5*time.Minute),
			DialTimeout:     getEnvAsTimeDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:     getEnvAsTimeDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:    getEnvAsTimeDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			MaxRetries:      getEnvAsInt("REDIS_MAX_RETRIES", 3),
			MinRetryBackoff: getEnvAsTimeDuration("REDIS_MIN_RETRY_BACKOFF", 8*time.Millisecond),
			MaxRetryBackoff: getEnvAsTimeDuration("REDIS_MAX_RETRY_BACKOFF", 512*time.Millisecond),
			CatalogTTL:      getEnvAsTimeDuration("CATALOG_CACHE_TTL", 5*time.Minute),
		},
		RateLimit: &structs.RateLimitConfig{
			Enabled:         getEnvAsBool("RATE_LIMIT_ENABLED", true),
			GeneralLimit:    getEnvAsInt("RATE_LIMIT_GENERAL", 120),
			GeneralWindow:   getEnvAsTimeDuration("RATE_LIMIT_GENERAL_WINDOW", time.Minute),
			AuthLimit:       getEnvAsInt("RATE_LIMIT_AUTH", 20),
			AuthWindow:      getEnvAsTimeDuration("RATE_LIMIT_AUTH_WINDOW", time.Minute),
			AdminLimit:      getEnvAsInt("RATE_LIMIT_ADMIN", 300),
			AdminWindow:     getEnvAsTimeDuration("RATE_LIMIT_ADMIN_WINDOW", time.Minute),
			ExpensiveLimit:  getEnvAsInt("RATE_LIMIT_EXPENSIVE", 60),
			ExpensiveWindow: getEnvAsTimeDuration("RATE_LIMIT_EXPENSIVE_WINDOW", time.Minute),
			CheckoutLimit:   getEnvAsInt("RATE_LIMIT_CHECKOUT", 5),
			CheckoutWindow:  getEnvAsTimeDuration("RATE_LIMIT_CHECKOUT_WINDOW", time.Minute),
		},
		Email: &structs.EmailConfig{
			ApiKey: getEnvAsString("RESEND_API_KEY", ""),
			From:   getEnvAsString("RESEND_FROM", "orders@yeshivashop.co.uk"),
		},
		Notification: &structs.NotificationConfig{
			Mode:      getEnvAsString("NOTIFY_MODE", NotifyModeSerial),
			SendDelay: getEnvAsTimeDuration("NOTIFY_SEND_DELAY", 600*time.Millisecond),
			Timeout:   getEnvAsTimeDuration("NOTIFY_TIMEOUT", 30*time.Second),
		},
		Storage: &structs.StorageConfig{
			Bucket:         getEnvAsString("S3_BUCKET", "product-images"),
			Region:         getEnvAsString("S3_REGION", "eu-west-2"),
			AccessKey:      getEnvAsString("S3_KEY", ""),
			SecretKey:      getEnvAsString("S3_SECRET", ""),
			Endpoint:       getEnvAsString("S3_ENDPOINT", ""),
			PublicURL:      getEnvAsString("S3_URL", ""),
			MaxUploadBytes: int64(getEnvAsInt("STORAGE_MAX_UPLOAD_BYTES", 5<<20)),
		},
		Encryption: &structs.EncryptionConfig{
			Secret: getEnvAsString("ENCRYPTION_SECRET", "default_encryption_secret"),
		},
		Checkout: &structs.CheckoutConfig{
			ClearCart: getEnvAsBool("CHECKOUT_CLEAR_CART", true),
		},
	}
}

const (
	NotifyModeSerial     = "serial"
	NotifyModeConcurrent = "concurrent"
)

func GetLogLevel() string {
	cfg := GetConfig()
	if cfg.Server.LogLevel != "" {
		return cfg.Server.LogLevel
	}
	if cfg.Server.Environment == "production" {
		return "info"
	}
	return "debug"
}

func IsProduction() bool {
	return GetConfig().Server.Environment == "production"
}
