package structs

import "time"

type Config struct {
	Server       *ServerConfig
	Cors         *CorsConfig
	Database     *DatabaseConfig
	Auth         *AuthConfig
	Cache        *CacheConfig
	RateLimit    *RateLimitConfig
	Email        *EmailConfig
	Notification *NotificationConfig
	Storage      *StorageConfig
	Encryption   *EncryptionConfig
	Checkout     *CheckoutConfig
}

type ServerConfig struct {
	AppName        string        // YeshivaShop
	Environment    string        // development, production
	Port           string        // :8082
	PublicURL      string        // https://yeshivashop.co.uk
	LogLevel       string        // debug, info, warn, error
	ReadTimeout    time.Duration // in seconds
	WriteTimeout   time.Duration // in seconds
	IdleTimeout    time.Duration // in seconds
	MaxHeaderBytes int           // in bytes
	MaxBodyBytes   int64
}

type CorsConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type DatabaseConfig struct {
	Driver       string // pgdriver, pgx
	URL          string // overrides Host/Port/User/Password/Name when set
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	AutoMigrate  bool
	MaxConns     int
	MinConns     int
	MaxLifetime  time.Duration
	MaxIdleTime  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AuthConfig describes the external identity provider that issues session tokens.
type AuthConfig struct {
	ProviderURL   string
	AnonKey       string
	JWTSecret     string
	JWTAudience   string
	IdleTimeout   time.Duration // 0 disables idle logout
	CookieDomain  string
	RefreshExpiry time.Duration
	ProfileTTL    time.Duration
	BlacklistTTL  time.Duration
	HTTPTimeout   time.Duration
}

type CacheConfig struct {
	Address         string
	Username        string
	Password        string
	DB              int
	PoolSize        int
	MinIdleConns    int
	MaxIdleConns    int
	PoolTimeout     time.Duration
	IdleTimeout     time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxRetries      int
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
	CatalogTTL      time.Duration
}

type RateLimitConfig struct {
	Enabled         bool
	GeneralLimit    int
	GeneralWindow   time.Duration
	AuthLimit       int
	AuthWindow      time.Duration
	AdminLimit      int
	AdminWindow     time.Duration
	ExpensiveLimit  int
	ExpensiveWindow time.Duration
	CheckoutLimit   int
	CheckoutWindow  time.Duration
}

type EmailConfig struct {
	ApiKey string
	From   string
}

type NotificationConfig struct {
	Mode      string // serial, concurrent
	SendDelay time.Duration
	Timeout   time.Duration
}

type StorageConfig struct {
	Bucket         string
	Region         string
	AccessKey      string
	SecretKey      string
	Endpoint       string
	PublicURL      string
	MaxUploadBytes int64
}

type EncryptionConfig struct {
	Secret string
}

type CheckoutConfig struct {
	ClearCart bool
}
