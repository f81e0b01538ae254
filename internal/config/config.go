package config

import (
	"os"
	"strconv"
	"time"

	commoncfg "github.com/fanuel08/Medicine-project/common/config"
)

// Config afyalink HTTP API configuration
type Config struct {
	HTTP struct {
		Addr      string
		APIPrefix string
	}
	DBEnabled    bool
	Database     commoncfg.DatabaseConfig
	RedisEnabled bool
	Redis        commoncfg.RedisConfig
	Log          struct {
		Level  string
		Format string
	}
	JWT      JWTConfig
	USSD     USSDConfig
	OTP      OTPConfig
	Daraja   DarajaConfig
	SMS      SMSConfig
	MQTT     MQTTConfig
	Events   EventsConfig
	Timezone string
	Admin    AdminSeedConfig
}

// JWTConfig bearer token settings
type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// USSDConfig menu rendering settings
type USSDConfig struct {
	DefaultLanguage string
	MenuFallback    string // shown when a menu key is missing in every language
}

// OTPConfig patient one-time-code settings
type OTPConfig struct {
	TTL         time.Duration
	MaxRequests int // per phone per Window; 0 disables throttling
	Window      time.Duration
}

// DarajaConfig Safaricom M-Pesa STK push settings
type DarajaConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	PassKey        string
	CallbackURL    string
	AccountPrefix  string
	Amount         int
	Timeout        time.Duration
}

// SMSConfig Africa's Talking SMS settings
type SMSConfig struct {
	Enabled  bool
	BaseURL  string
	Username string
	APIKey   string
	SenderID string
}

// MQTTConfig agent notification publisher
type MQTTConfig struct {
	Enabled     bool
	Broker      commoncfg.MQTTConfig
	TopicPrefix string
}

// EventsConfig Redis stream for case lifecycle events ("" disables)
type EventsConfig struct {
	Stream string
	MaxLen int64 // approximate cap on stream length; 0 keeps everything
}

// AdminSeedConfig bootstrap staff account
type AdminSeedConfig struct {
	Enabled  bool
	Username string
	Password string
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.HTTP.APIPrefix = getEnv("API_PREFIX", "/api")

	// Default to true for local dev: if DB is unavailable, the server falls back to memory repos.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "afyalink")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "20"), 20)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)
	cfg.Database.MaxLifetime = parseDuration(getEnv("DB_MAX_LIFETIME", "30m"), 30*time.Minute)

	cfg.RedisEnabled = getEnv("REDIS_ENABLED", "true") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.JWT.Secret = getEnv("JWT_SECRET", "change-me-in-production")
	cfg.JWT.AccessTTL = parseDuration(getEnv("JWT_ACCESS_TTL", "5m"), 5*time.Minute)
	cfg.JWT.RefreshTTL = parseDuration(getEnv("JWT_REFRESH_TTL", "24h"), 24*time.Hour)

	cfg.USSD.DefaultLanguage = getEnv("USSD_DEFAULT_LANGUAGE", "en")
	cfg.USSD.MenuFallback = getEnv("USSD_MENU_FALLBACK", "Error: Menu not configured. Please contact support.")

	cfg.OTP.TTL = parseDuration(getEnv("OTP_TTL", "5m"), 5*time.Minute)
	cfg.OTP.MaxRequests = parseInt(getEnv("OTP_MAX_REQUESTS", "5"), 5)
	cfg.OTP.Window = parseDuration(getEnv("OTP_WINDOW", "15m"), 15*time.Minute)

	cfg.Daraja.BaseURL = getEnv("DARAJA_BASE_URL", "https://sandbox.safaricom.co.ke")
	cfg.Daraja.ConsumerKey = getEnv("DARAJA_CONSUMER_KEY", "")
	cfg.Daraja.ConsumerSecret = getEnv("DARAJA_CONSUMER_SECRET", "")
	cfg.Daraja.ShortCode = getEnv("DARAJA_BUSINESS_SHORTCODE", "")
	cfg.Daraja.PassKey = getEnv("DARAJA_PASSKEY", "")
	cfg.Daraja.CallbackURL = getEnv("DARAJA_CALLBACK_URL", "")
	cfg.Daraja.AccountPrefix = getEnv("DARAJA_ACCOUNT_PREFIX", "AFYLNK")
	cfg.Daraja.Amount = parseInt(getEnv("DARAJA_AMOUNT", "1"), 1)
	cfg.Daraja.Timeout = parseDuration(getEnv("DARAJA_TIMEOUT", "30s"), 30*time.Second)

	cfg.SMS.Enabled = getEnv("AT_ENABLED", "false") == "true"
	cfg.SMS.BaseURL = getEnv("AT_BASE_URL", "https://api.sandbox.africastalking.com")
	cfg.SMS.Username = getEnv("AT_USERNAME", "sandbox")
	cfg.SMS.APIKey = getEnv("AT_API_KEY", "")
	cfg.SMS.SenderID = getEnv("AT_SENDER_ID", "AFRICASTKNG")

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.Broker.ClientID = getEnv("MQTT_CLIENT_ID", "afyalink-api")
	cfg.MQTT.Broker.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Broker.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Broker.QoS = byte(parseInt(getEnv("MQTT_QOS", "1"), 1))
	cfg.MQTT.TopicPrefix = getEnv("MQTT_TOPIC_PREFIX", "afyalink/agents")

	cfg.Events.Stream = getEnv("EVENTS_STREAM", "afyalink:case-events")
	cfg.Events.MaxLen = int64(parseInt(getEnv("EVENTS_STREAM_MAXLEN", "10000"), 10000))
	cfg.Timezone = getEnv("TIMEZONE", "Africa/Nairobi")

	cfg.Admin.Enabled = getEnv("SEED_ADMIN", "true") == "true"
	cfg.Admin.Username = getEnv("ADMIN_USERNAME", "admin")
	cfg.Admin.Password = getEnv("ADMIN_PASSWORD", "ChangeMe123!")

	return cfg
}

// Location resolves Timezone, falling back to UTC+3 (EAT) when tzdata is missing
func (c *Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		return loc
	}
	return time.FixedZone("EAT", 3*60*60)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
