package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig Postgres connection settings
type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Database    string
	SSLMode     string
	MaxConns    int
	MaxIdle     int
	MaxLifetime time.Duration
}

// RedisConfig Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT broker settings
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// GetDSN builds a lib/pq key=value connection string, quoting values as needed
func (c *DatabaseConfig) GetDSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	parts := []string{
		"host=" + dsnValue(c.Host),
		"port=" + strconv.Itoa(c.Port),
		"user=" + dsnValue(c.User),
		"password=" + dsnValue(c.Password),
		"dbname=" + dsnValue(c.Database),
		"sslmode=" + dsnValue(sslMode),
	}
	return strings.Join(parts, " ")
}

func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// LoadFromEnv overrides fields from PREFIX_HOST, PREFIX_PORT, PREFIX_USER,
// PREFIX_PASSWORD, PREFIX_NAME, PREFIX_SSLMODE and PREFIX_MAX_CONNS.
// Malformed numbers are reported and leave the field unchanged.
func (c *DatabaseConfig) LoadFromEnv(prefix string) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(prefix + "_" + key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := os.Getenv(prefix + "_" + key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s_%s: %w", prefix, key, err)
		}
		*dst = n
		return nil
	}

	str("HOST", &c.Host)
	str("USER", &c.User)
	str("PASSWORD", &c.Password)
	str("NAME", &c.Database)
	str("SSLMODE", &c.SSLMode)
	if err := num("PORT", &c.Port); err != nil {
		return err
	}
	return num("MAX_CONNS", &c.MaxConns)
}
