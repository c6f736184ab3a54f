package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// AuthFailMode decides how a failed membership-store call during an
// authorization check is reported: Internal drops the event as an internal
// error, Closed rejects it as if the member check itself had failed.
type AuthFailMode string

const (
	AuthFailInternal AuthFailMode = "internal"
	AuthFailClosed   AuthFailMode = "closed"
)

type Config struct {
	GatewayID string
	NodeID    int64
	HTTPAddr  string

	JWTSecret string
	JWTTTL    time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	NatsServers []string

	// Broker selects the fanout bridge implementation: "redis" or "nats".
	Broker        string
	PresenceTopic string
	PresenceTTL   time.Duration

	MongoURI string
	MongoDB  string

	AuthFailMode AuthFailMode
}

// Load reads the environment, after best-effort loading of a local .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	c := &Config{
		GatewayID:     getEnv("GATEWAY_ID", "ft_gw-1"),
		NodeID:        getEnvInt64("NODE_ID", 1),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		JWTSecret:     getEnv("JWT_SECRET", "dev-secret"),
		JWTTTL:        getEnvDuration("JWT_TTL", time.Hour),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       int(getEnvInt64("REDIS_DB", 0)),
		NatsServers:   splitCSV(getEnv("NATS_SERVERS", "nats://localhost:4222")),
		Broker:        getEnv("BROKER", "redis"),
		PresenceTopic: getEnv("PRESENCE_TOPIC", "presence"),
		PresenceTTL:   getEnvDuration("PRESENCE_TTL", 5*time.Minute),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "freedomtalk"),
		AuthFailMode:  AuthFailMode(getEnv("AUTH_FAIL_MODE", string(AuthFailInternal))),
	}

	switch c.Broker {
	case "redis", "nats":
	default:
		return nil, errors.Errorf("unsupported BROKER %q (use redis or nats)", c.Broker)
	}
	switch c.AuthFailMode {
	case AuthFailInternal, AuthFailClosed:
	default:
		return nil, errors.Errorf("unsupported AUTH_FAIL_MODE %q (use internal or closed)", c.AuthFailMode)
	}
	if c.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must not be empty")
	}
	return c, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
