package cmd

import (
	"os"
	"strconv"
	"time"
)

// Config holds configuration values for commands.
type Config struct {
	Env           string
	LogLevel      string
	Port          string
	AdminPort     string
	ProxyProtocol bool
	CheckTimeout  time.Duration
	DialectsFile  string
	Store         storeConfig
	Upstream      upstreamConfig
}

type storeConfig struct {
	RedisAddress  string
	RedisPassword string
	RedisDB       int
	Collection    string
	Timeout       time.Duration
	QueueSize     int
	Workers       int
}

type upstreamConfig struct {
	Timeout         time.Duration
	MaxConnsPerHost int
}

// GetConfigFromEnvironment creates Config object based on the shell environment.
func GetConfigFromEnvironment() *Config {
	return &Config{
		Env:           env("ENV", "prod"),
		LogLevel:      env("LOG_LEVEL", ""),
		Port:          env("PORT", "8080"),
		AdminPort:     env("ADMIN_PORT", "9090"),
		ProxyProtocol: envBool("PROXY_PROTOCOL", false),
		CheckTimeout:  envDuration("CHECK_TIMEOUT", 500*time.Millisecond),
		DialectsFile:  env("DIALECTS_FILE", ""),
		Store: storeConfig{
			RedisAddress:  env("REDIS_ADDR", "localhost:6379"),
			RedisPassword: env("REDIS_PASSWORD", ""),
			RedisDB:       int(envInt("REDIS_DB", 0)),
			Collection:    env("QUERY_COLLECTION", "queries"),
			Timeout:       envDuration("STORE_TIMEOUT", 2*time.Second),
			QueueSize:     int(envInt("STORE_QUEUE_SIZE", 1024)),
			Workers:       int(envInt("STORE_WORKERS", 4)),
		},
		Upstream: upstreamConfig{
			Timeout:         envDuration("UPSTREAM_TIMEOUT", 30*time.Second),
			MaxConnsPerHost: int(envInt("UPSTREAM_MAX_CONNS", 4)),
		},
	}
}

func env(key string, def string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return def
}

func envInt(key string, def int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return def
		}
		return i
	}

	return def
}

func envBool(key string, def bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		b, _ := strconv.ParseBool(value)
		return b
	}

	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(value)
		if err != nil {
			return def
		}
		return d
	}

	return def
}
