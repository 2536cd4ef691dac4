package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv          string
	LogLevel        string
	MarketsSource   string // CSV path or http(s) URL
	ReviewsPath     string
	UsersPath       string
	MetricsAddr     string // empty disables the sidecar
	MySQLDSN        string // empty disables the review mirror; parseTime=true is forced
	RedisAddr       string // empty disables the cache
	RedisDB         int
	RedisPass       string
	CacheTTL        time.Duration
	DefaultPageSize int
	MaxPageSize     int
	FetchRPS        int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer; using default")
		}
		return def
	}
	c := Config{
		AppEnv:          env("APP_ENV", "prod"),
		LogLevel:        env("LOG_LEVEL", "info"),
		MarketsSource:   env("MARKETS_SOURCE", "farmers_markets.csv"),
		ReviewsPath:     env("REVIEWS_PATH", "reviews.json"),
		UsersPath:       env("USERS_PATH", "users.json"),
		MetricsAddr:     os.Getenv("METRICS_ADDR"),
		MySQLDSN:        os.Getenv("MYSQL_DSN"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPass:       env("REDIS_PASSWORD", ""),
		RedisDB:         atoi("REDIS_DB", 0),
		CacheTTL:        time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		DefaultPageSize: atoi("DEFAULT_PAGE_SIZE", 10),
		MaxPageSize:     atoi("MAX_PAGE_SIZE", 100),
		FetchRPS:        atoi("FETCH_RPS", 5),
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
