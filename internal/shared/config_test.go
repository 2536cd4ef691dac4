package shared_test

import (
	"testing"
	"time"

	"farmers_markets/internal/shared"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "MARKETS_SOURCE", "METRICS_ADDR", "MYSQL_DSN", "REDIS_ADDR", "CACHE_TTL_SECONDS", "MAX_PAGE_SIZE"} {
		t.Setenv(k, "")
	}
	c := shared.Load()
	if c.AppEnv != "prod" || c.MarketsSource != "farmers_markets.csv" || c.ReviewsPath != "reviews.json" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.MetricsAddr != "" || c.MySQLDSN != "" || c.RedisAddr != "" {
		t.Fatalf("optional backends enabled by default: %+v", c)
	}
	if c.CacheTTL != 5*time.Minute || c.DefaultPageSize != 10 || c.MaxPageSize != 100 {
		t.Fatalf("unexpected numeric defaults: %+v", c)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MARKETS_SOURCE", "https://example.com/markets.csv")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CACHE_TTL_SECONDS", "60")
	t.Setenv("MAX_PAGE_SIZE", "oops")
	c := shared.Load()
	if c.MarketsSource != "https://example.com/markets.csv" || c.RedisAddr != "localhost:6379" {
		t.Fatalf("overrides ignored: %+v", c)
	}
	if c.CacheTTL != time.Minute {
		t.Fatalf("CacheTTL = %v", c.CacheTTL)
	}
	if c.MaxPageSize != 100 {
		t.Fatalf("bad integer should fall back, got %d", c.MaxPageSize)
	}
}
