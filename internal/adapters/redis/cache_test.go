package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "farmers_markets/internal/adapters/redis"
	"farmers_markets/internal/domain"
)

func TestCache_SetGetDel(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	defer c.Close()
	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	var mv domain.MarketView
	if ok, err := c.Get(ctx, "market:1", &mv); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	lat, lon, avg := 41.88, -87.63, 4.5
	in := domain.MarketView{
		Market: domain.Market{ID: 1, Name: "Green Market", City: "Chicago", Lat: &lat, Lon: &lon},
		Rating: domain.RatingStat{Count: 2, Avg: &avg},
	}
	if err := c.Set(ctx, "market:1", in, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("markets:market:1") {
		t.Fatalf("expected prefixed key, have %v", mr.Keys())
	}

	ok, err := c.Get(ctx, "market:1", &mv)
	if !ok || err != nil {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if mv.Market.Name != "Green Market" || *mv.Market.Lat != lat || *mv.Rating.Avg != avg || mv.Rating.Count != 2 {
		t.Fatalf("unexpected value: %+v", mv)
	}

	if err := c.Del(ctx, "market:1"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if ok, _ := c.Get(ctx, "market:1", &mv); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestCache_TTL(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "reviews:3", domain.ReviewsView{Reviews: []domain.Review{}}, 30); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(31 * time.Second)

	var v domain.ReviewsView
	if ok, _ := c.Get(ctx, "reviews:3", &v); ok {
		t.Fatal("expected entry to expire")
	}
}
