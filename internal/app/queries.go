package app

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"farmers_markets/internal/adapters/observability"
	"farmers_markets/internal/domain"
	"farmers_markets/internal/geo"
	"farmers_markets/internal/store"
)

type QueryService struct {
	records     *store.Records
	reviews     *store.Reviews
	cache       domain.Cache
	cacheTTL    time.Duration
	defaultSize int
	maxSize     int
}

// NewQueryService wires the query engine. cache may be nil. Non-positive
// sizes fall back to DefaultPageSize / MaxPageSize.
func NewQueryService(rs *store.Records, rv *store.Reviews, c domain.Cache, ttl time.Duration, defaultSize, maxSize int) *QueryService {
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	return &QueryService{
		records:     rs,
		reviews:     rv,
		cache:       c,
		cacheTTL:    ttl,
		defaultSize: min(defaultSize, maxSize),
		maxSize:     maxSize,
	}
}

// Search filters, enriches, sorts and paginates the catalog.
func (s *QueryService) Search(ctx context.Context, c Criteria) (domain.MarketsPage, error) {
	start := time.Now()
	out, err := s.run(c)
	observability.ObserveQuery("search", err, time.Since(start))
	return out, err
}

// List is Search over the whole catalog: textual filters and radius are dropped.
func (s *QueryService) List(ctx context.Context, c Criteria) (domain.MarketsPage, error) {
	c.City, c.State, c.Zip, c.Name, c.RadiusKm = nil, nil, nil, nil, nil
	start := time.Now()
	out, err := s.run(c)
	observability.ObserveQuery("list", err, time.Since(start))
	return out, err
}

func (s *QueryService) run(c Criteria) (domain.MarketsPage, error) {
	p, err := s.plan(c)
	if err != nil {
		return domain.MarketsPage{}, err
	}
	if p.RadiusKm != nil && p.Center == nil {
		log.Debug().Float64("radius_km", *p.RadiusKm).Msg("radius without center ignored")
	}

	keep := filters(p.Criteria)
	stats := s.reviews.Stats()

	items := []domain.MarketItem{}
	for m := range s.records.All() {
		if !matches(m, keep) {
			continue
		}
		it := domain.MarketItem{Market: m, Rating: stats[m.ID]}
		if p.Center != nil {
			if d, ok := geo.Distance(p.Center.Lat, p.Center.Lon, m.Lat, m.Lon); ok {
				it.Distance = &d
			}
			if p.RadiusKm != nil && (it.Distance == nil || *it.Distance > *p.RadiusKm) {
				continue
			}
		}
		items = append(items, it)
	}

	SortItems(items, p.sort, p.desc)

	return domain.MarketsPage{
		Items: Paginate(items, p.page, p.size),
		Total: len(items),
		Page:  p.page,
		Size:  p.size,
	}, nil
}

func filters(c Criteria) []func(domain.Market) bool {
	var keep []func(domain.Market) bool
	if c.City != nil {
		keep = append(keep, store.CityIs(*c.City))
	}
	if c.State != nil {
		keep = append(keep, store.StateIs(*c.State))
	}
	if c.Zip != nil {
		keep = append(keep, store.ZipIs(*c.Zip))
	}
	if c.Name != nil {
		keep = append(keep, store.NameContains(*c.Name))
	}
	return keep
}

func matches(m domain.Market, keep []func(domain.Market) bool) bool {
	for _, f := range keep {
		if !f(m) {
			return false
		}
	}
	return true
}

// SortItems orders items in place, stably. Every key falls back to name and
// then id so the order is total. Missing ratings and distances go last in
// both directions.
func SortItems(items []domain.MarketItem, key SortKey, desc bool) {
	dir := func(c int) int {
		if desc {
			return -c
		}
		return c
	}
	byName := func(a, b domain.MarketItem) int {
		if c := cmp.Compare(a.NameNorm, b.NameNorm); c != 0 {
			return dir(c)
		}
		return dir(cmp.Compare(a.ID, b.ID))
	}
	byCity := func(a, b domain.MarketItem) int {
		if c := cmp.Compare(a.CityNorm, b.CityNorm); c != 0 {
			return dir(c)
		}
		return byName(a, b)
	}

	var fn func(a, b domain.MarketItem) int
	switch key {
	case SortCity:
		fn = byCity
	case SortState:
		fn = func(a, b domain.MarketItem) int {
			if c := cmp.Compare(a.StateNorm, b.StateNorm); c != 0 {
				return dir(c)
			}
			return byCity(a, b)
		}
	case SortRating:
		fn = func(a, b domain.MarketItem) int {
			if c, done := missingLast(a.Rating.Avg, b.Rating.Avg, dir); done {
				return c
			}
			return byName(a, b)
		}
	case SortDistance:
		fn = func(a, b domain.MarketItem) int {
			if c, done := missingLast(a.Distance, b.Distance, dir); done {
				return c
			}
			return byName(a, b)
		}
	default:
		fn = byName
	}
	slices.SortStableFunc(items, fn)
}

func missingLast(a, b *float64, dir func(int) int) (int, bool) {
	switch {
	case a == nil && b == nil:
		return 0, false
	case a == nil:
		return 1, true
	case b == nil:
		return -1, true
	}
	if c := cmp.Compare(*a, *b); c != 0 {
		return dir(c), true
	}
	return 0, false
}

// Paginate returns the 1-based page of the given size; past the end it is empty.
func Paginate[T any](items []T, page, size int) []T {
	if page < 1 || size < 1 || page-1 >= (len(items)+size-1)/size {
		return []T{}
	}
	start := (page - 1) * size
	end := min(start+size, len(items))
	return items[start:end:end]
}

// Exists reports ErrNotFound for ids outside the catalog. It bypasses the
// cache and records no query metric.
func (s *QueryService) Exists(id int64) error {
	_, err := s.records.Get(id)
	return err
}

// Show returns one market with its rating aggregate.
func (s *QueryService) Show(ctx context.Context, id int64) (domain.MarketView, error) {
	start := time.Now()
	key := MarketCacheKey(id)
	var mv domain.MarketView
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &mv); ok {
			observability.ObserveQuery("show", nil, time.Since(start))
			return mv, nil
		}
	}

	m, err := s.records.Get(id)
	if err != nil {
		observability.ObserveQuery("show", err, time.Since(start))
		return domain.MarketView{}, err
	}
	mv = domain.MarketView{Market: m, Rating: s.reviews.Stat(id)}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, mv, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}
	observability.ObserveQuery("show", nil, time.Since(start))
	return mv, nil
}

// Reviews lists a market's reviews oldest first. Unknown markets and markets
// without reviews yield an empty list, not an error.
func (s *QueryService) Reviews(ctx context.Context, marketID int64) (domain.ReviewsView, error) {
	start := time.Now()
	key := ReviewsCacheKey(marketID)
	var out domain.ReviewsView
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			observability.ObserveQuery("reviews", nil, time.Since(start))
			return out, nil
		}
	}

	m, err := s.records.Get(marketID)
	if err != nil {
		m = domain.Market{ID: marketID}
	}
	out = domain.ReviewsView{
		Market:  m,
		Rating:  s.reviews.Stat(marketID),
		Reviews: s.reviews.ListByMarket(marketID),
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}
	observability.ObserveQuery("reviews", nil, time.Since(start))
	return out, nil
}

func MarketCacheKey(id int64) string  { return fmt.Sprintf("market:%d", id) }
func ReviewsCacheKey(id int64) string { return fmt.Sprintf("reviews:%d", id) }
