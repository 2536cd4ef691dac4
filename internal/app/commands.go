package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"farmers_markets/internal/adapters/observability"
	"farmers_markets/internal/domain"
	"farmers_markets/internal/store"
)

// ReviewService runs review mutations on behalf of the current identity and
// flushes the whole collection to the sink after each one.
type ReviewService struct {
	mu      sync.Mutex
	records *store.Records
	reviews *store.Reviews
	sink    domain.ReviewSink
	cache   domain.Cache
	ident   domain.Identity
}

func NewReviewService(rs *store.Records, rv *store.Reviews, sink domain.ReviewSink, c domain.Cache, id domain.Identity) *ReviewService {
	return &ReviewService{records: rs, reviews: rv, sink: sink, cache: c, ident: id}
}

// Add stores a review for a catalog market. The market must exist.
func (s *ReviewService) Add(ctx context.Context, marketID int64, rating int, text string) (domain.Review, error) {
	rv, err := s.add(ctx, marketID, rating, text)
	observability.ObserveReviewMutation("add", err)
	return rv, err
}

func (s *ReviewService) add(ctx context.Context, marketID int64, rating int, text string) (domain.Review, error) {
	who, ok := s.ident.Current()
	if !ok {
		return domain.Review{}, domain.ErrUnauthenticated
	}
	if _, err := s.records.Get(marketID); err != nil {
		return domain.Review{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.reviews.Snapshot()
	rv, err := s.reviews.Add(marketID, who.ID, who.Login, rating, text)
	if err != nil {
		return domain.Review{}, err
	}
	if err := s.flush(ctx, prev); err != nil {
		return domain.Review{}, err
	}
	s.invalidate(ctx, marketID)

	log.Info().Int64("review", rv.ID).Int64("market", marketID).Int64("author", who.ID).Msg("review added")
	return rv, nil
}

// Delete removes a review written by the current identity.
func (s *ReviewService) Delete(ctx context.Context, reviewID int64) error {
	err := s.delete(ctx, reviewID)
	observability.ObserveReviewMutation("delete", err)
	return err
}

func (s *ReviewService) delete(ctx context.Context, reviewID int64) error {
	who, ok := s.ident.Current()
	if !ok {
		return domain.ErrUnauthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rv, err := s.reviews.Get(reviewID)
	if err != nil {
		return err
	}
	prev := s.reviews.Snapshot()
	if err := s.reviews.Delete(reviewID, who.ID); err != nil {
		return err
	}
	if err := s.flush(ctx, prev); err != nil {
		return err
	}
	s.invalidate(ctx, rv.MarketID)

	log.Info().Int64("review", reviewID).Int64("market", rv.MarketID).Int64("author", who.ID).Msg("review deleted")
	return nil
}

// flush persists the current state. On failure the in-memory state goes back
// to prev and the restored state is written again, so sinks that accepted the
// failed snapshot end up matching memory.
func (s *ReviewService) flush(ctx context.Context, prev domain.ReviewsSnapshot) error {
	if s.sink == nil {
		return nil
	}
	if err := s.sink.ReplaceAll(ctx, s.reviews.Snapshot()); err != nil {
		s.reviews.Restore(prev)
		log.Error().Err(err).Msg("review flush failed; change rolled back")
		if cerr := s.sink.ReplaceAll(ctx, s.reviews.Snapshot()); cerr != nil {
			log.Error().Err(cerr).Msg("rewriting rolled back reviews failed; sinks may diverge until the next write")
		}
		return fmt.Errorf("save reviews: %w", err)
	}
	return nil
}

func (s *ReviewService) invalidate(ctx context.Context, marketID int64) {
	if s.cache == nil {
		return
	}
	for _, key := range []string{MarketCacheKey(marketID), ReviewsCacheKey(marketID)} {
		if err := s.cache.Del(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache invalidation failed")
		}
	}
}
