package store

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"time"

	"farmers_markets/internal/domain"
)

// Reviews is the mutable review collection. Writers take the write lock so
// averages always see a consistent set of reviews for a market.
type Reviews struct {
	mu       sync.RWMutex
	byID     map[int64]domain.Review
	byMarket map[int64]map[int64]struct{}
	nextID   int64
	now      func() time.Time
}

// NewReviews returns an empty collection. now defaults to time.Now.
func NewReviews(now func() time.Time) *Reviews {
	if now == nil {
		now = time.Now
	}
	return &Reviews{
		byID:     map[int64]domain.Review{},
		byMarket: map[int64]map[int64]struct{}{},
		now:      now,
	}
}

func (s *Reviews) Add(marketID, authorID int64, login string, rating int, text string) (domain.Review, error) {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return domain.Review{}, fmt.Errorf("rating %d: %w", rating, domain.ErrInvalidRating)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rv := domain.Review{
		ID:          s.nextID,
		MarketID:    marketID,
		AuthorID:    authorID,
		AuthorLogin: login,
		Rating:      rating,
		Text:        text,
		CreatedAt:   s.now().UTC().Truncate(time.Second),
	}
	s.nextID++
	s.put(rv)
	return rv, nil
}

// Delete removes a review owned by requestingAuthorID.
func (s *Reviews) Delete(reviewID, requestingAuthorID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rv, ok := s.byID[reviewID]
	if !ok {
		return fmt.Errorf("review %d: %w", reviewID, domain.ErrNotFound)
	}
	if rv.AuthorID != requestingAuthorID {
		return fmt.Errorf("review %d: %w", reviewID, domain.ErrForbidden)
	}
	delete(s.byID, reviewID)
	ids := s.byMarket[rv.MarketID]
	delete(ids, reviewID)
	if len(ids) == 0 {
		delete(s.byMarket, rv.MarketID)
	}
	return nil
}

func (s *Reviews) Get(reviewID int64) (domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rv, ok := s.byID[reviewID]
	if !ok {
		return domain.Review{}, fmt.Errorf("review %d: %w", reviewID, domain.ErrNotFound)
	}
	return rv, nil
}

// ListByMarket returns the market's reviews oldest first (ties by id).
// The slice is never nil.
func (s *Reviews) ListByMarket(marketID int64) []domain.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Review, 0, len(s.byMarket[marketID]))
	for id := range s.byMarket[marketID] {
		out = append(out, s.byID[id])
	}
	sortByCreation(out)
	return out
}

// AverageRating returns the mean rating; ok is false when the market has no reviews.
func (s *Reviews) AverageRating(marketID int64) (avg float64, ok bool) {
	st := s.Stat(marketID)
	if st.Avg == nil {
		return 0, false
	}
	return *st.Avg, true
}

func (s *Reviews) Stat(marketID int64) domain.RatingStat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := 0
	ids := s.byMarket[marketID]
	for id := range ids {
		sum += s.byID[id].Rating
	}
	return stat(len(ids), sum)
}

// Stats is a snapshot of every market's aggregate taken under one read lock.
func (s *Reviews) Stats() map[int64]domain.RatingStat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]domain.RatingStat, len(s.byMarket))
	for marketID, ids := range s.byMarket {
		sum := 0
		for id := range ids {
			sum += s.byID[id].Rating
		}
		out[marketID] = stat(len(ids), sum)
	}
	return out
}

func (s *Reviews) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Snapshot copies the whole collection, ordered by id.
func (s *Reviews) Snapshot() domain.ReviewsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := domain.ReviewsSnapshot{NextID: s.nextID, Reviews: make([]domain.Review, 0, len(s.byID))}
	for _, rv := range s.byID {
		out.Reviews = append(out.Reviews, rv)
	}
	slices.SortFunc(out.Reviews, func(a, b domain.Review) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Restore replaces the collection with snap. Entries with a repeated id or a
// rating outside 1..5 are dropped and counted. The id counter never moves
// backwards.
func (s *Reviews) Restore(snap domain.ReviewsSnapshot) (skipped int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID = make(map[int64]domain.Review, len(snap.Reviews))
	s.byMarket = map[int64]map[int64]struct{}{}
	next := max(s.nextID, snap.NextID)
	for _, rv := range snap.Reviews {
		if _, dup := s.byID[rv.ID]; dup || rv.Rating < domain.MinRating || rv.Rating > domain.MaxRating {
			skipped++
			continue
		}
		s.put(rv)
		if rv.ID >= next {
			next = rv.ID + 1
		}
	}
	s.nextID = next
	return skipped
}

func (s *Reviews) put(rv domain.Review) {
	s.byID[rv.ID] = rv
	ids, ok := s.byMarket[rv.MarketID]
	if !ok {
		ids = map[int64]struct{}{}
		s.byMarket[rv.MarketID] = ids
	}
	ids[rv.ID] = struct{}{}
}

func stat(count, sum int) domain.RatingStat {
	if count == 0 {
		return domain.RatingStat{}
	}
	avg := float64(sum) / float64(count)
	return domain.RatingStat{Count: count, Avg: &avg}
}

func sortByCreation(rs []domain.Review) {
	slices.SortFunc(rs, func(a, b domain.Review) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
