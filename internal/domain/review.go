package domain

import "time"

type Review struct {
	ID          int64     `json:"id"`
	MarketID    int64     `json:"market_id"`
	AuthorID    int64     `json:"user_id"`
	AuthorLogin string    `json:"login,omitempty"`
	Rating      int       `json:"rating"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReviewsSnapshot is the full state handed to a ReviewSink.
// NextID is the id high-water mark so ids survive restarts without reuse.
type ReviewsSnapshot struct {
	NextID  int64    `json:"next_id"`
	Reviews []Review `json:"reviews"`
}

const (
	MinRating = 1
	MaxRating = 5
)
