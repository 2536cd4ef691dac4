package domain

import "context"

// ReviewSink receives the whole review collection after every mutation.
type ReviewSink interface {
	ReplaceAll(ctx context.Context, s ReviewsSnapshot) error
}

// MultiSink fans a snapshot out to every sink, stopping at the first error.
type MultiSink []ReviewSink

func (m MultiSink) ReplaceAll(ctx context.Context, s ReviewsSnapshot) error {
	for _, sink := range m {
		if err := sink.ReplaceAll(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Principal is an authenticated caller.
type Principal struct {
	ID    int64
	Login string
}

// Identity supplies the caller of the current command, if any.
type Identity interface {
	Current() (Principal, bool)
}

// Presenter is the sink for query results and command outcomes.
type Presenter interface {
	Markets(title string, p MarketsPage)
	Market(v MarketView)
	Reviews(v ReviewsView)
	Info(msg string)
	Error(err error)
}
