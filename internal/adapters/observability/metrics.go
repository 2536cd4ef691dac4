package observability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"farmers_markets/internal/domain"
)

var (
	Queries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "markets", Name: "queries_total", Help: "Catalog queries."},
		[]string{"op", "status"},
	)
	QueryLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "markets", Name: "query_duration_seconds",
			Help:    "Catalog query duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	ReviewMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "markets", Name: "review_mutations_total", Help: "Review adds/deletes."},
		[]string{"op", "status"},
	)
	LoadRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "markets", Name: "load_rows_total", Help: "Catalog rows read at startup."},
		[]string{"status"}, // "loaded" or a skip reason
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "markets", Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "markets", Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "markets", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
)

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(Queries, QueryLatency, ReviewMutations, LoadRows, ExternalRequests, ExternalLatency, CacheEvents)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveQuery(op string, err error, dur time.Duration) {
	Queries.WithLabelValues(op, LabelErr(err)).Inc()
	QueryLatency.WithLabelValues(op).Observe(dur.Seconds())
}

func ObserveReviewMutation(op string, err error) {
	ReviewMutations.WithLabelValues(op, LabelErr(err)).Inc()
}

func ObserveLoad(status string, n int) {
	LoadRows.WithLabelValues(status).Add(float64(n))
}

func ObserveExternal(service string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

var errLabels = []struct {
	err   error
	label string
}{
	{domain.ErrNotFound, "not_found"},
	{domain.ErrForbidden, "forbidden"},
	{domain.ErrUnauthenticated, "unauthenticated"},
	{domain.ErrInvalidRating, "invalid_rating"},
	{domain.ErrMissingCenter, "missing_center"},
	{domain.ErrInvalidSortKey, "invalid_sort_key"},
	{domain.ErrInvalidPage, "invalid_page"},
	{domain.ErrInvalidSize, "invalid_size"},
	{domain.ErrInvalidCoordinate, "invalid_coordinate"},
	{domain.ErrInvalidRadius, "invalid_radius"},
}

// LabelErr maps an error onto a low-cardinality status label.
func LabelErr(err error) string {
	if err == nil {
		return "ok"
	}
	for _, e := range errLabels {
		if errors.Is(err, e.err) {
			return e.label
		}
	}
	return "error"
}
