package observability_test

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"farmers_markets/internal/adapters/observability"
	"farmers_markets/internal/domain"
)

func TestMetricsHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record one sample so counters are non-zero
	observability.ObserveQuery("search", nil, 12*time.Millisecond)
	observability.ObserveReviewMutation("add", domain.ErrInvalidRating)

	h := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	if !strings.Contains(out, "markets_queries_total") {
		t.Fatalf("expected markets_queries_total in output")
	}
	if !strings.Contains(out, `markets_review_mutations_total{op="add",status="invalid_rating"}`) {
		t.Fatalf("expected labelled review mutation in output:\n%s", out)
	}
}

func TestLabelErr(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("market 3: %w", domain.ErrNotFound), "not_found"},
		{domain.ErrMissingCenter, "missing_center"},
		{errors.New("disk full"), "error"},
	}
	for _, c := range cases {
		if got := observability.LabelErr(c.err); got != c.want {
			t.Errorf("LabelErr(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}
