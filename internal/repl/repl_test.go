package repl_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"farmers_markets/internal/app"
	"farmers_markets/internal/domain"
	"farmers_markets/internal/identity"
	"farmers_markets/internal/repl"
	"farmers_markets/internal/store"
)

type recorder struct {
	titles  []string
	pages   []domain.MarketsPage
	markets []domain.MarketView
	reviews []domain.ReviewsView
	infos   []string
	errs    []error
}

func (r *recorder) Markets(title string, p domain.MarketsPage) {
	r.titles = append(r.titles, title)
	r.pages = append(r.pages, p)
}
func (r *recorder) Market(v domain.MarketView)   { r.markets = append(r.markets, v) }
func (r *recorder) Reviews(v domain.ReviewsView) { r.reviews = append(r.reviews, v) }
func (r *recorder) Info(msg string)              { r.infos = append(r.infos, msg) }
func (r *recorder) Error(err error)              { r.errs = append(r.errs, err) }

func (r *recorder) lastErr() error {
	if len(r.errs) == 0 {
		return nil
	}
	return r.errs[len(r.errs)-1]
}

func newREPL(t *testing.T) (*repl.REPL, *recorder) {
	t.Helper()
	rs, _ := store.LoadRecords([]domain.RawRow{
		{ID: "1", Name: "Green Market", City: "Chicago", State: "IL", Zip: "60601", Lat: "41.88", Lon: "-87.63"},
		{ID: "2", Name: "Blue Market", City: "Chicago", State: "IL", Zip: "60602", Lat: "41.90", Lon: "-87.60"},
		{ID: "3", Name: "Evanston Farmers Market", City: "Evanston", State: "IL", Zip: "60201", Lat: "42.05", Lon: "-87.68"},
	})
	rv := store.NewReviews(nil)
	sess := &identity.Session{}
	rec := &recorder{}
	r := repl.New(repl.Deps{
		Queries: app.NewQueryService(rs, rv, nil, time.Minute, 10, 100),
		Reviews: app.NewReviewService(rs, rv, nil, nil, sess),
		Users:   identity.NewDirectory(nil, nil).WithParams(identity.Params{Memory: 64, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32}),
		Session: sess,
		Out:     rec,
	})
	return r, rec
}

func TestParseLine(t *testing.T) {
	cmd, args, err := repl.ParseLine(`  Review_Add Market=12 rating=5 text="Very good market" stray  `)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd != "review_add" {
		t.Fatalf("cmd = %q", cmd)
	}
	want := repl.Args{"market": "12", "rating": "5", "text": "Very good market"}
	if diff := cmp.Diff(want, args); diff != "" {
		t.Fatalf("args (-want +got):\n%s", diff)
	}

	if cmd, _, err := repl.ParseLine("   "); err != nil || cmd != "" {
		t.Fatalf("empty line: %q %v", cmd, err)
	}
	if _, _, err := repl.ParseLine(`search name="unterminated`); !errors.Is(err, repl.ErrMalformedInput) {
		t.Fatalf("want ErrMalformedInput, got %v", err)
	}
}

func TestArgsCriteria(t *testing.T) {
	_, args, _ := repl.ParseLine(`search city=Chicago name="" page=2 size=5 sort=distance order=desc center=41.88,-87.63 radius=10`)
	c, err := args.Criteria()
	if err != nil {
		t.Fatalf("criteria: %v", err)
	}
	if c.City == nil || *c.City != "Chicago" || c.Name != nil || c.State != nil {
		t.Fatalf("unexpected text filters: %+v", c)
	}
	if *c.Page != 2 || *c.Size != 5 || c.Sort != app.SortDistance || c.Order != app.Desc {
		t.Fatalf("unexpected paging/sort: %+v", c)
	}
	if *c.Center != (domain.Coords{Lat: 41.88, Lon: -87.63}) || *c.RadiusKm != 10 {
		t.Fatalf("unexpected geo: %+v %+v", c.Center, c.RadiusKm)
	}

	cases := map[string]error{
		"page=abc":    domain.ErrInvalidPage,
		"size=1.5":    domain.ErrInvalidSize,
		"center=x":    domain.ErrInvalidCoordinate,
		"center=91,0": domain.ErrInvalidCoordinate,
		"radius=far":  domain.ErrInvalidRadius,
	}
	for in, want := range cases {
		_, args, _ := repl.ParseLine("search " + in)
		if _, err := args.Criteria(); !errors.Is(err, want) {
			t.Errorf("%s: got %v, want %v", in, err, want)
		}
	}
}

func TestExec_Queries(t *testing.T) {
	r, rec := newREPL(t)
	ctx := context.Background()

	r.Exec(ctx, "search city=chicago")
	if len(rec.pages) != 1 || rec.pages[0].Total != 2 {
		t.Fatalf("search pages: %+v", rec.pages)
	}
	r.Exec(ctx, "list sort=distance center=42.05,-87.68 size=1")
	if len(rec.pages) != 2 || rec.pages[1].Total != 3 || rec.pages[1].Items[0].ID != 3 {
		t.Fatalf("list pages: %+v", rec.pages)
	}
	if rec.titles[0] == rec.titles[1] {
		t.Fatalf("list and search share a title: %q", rec.titles)
	}

	for line, want := range map[string]error{
		"search page=abc":    domain.ErrInvalidPage,
		"search page=0":      domain.ErrInvalidPage,
		"list sort=rank":     domain.ErrInvalidSortKey,
		"list sort=distance": domain.ErrMissingCenter,
		"search radius=-1":   domain.ErrInvalidRadius,
		"show id=99":         domain.ErrNotFound,
		"reviews market=99":  domain.ErrNotFound,
	} {
		r.Exec(ctx, line)
		if err := rec.lastErr(); !errors.Is(err, want) {
			t.Errorf("%s: got %v, want %v", line, err, want)
		}
	}

	r.Exec(ctx, "show id=1")
	if len(rec.markets) != 1 || rec.markets[0].Market.Name != "Green Market" {
		t.Fatalf("show: %+v", rec.markets)
	}

	before := len(rec.errs)
	r.Exec(ctx, "show")
	r.Exec(ctx, "show id=abc")
	if len(rec.errs) != before+2 {
		t.Fatalf("usage errors not reported")
	}
}

func TestExec_ReviewFlow(t *testing.T) {
	r, rec := newREPL(t)
	ctx := context.Background()

	r.Exec(ctx, "review_add market=1 rating=5")
	if !errors.Is(rec.lastErr(), domain.ErrUnauthenticated) {
		t.Fatalf("want ErrUnauthenticated, got %v", rec.lastErr())
	}

	r.Exec(ctx, "register email=ivan@example.com login=ivan password=Qwerty12345")
	if len(rec.errs) != 1 {
		t.Fatalf("register failed: %v", rec.lastErr())
	}
	r.Exec(ctx, `review_add market=1 rating=4 text="  fresh bread  "`)
	r.Exec(ctx, "review_add market=1 rating=six")
	if !errors.Is(rec.lastErr(), domain.ErrInvalidRating) {
		t.Fatalf("want ErrInvalidRating, got %v", rec.lastErr())
	}
	r.Exec(ctx, "review_add market=99 rating=4")
	if !errors.Is(rec.lastErr(), domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", rec.lastErr())
	}

	r.Exec(ctx, "reviews market=1")
	if len(rec.reviews) != 1 || len(rec.reviews[0].Reviews) != 1 {
		t.Fatalf("reviews: %+v", rec.reviews)
	}
	got := rec.reviews[0].Reviews[0]
	if got.AuthorLogin != "ivan" || got.Rating != 4 || got.Text != "fresh bread" {
		t.Fatalf("unexpected review %+v", got)
	}

	r.Exec(ctx, "logout")
	r.Exec(ctx, "register email=petr@example.com login=petr password=Qwerty12345")
	errs := len(rec.errs)
	r.Exec(ctx, "review_delete id=0")
	if !errors.Is(rec.lastErr(), domain.ErrForbidden) || len(rec.errs) != errs+1 {
		t.Fatalf("want ErrForbidden, got %v", rec.lastErr())
	}

	r.Exec(ctx, "login login=ivan password=Qwerty12345")
	errs = len(rec.errs)
	r.Exec(ctx, "review_delete id=0")
	if len(rec.errs) != errs {
		t.Fatalf("owner delete failed: %v", rec.lastErr())
	}
	r.Exec(ctx, "review_delete id=0")
	if !errors.Is(rec.lastErr(), domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", rec.lastErr())
	}

	r.Exec(ctx, "logout")
	r.Exec(ctx, "logout")
	if last := rec.infos[len(rec.infos)-1]; !strings.Contains(last, "not logged in") {
		t.Fatalf("second logout said %q", last)
	}
	r.Exec(ctx, "login login=ivan password=nope")
	if !errors.Is(rec.lastErr(), identity.ErrBadCredentials) {
		t.Fatalf("want ErrBadCredentials, got %v", rec.lastErr())
	}
}

func TestExec_Control(t *testing.T) {
	r, rec := newREPL(t)
	ctx := context.Background()

	if r.Exec(ctx, "") || r.Exec(ctx, "help") || r.Exec(ctx, "frobnicate") {
		t.Fatal("non-exit command stopped the loop")
	}
	if !strings.Contains(rec.infos[0], "review_add") || !strings.Contains(rec.infos[1], "Unknown command") {
		t.Fatalf("infos: %q", rec.infos)
	}
	for _, q := range []string{"exit", "QUIT", "q"} {
		if !r.Exec(ctx, q) {
			t.Fatalf("%s did not stop the loop", q)
		}
	}
}

func TestRun(t *testing.T) {
	r, rec := newREPL(t)
	err := r.Run(context.Background(), strings.NewReader("show id=2\nexit\nshow id=1\n"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rec.markets) != 1 || rec.markets[0].Market.ID != 2 {
		t.Fatalf("commands after exit ran: %+v", rec.markets)
	}

	r, _ = newREPL(t)
	if err := r.Run(context.Background(), strings.NewReader("help\n")); err != nil {
		t.Fatalf("run to EOF: %v", err)
	}
}
