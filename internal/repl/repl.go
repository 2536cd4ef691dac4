// Package repl is the interactive command loop.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog/log"

	"farmers_markets/internal/app"
	"farmers_markets/internal/domain"
	"farmers_markets/internal/identity"
)

const helpText = `Farmers Markets CLI

Input format:
  command key=value key=value
  Quote values that contain spaces:
  review_add market=123 rating=5 text="Very good market"

Commands:
  help
  exit | quit | q

Accounts:
  register email=... login=... password=... [first=...] [last=...]
      Create an account and log in.
  login login=... password=...
  logout

Markets:
  list [page=N] [size=N] [sort=name|city|state|rating|distance]
       [order=asc|desc] [center=lat,lon]
      List all markets.

  search [city=...] [state=...] [zip=...] [name=...]
         [radius=KM] [center=lat,lon]
         [page=N] [size=N]
         [sort=name|city|state|rating|distance] [order=asc|desc]
      Find markets by filters.

  show id=12345
      Market details.

Reviews:
  reviews market=12345
  review_add market=12345 rating=1..5 [text="..."]     (login required)
  review_delete id=...                                 (own reviews only)

Examples:
  register email=user@example.com login=ivan password=Qwerty12345
  list sort=distance order=asc center=41.88,-87.63
  search city=Chicago
  search name=farm center=41.88,-87.63 radius=10 sort=distance
  review_add market=1009994 rating=5 text="Great market"

Notes:
  - sort=distance requires center=lat,lon
  - radius only applies together with center=lat,lon
  - name matches a substring; city, state and zip match exactly
  - matching ignores case and repeated spaces`

type Deps struct {
	Queries *app.QueryService
	Reviews *app.ReviewService
	Users   *identity.Directory
	Session *identity.Session
	Out     domain.Presenter
	Prompt  io.Writer // nil disables the prompt
}

type handler func(ctx context.Context, a Args) error

type REPL struct {
	Deps
	commands map[string]handler
}

func New(d Deps) *REPL {
	if d.Prompt == nil {
		d.Prompt = io.Discard
	}
	r := &REPL{Deps: d}
	r.commands = map[string]handler{
		"help":          r.help,
		"register":      r.register,
		"login":         r.login,
		"logout":        r.logout,
		"list":          r.list,
		"search":        r.search,
		"show":          r.show,
		"reviews":       r.reviews,
		"review_add":    r.reviewAdd,
		"review_delete": r.reviewDelete,
	}
	return r
}

// Run reads commands until exit, end of input or ctx is done.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	r.Out.Info("Farmers Markets CLI\nType a command: help  (quit: exit)")
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.Prompt, "\n> ")
		if !sc.Scan() {
			r.Out.Info("Bye.")
			return sc.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.Exec(ctx, sc.Text()) {
			return nil
		}
	}
}

// Exec runs one line and reports whether the loop should stop.
func (r *REPL) Exec(ctx context.Context, line string) (quit bool) {
	cmd, args, err := ParseLine(line)
	if err != nil {
		r.Out.Error(err)
		return false
	}
	switch cmd {
	case "":
		return false
	case "exit", "quit", "q":
		r.Out.Info("Bye.")
		return true
	}

	h, ok := r.commands[cmd]
	if !ok {
		r.Out.Info("Unknown command. Type: help")
		return false
	}
	log.Debug().Str("cmd", cmd).Int("args", len(args)).Msg("command")
	if err := h(ctx, args); err != nil {
		log.Debug().Err(err).Str("cmd", cmd).Msg("command failed")
		r.Out.Error(err)
	}
	return false
}

func (r *REPL) help(ctx context.Context, a Args) error {
	r.Out.Info(helpText)
	return nil
}

func (r *REPL) register(ctx context.Context, a Args) error {
	u, err := r.Users.Register(ctx, identity.RegisterInput{
		Email:    a["email"],
		Login:    a["login"],
		Password: a["password"],
		First:    a["first"],
		Last:     a["last"],
	})
	if err != nil {
		return err
	}
	r.Session.Login(u)
	r.Out.Info("Registered. You are logged in.")
	return nil
}

func (r *REPL) login(ctx context.Context, a Args) error {
	u, err := r.Users.Login(a["login"], a["password"])
	if err != nil {
		return err
	}
	r.Session.Login(u)
	r.Out.Info("Logged in as " + u.Login + ".")
	return nil
}

func (r *REPL) logout(ctx context.Context, a Args) error {
	if !r.Session.Logout() {
		r.Out.Info("You are not logged in.")
		return nil
	}
	r.Out.Info("Logged out.")
	return nil
}

func (r *REPL) list(ctx context.Context, a Args) error {
	c, err := a.Criteria()
	if err != nil {
		return err
	}
	page, err := r.Queries.List(ctx, c)
	if err != nil {
		return err
	}
	r.Out.Markets("Markets total", page)
	return nil
}

func (r *REPL) search(ctx context.Context, a Args) error {
	c, err := a.Criteria()
	if err != nil {
		return err
	}
	page, err := r.Queries.Search(ctx, c)
	if err != nil {
		return err
	}
	r.Out.Markets("Markets found", page)
	return nil
}

func (r *REPL) show(ctx context.Context, a Args) error {
	id, err := a.id("id", "show")
	if err != nil {
		return err
	}
	v, err := r.Queries.Show(ctx, id)
	if err != nil {
		return err
	}
	r.Out.Market(v)
	return nil
}

func (r *REPL) reviews(ctx context.Context, a Args) error {
	id, err := a.id("market", "reviews")
	if err != nil {
		return err
	}
	if err := r.Queries.Exists(id); err != nil {
		return err
	}
	v, err := r.Queries.Reviews(ctx, id)
	if err != nil {
		return err
	}
	for i, rv := range v.Reviews {
		if rv.AuthorLogin != "" {
			continue
		}
		if u, ok := r.Users.ByID(rv.AuthorID); ok {
			v.Reviews[i].AuthorLogin = u.Login
		}
	}
	r.Out.Reviews(v)
	return nil
}

func (r *REPL) reviewAdd(ctx context.Context, a Args) error {
	if _, ok := r.Session.Current(); !ok {
		return domain.ErrUnauthenticated
	}
	market, err := a.id("market", "review_add")
	if err != nil {
		return err
	}
	raw, ok := a["rating"]
	if !ok || raw == "" {
		return usageError("review_add requires market=... rating=1..5")
	}
	rating, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("rating=%q: %w", raw, domain.ErrInvalidRating)
	}
	rv, err := r.Reviews.Add(ctx, market, rating, a["text"])
	if err != nil {
		return err
	}
	r.Out.Info(fmt.Sprintf("Review %d added.", rv.ID))
	return nil
}

func (r *REPL) reviewDelete(ctx context.Context, a Args) error {
	if _, ok := r.Session.Current(); !ok {
		return domain.ErrUnauthenticated
	}
	id, err := a.id("id", "review_delete")
	if err != nil {
		return err
	}
	if err := r.Reviews.Delete(ctx, id); err != nil {
		return err
	}
	r.Out.Info("Review deleted.")
	return nil
}
