package repl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"farmers_markets/internal/app"
	"farmers_markets/internal/domain"
)

var ErrMalformedInput = errors.New("malformed input, check the quotes")

// usageError is a command invoked without a required argument.
type usageError string

func (e usageError) Error() string { return string(e) }

// Args are the key=value pairs of one command line. Keys are lower-cased.
type Args map[string]string

// ParseLine splits a line into a lower-cased command and its arguments.
// Tokens without '=' are ignored. An empty line yields an empty command.
func ParseLine(line string) (string, Args, error) {
	parts, err := shlex.Split(strings.TrimSpace(line))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if len(parts) == 0 {
		return "", nil, nil
	}
	args := Args{}
	for _, t := range parts[1:] {
		k, v, ok := strings.Cut(t, "=")
		if !ok {
			continue
		}
		args[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return strings.ToLower(parts[0]), args, nil
}

// text returns a non-empty value or nil.
func (a Args) text(key string) *string {
	v, ok := a[key]
	if !ok || v == "" {
		return nil
	}
	return &v
}

func (a Args) id(key, cmd string) (int64, error) {
	v, ok := a[key]
	if !ok || v == "" {
		return 0, usageError(fmt.Sprintf("%s requires %s=...", cmd, key))
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, usageError(key + " must be an integer")
	}
	return n, nil
}

func (a Args) positive(key string, kind error) (*int, error) {
	v, ok := a[key]
	if !ok || v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("%s=%q: %w", key, v, kind)
	}
	return &n, nil
}

// Criteria turns list/search arguments into app.Criteria. Range and
// combination checks are left to the query service.
func (a Args) Criteria() (app.Criteria, error) {
	c := app.Criteria{
		City:  a.text("city"),
		State: a.text("state"),
		Zip:   a.text("zip"),
		Name:  a.text("name"),
		Sort:  app.SortKey(a["sort"]),
		Order: app.Order(a["order"]),
	}

	var err error
	if c.Page, err = a.positive("page", domain.ErrInvalidPage); err != nil {
		return app.Criteria{}, err
	}
	if c.Size, err = a.positive("size", domain.ErrInvalidSize); err != nil {
		return app.Criteria{}, err
	}
	if v := a.text("center"); v != nil {
		center, err := app.ParseCenter(*v)
		if err != nil {
			return app.Criteria{}, err
		}
		c.Center = &center
	}
	if v := a.text("radius"); v != nil {
		r, err := strconv.ParseFloat(*v, 64)
		if err != nil {
			return app.Criteria{}, fmt.Errorf("radius=%q: %w", *v, domain.ErrInvalidRadius)
		}
		c.RadiusKm = &r
	}
	return c, nil
}
