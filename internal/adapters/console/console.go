// Package console renders query results for a terminal.
package console

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"farmers_markets/internal/domain"
	"farmers_markets/internal/identity"
)

type column struct {
	title string
	width int
}

var columns = []column{
	{"ID", 8},
	{"NAME", 50},
	{"CITY", 20},
	{"STATE", 16},
	{"ZIP", 8},
	{"RATING", 10},
	{"DIST", 10},
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Console implements domain.Presenter on a writer.
type Console struct{ w io.Writer }

func New(w io.Writer) *Console { return &Console{w: w} }

// Truncate cuts s to width runes, ending in an ellipsis when shortened.
func Truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	if width <= 1 {
		return string([]rune(s)[:max(width, 0)])
	}
	return string([]rune(s)[:width-1]) + "…"
}

func FormatRating(r domain.RatingStat) string {
	if r.Avg == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f (%d)", *r.Avg, r.Count)
}

func FormatDistance(d *float64) string {
	if d == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f km", *d)
}

func (c *Console) Markets(title string, p domain.MarketsPage) {
	fmt.Fprintf(c.w, "%s: %d. Page %d, size %d.\n", title, p.Total, p.Page, p.Size)
	if len(p.Items) == 0 {
		fmt.Fprintln(c.w, "Nothing found.")
		return
	}

	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.title
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, it := range p.Items {
		cells := []string{
			strconv.FormatInt(it.ID, 10),
			it.Name,
			it.City,
			it.State,
			it.Zip,
			FormatRating(it.Rating),
			FormatDistance(it.Distance),
		}
		for i := range cells {
			cells[i] = Truncate(cells[i], columns[i].width)
		}
		t.Row(cells...)
	}
	fmt.Fprintln(c.w, t.String())
}

func (c *Console) Market(v domain.MarketView) {
	m := v.Market
	fmt.Fprintf(c.w, "ID: %d\nName: %s\nCity: %s\nState: %s\nZIP: %s\n", m.ID, m.Name, m.City, m.State, m.Zip)
	if m.HasCoords() {
		fmt.Fprintf(c.w, "Coordinates: %g, %g\n", *m.Lat, *m.Lon)
	} else {
		fmt.Fprintln(c.w, "Coordinates: unknown")
	}
	if v.Rating.Avg == nil {
		fmt.Fprintln(c.w, "Rating: no reviews")
	} else {
		fmt.Fprintf(c.w, "Rating: %.2f (%d reviews)\n", *v.Rating.Avg, v.Rating.Count)
	}
}

func (c *Console) Reviews(v domain.ReviewsView) {
	name := v.Market.Name
	if name == "" {
		name = "unknown market"
	}
	fmt.Fprintf(c.w, "Reviews for %s (ID: %d)\n", name, v.Market.ID)
	if len(v.Reviews) == 0 {
		fmt.Fprintln(c.w, "No reviews yet.")
		return
	}
	fmt.Fprintf(c.w, "Average rating: %s\n", FormatRating(v.Rating))
	for _, r := range v.Reviews {
		author := r.AuthorLogin
		if author == "" {
			author = "user_id=" + strconv.FormatInt(r.AuthorID, 10)
		}
		fmt.Fprintf(c.w, "\n[%d] rating=%d | author=%s | created_at=%s\n",
			r.ID, r.Rating, author, r.CreatedAt.UTC().Format(time.RFC3339))
		if text := strings.TrimSpace(r.Text); text != "" {
			fmt.Fprintf(c.w, "  %s\n", text)
		}
	}
}

func (c *Console) Info(msg string) { fmt.Fprintln(c.w, msg) }

func (c *Console) Error(err error) {
	var ve *identity.ValidationError
	if errors.As(err, &ve) {
		for _, p := range ve.Problems {
			fmt.Fprintf(c.w, "Error: %s.\n", p)
		}
		return
	}
	fmt.Fprintf(c.w, "Error: %s.\n", Message(err))
}

// Message turns an error into a user-facing sentence.
func Message(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not found"
	case errors.Is(err, domain.ErrForbidden):
		return "you can delete only your own reviews"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "please log in first"
	case errors.Is(err, domain.ErrInvalidRating):
		return "rating must be an integer from 1 to 5"
	case errors.Is(err, domain.ErrMissingCenter):
		return "sort=distance requires center=lat,lon"
	case errors.Is(err, domain.ErrInvalidSortKey):
		return "sort must be one of name|city|state|rating|distance and order asc|desc"
	case errors.Is(err, domain.ErrInvalidPage):
		return "page must be a positive integer"
	case errors.Is(err, domain.ErrInvalidSize):
		return "size must be a positive integer"
	case errors.Is(err, domain.ErrInvalidCoordinate):
		return "center must be lat,lon with lat in [-90,90] and lon in [-180,180]"
	case errors.Is(err, domain.ErrInvalidRadius):
		return "radius must be a non-negative number"
	case errors.Is(err, identity.ErrBadCredentials):
		return "wrong login or password"
	case errors.Is(err, identity.ErrLoginTaken):
		return "this login is already taken"
	case errors.Is(err, identity.ErrEmailTaken):
		return "this email is already registered"
	}
	return err.Error()
}
