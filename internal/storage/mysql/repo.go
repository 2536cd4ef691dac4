// Package mysql mirrors the review collection into MySQL.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"farmers_markets/internal/domain"
)

// MySQL limits a statement to 65535 placeholders; 7 per row.
const insertBatch = 1000

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// EnsureSchema creates the mirror tables when they do not exist yet.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createReviewsSQL, createMetaSQL} {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// ReplaceAll swaps the stored collection for s in one transaction.
func (r *Repo) ReplaceAll(ctx context.Context, s domain.ReviewsSnapshot) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, deleteReviewsSQL); err != nil {
		return err
	}
	for start := 0; start < len(s.Reviews); start += insertBatch {
		if err = insertReviews(ctx, tx, s.Reviews[start:min(start+insertBatch, len(s.Reviews))]); err != nil {
			return err
		}
	}
	if _, err = tx.ExecContext(ctx, upsertMetaSQL, s.NextID); err != nil {
		return err
	}
	return tx.Commit()
}

func insertReviews(ctx context.Context, tx *sql.Tx, rs []domain.Review) error {
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*7)
	for _, rv := range rs {
		values = append(values, "(?,?,?,?,?,?,?)")
		args = append(args,
			rv.ID,
			rv.MarketID,
			rv.AuthorID,
			valStr(rv.AuthorLogin),
			rv.Rating,
			rv.Text,
			rv.CreatedAt.UTC(),
		)
	}
	_, err := tx.ExecContext(ctx, insertReviewsPrefix+strings.Join(values, ","), args...)
	return err
}

// Snapshot reads the mirror back, ordered by id.
func (r *Repo) Snapshot(ctx context.Context) (domain.ReviewsSnapshot, error) {
	var out domain.ReviewsSnapshot
	if err := r.db.QueryRowContext(ctx, selectMetaSQL).Scan(&out.NextID); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return domain.ReviewsSnapshot{}, err
	}

	rows, err := r.db.QueryContext(ctx, selectReviewsSQL)
	if err != nil {
		return domain.ReviewsSnapshot{}, err
	}
	defer rows.Close()

	out.Reviews = []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		var login sql.NullString
		if err := rows.Scan(&rv.ID, &rv.MarketID, &rv.AuthorID, &login, &rv.Rating, &rv.Text, &rv.CreatedAt); err != nil {
			return domain.ReviewsSnapshot{}, err
		}
		if login.Valid {
			rv.AuthorLogin = login.String
		}
		rv.CreatedAt = rv.CreatedAt.UTC()
		out.Reviews = append(out.Reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return domain.ReviewsSnapshot{}, err
	}
	return out, nil
}
