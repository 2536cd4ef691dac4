// Package jsonfile persists collections as whole JSON documents. Every save
// replaces the file atomically.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"farmers_markets/internal/domain"
)

// Reviews is the review sink and loader backed by one file.
type Reviews struct{ path string }

func NewReviews(path string) *Reviews { return &Reviews{path: path} }

// Load reads the file, creating an empty one when missing. Both the
// {"next_id":..,"reviews":[..]} envelope and a bare array are accepted.
func (r *Reviews) Load(ctx context.Context) (domain.ReviewsSnapshot, error) {
	data, err := readOrInit(r.path, domain.ReviewsSnapshot{Reviews: []domain.Review{}})
	if err != nil {
		return domain.ReviewsSnapshot{}, err
	}
	data = bytes.TrimSpace(data)

	var snap domain.ReviewsSnapshot
	switch {
	case len(data) == 0:
	case data[0] == '[':
		if err := json.Unmarshal(data, &snap.Reviews); err != nil {
			return domain.ReviewsSnapshot{}, fmt.Errorf("%s: %w", r.path, err)
		}
	case data[0] == '{':
		if err := json.Unmarshal(data, &snap); err != nil {
			return domain.ReviewsSnapshot{}, fmt.Errorf("%s: %w", r.path, err)
		}
	default:
		return domain.ReviewsSnapshot{}, fmt.Errorf("%s: expected a JSON array or object of reviews", r.path)
	}
	if snap.Reviews == nil {
		snap.Reviews = []domain.Review{}
	}
	return snap, nil
}

func (r *Reviews) ReplaceAll(ctx context.Context, s domain.ReviewsSnapshot) error {
	if s.Reviews == nil {
		s.Reviews = []domain.Review{}
	}
	return writeAtomic(r.path, s)
}

// Array stores a JSON array of T.
type Array[T any] struct{ path string }

func NewArray[T any](path string) *Array[T] { return &Array[T]{path: path} }

// Load reads the array, creating an empty file when missing.
func (a *Array[T]) Load(ctx context.Context) ([]T, error) {
	data, err := readOrInit(a.path, []T{})
	if err != nil {
		return nil, err
	}
	out := []T{}
	if len(bytes.TrimSpace(data)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%s: expected a JSON array: %w", a.path, err)
	}
	return out, nil
}

func (a *Array[T]) Save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	return writeAtomic(a.path, items)
}

func readOrInit(path string, empty any) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := writeAtomic(path, empty); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return data, err
}

func writeAtomic(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
