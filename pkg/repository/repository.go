// Package repository holds a small typed wrapper over gorm used by the
// simpler per-domain repositories.
package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/pamdes/pkg/db/option"
	"gorm.io/gorm"
)

// Store runs typed queries for model T against one connection or transaction.
type Store[T any] struct {
	db *gorm.DB
}

// For binds a Store to db, which may be a transaction handle.
func For[T any](db *gorm.DB) Store[T] {
	return Store[T]{db: db}
}

// Insert creates one row.
func (s Store[T]) Insert(ctx context.Context, row *T) error {
	return s.db.WithContext(ctx).Create(row).Error
}

// First returns the first match, or nil when there is none.
func (s Store[T]) First(ctx context.Context, match *T, opts ...option.QueryOption) (*T, error) {
	var row T
	if err := s.query(ctx, match, opts).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Find returns every match. The result is empty, not nil, when nothing matches.
func (s Store[T]) Find(ctx context.Context, match *T, opts ...option.QueryOption) ([]*T, error) {
	rows := make([]*T, 0)
	if err := s.query(ctx, match, opts).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s Store[T]) Count(ctx context.Context, match *T, opts ...option.QueryOption) (int64, error) {
	var n int64
	err := s.query(ctx, match, opts).Model(new(T)).Count(&n).Error
	return n, err
}

func (s Store[T]) Exists(ctx context.Context, match *T, opts ...option.QueryOption) (bool, error) {
	n, err := s.Count(ctx, match, opts...)
	return n > 0, err
}

// Patch writes fields onto the row with the given primary key and reports
// how many rows changed.
func (s Store[T]) Patch(ctx context.Context, id any, fields map[string]any) (int64, error) {
	res := s.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(fields)
	return res.RowsAffected, res.Error
}

func (s Store[T]) query(ctx context.Context, match *T, opts []option.QueryOption) *gorm.DB {
	q := s.db.WithContext(ctx).Model(new(T))
	if match != nil {
		q = q.Where(match)
	}
	for _, opt := range opts {
		q = opt.Apply(q)
	}
	return q
}
