package storage

import (
	"context"
	"errors"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUserExists     = errors.New("user already exists")
	ErrBookNotFound   = errors.New("book not found")
	ErrReviewNotFound = errors.New("review not found")
	ErrTagNotFound    = errors.New("tag not found")
)

// TxManager runs fn inside a single unit of work. Repository calls made with
// the ctx passed to fn join the transaction; it commits when fn returns nil
// and rolls back otherwise.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
