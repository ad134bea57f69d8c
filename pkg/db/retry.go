package db

import (
	"context"
	"math/rand"
	"time"

	"gorm.io/gorm"
)

const (
	defaultRetryAttempts = 3
	retryBaseDelay       = 20 * time.Millisecond
)

// TxRunner executes a callback inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RetryTx runs fn in a fresh transaction, replaying it when Postgres aborts
// the transaction with a serialization failure or deadlock. Any other error is
// returned as-is after the first attempt.
func RetryTx(ctx context.Context, runner TxRunner, attempts int, fn func(tx *gorm.DB) error) error {
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = runner.WithTx(ctx, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}
		delay := retryBaseDelay<<attempt + time.Duration(rand.Int63n(int64(retryBaseDelay)))
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
