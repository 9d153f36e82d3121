package service

import (
	"context"
	"errors"
	"time"

	"storefront/internal/repository"

	"github.com/cenkalti/backoff/v4"
)

// maxReadRetries bounds retries of idempotent catalog reads.
const maxReadRetries = 2

type backOffFactory func() backoff.BackOff

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	return b
}

// retryRead runs op with bounded exponential backoff. Not-found results are final.
func retryRead[T any](ctx context.Context, newBackOff backOffFactory, op func() (T, error)) (T, error) {
	policy := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), maxReadRetries), ctx)

	return backoff.RetryWithData(func() (T, error) {
		v, err := op()
		if errors.Is(err, repository.ErrProductNotFound) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, policy)
}
