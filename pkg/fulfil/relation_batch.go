package fulfil

import (
	"context"
	"net/http"
	"time"

	"github.com/fivetwenty-io/fulfil-client/internal/constants"
	"github.com/hashicorp/go-retryablehttp"
)

// BatchOption configures InBatches and FindEach.
type BatchOption func(*batchOptions)

type batchOptions struct {
	size       int
	maxRetries int
	waitMin    time.Duration
	waitMax    time.Duration
}

// WithBatchSize sets the number of rows per window. Defaults to 500.
func WithBatchSize(size int) BatchOption {
	return func(o *batchOptions) {
		if size > 0 {
			o.size = size
		}
	}
}

// WithMaxRetries sets how often a rate limited window is retried. Defaults
// to 5.
func WithMaxRetries(retries int) BatchOption {
	return func(o *batchOptions) {
		if retries >= 0 {
			o.maxRetries = retries
		}
	}
}

// WithRetryWait waits between rate limited attempts using the backoff of
// go-retryablehttp, which honours Retry-After. Without it retries are
// immediate.
func WithRetryWait(minWait, maxWait time.Duration) BatchOption {
	return func(o *batchOptions) {
		o.waitMin = minWait
		o.waitMax = maxWait
	}
}

// InBatches walks the relation in windows of the batch size, starting at the
// relation's offset counted in windows. Each window is loaded and passed to
// fn. Iteration stops after the first short window or when fn returns an
// error.
//
// A rate limited (429) window is retried in place. Once the retries are spent
// a *RetryLimitExceededError is returned. Other errors are returned at once.
func (r *Relation) InBatches(ctx context.Context, fn func(*Relation) error, opts ...BatchOption) error {
	options := batchOptions{
		size:       constants.DefaultBatchSize,
		maxRetries: constants.DefaultBatchRetries,
	}

	for _, opt := range opts {
		opt(&options)
	}

	current := 0
	if offset, ok := r.OffsetValue(); ok {
		current = offset
	}

	retries := 0

	for {
		batch := r.Offset(current * options.size).Limit(options.size)

		err := batch.Load(ctx)
		if err != nil {
			if !IsRateLimited(err) {
				return err
			}

			if retries >= options.maxRetries {
				return &RetryLimitExceededError{Retries: retries, Offset: current * options.size, Last: err}
			}

			retries++

			r.logger().Warn("Rate limited, retrying batch", map[string]interface{}{
				"model":   r.modelName,
				"offset":  current * options.size,
				"attempt": retries,
			})

			err = options.wait(ctx, retries, err)
			if err != nil {
				return err
			}

			continue
		}

		retries = 0

		err = fn(batch)
		if err != nil {
			return err
		}

		if len(batch.resources) < options.size {
			return nil
		}

		current++
	}
}

// FindEach calls fn for every row, window by window.
func (r *Relation) FindEach(ctx context.Context, fn func(*Resource) error, opts ...BatchOption) error {
	return r.InBatches(ctx, func(batch *Relation) error {
		for _, resource := range batch.resources {
			err := fn(resource)
			if err != nil {
				return err
			}
		}

		return nil
	}, opts...)
}

func (o batchOptions) wait(ctx context.Context, attempt int, cause error) error {
	if o.waitMax <= 0 {
		return nil
	}

	resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{}}
	if transportErr, ok := AsTransportError(cause); ok && transportErr.Headers != nil {
		resp.Header = transportErr.Headers
	}

	delay := retryablehttp.DefaultBackoff(o.waitMin, o.waitMax, attempt, resp)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *Relation) logger() Logger {
	if r.client == nil {
		return NoopLogger()
	}

	return r.client.logger
}
