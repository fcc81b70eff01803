package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/Anaqqa/supfile/logger"
	"github.com/Anaqqa/supfile/metrics"

	"github.com/sony/gobreaker"
)

type BreakerOptions struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// BreakerBackend short-circuits calls to a failing remote backend. Missing
// objects and oversized uploads do not count as failures.
type BreakerBackend struct {
	next Backend
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerBackend(next Backend, opts BreakerOptions) *BreakerBackend {
	threshold := opts.FailureThreshold
	return &BreakerBackend{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        opts.Name,
			MaxRequests: opts.MaxRequests,
			Interval:    opts.Interval,
			Timeout:     opts.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrObjectNotFound) || errors.Is(err, ErrTooLarge) ||
					errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				metrics.SetBreakerState(name, float64(to))
				logger.WithFields(logger.Fields{
					"circuit_breaker": name,
					"from_state":      from.String(),
					"to_state":        to.String(),
				}).Warn("Circuit breaker state changed")
			},
		}),
	}
}

func (b *BreakerBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Put(ctx, key, r, size, contentType)
	})
	return err
}

func (b *BreakerBackend) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Open(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return out.(io.ReadCloser), nil
}

func (b *BreakerBackend) Delete(ctx context.Context, key string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Delete(ctx, key)
	})
	return err
}

func (b *BreakerBackend) State() gobreaker.State {
	return b.cb.State()
}
