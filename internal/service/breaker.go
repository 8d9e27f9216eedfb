package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// platformBreakers keeps one circuit breaker per platform so a provider
// outage fails fast without touching the others.
type platformBreakers struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func newPlatformBreakers() *platformBreakers {
	return &platformBreakers{breakers: make(map[string]*gobreaker.CircuitBreaker)}
}

func (b *platformBreakers) get(platform string) *gobreaker.CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cb, ok := b.breakers[platform]; ok {
		return cb
	}

	st := gobreaker.Settings{Name: platform}
	st.Interval = 10 * time.Minute
	st.Timeout = 5 * time.Minute
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 3
	}
	// A publish cut off by our own deadline says nothing about the provider.
	st.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		slog.Warn("publish breaker state changed", "platform", name, "from", from.String(), "to", to.String())
	}

	cb := gobreaker.NewCircuitBreaker(st)
	b.breakers[platform] = cb
	return cb
}

func (b *platformBreakers) execute(platform string, fn func() (*PublishResult, error)) (*PublishResult, error) {
	out, err := b.get(platform).Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	res, _ := out.(*PublishResult)
	return res, nil
}
