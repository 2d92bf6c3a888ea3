// Package ratelimit paces calls to external APIs and backs off after failures.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/polyedge/internal/core"
	"golang.org/x/time/rate"
)

// APIStatus is the externally visible state of one API.
type APIStatus struct {
	API          string     `json:"api"`
	Available    bool       `json:"available"`
	Failures     int        `json:"failures"`
	BlockedUntil *time.Time `json:"blocked_until,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}

type apiState struct {
	failures     int
	blockedUntil time.Time
	lastError    string
	pacer        *rate.Limiter
}

// Limiter tracks per-API pacing and exponential backoff.
type Limiter struct {
	mu         sync.Mutex
	apis       map[string]*apiState
	baseDelay  time.Duration
	maxBackoff time.Duration
	now        func() time.Time
}

// New creates a limiter. After n consecutive failures an API is blocked for
// baseDelay * 2^(n-1), capped at maxBackoff.
func New(baseDelay, maxBackoff time.Duration) *Limiter {
	return &Limiter{
		apis:       make(map[string]*apiState),
		baseDelay:  baseDelay,
		maxBackoff: maxBackoff,
		now:        time.Now,
	}
}

// SetRate configures steady-state pacing for api. rps <= 0 disables pacing.
func (l *Limiter) SetRate(api string, rps float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.state(api)
	if rps <= 0 {
		st.pacer = nil
		return
	}
	if burst < 1 {
		burst = 1
	}
	st.pacer = rate.NewLimiter(rate.Limit(rps), burst)
}

// Wait blocks until api may be called. It fails fast with RATE_LIMITED while
// the API is backing off.
func (l *Limiter) Wait(ctx context.Context, api string) error {
	l.mu.Lock()
	st := l.state(api)
	if until := st.blockedUntil; l.now().Before(until) {
		l.mu.Unlock()
		return core.WrapError(core.ErrRateLimited,
			fmt.Errorf("%s backing off until %s", api, until.Format(time.RFC3339)))
	}
	pacer := st.pacer
	l.mu.Unlock()

	if pacer == nil {
		return nil
	}
	if err := pacer.Wait(ctx); err != nil {
		return core.WrapError(core.ErrRateLimited, err)
	}
	return nil
}

// RecordSuccess clears the failure streak for api.
func (l *Limiter) RecordSuccess(api string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.state(api)
	st.failures = 0
	st.blockedUntil = time.Time{}
	st.lastError = ""
}

// RecordFailure extends the backoff for api. A positive retryAfter from the
// upstream overrides the computed delay.
func (l *Limiter) RecordFailure(api string, err error, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.state(api)
	st.failures++
	if err != nil {
		st.lastError = err.Error()
	}
	delay := retryAfter
	if delay <= 0 {
		delay = l.backoff(st.failures)
	}
	st.blockedUntil = l.now().Add(delay)
}

func (l *Limiter) backoff(failures int) time.Duration {
	delay := l.baseDelay
	for i := 1; i < failures; i++ {
		delay *= 2
		if delay >= l.maxBackoff {
			return l.maxBackoff
		}
	}
	if l.maxBackoff > 0 && delay > l.maxBackoff {
		return l.maxBackoff
	}
	return delay
}

// Status reports every API the limiter has seen.
func (l *Limiter) Status() map[string]APIStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	out := make(map[string]APIStatus, len(l.apis))
	for name, st := range l.apis {
		s := APIStatus{
			API:       name,
			Available: !now.Before(st.blockedUntil),
			Failures:  st.failures,
			LastError: st.lastError,
		}
		if !s.Available {
			until := st.blockedUntil
			s.BlockedUntil = &until
		}
		out[name] = s
	}
	return out
}

func (l *Limiter) state(api string) *apiState {
	st, ok := l.apis[api]
	if !ok {
		st = &apiState{}
		l.apis[api] = st
	}
	return st
}
