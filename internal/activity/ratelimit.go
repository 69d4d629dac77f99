package activity

import (
	"context"
	"sync"
	"time"
)

// SourceLimiter enforces a sliding-window cap on audit events per source
// address. State is process-local: in a multi-process deployment each process
// enforces its own limit independently, which is an accepted approximation.
type SourceLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	ceiling int
	events  map[string][]time.Time
	now     func() time.Time
}

// NewSourceLimiter constructs a limiter allowing ceiling events per source
// within the trailing window.
func NewSourceLimiter(ceiling int, window time.Duration) *SourceLimiter {
	if ceiling <= 0 {
		ceiling = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &SourceLimiter{
		window:  window,
		ceiling: ceiling,
		events:  make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow records an event for source and reports whether it is within the
// ceiling. Once at ceiling the event is dropped, not queued.
func (l *SourceLimiter) Allow(source string) bool {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := prune(l.events[source], cutoff)
	if len(kept) >= l.ceiling {
		l.events[source] = kept
		return false
	}
	l.events[source] = append(kept, now)
	return true
}

// Sweep prunes stale windows periodically until the context is cancelled.
func (l *SourceLimiter) Sweep(ctx context.Context) {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweepOnce()
		}
	}
}

func (l *SourceLimiter) sweepOnce() {
	cutoff := l.now().Add(-l.window)
	l.mu.Lock()
	defer l.mu.Unlock()
	for source, stamps := range l.events {
		kept := prune(stamps, cutoff)
		if len(kept) == 0 {
			delete(l.events, source)
			continue
		}
		l.events[source] = kept
	}
}

func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}
