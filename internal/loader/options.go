package loader

import "time"

type Option func(*Loader)

// WithPublisher sends progress events to p as the pass advances.
func WithPublisher(p Publisher) Option {
	return func(l *Loader) {
		l.publisher = p
	}
}

// WithOnComplete registers fn to receive the finished result. It is called
// exactly once per pass.
func WithOnComplete(fn func(*Result)) Option {
	return func(l *Loader) {
		l.onComplete = fn
	}
}

// WithFetchTimeout bounds each render request. Zero means no limit.
func WithFetchTimeout(d time.Duration) Option {
	return func(l *Loader) {
		l.fetchTimeout = d
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) {
		l.now = now
	}
}
