package service

import "time"

type Option func(*TaskQueryService)

// WithSlowQuery sets the duration above which a service call is logged as slow.
func WithSlowQuery(d time.Duration) Option {
	if d <= 0 {
		return nil
	}
	return func(s *TaskQueryService) {
		s.slowQuery = d
	}
}

// WithQueryTimeout bounds every call that arrives without its own deadline.
func WithQueryTimeout(d time.Duration) Option {
	if d <= 0 {
		return nil
	}
	return func(s *TaskQueryService) {
		s.timeout = d
	}
}
