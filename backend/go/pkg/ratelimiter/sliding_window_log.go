package ratelimiter

import (
	"sync"
	"time"
)

// SlidingWindowLog implements the RateLimiter interface using the sliding window log algorithm.
// It keeps the timestamps of the accepted requests inside the window.
type SlidingWindowLog struct {
	limit  int           // Maximum number of requests allowed in the window.
	window time.Duration // The duration of the time window.
	now    func() time.Time

	mutex sync.Mutex
	log   []time.Time // accepted request times, oldest first
}

// NewSlidingWindowLog creates a new SlidingWindowLog.
// limit: the maximum number of requests allowed in the window.
// window: the duration of the time window.
func NewSlidingWindowLog(limit int, window time.Duration) *SlidingWindowLog {
	return &SlidingWindowLog{
		limit:  limit,
		window: window,
		now:    time.Now,
		log:    make([]time.Time, 0, limit),
	}
}

// Allow drops timestamps that left the window and accepts the request if there is room.
func (swl *SlidingWindowLog) Allow() bool {
	swl.mutex.Lock()
	defer swl.mutex.Unlock()

	now := swl.now()
	boundary := now.Add(-swl.window)

	expired := 0
	for expired < len(swl.log) && !swl.log[expired].After(boundary) {
		expired++
	}
	if expired > 0 {
		swl.log = append(swl.log[:0], swl.log[expired:]...)
	}

	if len(swl.log) < swl.limit {
		swl.log = append(swl.log, now)
		return true
	}
	return false
}
