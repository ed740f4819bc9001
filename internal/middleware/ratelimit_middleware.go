package middleware

import (
	"sync"
	"time"
)

// InvalidAuthRateLimiter counts failed authentications per IP and blocks an IP
// after maxAttempts failures inside window.
type InvalidAuthRateLimiter struct {
	mu          sync.Mutex
	attempts    map[string]*attemptInfo
	maxAttempts int
	window      time.Duration
	stop        chan struct{}
	once        sync.Once
}

type attemptInfo struct {
	count   int
	firstAt time.Time
}

// NewInvalidAuthRateLimiter creates a limiter. Defaults: 5 attempts per minute.
func NewInvalidAuthRateLimiter(maxAttempts int, window time.Duration) *InvalidAuthRateLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	rl := &InvalidAuthRateLimiter{
		attempts:    make(map[string]*attemptInfo),
		maxAttempts: maxAttempts,
		window:      window,
		stop:        make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Blocked reports whether ip has used up its failed attempts for the current window.
func (r *InvalidAuthRateLimiter) Blocked(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.attempts[ip]
	if !ok {
		return false
	}
	if time.Since(info.firstAt) > r.window {
		delete(r.attempts, ip)
		return false
	}
	return info.count >= r.maxAttempts
}

// Record counts one failed attempt for ip.
func (r *InvalidAuthRateLimiter) Record(ip string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	info, ok := r.attempts[ip]
	if !ok || now.Sub(info.firstAt) > r.window {
		r.attempts[ip] = &attemptInfo{count: 1, firstAt: now}
		return
	}
	info.count++
}

// Stop ends the cleanup loop.
func (r *InvalidAuthRateLimiter) Stop() {
	r.once.Do(func() { close(r.stop) })
}

func (r *InvalidAuthRateLimiter) cleanup() {
	ticker := time.NewTicker(5 * r.window)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			now := time.Now()
			for ip, info := range r.attempts {
				if now.Sub(info.firstAt) > r.window {
					delete(r.attempts, ip)
				}
			}
			r.mu.Unlock()
		}
	}
}
