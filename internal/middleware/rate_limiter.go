package middleware

import (
	"sync"
	"time"
)

// RateLimiter throttles inbound updates per user and per room with fixed
// windows.
type RateLimiter struct {
	userLimits map[int64]*windowLimit
	roomLimits map[int64]*windowLimit
	mu         sync.Mutex

	userMaxRequests int
	roomMaxRequests int
	window          time.Duration

	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

type windowLimit struct {
	requests  int
	resetTime time.Time
}

// NewRateLimiter creates a new rate limiter. A max of zero disables that limit.
func NewRateLimiter(userMaxRequests, roomMaxRequests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		userLimits:      make(map[int64]*windowLimit),
		roomLimits:      make(map[int64]*windowLimit),
		userMaxRequests: userMaxRequests,
		roomMaxRequests: roomMaxRequests,
		window:          window,
		now:             time.Now,
		stop:            make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// CheckUserLimit checks if user has exceeded rate limit
func (rl *RateLimiter) CheckUserLimit(userID int64) bool {
	return rl.check(rl.userLimits, userID, rl.userMaxRequests)
}

// CheckRoomLimit checks if a group chat has exceeded rate limit
func (rl *RateLimiter) CheckRoomLimit(roomID int64) bool {
	return rl.check(rl.roomLimits, roomID, rl.roomMaxRequests)
}

// Allow checks both limits. Private chats only count against the user.
func (rl *RateLimiter) Allow(userID, chatID int64) bool {
	if !rl.CheckUserLimit(userID) {
		return false
	}
	if chatID != userID && !rl.CheckRoomLimit(chatID) {
		return false
	}
	return true
}

func (rl *RateLimiter) check(limits map[int64]*windowLimit, id int64, max int) bool {
	if max <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	limit, exists := limits[id]
	if !exists || now.After(limit.resetTime) {
		limits[id] = &windowLimit{
			requests:  1,
			resetTime: now.Add(rl.window),
		}
		return true
	}

	if limit.requests >= max {
		return false
	}

	limit.requests++
	return true
}

// cleanup removes expired entries
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
		}

		rl.mu.Lock()
		now := rl.now()
		for id, limit := range rl.userLimits {
			if now.After(limit.resetTime) {
				delete(rl.userLimits, id)
			}
		}
		for id, limit := range rl.roomLimits {
			if now.After(limit.resetTime) {
				delete(rl.roomLimits, id)
			}
		}
		rl.mu.Unlock()
	}
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}
