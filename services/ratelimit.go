package services

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// UserLimiter keeps one token bucket per user.
type UserLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu    sync.Mutex
	users map[string]*userLimiter
}

// NewUserLimiter allows perSecond events per user with the given burst.
// A non-positive perSecond disables limiting.
func NewUserLimiter(perSecond float64, burst int) *UserLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &UserLimiter{
		limit: limit,
		burst: burst,
		now:   time.Now,
		users: make(map[string]*userLimiter),
	}
}

func (l *UserLimiter) Allow(uid string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	u, ok := l.users[uid]
	if !ok {
		l.sweepLocked(now)
		u = &userLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.users[uid] = u
	}
	u.lastSeen = now
	return u.limiter.AllowN(now, 1)
}

func (l *UserLimiter) sweepLocked(now time.Time) {
	for uid, u := range l.users {
		if now.Sub(u.lastSeen) > limiterIdleTTL {
			delete(l.users, uid)
		}
	}
}
