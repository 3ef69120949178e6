package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// OTPExpiry is how long a password reset code stays valid.
const OTPExpiry = 10 * time.Minute

// GenerateOTP returns a uniformly random six digit code in 100000..999999.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

// CompareOTP checks a submitted code in constant time.
func CompareOTP(stored, provided string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) == 1
}

/* ---------- rate limiting ---------- */

// OTPLimiter allows at most max OTP requests per key within window. Keys
// idle for a whole window are dropped, since their bucket is full again.
type OTPLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	every     rate.Limit
	burst     int
	window    time.Duration
	lastSweep time.Time
}

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

func NewOTPLimiter(max int, window time.Duration) *OTPLimiter {
	if max <= 0 {
		max = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &OTPLimiter{
		limiters: make(map[string]*limiterEntry),
		every:    rate.Every(window / time.Duration(max)),
		burst:    max,
		window:   window,
	}
}

// Allow consumes one request for key.
func (l *OTPLimiter) Allow(key string) bool {
	return l.AllowAt(key, time.Now())
}

func (l *OTPLimiter) AllowAt(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.window {
		l.sweepLocked(now)
	}
	e, ok := l.limiters[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(l.every, l.burst)}
		l.limiters[key] = e
	}
	if now.After(e.seen) {
		e.seen = now
	}
	return e.lim.AllowN(now, 1)
}

func (l *OTPLimiter) sweepLocked(now time.Time) {
	for k, e := range l.limiters {
		if now.Sub(e.seen) >= l.window {
			delete(l.limiters, k)
		}
	}
	l.lastSweep = now
}

// Len reports how many keys are tracked.
func (l *OTPLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
