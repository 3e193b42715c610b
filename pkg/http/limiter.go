package http

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/ektamehra-ue/uelogic/pkg/common"
)

// RateLimiterStore keeps one token bucket per organization for POST /runs.
// Buckets are created on first use with the default limit and burst, an
// override replaces the bucket and its remaining tokens.
type RateLimiterStore struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

func NewRateLimiterStore(limit rate.Limit, burst int) *RateLimiterStore {
	return &RateLimiterStore{
		buckets: make(map[string]*rate.Limiter),
		limit:   limit,
		burst:   burst,
	}
}

// RateLimiterStoreFromConfig uses RunRate runs per second and RunBurst.
func RateLimiterStoreFromConfig(cfg common.Config) *RateLimiterStore {
	return NewRateLimiterStore(rate.Limit(cfg.RunRate), cfg.RunBurst)
}

func (s *RateLimiterStore) GetLimiter(org string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.buckets[org]
	if !ok {
		bucket = rate.NewLimiter(s.limit, s.burst)
		s.buckets[org] = bucket
	}
	return bucket
}

func (s *RateLimiterStore) SetLimiter(org string, limit rate.Limit, burst int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets[org] = rate.NewLimiter(limit, burst)
}

// Allow takes one run token from org's bucket.
func (s *RateLimiterStore) Allow(org string) bool {
	return s.GetLimiter(org).Allow()
}
