package store

import (
	"time"

	"github.com/gogpu/plotcore"
)

// RollingConfig bounds a rolling-mode store. At least one of MaxPoints and
// MaxAge must be set; both may be.
type RollingConfig struct {
	// MaxPoints caps the number of live points. When set it is also the
	// fixed ring capacity.
	MaxPoints int

	// MaxAge caps point lifetime. Points older than MaxAge are evicted by
	// ExpireIfNeeded.
	MaxAge time.Duration
}

// EnableRolling switches the store to rolling (ring buffer) mode. It must
// be called before the first append and requires at least one eviction
// criterion, otherwise it returns a configuration error.
//
// With MaxPoints set, the ring capacity is exactly MaxPoints and overflow
// evicts the oldest point on write. With only MaxAge set, the ring keeps
// its current capacity and relies on ExpireIfNeeded for eviction (overflow
// still evicts the oldest point rather than growing).
func (s *PointStore) EnableRolling(cfg RollingConfig) error {
	if s.count > 0 {
		return ErrRollingAfterAppend
	}
	if cfg.MaxPoints <= 0 && cfg.MaxAge <= 0 {
		return ErrRollingConfig
	}
	s.rolling = true
	s.maxPoints = cfg.MaxPoints
	s.maxAge = cfg.MaxAge
	if cfg.MaxPoints > 0 {
		s.alloc(cfg.MaxPoints)
	}
	s.stamps = make([]int64, len(s.x))
	return nil
}

// NewRolling creates an empty PointStore in rolling mode.
func NewRolling(cfg RollingConfig, opts ...Option) (*PointStore, error) {
	s := New(opts...)
	if err := s.EnableRolling(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PointStore) appendRing(chunk Chunk) {
	capacity := len(s.x)
	nowMs := s.now().UnixMilli()
	for i := range chunk.X {
		slot := s.head
		s.x[slot] = chunk.X[i]
		s.y[slot] = chunk.Y[i]
		s.size[slot] = pointSize(chunk, i)
		writeColor(s.color, slot, chunk, i)
		s.stamps[slot] = nowMs
		delete(s.meta, slot)
		if m, ok := chunk.Meta[i]; ok {
			s.meta[slot] = m
		}
		if s.count == capacity {
			// Full: the write overwrote the oldest point.
			s.tail = (s.tail + 1) % capacity
		} else {
			s.count++
		}
		s.head = (s.head + 1) % capacity
	}
}

// ExpireIfNeeded evicts points from the tail while the store exceeds its
// age or count limits, and returns the number evicted. It emits an expiry
// notification only when at least one point was evicted. It is a no-op in
// linear mode.
func (s *PointStore) ExpireIfNeeded() int {
	if !s.rolling {
		return 0
	}
	capacity := len(s.x)
	nowMs := s.now().UnixMilli()
	maxAgeMs := s.maxAge.Milliseconds()
	evicted := 0
	for s.count > 0 {
		tooMany := s.maxPoints > 0 && s.count > s.maxPoints
		tooOld := s.maxAge > 0 && nowMs-s.stamps[s.tail] > maxAgeMs
		if !tooMany && !tooOld {
			break
		}
		delete(s.meta, s.tail)
		s.tail = (s.tail + 1) % capacity
		s.count--
		evicted++
	}
	if evicted > 0 {
		plotcore.Logger().Debug("expired points", "evicted", evicted, "remaining", s.count)
		s.expired.Emit(evicted)
	}
	return evicted
}
