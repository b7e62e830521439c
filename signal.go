package plotcore

// Signal is a minimal synchronous observer set. Subscribing returns a
// cancel function; emitting calls every live listener in subscription
// order on the caller's goroutine.
//
// Signal is not safe for concurrent use. plotcore's event model is
// single-threaded: the goroutine that owns a store, view, or controller is
// the only one that subscribes to or emits its signals. Cancel functions
// are idempotent.
//
// Example:
//
//	var changed plotcore.Signal[int]
//	cancel := changed.Subscribe(func(n int) { fmt.Println("appended", n) })
//	changed.Emit(3)
//	cancel()
type Signal[T any] struct {
	subs []subscriber[T]
	next int
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers fn and returns a cancel function that removes it.
func (s *Signal[T]) Subscribe(fn func(T)) (cancel func()) {
	s.next++
	id := s.next
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	return func() {
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Emit calls every subscribed listener with v. Listeners subscribed during
// an emit are not called for that emit; listeners cancelled during an emit
// are skipped if not yet reached.
func (s *Signal[T]) Emit(v T) {
	// Snapshot so cancellation inside a listener cannot corrupt iteration.
	live := make([]subscriber[T], len(s.subs))
	copy(live, s.subs)
	for _, sub := range live {
		if s.alive(sub.id) {
			sub.fn(v)
		}
	}
}

// Len returns the number of live subscriptions. Mainly useful in tests for
// verifying that Destroy-style teardown actually detached listeners.
func (s *Signal[T]) Len() int { return len(s.subs) }

func (s *Signal[T]) alive(id int) bool {
	for _, sub := range s.subs {
		if sub.id == id {
			return true
		}
	}
	return false
}
