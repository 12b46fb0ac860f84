package highlight

import (
	"hotel-panel/clock"
	"hotel-panel/core"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTTL is how long freshly booked rooms stay highlighted.
const DefaultTTL = 3000 * time.Millisecond

// Tracker holds the set of rooms flagged as just booked. At most one expiry
// timer is armed at any time.
type Tracker struct {
	sched    clock.Scheduler
	ttl      time.Duration
	onExpire func()

	mu    sync.Mutex
	ids   core.RoomSet
	timer clock.Timer
	// gen identifies the current mark; a timer only clears the mark it was armed for.
	gen uint64
}

// New returns an empty tracker. onExpire, if set, runs after the set has been
// cleared by its timer; it is not called for explicit clears.
func New(sched clock.Scheduler, ttl time.Duration, onExpire func()) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tracker{
		sched:    sched,
		ttl:      ttl,
		onExpire: onExpire,
		ids:      core.RoomSet{},
	}
}

// MarkNew replaces the highlight set with ids and re-arms the expiry timer.
func (t *Tracker) MarkNew(ids core.RoomSet) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
	gen := t.gen
	t.ids = ids.Clone()
	t.timer = t.sched.AfterFunc(t.ttl, func() { t.expire(gen) })

	logrus.WithFields(logrus.Fields{
		"rooms": t.ids.Sorted(),
		"ttl":   t.ttl,
	}).Debug("Highlighting newly booked rooms")
}

// Clear empties the set and cancels any pending expiry.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
	t.ids = core.RoomSet{}
}

func (t *Tracker) Current() core.RoomSet {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ids.Clone()
}

func (t *Tracker) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Tracker) expire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.gen++
	t.timer = nil
	t.ids = core.RoomSet{}
	t.mu.Unlock()

	logrus.Debug("Highlight expired")
	if t.onExpire != nil {
		t.onExpire()
	}
}
