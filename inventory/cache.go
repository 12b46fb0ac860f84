package inventory

import (
	"context"
	"hotel-panel/core"
	"sync"

	"github.com/sirupsen/logrus"
)

// Cache holds the last inventory snapshot fetched from the booking service.
// A snapshot is only ever replaced wholesale by Refresh.
type Cache struct {
	source core.RoomLister

	mu      sync.RWMutex
	rooms   []core.Room
	loaded  bool
	issued  uint64
	applied uint64

	staleGuard bool
}

type Option func(*Cache)

// WithStaleGuard discards a refresh result that resolves after a newer one
// has already been applied. Without it the last refresh to resolve wins.
func WithStaleGuard() Option {
	return func(c *Cache) { c.staleGuard = true }
}

func New(source core.RoomLister, opts ...Option) *Cache {
	c := &Cache{
		source: source,
		rooms:  []core.Room{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh fetches the full room set and replaces the snapshot. On error the
// snapshot is left untouched.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.issued++
	ticket := c.issued
	c.mu.Unlock()

	log := logrus.WithField("refresh", ticket)

	rooms, err := c.source.ListRooms(ctx)
	if err != nil {
		log.WithError(err).Warn("Inventory refresh failed")
		return err
	}

	snapshot := make([]core.Room, len(rooms))
	for i, room := range rooms {
		if room.Floor == 0 {
			room.Floor = core.FloorOf(room.RoomNo)
		}
		snapshot[i] = room
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.staleGuard && ticket < c.applied {
		log.WithField("applied", c.applied).Debug("Discarding stale inventory snapshot")
		return nil
	}
	c.rooms = snapshot
	c.loaded = true
	c.applied = ticket

	log.WithField("rooms", len(snapshot)).Debug("Inventory snapshot replaced")
	return nil
}

// Current returns a copy of the latest snapshot; empty before the first
// successful refresh.
func (c *Cache) Current() []core.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rooms := make([]core.Room, len(c.rooms))
	copy(rooms, c.rooms)
	return rooms
}

// Loaded reports whether any refresh has succeeded yet.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}
