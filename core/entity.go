package core

import (
	"context"
	"sort"
	"time"
)

type RoomStatus string

const (
	StatusAvailable RoomStatus = "available"
	StatusBooked    RoomStatus = "booked"
	// StatusNew only ever appears in projected views, never in a snapshot.
	StatusNew RoomStatus = "new"
)

type (
	Room struct {
		RoomNo int        `json:"roomNo"`
		Floor  int        `json:"floor"`
		Status RoomStatus `json:"status"`
	}

	// RoomSet is a set of room numbers.
	RoomSet map[int]struct{}

	Floor struct {
		Number int    `json:"number"`
		Rooms  []Room `json:"rooms"`
	}

	// View is the render-ready state pushed to browsers.
	View struct {
		Loading        bool    `json:"loading"`
		Count          int     `json:"count"`
		Floors         []Floor `json:"floors"`
		Highlighted    []int   `json:"highlighted"`
		TotalRooms     int     `json:"totalRooms"`
		AvailableRooms int     `json:"availableRooms"`
		BookedRooms    int     `json:"bookedRooms"`
	}

	NotificationLevel string

	Notification struct {
		Level   NotificationLevel `json:"level"`
		Message string            `json:"message"`
	}

	CommandResult struct {
		Command     string `json:"command"`
		RoomCount   int    `json:"roomCount,omitempty"`
		BookedRooms []int  `json:"bookedRooms,omitempty"`
		Message     string `json:"message"`
	}

	CommandRecord struct {
		ID          string    `json:"id"`
		Command     string    `json:"command"`
		RoomCount   int       `json:"roomCount,omitempty"`
		Success     bool      `json:"success"`
		Message     string    `json:"message"`
		BookedRooms []int     `json:"bookedRooms,omitempty"`
		At          time.Time `json:"at"`
	}

	RoomLister interface {
		ListRooms(ctx context.Context) ([]Room, error)
	}

	// BookingService is the remote system of record for room availability.
	BookingService interface {
		RoomLister
		BookRooms(ctx context.Context, count int) ([]Room, error)
		BookRandom(ctx context.Context) error
		ResetAll(ctx context.Context) error
	}

	Notifier interface {
		Notify(n Notification)
		ViewChanged(v View)
	}

	Journal interface {
		Append(ctx context.Context, record CommandRecord) error
		// List returns up to limit records, newest first. limit <= 0 means all.
		List(ctx context.Context, limit int) ([]CommandRecord, error)
	}
)

const (
	LevelInfo  NotificationLevel = "info"
	LevelError NotificationLevel = "error"
)

const (
	CommandRefresh = "refresh"
	CommandBook    = "book"
	CommandRandom  = "random"
	CommandReset   = "reset"
)

// FloorOf derives the floor from a room number: 101-110 are on floor 1,
// 1001-1007 on floor 10.
func FloorOf(roomNo int) int {
	return roomNo / 100
}

func NewRoomSet(ids ...int) RoomSet {
	set := make(RoomSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s RoomSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

func (s RoomSet) Len() int {
	return len(s)
}

func (s RoomSet) Clone() RoomSet {
	out := make(RoomSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Sorted returns the members in ascending order. Never nil.
func (s RoomSet) Sorted() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// RoomNumbers collects the room numbers of rooms, preserving order.
func RoomNumbers(rooms []Room) []int {
	ids := make([]int, 0, len(rooms))
	for _, room := range rooms {
		ids = append(ids, room.RoomNo)
	}
	return ids
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) Notify(Notification) {}
func (NopNotifier) ViewChanged(View)    {}
