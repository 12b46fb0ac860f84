// Package view derives the render-ready room list from an inventory snapshot
// and the highlight set. Everything here is pure.
package view

import (
	"hotel-panel/core"
	"sort"
)

// Project returns a new slice where every room in hl is marked new. The
// server-reported status of every other room passes through unchanged.
func Project(rooms []core.Room, hl core.RoomSet) []core.Room {
	out := make([]core.Room, len(rooms))
	for i, room := range rooms {
		if hl.Has(room.RoomNo) {
			room.Status = core.StatusNew
		}
		out[i] = room
	}
	return out
}

// GroupByFloor partitions rooms by floor. Floors come back in ascending order
// and rooms keep their input order within a floor.
func GroupByFloor(rooms []core.Room) []core.Floor {
	index := make(map[int]int)
	floors := make([]core.Floor, 0)

	for _, room := range rooms {
		i, ok := index[room.Floor]
		if !ok {
			i = len(floors)
			index[room.Floor] = i
			floors = append(floors, core.Floor{Number: room.Floor})
		}
		floors[i].Rooms = append(floors[i].Rooms, room)
	}

	sort.SliceStable(floors, func(i, j int) bool {
		return floors[i].Number < floors[j].Number
	})
	return floors
}

// Build assembles the full view for the given state.
func Build(rooms []core.Room, hl core.RoomSet, count int, loading bool) core.View {
	projected := Project(rooms, hl)

	v := core.View{
		Loading:     loading,
		Count:       count,
		Floors:      GroupByFloor(projected),
		Highlighted: hl.Sorted(),
		TotalRooms:  len(rooms),
	}
	// Counters use the server status; highlighting is decoration only.
	for _, room := range rooms {
		switch room.Status {
		case core.StatusAvailable:
			v.AvailableRooms++
		case core.StatusBooked:
			v.BookedRooms++
		}
	}
	return v
}
