// Package bookingtest runs an in-process booking service that speaks the same
// JSON contract as the real one, for tests.
package bookingtest

import (
	"encoding/json"
	"fmt"
	"hotel-panel/core"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

const (
	EndpointList   = "list"
	EndpointBook   = "book"
	EndpointRandom = "random"
	EndpointReset  = "reset"
)

const maxRoomsPerBooking = 5

type (
	cannedResponse struct {
		status int
		body   string
	}

	Server struct {
		*httptest.Server

		mu       sync.Mutex
		rooms    []core.Room
		canned   map[string][]cannedResponse
		gates    map[string][]chan struct{}
		requests map[string]int
		rng      *rand.Rand
	}
)

// NewServer starts a service seeded with the standard hotel: floors 1-9 with
// ten rooms each and floor 10 with rooms 1001-1007, all available.
func NewServer() *Server {
	s := &Server{
		rooms:    SeedRooms(),
		canned:   make(map[string][]cannedResponse),
		gates:    make(map[string][]chan struct{}),
		requests: make(map[string]int),
		rng:      rand.New(rand.NewSource(1)),
	}

	r := chi.NewRouter()
	r.Route("/api/rooms", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/book", s.handleBook)
		r.Post("/random", s.handleRandom)
		r.Post("/reset", s.handleReset)
	})
	s.Server = httptest.NewServer(r)
	return s
}

func SeedRooms() []core.Room {
	rooms := make([]core.Room, 0, 97)
	for floor := 1; floor <= 9; floor++ {
		for pos := 1; pos <= 10; pos++ {
			rooms = append(rooms, core.Room{RoomNo: floor*100 + pos, Floor: floor, Status: core.StatusAvailable})
		}
	}
	for pos := 1; pos <= 7; pos++ {
		rooms = append(rooms, core.Room{RoomNo: 1000 + pos, Floor: 10, Status: core.StatusAvailable})
	}
	return rooms
}

// RoomsURL is the base URL to hand to booking.New.
func (s *Server) RoomsURL() string {
	return s.URL + "/api/rooms"
}

func (s *Server) Rooms() []core.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Room(nil), s.rooms...)
}

func (s *Server) SetRooms(rooms []core.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = append([]core.Room(nil), rooms...)
}

// Respond makes the next request to endpoint answer with status and the raw body,
// without touching the inventory.
func (s *Server) Respond(endpoint string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canned[endpoint] = append(s.canned[endpoint], cannedResponse{status: status, body: body})
}

// Reject makes the next request to endpoint fail with success:false and message.
func (s *Server) Reject(endpoint string, status int, message string) {
	body, _ := json.Marshal(map[string]any{"success": false, "message": message})
	s.Respond(endpoint, status, string(body))
}

// Hold makes the next request to endpoint compute its answer on arrival and
// then wait until the returned channel is closed before writing it.
func (s *Server) Hold(endpoint string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	gate := make(chan struct{})
	s.gates[endpoint] = append(s.gates[endpoint], gate)
	return gate
}

func (s *Server) Requests(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[endpoint]
}

// begin counts the request and pops any canned response and gate queued for endpoint.
func (s *Server) begin(endpoint string) (*cannedResponse, chan struct{}) {
	s.requests[endpoint]++

	var canned *cannedResponse
	if queue := s.canned[endpoint]; len(queue) > 0 {
		canned = &queue[0]
		s.canned[endpoint] = queue[1:]
	}
	var gate chan struct{}
	if queue := s.gates[endpoint]; len(queue) > 0 {
		gate = queue[0]
		s.gates[endpoint] = queue[1:]
	}
	return canned, gate
}

func (s *Server) finish(w http.ResponseWriter, r *http.Request, canned *cannedResponse, gate chan struct{}, status int, payload any) {
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}
	if canned != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(canned.status)
		_, _ = w.Write([]byte(canned.body))
		return
	}
	render.Status(r, status)
	render.JSON(w, r, payload)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	canned, gate := s.begin(EndpointList)
	rooms := append([]core.Room{}, s.rooms...)
	s.mu.Unlock()

	s.finish(w, r, canned, gate, http.StatusOK, map[string]any{"success": true, "rooms": rooms})
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomCount int `json:"roomCount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]any{"success": false, "message": "Invalid request body"})
		return
	}

	s.mu.Lock()
	canned, gate := s.begin(EndpointBook)
	status, payload := http.StatusOK, any(nil)
	if canned == nil {
		status, payload = s.book(req.RoomCount)
	}
	s.mu.Unlock()

	s.finish(w, r, canned, gate, status, payload)
}

// book takes the first count available rooms in inventory order. Must hold s.mu.
func (s *Server) book(count int) (int, any) {
	if count < 1 || count > maxRoomsPerBooking {
		return http.StatusBadRequest, map[string]any{"success": false, "message": "Room count must be between 1 and 5"}
	}

	var picked []int
	for i, room := range s.rooms {
		if len(picked) == count {
			break
		}
		if room.Status == core.StatusAvailable {
			picked = append(picked, i)
		}
	}
	if len(picked) < count {
		available := 0
		for _, room := range s.rooms {
			if room.Status == core.StatusAvailable {
				available++
			}
		}
		return http.StatusBadRequest, map[string]any{
			"success": false,
			"message": fmt.Sprintf("Not enough rooms available. Only %d rooms available.", available),
		}
	}

	booked := make([]core.Room, 0, len(picked))
	for _, i := range picked {
		s.rooms[i].Status = core.StatusBooked
		booked = append(booked, s.rooms[i])
	}
	return http.StatusOK, map[string]any{
		"success":     true,
		"message":     fmt.Sprintf("Successfully booked %d rooms", len(booked)),
		"bookedRooms": booked,
	}
}

func (s *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	canned, gate := s.begin(EndpointRandom)
	if canned == nil {
		for i := range s.rooms {
			if s.rng.Float64() < 0.3 {
				s.rooms[i].Status = core.StatusBooked
			} else {
				s.rooms[i].Status = core.StatusAvailable
			}
		}
	}
	s.mu.Unlock()

	s.finish(w, r, canned, gate, http.StatusOK, map[string]any{"success": true, "message": "Random booking completed"})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	canned, gate := s.begin(EndpointReset)
	if canned == nil {
		for i := range s.rooms {
			s.rooms[i].Status = core.StatusAvailable
		}
	}
	s.mu.Unlock()

	s.finish(w, r, canned, gate, http.StatusOK, map[string]any{"success": true, "message": "All rooms reset to available"})
}
