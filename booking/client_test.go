package booking

import (
	"context"
	"errors"
	"hotel-panel/bookingtest"
	"hotel-panel/core"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestListRooms_Success(t *testing.T) {
	srv := bookingtest.NewServer()
	defer srv.Close()

	rooms, err := New(srv.RoomsURL()).ListRooms(context.Background())
	if err != nil {
		t.Fatalf("ListRooms() failed: %v", err)
	}
	if len(rooms) != 97 {
		t.Fatalf("ListRooms() returned %d rooms, want 97", len(rooms))
	}
	if rooms[0].RoomNo != 101 || rooms[0].Floor != 1 || rooms[0].Status != core.StatusAvailable {
		t.Errorf("first room = %+v, want room 101 on floor 1 available", rooms[0])
	}
	if last := rooms[96]; last.RoomNo != 1007 || last.Floor != 10 {
		t.Errorf("last room = %+v, want room 1007 on floor 10", last)
	}
}

func TestListRooms_Rejected(t *testing.T) {
	srv := bookingtest.NewServer()
	defer srv.Close()
	srv.Reject(bookingtest.EndpointList, http.StatusInternalServerError, "database down")

	_, err := New(srv.RoomsURL()).ListRooms(context.Background())

	var rejected *core.OperationRejected
	if !errors.As(err, &rejected) {
		t.Fatalf("ListRooms() error = %v, want OperationRejected", err)
	}
	if rejected.Reason != "database down" {
		t.Errorf("Reason = %q, want %q", rejected.Reason, "database down")
	}
}

func TestListRooms_MissingRoomsIsMalformed(t *testing.T) {
	srv := bookingtest.NewServer()
	defer srv.Close()
	srv.Respond(bookingtest.EndpointList, http.StatusOK, `{"success":true}`)

	_, err := New(srv.RoomsURL()).ListRooms(context.Background())
	if !core.IsConnectivity(err) {
		t.Errorf("ListRooms() error = %v, want ConnectivityError", err)
	}
}

func TestListRooms_NonJSON(t *testing.T) {
	srv := bookingtest.NewServer()
	defer srv.Close()
	srv.Respond(bookingtest.EndpointList, http.StatusBadGateway, `<html>bad gateway</html>`)

	_, err := New(srv.RoomsURL()).ListRooms(context.Background())
	if !core.IsConnectivity(err) {
		t.Errorf("ListRooms() error = %v, want ConnectivityError", err)
	}
}

func TestListRooms_Unreachable(t *testing.T) {
	srv := bookingtest.NewServer()
	url := srv.RoomsURL()
	srv.Close()

	_, err := New(url).ListRooms(context.Background())
	if !core.IsConnectivity(err) {
		t.Errorf("ListRooms() error = %v, want ConnectivityError", err)
	}
}

func TestListRooms_Timeout(t *testing.T) {
	srv := bookingtest.NewServer()
	defer srv.Close()
	gate := srv.Hold(bookingtest.EndpointList)
	defer close(gate)

	_, err := New(srv.RoomsURL(), WithTimeout(50*time.Millisecond)).ListRooms(context.Background())
	if !core.IsConnectivity(err) {
		t.Errorf("ListRooms() error = %v, want ConnectivityError", err)
	}
}

func TestBookRooms_Success(t *testing.T) {
	srv := bookingtest.NewServer()
	defer srv.Close()

	booked, err := New(srv.RoomsURL()).BookRooms(context.Background(), 3)
	if err != nil {
		t.Fatalf("BookRooms() failed: %v", err)
	}

	got := core.RoomNumbers(booked)
	want := []int{101, 102, 103}
	if len(got) != len(want) {
		t.Fatalf("booked %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("booked[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestBookRooms_SendsRoomCount(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		if r.URL.Path != "/api/rooms/book" || r.Method != http.MethodPost {
			t.Errorf("request = %s %s, want POST /api/rooms/book", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		w.Write([]byte(`{"success":true,"bookedRooms":[]}`))
	}))
	defer srv.Close()

	if _, err := New(srv.URL+"/api/rooms/").BookRooms(context.Background(), 7); err != nil {
		t.Fatalf("BookRooms() failed: %v", err)
	}
	if gotBody != `{"roomCount":7}` {
		t.Errorf("request body = %q, want %q", gotBody, `{"roomCount":7}`)
	}
}

func TestBookRooms_RejectedVerbatim(t *testing.T) {
	srv := bookingtest.NewServer()
	defer srv.Close()
	srv.Reject(bookingtest.EndpointBook, http.StatusBadRequest, "No rooms available")

	_, err := New(srv.RoomsURL()).BookRooms(context.Background(), 2)
	if got := core.UserMessage(err, "fallback"); got != "No rooms available" {
		t.Errorf("UserMessage() = %q, want %q", got, "No rooms available")
	}
}

func TestBookRooms_InsufficientAvailability(t *testing.T) {
	srv := bookingtest.NewServer()
	defer srv.Close()
	rooms := srv.Rooms()
	for i := range rooms {
		if i > 1 {
			rooms[i].Status = core.StatusBooked
		}
	}
	srv.SetRooms(rooms)

	_, err := New(srv.RoomsURL()).BookRooms(context.Background(), 3)
	want := "Not enough rooms available. Only 2 rooms available."
	if got := core.UserMessage(err, "fallback"); got != want {
		t.Errorf("UserMessage() = %q, want %q", got, want)
	}
}

func TestBookRandomAndReset(t *testing.T) {
	srv := bookingtest.NewServer()
	defer srv.Close()
	client := New(srv.RoomsURL())
	ctx := context.Background()

	if err := client.BookRandom(ctx); err != nil {
		t.Fatalf("BookRandom() failed: %v", err)
	}
	if err := client.ResetAll(ctx); err != nil {
		t.Fatalf("ResetAll() failed: %v", err)
	}
	for _, room := range srv.Rooms() {
		if room.Status != core.StatusAvailable {
			t.Fatalf("room %d is %s after reset", room.RoomNo, room.Status)
		}
	}

	srv.Reject(bookingtest.EndpointReset, http.StatusInternalServerError, "")
	err := client.ResetAll(ctx)
	if !core.IsRejected(err) {
		t.Fatalf("ResetAll() error = %v, want OperationRejected", err)
	}
	if got := core.UserMessage(err, "Failed to reset rooms"); got != "Failed to reset rooms" {
		t.Errorf("UserMessage() = %q, want fallback", got)
	}
}

func TestWithTimeout_LeavesSharedClientAlone(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}

	c := New("http://localhost:8080/api/rooms", WithHTTPClient(shared), WithTimeout(2*time.Second))
	if shared.Timeout != time.Minute {
		t.Errorf("shared client timeout changed to %v", shared.Timeout)
	}
	if c.http == shared || c.http.Timeout != 2*time.Second {
		t.Errorf("client timeout = %v, want its own copy with 2s", c.http.Timeout)
	}

	// Option order does not matter.
	c = New("http://localhost:8080/api/rooms", WithTimeout(3*time.Second), WithHTTPClient(shared))
	if shared.Timeout != time.Minute || c.http.Timeout != 3*time.Second {
		t.Errorf("shared %v, client %v", shared.Timeout, c.http.Timeout)
	}
}

func TestWithHTTPClient_UsedAsIs(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}
	if c := New("http://localhost:8080/api/rooms", WithHTTPClient(shared)); c.http != shared {
		t.Error("client without WithTimeout should use the given http.Client")
	}
}
