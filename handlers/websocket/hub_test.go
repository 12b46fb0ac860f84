package websocket

import (
	"context"
	"errors"
	"hotel-panel/core"
	"math"
	"reflect"
	"testing"
)

type mockCommander struct {
	count      int
	bookedWith int
	rawCount   string
	refreshErr error
	bookErr    error
	randomErr  error
	resetErr   error
}

func (m *mockCommander) View() core.View { return core.View{Count: m.count} }

func (m *mockCommander) RefreshAll(ctx context.Context) error { return m.refreshErr }

func (m *mockCommander) Book(ctx context.Context) (core.CommandResult, error) {
	return m.BookByCount(ctx, m.count)
}

func (m *mockCommander) BookByCount(ctx context.Context, n int) (core.CommandResult, error) {
	m.bookedWith = n
	if m.bookErr != nil {
		return core.CommandResult{}, m.bookErr
	}
	return core.CommandResult{Command: core.CommandBook, BookedRooms: []int{101}, Message: "Successfully booked 1 room(s)!"}, nil
}

func (m *mockCommander) BookRandom(ctx context.Context) (core.CommandResult, error) {
	return core.CommandResult{Command: core.CommandRandom, Message: "Random booking completed!"}, m.randomErr
}

func (m *mockCommander) ResetAll(ctx context.Context) (core.CommandResult, error) {
	return core.CommandResult{Command: core.CommandReset, Message: "All rooms have been reset to available!"}, m.resetErr
}

func (m *mockCommander) SetCount(raw string) int {
	m.rawCount = raw
	if raw == "3" {
		m.count = 3
	} else {
		m.count = 1
	}
	return m.count
}

func newTestHub(p Commander) *Hub {
	h := &Hub{timeout: DefaultCommandTimeout}
	if p != nil {
		h.Bind(p)
	}
	return h
}

func TestRun_NotBound(t *testing.T) {
	h := newTestHub(nil)

	payload, err := h.run(EventRefresh, nil)
	if err == nil {
		t.Fatal("run() before Bind should fail")
	}
	if payload["status"] != "error" {
		t.Errorf("status = %v, want error", payload["status"])
	}
}

func TestRun_BookWithSelector(t *testing.T) {
	p := &mockCommander{count: 2}
	h := newTestHub(p)

	payload, err := h.run(EventBook, nil)
	if err != nil {
		t.Fatalf("run(book) failed: %v", err)
	}
	if p.bookedWith != 2 {
		t.Errorf("booked %d rooms, want selector value 2", p.bookedWith)
	}
	if payload["status"] != "ok" || payload["message"] != "Successfully booked 1 room(s)!" {
		t.Errorf("unexpected payload: %v", payload)
	}
	if !reflect.DeepEqual(payload["bookedRooms"], []int{101}) {
		t.Errorf("bookedRooms = %v", payload["bookedRooms"])
	}
}

func TestRun_BookWithCount(t *testing.T) {
	p := &mockCommander{count: 1}
	h := newTestHub(p)

	if _, err := h.run(EventBook, []any{float64(4)}); err != nil {
		t.Fatalf("run(book, 4) failed: %v", err)
	}
	if p.bookedWith != 4 {
		t.Errorf("booked %d rooms, want 4", p.bookedWith)
	}

	for _, arg := range []any{"zero", float64(0), float64(-2)} {
		p.bookedWith = 0
		if _, err := h.run(EventBook, []any{arg}); err != nil {
			t.Fatalf("run(book, %v) failed: %v", arg, err)
		}
		if p.bookedWith != 1 {
			t.Errorf("run(book, %v) booked %d rooms, want the default 1", arg, p.bookedWith)
		}
	}
}

func TestRun_Failures(t *testing.T) {
	p := &mockCommander{
		refreshErr: &core.ConnectivityError{Op: "list rooms", Err: errors.New("dial tcp: refused")},
		bookErr:    &core.OperationRejected{Op: "book rooms", Reason: "No rooms available"},
		randomErr:  &core.OperationRejected{Op: "random booking"},
		resetErr:   errors.New("boom"),
	}
	h := newTestHub(p)

	tests := []struct {
		event string
		want  string
	}{
		{EventRefresh, core.ConnectivityMessage},
		{EventBook, "No rooms available"},
		{EventRandom, "Failed to perform random booking"},
		{EventReset, "Failed to reset rooms"},
	}
	for _, tt := range tests {
		payload, err := h.run(tt.event, nil)
		if err == nil {
			t.Errorf("run(%s) should fail", tt.event)
			continue
		}
		if payload["status"] != "error" || payload["message"] != tt.want {
			t.Errorf("run(%s) payload = %v, want message %q", tt.event, payload, tt.want)
		}
	}
}

func TestRun_SetCount(t *testing.T) {
	p := &mockCommander{}
	h := newTestHub(p)

	payload, err := h.run(EventSetCount, []any{float64(3)})
	if err != nil {
		t.Fatalf("run(set-count) failed: %v", err)
	}
	if p.rawCount != "3" || payload["count"] != 3 {
		t.Errorf("raw %q, payload %v", p.rawCount, payload)
	}

	payload, _ = h.run(EventSetCount, nil)
	if p.rawCount != "" || payload["count"] != 1 {
		t.Errorf("empty set-count: raw %q, payload %v", p.rawCount, payload)
	}
}

func TestRun_UnknownEvent(t *testing.T) {
	h := newTestHub(&mockCommander{})
	if _, err := h.run("teleport", nil); err == nil {
		t.Error("run() of an unknown event should fail")
	}
}

func TestCountArg(t *testing.T) {
	tests := map[any]int{
		float64(1):    1,
		float64(2.9):  2,
		5:             5,
		"3":           3,
		" 2 ":         2,
		float64(0):    1,
		float64(-1):   1,
		"abc":         1,
		true:          1,
		float64(1e12): math.MaxInt32,
	}
	for arg, want := range tests {
		if got := countArg(arg); got != want {
			t.Errorf("countArg(%v) = %d, want %d", arg, got, want)
		}
	}
}

func TestExtractAck(t *testing.T) {
	var got map[string]any
	callback := func(err error, payload map[string]any) { got = payload }

	ack, args := extractAck([]any{float64(2), callback})
	if ack == nil {
		t.Fatal("extractAck() did not find the callback")
	}
	if len(args) != 1 || args[0] != float64(2) {
		t.Errorf("args = %v", args)
	}

	ack(nil, map[string]any{"status": "ok"})
	if got["status"] != "ok" {
		t.Errorf("callback received %v", got)
	}

	if ack, args := extractAck([]any{"3"}); ack != nil || len(args) != 1 {
		t.Error("extractAck() invented a callback")
	}
	if ack, args := extractAck(nil); ack != nil || len(args) != 0 {
		t.Error("extractAck(nil) should return nothing")
	}
}

func TestWrapAck_LibrarySignature(t *testing.T) {
	var (
		called bool
		got    []any
		gotErr error
	)
	// socket.io hands event handlers an acknowledgement of this shape.
	libAck := func(args []any, err error) {
		called = true
		got = args
		gotErr = err
	}

	ack, _ := extractAck([]any{"3", libAck})
	if ack == nil {
		t.Fatal("extractAck() did not find the callback")
	}

	ack(nil, map[string]any{"status": "ok", "message": "done"})
	if !called || len(got) != 1 || gotErr != nil {
		t.Fatalf("ack delivered args=%#v err=%v", got, gotErr)
	}
	payload, ok := got[0].(map[string]any)
	if !ok || payload["status"] != "ok" || payload["message"] != "done" {
		t.Errorf("ack payload = %#v", got[0])
	}

	failure := errors.New("Failed to reset rooms")
	ack(failure, map[string]any{"status": "error", "message": failure.Error()})
	if gotErr != failure {
		t.Errorf("ack error = %v, want %v", gotErr, failure)
	}
	if len(got) != 1 || got[0].(map[string]any)["status"] != "error" {
		t.Errorf("error ack payload = %#v", got)
	}
}

func TestWrapAck_Variadic(t *testing.T) {
	var got []any
	wrapAck(func(args ...any) { got = args })(nil, map[string]any{"status": "ok"})

	if len(got) != 1 {
		t.Fatalf("variadic ack received %#v", got)
	}
	if payload, ok := got[0].(map[string]any); !ok || payload["status"] != "ok" {
		t.Errorf("variadic ack payload = %#v", got[0])
	}
}

func TestWrapAck_PositionalSignatures(t *testing.T) {
	var msg string
	wrapAck(func(err string, payload map[string]any) { msg = err })(errors.New("nope"), nil)
	if msg != "nope" {
		t.Errorf("string error parameter = %q, want nope", msg)
	}

	var payload map[string]any
	wrapAck(func(p map[string]any) { payload = p })(errors.New("ignored"), map[string]any{"status": "error"})
	if payload["status"] != "error" {
		t.Errorf("single-parameter callback got %v", payload)
	}
}

func TestMakeAckPayload(t *testing.T) {
	ok := makeAckPayload(&core.CommandResult{Message: "done"}, nil)
	if ok["status"] != "ok" || ok["message"] != "done" {
		t.Errorf("ok payload = %v", ok)
	}
	if _, has := ok["bookedRooms"]; has {
		t.Error("bookedRooms set without booked rooms")
	}

	failed := makeAckPayload(&core.CommandResult{Message: "done"}, errors.New("Failed to reset rooms"))
	if failed["status"] != "error" || failed["message"] != "Failed to reset rooms" {
		t.Errorf("error payload = %v", failed)
	}
}

func TestHub_PushWithoutClients(t *testing.T) {
	h := NewHub([]string{"https://panel.example.com"})
	defer h.Close()

	h.Bind(&mockCommander{})
	h.ViewChanged(core.View{Count: 1})
	h.Notify(core.Notification{Level: core.LevelInfo, Message: "hello"})

	if h.Clients() != 0 {
		t.Errorf("Clients() = %d, want 0", h.Clients())
	}
	if h.Handler() == nil {
		t.Error("Handler() returned nil")
	}
}

func TestHub_CloseBeforeAnyRequest(t *testing.T) {
	h := NewHub(nil)
	h.Close()
}
