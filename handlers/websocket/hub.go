package websocket

import (
	"context"
	"errors"
	"fmt"
	"hotel-panel/core"
	"hotel-panel/panel"
	"net/http"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/engine.io/v2/utils"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

// PanelRoom is the socket.io room every connected browser joins.
const PanelRoom socketio.Room = "panel"

const (
	EventView         = "view"
	EventNotification = "notification"

	EventRefresh  = "refresh"
	EventBook     = "book"
	EventRandom   = "random"
	EventReset    = "reset"
	EventSetCount = "set-count"
)

// DefaultCommandTimeout bounds a command issued over the socket.
const DefaultCommandTimeout = 30 * time.Second

var localhostOrigin = regexp.MustCompile(`^https?://(localhost|127\.0\.0\.1|\[::1\])(:\d+)?$`)

type (
	ackInvoker func(err error, payload map[string]any)

	// Commander is what the hub drives when browsers send commands.
	Commander interface {
		View() core.View
		RefreshAll(ctx context.Context) error
		Book(ctx context.Context) (core.CommandResult, error)
		BookByCount(ctx context.Context, n int) (core.CommandResult, error)
		BookRandom(ctx context.Context) (core.CommandResult, error)
		ResetAll(ctx context.Context) (core.CommandResult, error)
		SetCount(raw string) int
	}

	// Hub pushes panel state to browsers and relays their commands. It
	// implements core.Notifier.
	Hub struct {
		srv     *socketio.Server
		handler http.Handler
		timeout time.Duration
		clients atomic.Int64

		mu    sync.RWMutex
		panel Commander
	}
)

// NewHub creates the socket.io server. With no origins configured only
// localhost pages may connect.
func NewHub(origins []string) *Hub {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(1000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)

	allowed := []any{localhostOrigin}
	for _, origin := range origins {
		allowed = append(allowed, origin)
	}
	opts.SetCors(&types.Cors{
		Origin:      allowed,
		Credentials: true,
	})

	h := &Hub{
		srv:     socketio.NewServer(nil, opts),
		timeout: DefaultCommandTimeout,
	}
	// ServeHandler attaches the engine; Close relies on it being there.
	h.handler = h.srv.ServeHandler(nil)

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	h.srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}
		h.handleConnection(socket)
	})
	return h
}

// Bind attaches the panel whose commands the hub relays. Connections made
// before Bind only receive pushes.
func (h *Hub) Bind(p Commander) {
	h.mu.Lock()
	h.panel = p
	h.mu.Unlock()
}

// Handler serves the socket.io endpoint.
func (h *Hub) Handler() http.Handler {
	return h.handler
}

// Clients is the number of connected browsers.
func (h *Hub) Clients() int {
	return int(h.clients.Load())
}

func (h *Hub) Notify(n core.Notification) {
	if err := h.srv.To(PanelRoom).Emit(EventNotification, n); err != nil {
		logrus.WithError(err).Warn("Failed to push notification")
	}
}

func (h *Hub) ViewChanged(v core.View) {
	if err := h.srv.To(PanelRoom).Emit(EventView, v); err != nil {
		logrus.WithError(err).Warn("Failed to push view")
	}
}

func (h *Hub) Close() {
	h.srv.Close(nil)
}

func (h *Hub) commander() Commander {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.panel
}

func (h *Hub) handleConnection(socket *socketio.Socket) {
	me := socket.Id()
	socket.Join(PanelRoom)
	h.clients.Add(1)
	utils.Log().Printf("socket %v joined %v\n", me, PanelRoom)

	if p := h.commander(); p != nil {
		_ = socket.Emit(EventView, p.View())
	}

	for _, event := range []string{EventRefresh, EventBook, EventRandom, EventReset, EventSetCount} {
		event := event
		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On(event, func(datas ...any) {
			ack, args := extractAck(datas)
			utils.Log().Printf("socket %v sent %v %v\n", me, event, args)

			// Commands call the booking service; keep the socket's event loop free.
			go func() {
				payload, err := h.run(event, args)
				respondWithAck(socket, ack, event+"-ack", payload, err)
			}()
		})
	}

	socket.On("disconnect", func(datas ...any) {
		h.clients.Add(-1)
		utils.Log().Printf("socket %v left %v\n", me, PanelRoom)
		socket.RemoveAllListeners("")
	})
}

// run executes one browser command against the bound panel and builds the
// ack payload.
func (h *Hub) run(event string, args []any) (map[string]any, error) {
	p := h.commander()
	if p == nil {
		err := errors.New("panel not ready")
		return makeAckPayload(nil, err), err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	var (
		result core.CommandResult
		err    error
	)
	switch event {
	case EventRefresh:
		err = p.RefreshAll(ctx)
		result.Message = "Rooms refreshed"
	case EventBook:
		if len(args) == 0 || args[0] == nil {
			result, err = p.Book(ctx)
			break
		}
		result, err = p.BookByCount(ctx, countArg(args[0]))
	case EventRandom:
		result, err = p.BookRandom(ctx)
	case EventReset:
		result, err = p.ResetAll(ctx)
	case EventSetCount:
		raw := ""
		if len(args) > 0 && args[0] != nil {
			raw = fmt.Sprint(args[0])
		}
		payload := makeAckPayload(nil, nil)
		payload["count"] = p.SetCount(raw)
		return payload, nil
	default:
		err = fmt.Errorf("unknown command %q", event)
		return makeAckPayload(nil, err), err
	}

	if err != nil {
		msg := core.UserMessage(err, commandFallback(event))
		return makeAckPayload(&result, errors.New(msg)), err
	}
	return makeAckPayload(&result, nil), nil
}

func commandFallback(event string) string {
	switch event {
	case EventBook:
		return "Failed to book rooms"
	case EventRandom:
		return "Failed to perform random booking"
	case EventReset:
		return "Failed to reset rooms"
	}
	return "Failed to load rooms"
}

// countArg reads an explicit room count sent with book the way the count
// selector reads typed input. socket.io delivers JSON numbers as float64.
func countArg(arg any) int {
	return panel.ParseCount(fmt.Sprint(arg))
}

func makeAckPayload(result *core.CommandResult, ackErr error) map[string]any {
	response := map[string]any{
		"status": "ok",
	}
	if result != nil {
		response["message"] = result.Message
		if len(result.BookedRooms) > 0 {
			response["bookedRooms"] = result.BookedRooms
		}
	}
	if ackErr != nil {
		response["status"] = "error"
		response["message"] = ackErr.Error()
	}
	return response
}

func respondWithAck(socket *socketio.Socket, ack ackInvoker, event string, payload map[string]any, ackErr error) {
	if ack != nil {
		ack(ackErr, payload)
	}

	if event != "" && payload != nil {
		_ = socket.Emit(event, payload)
	}
}
