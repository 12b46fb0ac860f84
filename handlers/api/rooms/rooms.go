package rooms

import (
	"context"
	"encoding/json"
	"errors"
	"hotel-panel/core"
	"hotel-panel/panel"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type (
	// Controller is the slice of the panel the REST surface drives.
	Controller interface {
		View() core.View
		Rooms() []core.Room
		RefreshAll(ctx context.Context) error
		Book(ctx context.Context) (core.CommandResult, error)
		BookByCount(ctx context.Context, n int) (core.CommandResult, error)
		BookRandom(ctx context.Context) (core.CommandResult, error)
		ResetAll(ctx context.Context) (core.CommandResult, error)
		SetCount(raw string) int
		Journal(ctx context.Context, limit int) ([]core.CommandRecord, error)
	}

	BookRequest struct {
		RoomCount json.RawMessage `json:"roomCount"`
	}

	CommandResponse struct {
		Success     bool      `json:"success"`
		Message     string    `json:"message"`
		BookedRooms []int     `json:"bookedRooms,omitempty"`
		View        core.View `json:"view"`
	}

	CountRequest struct {
		Value json.RawMessage `json:"value"`
	}

	CountResponse struct {
		Count int `json:"count"`
	}

	RoomsResponse struct {
		Rooms []core.Room `json:"rooms"`
	}
)

// Routes mounts the panel endpoints on r.
func Routes(r chi.Router, ctrl Controller) {
	r.Get("/view", HandleGetView(ctrl))
	r.Put("/count", HandleSetCount(ctrl))
	r.Get("/journal", HandleListJournal(ctrl))
	r.Route("/rooms", func(r chi.Router) {
		r.Get("/", HandleListRooms(ctrl))
		r.Post("/refresh", HandleRefresh(ctrl))
		r.Post("/book", HandleBook(ctrl))
		r.Post("/random", HandleRandom(ctrl))
		r.Post("/reset", HandleReset(ctrl))
	})
}

func HandleGetView(ctrl Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, ctrl.View())
	}
}

// HandleListRooms returns the inventory as the booking service reported it.
func HandleListRooms(ctrl Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, RoomsResponse{Rooms: ctrl.Rooms()})
	}
}

func HandleRefresh(ctrl Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ctrl.RefreshAll(r.Context()); err != nil {
			renderFailure(w, r, ctrl, core.CommandResult{}, err, "Failed to load rooms")
			return
		}
		render.JSON(w, r, CommandResponse{Success: true, Message: "Rooms refreshed", View: ctrl.View()})
	}
}

// HandleBook books roomCount rooms, or the selector value when the body
// carries none. roomCount is read like selector input, so invalid values
// book the default single room.
func HandleBook(ctrl Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			logrus.WithField("error", err).Error("Failed to decode request")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, CommandResponse{Success: false, Message: "Invalid request body", View: ctrl.View()})
			return
		}

		var (
			result core.CommandResult
			err    error
		)
		if raw, ok := rawValue(req.RoomCount); ok {
			result, err = ctrl.BookByCount(r.Context(), panel.ParseCount(raw))
		} else {
			result, err = ctrl.Book(r.Context())
		}
		if err != nil {
			renderFailure(w, r, ctrl, result, err, "Failed to book rooms")
			return
		}
		renderSuccess(w, r, ctrl, result)
	}
}

func HandleRandom(ctrl Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := ctrl.BookRandom(r.Context())
		if err != nil {
			renderFailure(w, r, ctrl, result, err, "Failed to perform random booking")
			return
		}
		renderSuccess(w, r, ctrl, result)
	}
}

func HandleReset(ctrl Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := ctrl.ResetAll(r.Context())
		if err != nil {
			renderFailure(w, r, ctrl, result, err, "Failed to reset rooms")
			return
		}
		renderSuccess(w, r, ctrl, result)
	}
}

// HandleSetCount accepts the selector value either as a JSON string or as a
// bare number and answers with the count actually stored.
func HandleSetCount(ctrl Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithField("error", err).Error("Failed to decode request")
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		raw, _ := rawValue(req.Value)
		render.JSON(w, r, CountResponse{Count: ctrl.SetCount(raw)})
	}
}

// HandleListJournal lists recorded commands, newest first. limit=0 or an
// absent limit returns everything kept.
func HandleListJournal(ctrl Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				http.Error(w, "Invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		records, err := ctrl.Journal(r.Context(), limit)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to list journal")
			http.Error(w, "Failed to list journal", http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []core.CommandRecord{}
		}
		render.JSON(w, r, records)
	}
}

// rawValue turns a JSON string or number into selector text. ok is false
// when the value is absent or null.
func rawValue(msg json.RawMessage) (string, bool) {
	if len(msg) == 0 || string(msg) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s, true
	}
	return string(msg), true
}

func renderSuccess(w http.ResponseWriter, r *http.Request, ctrl Controller, result core.CommandResult) {
	render.JSON(w, r, CommandResponse{
		Success:     true,
		Message:     result.Message,
		BookedRooms: result.BookedRooms,
		View:        ctrl.View(),
	})
}

func renderFailure(w http.ResponseWriter, r *http.Request, ctrl Controller, result core.CommandResult, err error, fallback string) {
	status := http.StatusInternalServerError
	switch {
	case core.IsRejected(err):
		status = http.StatusConflict
	case core.IsConnectivity(err):
		status = http.StatusBadGateway
	}

	render.Status(r, status)
	render.JSON(w, r, CommandResponse{
		Success:     false,
		Message:     core.UserMessage(err, fallback),
		BookedRooms: result.BookedRooms,
		View:        ctrl.View(),
	})
}
