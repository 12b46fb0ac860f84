package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hotel-panel/core"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultTimeout = 10 * time.Second

// maxBodySize caps how much of a response is read. A full hotel listing is a few KB.
const maxBodySize = 1 << 20

type (
	response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	roomListResponse struct {
		response
		Rooms []core.Room `json:"rooms"`
	}

	bookingResponse struct {
		response
		BookedRooms []core.Room `json:"bookedRooms"`
	}

	bookingRequest struct {
		RoomCount int `json:"roomCount"`
	}
)

// Client speaks the booking service's JSON contract. baseURL points at the
// rooms collection, e.g. http://localhost:8080/api/rooms.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout. A client passed with
// WithHTTPClient is copied, never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

func (c *Client) ListRooms(ctx context.Context) ([]core.Room, error) {
	const op = "list rooms"

	var resp roomListResponse
	if err := c.do(ctx, op, http.MethodGet, "", nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &core.OperationRejected{Op: op, Reason: resp.Message}
	}
	if resp.Rooms == nil {
		return nil, &core.ConnectivityError{Op: op, Err: errors.New("response has no rooms array")}
	}
	return resp.Rooms, nil
}

// BookRooms asks for exactly count rooms and returns the rooms the service booked.
func (c *Client) BookRooms(ctx context.Context, count int) ([]core.Room, error) {
	const op = "book rooms"

	var resp bookingResponse
	if err := c.do(ctx, op, http.MethodPost, "/book", bookingRequest{RoomCount: count}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &core.OperationRejected{Op: op, Reason: resp.Message}
	}
	if resp.BookedRooms == nil {
		return []core.Room{}, nil
	}
	return resp.BookedRooms, nil
}

// BookRandom lets the service pick which rooms to book. The service does not
// report the rooms it picked.
func (c *Client) BookRandom(ctx context.Context) error {
	return c.command(ctx, "random booking", "/random")
}

func (c *Client) ResetAll(ctx context.Context) error {
	return c.command(ctx, "reset", "/reset")
}

func (c *Client) command(ctx context.Context, op, path string) error {
	var resp response
	if err := c.do(ctx, op, http.MethodPost, path, nil, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &core.OperationRejected{Op: op, Reason: resp.Message}
	}
	return nil
}

// do performs the request and decodes the JSON body into out whatever the
// status code: the service reports rejections as 4xx/5xx with a JSON body.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	url := c.baseURL + path
	log := logrus.WithFields(logrus.Fields{
		"op":     op,
		"method": method,
		"url":    url,
	})

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &core.ConnectivityError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Warn("Booking service request failed")
		return &core.ConnectivityError{Op: op, Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.WithError(cerr).Debug("Failed to close response body")
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		log.WithError(err).Warn("Failed to read booking service response")
		return &core.ConnectivityError{Op: op, Err: err}
	}

	log = log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if err := json.Unmarshal(data, out); err != nil {
		log.WithError(err).Warn("Malformed booking service response")
		return &core.ConnectivityError{Op: op, Err: fmt.Errorf("malformed response (status %d): %w", resp.StatusCode, err)}
	}

	log.Debug("Booking service responded")
	return nil
}
