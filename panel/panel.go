package panel

import (
	"context"
	"fmt"
	"hotel-panel/clock"
	"hotel-panel/core"
	"hotel-panel/highlight"
	"hotel-panel/inventory"
	"hotel-panel/view"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	msgLoadFailed   = "Failed to load rooms"
	msgBookFailed   = "Failed to book rooms"
	msgRandomFailed = "Failed to perform random booking"
	msgResetFailed  = "Failed to reset rooms"

	msgRandomDone = "Random booking completed!"
	msgResetDone  = "All rooms have been reset to available!"
	msgRefreshed  = "Rooms refreshed"
)

// Panel is the reservation client: it issues commands to the booking service
// and keeps the inventory cache, highlight tracker and count selector in step.
//
// Commands may overlap. Each one runs to completion on its own; the inventory
// shown is whatever the last refresh to resolve returned (or the newest issued
// one when the stale guard is on).
type Panel struct {
	svc      core.BookingService
	cache    *inventory.Cache
	tracker  *highlight.Tracker
	sched    clock.Scheduler
	notifier core.Notifier
	journal  core.Journal

	mu      sync.Mutex
	count   int
	loading bool
}

type options struct {
	sched      clock.Scheduler
	ttl        time.Duration
	notifier   core.Notifier
	journal    core.Journal
	staleGuard bool
}

type Option func(*options)

func WithScheduler(s clock.Scheduler) Option {
	return func(o *options) { o.sched = s }
}

func WithHighlightTTL(d time.Duration) Option {
	return func(o *options) { o.ttl = d }
}

func WithNotifier(n core.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

func WithJournal(j core.Journal) Option {
	return func(o *options) { o.journal = j }
}

func WithStaleGuard(enabled bool) Option {
	return func(o *options) { o.staleGuard = enabled }
}

func New(svc core.BookingService, opts ...Option) *Panel {
	o := options{
		sched:    clock.NewSystem(),
		ttl:      highlight.DefaultTTL,
		notifier: core.NopNotifier{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	var cacheOpts []inventory.Option
	if o.staleGuard {
		cacheOpts = append(cacheOpts, inventory.WithStaleGuard())
	}

	p := &Panel{
		svc:      svc,
		cache:    inventory.New(svc, cacheOpts...),
		sched:    o.sched,
		notifier: o.notifier,
		journal:  o.journal,
		count:    DefaultCount,
		loading:  true,
	}
	p.tracker = highlight.New(o.sched, o.ttl, p.publish)
	return p
}

// RefreshAll reloads the inventory. On failure the cached inventory is kept
// and the user is notified.
func (p *Panel) RefreshAll(ctx context.Context) error {
	err := p.refresh(ctx)
	if err != nil {
		p.fail(ctx, core.CommandRecord{Command: core.CommandRefresh}, err, msgLoadFailed)
		return err
	}
	p.record(ctx, core.CommandRecord{Command: core.CommandRefresh, Success: true, Message: msgRefreshed})
	return nil
}

// BookByCount books exactly n rooms. The rooms the service booked are
// highlighted before the inventory is refreshed.
func (p *Panel) BookByCount(ctx context.Context, n int) (core.CommandResult, error) {
	rec := core.CommandRecord{Command: core.CommandBook, RoomCount: n}

	booked, err := p.svc.BookRooms(ctx, n)
	if err != nil {
		p.fail(ctx, rec, err, msgBookFailed)
		return core.CommandResult{}, fmt.Errorf("book %d rooms: %w", n, err)
	}

	ids := core.NewRoomSet(core.RoomNumbers(booked)...)
	p.tracker.MarkNew(ids)
	p.publish()

	result := core.CommandResult{
		Command:     core.CommandBook,
		RoomCount:   n,
		BookedRooms: ids.Sorted(),
		Message:     fmt.Sprintf("Successfully booked %d room(s)!", len(booked)),
	}
	rec.BookedRooms = result.BookedRooms
	return p.complete(ctx, rec, result)
}

// Book books as many rooms as the count selector currently holds.
func (p *Panel) Book(ctx context.Context) (core.CommandResult, error) {
	return p.BookByCount(ctx, p.Count())
}

// BookRandom asks the service to book rooms of its choosing. The service does
// not say which, so nothing is highlighted.
func (p *Panel) BookRandom(ctx context.Context) (core.CommandResult, error) {
	rec := core.CommandRecord{Command: core.CommandRandom}

	if err := p.svc.BookRandom(ctx); err != nil {
		p.fail(ctx, rec, err, msgRandomFailed)
		return core.CommandResult{}, fmt.Errorf("random booking: %w", err)
	}
	return p.complete(ctx, rec, core.CommandResult{Command: core.CommandRandom, Message: msgRandomDone})
}

// ResetAll makes every room available again and drops any highlight.
func (p *Panel) ResetAll(ctx context.Context) (core.CommandResult, error) {
	rec := core.CommandRecord{Command: core.CommandReset}

	if err := p.svc.ResetAll(ctx); err != nil {
		p.fail(ctx, rec, err, msgResetFailed)
		return core.CommandResult{}, fmt.Errorf("reset: %w", err)
	}

	p.tracker.Clear()
	p.publish()
	return p.complete(ctx, rec, core.CommandResult{Command: core.CommandReset, Message: msgResetDone})
}

// SetCount stores the selector value parsed from raw and returns it.
func (p *Panel) SetCount(raw string) int {
	n := ParseCount(raw)

	p.mu.Lock()
	p.count = n
	p.mu.Unlock()

	p.publish()
	return n
}

func (p *Panel) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// View is the current render-ready state.
func (p *Panel) View() core.View {
	rooms := p.cache.Current()
	hl := p.tracker.Current()

	p.mu.Lock()
	count, loading := p.count, p.loading
	p.mu.Unlock()

	return view.Build(rooms, hl, count, loading)
}

// Rooms is the raw inventory snapshot, without highlight decoration.
func (p *Panel) Rooms() []core.Room {
	return p.cache.Current()
}

func (p *Panel) Highlighted() core.RoomSet {
	return p.tracker.Current()
}

// Journal lists recorded commands, newest first.
func (p *Panel) Journal(ctx context.Context, limit int) ([]core.CommandRecord, error) {
	if p.journal == nil {
		return []core.CommandRecord{}, nil
	}
	return p.journal.List(ctx, limit)
}

// refresh reloads the cache and ends the initial loading state either way.
func (p *Panel) refresh(ctx context.Context) error {
	err := p.cache.Refresh(ctx)

	p.mu.Lock()
	wasLoading := p.loading
	p.loading = false
	p.mu.Unlock()

	if err == nil || wasLoading {
		p.publish()
	}
	return err
}

// complete runs the refresh that follows a successful command. The command
// itself already took effect server-side, so a failed refresh is reported
// without undoing the highlight.
func (p *Panel) complete(ctx context.Context, rec core.CommandRecord, result core.CommandResult) (core.CommandResult, error) {
	rec.Success = true

	if err := p.refresh(ctx); err != nil {
		msg := core.UserMessage(err, msgLoadFailed)
		rec.Message = msg
		p.record(ctx, rec)
		p.notifier.Notify(core.Notification{Level: core.LevelError, Message: msg})
		return result, fmt.Errorf("%s: refresh after command: %w", rec.Command, err)
	}

	rec.Message = result.Message
	p.record(ctx, rec)
	p.notifier.Notify(core.Notification{Level: core.LevelInfo, Message: result.Message})

	logrus.WithFields(logrus.Fields{
		"command": rec.Command,
		"rooms":   rec.BookedRooms,
	}).Info(result.Message)
	return result, nil
}

func (p *Panel) fail(ctx context.Context, rec core.CommandRecord, err error, fallback string) {
	msg := core.UserMessage(err, fallback)
	rec.Message = msg
	p.record(ctx, rec)

	logrus.WithFields(logrus.Fields{
		"command": rec.Command,
		"error":   err,
	}).Warn("Command failed")
	p.notifier.Notify(core.Notification{Level: core.LevelError, Message: msg})
}

func (p *Panel) record(ctx context.Context, rec core.CommandRecord) {
	if p.journal == nil {
		return
	}
	rec.At = p.sched.Now()
	if err := p.journal.Append(ctx, rec); err != nil {
		logrus.WithError(err).WithField("command", rec.Command).Warn("Failed to record command")
	}
}

func (p *Panel) publish() {
	p.notifier.ViewChanged(p.View())
}
