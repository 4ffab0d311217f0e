// internal/app/system/events/events.go
package events

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UserAdmitted is published after a user's admission decision flips to
// admitted, whether by reviewer quorum or by team propagation.
type UserAdmitted struct {
	UserID   primitive.ObjectID
	TeamCode string
}

// TeamMembershipChanged is published after a user joins an active team.
type TeamMembershipChanged struct {
	TeamCode string
}

// VoteRecorded is published after a reviewer's ballot lands.
type VoteRecorded struct {
	UserID   primitive.ObjectID
	Reviewer string
	NumVotes int
}

// Handler receives published events. Handlers run on the dispatcher
// goroutine; anything slow should spin off its own work.
type Handler func(ctx context.Context, event any)

// Dispatcher fans published events out to subscribed handlers from a
// single background goroutine, keeping publishers decoupled from the
// packages that react to them.
type Dispatcher struct {
	log *zap.Logger

	mu       sync.RWMutex
	handlers []Handler

	ch     chan any
	stopCh chan struct{}
	wg     sync.WaitGroup

	// synchronous delivery, used in tests so assertions can run
	// immediately after Publish returns
	inline bool
}

// deliverTimeout bounds one handler pass over a single event.
const deliverTimeout = 30 * time.Second

// NewDispatcher creates a dispatcher with the given event buffer.
// Start must be called before events flow.
func NewDispatcher(logger *zap.Logger, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	return &Dispatcher{
		log:    logger,
		ch:     make(chan any, buffer),
		stopCh: make(chan struct{}),
	}
}

// NewSyncDispatcher creates a dispatcher that delivers events inline on
// the publishing goroutine. No Start/Stop needed.
func NewSyncDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{log: logger, inline: true}
}

// Subscribe registers a handler for all subsequent events.
func (d *Dispatcher) Subscribe(h Handler) {
	d.mu.Lock()
	d.handlers = append(d.handlers, h)
	d.mu.Unlock()
}

// Publish hands an event to the dispatcher. When the buffer is full the
// event is dropped with a log line rather than blocking the caller.
func (d *Dispatcher) Publish(event any) {
	if d.inline {
		d.deliver(event)
		return
	}
	select {
	case d.ch <- event:
	default:
		d.log.Warn("event dropped, dispatch buffer full",
			zap.String("event", eventName(event)))
	}
}

// Start begins the background delivery loop.
func (d *Dispatcher) Start() {
	if d.inline {
		return
	}
	d.wg.Add(1)
	go d.run()
	d.log.Info("event dispatcher started", zap.Int("buffer", cap(d.ch)))
}

// Stop drains buffered events, then shuts the loop down.
func (d *Dispatcher) Stop() {
	if d.inline {
		return
	}
	close(d.stopCh)
	d.wg.Wait()
	d.log.Info("event dispatcher stopped")
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case <-d.stopCh:
			for {
				select {
				case ev := <-d.ch:
					d.deliver(ev)
				default:
					return
				}
			}
		case ev := <-d.ch:
			d.deliver(ev)
		}
	}
}

func (d *Dispatcher) deliver(event any) {
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	d.mu.RLock()
	handlers := d.handlers
	d.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, event)
	}
}

func eventName(event any) string {
	switch event.(type) {
	case UserAdmitted:
		return "user_admitted"
	case TeamMembershipChanged:
		return "team_membership_changed"
	case VoteRecorded:
		return "vote_recorded"
	}
	return "unknown"
}
