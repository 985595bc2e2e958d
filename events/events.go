package events

import (
	"context"
	"sync"

	"fanpool/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange         EventType = "balance_change"
	EventTypeAccountOpened         EventType = "account_opened"
	EventTypeStakeCreated          EventType = "stake_created"
	EventTypeStakeCancelled        EventType = "stake_cancelled"
	EventTypeStakeSettled          EventType = "stake_settled"
	EventTypePoolInjected          EventType = "pool_injected"
	EventTypeParticipationRecorded EventType = "participation_recorded"
	EventTypeScanRejected          EventType = "scan_rejected"
	EventTypeEventSettled          EventType = "event_settled"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID          int64                  `json:"user_id"`
	OldBalance      decimal.Decimal        `json:"old_balance"`
	NewBalance      decimal.Decimal        `json:"new_balance"`
	TransactionType models.TransactionType `json:"transaction_type"`
	ChangeAmount    decimal.Decimal        `json:"change_amount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// AccountOpenedEvent represents a new ledger account
type AccountOpenedEvent struct {
	UserID         int64           `json:"user_id"`
	Username       string          `json:"username"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

func (e AccountOpenedEvent) Type() EventType {
	return EventTypeAccountOpened
}

// StakeCreatedEvent represents a stake that was placed
type StakeCreatedEvent struct {
	StakeID    int64           `json:"stake_id"`
	UserID     int64           `json:"user_id"`
	EventID    int64           `json:"event_id"`
	Amount     decimal.Decimal `json:"amount"`
	Tier       int             `json:"tier"`
	TeamChoice models.TeamSide `json:"team_choice"`
}

func (e StakeCreatedEvent) Type() EventType {
	return EventTypeStakeCreated
}

// StakeCancelledEvent represents a stake withdrawn before kickoff
type StakeCancelledEvent struct {
	StakeID int64           `json:"stake_id"`
	UserID  int64           `json:"user_id"`
	EventID int64           `json:"event_id"`
	Refund  decimal.Decimal `json:"refund"`
}

func (e StakeCancelledEvent) Type() EventType {
	return EventTypeStakeCancelled
}

// StakeSettledEvent represents the payout of one stake
type StakeSettledEvent struct {
	StakeID     int64           `json:"stake_id"`
	UserID      int64           `json:"user_id"`
	EventID     int64           `json:"event_id"`
	FinalReward decimal.Decimal `json:"final_reward"`
	FeeAmount   decimal.Decimal `json:"fee_amount"`
}

func (e StakeSettledEvent) Type() EventType {
	return EventTypeStakeSettled
}

// PoolInjectedEvent represents an admin funding an event's reward pool
type PoolInjectedEvent struct {
	InjectionID int64           `json:"injection_id"`
	EventID     int64           `json:"event_id"`
	EventTitle  string          `json:"event_title"`
	AdminID     int64           `json:"admin_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
}

func (e PoolInjectedEvent) Type() EventType {
	return EventTypePoolInjected
}

// ParticipationRecordedEvent represents a successful access-token scan
type ParticipationRecordedEvent struct {
	ParticipationID   int64                    `json:"participation_id"`
	UserID            int64                    `json:"user_id"`
	EventID           int64                    `json:"event_id"`
	ParticipationType models.ParticipationType `json:"participation_type"`
	Tier              int                      `json:"tier"`
	PerkStatus        models.PerkStatus        `json:"perk_status"`
	WaitlistPosition  *int                     `json:"waitlist_position,omitempty"`
}

func (e ParticipationRecordedEvent) Type() EventType {
	return EventTypeParticipationRecorded
}

// ScanRejectedEvent represents a scan attempt that did not produce a participation
type ScanRejectedEvent struct {
	UserID  int64              `json:"user_id"`
	Token   string             `json:"token"`
	Outcome models.ScanOutcome `json:"outcome"`
	Reason  string             `json:"reason"`
}

func (e ScanRejectedEvent) Type() EventType {
	return EventTypeScanRejected
}

// EventSettledEvent represents a completed settlement pass
type EventSettledEvent struct {
	EventID             int64           `json:"event_id"`
	EventTitle          string          `json:"event_title"`
	ParticipantsSettled int             `json:"participants_settled"`
	TotalRewardsPaid    decimal.Decimal `json:"total_rewards_paid"`
	TotalFeesCollected  decimal.Decimal `json:"total_fees_collected"`
	Failures            int             `json:"failures"`
	EventCompleted      bool            `json:"event_completed"`
}

func (e EventSettledEvent) Type() EventType {
	return EventTypeEventSettled
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu          sync.RWMutex
	handlers    map[EventType][]Handler
	allHandlers []Handler
	inflight    sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type on main event bus")
}

// SubscribeAll adds a handler that receives every event type
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.allHandlers = append(b.allHandlers, handler)
}

// Emit publishes an event to all registered handlers. Handlers run asynchronously.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event.Type()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.Type()]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers on main event bus")

	for i, handler := range handlers {
		b.inflight.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Wait blocks until every handler started by Emit has returned or ctx is done
func (b *Bus) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TransactionalBus holds events raised inside a unit of work until the
// transaction commits, then forwards them to the main bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish stashes an event until Flush
func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Flush is called after a successful commit
func (b *TransactionalBus) Flush(ctx context.Context) {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing pending events to main event bus")

	// Handlers outlive the request, so they must not inherit its cancellation
	eventCtx := context.WithoutCancel(ctx)

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops pending events after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

// Pending returns the number of events waiting for Flush
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}
