package infrastructure

import (
	"fmt"

	"fanpool/events"
)

// EventSubjectMapper maps domain events to NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject returns the NATS subject for an event
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeStakeCreated:
		return "fanpool.stakes.created"
	case events.EventTypeStakeCancelled:
		return "fanpool.stakes.cancelled"
	case events.EventTypeStakeSettled:
		return "fanpool.stakes.settled"
	case events.EventTypeBalanceChange:
		return "fanpool.ledger.balance_changed"
	case events.EventTypeAccountOpened:
		return "fanpool.ledger.account_opened"
	case events.EventTypePoolInjected:
		return "fanpool.pools.injected"
	case events.EventTypeParticipationRecorded:
		return "fanpool.participation.recorded"
	case events.EventTypeScanRejected:
		return "fanpool.participation.rejected"
	case events.EventTypeEventSettled:
		return "fanpool.events.settled"
	default:
		return fmt.Sprintf("fanpool.unknown.%s", event.Type())
	}
}
