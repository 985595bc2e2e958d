package service

import (
	"context"
	"fmt"

	"fanpool/events"
	"fanpool/models"
)

// RecordBalanceChange records a balance history entry and publishes the matching
// events. Every balance mutation goes through here inside the same unit of work
// as the mutation itself.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, history *models.BalanceHistory) error {
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          history.UserID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		TransactionType: history.TransactionType,
		ChangeAmount:    history.ChangeAmount,
	})

	if history.TransactionType == models.TransactionTypeInitial {
		username, _ := history.TransactionMetadata["username"].(string)
		uow.EventBus().Publish(events.AccountOpenedEvent{
			UserID:         history.UserID,
			Username:       username,
			InitialBalance: history.BalanceAfter,
		})
	}

	return nil
}

func relatedRef(id int64, relatedType models.RelatedType) (*int64, *models.RelatedType) {
	return &id, &relatedType
}
