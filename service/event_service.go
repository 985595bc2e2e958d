package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fanpool/models"

	log "github.com/sirupsen/logrus"
)

// RegisterEventRequest is the intake of a match produced by the approval workflow
type RegisterEventRequest struct {
	Title         string
	HomeTeam      models.Team
	AwayTeam      models.Team
	StartTime     time.Time
	EndTime       time.Time
	PartyCapacity int
	Approved      bool
}

type eventService struct {
	uowFactory UnitOfWorkFactory
}

// NewEventService creates a new event service
func NewEventService(uowFactory UnitOfWorkFactory) EventService {
	return &eventService{uowFactory: uowFactory}
}

// RegisterEvent stores a match as scheduled, or approved when the workflow already approved it
func (s *eventService) RegisterEvent(ctx context.Context, req RegisterEventRequest) (*models.Event, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrInvalidRequest.WithMessagef("title is required")
	}
	if req.HomeTeam.Code == "" || req.AwayTeam.Code == "" {
		return nil, ErrInvalidRequest.WithMessagef("both team codes are required")
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, ErrInvalidEventWindow
	}
	if req.PartyCapacity < 0 {
		return nil, ErrInvalidRequest.WithMessagef("party capacity must not be negative")
	}

	status := models.EventStatusScheduled
	if req.Approved {
		status = models.EventStatusApproved
	}

	event := &models.Event{
		Title:         strings.TrimSpace(req.Title),
		HomeTeam:      req.HomeTeam,
		AwayTeam:      req.AwayTeam,
		StartTime:     req.StartTime.UTC(),
		EndTime:       req.EndTime.UTC(),
		Status:        status,
		PartyCapacity: req.PartyCapacity,
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.EventRepository().Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"eventID": event.ID,
		"status":  event.Status,
	}).Info("Registered event")

	return event, nil
}

// ApproveEvent records the approval outcome of the external workflow
func (s *eventService) ApproveEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	event, err := uow.EventRepository().GetForUpdate(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	if event.Status != models.EventStatusScheduled {
		return nil, ErrInvalidStatusTransition.
			WithMessagef("cannot approve event in status %s", event.Status).
			WithDetail("status", string(event.Status))
	}

	if err := uow.EventRepository().UpdateStatus(ctx, eventID, models.EventStatusApproved); err != nil {
		return nil, fmt.Errorf("failed to approve event: %w", err)
	}
	event.Status = models.EventStatusApproved

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return event, nil
}

// ReportResult stores the final result supplied by the external result source.
// The event moves to live; settlement completes it.
func (s *eventService) ReportResult(ctx context.Context, eventID int64, winner models.TeamSide, score *models.Score) (*models.Event, error) {
	if !winner.Valid() && winner != models.TeamDraw {
		return nil, ErrInvalidTeam.WithMessagef("winner must be home, away or draw")
	}
	if score != nil && (score.Home < 0 || score.Away < 0) {
		return nil, ErrInvalidRequest.WithMessagef("score must not be negative")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	event, err := uow.EventRepository().GetForUpdate(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	switch event.Status {
	case models.EventStatusApproved, models.EventStatusPreMatch, models.EventStatusLive:
	default:
		return nil, ErrInvalidStatusTransition.
			WithMessagef("cannot report a result for event in status %s", event.Status).
			WithDetail("status", string(event.Status))
	}

	if err := uow.EventRepository().SetResult(ctx, eventID, winner, score); err != nil {
		return nil, fmt.Errorf("failed to store result: %w", err)
	}
	if event.Status != models.EventStatusLive {
		if err := uow.EventRepository().UpdateStatus(ctx, eventID, models.EventStatusLive); err != nil {
			return nil, fmt.Errorf("failed to update event status: %w", err)
		}
		event.Status = models.EventStatusLive
	}
	event.WinningTeam = &winner
	event.FinalScore = score

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"eventID": eventID,
		"winner":  winner,
	}).Info("Recorded match result")

	return event, nil
}

// GetEvent returns a single event
func (s *eventService) GetEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	event, err := uow.EventRepository().GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}
