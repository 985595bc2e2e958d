package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"fanpool/events"
	"fanpool/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// scanWindow is the trailing window the per-token scan limit applies to
const scanWindow = time.Hour

// ScanRequest is a user's scan of an event access token
type ScanRequest struct {
	UserID            int64
	Token             string
	ParticipationType models.ParticipationType
	ClientMetadata    models.ClientMetadata
}

// ScanResult is the participation produced or found by a scan
type ScanResult struct {
	ParticipationID     int64                       `json:"participation_id"`
	EventID             int64                       `json:"event_id"`
	Tier                int                         `json:"tier"`
	TierMultiplier      decimal.Decimal             `json:"tier_multiplier"`
	PerkStatus          models.PerkStatus           `json:"perk_status"`
	PerkDetail          string                      `json:"perk_detail,omitempty"`
	WaitlistPosition    *int                        `json:"waitlist_position,omitempty"`
	AlreadyParticipated bool                        `json:"already_participated"`
	Record              *models.ParticipationRecord `json:"-"`
}

// TokenInfo describes an access token and the participation it has produced
type TokenInfo struct {
	Token             string                      `json:"token"`
	EventID           int64                       `json:"event_id"`
	ValidFrom         time.Time                   `json:"valid_from"`
	ValidUntil        time.Time                   `json:"valid_until"`
	State             models.TokenState           `json:"state"`
	IsActive          bool                        `json:"is_active"`
	MaxScansPerHour   int                         `json:"max_scans_per_hour"`
	ScanCount         int                         `json:"scan_count"`
	SuccessCount      int                         `json:"success_count"`
	Perk              models.PerkStats            `json:"perk"`
	UserParticipation *models.ParticipationRecord `json:"user_participation,omitempty"`
}

// IssueTokenRequest creates a time-boxed access token for an event
type IssueTokenRequest struct {
	EventID         int64
	ValidFrom       time.Time
	ValidUntil      time.Time
	MaxScansPerHour int
}

// ParticipationTierRule is the tier a participation type earns
type ParticipationTierRule struct {
	Tier       int
	Multiplier decimal.Decimal
}

// ParticipationConfig holds the allocator settings
type ParticipationConfig struct {
	Tiers                  map[models.ParticipationType]ParticipationTierRule
	DefaultMaxScansPerHour int
}

type participationService struct {
	uowFactory UnitOfWorkFactory
	limiter    ScanLimiter
	config     ParticipationConfig
	now        func() time.Time
}

// NewParticipationService creates a new participation allocator. limiter may
// be nil, in which case the scan audit log is used to enforce the rate limit.
func NewParticipationService(uowFactory UnitOfWorkFactory, limiter ScanLimiter, config ParticipationConfig) ParticipationService {
	return &participationService{
		uowFactory: uowFactory,
		limiter:    limiter,
		config:     config,
		now:        time.Now,
	}
}

// scanRejection is a failed scan that still has to be audited
type scanRejection struct {
	token   *models.AccessToken
	outcome models.ScanOutcome
	err     *Error
}

// Scan validates an access token and records the user's participation,
// allocating a party slot or waitlist position when requested
func (s *participationService) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	if !req.ParticipationType.Valid() {
		return nil, ErrInvalidParticipationType.WithDetail("participation_type", string(req.ParticipationType))
	}
	if req.Token == "" {
		return nil, ErrInvalidToken.WithMessagef("token is required")
	}
	if req.UserID <= 0 {
		return nil, ErrInvalidRequest.WithMessagef("user id must be positive")
	}
	if _, ok := s.config.Tiers[req.ParticipationType]; !ok {
		return nil, ErrInvalidParticipationType.WithMessagef("no tier configured for %s", req.ParticipationType)
	}
	if !utf8.ValidString(req.Token) || utf8.RuneCountInString(req.Token) > models.MaxTokenLength {
		rejection := &scanRejection{outcome: models.ScanOutcomeInvalid, err: ErrInvalidToken.WithMessagef("access token is malformed")}
		s.recordRejection(ctx, req, rejection)
		return nil, rejection.err
	}

	result, rejection, err := s.scan(ctx, req)
	if err != nil {
		if errors.Is(err, ErrAlreadyParticipated) {
			// A concurrent scan inserted the record first
			return s.scanDuplicateAfterRace(ctx, req)
		}
		return nil, err
	}
	if rejection != nil {
		s.recordRejection(ctx, req, rejection)
		return nil, rejection.err
	}
	return result, nil
}

func (s *participationService) scan(ctx context.Context, req ScanRequest) (*ScanResult, *scanRejection, error) {
	now := s.now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	token, err := uow.AccessTokenRepository().GetByToken(ctx, req.Token)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get access token: %w", err)
	}
	if token == nil {
		return nil, &scanRejection{outcome: models.ScanOutcomeInvalid, err: ErrInvalidToken}, nil
	}
	if !token.IsActive {
		return nil, &scanRejection{token: token, outcome: models.ScanOutcomeInactive, err: ErrTokenInactive}, nil
	}
	switch token.StateAt(now) {
	case models.TokenStateNotYetValid:
		return nil, &scanRejection{token: token, outcome: models.ScanOutcomeNotYetValid,
			err: ErrTokenNotYetValid.WithDetail("valid_from", token.ValidFrom.UTC().Format(time.RFC3339))}, nil
	case models.TokenStateExpired:
		return nil, &scanRejection{token: token, outcome: models.ScanOutcomeExpired,
			err: ErrTokenExpired.WithDetail("valid_until", token.ValidUntil.UTC().Format(time.RFC3339))}, nil
	}

	event, err := uow.EventRepository().GetByID(ctx, token.EventID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil || !event.Status.AcceptsScans() {
		rejection := &scanRejection{token: token, outcome: models.ScanOutcomeInvalid, err: ErrEventNotApproved}
		if event != nil {
			rejection.err = ErrEventNotApproved.WithDetail("status", string(event.Status))
		}
		return nil, rejection, nil
	}

	release, allowed, retryAfter, err := s.allowScan(ctx, uow, req.UserID, token, now)
	if err != nil {
		return nil, nil, err
	}
	// An admitted slot only counts once the scan commits
	committed := false
	if release != nil {
		defer func() {
			if !committed {
				release()
			}
		}()
	}
	if !allowed {
		return nil, &scanRejection{token: token, outcome: models.ScanOutcomeRateLimited,
			err: ErrRateLimited.WithRetryAfter(retryAfter).
				WithDetail("max_scans_per_hour", fmt.Sprintf("%d", s.scanLimit(token)))}, nil
	}

	existing, err := uow.ParticipationRepository().GetByUserAndEvent(ctx, req.UserID, token.EventID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check existing participation: %w", err)
	}
	if existing != nil {
		result, err := s.recordDuplicate(ctx, uow, req, token, existing)
		committed = err == nil
		return result, nil, err
	}

	rule := s.config.Tiers[req.ParticipationType]
	record := &models.ParticipationRecord{
		UserID:            req.UserID,
		EventID:           token.EventID,
		AccessTokenID:     token.ID,
		ParticipationType: req.ParticipationType,
		Tier:              rule.Tier,
		TierMultiplier:    rule.Multiplier,
		PerkStatus:        models.PerkStatusNotApplicable,
		ClientMetadata:    req.ClientMetadata,
	}

	if req.ParticipationType.WantsPerk() {
		claim, capacity, err := uow.EventRepository().ClaimPartySlot(ctx, token.EventID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to claim party slot: %w", err)
		}
		if claim <= capacity {
			record.PerkStatus = models.PerkStatusAllocated
		} else {
			position := claim - capacity
			record.PerkStatus = models.PerkStatusWaitlist
			record.WaitlistPosition = &position
		}
	}

	if err := uow.ParticipationRepository().Create(ctx, record); err != nil {
		return nil, nil, fmt.Errorf("failed to create participation record: %w", err)
	}
	if err := uow.AccessTokenRepository().IncrementScanCount(ctx, token.ID); err != nil {
		return nil, nil, fmt.Errorf("failed to count scan: %w", err)
	}
	if err := uow.AccessTokenRepository().IncrementSuccessCount(ctx, token.ID); err != nil {
		return nil, nil, fmt.Errorf("failed to count successful scan: %w", err)
	}
	if err := uow.ScanLogRepository().Record(ctx, &models.ScanLog{
		AccessTokenID: &token.ID,
		Token:         token.Token,
		UserID:        req.UserID,
		Outcome:       models.ScanOutcomeSuccess,
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to record scan: %w", err)
	}

	uow.EventBus().Publish(events.ParticipationRecordedEvent{
		ParticipationID:   record.ID,
		UserID:            record.UserID,
		EventID:           record.EventID,
		ParticipationType: record.ParticipationType,
		Tier:              record.Tier,
		PerkStatus:        record.PerkStatus,
		WaitlistPosition:  record.WaitlistPosition,
	})

	if err := uow.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	log.WithFields(log.Fields{
		"userID":          req.UserID,
		"eventID":         record.EventID,
		"participationID": record.ID,
		"tier":            record.Tier,
		"perkStatus":      record.PerkStatus,
	}).Info("Participation recorded")

	return newScanResult(record, false), nil, nil
}

// allowScan applies the per-user, per-token rate limit. release is non-nil
// when the limiter holds a slot that must be handed back if the scan fails.
func (s *participationService) allowScan(ctx context.Context, uow UnitOfWork, userID int64, token *models.AccessToken, now time.Time) (func(), bool, time.Duration, error) {
	limit := s.scanLimit(token)

	if s.limiter != nil {
		key := fmt.Sprintf("scan:%d:%d", userID, token.ID)
		release, allowed, retryAfter, err := s.limiter.Allow(ctx, key, limit, scanWindow)
		if err == nil {
			return release, allowed, retryAfter, nil
		}
		log.WithError(err).WithField("key", key).Warn("Scan limiter unavailable, counting scan log instead")
	}

	count, oldest, err := uow.ScanLogRepository().CountAdmittedSince(ctx, userID, token.ID, now.Add(-scanWindow))
	if err != nil {
		return nil, false, 0, fmt.Errorf("failed to count recent scans: %w", err)
	}
	if count < limit {
		return nil, true, 0, nil
	}
	retryAfter := scanWindow
	if oldest != nil {
		retryAfter = oldest.Add(scanWindow).Sub(now)
	}
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	return nil, false, retryAfter, nil
}

func (s *participationService) scanLimit(token *models.AccessToken) int {
	if token.MaxScansPerHour > 0 {
		return token.MaxScansPerHour
	}
	return s.config.DefaultMaxScansPerHour
}

// recordDuplicate audits a repeated scan and commits; the existing record is returned unchanged
func (s *participationService) recordDuplicate(ctx context.Context, uow UnitOfWork, req ScanRequest, token *models.AccessToken, existing *models.ParticipationRecord) (*ScanResult, error) {
	if err := uow.AccessTokenRepository().IncrementScanCount(ctx, token.ID); err != nil {
		return nil, fmt.Errorf("failed to count scan: %w", err)
	}
	if err := uow.ScanLogRepository().Record(ctx, &models.ScanLog{
		AccessTokenID: &token.ID,
		Token:         token.Token,
		UserID:        req.UserID,
		Outcome:       models.ScanOutcomeDuplicate,
		Reason:        fmt.Sprintf("participation %d already recorded", existing.ID),
	}); err != nil {
		return nil, fmt.Errorf("failed to record scan: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":          req.UserID,
		"eventID":         existing.EventID,
		"participationID": existing.ID,
	}).Debug("Duplicate scan returned existing participation")

	return newScanResult(existing, true), nil
}

func (s *participationService) scanDuplicateAfterRace(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	token, err := uow.AccessTokenRepository().GetByToken(ctx, req.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}
	if token == nil {
		return nil, ErrInvalidToken
	}
	existing, err := uow.ParticipationRepository().GetByUserAndEvent(ctx, req.UserID, token.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}
	if existing == nil {
		return nil, ErrAlreadyParticipated
	}
	return s.recordDuplicate(ctx, uow, req, token, existing)
}

// recordRejection writes the audit trail of a failed scan in its own transaction
func (s *participationService) recordRejection(ctx context.Context, req ScanRequest, rejection *scanRejection) {
	logger := log.WithFields(log.Fields{
		"userID":  req.UserID,
		"outcome": rejection.outcome,
		"code":    rejection.err.Code,
	})

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		logger.WithError(err).Error("Failed to begin scan audit transaction")
		return
	}
	defer uow.Rollback()

	token := auditToken(req.Token)
	entry := &models.ScanLog{
		Token:   token,
		UserID:  req.UserID,
		Outcome: rejection.outcome,
		Reason:  rejection.err.Message,
	}
	if rejection.token != nil {
		entry.AccessTokenID = &rejection.token.ID
		if err := uow.AccessTokenRepository().IncrementScanCount(ctx, rejection.token.ID); err != nil {
			logger.WithError(err).Error("Failed to count rejected scan")
			return
		}
	}
	if err := uow.ScanLogRepository().Record(ctx, entry); err != nil {
		logger.WithError(err).Error("Failed to record rejected scan")
		return
	}

	uow.EventBus().Publish(events.ScanRejectedEvent{
		UserID:  req.UserID,
		Token:   token,
		Outcome: rejection.outcome,
		Reason:  rejection.err.Message,
	})

	if err := uow.Commit(); err != nil {
		logger.WithError(err).Error("Failed to commit scan audit")
		return
	}
	logger.Info("Scan rejected")
}

// auditToken fits a user-supplied token into the scan log column
func auditToken(raw string) string {
	valid := []rune(strings.ToValidUTF8(raw, "?"))
	if len(valid) > models.MaxTokenLength {
		valid = valid[:models.MaxTokenLength]
	}
	return string(valid)
}

// GetTokenInfo returns a token's validity and statistics, with the user's participation when userID is set
func (s *participationService) GetTokenInfo(ctx context.Context, tokenValue string, userID *int64) (*TokenInfo, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	token, err := uow.AccessTokenRepository().GetByToken(ctx, tokenValue)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}
	if token == nil {
		return nil, ErrInvalidToken
	}

	perk, err := uow.ParticipationRepository().GetPerkStats(ctx, token.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get perk stats: %w", err)
	}

	info := &TokenInfo{
		Token:           token.Token,
		EventID:         token.EventID,
		ValidFrom:       token.ValidFrom,
		ValidUntil:      token.ValidUntil,
		State:           token.StateAt(s.now()),
		IsActive:        token.IsActive,
		MaxScansPerHour: s.scanLimit(token),
		ScanCount:       token.ScanCount,
		SuccessCount:    token.SuccessCount,
		Perk:            *perk,
	}

	if userID != nil {
		record, err := uow.ParticipationRepository().GetByUserAndEvent(ctx, *userID, token.EventID)
		if err != nil {
			return nil, fmt.Errorf("failed to get participation: %w", err)
		}
		info.UserParticipation = record
	}
	return info, nil
}

// IssueToken creates a new access token for an event
func (s *participationService) IssueToken(ctx context.Context, req IssueTokenRequest) (*models.AccessToken, error) {
	if !req.ValidUntil.After(req.ValidFrom) {
		return nil, ErrInvalidRequest.WithMessagef("valid_until must be after valid_from")
	}
	if req.MaxScansPerHour < 0 {
		return nil, ErrInvalidRequest.WithMessagef("max_scans_per_hour must not be negative")
	}
	maxScans := req.MaxScansPerHour
	if maxScans == 0 {
		maxScans = s.config.DefaultMaxScansPerHour
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	event, err := uow.EventRepository().GetByID(ctx, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	token := &models.AccessToken{
		Token:           uuid.NewString(),
		EventID:         event.ID,
		ValidFrom:       req.ValidFrom,
		ValidUntil:      req.ValidUntil,
		IsActive:        true,
		MaxScansPerHour: maxScans,
	}
	if err := uow.AccessTokenRepository().Create(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"eventID": event.ID,
		"tokenID": token.ID,
	}).Info("Access token issued")

	return token, nil
}

// DeactivateToken switches a token off regardless of its validity window
func (s *participationService) DeactivateToken(ctx context.Context, tokenValue string) (*models.AccessToken, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	token, err := uow.AccessTokenRepository().GetByToken(ctx, tokenValue)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}
	if token == nil {
		return nil, ErrInvalidToken
	}
	if token.IsActive {
		if err := uow.AccessTokenRepository().SetActive(ctx, token.ID, false); err != nil {
			return nil, fmt.Errorf("failed to deactivate access token: %w", err)
		}
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		token.IsActive = false
		log.WithField("tokenID", token.ID).Info("Access token deactivated")
	}
	return token, nil
}

func newScanResult(record *models.ParticipationRecord, alreadyParticipated bool) *ScanResult {
	result := &ScanResult{
		ParticipationID:     record.ID,
		EventID:             record.EventID,
		Tier:                record.Tier,
		TierMultiplier:      record.TierMultiplier,
		PerkStatus:          record.PerkStatus,
		WaitlistPosition:    record.WaitlistPosition,
		AlreadyParticipated: alreadyParticipated,
		Record:              record,
	}
	switch record.PerkStatus {
	case models.PerkStatusAllocated:
		result.PerkDetail = "party admission confirmed"
	case models.PerkStatusWaitlist:
		if record.WaitlistPosition != nil {
			result.PerkDetail = fmt.Sprintf("waitlist position %d", *record.WaitlistPosition)
		}
	}
	return result
}
