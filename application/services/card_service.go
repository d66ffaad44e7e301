package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"meishi-backend/application/ports"
	"meishi-backend/domain/card"
	"meishi-backend/domain/events"
	pkgerrors "meishi-backend/pkg/errors"
	"meishi-backend/pkg/observability"
)

// CardService coordinates all reads and writes of the card collection.
// Mutations publish domain events after they commit; event publication is
// advisory and never fails the mutation itself.
type CardService struct {
	repo    ports.CardRepository
	bus     ports.EventBus
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewCardService creates a new card service
func NewCardService(repo ports.CardRepository, bus ports.EventBus, metrics *observability.Metrics, logger *zap.Logger) *CardService {
	return &CardService{
		repo:    repo,
		bus:     bus,
		metrics: metrics,
		logger:  logger,
	}
}

// List returns a filtered, paginated card listing. Malformed pagination and
// unknown status filters are rejected before the repository is queried.
func (s *CardService) List(ctx context.Context, q ports.CardQuery) (*ports.CardPage, error) {
	if q.Page < 1 {
		return nil, pkgerrors.NewValidationError("page must be >= 1")
	}
	if q.PageSize < 1 {
		return nil, pkgerrors.NewValidationError("page_size must be >= 1")
	}
	switch q.StatusFilter {
	case "", "all", string(card.StatusVerified), string(card.StatusUnverified):
	default:
		return nil, pkgerrors.NewValidationError("status must be all, verified or unverified")
	}

	return s.repo.Query(ctx, q)
}

// Get retrieves a single card
func (s *CardService) Get(ctx context.Context, id string) (*card.Card, error) {
	cardID, err := card.NewCardIDFromString(id)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	return s.repo.GetByID(ctx, cardID)
}

// Create stores a new card built from an image reference, an extraction
// snapshot and the reviewed field set. New cards always start unverified.
func (s *CardService) Create(ctx context.Context, imageRef string, ocr card.OcrResult, fields card.Fields) (*card.Card, error) {
	c, err := card.NewCard(imageRef, ocr, fields)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewCardCreated(stored))
	s.metrics.Count(observability.MetricCardsCreated, 1)

	s.logger.Info("Card created",
		zap.String("cardID", stored.ID().String()),
		zap.Float64("ocrConfidence", stored.OCR().Confidence),
	)
	return stored, nil
}

// Update merges a patch into an existing card
func (s *CardService) Update(ctx context.Context, id string, patch card.Patch) (*card.Card, error) {
	cardID, err := card.NewCardIDFromString(id)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	updated, err := s.repo.Update(ctx, cardID, patch)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewCardUpdated(updated))
	s.metrics.Count(observability.MetricCardsUpdated, 1)

	s.logger.Info("Card updated", zap.String("cardID", updated.ID().String()))
	return updated, nil
}

// Delete removes a card; deleting an unknown id returns false, not an error
func (s *CardService) Delete(ctx context.Context, id string) (bool, error) {
	cardID, err := card.NewCardIDFromString(id)
	if err != nil {
		return false, pkgerrors.NewValidationError(err.Error())
	}

	deleted, err := s.repo.Delete(ctx, cardID)
	if err != nil {
		return false, err
	}

	if deleted {
		s.publish(ctx, events.NewCardDeleted(cardID, time.Now()))
		s.metrics.Count(observability.MetricCardsDeleted, 1)
		s.logger.Info("Card deleted", zap.String("cardID", cardID.String()))
	}
	return deleted, nil
}

// FindDuplicates surfaces existing cards matching the given email. Duplicate
// detection is advisory: candidates are resolved by explicit user choice.
func (s *CardService) FindDuplicates(ctx context.Context, email, excludeID string) ([]card.DuplicateCandidate, error) {
	var exclude card.CardID
	if excludeID != "" {
		parsed, err := card.NewCardIDFromString(excludeID)
		if err != nil {
			return nil, pkgerrors.NewValidationError(err.Error())
		}
		exclude = parsed
	}

	return s.repo.FindDuplicates(ctx, email, exclude)
}

// publish sends a domain event, logging failures instead of propagating them
func (s *CardService) publish(ctx context.Context, event events.DomainEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish domain event",
			zap.String("eventType", event.GetEventType()),
			zap.Error(err),
		)
	}
}
