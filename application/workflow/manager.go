package workflow

import (
	"context"

	"go.uber.org/zap"

	"meishi-backend/application/ports"
	"meishi-backend/application/services"
	"meishi-backend/domain/card"
	pkgerrors "meishi-backend/pkg/errors"
	"meishi-backend/pkg/observability"
)

// Store keeps upload sessions between requests. Implementations must cancel
// any in-flight OCR (Session.expireOCR via Evict) when a session is dropped.
type Store interface {
	Put(session *Session) error
	Get(sessionID string) (*Session, error)
	Delete(sessionID string) error
}

// ResolveAction names the user's choice when duplicates are surfaced
type ResolveAction string

const (
	// ResolveUpdateExisting applies the edited fields to the chosen record
	ResolveUpdateExisting ResolveAction = "update"
	// ResolveSaveAsNew creates a new record despite the duplicates
	ResolveSaveAsNew ResolveAction = "new"
	// ResolveCancel discards the duplicate prompt and returns to review
	ResolveCancel ResolveAction = "cancel"
)

// Manager drives upload sessions through the ingestion state machine:
// select -> processing -> review -> (duplicate) -> complete, committing
// through the card service at the end.
type Manager struct {
	store   Store
	cards   *services.CardService
	ocr     ports.OCRService
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewManager creates a new workflow manager
func NewManager(store Store, cards *services.CardService, ocr ports.OCRService, metrics *observability.Metrics, logger *zap.Logger) *Manager {
	return &Manager{
		store:   store,
		cards:   cards,
		ocr:     ocr,
		metrics: metrics,
		logger:  logger,
	}
}

// StartSession opens a new upload session in the select step
func (m *Manager) StartSession() (*Session, error) {
	session := NewSession()
	if err := m.store.Put(session); err != nil {
		return nil, err
	}

	m.logger.Info("Upload session started", zap.String("sessionID", session.ID()))
	return session, nil
}

// GetSession returns an existing session
func (m *Manager) GetSession(sessionID string) (*Session, error) {
	return m.store.Get(sessionID)
}

// AttachImage records the selected image; the session stays in select
func (m *Manager) AttachImage(sessionID, imageRef string) (*Session, error) {
	session, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.attachImage(imageRef); err != nil {
		return nil, err
	}
	return session, nil
}

// StartOCR transitions the session to processing and invokes the OCR
// collaborator asynchronously. Only one invocation may be in flight per
// session; the call returns immediately while extraction runs.
func (m *Manager) StartOCR(ctx context.Context, sessionID string) (*Session, error) {
	session, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	// The invocation outlives the request; it is cancelled only through
	// session eviction.
	ocrCtx, cancel := context.WithCancel(context.Background())

	imageRef, err := session.beginOCR(cancel)
	if err != nil {
		cancel()
		return nil, err
	}

	m.metrics.Count(observability.MetricOCRInvocations, 1)

	go func() {
		defer cancel()

		result, err := m.ocr.Extract(ocrCtx, imageRef)
		if err != nil {
			// OCR failure is not fatal: the workflow still reaches review,
			// just with nothing pre-filled.
			m.metrics.Count(observability.MetricOCRFailures, 1)
			m.logger.Warn("OCR extraction failed",
				zap.String("sessionID", session.ID()),
				zap.Error(err),
			)
			session.completeOCR(nil)
			return
		}

		m.logger.Info("OCR extraction completed",
			zap.String("sessionID", session.ID()),
			zap.Float64("confidence", result.Confidence),
		)
		session.completeOCR(result)
	}()

	return session, nil
}

// EditDraft applies a field-level mutation in the review step
func (m *Manager) EditDraft(sessionID string, patch DraftPatch) (*Session, error) {
	session, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.editDraft(patch); err != nil {
		return nil, err
	}
	return session, nil
}

// Save commits the reviewed draft. When the draft has an email and existing
// cards match it, the session moves to the duplicate step for explicit user
// resolution; otherwise the record is created and the session completes.
// An absent email skips duplicate protection entirely.
func (m *Manager) Save(ctx context.Context, sessionID string) (*Session, error) {
	session, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.state != StateReview {
		return nil, pkgerrors.NewValidationError("save is only valid in the review step")
	}

	if session.draft.Email != "" {
		duplicates, err := m.cards.FindDuplicates(ctx, session.draft.Email, "")
		if err != nil {
			return nil, err
		}
		if len(duplicates) > 0 {
			session.duplicates = duplicates
			session.state = StateDuplicate
			return session, nil
		}
	}

	return session, m.commitNewLocked(ctx, session)
}

// Resolve applies the user's duplicate decision
func (m *Manager) Resolve(ctx context.Context, sessionID string, action ResolveAction, targetCardID string) (*Session, error) {
	session, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.state != StateDuplicate {
		return nil, pkgerrors.NewValidationError("resolve is only valid in the duplicate step")
	}

	switch action {
	case ResolveCancel:
		session.duplicates = nil
		session.state = StateReview
		return session, nil

	case ResolveSaveAsNew:
		return session, m.commitNewLocked(ctx, session)

	case ResolveUpdateExisting:
		if targetCardID == "" {
			return nil, pkgerrors.NewValidationError("card_id is required to update an existing record")
		}
		// A fresh, unverified read replaces the trusted data, so the status
		// is forced back to unverified regardless of its prior value.
		patch := card.PatchFromFields(session.draft)
		status := card.StatusUnverified
		patch.Status = &status
		if session.ocr != nil {
			patch.OCR = session.ocr
		}
		if session.imageRef != "" {
			patch.ImageRef = &session.imageRef
		}

		updated, err := m.cards.Update(ctx, targetCardID, patch)
		if err != nil {
			return nil, err
		}
		session.savedCard = updated
		session.duplicates = nil
		session.state = StateComplete
		return session, nil

	default:
		return nil, pkgerrors.NewValidationError("action must be update, new or cancel")
	}
}

// Reset returns the session to select, discarding transient state. Reset is
// rejected while OCR is in flight.
func (m *Manager) Reset(sessionID string) (*Session, error) {
	session, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.reset(); err != nil {
		return nil, err
	}
	return session, nil
}

// commitNewLocked creates a new record from the draft and completes the
// session. The caller must hold the session mutex.
func (m *Manager) commitNewLocked(ctx context.Context, session *Session) error {
	var ocr card.OcrResult
	if session.ocr != nil {
		ocr = *session.ocr
	}

	created, err := m.cards.Create(ctx, session.imageRef, ocr, session.draft)
	if err != nil {
		return err
	}

	session.savedCard = created
	session.duplicates = nil
	session.state = StateComplete
	return nil
}
