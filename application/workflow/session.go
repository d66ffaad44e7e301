package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"meishi-backend/domain/card"
	pkgerrors "meishi-backend/pkg/errors"
)

// State is one step of the ingestion state machine
type State string

const (
	StateSelect     State = "select"
	StateProcessing State = "processing"
	StateReview     State = "review"
	StateDuplicate  State = "duplicate"
	StateComplete   State = "complete"
)

// Session holds the transient state of one upload: the selected image, the
// extraction snapshot, the editable draft and any duplicate candidates.
// All methods serialize on an internal mutex; the only suspend point is the
// OCR invocation, which runs outside the lock.
type Session struct {
	mu         sync.Mutex
	id         string
	state      State
	imageRef   string
	ocr        *card.OcrResult
	draft      card.Fields
	duplicates []card.DuplicateCandidate
	savedCard  *card.Card
	cancelOCR  context.CancelFunc
	createdAt  time.Time
	updatedAt  time.Time
}

// NewSession creates a session in the select state
func NewSession() *Session {
	now := time.Now()
	return &Session{
		id:        uuid.New().String(),
		state:     StateSelect,
		createdAt: now,
		updatedAt: now,
	}
}

// ID returns the session identifier
func (s *Session) ID() string { return s.id }

// State returns the current workflow step
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CreatedAt returns the session creation time
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// View is a read-only snapshot of a session for API responses
type View struct {
	ID         string                     `json:"id"`
	State      State                      `json:"state"`
	ImageRef   string                     `json:"imageRef,omitempty"`
	OCR        *card.OcrResult            `json:"ocr,omitempty"`
	Draft      card.Fields                `json:"draft"`
	Duplicates []card.DuplicateCandidate  `json:"-"`
	SavedCard  *card.Card                 `json:"-"`
}

// Snapshot returns a consistent view of the session
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		ID:         s.id,
		State:      s.state,
		ImageRef:   s.imageRef,
		OCR:        s.ocr,
		Draft:      s.draft,
		Duplicates: s.duplicates,
		SavedCard:  s.savedCard,
	}
}

// attachImage records the selected image without leaving the select state
func (s *Session) attachImage(imageRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSelect {
		return pkgerrors.NewValidationError("an image can only be attached in the select step")
	}
	if imageRef == "" {
		return pkgerrors.NewValidationError("image reference cannot be empty")
	}
	s.imageRef = imageRef
	s.updatedAt = time.Now()
	return nil
}

// beginOCR transitions select -> processing and registers the cancel hook.
// Only one OCR invocation may be in flight per session.
func (s *Session) beginOCR(cancel context.CancelFunc) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateProcessing {
		return "", pkgerrors.NewConflictError("an OCR invocation is already in flight for this upload")
	}
	if s.state != StateSelect {
		return "", pkgerrors.NewValidationError("OCR can only start from the select step")
	}
	if s.imageRef == "" {
		return "", pkgerrors.NewValidationError("no image attached")
	}

	s.state = StateProcessing
	s.cancelOCR = cancel
	s.updatedAt = time.Now()
	return s.imageRef, nil
}

// completeOCR transitions processing -> review. OCR failure is not fatal:
// the session still reaches review, just with an empty extraction.
func (s *Session) completeOCR(result *card.OcrResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateProcessing {
		// The session was reset or evicted while OCR ran; drop the result.
		return
	}

	if result == nil {
		result = &card.OcrResult{}
	}
	s.ocr = result
	s.draft = result.ExtractedFields.ToFields()
	s.cancelOCR = nil
	s.state = StateReview
	s.updatedAt = time.Now()
}

// DraftPatch is a partial edit of the reviewed field set: present fields
// overwrite, absent fields are preserved
type DraftPatch struct {
	CompanyName *string `json:"companyName,omitempty"`
	PersonName  *string `json:"personName,omitempty"`
	Department  *string `json:"department,omitempty"`
	Position    *string `json:"position,omitempty"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Address     *string `json:"address,omitempty"`
	Website     *string `json:"website,omitempty"`
}

// editDraft applies a field-level mutation without changing state
func (s *Session) editDraft(p DraftPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReview {
		return pkgerrors.NewValidationError("fields can only be edited in the review step")
	}

	if p.CompanyName != nil {
		s.draft.CompanyName = *p.CompanyName
	}
	if p.PersonName != nil {
		s.draft.PersonName = *p.PersonName
	}
	if p.Department != nil {
		s.draft.Department = *p.Department
	}
	if p.Position != nil {
		s.draft.Position = *p.Position
	}
	if p.Email != nil {
		s.draft.Email = *p.Email
	}
	if p.Phone != nil {
		s.draft.Phone = *p.Phone
	}
	if p.Address != nil {
		s.draft.Address = *p.Address
	}
	if p.Website != nil {
		s.draft.Website = *p.Website
	}
	s.updatedAt = time.Now()
	return nil
}

// reset discards all transient upload state and returns to select.
// Reset is rejected while an OCR invocation is in flight.
func (s *Session) reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateProcessing {
		return pkgerrors.NewConflictError("cannot reset while OCR is in flight")
	}

	s.state = StateSelect
	s.imageRef = ""
	s.ocr = nil
	s.draft = card.Fields{}
	s.duplicates = nil
	s.savedCard = nil
	s.updatedAt = time.Now()
	return nil
}

// Expire cancels any in-flight OCR invocation; called by the session store
// on eviction so an abandoned upload leaves no orphaned side effects
func (s *Session) Expire() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelOCR != nil {
		s.cancelOCR()
		s.cancelOCR = nil
	}
}
