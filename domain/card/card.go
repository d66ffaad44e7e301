package card

import (
	"strings"
	"time"

	pkgerrors "meishi-backend/pkg/errors"
)

// Status represents the verification state of a card
type Status string

const (
	StatusUnverified Status = "unverified"
	StatusVerified   Status = "verified"
)

// IsValid reports whether the status is a known value
func (s Status) IsValid() bool {
	return s == StatusUnverified || s == StatusVerified
}

// Fields is the contact field set read off a business card
type Fields struct {
	CompanyName string `json:"companyName"`
	PersonName  string `json:"personName"`
	Department  string `json:"department"`
	Position    string `json:"position"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Website     string `json:"website"`
}

// Card is the entity representing one stored contact record.
// This is a rich domain model with encapsulated business logic:
// the identifier and createdAt are immutable after creation, and
// updatedAt is refreshed on every successful mutation.
type Card struct {
	id        CardID
	imageRef  string
	ocr       OcrResult
	fields    Fields
	status    Status
	createdAt time.Time
	updatedAt time.Time
}

// NewCard creates a new card. Newly ingested cards always start unverified;
// createdAt and updatedAt are stamped once, equal, at creation.
func NewCard(imageRef string, ocr OcrResult, fields Fields) (*Card, error) {
	if err := ocr.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Card{
		id:        NewCardID(),
		imageRef:  imageRef,
		ocr:       ocr,
		fields:    fields,
		status:    StatusUnverified,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructCard rebuilds a card from repository data with preserved
// identity and timestamps.
func ReconstructCard(id CardID, imageRef string, ocr OcrResult, fields Fields, status Status, createdAt, updatedAt time.Time) *Card {
	return &Card{
		id:        id,
		imageRef:  imageRef,
		ocr:       ocr,
		fields:    fields,
		status:    status,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// ID returns the card identifier
func (c *Card) ID() CardID { return c.id }

// ImageRef returns the source-image reference
func (c *Card) ImageRef() string { return c.imageRef }

// OCR returns the extraction snapshot captured at ingestion
func (c *Card) OCR() OcrResult { return c.ocr }

// Fields returns the contact field set
func (c *Card) Fields() Fields { return c.fields }

// Status returns the verification status
func (c *Card) Status() Status { return c.status }

// CreatedAt returns the creation timestamp
func (c *Card) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns the last mutation timestamp
func (c *Card) UpdatedAt() time.Time { return c.updatedAt }

// Email returns the card's email field
func (c *Card) Email() string { return c.fields.Email }

// Patch is an explicit partial-update structure: present fields overwrite,
// absent (nil) fields are preserved. This keeps "field explicitly cleared"
// distinct from "field not supplied".
type Patch struct {
	ImageRef    *string    `json:"imageRef,omitempty"`
	OCR         *OcrResult `json:"ocr,omitempty"`
	CompanyName *string    `json:"companyName,omitempty"`
	PersonName  *string    `json:"personName,omitempty"`
	Department  *string    `json:"department,omitempty"`
	Position    *string    `json:"position,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	Address     *string    `json:"address,omitempty"`
	Website     *string    `json:"website,omitempty"`
	Status      *Status    `json:"status,omitempty"`
}

// PatchFromFields builds a patch that overwrites the whole contact field set
func PatchFromFields(f Fields) Patch {
	return Patch{
		CompanyName: &f.CompanyName,
		PersonName:  &f.PersonName,
		Department:  &f.Department,
		Position:    &f.Position,
		Email:       &f.Email,
		Phone:       &f.Phone,
		Address:     &f.Address,
		Website:     &f.Website,
	}
}

// ApplyPatch merges the patch into the card and refreshes updatedAt.
// The id and createdAt are never touched.
func (c *Card) ApplyPatch(p Patch) error {
	if p.Status != nil && !p.Status.IsValid() {
		return pkgerrors.NewValidationError("status must be verified or unverified")
	}
	if p.OCR != nil {
		if err := p.OCR.Validate(); err != nil {
			return err
		}
		c.ocr = *p.OCR
	}
	if p.ImageRef != nil {
		c.imageRef = *p.ImageRef
	}
	if p.CompanyName != nil {
		c.fields.CompanyName = *p.CompanyName
	}
	if p.PersonName != nil {
		c.fields.PersonName = *p.PersonName
	}
	if p.Department != nil {
		c.fields.Department = *p.Department
	}
	if p.Position != nil {
		c.fields.Position = *p.Position
	}
	if p.Email != nil {
		c.fields.Email = *p.Email
	}
	if p.Phone != nil {
		c.fields.Phone = *p.Phone
	}
	if p.Address != nil {
		c.fields.Address = *p.Address
	}
	if p.Website != nil {
		c.fields.Website = *p.Website
	}
	if p.Status != nil {
		c.status = *p.Status
	}

	c.touch()
	return nil
}

// touch advances updatedAt; it never moves backwards even if the clock does
func (c *Card) touch() {
	now := time.Now()
	if now.Before(c.updatedAt) {
		now = c.updatedAt
	}
	c.updatedAt = now
}

// Clone returns an independent copy. Repositories hand out clones so that
// callers can never mutate the canonical record in place.
func (c *Card) Clone() *Card {
	clone := *c
	return &clone
}

// MatchesSearch reports whether the case-insensitive search term is a
// substring of any of companyName, personName, email, department or position.
// An empty term matches every card.
func (c *Card) MatchesSearch(term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	for _, v := range []string{
		c.fields.CompanyName,
		c.fields.PersonName,
		c.fields.Email,
		c.fields.Department,
		c.fields.Position,
	} {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

// MatchesStatus reports whether the card passes the status filter.
// An empty filter or "all" matches every card.
func (c *Card) MatchesStatus(filter string) bool {
	if filter == "" || filter == "all" {
		return true
	}
	return string(c.status) == filter
}
