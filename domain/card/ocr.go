package card

import (
	pkgerrors "meishi-backend/pkg/errors"
)

// OcrResult is a snapshot of one extraction attempt, embedded in a card.
// Confidence is always in [0,1]. Extracted field values are either present
// strings or nil; nil means "not detected", never an empty-string sentinel.
type OcrResult struct {
	Raw             string          `json:"raw"`
	Confidence      float64         `json:"confidence"`
	ExtractedFields ExtractedFields `json:"extractedFields"`
}

// ExtractedFields is the partial contact field set an OCR pass may produce.
// Extraction can fail per field, so every field is optional.
type ExtractedFields struct {
	CompanyName *string `json:"companyName,omitempty"`
	PersonName  *string `json:"personName,omitempty"`
	Department  *string `json:"department,omitempty"`
	Position    *string `json:"position,omitempty"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Address     *string `json:"address,omitempty"`
	Website     *string `json:"website,omitempty"`
}

// Validate checks the OcrResult invariants
func (r OcrResult) Validate() error {
	if r.Confidence < 0 || r.Confidence > 1 {
		return pkgerrors.NewValidationError("ocr confidence must be in [0,1]")
	}
	return nil
}

// ToFields converts the partial extraction into a concrete field set,
// mapping undetected fields to empty strings.
func (f ExtractedFields) ToFields() Fields {
	return Fields{
		CompanyName: deref(f.CompanyName),
		PersonName:  deref(f.PersonName),
		Department:  deref(f.Department),
		Position:    deref(f.Position),
		Email:       deref(f.Email),
		Phone:       deref(f.Phone),
		Address:     deref(f.Address),
		Website:     deref(f.Website),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
