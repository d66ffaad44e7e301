// Package fixtures provides test data builders.
package fixtures

import (
	"time"

	"meishi-backend/domain/card"
)

// CardBuilder helps create test cards with default values
type CardBuilder struct {
	id        card.CardID
	imageRef  string
	ocr       card.OcrResult
	fields    card.Fields
	status    card.Status
	createdAt time.Time
	updatedAt time.Time
}

func NewCardBuilder() *CardBuilder {
	now := time.Now()
	return &CardBuilder{
		id:       card.NewCardID(),
		imageRef: "uploads/test-card.png",
		ocr: card.OcrResult{
			Raw:        `{"companyName":"株式会社サンプルテック"}`,
			Confidence: 0.9,
		},
		fields: card.Fields{
			CompanyName: "株式会社サンプルテック",
			PersonName:  "山田 太郎",
			Department:  "営業部",
			Position:    "部長",
			Email:       "yamada@sampletech.co.jp",
			Phone:       "03-1234-5678",
		},
		status:    card.StatusUnverified,
		createdAt: now,
		updatedAt: now,
	}
}

func (b *CardBuilder) WithID(id card.CardID) *CardBuilder {
	b.id = id
	return b
}

func (b *CardBuilder) WithFields(fields card.Fields) *CardBuilder {
	b.fields = fields
	return b
}

func (b *CardBuilder) WithCompanyName(name string) *CardBuilder {
	b.fields.CompanyName = name
	return b
}

func (b *CardBuilder) WithPersonName(name string) *CardBuilder {
	b.fields.PersonName = name
	return b
}

func (b *CardBuilder) WithEmail(email string) *CardBuilder {
	b.fields.Email = email
	return b
}

func (b *CardBuilder) WithStatus(status card.Status) *CardBuilder {
	b.status = status
	return b
}

func (b *CardBuilder) WithCreatedAt(t time.Time) *CardBuilder {
	b.createdAt = t
	b.updatedAt = t
	return b
}

func (b *CardBuilder) WithOCR(ocr card.OcrResult) *CardBuilder {
	b.ocr = ocr
	return b
}

func (b *CardBuilder) Build() *card.Card {
	return card.ReconstructCard(b.id, b.imageRef, b.ocr, b.fields, b.status, b.createdAt, b.updatedAt)
}
