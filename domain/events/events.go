package events

import (
	"time"

	"meishi-backend/domain/card"
)

// SourceBackend identifies this service as the event source
const SourceBackend = "meishi.backend"

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

// CardCreated is raised when a new card is stored
type CardCreated struct {
	BaseEvent
	CardID string  `json:"card_id"`
	Email  string  `json:"email"`
	Status string  `json:"status"`
	OCR    float64 `json:"ocr_confidence"`
}

// NewCardCreated creates a CardCreated event
func NewCardCreated(c *card.Card) CardCreated {
	return CardCreated{
		BaseEvent: BaseEvent{
			AggregateID: c.ID().String(),
			EventType:   "card.created",
			Timestamp:   c.CreatedAt(),
		},
		CardID: c.ID().String(),
		Email:  c.Email(),
		Status: string(c.Status()),
		OCR:    c.OCR().Confidence,
	}
}

// CardUpdated is raised when an existing card is mutated
type CardUpdated struct {
	BaseEvent
	CardID string `json:"card_id"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

// NewCardUpdated creates a CardUpdated event
func NewCardUpdated(c *card.Card) CardUpdated {
	return CardUpdated{
		BaseEvent: BaseEvent{
			AggregateID: c.ID().String(),
			EventType:   "card.updated",
			Timestamp:   c.UpdatedAt(),
		},
		CardID: c.ID().String(),
		Email:  c.Email(),
		Status: string(c.Status()),
	}
}

// CardDeleted is raised when a card is removed
type CardDeleted struct {
	BaseEvent
	CardID string `json:"card_id"`
}

// NewCardDeleted creates a CardDeleted event
func NewCardDeleted(id card.CardID, at time.Time) CardDeleted {
	return CardDeleted{
		BaseEvent: BaseEvent{
			AggregateID: id.String(),
			EventType:   "card.deleted",
			Timestamp:   at,
		},
		CardID: id.String(),
	}
}
