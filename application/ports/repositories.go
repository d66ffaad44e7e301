package ports

import (
	"context"

	"meishi-backend/domain/card"
	"meishi-backend/domain/events"
)

// CardQuery describes a filtered, paginated card listing.
// Search and StatusFilter combine with AND semantics; within the search,
// the five contact fields combine with OR semantics.
type CardQuery struct {
	Page         int
	PageSize     int
	Search       string
	StatusFilter string // "all", "verified" or "unverified"
}

// CardPage is one page of a filtered listing. Total counts the records
// matching the filter before pagination.
type CardPage struct {
	Data       []*card.Card
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// CardRepository is the sole owner of the card collection; every read and
// write passes through it. This is a port in hexagonal architecture - the
// domain doesn't know about the implementation.
type CardRepository interface {
	// Query returns a filtered, createdAt-descending, paginated page.
	// Pagination parameters must already be validated by the caller.
	Query(ctx context.Context, q CardQuery) (*CardPage, error)

	// GetByID retrieves a card by its ID; a missing id yields a NotFound error
	GetByID(ctx context.Context, id card.CardID) (*card.Card, error)

	// Create stores a new card and returns the stored record
	Create(ctx context.Context, c *card.Card) (*card.Card, error)

	// Update merges the patch into the identified card and returns the
	// updated record; a missing id yields a NotFound error
	Update(ctx context.Context, id card.CardID, patch card.Patch) (*card.Card, error)

	// Delete removes a card. Deleting an unknown id is not an error: it
	// returns false and leaves the collection unchanged.
	Delete(ctx context.Context, id card.CardID) (bool, error)

	// FindDuplicates returns existing cards whose email matches the given
	// email case-insensitively, sorted by similarity descending
	FindDuplicates(ctx context.Context, email string, excludeID card.CardID) ([]card.DuplicateCandidate, error)

	// All returns every card ordered createdAt descending, for export
	All(ctx context.Context) ([]*card.Card, error)
}

// OCRService is the external field-extraction collaborator. A real engine
// swap-in must preserve the field names and confidence semantics.
type OCRService interface {
	Extract(ctx context.Context, imageRef string) (*card.OcrResult, error)
}

// EventBus publishes domain events to interested consumers
type EventBus interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, batch []events.DomainEvent) error
}
