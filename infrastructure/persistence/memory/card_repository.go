package memory

import (
	"context"
	"sync"

	"meishi-backend/application/ports"
	"meishi-backend/domain/card"
	pkgerrors "meishi-backend/pkg/errors"
)

// CardRepository provides an in-memory implementation of ports.CardRepository.
// The canonical records live in a slice ordered newest first (create prepends),
// guarded by an RWMutex so every operation observes a fully-consistent
// collection and commits in full. Callers only ever receive clones.
type CardRepository struct {
	mu    sync.RWMutex
	cards []*card.Card
}

// NewCardRepository creates an empty in-memory card repository
func NewCardRepository() *CardRepository {
	return &CardRepository{}
}

// NewCardRepositoryWithSeed creates a repository pre-loaded with records,
// useful for demos and tests
func NewCardRepositoryWithSeed(seed []*card.Card) *CardRepository {
	repo := &CardRepository{}
	for _, c := range seed {
		repo.cards = append(repo.cards, c.Clone())
	}
	return repo
}

// Query returns one filtered, sorted, paginated page of cards
func (r *CardRepository) Query(ctx context.Context, q ports.CardQuery) (*ports.CardPage, error) {
	if q.Page < 1 || q.PageSize < 1 {
		return nil, pkgerrors.NewValidationError("page and page_size must be >= 1")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	filtered := make([]*card.Card, 0, len(r.cards))
	for _, c := range r.cards {
		if c.MatchesSearch(q.Search) && c.MatchesStatus(q.StatusFilter) {
			filtered = append(filtered, c)
		}
	}

	// Sort after filtering, before pagination
	card.SortByCreatedAtDesc(filtered)

	total := len(filtered)
	start := (q.Page - 1) * q.PageSize
	end := start + q.PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	data := make([]*card.Card, 0, end-start)
	for _, c := range filtered[start:end] {
		data = append(data, c.Clone())
	}

	totalPages := total / q.PageSize
	if total%q.PageSize > 0 {
		totalPages++
	}

	return &ports.CardPage{
		Data:       data,
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages,
	}, nil
}

// GetByID retrieves a card by its ID
func (r *CardRepository) GetByID(ctx context.Context, id card.CardID) (*card.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.cards {
		if c.ID().Equals(id) {
			return c.Clone(), nil
		}
	}
	return nil, pkgerrors.NewNotFoundError("card")
}

// Create stores a new card, prepending it so the default ordering shows
// newest first
func (r *CardRepository) Create(ctx context.Context, c *card.Card) (*card.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := c.Clone()
	r.cards = append([]*card.Card{stored}, r.cards...)
	return stored.Clone(), nil
}

// Update merges the patch into the identified card
func (r *CardRepository) Update(ctx context.Context, id card.CardID, patch card.Patch) (*card.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.cards {
		if c.ID().Equals(id) {
			if err := c.ApplyPatch(patch); err != nil {
				return nil, err
			}
			return c.Clone(), nil
		}
	}
	return nil, pkgerrors.NewNotFoundError("card")
}

// Delete removes a card; unknown ids return false, not an error
func (r *CardRepository) Delete(ctx context.Context, id card.CardID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, c := range r.cards {
		if c.ID().Equals(id) {
			r.cards = append(r.cards[:i], r.cards[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// FindDuplicates returns candidates whose email matches case-insensitively
func (r *CardRepository) FindDuplicates(ctx context.Context, email string, excludeID card.CardID) ([]card.DuplicateCandidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	candidates := card.MatchDuplicates(r.cards, email, excludeID)
	for i := range candidates {
		candidates[i].Card = candidates[i].Card.Clone()
	}
	return candidates, nil
}

// All returns every card ordered createdAt descending
func (r *CardRepository) All(ctx context.Context) ([]*card.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*card.Card, 0, len(r.cards))
	for _, c := range r.cards {
		all = append(all, c.Clone())
	}
	card.SortByCreatedAtDesc(all)
	return all, nil
}

// Len returns the current record count
func (r *CardRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cards)
}
