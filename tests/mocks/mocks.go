// Package mocks provides testify mocks for the application ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"meishi-backend/application/ports"
	"meishi-backend/domain/card"
	"meishi-backend/domain/events"
)

// MockCardRepository is a testify mock of ports.CardRepository
type MockCardRepository struct {
	mock.Mock
}

func (m *MockCardRepository) Query(ctx context.Context, q ports.CardQuery) (*ports.CardPage, error) {
	args := m.Called(ctx, q)
	if page := args.Get(0); page != nil {
		return page.(*ports.CardPage), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCardRepository) GetByID(ctx context.Context, id card.CardID) (*card.Card, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*card.Card), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCardRepository) Create(ctx context.Context, c *card.Card) (*card.Card, error) {
	args := m.Called(ctx, c)
	if stored := args.Get(0); stored != nil {
		return stored.(*card.Card), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCardRepository) Update(ctx context.Context, id card.CardID, patch card.Patch) (*card.Card, error) {
	args := m.Called(ctx, id, patch)
	if c := args.Get(0); c != nil {
		return c.(*card.Card), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCardRepository) Delete(ctx context.Context, id card.CardID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCardRepository) FindDuplicates(ctx context.Context, email string, excludeID card.CardID) ([]card.DuplicateCandidate, error) {
	args := m.Called(ctx, email, excludeID)
	if candidates := args.Get(0); candidates != nil {
		return candidates.([]card.DuplicateCandidate), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCardRepository) All(ctx context.Context) ([]*card.Card, error) {
	args := m.Called(ctx)
	if cards := args.Get(0); cards != nil {
		return cards.([]*card.Card), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockOCRService is a testify mock of ports.OCRService
type MockOCRService struct {
	mock.Mock
}

func (m *MockOCRService) Extract(ctx context.Context, imageRef string) (*card.OcrResult, error) {
	args := m.Called(ctx, imageRef)
	if result := args.Get(0); result != nil {
		return result.(*card.OcrResult), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockEventBus is a testify mock of ports.EventBus
type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventBus) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}
