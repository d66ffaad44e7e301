package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meishi-backend/application/ports"
	"meishi-backend/application/services"
	"meishi-backend/domain/card"
	"meishi-backend/infrastructure/persistence/memory"
	pkgerrors "meishi-backend/pkg/errors"
	"meishi-backend/tests/mocks"
)

func newTestService(t *testing.T) (*services.CardService, *memory.CardRepository, *mocks.MockEventBus) {
	t.Helper()
	repo := memory.NewCardRepository()
	bus := new(mocks.MockEventBus)
	svc := services.NewCardService(repo, bus, nil, zap.NewNop())
	return svc, repo, bus
}

func TestList_RejectsBadParameters(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.List(ctx, ports.CardQuery{Page: 0, PageSize: 20})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = svc.List(ctx, ports.CardQuery{Page: 1, PageSize: 0})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = svc.List(ctx, ports.CardQuery{Page: 1, PageSize: 20, StatusFilter: "pending"})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestList_AcceptsKnownStatusFilters(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, filter := range []string{"", "all", "verified", "unverified"} {
		_, err := svc.List(ctx, ports.CardQuery{Page: 1, PageSize: 20, StatusFilter: filter})
		assert.NoError(t, err, "filter %q", filter)
	}
}

func TestCreate_PublishesEvent(t *testing.T) {
	svc, repo, bus := newTestService(t)
	ctx := context.Background()

	bus.On("Publish", ctx, mock.AnythingOfType("events.CardCreated")).Return(nil)

	created, err := svc.Create(ctx, "uploads/img.png", card.OcrResult{Confidence: 0.9}, card.Fields{
		CompanyName: "Acme",
		Email:       "a@acme.com",
	})
	require.NoError(t, err)

	assert.Equal(t, card.StatusUnverified, created.Status())
	assert.Equal(t, 1, repo.Len())
	bus.AssertExpectations(t)
}

func TestCreate_EventFailureDoesNotFailMutation(t *testing.T) {
	svc, repo, bus := newTestService(t)
	ctx := context.Background()

	bus.On("Publish", ctx, mock.Anything).Return(pkgerrors.NewExternalError("bus down", nil))

	_, err := svc.Create(ctx, "", card.OcrResult{}, card.Fields{CompanyName: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.Len())
}

func TestGet_InvalidIDIsValidationError(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "not-a-uuid")
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestUpdate_PublishesEvent(t *testing.T) {
	svc, _, bus := newTestService(t)
	ctx := context.Background()

	bus.On("Publish", ctx, mock.AnythingOfType("events.CardCreated")).Return(nil)
	bus.On("Publish", ctx, mock.AnythingOfType("events.CardUpdated")).Return(nil)

	created, err := svc.Create(ctx, "", card.OcrResult{}, card.Fields{CompanyName: "Acme"})
	require.NoError(t, err)

	name := "Acme v2"
	updated, err := svc.Update(ctx, created.ID().String(), card.Patch{CompanyName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Acme v2", updated.Fields().CompanyName)
	bus.AssertExpectations(t)
}

func TestDelete_UnknownIDPublishesNothing(t *testing.T) {
	svc, _, bus := newTestService(t)
	ctx := context.Background()

	deleted, err := svc.Delete(ctx, card.NewCardID().String())
	require.NoError(t, err)
	assert.False(t, deleted)
	bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestDelete_PublishesEvent(t *testing.T) {
	svc, repo, bus := newTestService(t)
	ctx := context.Background()

	bus.On("Publish", ctx, mock.AnythingOfType("events.CardCreated")).Return(nil)
	bus.On("Publish", ctx, mock.AnythingOfType("events.CardDeleted")).Return(nil)

	created, err := svc.Create(ctx, "", card.OcrResult{}, card.Fields{CompanyName: "Acme"})
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, created.ID().String())
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, 0, repo.Len())
	bus.AssertExpectations(t)
}

func TestFindDuplicates_RejectsMalformedExcludeID(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.FindDuplicates(context.Background(), "a@example.com", "not-a-uuid")
	assert.True(t, pkgerrors.IsValidation(err))
}
