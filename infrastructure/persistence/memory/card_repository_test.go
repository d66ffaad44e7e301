package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meishi-backend/application/ports"
	"meishi-backend/domain/card"
	pkgerrors "meishi-backend/pkg/errors"
	"meishi-backend/tests/fixtures"
)

func seedCards(t *testing.T, repo *CardRepository, n int) []*card.Card {
	t.Helper()
	ctx := context.Background()

	created := make([]*card.Card, 0, n)
	base := time.Now().Add(-time.Duration(n) * time.Minute)
	for i := 0; i < n; i++ {
		c := fixtures.NewCardBuilder().
			WithCompanyName(fmt.Sprintf("Company %02d", i)).
			WithEmail(fmt.Sprintf("person%02d@example.com", i)).
			WithCreatedAt(base.Add(time.Duration(i) * time.Minute)).
			Build()
		stored, err := repo.Create(ctx, c)
		require.NoError(t, err)
		created = append(created, stored)
	}
	return created
}

func TestQuery_PaginationMath(t *testing.T) {
	repo := NewCardRepository()
	seedCards(t, repo, 25)
	ctx := context.Background()

	page, err := repo.Query(ctx, ports.CardQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, page.Data, 10)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 3, page.TotalPages)

	page, err = repo.Query(ctx, ports.CardQuery{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, page.Data, 5)

	// A page past the end is empty, not an error
	page, err = repo.Query(ctx, ports.CardQuery{Page: 4, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Equal(t, 25, page.Total)
}

func TestQuery_RejectsMalformedPagination(t *testing.T) {
	repo := NewCardRepository()
	ctx := context.Background()

	_, err := repo.Query(ctx, ports.CardQuery{Page: 0, PageSize: 10})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = repo.Query(ctx, ports.CardQuery{Page: 1, PageSize: 0})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestQuery_NewestFirst(t *testing.T) {
	repo := NewCardRepository()
	created := seedCards(t, repo, 5)
	ctx := context.Background()

	page, err := repo.Query(ctx, ports.CardQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Data, 5)

	// Last created is newest, so it comes first
	assert.True(t, page.Data[0].ID().Equals(created[4].ID()))
	assert.True(t, page.Data[4].ID().Equals(created[0].ID()))
}

func TestQuery_SearchMatchesAnyField(t *testing.T) {
	repo := NewCardRepository()
	ctx := context.Background()

	a := fixtures.NewCardBuilder().WithCompanyName("Acme Widgets").WithEmail("a@acme.com").Build()
	b := fixtures.NewCardBuilder().WithCompanyName("Globex").WithPersonName("Acmeson Taro").WithEmail("b@globex.com").Build()
	c := fixtures.NewCardBuilder().WithCompanyName("Initech").WithEmail("c@initech.com").Build()
	for _, crd := range []*card.Card{a, b, c} {
		_, err := repo.Create(ctx, crd)
		require.NoError(t, err)
	}

	page, err := repo.Query(ctx, ports.CardQuery{Page: 1, PageSize: 10, Search: "ACME"})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, 2, page.Total)
}

func TestQuery_StatusFilterCombinesWithSearch(t *testing.T) {
	repo := NewCardRepository()
	ctx := context.Background()

	verified := fixtures.NewCardBuilder().WithCompanyName("Acme").WithStatus(card.StatusVerified).Build()
	unverified := fixtures.NewCardBuilder().WithCompanyName("Acme Two").Build()
	for _, crd := range []*card.Card{verified, unverified} {
		_, err := repo.Create(ctx, crd)
		require.NoError(t, err)
	}

	page, err := repo.Query(ctx, ports.CardQuery{Page: 1, PageSize: 10, Search: "acme", StatusFilter: "verified"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.True(t, page.Data[0].ID().Equals(verified.ID()))

	page, err = repo.Query(ctx, ports.CardQuery{Page: 1, PageSize: 10, StatusFilter: "all"})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
}

func TestGetByID(t *testing.T) {
	repo := NewCardRepository()
	created := seedCards(t, repo, 1)
	ctx := context.Background()

	found, err := repo.GetByID(ctx, created[0].ID())
	require.NoError(t, err)
	assert.True(t, found.ID().Equals(created[0].ID()))

	_, err = repo.GetByID(ctx, card.NewCardID())
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestCreate_HandsOutClones(t *testing.T) {
	repo := NewCardRepository()
	ctx := context.Background()

	c := fixtures.NewCardBuilder().WithCompanyName("Original").Build()
	stored, err := repo.Create(ctx, c)
	require.NoError(t, err)

	// Mutating the returned card must not affect the canonical record
	mutated := "Mutated"
	require.NoError(t, stored.ApplyPatch(card.Patch{CompanyName: &mutated}))

	fresh, err := repo.GetByID(ctx, c.ID())
	require.NoError(t, err)
	assert.Equal(t, "Original", fresh.Fields().CompanyName)
}

func TestUpdate(t *testing.T) {
	repo := NewCardRepository()
	created := seedCards(t, repo, 1)
	ctx := context.Background()

	name := "Updated Corp"
	updated, err := repo.Update(ctx, created[0].ID(), card.Patch{CompanyName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Updated Corp", updated.Fields().CompanyName)
	assert.True(t, updated.UpdatedAt().After(updated.CreatedAt()) || updated.UpdatedAt().Equal(updated.CreatedAt()))

	_, err = repo.Update(ctx, card.NewCardID(), card.Patch{CompanyName: &name})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestDelete_UnknownIDIsNotAnError(t *testing.T) {
	repo := NewCardRepository()
	created := seedCards(t, repo, 2)
	ctx := context.Background()

	deleted, err := repo.Delete(ctx, created[0].ID())
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, 1, repo.Len())

	deleted, err = repo.Delete(ctx, created[0].ID())
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, 1, repo.Len())
}

func TestFindDuplicates(t *testing.T) {
	repo := NewCardRepository()
	ctx := context.Background()

	match := fixtures.NewCardBuilder().WithEmail("Yamada@SampleTech.co.jp").Build()
	other := fixtures.NewCardBuilder().WithEmail("suzuki@example.com").Build()
	for _, crd := range []*card.Card{match, other} {
		_, err := repo.Create(ctx, crd)
		require.NoError(t, err)
	}

	candidates, err := repo.FindDuplicates(ctx, "yamada@sampletech.co.jp", card.CardID{})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, 0.8, candidates[0].Similarity)
	assert.Equal(t, []string{"email"}, candidates[0].MatchedFields)
}

func TestAll_OrderedNewestFirst(t *testing.T) {
	repo := NewCardRepository()
	created := seedCards(t, repo, 3)
	ctx := context.Background()

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].ID().Equals(created[2].ID()))
	assert.True(t, all[2].ID().Equals(created[0].ID()))
}
