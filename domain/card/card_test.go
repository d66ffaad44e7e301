package card

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func TestNewCard_Defaults(t *testing.T) {
	fields := Fields{
		CompanyName: "株式会社サンプルテック",
		PersonName:  "山田 太郎",
		Email:       "yamada@sampletech.co.jp",
	}

	c, err := NewCard("uploads/img.png", OcrResult{Confidence: 0.9}, fields)
	require.NoError(t, err)

	assert.False(t, c.ID().IsZero())
	assert.Equal(t, StatusUnverified, c.Status())
	assert.Equal(t, fields, c.Fields())
	assert.Equal(t, "uploads/img.png", c.ImageRef())
	assert.Equal(t, c.CreatedAt(), c.UpdatedAt())
}

func TestNewCard_RejectsInvalidConfidence(t *testing.T) {
	_, err := NewCard("", OcrResult{Confidence: 1.5}, Fields{})
	assert.Error(t, err)
}

func TestApplyPatch_PresentFieldsOverwrite(t *testing.T) {
	c, err := NewCard("", OcrResult{}, Fields{
		CompanyName: "Old Corp",
		PersonName:  "Old Name",
		Email:       "old@example.com",
	})
	require.NoError(t, err)

	err = c.ApplyPatch(Patch{
		CompanyName: strPtr("New Corp"),
		Email:       strPtr("new@example.com"),
	})
	require.NoError(t, err)

	assert.Equal(t, "New Corp", c.Fields().CompanyName)
	assert.Equal(t, "new@example.com", c.Fields().Email)
	// Absent fields are preserved
	assert.Equal(t, "Old Name", c.Fields().PersonName)
}

func TestApplyPatch_ClearingIsDistinctFromAbsent(t *testing.T) {
	c, err := NewCard("", OcrResult{}, Fields{Email: "old@example.com"})
	require.NoError(t, err)

	require.NoError(t, c.ApplyPatch(Patch{Email: strPtr("")}))
	assert.Empty(t, c.Fields().Email)
}

func TestApplyPatch_RejectsUnknownStatus(t *testing.T) {
	c, err := NewCard("", OcrResult{}, Fields{})
	require.NoError(t, err)

	bad := Status("pending")
	assert.Error(t, c.ApplyPatch(Patch{Status: &bad}))
	assert.Equal(t, StatusUnverified, c.Status())
}

func TestApplyPatch_UpdatesStatus(t *testing.T) {
	c, err := NewCard("", OcrResult{}, Fields{})
	require.NoError(t, err)

	verified := StatusVerified
	require.NoError(t, c.ApplyPatch(Patch{Status: &verified}))
	assert.Equal(t, StatusVerified, c.Status())
}

func TestApplyPatch_PreservesIDAndCreatedAt(t *testing.T) {
	created := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	id := NewCardID()
	c := ReconstructCard(id, "", OcrResult{}, Fields{}, StatusUnverified, created, created)

	require.NoError(t, c.ApplyPatch(Patch{CompanyName: strPtr("Corp")}))

	assert.True(t, c.ID().Equals(id))
	assert.Equal(t, created, c.CreatedAt())
	assert.True(t, c.UpdatedAt().After(created))
}

func TestClone_IsIndependent(t *testing.T) {
	c, err := NewCard("", OcrResult{}, Fields{CompanyName: "Corp"})
	require.NoError(t, err)

	clone := c.Clone()
	require.NoError(t, clone.ApplyPatch(Patch{CompanyName: strPtr("Other")}))

	assert.Equal(t, "Corp", c.Fields().CompanyName)
	assert.Equal(t, "Other", clone.Fields().CompanyName)
}

func TestMatchesSearch(t *testing.T) {
	c, err := NewCard("", OcrResult{}, Fields{
		CompanyName: "株式会社サンプルテック",
		PersonName:  "Taro Yamada",
		Department:  "営業部",
		Position:    "部長",
		Email:       "yamada@sampletech.co.jp",
		Phone:       "03-1234-5678",
		Address:     "東京都港区",
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		term string
		want bool
	}{
		{"empty term matches everything", "", true},
		{"company substring", "サンプル", true},
		{"person name case-insensitive", "taro", true},
		{"person name different case", "YAMADA", true},
		{"department", "営業", true},
		{"position", "部長", true},
		{"email", "sampletech.co.jp", true},
		{"phone is not searched", "1234", false},
		{"address is not searched", "東京都", false},
		{"no match", "nomatch", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.MatchesSearch(tt.term))
		})
	}
}

func TestMatchesStatus(t *testing.T) {
	c, err := NewCard("", OcrResult{}, Fields{})
	require.NoError(t, err)

	assert.True(t, c.MatchesStatus(""))
	assert.True(t, c.MatchesStatus("all"))
	assert.True(t, c.MatchesStatus("unverified"))
	assert.False(t, c.MatchesStatus("verified"))
}
