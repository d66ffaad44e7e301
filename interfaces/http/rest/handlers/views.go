package handlers

import (
	"meishi-backend/application/workflow"
	"meishi-backend/domain/card"
	"meishi-backend/pkg/utils"
)

// CardView is the API representation of a stored card
type CardView struct {
	ID        string         `json:"id"`
	ImageRef  string         `json:"imageRef,omitempty"`
	OCR       card.OcrResult `json:"ocr"`
	Fields    card.Fields    `json:"fields"`
	Status    string         `json:"status"`
	CreatedAt string         `json:"createdAt"`
	UpdatedAt string         `json:"updatedAt"`
}

func toCardView(c *card.Card) CardView {
	return CardView{
		ID:        c.ID().String(),
		ImageRef:  c.ImageRef(),
		OCR:       c.OCR(),
		Fields:    c.Fields(),
		Status:    string(c.Status()),
		CreatedAt: utils.FormatRFC3339(c.CreatedAt()),
		UpdatedAt: utils.FormatRFC3339(c.UpdatedAt()),
	}
}

func toCardViews(cards []*card.Card) []CardView {
	views := make([]CardView, 0, len(cards))
	for _, c := range cards {
		views = append(views, toCardView(c))
	}
	return views
}

// DuplicateView is the API representation of one duplicate candidate
type DuplicateView struct {
	Card          CardView `json:"card"`
	Similarity    float64  `json:"similarity"`
	MatchedFields []string `json:"matchedFields"`
}

func toDuplicateViews(candidates []card.DuplicateCandidate) []DuplicateView {
	views := make([]DuplicateView, 0, len(candidates))
	for _, d := range candidates {
		views = append(views, DuplicateView{
			Card:          toCardView(d.Card),
			Similarity:    d.Similarity,
			MatchedFields: d.MatchedFields,
		})
	}
	return views
}

// SessionView is the API representation of an upload session
type SessionView struct {
	ID         string          `json:"id"`
	State      string          `json:"state"`
	ImageRef   string          `json:"imageRef,omitempty"`
	OCR        *card.OcrResult `json:"ocr,omitempty"`
	Draft      card.Fields     `json:"draft"`
	Duplicates []DuplicateView `json:"duplicates,omitempty"`
	SavedCard  *CardView       `json:"savedCard,omitempty"`
}

func toSessionView(s *workflow.Session) SessionView {
	snapshot := s.Snapshot()
	view := SessionView{
		ID:       snapshot.ID,
		State:    string(snapshot.State),
		ImageRef: snapshot.ImageRef,
		OCR:      snapshot.OCR,
		Draft:    snapshot.Draft,
	}
	if len(snapshot.Duplicates) > 0 {
		view.Duplicates = toDuplicateViews(snapshot.Duplicates)
	}
	if snapshot.SavedCard != nil {
		saved := toCardView(snapshot.SavedCard)
		view.SavedCard = &saved
	}
	return view
}
