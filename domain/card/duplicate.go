package card

import (
	"sort"
	"strings"
)

// DuplicateCandidate is a transient computed result surfacing an existing
// card that likely matches an incoming one. Candidates are produced fresh
// per lookup and never stored.
type DuplicateCandidate struct {
	Card          *Card
	Similarity    float64
	MatchedFields []string
}

// comparator contributes an independent additive weight to the similarity
// score. Adding further field comparisons (phone, company name) means
// appending to the comparator list; the contract does not change.
type comparator struct {
	field  string
	weight float64
	match  func(c *Card, email string) bool
}

var duplicateComparators = []comparator{
	{
		field:  "email",
		weight: 0.8,
		match: func(c *Card, email string) bool {
			return strings.EqualFold(c.fields.Email, email)
		},
	},
}

// MatchDuplicates scores every card against the candidate email and returns
// the candidates with at least one matched field, sorted by similarity
// descending; ties break on createdAt descending. An empty email yields no
// candidates, and excludeID omits the record being edited from its own check.
func MatchDuplicates(cards []*Card, email string, excludeID CardID) []DuplicateCandidate {
	if email == "" {
		return nil
	}

	var candidates []DuplicateCandidate
	for _, c := range cards {
		if !excludeID.IsZero() && c.id.Equals(excludeID) {
			continue
		}

		var similarity float64
		var matched []string
		for _, cmp := range duplicateComparators {
			if cmp.match(c, email) {
				similarity += cmp.weight
				matched = append(matched, cmp.field)
			}
		}

		if len(matched) > 0 {
			candidates = append(candidates, DuplicateCandidate{
				Card:          c,
				Similarity:    similarity,
				MatchedFields: matched,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		return candidates[i].Card.createdAt.After(candidates[j].Card.createdAt)
	})

	return candidates
}

// SortByCreatedAtDesc orders cards newest first. The sort is stable so that
// records sharing a timestamp keep their relative order.
func SortByCreatedAtDesc(cards []*Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].createdAt.After(cards[j].createdAt)
	})
}
