package card

import (
	"errors"

	"github.com/google/uuid"
)

// CardID is a value object representing a unique card identifier
// Value objects are immutable and have no identity beyond their value
type CardID struct {
	value string
}

// NewCardID creates a new random CardID
func NewCardID() CardID {
	return CardID{value: uuid.New().String()}
}

// NewCardIDFromString creates a CardID from an existing string
func NewCardIDFromString(id string) (CardID, error) {
	if id == "" {
		return CardID{}, errors.New("card ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return CardID{}, errors.New("card ID must be a valid UUID")
	}
	return CardID{value: id}, nil
}

// String returns the string representation of the CardID
func (id CardID) String() string {
	return id.value
}

// Equals checks if two CardIDs are equal
func (id CardID) Equals(other CardID) bool {
	return id.value == other.value
}

// IsZero checks if the CardID is the zero value
func (id CardID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id CardID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *CardID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("CardID must be a string")
	}
	id.value = string(data[1 : len(data)-1])
	return nil
}
