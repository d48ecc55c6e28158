package types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Supply represents a donated supply item in the catalog.
type Supply struct {
	// ID is the unique identifier of the supply.
	ID int `json:"id" db:"id"`

	// ImageLink is a URL or path to an image of the supply.
	ImageLink string `json:"imageLink" db:"image_link"`

	// Title is the human-readable name of the supply.
	Title string `json:"title" db:"title"`

	// Category groups related supplies (e.g., "Grain", "Vegetable").
	Category string `json:"category" db:"category"`

	// Quantity is the available amount. Clients send it as either a JSON
	// number or a string; no arithmetic is ever performed on it, so it is
	// carried as an opaque scalar.
	Quantity Quantity `json:"quantity" db:"quantity"`

	// Description is the free-form description of the supply.
	Description string `json:"description" db:"description"`

	// CreatedAt is the timestamp at which the supply was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the supply.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Quantity is an opaque scalar that accepts both JSON numbers and strings.
// It round-trips numeric input back out as a number.
type Quantity string

func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = Quantity(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*q = Quantity(n)
	return nil
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	s := string(q)
	if s != "" && json.Valid([]byte(s)) {
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return []byte(s), nil
		}
	}
	return json.Marshal(s)
}

func (q Quantity) String() string {
	return string(q)
}
