package profile

import (
	"strconv"

	domprofile "github.com/kailas-cloud/vecmatch/internal/domain/profile"
)

// cardToHash converts a card to a map for HSET. Empty fields are left out
// so a partial save never blanks out what the registration API wrote.
func cardToHash(c domprofile.Card) map[string]string {
	m := make(map[string]string, 6)
	m["id"] = c.ID
	if c.FirstName != "" {
		m["first_name"] = c.FirstName
	}
	if c.LastName != "" {
		m["last_name"] = c.LastName
	}
	if c.Age > 0 {
		m["age"] = strconv.Itoa(c.Age)
	}
	if c.Gender != "" {
		m["gender"] = c.Gender
	}
	if c.Location != "" {
		m["location"] = c.Location
	}
	return m
}

// cardFromHash hydrates a card from an HGETALL result. An unparsable age is dropped.
func cardFromHash(id string, m map[string]string) domprofile.Card {
	age, _ := strconv.Atoi(m["age"])
	return domprofile.Card{
		ID:        id,
		FirstName: m["first_name"],
		LastName:  m["last_name"],
		Age:       age,
		Gender:    m["gender"],
		Location:  m["location"],
	}
}
