// ABOUTME: Email matcher used to skip contacts that already exist during imports
// ABOUTME: Also catches duplicates inside the same import batch
package csvio

import (
	"github.com/harperreed/leadgen/models"
)

type Matcher struct {
	byEmail map[string]*models.Contact
}

func NewMatcher(contacts []models.Contact) *Matcher {
	m := &Matcher{byEmail: make(map[string]*models.Contact)}
	for i := range contacts {
		m.Add(&contacts[i])
	}
	return m
}

// FindMatch looks for an existing contact by email. Empty emails never match.
func (m *Matcher) FindMatch(email string) (*models.Contact, bool) {
	normalized := models.NormalizeEmail(email)
	if normalized == "" {
		return nil, false
	}
	c, ok := m.byEmail[normalized]
	return c, ok
}

func (m *Matcher) Add(c *models.Contact) {
	if email := c.NormalizedEmail(); email != "" {
		m.byEmail[email] = c
	}
}
