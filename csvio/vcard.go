// ABOUTME: vCard import for phone address-book exports and scanned cards
// ABOUTME: Malformed cards are skipped, the rest of the file is still read
package csvio

import (
	"errors"
	"io"
	"strings"

	"github.com/emersion/go-vcard"
	"github.com/harperreed/leadgen/models"
)

// ParseVCards reads every card in r. Cards with neither a name nor an email are dropped.
func ParseVCards(r io.Reader) ([]models.Contact, error) {
	dec := vcard.NewDecoder(r)

	var contacts []models.Contact
	var decoded, failed int
	for {
		card, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			failed++
			if decoded == 0 && failed > 3 {
				return nil, err
			}
			continue
		}
		decoded++

		c := cardToContact(card)
		if c.FirstName == "" && c.LastName == "" && c.Email == "" {
			continue
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}

func cardToContact(card vcard.Card) models.Contact {
	c := models.Contact{
		Email:    strings.TrimSpace(card.PreferredValue(vcard.FieldEmail)),
		Phone:    strings.TrimSpace(card.PreferredValue(vcard.FieldTelephone)),
		Title:    strings.TrimSpace(card.Value(vcard.FieldTitle)),
		Website:  strings.TrimSpace(card.PreferredValue(vcard.FieldURL)),
		Notes:    strings.TrimSpace(card.Value(vcard.FieldNote)),
		Category: models.CategoryProspect,
		Status:   models.ContactStatusNew,
	}

	if org := card.Value(vcard.FieldOrganization); org != "" {
		c.Company = strings.TrimSpace(strings.SplitN(org, ";", 2)[0])
	}

	if n := card.Name(); n != nil && (n.GivenName != "" || n.FamilyName != "") {
		c.FirstName = strings.TrimSpace(n.GivenName)
		c.LastName = strings.TrimSpace(n.FamilyName)
	} else if fn := strings.TrimSpace(card.Value(vcard.FieldFormattedName)); fn != "" {
		parts := strings.SplitN(fn, " ", 2)
		c.FirstName = parts[0]
		if len(parts) == 2 {
			c.LastName = strings.TrimSpace(parts[1])
		}
	}

	if addr := card.Address(); addr != nil {
		var parts []string
		for _, p := range []string{addr.StreetAddress, strings.TrimSpace(addr.PostalCode + " " + addr.Locality), addr.Country} {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		c.Address = strings.Join(parts, ", ")
	}

	for _, cat := range card.Categories() {
		if cat = strings.TrimSpace(cat); cat != "" {
			c.Tags = append(c.Tags, cat)
		}
	}
	for _, u := range card.Values(vcard.FieldURL) {
		if strings.Contains(strings.ToLower(u), "linkedin.com") {
			c.LinkedIn = u
			if c.Website == u {
				c.Website = ""
			}
			break
		}
	}
	return c
}
