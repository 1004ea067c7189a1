// ABOUTME: Google Contacts importer built on the CSV/vCard import path
// ABOUTME: Converts People API connections to prospects and skips emails already in the store
package sync

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/people/v1"

	"github.com/harperreed/leadgen/csvio"
	"github.com/harperreed/leadgen/models"
)

const googleTag = "google"

type ContactsImporter struct {
	client   ConnectionLister
	importer *csvio.Importer
}

func NewContactsImporter(client ConnectionLister, importer *csvio.Importer) *ContactsImporter {
	return &ContactsImporter{client: client, importer: importer}
}

// Import fetches every connection page, then hands the batch to the contact importer.
func (ci *ContactsImporter) Import(ctx context.Context) (csvio.ImportReport, error) {
	var contacts []models.Contact
	pageToken := ""
	for {
		resp, err := ci.client.ListConnections(ctx, pageToken)
		if err != nil {
			return csvio.ImportReport{}, fmt.Errorf("failed to fetch google contacts: %w", err)
		}
		for _, p := range resp.Connections {
			if c, ok := personToContact(p); ok {
				contacts = append(contacts, c)
			}
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return ci.importer.Import(ctx, contacts)
}

// personToContact drops people with neither a name nor an email.
func personToContact(p *people.Person) (models.Contact, bool) {
	if p == nil {
		return models.Contact{}, false
	}

	c := models.Contact{
		Category: models.CategoryProspect,
		Status:   models.ContactStatusNew,
		Tags:     []string{googleTag},
	}

	if len(p.Names) > 0 && p.Names[0] != nil {
		c.FirstName = strings.TrimSpace(p.Names[0].GivenName)
		c.LastName = strings.TrimSpace(p.Names[0].FamilyName)
		if c.FirstName == "" && c.LastName == "" {
			c.FirstName = strings.TrimSpace(p.Names[0].DisplayName)
		}
	}
	if len(p.EmailAddresses) > 0 && p.EmailAddresses[0] != nil {
		c.Email = strings.TrimSpace(p.EmailAddresses[0].Value)
	}
	if c.FirstName == "" && c.LastName == "" && c.Email == "" {
		return models.Contact{}, false
	}

	if len(p.PhoneNumbers) > 0 && p.PhoneNumbers[0] != nil {
		c.Phone = strings.TrimSpace(p.PhoneNumbers[0].Value)
	}
	if len(p.Organizations) > 0 && p.Organizations[0] != nil {
		c.Company = strings.TrimSpace(p.Organizations[0].Name)
		c.Title = strings.TrimSpace(p.Organizations[0].Title)
	}
	if len(p.Biographies) > 0 && p.Biographies[0] != nil {
		c.Notes = strings.TrimSpace(p.Biographies[0].Value)
	}
	if len(p.Addresses) > 0 && p.Addresses[0] != nil {
		c.Address = strings.TrimSpace(p.Addresses[0].FormattedValue)
	}
	for _, u := range p.Urls {
		if u == nil || u.Value == "" {
			continue
		}
		if strings.Contains(strings.ToLower(u.Value), "linkedin.com") {
			if c.LinkedIn == "" {
				c.LinkedIn = u.Value
			}
		} else if c.Website == "" {
			c.Website = u.Value
		}
	}
	return c, true
}
