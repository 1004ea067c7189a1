package sync

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/people/v1"

	"github.com/harperreed/leadgen/csvio"
	"github.com/harperreed/leadgen/db"
	"github.com/harperreed/leadgen/models"
)

type fakePeople struct {
	pages map[string]*people.ListConnectionsResponse
}

func (f *fakePeople) ListConnections(_ context.Context, pageToken string) (*people.ListConnectionsResponse, error) {
	if page, ok := f.pages[pageToken]; ok {
		return page, nil
	}
	return nil, fmt.Errorf("unexpected page %q", pageToken)
}

type memContacts struct {
	contacts []models.Contact
}

func (m *memContacts) Create(_ context.Context, c *models.Contact) error {
	c.ID = fmt.Sprintf("c%d", len(m.contacts)+1)
	m.contacts = append(m.contacts, *c)
	return nil
}

func (m *memContacts) List(_ context.Context, _ db.ContactFilter) ([]models.Contact, error) {
	return append([]models.Contact(nil), m.contacts...), nil
}

func TestPersonToContact(t *testing.T) {
	c, ok := personToContact(&people.Person{
		Names:          []*people.Name{{GivenName: "Alice", FamilyName: "Martin"}},
		EmailAddresses: []*people.EmailAddress{{Value: "alice@acme.fr"}},
		PhoneNumbers:   []*people.PhoneNumber{{Value: "+33 6 12 34 56 78"}},
		Organizations:  []*people.Organization{{Name: "Acme", Title: "CTO"}},
		Urls: []*people.Url{
			{Value: "https://www.linkedin.com/in/alice"},
			{Value: "https://acme.fr"},
		},
		Addresses: []*people.Address{{FormattedValue: "1 rue de Paris"}},
	})
	require.True(t, ok)

	assert.Equal(t, "Alice", c.FirstName)
	assert.Equal(t, "Martin", c.LastName)
	assert.Equal(t, "Acme", c.Company)
	assert.Equal(t, "CTO", c.Title)
	assert.Equal(t, "https://www.linkedin.com/in/alice", c.LinkedIn)
	assert.Equal(t, "https://acme.fr", c.Website)
	assert.Equal(t, "1 rue de Paris", c.Address)
	assert.Equal(t, models.CategoryProspect, c.Category)
	assert.Equal(t, []string{"google"}, c.Tags)

	_, ok = personToContact(&people.Person{})
	assert.False(t, ok)

	c, ok = personToContact(&people.Person{Names: []*people.Name{{DisplayName: "Bob"}}})
	require.True(t, ok)
	assert.Equal(t, "Bob", c.FirstName)
}

func TestContactsImportSkipsKnownEmails(t *testing.T) {
	store := &memContacts{contacts: []models.Contact{{ID: "c0", Email: "ALICE@acme.fr"}}}
	client := &fakePeople{pages: map[string]*people.ListConnectionsResponse{
		"": {
			Connections: []*people.Person{
				{EmailAddresses: []*people.EmailAddress{{Value: "alice@acme.fr"}}},
				{Names: []*people.Name{{GivenName: "Bob"}}, EmailAddresses: []*people.EmailAddress{{Value: "bob@beta.fr"}}},
			},
			NextPageToken: "next",
		},
		"next": {
			Connections: []*people.Person{
				{Names: []*people.Name{{GivenName: "Chloé"}}},
				{},
			},
		},
	}}

	importer := NewContactsImporter(client, csvio.NewImporter(store, nil))
	report, err := importer.Import(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Skipped)
	assert.Len(t, store.contacts, 3)
}
