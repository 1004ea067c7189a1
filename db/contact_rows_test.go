package db

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/harperreed/leadgen/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeContactRowAliases(t *testing.T) {
	tests := []struct {
		name string
		row  map[string]interface{}
		want models.Contact
	}{
		{
			name: "snake_case",
			row: map[string]interface{}{
				"id": "1", "first_name": "Alice", "last_name": "Durand", "email": "alice@example.com",
				"company": "Acme", "category": "member", "status": "Active",
			},
			want: models.Contact{ID: "1", FirstName: "Alice", LastName: "Durand", Email: "alice@example.com",
				Company: "Acme", Category: models.CategoryMember, Status: "Active"},
		},
		{
			name: "camelCase",
			row: map[string]interface{}{
				"id": "2", "firstName": "Bruno", "lastName": "Petit", "companyName": "Globex", "category": "Prospect",
			},
			want: models.Contact{ID: "2", FirstName: "Bruno", LastName: "Petit", Company: "Globex",
				Category: models.CategoryProspect, Status: models.ContactStatusNew},
		},
		{
			name: "french headers",
			row: map[string]interface{}{
				"Prénom": "Chloé", "Nom": "Bernard", "Société": "Initech", "Téléphone": "0601020304",
				"Catégorie": "MEMBRE", "Statut": "Contacted",
			},
			want: models.Contact{FirstName: "Chloé", LastName: "Bernard", Company: "Initech", Phone: "0601020304",
				Category: models.CategoryMember, Status: "Contacted"},
		},
		{
			name: "full name split",
			row:  map[string]interface{}{"name": "Jean Paul Sartre", "email": "jp@example.com"},
			want: models.Contact{FirstName: "Jean", LastName: "Paul Sartre", Email: "jp@example.com",
				Category: models.CategoryProspect, Status: models.ContactStatusNew},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeContactRow(tt.row)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("NormalizeContactRow mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeContactRowPriority(t *testing.T) {
	row := map[string]interface{}{
		"first_name": "",
		"firstName":  "Camel",
		"prenom":     "Francais",
	}
	assert.Equal(t, "Camel", NormalizeContactRow(row).FirstName)

	row = map[string]interface{}{"prenom": "Francais", "PRENOM": "Shout"}
	assert.Equal(t, "Francais", NormalizeContactRow(row).FirstName)
}

func TestNormalizeContactRowTagsAndScore(t *testing.T) {
	c := NormalizeContactRow(map[string]interface{}{
		"tags":  `["vip","salon","VIP"]`,
		"score": int64(140),
	})
	assert.Equal(t, []string{"vip", "salon"}, c.Tags)
	require.NotNil(t, c.Score)
	assert.Equal(t, 100, *c.Score)

	c = NormalizeContactRow(map[string]interface{}{"tags": "a, b;c", "aiScore": "42.6"})
	assert.Equal(t, []string{"a", "b", "c"}, c.Tags)
	require.NotNil(t, c.Score)
	assert.Equal(t, 43, *c.Score)

	c = NormalizeContactRow(map[string]interface{}{"score": nil, "tags": []interface{}{"x"}})
	assert.Nil(t, c.Score)
	assert.Equal(t, []string{"x"}, c.Tags)

	c = NormalizeContactRow(map[string]interface{}{"score": "n/a"})
	assert.Nil(t, c.Score)
}

func TestNormalizeContactRowTimes(t *testing.T) {
	created := time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC)

	c := NormalizeContactRow(map[string]interface{}{"created_at": created})
	assert.True(t, created.Equal(c.CreatedAt))

	c = NormalizeContactRow(map[string]interface{}{"createdAt": "2026-01-05T09:30:00Z"})
	assert.True(t, created.Equal(c.CreatedAt))

	c = NormalizeContactRow(map[string]interface{}{"created_at": []byte("2026-01-05 09:30:00")})
	assert.True(t, created.Equal(c.CreatedAt))
}

func TestNormalizeCampaignRow(t *testing.T) {
	row := map[string]interface{}{
		"id":               "camp-1",
		"name":             "Salon",
		"goal":             "event",
		"status":           "Running",
		"targetContactIds": `["c1", 42, ""]`,
		"sent":             int64(7),
		"outcomes":         `{"c1":{"status":"Registered","attendees":3,"updatedAt":"2026-02-01T10:00:00Z"}}`,
	}

	c := NormalizeCampaignRow(row)
	assert.Equal(t, models.GoalEvent, c.Goal)
	assert.Equal(t, models.CampaignRunning, c.Status)
	assert.Equal(t, []string{"c1", "42"}, c.TargetContactIDs)
	assert.Equal(t, 7, c.Sent)
	require.Contains(t, c.Outcomes, "c1")
	assert.Equal(t, models.OutcomeRegistered, c.Outcomes["c1"].Status)
	assert.Equal(t, 3, c.Outcomes["c1"].Attendees)
}

func TestNormalizeCampaignRowDefaults(t *testing.T) {
	c := NormalizeCampaignRow(map[string]interface{}{"id": "x", "outcomes": "not json"})
	assert.Equal(t, models.CampaignDraft, c.Status)
	assert.Empty(t, c.TargetContactIDs)
	assert.NotNil(t, c.Outcomes)
	assert.Empty(t, c.Outcomes)
}

func TestFoldKey(t *testing.T) {
	assert.Equal(t, "prenom", FoldKey("Prénom"))
	assert.Equal(t, "siteweb", FoldKey("Site web"))
	assert.Equal(t, "firstname", FoldKey("first_name"))
	assert.Equal(t, FoldKey("firstName"), FoldKey("FIRST-NAME"))
}
