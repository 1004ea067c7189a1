// ABOUTME: Campaign report CSV: one row per qualified target plus a totals block
// ABOUTME: Uses the same quoted, BOM-prefixed format as the contact export
package csvio

import (
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/harperreed/leadgen/campaign"
	"github.com/harperreed/leadgen/models"
)

var ReportHeaders = []string{
	"Campagne", "Objectif", "Statut campagne", "Prénom", "Nom", "Email", "Société",
	"Résultat", "Participants", "Mis à jour",
}

var StatsHeaders = []string{"Inscrits", "Rendez-vous", "Positifs", "Négatifs", "NSP"}

// ExportCampaignReport writes every outcome of every campaign, then the aggregated stats.
// Contacts missing from the lookup (deleted since) still get a row with their id as email.
func ExportCampaignReport(w io.Writer, campaigns []models.Campaign, contacts map[string]models.Contact) error {
	cw := NewWriter(w)
	if err := cw.Write(ReportHeaders); err != nil {
		return err
	}

	for _, c := range campaigns {
		ids := make([]string, 0, len(c.Outcomes))
		for id := range c.Outcomes {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			o := c.Outcomes[id]
			contact, ok := contacts[id]
			if !ok {
				contact = models.Contact{Email: id}
			}
			attendees := ""
			if o.Status == models.OutcomeRegistered {
				n := o.Attendees
				if n <= 0 {
					n = 1
				}
				attendees = strconv.Itoa(n)
			}
			updated := ""
			if !o.UpdatedAt.IsZero() {
				updated = o.UpdatedAt.Format(time.RFC3339)
			}
			if err := cw.Write([]string{
				c.Name, string(c.Goal), string(c.Status), contact.FirstName, contact.LastName,
				contact.Email, contact.Company, string(o.Status), attendees, updated,
			}); err != nil {
				return err
			}
		}
	}

	if err := cw.Write(nil); err != nil {
		return err
	}
	if err := ExportStats(cw, campaign.Aggregate(campaigns)); err != nil {
		return err
	}
	return cw.Flush()
}

// ExportStats writes the stats header and one value row.
func ExportStats(cw *Writer, s campaign.Stats) error {
	if err := cw.Write(StatsHeaders); err != nil {
		return err
	}
	return cw.Write([]string{
		strconv.Itoa(s.Registered), strconv.Itoa(s.Meetings), strconv.Itoa(s.Positive),
		strconv.Itoa(s.Negative), strconv.Itoa(s.NSP),
	})
}
