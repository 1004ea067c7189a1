// ABOUTME: Duplicate contact detection by normalized email
// ABOUTME: Clusters are rebuilt from scratch on every call, never maintained incrementally
package dedup

import (
	"sort"

	"github.com/harperreed/leadgen/models"
)

// Cluster is a set of contacts sharing one normalized email, in store order.
type Cluster struct {
	Email    string           `json:"email"`
	Contacts []models.Contact `json:"contacts"`
}

// FindDuplicates groups contacts by normalized email and keeps groups of two or more,
// largest first. Ties keep the order in which each email was first seen.
func FindDuplicates(contacts []models.Contact) []Cluster {
	byEmail := make(map[string][]models.Contact)
	var order []string

	for _, c := range contacts {
		email := c.NormalizedEmail()
		if email == "" {
			continue
		}
		if _, seen := byEmail[email]; !seen {
			order = append(order, email)
		}
		byEmail[email] = append(byEmail[email], c)
	}

	var clusters []Cluster
	for _, email := range order {
		if group := byEmail[email]; len(group) >= 2 {
			clusters = append(clusters, Cluster{Email: email, Contacts: group})
		}
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return len(clusters[i].Contacts) > len(clusters[j].Contacts)
	})
	return clusters
}
