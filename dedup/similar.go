// ABOUTME: Near-duplicate suggestions for contacts that share no email
// ABOUTME: Compares folded full names with an edit-distance ratio
package dedup

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/harperreed/leadgen/models"
)

// DefaultNameThreshold is the largest distance/length ratio still treated as a likely match.
const DefaultNameThreshold = 0.2

// Suggestion pairs two contacts whose names look alike.
type Suggestion struct {
	A          models.Contact `json:"a"`
	B          models.Contact `json:"b"`
	Similarity float64        `json:"similarity"`
}

// SimilarNames lists contact pairs with near-identical names and different emails.
// Pairs already caught by FindDuplicates are skipped. These are hints only, merging
// stays an operator decision.
func SimilarNames(contacts []models.Contact, threshold float64) []Suggestion {
	if threshold <= 0 {
		threshold = DefaultNameThreshold
	}

	var out []Suggestion
	for i := 0; i < len(contacts); i++ {
		a := nameKey(contacts[i])
		if a == "" {
			continue
		}
		for j := i + 1; j < len(contacts); j++ {
			b := nameKey(contacts[j])
			if b == "" {
				continue
			}
			ea, eb := contacts[i].NormalizedEmail(), contacts[j].NormalizedEmail()
			if ea != "" && ea == eb {
				continue
			}

			dist := levenshtein.ComputeDistance(a, b)
			maxlen := len([]rune(a))
			if l := len([]rune(b)); l > maxlen {
				maxlen = l
			}
			ratio := float64(dist) / float64(maxlen)
			if ratio <= threshold {
				out = append(out, Suggestion{A: contacts[i], B: contacts[j], Similarity: 1 - ratio})
			}
		}
	}
	return out
}

func nameKey(c models.Contact) string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
