// ABOUTME: Mail-merge rendering of campaign templates
// ABOUTME: Replaces contact placeholders such as {{Prénom}}, {{Nom}} and {{company}}
package campaign

import (
	"strings"

	"github.com/harperreed/leadgen/models"
)

func placeholders(c models.Contact) *strings.Replacer {
	return strings.NewReplacer(
		"{{Prénom}}", c.FirstName,
		"{{Prenom}}", c.FirstName,
		"{{firstName}}", c.FirstName,
		"{{Nom}}", c.LastName,
		"{{lastName}}", c.LastName,
		"{{company}}", c.Company,
		"{{Société}}", c.Company,
		"{{email}}", c.Email,
	)
}

// Render fills the template for one recipient. Unknown placeholders are left as written.
func Render(template string, c models.Contact) string {
	return placeholders(c).Replace(template)
}
