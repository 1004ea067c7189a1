// ABOUTME: Row normalization from loosely-shaped table rows into canonical records
// ABOUTME: Accepts snake_case, camelCase, and French column aliases with a fixed priority per field
package db

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/harperreed/leadgen/models"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Alias lists are in priority order: an exact key match wins before any folded match.
var contactAliases = map[string][]string{
	"id":           {"id", "uuid"},
	"first_name":   {"first_name", "firstName", "prenom", "first", "given_name"},
	"last_name":    {"last_name", "lastName", "nom", "last", "family_name", "surname"},
	"full_name":    {"full_name", "fullName", "name", "nom_complet"},
	"company":      {"company", "company_name", "companyName", "societe", "entreprise", "organization", "organisation"},
	"title":        {"title", "job_title", "jobTitle", "poste", "fonction", "position"},
	"email":        {"email", "mail", "e_mail", "courriel"},
	"phone":        {"phone", "telephone", "tel", "mobile", "phone_number"},
	"linkedin":     {"linkedin", "linkedin_url", "linkedinUrl"},
	"website":      {"website", "site_web", "site", "url", "web"},
	"address":      {"address", "adresse"},
	"category":     {"category", "categorie", "type"},
	"status":       {"status", "statut"},
	"notes":        {"notes", "note", "commentaire", "comments"},
	"tags":         {"tags", "labels"},
	"score":        {"score", "ai_score", "aiScore"},
	"score_reason": {"score_reason", "scoreReason", "ai_reason"},
	"created_at":   {"created_at", "createdAt", "date_creation"},
	"updated_at":   {"updated_at", "updatedAt"},
}

// NormalizeContactRow converts a raw row (table scan, CSV line, JSON export) into a Contact.
// Raw rows never travel past this function.
func NormalizeContactRow(row map[string]interface{}) models.Contact {
	r := newAliasRow(row)

	c := models.Contact{
		ID:          r.str("id"),
		FirstName:   r.str("first_name"),
		LastName:    r.str("last_name"),
		Company:     r.str("company"),
		Title:       r.str("title"),
		Email:       r.str("email"),
		Phone:       r.str("phone"),
		LinkedIn:    r.str("linkedin"),
		Website:     r.str("website"),
		Address:     r.str("address"),
		Category:    models.ParseCategory(r.str("category")),
		Status:      r.str("status"),
		Notes:       r.str("notes"),
		Tags:        toTags(r.value("tags")),
		Score:       toScore(r.value("score")),
		ScoreReason: r.str("score_reason"),
		CreatedAt:   toTime(r.value("created_at")),
		UpdatedAt:   toTime(r.value("updated_at")),
	}

	if c.FirstName == "" && c.LastName == "" {
		if full := r.str("full_name"); full != "" {
			parts := strings.SplitN(full, " ", 2)
			c.FirstName = parts[0]
			if len(parts) == 2 {
				c.LastName = strings.TrimSpace(parts[1])
			}
		}
	}

	if c.Status == "" {
		c.Status = models.ContactStatusNew
	}

	return c
}

var campaignAliases = map[string][]string{
	"id":                 {"id"},
	"name":               {"name", "nom"},
	"subject":            {"subject", "objet"},
	"template":           {"template", "body"},
	"goal":               {"goal", "objectif"},
	"status":             {"status", "statut"},
	"target_contact_ids": {"target_contact_ids", "targetContactIds"},
	"sent":               {"sent", "sent_count"},
	"outcomes":           {"outcomes"},
	"created_at":         {"created_at", "createdAt"},
	"updated_at":         {"updated_at", "updatedAt"},
}

// NormalizeCampaignRow converts a raw campaign row into a Campaign.
func NormalizeCampaignRow(row map[string]interface{}) models.Campaign {
	r := aliasRow{row: row, folded: foldKeys(row), aliases: campaignAliases}

	c := models.Campaign{
		ID:               r.str("id"),
		Name:             r.str("name"),
		Subject:          r.str("subject"),
		Template:         r.str("template"),
		Goal:             models.CampaignGoal(r.str("goal")),
		Status:           models.CampaignStatus(r.str("status")),
		TargetContactIDs: toIDList(r.value("target_contact_ids")),
		Sent:             toInt(r.value("sent")),
		Outcomes:         toOutcomes(r.value("outcomes")),
		CreatedAt:        toTime(r.value("created_at")),
		UpdatedAt:        toTime(r.value("updated_at")),
	}
	if goal, err := models.ParseCampaignGoal(string(c.Goal)); err == nil {
		c.Goal = goal
	}
	if c.Status == "" {
		c.Status = models.CampaignDraft
	}
	return c
}

type aliasRow struct {
	row     map[string]interface{}
	folded  map[string][]string
	aliases map[string][]string
}

func newAliasRow(row map[string]interface{}) aliasRow {
	return aliasRow{row: row, folded: foldKeys(row), aliases: contactAliases}
}

func (r aliasRow) value(field string) interface{} {
	aliases := r.aliases[field]
	for _, a := range aliases {
		if v, ok := r.row[a]; ok && !isEmpty(v) {
			return v
		}
	}
	for _, a := range aliases {
		for _, k := range r.folded[FoldKey(a)] {
			if v := r.row[k]; !isEmpty(v) {
				return v
			}
		}
	}
	return nil
}

func (r aliasRow) str(field string) string {
	return toString(r.value(field))
}

func foldKeys(row map[string]interface{}) map[string][]string {
	folded := make(map[string][]string, len(row))
	for k := range row {
		f := FoldKey(k)
		folded[f] = append(folded[f], k)
	}
	for _, keys := range folded {
		sort.Strings(keys)
	}
	return folded
}

// FoldKey lowercases, strips accents, and drops separators so "Prénom", "prenom" and
// "PRE_NOM" compare equal.
func FoldKey(k string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, k)
	if err != nil {
		s = k
	}
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []byte:
		return strings.TrimSpace(string(t)) == ""
	}
	return false
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339)
	case json.Number:
		return t.String()
	}
	return ""
}

func toInt(v interface{}) int {
	switch t := v.(type) {
	case int64:
		return int(t)
	case int:
		return t
	case float64:
		return int(math.Round(t))
	case json.Number:
		n, _ := t.Float64()
		return int(math.Round(n))
	}
	n, err := strconv.ParseFloat(toString(v), 64)
	if err != nil {
		return 0
	}
	return int(math.Round(n))
}

func toScore(v interface{}) *int {
	if isEmpty(v) {
		return nil
	}
	if _, err := strconv.ParseFloat(toString(v), 64); err != nil {
		return nil
	}
	score := toInt(v)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return &score
}

var timeFormats = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006",
}

func toTime(v interface{}) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	s := toString(v)
	if s == "" {
		return time.Time{}
	}
	for _, f := range timeFormats {
		if t, err := time.Parse(f, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func toTags(v interface{}) []string {
	var raw []string
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		raw = t
	case []interface{}:
		for _, item := range t {
			raw = append(raw, toString(item))
		}
	default:
		s := toString(v)
		if strings.HasPrefix(s, "[") {
			var parsed []interface{}
			if err := json.Unmarshal([]byte(s), &parsed); err == nil {
				return toTags(parsed)
			}
		}
		raw = strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	}

	seen := make(map[string]bool)
	var tags []string
	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[strings.ToLower(tag)] {
			continue
		}
		seen[strings.ToLower(tag)] = true
		tags = append(tags, tag)
	}
	return tags
}

// toIDList accepts JSON arrays mixing strings and numbers.
func toIDList(v interface{}) []string {
	var items []interface{}
	switch t := v.(type) {
	case nil:
		return []string{}
	case []string:
		return append([]string{}, t...)
	case []interface{}:
		items = t
	default:
		dec := json.NewDecoder(strings.NewReader(toString(v)))
		dec.UseNumber()
		if err := dec.Decode(&items); err != nil {
			return []string{}
		}
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		if id := toString(item); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func toOutcomes(v interface{}) map[string]models.OutcomeDetail {
	outcomes := make(map[string]models.OutcomeDetail)

	var raw map[string]models.OutcomeDetail
	switch t := v.(type) {
	case nil:
		return outcomes
	case map[string]models.OutcomeDetail:
		raw = t
	default:
		if err := json.Unmarshal([]byte(toString(v)), &raw); err != nil {
			return outcomes
		}
	}

	for id, detail := range raw {
		if status, err := models.ParseOutcomeStatus(string(detail.Status)); err == nil {
			detail.Status = status
		}
		outcomes[id] = detail
	}
	return outcomes
}
