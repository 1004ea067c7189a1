package dedup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/harperreed/leadgen/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contact(id, email string) models.Contact {
	return models.Contact{ID: id, Email: email}
}

func ids(contacts []models.Contact) []string {
	out := make([]string, len(contacts))
	for i, c := range contacts {
		out[i] = c.ID
	}
	return out
}

func TestFindDuplicatesGroupsByNormalizedEmail(t *testing.T) {
	contacts := []models.Contact{
		contact("1", "alice@example.com"),
		contact("2", "bob@example.com"),
		contact("3", " ALICE@example.com "),
		contact("4", ""),
		contact("5", "carol@example.com"),
		contact("6", "Bob@Example.com"),
		contact("7", "bob@example.com"),
		contact("8", "   "),
	}

	clusters := FindDuplicates(contacts)
	require.Len(t, clusters, 2)

	assert.Equal(t, "bob@example.com", clusters[0].Email)
	assert.Equal(t, []string{"2", "6", "7"}, ids(clusters[0].Contacts))
	assert.Equal(t, "alice@example.com", clusters[1].Email)
	assert.Equal(t, []string{"1", "3"}, ids(clusters[1].Contacts))
}

func TestFindDuplicatesTiesKeepFirstSeenOrder(t *testing.T) {
	contacts := []models.Contact{
		contact("1", "z@example.com"),
		contact("2", "a@example.com"),
		contact("3", "z@example.com"),
		contact("4", "a@example.com"),
	}

	clusters := FindDuplicates(contacts)
	require.Len(t, clusters, 2)
	assert.Equal(t, "z@example.com", clusters[0].Email)
	assert.Equal(t, "a@example.com", clusters[1].Email)
}

func TestFindDuplicatesUnionIsExactlySharedEmails(t *testing.T) {
	emails := []string{"a@x.io", "b@x.io", "A@x.io", "", "c@x.io", "b@X.io ", "d@x.io", "c@x.io", "e@x.io"}
	var contacts []models.Contact
	for i, e := range emails {
		contacts = append(contacts, contact(fmt.Sprint(i), e))
	}

	counts := make(map[string]int)
	for _, c := range contacts {
		if e := c.NormalizedEmail(); e != "" {
			counts[e]++
		}
	}
	want := make(map[string]bool)
	for _, c := range contacts {
		if counts[c.NormalizedEmail()] >= 2 {
			want[c.ID] = true
		}
	}

	got := make(map[string]bool)
	for _, cl := range FindDuplicates(contacts) {
		assert.GreaterOrEqual(t, len(cl.Contacts), 2)
		for _, c := range cl.Contacts {
			assert.False(t, got[c.ID], "contact %s appears in two clusters", c.ID)
			got[c.ID] = true
		}
	}
	assert.Equal(t, want, got)
}

func TestFindDuplicatesEmpty(t *testing.T) {
	assert.Empty(t, FindDuplicates(nil))
	assert.Empty(t, FindDuplicates([]models.Contact{contact("1", "solo@example.com")}))
}

func TestResolveFirstNonEmptyWins(t *testing.T) {
	selected := []models.Contact{
		{ID: "p", Email: "dup@example.com", FirstName: "Alice", Phone: "", Status: "", Company: ""},
		{ID: "s1", Email: "DUP@example.com", FirstName: "Alicia", LastName: "Durand", Phone: "0600000001"},
		{ID: "s2", Email: "dup@example.com", Company: "Acme", Phone: "0600000002", Status: "Interested"},
	}

	res, err := Resolve(selected, 0)
	require.NoError(t, err)

	assert.Equal(t, "p", res.Primary.ID)
	assert.Equal(t, "dup@example.com", res.Primary.Email)
	assert.Equal(t, "Alice", res.Primary.FirstName)
	assert.Equal(t, "Durand", res.Primary.LastName)
	assert.Equal(t, "Acme", res.Primary.Company)
	assert.Equal(t, "0600000001", res.Primary.Phone)
	assert.Equal(t, "Interested", res.Primary.Status)
	assert.Equal(t, []string{"s1", "s2"}, res.DeletedIDs)
}

func TestResolveEmailAlwaysFromPrimary(t *testing.T) {
	selected := []models.Contact{
		{ID: "a", Email: "shared@example.com"},
		{ID: "b", Email: " Shared@Example.com"},
	}

	res, err := Resolve(selected, 1)
	require.NoError(t, err)
	assert.Equal(t, "b", res.Primary.ID)
	assert.Equal(t, " Shared@Example.com", res.Primary.Email)
	assert.Equal(t, []string{"a"}, res.DeletedIDs)
}

func TestResolveNotesAreLossless(t *testing.T) {
	selected := []models.Contact{
		{ID: "a", Email: "d@x.io", Notes: "x"},
		{ID: "b", Email: "d@x.io", Notes: "y"},
		{ID: "c", Email: "d@x.io", Notes: ""},
		{ID: "d", Email: "d@x.io", Notes: "multi\nline"},
	}

	res, err := Resolve(selected, 0)
	require.NoError(t, err)

	for _, c := range selected {
		assert.Contains(t, res.Primary.Notes, c.Notes)
	}
	assert.Less(t, strings.Index(res.Primary.Notes, "x"), strings.Index(res.Primary.Notes, "y"))
	assert.Equal(t, "x"+NotesSeparator+"y"+NotesSeparator+"multi\nline", res.Primary.Notes)
}

func TestResolveNotesPrimaryFirstWhenNotIndexZero(t *testing.T) {
	selected := []models.Contact{
		{ID: "a", Email: "d@x.io", Notes: "from a"},
		{ID: "b", Email: "d@x.io", Notes: "from b"},
	}

	res, err := Resolve(selected, 1)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Primary.Notes, "from b"))
	assert.Contains(t, res.Primary.Notes, "from a")
}

func TestResolveInputErrors(t *testing.T) {
	_, err := Resolve(nil, 0)
	assert.ErrorIs(t, err, ErrNotEnoughContacts)

	_, err = Resolve([]models.Contact{contact("1", "a@x.io")}, 0)
	assert.ErrorIs(t, err, ErrNotEnoughContacts)

	_, err = Resolve([]models.Contact{contact("1", "a@x.io"), contact("2", "a@x.io")}, 2)
	assert.ErrorIs(t, err, ErrInvalidPrimary)
}

func TestResolveRepeatedSelectionNeverDeletesPrimary(t *testing.T) {
	a := models.Contact{ID: "a", Email: "d@x.io", Notes: "x"}
	b := models.Contact{ID: "b", Email: "d@x.io", Notes: "y"}

	res, err := Resolve([]models.Contact{a, b, a}, 2)
	require.NoError(t, err)
	assert.Equal(t, "a", res.Primary.ID)
	assert.Equal(t, []string{"b"}, res.DeletedIDs)
	assert.Equal(t, "x"+NotesSeparator+"y", res.Primary.Notes)

	res, err = Resolve([]models.Contact{a, b, b}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, res.DeletedIDs)

	_, err = Resolve([]models.Contact{a, a}, 0)
	assert.ErrorIs(t, err, ErrNotEnoughContacts)
}

func TestResolveRejectsDifferentEmails(t *testing.T) {
	_, err := Resolve([]models.Contact{contact("a", "one@x.io"), contact("b", "two@x.io")}, 0)
	assert.ErrorIs(t, err, ErrNotDuplicates)

	// a contact without an email can join any cluster
	res, err := Resolve([]models.Contact{contact("a", "one@x.io"), contact("b", ""), contact("c", "ONE@x.io")}, 1)
	require.NoError(t, err)
	assert.Equal(t, "b", res.Primary.ID)
	assert.Equal(t, []string{"a", "c"}, res.DeletedIDs)
}

type fakeWriter struct {
	contacts  []models.Contact
	updateErr error
	deleteErr error
	calls     []string
}

func (f *fakeWriter) Update(_ context.Context, c *models.Contact) error {
	f.calls = append(f.calls, "update:"+c.ID)
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.contacts {
		if f.contacts[i].ID == c.ID {
			f.contacts[i] = *c
		}
	}
	return nil
}

func (f *fakeWriter) DeleteMany(_ context.Context, ids []string) error {
	f.calls = append(f.calls, "delete:"+strings.Join(ids, ","))
	if f.deleteErr != nil {
		return f.deleteErr
	}
	drop := make(map[string]bool)
	for _, id := range ids {
		drop[id] = true
	}
	var kept []models.Contact
	for _, c := range f.contacts {
		if !drop[c.ID] {
			kept = append(kept, c)
		}
	}
	f.contacts = kept
	return nil
}

func TestMergeIssuesOneUpdateThenOneDelete(t *testing.T) {
	store := &fakeWriter{contacts: []models.Contact{
		{ID: "1", Email: "dup@x.io", FirstName: "Ann"},
		{ID: "2", Email: "other@x.io"},
		{ID: "3", Email: "DUP@x.io", LastName: "Lee"},
		{ID: "4", Email: "dup@x.io "},
	}}

	clusters := FindDuplicates(store.contacts)
	require.Len(t, clusters, 1)

	res, err := NewMerger(store, nil).Merge(context.Background(), clusters[0].Contacts, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"update:1", "delete:3,4"}, store.calls)
	assert.Equal(t, "Lee", res.Primary.LastName)

	assert.Empty(t, FindDuplicates(store.contacts))
	assert.Len(t, store.contacts, 2)
}

func TestMergeUpdateFailureSkipsDelete(t *testing.T) {
	store := &fakeWriter{
		contacts:  []models.Contact{contact("1", "d@x.io"), contact("2", "d@x.io")},
		updateErr: errors.New("network down"),
	}

	_, err := NewMerger(store, nil).Merge(context.Background(), store.contacts, 0)
	require.Error(t, err)
	assert.Equal(t, []string{"update:1"}, store.calls)
	assert.Len(t, store.contacts, 2)
}

func TestMergeDeleteFailureIsSurfaced(t *testing.T) {
	store := &fakeWriter{
		contacts:  []models.Contact{contact("1", "d@x.io"), contact("2", "d@x.io")},
		deleteErr: errors.New("permission denied"),
	}

	res, err := NewMerger(store, nil).Merge(context.Background(), store.contacts, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPartialMerge)

	var partial *PartialMergeError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "1", partial.PrimaryID)
	assert.Equal(t, []string{"2"}, partial.PendingIDs)
	assert.Equal(t, "1", res.Primary.ID)
}

func TestMergeRejectsSingleSelectionBeforeStoreCalls(t *testing.T) {
	store := &fakeWriter{}

	_, err := NewMerger(store, nil).Merge(context.Background(), []models.Contact{contact("1", "a@x.io")}, 0)
	assert.ErrorIs(t, err, ErrNotEnoughContacts)
	assert.Empty(t, store.calls)
}

func TestMergeRepeatedPrimaryKeepsMergedRecord(t *testing.T) {
	store := &fakeWriter{contacts: []models.Contact{contact("a", "d@x.io"), contact("b", "d@x.io")}}
	a, b := store.contacts[0], store.contacts[1]

	res, err := NewMerger(store, nil).Merge(context.Background(), []models.Contact{a, b, a}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"update:a", "delete:b"}, store.calls)
	assert.Equal(t, []string{"b"}, res.DeletedIDs)
	assert.Equal(t, []string{"a"}, ids(store.contacts))

	store.calls = nil
	_, err = NewMerger(store, nil).Merge(context.Background(), []models.Contact{a, a}, 0)
	assert.ErrorIs(t, err, ErrNotEnoughContacts)
	assert.Empty(t, store.calls)
}

func TestMergeDifferentEmailsMakesNoStoreCalls(t *testing.T) {
	store := &fakeWriter{contacts: []models.Contact{contact("a", "one@x.io"), contact("b", "two@x.io")}}

	_, err := NewMerger(store, nil).Merge(context.Background(), store.contacts, 0)
	assert.ErrorIs(t, err, ErrNotDuplicates)
	assert.Empty(t, store.calls)
	assert.Len(t, store.contacts, 2)
}

func TestSimilarNames(t *testing.T) {
	contacts := []models.Contact{
		{ID: "1", FirstName: "Jean-Marc", LastName: "Dupont", Email: "jm@a.fr"},
		{ID: "2", FirstName: "Jean-Marc", LastName: "Dupond", Email: "jmd@b.fr"},
		{ID: "3", FirstName: "Sophie", LastName: "Leroy", Email: "s@a.fr"},
		{ID: "4", FirstName: "Jean-Marc", LastName: "Dupont", Email: "JM@a.fr"},
		{ID: "5", Email: "nobody@a.fr"},
	}

	suggestions := SimilarNames(contacts, 0)
	var pairs []string
	for _, s := range suggestions {
		pairs = append(pairs, s.A.ID+"-"+s.B.ID)
		assert.Greater(t, s.Similarity, 0.8)
	}
	assert.ElementsMatch(t, []string{"1-2", "2-4"}, pairs)
}
