package campaign

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/leadgen/mailer"
	"github.com/harperreed/leadgen/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	campaigns map[string]*models.Campaign
	saveErr   error
	saves     int
	statuses  []models.CampaignStatus
}

func newMemStore(cs ...models.Campaign) *memStore {
	s := &memStore{campaigns: make(map[string]*models.Campaign)}
	for i := range cs {
		c := cs[i]
		s.campaigns[c.ID] = &c
	}
	return s
}

func (s *memStore) Get(_ context.Context, id string) (*models.Campaign, error) {
	c, ok := s.campaigns[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.Outcomes = make(map[string]models.OutcomeDetail, len(c.Outcomes))
	for k, v := range c.Outcomes {
		cp.Outcomes[k] = v
	}
	return &cp, nil
}

func (s *memStore) SaveOutcomes(_ context.Context, c *models.Campaign) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.campaigns[c.ID].Outcomes = c.Outcomes
	return nil
}

func (s *memStore) UpdateStatus(_ context.Context, id string, status models.CampaignStatus) error {
	s.statuses = append(s.statuses, status)
	s.campaigns[id].Status = status
	return nil
}

func (s *memStore) IncrementSent(_ context.Context, id string) error {
	s.campaigns[id].Sent++
	return nil
}

func intPtr(n int) *int { return &n }

func TestUpdateOutcomeOverwritesKey(t *testing.T) {
	store := newMemStore(models.Campaign{ID: "camp", TargetContactIDs: []string{"c1", "c2"}, Outcomes: map[string]models.OutcomeDetail{
		"c1": {Status: models.OutcomeMeeting},
	}})
	tracker := NewTracker(store, nil)
	fixed := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return fixed }

	detail, err := tracker.UpdateOutcome(context.Background(), "camp", "c1", models.OutcomeRegistered, intPtr(2))
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeDetail{Status: models.OutcomeRegistered, Attendees: 2, UpdatedAt: fixed}, detail)
	assert.Equal(t, detail, store.campaigns["camp"].Outcomes["c1"])
	assert.Len(t, store.campaigns["camp"].Outcomes, 1)
	assert.Equal(t, 1, store.saves)
}

func TestUpdateOutcomeAttendeesDefaultRule(t *testing.T) {
	store := newMemStore(models.Campaign{ID: "camp", TargetContactIDs: []string{"c1", "c2"}, Outcomes: map[string]models.OutcomeDetail{
		"c1": {Status: models.OutcomeRegistered, Attendees: 4},
	}})
	tracker := NewTracker(store, nil)
	ctx := context.Background()

	detail, err := tracker.UpdateOutcome(ctx, "camp", "c1", models.OutcomeMeeting, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, detail.Attendees)

	detail, err = tracker.UpdateOutcome(ctx, "camp", "c2", models.OutcomePositive, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, detail.Attendees)

	detail, err = tracker.UpdateOutcome(ctx, "camp", "c2", models.OutcomeNegative, intPtr(3))
	require.NoError(t, err)
	assert.Equal(t, 3, detail.Attendees)
}

func TestUpdateOutcomeRejections(t *testing.T) {
	store := newMemStore(models.Campaign{ID: "camp", TargetContactIDs: []string{"c1"}})
	tracker := NewTracker(store, nil)
	ctx := context.Background()

	_, err := tracker.UpdateOutcome(ctx, "camp", "c1", "Maybe", nil)
	assert.ErrorIs(t, err, ErrInvalidOutcome)

	_, err = tracker.UpdateOutcome(ctx, "camp", "c9", models.OutcomePositive, nil)
	assert.ErrorIs(t, err, ErrNotTargeted)

	_, err = tracker.UpdateOutcome(ctx, "ghost", "c1", models.OutcomePositive, nil)
	assert.ErrorIs(t, err, ErrCampaignNotFound)

	_, err = tracker.UpdateOutcome(ctx, "camp", "c1", models.OutcomeRegistered, intPtr(-1))
	assert.Error(t, err)

	assert.Zero(t, store.saves)
}

func TestUpdateOutcomeSaveFailureSurfaces(t *testing.T) {
	store := newMemStore(models.Campaign{ID: "camp", TargetContactIDs: []string{"c1"}})
	store.saveErr = errors.New("timeout")

	_, err := NewTracker(store, nil).UpdateOutcome(context.Background(), "camp", "c1", models.OutcomeMeeting, nil)
	assert.ErrorContains(t, err, "timeout")
	assert.Empty(t, store.campaigns["camp"].Outcomes)
}

func TestAggregateRegisteredSumsAttendees(t *testing.T) {
	campaigns := []models.Campaign{{
		Outcomes: map[string]models.OutcomeDetail{
			"c1": {Status: models.OutcomeRegistered, Attendees: 3},
			"c2": {Status: models.OutcomeRegistered, Attendees: 1},
		},
	}}
	assert.Equal(t, 4, Aggregate(campaigns).Registered)
}

func TestAggregateAcrossCampaigns(t *testing.T) {
	campaigns := []models.Campaign{
		{Outcomes: map[string]models.OutcomeDetail{
			"c1": {Status: models.OutcomeRegistered},
			"c2": {Status: models.OutcomeMeeting},
			"c3": {Status: models.OutcomeNone},
		}},
		{Outcomes: map[string]models.OutcomeDetail{
			"c1": {Status: models.OutcomeRegistered, Attendees: 2},
			"c2": {Status: models.OutcomePositive},
			"c4": {Status: models.OutcomeNegative},
			"c5": {Status: models.OutcomeNegative},
		}},
		{},
	}

	assert.Equal(t, Stats{Registered: 3, Meetings: 1, Positive: 1, Negative: 2, NSP: 1}, Aggregate(campaigns))
	assert.Equal(t, Stats{}, Aggregate(nil))
}

func TestSummarize(t *testing.T) {
	c := models.Campaign{
		ID: "camp", Name: "Salon", Goal: models.GoalEvent, Status: models.CampaignRunning,
		TargetContactIDs: []string{"c1", "c2", "c3"}, Sent: 3,
		Outcomes: map[string]models.OutcomeDetail{
			"c1": {Status: models.OutcomeRegistered, Attendees: 2},
			"c2": {Status: models.OutcomeNegative},
		},
	}

	s := Summarize(c)
	assert.Equal(t, 3, s.Targets)
	assert.Equal(t, 2, s.Qualified)
	assert.Equal(t, 1, s.GoalReached)
	assert.Equal(t, 2, s.Stats.Registered)
}

func TestRender(t *testing.T) {
	c := models.Contact{FirstName: "Léa", LastName: "Martin", Company: "Acme"}
	out := Render("Bonjour {{Prénom}} {{Nom}}, votre équipe chez {{company}} {{unknown}}", c)
	assert.Equal(t, "Bonjour Léa Martin, votre équipe chez Acme {{unknown}}", out)
}

type memContacts map[string]models.Contact

func (m memContacts) Get(_ context.Context, id string) (*models.Contact, error) {
	c, ok := m[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

type memEmails struct{ logs []models.EmailLog }

func (m *memEmails) Log(_ context.Context, e *models.EmailLog) error {
	m.logs = append(m.logs, *e)
	return nil
}

func (m *memEmails) ListByCampaign(_ context.Context, campaignID string) ([]models.EmailLog, error) {
	var out []models.EmailLog
	for _, l := range m.logs {
		if l.CampaignID == campaignID {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeMailer struct {
	sent   []mailer.Message
	failOn string
}

func (f *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	if msg.ToEmail == f.failOn {
		return errors.New("rejected")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newTestSender(store *memStore, contacts memContacts, emails *memEmails, m *fakeMailer) (*Sender, *[]time.Duration) {
	s := NewSender(store, contacts, emails, m, "https://crm.example.com/", DefaultSendDelay, nil)
	var waits []time.Duration
	s.wait = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return s, &waits
}

func TestSendDeliversToEveryTarget(t *testing.T) {
	store := newMemStore(models.Campaign{
		ID: "camp", Status: models.CampaignDraft, Subject: "Salon {{company}}",
		Template:         "Bonjour {{Prénom}}",
		TargetContactIDs: []string{"c1", "c2", "c3", "c4"},
	})
	contacts := memContacts{
		"c1": {ID: "c1", FirstName: "Ann", Email: "ann@a.fr", Company: "Acme"},
		"c2": {ID: "c2", FirstName: "Bob", Email: "bob@b.fr"},
		"c3": {ID: "c3", FirstName: "NoMail"},
		"c4": {ID: "c4", FirstName: "Cy", Email: "cy@c.fr"},
	}
	emails := &memEmails{}
	m := &fakeMailer{failOn: "bob@b.fr"}
	sender, waits := newTestSender(store, contacts, emails, m)

	report, err := sender.Send(context.Background(), "camp")
	require.NoError(t, err)

	assert.Equal(t, SendReport{Sent: 2, Failed: 1, Skipped: 1, Errors: report.Errors}, report)
	assert.Len(t, report.Errors, 1)
	assert.Equal(t, []models.CampaignStatus{models.CampaignRunning, models.CampaignCompleted}, store.statuses)
	assert.Equal(t, 2, store.campaigns["camp"].Sent)
	assert.Len(t, *waits, 2)

	require.Len(t, m.sent, 2)
	assert.Equal(t, "Salon Acme", m.sent[0].Subject)
	assert.True(t, strings.HasPrefix(m.sent[0].HTML, "Bonjour Ann"))
	assert.Contains(t, m.sent[0].HTML, `src="https://crm.example.com/api/track?id=`)

	require.Len(t, emails.logs, 3)
	assert.Equal(t, models.EmailStatusFailed, emails.logs[1].Status)
	assert.NotEqual(t, emails.logs[0].TrackingID, emails.logs[2].TrackingID)
	assert.Contains(t, m.sent[0].HTML, emails.logs[0].TrackingID)
}

func TestSendResumesRunningCampaign(t *testing.T) {
	store := newMemStore(models.Campaign{ID: "camp", Status: models.CampaignRunning, TargetContactIDs: []string{"c1", "c2"}})
	contacts := memContacts{
		"c1": {ID: "c1", Email: "a@a.fr"},
		"c2": {ID: "c2", Email: "b@b.fr"},
	}
	emails := &memEmails{logs: []models.EmailLog{{CampaignID: "camp", ContactID: "c1", Status: models.EmailStatusOpened}}}
	m := &fakeMailer{}
	sender, _ := newTestSender(store, contacts, emails, m)

	report, err := sender.Send(context.Background(), "camp")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, []models.CampaignStatus{models.CampaignCompleted}, store.statuses)
}

func TestSendRefusesCompletedCampaign(t *testing.T) {
	store := newMemStore(models.Campaign{ID: "camp", Status: models.CampaignCompleted})
	sender, _ := newTestSender(store, memContacts{}, &memEmails{}, &fakeMailer{})

	_, err := sender.Send(context.Background(), "camp")
	assert.ErrorIs(t, err, ErrCampaignCompleted)
}

func TestSendStopsBetweenSendsOnCancel(t *testing.T) {
	store := newMemStore(models.Campaign{ID: "camp", Status: models.CampaignDraft, TargetContactIDs: []string{"c1", "c2"}})
	contacts := memContacts{
		"c1": {ID: "c1", Email: "a@a.fr"},
		"c2": {ID: "c2", Email: "b@b.fr"},
	}
	m := &fakeMailer{}
	sender, _ := newTestSender(store, contacts, &memEmails{}, m)

	ctx, cancel := context.WithCancel(context.Background())
	sender.wait = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	report, err := sender.Send(ctx, "camp")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, report.Sent)
	assert.Len(t, m.sent, 1)
	assert.Equal(t, models.CampaignRunning, store.campaigns["camp"].Status)
}
