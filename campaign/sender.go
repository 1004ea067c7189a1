// ABOUTME: Campaign send loop delivering rendered emails one contact at a time
// ABOUTME: Each send gets a tracking id and pixel, with a fixed delay between sends
package campaign

import (
	"context"
	"errors"
	"fmt"
	"html"
	"math/rand"
	"strings"
	"time"

	"github.com/harperreed/leadgen/mailer"
	"github.com/harperreed/leadgen/metrics"
	"github.com/harperreed/leadgen/models"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

var ErrCampaignCompleted = errors.New("campaign already completed")

// DefaultSendDelay is the pause between two consecutive emails.
const DefaultSendDelay = 1500 * time.Millisecond

// SendStore extends Store with the lifecycle writes the send loop makes.
type SendStore interface {
	Store
	UpdateStatus(ctx context.Context, id string, status models.CampaignStatus) error
	IncrementSent(ctx context.Context, id string) error
}

type ContactLookup interface {
	Get(ctx context.Context, id string) (*models.Contact, error)
}

type EmailLog interface {
	Log(ctx context.Context, e *models.EmailLog) error
	ListByCampaign(ctx context.Context, campaignID string) ([]models.EmailLog, error)
}

type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// SendReport summarizes one run of the send loop.
type SendReport struct {
	Sent    int      `json:"sent"`
	Failed  int      `json:"failed"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

type Sender struct {
	campaigns   SendStore
	contacts    ContactLookup
	emails      EmailLog
	mailer      Mailer
	trackingURL string
	delay       time.Duration
	wait        func(ctx context.Context, d time.Duration) error
	entropy     *ulid.MonotonicEntropy
	logger      *zap.Logger
}

// NewSender builds a send loop. trackingURL is the public base URL serving /api/track;
// empty disables the pixel.
func NewSender(campaigns SendStore, contacts ContactLookup, emails EmailLog, m Mailer, trackingURL string, delay time.Duration, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	if delay < 0 {
		delay = DefaultSendDelay
	}
	return &Sender{
		campaigns:   campaigns,
		contacts:    contacts,
		emails:      emails,
		mailer:      m,
		trackingURL: strings.TrimRight(trackingURL, "/"),
		delay:       delay,
		wait:        sleepContext,
		entropy:     ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		logger:      logger,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Send mails every target that has not been mailed yet, moving the campaign to Running
// and then Completed. Per-contact failures are logged and do not stop the loop.
// Cancellation is honoured between sends and leaves the campaign Running.
func (s *Sender) Send(ctx context.Context, campaignID string) (SendReport, error) {
	var report SendReport

	c, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		return report, fmt.Errorf("failed to load campaign: %w", err)
	}
	if c == nil {
		return report, fmt.Errorf("%w: %s", ErrCampaignNotFound, campaignID)
	}
	if c.Status == models.CampaignCompleted {
		return report, ErrCampaignCompleted
	}
	if c.Status == models.CampaignDraft {
		if err := s.campaigns.UpdateStatus(ctx, c.ID, models.CampaignRunning); err != nil {
			return report, fmt.Errorf("failed to start campaign: %w", err)
		}
	}

	previous, err := s.emails.ListByCampaign(ctx, c.ID)
	if err != nil {
		return report, err
	}
	alreadySent := make(map[string]bool)
	for _, e := range previous {
		if e.Status != models.EmailStatusFailed {
			alreadySent[e.ContactID] = true
		}
	}

	first := true
	for _, contactID := range c.TargetContactIDs {
		if alreadySent[contactID] {
			report.Skipped++
			continue
		}

		contact, err := s.contacts.Get(ctx, contactID)
		if err != nil {
			return report, fmt.Errorf("failed to load contact %s: %w", contactID, err)
		}
		if contact == nil || contact.NormalizedEmail() == "" {
			report.Skipped++
			continue
		}

		if !first {
			if err := s.wait(ctx, s.delay); err != nil {
				return report, err
			}
		}
		first = false

		if err := s.sendOne(ctx, c, contact); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", contact.Email, err))
			continue
		}
		report.Sent++
	}

	if err := s.campaigns.UpdateStatus(ctx, c.ID, models.CampaignCompleted); err != nil {
		return report, fmt.Errorf("failed to complete campaign: %w", err)
	}

	s.logger.Info("campaign sent",
		zap.String("campaign_id", c.ID),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

func (s *Sender) sendOne(ctx context.Context, c *models.Campaign, contact *models.Contact) error {
	trackingID := ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
	subject := Render(c.Subject, *contact)

	msg := mailer.Message{
		ToEmail: strings.TrimSpace(contact.Email),
		ToName:  contact.FullName(),
		Subject: subject,
		HTML:    s.body(c.Template, *contact, trackingID),
	}

	entry := &models.EmailLog{
		CampaignID: c.ID,
		ContactID:  contact.ID,
		Recipient:  msg.ToEmail,
		Subject:    subject,
		TrackingID: trackingID,
		Status:     models.EmailStatusSent,
	}

	sendErr := s.mailer.Send(ctx, msg)
	if sendErr != nil {
		entry.Status = models.EmailStatusFailed
		entry.Error = sendErr.Error()
		s.logger.Warn("email send failed", zap.String("campaign_id", c.ID), zap.String("contact_id", contact.ID), zap.Error(sendErr))
	}
	metrics.RecordEmail(entry.Status)

	if err := s.emails.Log(ctx, entry); err != nil {
		s.logger.Error("failed to log email", zap.String("tracking_id", trackingID), zap.Error(err))
	}
	if sendErr != nil {
		return sendErr
	}
	return s.campaigns.IncrementSent(ctx, c.ID)
}

func (s *Sender) body(template string, contact models.Contact, trackingID string) string {
	body := strings.ReplaceAll(html.EscapeString(Render(template, contact)), "\n", "<br>")
	if s.trackingURL == "" {
		return body
	}
	return body + fmt.Sprintf(`<img src="%s/api/track?id=%s" width="1" height="1" alt="" style="display:none">`, s.trackingURL, trackingID)
}
