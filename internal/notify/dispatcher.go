package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jkarimi/iou-engine/internal/domain"
	"github.com/jkarimi/iou-engine/internal/repository"
	apperrors "github.com/jkarimi/iou-engine/pkg/errors"
	"github.com/jkarimi/iou-engine/pkg/logger"
)

// MailSender is the outbound mail port. Send raises on hard failure.
type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMSSender is the outbound SMS port. Send returns the provider message
// id and raises on hard failure.
type SMSSender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// AttemptResult is the outcome of one channel attempt.
type AttemptResult struct {
	Channel string    `json:"channel"`
	Status  string    `json:"status"`
	LogID   uuid.UUID `json:"log_id"`
	Error   string    `json:"error,omitempty"`
}

// Intent is a logical request to inform a user via their enabled channels.
type Intent struct {
	UserID           uuid.UUID
	NotificationType string
	// EmailTo overrides the preference email; reminders address the
	// debtor directly. Empty falls back to the preference record.
	EmailTo string
	// SMSTo overrides the preference phone number.
	SMSTo           string
	Vars            map[string]string
	Debt            *domain.Debt
	PaymentRecordID *uuid.UUID
	Custom          *Content
}

// Config holds the global channel switches.
type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
}

// Dispatcher fans one notification intent out to the user's enabled
// channels, logging every attempt. One dispatcher composes the two
// sender ports; channels never block each other.
type Dispatcher struct {
	notifications repository.NotificationRepository
	resolver      *Resolver
	mail          MailSender
	sms           SMSSender
	cfg           Config
	now           func() time.Time
}

func NewDispatcher(
	notifications repository.NotificationRepository,
	resolver *Resolver,
	mail MailSender,
	sms SMSSender,
	cfg Config,
) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		resolver:      resolver,
		mail:          mail,
		sms:           sms,
		cfg:           cfg,
		now:           time.Now,
	}
}

// WithClock overrides the dispatcher's clock, for tests.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// Dispatch sends the intent on every enabled channel. The channel set is
// deterministic given preferences; each channel is attempted at most
// once, and one channel failing never prevents the other. Per-channel
// outcomes are returned in aggregate; only infrastructure errors (e.g.
// the preference row being unreadable) fail the call.
func (d *Dispatcher) Dispatch(ctx context.Context, intent Intent) ([]AttemptResult, error) {
	pref, err := d.notifications.GetOrCreatePreference(ctx, intent.UserID)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	dispatchesTotal.WithLabelValues(intent.NotificationType).Inc()

	var results []AttemptResult

	if d.emailEnabled(pref, intent) {
		results = append(results, d.attempt(ctx, intent, domain.ChannelEmail, d.emailRecipient(pref, intent)))
	}

	if d.smsEnabled(pref, intent) {
		results = append(results, d.attempt(ctx, intent, domain.ChannelSMS, d.smsRecipient(pref, intent)))
	}

	return results, nil
}

func (d *Dispatcher) emailEnabled(pref *domain.NotificationPreference, intent Intent) bool {
	return d.cfg.EmailEnabled &&
		pref.EmailEnabled &&
		pref.Allows(intent.NotificationType, domain.ChannelEmail) &&
		d.emailRecipient(pref, intent) != ""
}

func (d *Dispatcher) smsEnabled(pref *domain.NotificationPreference, intent Intent) bool {
	return d.cfg.SMSEnabled &&
		pref.SMSEnabled &&
		pref.Allows(intent.NotificationType, domain.ChannelSMS) &&
		d.smsRecipient(pref, intent) != ""
}

func (d *Dispatcher) emailRecipient(pref *domain.NotificationPreference, intent Intent) string {
	if intent.EmailTo != "" {
		return intent.EmailTo
	}
	return pref.Email
}

func (d *Dispatcher) smsRecipient(pref *domain.NotificationPreference, intent Intent) string {
	if intent.SMSTo != "" {
		return intent.SMSTo
	}
	return pref.PhoneNumber
}

// attempt runs one channel: resolve content, write a pending log, call
// the sender port, then settle the log to sent or failed.
func (d *Dispatcher) attempt(ctx context.Context, intent Intent, channel, recipient string) AttemptResult {
	content, err := d.resolver.Resolve(ctx, intent.NotificationType, channel, intent.Debt, intent.Custom, intent.Vars, d.now())
	if err != nil {
		// Template gaps are expected; record the failed attempt and let
		// the other channel proceed.
		logID := d.writeLog(ctx, intent, channel, recipient, "", "", domain.NotificationStatusFailed, err.Error())
		attemptsTotal.WithLabelValues(channel, intent.NotificationType, domain.NotificationStatusFailed).Inc()
		return AttemptResult{Channel: channel, Status: domain.NotificationStatusFailed, LogID: logID, Error: err.Error()}
	}

	logID := d.writeLog(ctx, intent, channel, recipient, content.Subject, content.Body, domain.NotificationStatusPending, "")

	externalID, sendErr := d.send(ctx, channel, recipient, content)
	if sendErr != nil {
		d.settleLog(ctx, logID, "", sendErr)
		attemptsTotal.WithLabelValues(channel, intent.NotificationType, domain.NotificationStatusFailed).Inc()
		return AttemptResult{Channel: channel, Status: domain.NotificationStatusFailed, LogID: logID, Error: sendErr.Error()}
	}

	d.settleLog(ctx, logID, externalID, nil)
	attemptsTotal.WithLabelValues(channel, intent.NotificationType, domain.NotificationStatusSent).Inc()
	return AttemptResult{Channel: channel, Status: domain.NotificationStatusSent, LogID: logID}
}

func (d *Dispatcher) send(ctx context.Context, channel, recipient string, content *Content) (string, error) {
	switch channel {
	case domain.ChannelEmail:
		return "", d.mail.Send(ctx, recipient, content.Subject, content.Body)
	case domain.ChannelSMS:
		return d.sms.Send(ctx, recipient, content.Body)
	default:
		return "", apperrors.WrapNoContent("unknown channel", channel)
	}
}

func (d *Dispatcher) writeLog(ctx context.Context, intent Intent, channel, recipient, subject, body, status, errMsg string) uuid.UUID {
	log := &domain.NotificationLog{
		ID:               uuid.New(),
		UserID:           intent.UserID,
		PaymentRecordID:  intent.PaymentRecordID,
		NotificationType: intent.NotificationType,
		Channel:          channel,
		Recipient:        recipient,
		Subject:          subject,
		MessageBody:      body,
		Status:           status,
		ErrorMessage:     errMsg,
		CreatedAt:        d.now(),
	}
	if intent.Debt != nil {
		debtID := intent.Debt.ID
		log.DebtID = &debtID
	}

	if err := d.notifications.CreateLog(ctx, log); err != nil {
		logger.Error("writing notification log", "error", err, "channel", channel)
	}

	return log.ID
}

// settleLog transitions a pending log; the transition itself never raises.
func (d *Dispatcher) settleLog(ctx context.Context, logID uuid.UUID, externalID string, sendErr error) {
	var err error
	if sendErr != nil {
		err = d.notifications.MarkLogFailed(ctx, logID, sendErr.Error())
	} else {
		err = d.notifications.MarkLogSent(ctx, logID, externalID, d.now())
	}
	if err != nil {
		logger.Error("settling notification log", "error", err, "log_id", logID)
	}
}
