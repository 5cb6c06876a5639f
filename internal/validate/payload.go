package validate

import "fmt"

// Limits applied to composite payloads before they reach storage or an
// outbound channel.
const (
	maxPayloadItems      = 50
	maxPayloadItemLength = 10000
)

// Result is the outcome of a composite payload validation. Payloads are
// never partially valid: the first failing field stops the check.
type Result struct {
	OK     bool
	Field  string
	Reason string
}

func ok() Result {
	return Result{OK: true}
}

func fail(field, reason string) Result {
	return Result{Field: field, Reason: reason}
}

// NotificationPayload is an inbound request to notify a tenant's
// customer about an appointment.
type NotificationPayload struct {
	Recipient string   `json:"recipient"`
	Channel   string   `json:"channel"`
	Date      string   `json:"date"`
	Time      string   `json:"time"`
	Messages  []string `json:"messages"`
}

var notificationChannels = map[string]bool{
	"sms":      true,
	"whatsapp": true,
	"email":    true,
}

// ValidateNotificationPayload checks field shapes and structural limits,
// returning the first failing reason.
func ValidateNotificationPayload(p NotificationPayload) Result {
	switch p.Channel {
	case "email":
		if !IsValidEmail(p.Recipient) {
			return fail("recipient", "malformed email address")
		}
	case "sms", "whatsapp":
		if !IsValidPhone(p.Recipient) {
			return fail("recipient", "malformed phone number")
		}
	default:
		return fail("channel", fmt.Sprintf("unknown channel %q", p.Channel))
	}
	if !IsValidISODate(p.Date) {
		return fail("date", "not a calendar date")
	}
	if !IsValidTime(p.Time) {
		return fail("time", "not a 24-hour HH:MM time")
	}
	if r := checkMessages("messages", p.Messages); !r.OK {
		return r
	}
	return ok()
}

// AssistantMessagePayload is an inbound conversational message relayed
// to the assistant pipeline. The pipeline itself is out of scope; only
// the shape is checked here.
type AssistantMessagePayload struct {
	SenderEmail string   `json:"sender_email"`
	Messages    []string `json:"messages"`
}

// ValidateAssistantMessagePayload checks field shapes and structural
// limits, returning the first failing reason.
func ValidateAssistantMessagePayload(p AssistantMessagePayload) Result {
	if !IsValidEmail(p.SenderEmail) {
		return fail("sender_email", "malformed email address")
	}
	if len(p.Messages) == 0 {
		return fail("messages", "empty")
	}
	return checkMessages("messages", p.Messages)
}

func checkMessages(field string, msgs []string) Result {
	if len(msgs) > maxPayloadItems {
		return fail(field, fmt.Sprintf("more than %d items", maxPayloadItems))
	}
	for i, m := range msgs {
		if len(m) > maxPayloadItemLength {
			return fail(fmt.Sprintf("%s[%d]", field, i), fmt.Sprintf("longer than %d characters", maxPayloadItemLength))
		}
	}
	return ok()
}
