package audit

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Action is the account change an event records.
type Action string

const (
	ActionLogin          Action = "login"
	ActionLoginFailed    Action = "login_failed"
	ActionEmailChange    Action = "email_change"
	ActionPasswordChange Action = "password_change"
	ActionAccountDelete  Action = "account_delete"
)

// Severity represents the severity level of an audit event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// MaxUserAgentLength caps the stored user agent.
const MaxUserAgentLength = 256

var (
	ErrEmptyAccount = errors.New("audit event needs an account")
	ErrEmptyAction  = errors.New("audit event needs an action")
)

// Event is one entry in an account's security log.
// Events outlive the account they describe.
type Event struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Action      Action    `json:"action"`
	Severity    Severity  `json:"severity"`
	AccountID   string    `json:"-"`
	Email       string    `json:"email"`
	Description string    `json:"description"`
	IPAddress   string    `json:"ipAddress"`
	UserAgent   string    `json:"userAgent"`
}

// NewEvent creates an event stamped now, with the default severity for action.
// PRE: accountID and action are non-empty
// POST: ID is a fresh UUID
func NewEvent(accountID, email string, action Action) Event {
	return Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Action:    action,
		Severity:  defaultSeverity(action),
		AccountID: accountID,
		Email:     email,
	}
}

func defaultSeverity(action Action) Severity {
	switch action {
	case ActionAccountDelete:
		return SeverityCritical
	case ActionLoginFailed, ActionEmailChange, ActionPasswordChange:
		return SeverityWarning
	}
	return SeverityInfo
}

// WithDescription sets the event description.
func (e Event) WithDescription(desc string) Event {
	e.Description = desc
	return e
}

// WithRequest sets IP address and user agent from the HTTP request.
// POST: UserAgent is at most MaxUserAgentLength bytes
func (e Event) WithRequest(ipAddress, userAgent string) Event {
	if len(userAgent) > MaxUserAgentLength {
		userAgent = userAgent[:MaxUserAgentLength]
	}
	e.IPAddress = ipAddress
	e.UserAgent = userAgent
	return e
}

// Validate checks the fields every stored event needs.
func (e Event) Validate() error {
	if e.AccountID == "" {
		return ErrEmptyAccount
	}
	if e.Action == "" {
		return ErrEmptyAction
	}
	return nil
}
