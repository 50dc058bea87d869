package domain

import "time"

// AuthEventType names an audit event emitted by the authentication flows.
type AuthEventType string

const (
	EventUserRegistered  AuthEventType = "user.registered"
	EventUserLoggedIn    AuthEventType = "user.logged_in"
	EventUserLoginFailed AuthEventType = "user.login_failed"
	EventTokenRefreshed  AuthEventType = "token.refreshed"
)

// AuthEvent is an audit record of an authentication outcome. It never carries
// passwords or token material.
type AuthEvent struct {
	Type       AuthEventType `json:"type"`
	AccountID  string        `json:"account_id,omitempty"`
	Email      string        `json:"email,omitempty"`
	Identifier string        `json:"identifier,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// ShardKey returns the key events are partitioned on so that events for one
// account are delivered in order.
func (e AuthEvent) ShardKey() string {
	if e.AccountID != "" {
		return e.AccountID
	}
	if e.Email != "" {
		return e.Email
	}
	return e.Identifier
}
