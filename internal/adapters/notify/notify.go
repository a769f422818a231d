// Package notify delivers revalidation alerts by email and signed webhook
package notify

import (
	"context"
	"time"
)

// Event names carried in Payload.Event and the X-Payalias-Event header
const (
	EventTrustAlert     = "trust.alert"
	EventAddressChanged = "address.changed"
)

// Payload is the JSON body of every webhook and the data behind alert emails
type Payload struct {
	Event         string    `json:"event"`
	Alias         string    `json:"alias"`
	OldAddress    string    `json:"old_address,omitempty"`
	NewAddress    string    `json:"new_address,omitempty"`
	Currency      string    `json:"currency"`
	Timestamp     time.Time `json:"timestamp"`
	TrustScore    int       `json:"trust_score"`
	PreviousScore int       `json:"previous_score"`
	Threshold     int       `json:"threshold,omitempty"`
	Reasons       []string  `json:"reasons,omitempty"`
}

// Mailer sends a plain text alert to one recipient
type Mailer interface {
	Send(ctx context.Context, to string, p Payload) error
}

// Poster delivers a payload to a webhook url, signing with secret when non empty
type Poster interface {
	Post(ctx context.Context, url, secret string, p Payload) (Delivery, error)
}

// Delivery describes one webhook attempt
type Delivery struct {
	ID     string
	Status int
	Signed bool
}
