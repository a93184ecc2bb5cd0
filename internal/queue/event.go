// Package queue defines message payloads exchanged over the message
// broker and the background consumer that delivers them.
package queue

// mailQueueName is the durable queue all outbound mail flows through.
const mailQueueName = "mail.send"

// MailMessage is published whenever the application wants an email
// sent: verification links on signup and on-demand re-sends.  It
// contains everything a delivery worker needs without querying the
// primary database.
type MailMessage struct {
	To		  string `json:"to"`
	Subject	  string `json:"subject"`
	Body	  string `json:"body"`
	Kind	  string `json:"kind"` // e.g. "verification"
	UserID	  string `json:"user_id"`
	CreatedAt string `json:"created_at"`
}
