package model

import "time"

// User represents an application account as stored in the `users`
// table.  The notification list is a JSON column owned entirely by the
// user; the unread counter is kept equal to the number of unread
// entries in that list at all times.
//
// Fields:
//	ID					– primary key (UUID string).
//	Name				– display name.
//	Email				– unique email address.
//	Password			– bcrypt hash, or an opaque credential for google accounts.
//	Verified			– whether the email address has been confirmed.
//	GoogleUser			– whether the account was created via google sign-in.
//	Notifications		– ordered mailbox, append-only with deletions.
//	UnreadNotifications – count of entries with IsRead == false.
//	CreatedAt			– timestamp of creation.
//	UpdatedAt			– timestamp of last update.
type User struct {
	ID					string		   `json:"_id"`
	Name				string		   `json:"name"`
	Email				string		   `json:"email"`
	Password			string		   `json:"-"`
	Verified			bool		   `json:"verified"`
	GoogleUser			bool		   `json:"googleUser"`
	Notifications		[]Notification `json:"notifications,omitempty"`
	UnreadNotifications int			   `json:"unreadNotifications"`
	CreatedAt			time.Time	   `json:"createdAt"`
	UpdatedAt			time.Time	   `json:"updatedAt"`
}

// CountUnread recomputes the unread count from a notification list.
// Repositories use it to keep the stored counter in sync whenever the
// list is rewritten wholesale.
func CountUnread(list []Notification) int {
	n := 0
	for _, entry := range list {
		if !entry.IsRead {
			n++
		}
	}
	return n
}
