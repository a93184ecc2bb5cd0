package model

import "time"

// NotificationInvite is the notification type string attached to
// project invitations.
const NotificationInvite = "project invite"

// Invite is the payload carried by an invite notification.  Two
// invites are considered the same when inviter, project and role all
// match; that tuple drives the dedup check on dispatch and the lookup
// on acceptance.
type Invite struct {
	InviterID string `json:"inviterId"`
	ProjectID string `json:"projectId"`
	Role	  Role	 `json:"role"`
}

// Matches reports whether two invites refer to the same invitation.
func (i *Invite) Matches(other *Invite) bool {
	if i == nil || other == nil {
		return false
	}
	return i.InviterID == other.InviterID &&
		i.ProjectID == other.ProjectID &&
		i.Role == other.Role
}

// Notification is a single entry in a user's mailbox.  Every
// notification gets a server-assigned UUID at creation; CreatedAt is
// display/sort metadata only and is never used as an identity key.
type Notification struct {
	ID			string	  `json:"_id"`
	Title		string	  `json:"title"`
	Description string	  `json:"description"`
	CreatedAt	time.Time `json:"createdAt"`
	CreatedBy	string	  `json:"createdBy"`
	IsRead		bool	  `json:"isRead"`
	Type		string	  `json:"notificationType,omitempty"`
	Invite		*Invite	  `json:"invite,omitempty"`
}
