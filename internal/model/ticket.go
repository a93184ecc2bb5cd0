package model

import "time"

// TicketStatus is the lifecycle state of a regular ticket.  Support
// tickets use a disjoint, simpler domain (see SupportOpen below).
type TicketStatus string

const (
	TicketUnassigned  TicketStatus = "Unassigned"  // created, no developer yet
	TicketDevelopment TicketStatus = "Development" // claimed or assigned
	TicketArchived	  TicketStatus = "Archived"	   // moved to the archive table
)

// SupportOpen is the status assigned to support tickets.  They never
// enter the Unassigned/Development/Archived machine.
const SupportOpen TicketStatus = "Open"

// TicketType classifies a ticket.
type TicketType string

const (
	TypeBug		TicketType = "Bug"
	TypeFeature TicketType = "Feature"
	TypeSupport TicketType = "Support"
)

// Ticket priorities as used by the statistics endpoint.
const (
	PriorityLow	   = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// MaxTicketsPerCreator caps how many tickets a single user may have
// credited as creator, counting both active and archived tickets.
const MaxTicketsPerCreator = 100

// ProjectRef is the denormalized back-reference a ticket keeps to its
// owning project.  It carries the title alongside the id so ticket
// listings never need a join.
type ProjectRef struct {
	ID	  string `json:"_id"`
	Title string `json:"title"`
}

// Developer identifies the user currently assigned to a ticket.  A nil
// developer means the ticket is unclaimed.
type Developer struct {
	ID	 string `json:"_id"`
	Name string `json:"name"`
}

// HistoryEntry is one snapshot of a ticket's prior state.  Every
// successful update appends exactly one entry of the pre-update state
// before applying the new values; the log is append-only and survives
// archive/restore unchanged.
type HistoryEntry struct {
	Title		string		 `json:"title"`
	Description string		 `json:"description"`
	Priority	string		 `json:"priority"`
	Status		TicketStatus `json:"status"`
	Type		TicketType	 `json:"type"`
	Developer	*Developer	 `json:"developer"`
	UpdatedAt	time.Time	 `json:"updatedAt"`
}

// Comment is a single ticket comment.  The creation timestamp is
// server-assigned and doubles as the match key for deletion.
type Comment struct {
	Author	  string	`json:"author"`
	Body	  string	`json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Ticket represents a tracked ticket.  History and comments are
// document-shaped sub-state stored as JSON columns.
//
// Fields:
//  ID  – primary key (UUID string).
//  Title  – short summary.
//  Description – free text body.
//  Creator  – user id of the creator; immutable after creation.
//  Priority  – Low, Medium or High.
//  Status  – Unassigned, Development or Archived.
//  Type  – Bug, Feature or Support.
//  Project  – back-reference to the owning project.
//  Developer  – currently assigned developer, nil when unclaimed.
//  History  – append-only log of prior-state snapshots.
//  Comments  – ordered comment list.
//  CreatedAt  – timestamp of creation.
//  UpdatedAt  – timestamp of last update.
type Ticket struct {
	ID			string		   `json:"_id"`
	Title		string		   `json:"title"`
	Description string		   `json:"description"`
	Creator		string		   `json:"creator"`
	Priority	string		   `json:"priority"`
	Status		TicketStatus   `json:"status"`
	Type		TicketType	   `json:"type"`
	Project		ProjectRef	   `json:"project"`
	Developer	*Developer	   `json:"developer"`
	History		[]HistoryEntry `json:"ticketHistory"`
	Comments	[]Comment	   `json:"comments"`
	CreatedAt	time.Time	   `json:"createdAt"`
	UpdatedAt	time.Time	   `json:"updatedAt"`
}

// Snapshot captures the ticket's current state as a history entry.
func (t *Ticket) Snapshot() HistoryEntry {
	return HistoryEntry{
		Title:		 t.Title,
		Description: t.Description,
		Priority:	 t.Priority,
		Status:		 t.Status,
		Type:		 t.Type,
		Developer:	 t.Developer,
		UpdatedAt:	 t.UpdatedAt,
	}
}

// TicketStats aggregates the caller's tickets for the statistics
// endpoint.
type TicketStats struct {
	NumberOfBugTickets	   int `json:"numberOfBugTickets"`
	NumberOfFeatureTickets int `json:"numberOfFeatureTickets"`
	LowPriority			   int `json:"lowPriority"`
	MediumPriority		   int `json:"mediumPriority"`
	HighPriority		   int `json:"highPriority"`
}
