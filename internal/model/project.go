package model

import "time"

// ProjectStatus is the lifecycle state of a project.  Active projects
// live in the `projects` table, archived projects in `project_archive`.
type ProjectStatus string

const (
	ProjectActive	ProjectStatus = "Active"
	ProjectArchived ProjectStatus = "Archived"
)

// MaxProjectsPerCreator caps how many projects a single user may have
// created, counting both the active and the archived collection.
const MaxProjectsPerCreator = 5

// Project represents a tracked project.  The membership map and the
// ticket id set are document-shaped sub-state stored as JSON columns;
// the scalar fields map to ordinary columns.
//
// Fields:
//	ID			– primary key (UUID string).
//	Title		– human friendly title.
//	Description – free text description.
//	Creator		– user id of the creator; immutable after creation.
//	Status		– Active or Archived.
//	Users		– membership map keyed by user id.
//	Tickets		– ordered set of ticket ids belonging to the project.
//	CreatedAt	– timestamp of creation.
//	UpdatedAt	– timestamp of last update.
type Project struct {
	ID			string		  `json:"_id"`
	Title		string		  `json:"title"`
	Description string		  `json:"description"`
	Creator		string		  `json:"creator"`
	Status		ProjectStatus `json:"status"`
	Users		Membership	  `json:"users"`
	Tickets		[]string	  `json:"tickets"`
	CreatedAt	time.Time	  `json:"createdAt"`
	UpdatedAt	time.Time	  `json:"updatedAt"`
}

// HasTicket reports whether the given ticket id is registered in the
// project's ticket set.
func (p *Project) HasTicket(ticketID string) bool {
	for _, id := range p.Tickets {
		if id == ticketID {
			return true
		}
	}
	return false
}
