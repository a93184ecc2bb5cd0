// Package service implements the project/ticket authorization and
// lifecycle engine on top of the repository layer.  Services load
// current state, ask authz for a decision, perform the transition and
// dispatch notifications.  They depend on small store interfaces so
// the engine can be exercised against in-memory fakes.
package service

import "errors"

// ErrQuotaExceeded is returned when a creation would push the actor
// past a per-creator quota (5 projects, 100 tickets, counting active
// plus archived).  Handlers translate it into HTTP 400.
var ErrQuotaExceeded = errors.New("quota exceeded")

// ErrValidation is returned when request input fails a semantic check
// (unknown role, empty title, malformed status).  Handlers translate
// it into HTTP 400.
var ErrValidation = errors.New("validation failed")

// ErrArchived is returned when a mutation targets an entity that is
// sitting in an archive collection and the operation only applies to
// the active form.  Handlers translate it into HTTP 409.
var ErrArchived = errors.New("entity is archived")

// ErrProjectArchived signals that a ticket restore was refused because
// the owning project is itself archived.  This is a user-visible
// warning rather than a hard failure: the client is told to restore
// the project first.
var ErrProjectArchived = errors.New("project is archived")
