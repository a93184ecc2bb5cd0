// Package repository contains the data access layer.  Documents are
// stored in MySQL: scalar fields map to columns, document-shaped
// sub-state (membership maps, ticket history, comments, notification
// lists) lives in JSON columns marshalled here.  Sentinel errors let
// handlers and services distinguish failure scenarios without string
// matching.
package repository

import "errors"

// ErrNotFound is returned when a requested entity does not exist in
// the collection being queried.  Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")
