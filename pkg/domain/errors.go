package domain

import "errors"

// ErrMissingContext is returned when an operation is attempted without a tenant identifier.
// It signals a programming error and is never retried.
var ErrMissingContext = errors.New("tenant context identifier is required")

// ErrRemote wraps every failure reported by the remote question store.
var ErrRemote = errors.New("remote store request failed")

// ErrRecordNotFound is returned by stores when a record id does not exist for the tenant.
var ErrRecordNotFound = errors.New("record not found")

// ErrNodeNotFound is returned when a node id is not part of the current graph.
var ErrNodeNotFound = errors.New("node not found")

// ErrStartNodeProtected is returned when deleting the start node.
var ErrStartNodeProtected = errors.New("the start node cannot be deleted")

// ErrTemporaryNode is returned when deleting a node that was never persisted.
var ErrTemporaryNode = errors.New("temporary nodes cannot be deleted")

// ErrSelfRoute is returned when a node would route to itself.
var ErrSelfRoute = errors.New("a node cannot route to itself")

// ErrValidation is returned when a draft fails validation on save.
var ErrValidation = errors.New("validation failed")

// ErrUnsupported is returned when the configured store lacks an optional capability.
var ErrUnsupported = errors.New("operation not supported by the store")
