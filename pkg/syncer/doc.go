/*
Package syncer is the single point of contact with the remote question store.

A Controller is bound to one tenant at construction and scopes every request
with it. It never retries: failures are wrapped with domain.ErrRemote and
returned so the caller can inform the user and leave its graph untouched.
Loading is the exception; a failed or empty load still yields a usable graph
holding a temporary start node.
*/
package syncer
