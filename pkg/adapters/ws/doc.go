// Package ws serves a live editing surface over websockets.
//
// A Hub pushes a snapshot to every client on connect, then streams node and
// graph events taken from lifecycle hooks. Clients send JSON commands
// (create, delete, save, layout, refresh, status) that the Hub applies to an
// attached editor.Editor.
package ws
