/*
Package flowcanvas is the editing engine behind a visual chatbot question-flow editor.

A flow is a graph of questions stored remotely, one record per question,
scoped to a tenant. The engine loads the records, derives nodes and
connections, lays the graph out in levels from the start node and keeps the
remote store and the canvas consistent while the user creates, edits, links
and deletes nodes.

# Concept

Every mutation awaits the remote call before it touches the local graph, so a
failed request leaves the canvas untouched. Mutations of the same node are
serialized, and follow-up layout work is batched.

An empty store shows a temporary start node. It is persisted the first time
a child is attached to it or it is saved.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/flowcanvas"
		"github.com/aretw0/flowcanvas/pkg/adapters/memory"
		"github.com/aretw0/flowcanvas/pkg/domain"
	)

	func main() {
		eng, err := flowcanvas.New(memory.NewStore(), "acme")
		if err != nil {
			log.Fatal(err)
		}
		ctx := context.Background()
		_ = eng.Open(ctx)

		start, _ := eng.Graph().First()
		if _, err := eng.Manager().Create(ctx, domain.KindMessage, nil, start.ID); err != nil {
			log.Fatal(err)
		}
		_ = eng.Close()
	}

# Adapters

Stores live under pkg/adapters: memory, redis (with distributed node locks)
and an HTTP client for the question REST API. The same REST API is served by
pkg/adapters/http, live editing over WebSocket by pkg/adapters/ws and agent
tooling over MCP by pkg/adapters/mcp.
*/
package flowcanvas
