/*
Package domain contains the core models of the flow editor.

It defines the conversation graph as the editor sees it (Nodes with hybrid
Routing and derived Connections) and as the remote question store persists
it (Records and RecordPatches). The package is kept free of I/O so that the
graph model, the layout engine and the adapters can share it.

# Key Entities

  - Node: one conversation step, positioned in canvas space.
  - Routing: the tagged union deciding a node's outgoing edges (option list or single next pointer).
  - Connection: a derived, directed edge between two nodes. Never persisted.
  - Record: the persisted question shape exchanged with the remote store.
*/
package domain
