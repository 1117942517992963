/*
Package layout arranges the conversation graph on the canvas.

Nodes are leveled by breadth-first distance from the roots (nodes nobody
routes to), each level is a row, and children are centered under their
parent. The result depends only on the node set and the connection order:
input positions are never read, so re-running Apply on its own output is a
no-op.

A node with several inbound edges keeps only the last one as its layout
parent. Multi-parent nodes are therefore drawn under a single parent.
*/
package layout
