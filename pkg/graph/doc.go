/*
Package graph holds the editable conversation graph.

It converts between stored question records and canvas nodes, derives the
connections implied by each node's routing, and owns the mutex-guarded Graph
collection the lifecycle manager mutates. Conversion is lenient: defaults
replace missing fields and dangling references are dropped from the visual
graph while staying in the record.
*/
package graph
