/*
Package observability provides tools for monitoring the flow editor.

It includes Prometheus metrics for remote store traffic and graph mutations,
and lifecycle hooks that log or count every change the lifecycle manager
applies to the graph.
*/
package observability
