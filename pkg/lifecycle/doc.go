// Package lifecycle applies node operations (create, convert, save, delete,
// auto-layout) to an editing session's graph.
//
// Every operation awaits its remote call before mutating the local graph. A
// failed request therefore leaves the graph as it was, and the error carries
// domain.ErrRemote. Mutations of the same node are serialized by a Guard, which
// can be backed by a ports.DistributedLocker when several editors share a
// store.
//
// Follow-up work (re-layout, position persistence, full refresh) is batched by
// a short fixed-delay scheduler. Manager.Flush waits for it.
package lifecycle
