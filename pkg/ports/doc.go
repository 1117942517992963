/*
Package ports defines the driven ports (interfaces) for the flow editor.

These interfaces decouple the editing engine from the remote question store,
allowing the same graph model and lifecycle manager to run against memory,
file, Redis or HTTP backends.

# Key Interfaces

  - RecordStore: lists and mutates question records for a tenant.
  - ConversationReader: read-only access to recorded conversations.
  - RecordSource: a bulk origin of records (e.g. a markdown vault) used by importers.
  - DistributedLocker: provides distributed locking for serializing node mutations across replicas.
*/
package ports
