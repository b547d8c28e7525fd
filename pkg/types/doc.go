/*
Package types defines the core data structures shared across app-mesh's
cluster-coordination core: sessions, nodes, labels, tasks, topologies, and
the security document.

# Core Types

Coordination:
  - Session: a TTL-bounded lease from the coordination store
  - AgentRole: which of plain/node-only/master-only/master+node an agent runs as

Placement inputs:
  - Node: a machine eligible to run scheduled applications, tagged with a Label set
  - Label / Predicate / PredicateEntry: tags and the boolean query over them
  - Task: a declared "run N replicas of X where condition C holds" intent

Placement output:
  - Topology: the per-host mapping of application name to replica index
  - ScheduledApp: the wire-format {app, index} entry of a Topology

Security:
  - SecurityDocument: opaque bytes plus the store's ModifyIndex

# Equality

Topology equality for write purposes is by name set only (EqualNameSet);
replica-index churn alone does not justify rewriting a host's topology. See
pkg/topology for where this is used.

# Thread Safety

All types here are plain value/struct types with no internal synchronization.
Callers across pkg/coordination, pkg/scheduler, pkg/topology, and
pkg/convergence own their own copies per round and must not share a *Topology
or *Task across goroutines without external locking.
*/
package types
