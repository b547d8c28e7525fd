/*
Package coordination is the agent's connection to the cluster's
Consul-like coordination store: session lifecycle, leader election,
KV read/write, blocking watches, and service-catalog registration.

# Architecture

	┌─────────────────── COORDINATION CLIENT ───────────────────┐
	│                                                             │
	│  Client            thin GET/PUT/DELETE + watch over HTTP    │
	│  SessionManager    creates/renews/discards the TTL session  │
	│  Election          acquire/read the "leader" key            │
	│  Watch             long-poll loop, one per watched path     │
	│  NodeReporter      publish/list cluster/nodes/<host>        │
	│  TaskReader        list cluster/tasks                       │
	│  ServiceCatalog    register/deregister health-checked apps  │
	│                                                             │
	└─────────────────────────────────────────────────────────────┘

Client holds no session/leader/watch state; those live in the types
built on top of it so each can be constructed, tested, and reasoned
about independently, per spec.md §5's mutex-scoping guidance (the
mutex protects only sessionId, the cached leader bit, and the
scheduler's critical section — never held across blocking I/O).

# Error kinds

errors.go defines Transient, Precondition, Protocol, and Fatal,
matching spec.md §7's error-handling policy. Callers generally only
need to distinguish Precondition (log at DEBUG, short-circuit) from
everything else (log at WARN, retry on the next tick).
*/
package coordination
