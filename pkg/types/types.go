package types

import "time"

// Session is a TTL-bounded lease issued by the coordination store. Keys
// written with Acquire set to a session's ID are released, or deleted
// depending on Behavior, when the lease expires.
type Session struct {
	ID        string
	TTL       time.Duration
	LockDelay time.Duration
	Behavior  string // "release" or "delete"
}

// LockDelay is fixed across all sessions created by this agent, matching
// the reference implementation's hardcoded delay.
const LockDelay = 15 * time.Second

// Label is a set of key/value tags attached to a node.
type Label map[string]string

// PredicateOp is a comparison operator usable inside a Predicate entry.
// The full operator set is owned by an external label-matching module;
// this core only needs to evaluate whatever op a PredicateEntry carries.
type PredicateOp string

const (
	OpEquals    PredicateOp = "eq"
	OpNotEquals PredicateOp = "ne"
	OpExists    PredicateOp = "exists"
)

// PredicateEntry is a single clause of a task's placement condition.
type PredicateEntry struct {
	Key   string      `json:"key"`
	Op    PredicateOp `json:"op"`
	Value string      `json:"value,omitempty"`
}

// Predicate is a conjunction of PredicateEntry clauses: a node matches a
// predicate iff every entry is satisfied.
type Predicate []PredicateEntry

// Node is a machine eligible to run scheduled applications. It is owned
// by the node agent: created on first publish, removed on offline.
type Node struct {
	HostName        string    `json:"-"`
	Label           Label     `json:"label"`
	AppmeshProxyURL string    `json:"appmesh"`
	Cores           int       `json:"-"`
	TotalBytes      uint64    `json:"-"`
	FreeBytes       uint64    `json:"-"`
	PublishedAt     time.Time `json:"-"`
}

// NodeResource is the wire-format "resource" sub-object of a Node.
type NodeResource struct {
	CPUCores      int    `json:"cpu_cores"`
	MemTotalBytes uint64 `json:"mem_total_bytes"`
	MemFreeBytes  uint64 `json:"mem_free_bytes"`
}

// Task is a declared cluster-level intent: run N replicas of an
// application where a label predicate holds. Immutable once read from
// the store for a scheduling round.
type Task struct {
	Name              string      `json:"-"`
	Replication       int         `json:"replication"`
	Priority          int         `json:"priority"`
	ConsulServicePort int         `json:"port"`
	Condition         Predicate   `json:"condition"`
	AppTemplate       interface{} `json:"content"`
}

// TaskIndexSet returns the legal replica indices {1..Replication} for
// this task, in ascending order.
func (t *Task) TaskIndexSet() []int {
	indices := make([]int, t.Replication)
	for i := range indices {
		indices[i] = i + 1
	}
	return indices
}

// ScheduledApp is one entry of a host's Topology: an application name
// and the replica index it was assigned.
type ScheduledApp struct {
	App   string `json:"app"`
	Index int    `json:"index"`
}

// Topology is the placement decision for a single host: which
// applications run there, at which replica index.
type Topology struct {
	HostName     string
	ScheduleApps map[string]int // app name -> replica index
}

// NewTopology returns an empty Topology for the given host.
func NewTopology(host string) *Topology {
	return &Topology{HostName: host, ScheduleApps: make(map[string]int)}
}

// NameSet returns the set of application names scheduled on this host.
func (t *Topology) NameSet() map[string]struct{} {
	names := make(map[string]struct{}, len(t.ScheduleApps))
	for name := range t.ScheduleApps {
		names[name] = struct{}{}
	}
	return names
}

// EqualNameSet reports whether two topologies schedule exactly the same
// set of application names. Per spec, replica-index differences alone
// do not count as a change worth writing.
func (t *Topology) EqualNameSet(other *Topology) bool {
	if other == nil {
		return len(t.ScheduleApps) == 0
	}
	if len(t.ScheduleApps) != len(other.ScheduleApps) {
		return false
	}
	for name := range t.ScheduleApps {
		if _, ok := other.ScheduleApps[name]; !ok {
			return false
		}
	}
	return true
}

// MarshalEntries converts the topology into the wire-format slice of
// ScheduledApp used by the topology writer and node convergence.
func (t *Topology) MarshalEntries() []ScheduledApp {
	entries := make([]ScheduledApp, 0, len(t.ScheduleApps))
	for app, idx := range t.ScheduleApps {
		entries = append(entries, ScheduledApp{App: app, Index: idx})
	}
	return entries
}

// SecurityDocument is the opaque JSON user/role document distributed
// out-of-band. The core treats its content as bytes plus a store
// ModifyIndex; only the presence of at least one user is checked here.
type SecurityDocument struct {
	Raw         []byte
	ModifyIndex uint64
}

// JWTUser is the minimal shape this core needs in order to reject empty
// security documents (spec.md 4.8); full user/role semantics live in the
// external security module.
type JWTUser struct {
	Name string `json:"name"`
}

type securityShape struct {
	JWTUsers map[string]JWTUser `json:"jwtUsers"`
}

// HasUsers reports whether the parsed security document contains at
// least one user. Malformed documents are treated as empty.
func (d *SecurityDocument) HasUsers(parse func([]byte, interface{}) error) bool {
	var shape securityShape
	if err := parse(d.Raw, &shape); err != nil {
		return false
	}
	return len(shape.JWTUsers) > 0
}

// AgentRole describes which of the four role combinations an agent runs
// as: plain, node-only, master-only, or master+node.
type AgentRole struct {
	IsMaster bool
	IsNode   bool
}

func (r AgentRole) String() string {
	switch {
	case r.IsMaster && r.IsNode:
		return "master+node"
	case r.IsMaster:
		return "master-only"
	case r.IsNode:
		return "node-only"
	default:
		return "plain"
	}
}
