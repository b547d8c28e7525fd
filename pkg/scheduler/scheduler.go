/*
Package scheduler implements the placement algorithm described in
spec.md §4.5: a pure function over (tasks, nodes, previous topology)
that produces a new topology, respecting replica counts and label
predicates while minimizing churn relative to the previous placement
via host stickiness.

The algorithm itself has no notion of a coordination store or a
goroutine: the topology it returns depends only on its inputs, so that
spec.md §8 property 3 ("two runs with byte-equal inputs emit byte-equal
outputs") holds trivially. Its only side effects are logging (tagged
with a random per-round id) and metrics (scheduling latency and the
per-task unplaced-replicas gauge). Callers (pkg/agent) invoke Schedule once per
schedule-watch callback and hand the Result to pkg/topology.
*/
package scheduler

import (
	"sort"

	"github.com/appltini/app-mesh/pkg/label"
	"github.com/appltini/app-mesh/pkg/log"
	"github.com/appltini/app-mesh/pkg/metrics"
	"github.com/appltini/app-mesh/pkg/types"
	"github.com/google/uuid"
)

// Result is the outcome of one scheduling round.
type Result struct {
	Topology map[string]*types.Topology

	// UnplacedReplicas counts, per task, how many replicas could not be
	// placed because matchedHosts(task) was smaller than the task's
	// replication factor (spec.md §4.5 step 2d, §7: reported via logs,
	// never an error).
	UnplacedReplicas map[string]int
}

// candidate is one (host, index) pairing under consideration for a
// task, used for both the sticky carry-over and fresh-placement passes.
type candidate struct {
	host  string
	index int
}

// Schedule computes a new topology for nodes given tasks and the
// previous round's topology. It never mutates its inputs.
func Schedule(tasks map[string]*types.Task, nodes map[string]*types.Node, prev map[string]*types.Topology) *Result {
	roundID := uuid.NewString()
	logger := log.WithComponent("scheduler").With().Str("round_id", roundID).Logger()
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SchedulingLatency)

	newTopology := make(map[string]*types.Topology, len(nodes))
	for host := range nodes {
		newTopology[host] = types.NewTopology(host)
	}

	unplaced := make(map[string]int)

	for _, task := range orderedTasks(tasks) {
		matched := matchedHosts(task, nodes)
		placed := placeTask(task, matched, prev, newTopology)
		if remaining := task.Replication - placed; remaining > 0 {
			unplaced[task.Name] = remaining
			metrics.UnplacedReplicasTotal.WithLabelValues(task.Name).Set(float64(remaining))
			logger.Warn().
				Str("task", task.Name).
				Int("replication", task.Replication).
				Int("matched_hosts", len(matched)).
				Int("placed", placed).
				Msg("under-replicated: not enough matching hosts")
		} else {
			metrics.UnplacedReplicasTotal.WithLabelValues(task.Name).Set(0)
		}
	}

	for host, topo := range newTopology {
		if len(topo.ScheduleApps) == 0 {
			delete(newTopology, host)
		}
	}

	return &Result{Topology: newTopology, UnplacedReplicas: unplaced}
}

// orderedTasks returns tasks sorted by descending priority, then
// ascending name, giving the scheduler a deterministic iteration order
// (spec.md §9 Open Question c: the reference implementation leaves this
// implicit; this spec asserts it as the intended contract).
func orderedTasks(tasks map[string]*types.Task) []*types.Task {
	ordered := make([]*types.Task, 0, len(tasks))
	for _, t := range tasks {
		ordered = append(ordered, t)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].Name < ordered[j].Name
	})
	return ordered
}

// matchedHosts returns the hosts in nodes whose label satisfies the
// task's condition (spec.md §3 invariant 1).
func matchedHosts(task *types.Task, nodes map[string]*types.Node) map[string]struct{} {
	matched := make(map[string]struct{})
	for host, node := range nodes {
		if label.Match(node.Label, task.Condition) {
			matched[host] = struct{}{}
		}
	}
	return matched
}

// placeTask assigns up to task.Replication replicas into newTopology,
// preferring sticky (host, index) pairs from prev, then filling
// remaining replicas onto the least-loaded matched hosts. It returns the
// number of replicas actually placed.
func placeTask(task *types.Task, matched map[string]struct{}, prev map[string]*types.Topology, newTopology map[string]*types.Topology) int {
	if task.Replication <= 0 {
		return 0
	}

	indexSet := make(map[int]struct{})
	for _, i := range task.TaskIndexSet() {
		indexSet[i] = struct{}{}
	}

	placedHosts := make(map[string]struct{})
	usedIndices := make(map[int]struct{})
	placed := 0

	// Step a/b: sticky carry-over, preferring least-loaded hosts,
	// ties broken by hostname ascending.
	sticky := make([]candidate, 0, len(matched))
	for host := range matched {
		prevTopo, ok := prev[host]
		if !ok {
			continue
		}
		idx, ok := prevTopo.ScheduleApps[task.Name]
		if !ok {
			continue
		}
		if _, ok := indexSet[idx]; !ok {
			continue
		}
		sticky = append(sticky, candidate{host: host, index: idx})
	}

	for placed < task.Replication && len(sticky) > 0 {
		sort.Slice(sticky, func(i, j int) bool {
			return lessByLoadThenName(sticky[i].host, sticky[j].host, newTopology)
		})
		pick := sticky[0]
		sticky = sticky[1:]
		newTopology[pick.host].ScheduleApps[task.Name] = pick.index
		placedHosts[pick.host] = struct{}{}
		usedIndices[pick.index] = struct{}{}
		placed++
	}

	// Step c: fresh placement onto remaining matched hosts, ascending
	// load then name, assigning the smallest unused index.
	remaining := make([]string, 0, len(matched))
	for host := range matched {
		if _, already := placedHosts[host]; already {
			continue
		}
		remaining = append(remaining, host)
	}

	for placed < task.Replication && len(remaining) > 0 {
		sort.Slice(remaining, func(i, j int) bool {
			return lessByLoadThenName(remaining[i], remaining[j], newTopology)
		})
		host := remaining[0]
		remaining = remaining[1:]

		idx := smallestUnusedIndex(task.TaskIndexSet(), usedIndices)
		if idx == 0 {
			break // exhausted the task's own index set; cannot happen if Replication <= len(TaskIndexSet())
		}
		newTopology[host].ScheduleApps[task.Name] = idx
		usedIndices[idx] = struct{}{}
		placed++
	}

	return placed
}

func lessByLoadThenName(a, b string, topology map[string]*types.Topology) bool {
	loadA, loadB := len(topology[a].ScheduleApps), len(topology[b].ScheduleApps)
	if loadA != loadB {
		return loadA < loadB
	}
	return a < b
}

func smallestUnusedIndex(indexSet []int, used map[int]struct{}) int {
	for _, i := range indexSet {
		if _, ok := used[i]; !ok {
			return i
		}
	}
	return 0
}
