/*
Package agent wires the coordination client, session manager, election,
node reporter, scheduler, topology writer, node convergence, and
security sync into the four role combinations spec.md §2 describes, and
owns the shutdown flag spec.md §5 names (Concurrency & Resource Model,
"Cancellation").
*/
package agent

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/appltini/app-mesh/pkg/config"
	"github.com/appltini/app-mesh/pkg/convergence"
	"github.com/appltini/app-mesh/pkg/coordination"
	"github.com/appltini/app-mesh/pkg/log"
	"github.com/appltini/app-mesh/pkg/registry"
	"github.com/appltini/app-mesh/pkg/scheduler"
	"github.com/appltini/app-mesh/pkg/securitysync"
	"github.com/appltini/app-mesh/pkg/topology"
	"github.com/appltini/app-mesh/pkg/types"
	"github.com/rs/zerolog"
)

// Agent is the process-wide wiring for one host: a single coordination
// client shared by every subsystem the role flags enable (spec.md §9
// "re-architect as an explicit component constructed at startup",
// rejecting the source's global singleton).
type Agent struct {
	host   string
	cfg    config.Config
	client *coordination.Client

	sessions *coordination.SessionManager
	election *coordination.Election
	nodes    *coordination.NodeReporter
	tasks    *coordination.TaskReader
	security *securitysync.Sync
	topoR    *topology.Reader
	topoW    *topology.Writer
	conv     *convergence.Converger

	shuttingDown atomic.Bool
	wg           sync.WaitGroup
	logger       zerolog.Logger
}

// New constructs an Agent for host, wired per cfg's role flags. reg is
// the external application registry (spec.md §6 "Local registry
// interface required"); it may be nil for master-only agents, which
// never call into it.
func New(host string, cfg config.Config, reg registry.Registry) *Agent {
	client := coordination.NewClient(coordination.Config{BaseURL: cfg.ConsulURL})
	sessions := coordination.NewSessionManager(client, host, time.Duration(cfg.TTL)*time.Second)

	a := &Agent{
		host:     host,
		cfg:      cfg,
		client:   client,
		sessions: sessions,
		election: coordination.NewElection(client, sessions, host),
		nodes:    coordination.NewNodeReporter(client, sessions, host),
		tasks:    coordination.NewTaskReader(client),
		topoR:    topology.NewReader(client),
		topoW:    topology.NewWriter(client),
		logger:   log.WithHost(host).With().Str("component", "agent").Logger(),
	}

	if cfg.IsNode && reg != nil {
		a.conv = convergence.New(host, cfg.AppmeshURL(), client, reg)
	}
	if cfg.ConsulSecurityEnabled {
		a.security = securitysync.New(client, a.onSecurityUpdate)
	}

	return a
}

// Start launches every long-running task the role flags require:
// one session-renew timer, up to three watch loops, and (on master
// agents) the scheduling round triggered by the cluster watch (spec.md
// §5 Scheduling model).
func (a *Agent) Start() {
	a.sessions.Start()

	if a.security != nil {
		a.runWatch(a.security.NewWatch(func() bool { return a.cfg.ConsulSecurityEnabled && !a.shuttingDown.Load() }))
	}

	if a.cfg.IsNode {
		a.publishNode()
		a.runWatch(coordination.NewWatch(a.client, "appmesh/topology/"+a.host, false,
			func() bool { return a.cfg.IsNode && !a.shuttingDown.Load() },
			a.onTopologyChange))
	}

	if a.cfg.IsMaster {
		a.runWatch(coordination.NewWatch(a.client, "appmesh/cluster", true,
			func() bool { return a.cfg.IsMaster && !a.shuttingDown.Load() },
			a.onClusterChange))
	}

	a.logger.Info().Str("role", a.cfg.Role().String()).Msg("agent started")
}

// Stop flips the shutdown flag; every watch loop exits at its next
// iteration boundary (spec.md §5 Cancellation) and the session is
// released best-effort. Stop blocks until all watch loops have
// returned.
func (a *Agent) Stop() {
	a.shuttingDown.Store(true)
	a.sessions.Stop()
	if a.cfg.IsNode {
		if err := a.nodes.Remove(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to remove node record on shutdown")
		}
	}
	a.wg.Wait()
}

func (a *Agent) runWatch(w *coordination.Watch) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		w.Run()
	}()
}

func (a *Agent) publishNode() {
	node := &types.Node{
		HostName:        a.host,
		Label:           a.cfg.GetLabel(),
		AppmeshProxyURL: a.cfg.AppmeshURL(),
	}
	if err := a.nodes.Publish(node); err != nil {
		a.logger.Debug().Err(err).Msg("node publish deferred")
	}
}

func (a *Agent) onTopologyChange(body []byte, index uint64) {
	if a.conv == nil {
		return
	}
	if err := a.conv.Converge(); err != nil {
		a.logger.Warn().Err(err).Msg("convergence round failed")
	}
}

func (a *Agent) onClusterChange(body []byte, index uint64) {
	ok, err := a.election.Attempt()
	if err != nil {
		a.logger.Debug().Err(err).Msg("election attempt skipped")
		return
	}
	if !ok {
		return
	}
	a.runScheduleRound()
}

func (a *Agent) runScheduleRound() {
	taskDefs, err := a.tasks.ListTasks()
	if err != nil {
		a.logger.Warn().Err(err).Msg("schedule round: task list fetch failed")
		return
	}
	nodeSet, err := a.nodes.ListNodes()
	if err != nil {
		a.logger.Warn().Err(err).Msg("schedule round: node list fetch failed")
		return
	}

	oldTopology := make(map[string]*types.Topology, len(nodeSet))
	for host := range nodeSet {
		topo, err := a.topoR.Get(host)
		if err != nil {
			a.logger.Warn().Err(err).Str("host", host).Msg("schedule round: prior topology fetch failed")
			continue
		}
		oldTopology[host] = topo
	}

	result := scheduler.Schedule(taskDefs, nodeSet, oldTopology)
	for task, unplaced := range result.UnplacedReplicas {
		a.logger.Warn().Str("task", task).Int("unplaced", unplaced).Msg("task under-replicated")
	}

	writes, err := a.topoW.Write(oldTopology, result.Topology)
	if err != nil {
		a.logger.Warn().Err(err).Msg("schedule round: topology write failed")
		return
	}
	a.logger.Info().Int("writes", writes).Msg("schedule round complete")
}

func (a *Agent) onSecurityUpdate(doc *types.SecurityDocument) {
	a.logger.Info().Uint64("index", doc.ModifyIndex).Msg("security document reloaded")
}

// IsLeader reports whether this agent currently holds the leader lock.
func (a *Agent) IsLeader() bool {
	return a.election.IsLeader()
}
