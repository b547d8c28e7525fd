/*
Package convergence implements the Node Convergence Loop (spec.md §4.7):
on each node, reconcile the locally running cloud applications with the
topology assigned to that host, and (de)register their health checks
with the coordination store's service catalog.

This is the one SPEC_FULL component that calls into the external
application registry (pkg/registry); everything else it touches is the
coordination client.
*/
package convergence

import (
	"encoding/json"
	"fmt"

	"github.com/appltini/app-mesh/pkg/coordination"
	"github.com/appltini/app-mesh/pkg/log"
	"github.com/appltini/app-mesh/pkg/metrics"
	"github.com/appltini/app-mesh/pkg/registry"
	"github.com/appltini/app-mesh/pkg/topology"
	"github.com/appltini/app-mesh/pkg/types"
	"github.com/rs/zerolog"
)

// Converger reconciles one node's cloud applications with its assigned
// topology.
type Converger struct {
	host     string
	proxyURL string
	reader   *topology.Reader
	tasks    *coordination.TaskReader
	services *coordination.ServiceCatalog
	registry registry.Registry
	logger   zerolog.Logger
}

// New constructs a Converger for the given host. proxyURL is this
// node's own appmeshProxyUrl, used as the base of every health-check URL
// registered for apps converged onto this host (spec.md §4.7
// registerService).
func New(host, proxyURL string, client *coordination.Client, reg registry.Registry) *Converger {
	return &Converger{
		host:     host,
		proxyURL: proxyURL,
		reader:   topology.NewReader(client),
		tasks:    coordination.NewTaskReader(client),
		services: coordination.NewServiceCatalog(client),
		registry: reg,
		logger:   log.WithHost(host).With().Str("component", "convergence").Logger(),
	}
}

// Converge runs one reconciliation pass (spec.md §4.7 steps 1-5). If the
// topology fetch fails it fails closed: every local cloud app is
// removed, because the next successful fetch will restore them
// (spec.md §4.7 "If the topology fetch fails...").
func (c *Converger) Converge() error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ConvergenceDuration)

	topo, err := c.reader.Get(c.host)
	if err != nil {
		c.logger.Warn().Err(err).Msg("topology fetch failed, removing all cloud apps (fail-closed)")
		topo = types.NewTopology(c.host)
	}

	taskDefs, err := c.tasks.ListTasks()
	if err != nil {
		c.logger.Warn().Err(err).Msg("task list fetch failed, skipping this round")
		return err
	}

	apps, err := c.registry.GetApps()
	if err != nil {
		return fmt.Errorf("list local apps: %w", err)
	}

	cloudApps := make(map[string]registry.App, len(apps))
	for _, app := range apps {
		if app.IsCloudApp() {
			cloudApps[app.GetName()] = app
		}
	}

	for appName, idx := range topo.ScheduleApps {
		def, ok := taskDefs[appName]
		if !ok {
			c.logger.Warn().Str("app", appName).Msg("scheduled app has no task definition, skipping")
			continue
		}
		c.convergeApp(appName, idx, def, cloudApps)
		delete(cloudApps, appName)
	}

	for name := range cloudApps {
		c.removeApp(name)
	}

	return nil
}

func (c *Converger) convergeApp(appName string, idx int, def *types.Task, cloudApps map[string]registry.App) {
	descriptor := registry.Descriptor{
		Name:     appName,
		Content:  def.AppTemplate,
		EnvExtra: map[string]string{"APP_INDEX": fmt.Sprintf("%d", idx)},
		Metadata: registry.CloudAppMarker,
	}

	existing, hasExisting := cloudApps[appName]
	needsAdd := !hasExisting

	if hasExisting {
		materialized, err := c.materialize(descriptor)
		if err != nil || !existing.Equals(materialized) {
			needsAdd = true
		}
	}

	if !needsAdd {
		return
	}

	if err := c.registry.AddApp(descriptor); err != nil {
		c.logger.Error().Err(err).Str("app", appName).Msg("failed to add/replace cloud app")
		return
	}
	metrics.ConvergenceActionsTotal.WithLabelValues("add").Inc()
	if err := c.services.Register(c.host, appName, def.ConsulServicePort, c.proxyURL); err != nil {
		c.logger.Warn().Err(err).Str("app", appName).Msg("failed to register service")
	}
}

func (c *Converger) removeApp(name string) {
	if err := c.registry.RemoveApp(name); err != nil {
		c.logger.Error().Err(err).Str("app", name).Msg("failed to remove stale cloud app")
		return
	}
	metrics.ConvergenceActionsTotal.WithLabelValues("remove").Inc()
	if err := c.services.Deregister(c.host, name); err != nil {
		c.logger.Warn().Err(err).Str("app", name).Msg("failed to deregister service")
	}
}

func (c *Converger) materialize(descriptor registry.Descriptor) (registry.App, error) {
	data, err := json.Marshal(descriptor)
	if err != nil {
		return nil, err
	}
	return c.registry.ParseApp(data)
}
